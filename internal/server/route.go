package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/address"
	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/jupiter"
	"github.com/labstack/echo/v4"
)

func splitCSVQuery(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		parts := strings.Split(v, ",")
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Route asks Jupiter for a swap route from the token, USDC by default.
// No route maps to 404.
func (h *Handlers) Route(c echo.Context) error {
	if h.Jupiter == nil {
		return h.err(c, http.StatusBadRequest, "jupiter is not configured", nil)
	}

	inputMint := strings.TrimSpace(c.Param("mint"))
	if err := address.Validate(inputMint); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint address", map[string]any{"err": err.Error()})
	}

	outputMint := constants.USDCMint
	if v := strings.TrimSpace(c.QueryParam("outputMint")); v != "" {
		if err := address.Validate(v); err != nil {
			return h.err(c, http.StatusBadRequest, "invalid outputMint", map[string]any{"outputMint": err.Error()})
		}
		outputMint = v
	}

	amountStr := strings.TrimSpace(c.QueryParam("amount"))
	if amountStr == "" {
		amountStr = "1000000"
	}
	if _, err := strconv.ParseUint(amountStr, 10, 64); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be uint64"})
	}

	var slippageBps *uint16
	if v := strings.TrimSpace(c.QueryParam("slippageBps")); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid slippageBps", map[string]any{"slippageBps": "must be uint16"})
		}
		tmp := uint16(n)
		slippageBps = &tmp
	}

	var restrictIntermediateTokens *bool
	if v := strings.TrimSpace(c.QueryParam("restrictIntermediateTokens")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid restrictIntermediateTokens", map[string]any{"restrictIntermediateTokens": "must be boolean"})
		}
		restrictIntermediateTokens = &b
	}

	var onlyDirectRoutes *bool
	if v := strings.TrimSpace(c.QueryParam("onlyDirectRoutes")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid onlyDirectRoutes", map[string]any{"onlyDirectRoutes": "must be boolean"})
		}
		onlyDirectRoutes = &b
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	out, err := h.Jupiter.Quote(ctx, jupiter.QuoteRequest{
		InputMint:                  inputMint,
		OutputMint:                 outputMint,
		Amount:                     amountStr,
		SlippageBps:                slippageBps,
		RestrictIntermediateTokens: restrictIntermediateTokens,
		OnlyDirectRoutes:           onlyDirectRoutes,
	})
	if err != nil {
		var he *jupiter.HTTPError
		if errors.As(err, &he) && he.NoRoute() {
			return h.err(c, http.StatusNotFound, "no route found", map[string]any{"err": err.Error()})
		}
		return h.err(c, http.StatusBadGateway, "jupiter quote failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, RouteResponse{
		InputMint:      out.InputMint,
		OutputMint:     out.OutputMint,
		InAmount:       out.InAmount,
		OutAmount:      out.OutAmount,
		PriceImpactPct: out.PriceImpactPct,
		SlippageBps:    out.SlippageBps,
		Route:          out.Labels(),
	})
}
