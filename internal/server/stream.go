package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/address"
	"github.com/aman-zulfiqar/sol-safety-check/internal/cache"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/labstack/echo/v4"
)

// LiveReports streams finished reports as server-sent events.
// Optional filters: level (safe|caution|high_risk) and mint.
func (h *Handlers) LiveReports(c echo.Context) error {
	if h.Events == nil {
		return h.err(c, http.StatusServiceUnavailable, "report stream is not configured", nil)
	}

	var level models.RiskLevel
	if lvl := strings.TrimSpace(c.QueryParam("level")); lvl != "" {
		switch level = models.RiskLevel(lvl); level {
		case models.RiskLevelSafe, models.RiskLevelCaution, models.RiskLevelHighRisk:
		default:
			return h.err(c, http.StatusBadRequest, "invalid level", map[string]any{"level": "safe, caution or high_risk"})
		}
	}

	// Every report reaches both its level and mint channel, so a combined
	// filter listens on the mint channel alone and checks the level here.
	channel := cache.ChannelReportsAll
	if mint := strings.TrimSpace(c.QueryParam("mint")); mint != "" {
		if err := address.Validate(mint); err != nil {
			return h.err(c, http.StatusBadRequest, "invalid mint address", map[string]any{"err": err.Error()})
		}
		channel = cache.MintChannel(mint)
	} else if level != "" {
		channel = cache.LevelChannel(level)
	}

	ctx := c.Request().Context()
	events, err := h.Events.Subscribe(ctx, channel)
	if err != nil {
		h.logger().WithError(err).Warn("report stream subscribe failed")
		return h.err(c, http.StatusServiceUnavailable, "report stream unavailable", nil)
	}

	// The stream outlives the server write timeout.
	_ = http.NewResponseController(c.Response()).SetWriteDeadline(time.Time{})

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := time.NewTicker(liveHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if level != "" && ev.RiskLevel != level {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: report\nid: %s\ndata: %s\n\n", ev.RunID, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
