package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/sirupsen/logrus"
)

// PumpFun recognises Pump.fun launches by their vanity mint suffix. When a
// Moralis key is configured it also looks up creation time and creator.
type PumpFun struct {
	moralisURL string
	moralisKey string
	http       *httpGetter
	logger     *logrus.Logger
}

func NewPumpFun(cfg HTTPConfig, moralisKey string) *PumpFun {
	g := newHTTPGetter(constants.ProviderPumpFun, cfg)
	return &PumpFun{
		moralisURL: trimBaseURL(cfg.BaseURL, constants.MoralisBaseURL),
		moralisKey: strings.TrimSpace(moralisKey),
		http:       g,
		logger:     g.logger,
	}
}

func (p *PumpFun) Name() string { return constants.ProviderPumpFun }

// IsPumpFunMint reports whether mint carries the Pump.fun vanity suffix.
func IsPumpFunMint(mint string) bool {
	return strings.HasSuffix(mint, "pump")
}

func (p *PumpFun) Fetch(ctx context.Context, mint string) (*Result, error) {
	if !IsPumpFunMint(mint) {
		return nil, nil
	}

	info := &models.PumpFunInfo{
		IsPumpFunToken:  true,
		MigrationStatus: models.MigrationUnknown,
	}

	if p.moralisKey != "" {
		var meta map[string]any
		headers := map[string]string{"X-API-Key": p.moralisKey}
		if err := p.http.getJSON(ctx, p.moralisURL+"/token/"+mint+"/metadata", headers, &meta); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.WithError(err).WithField("mint", mint).Warn("pump.fun metadata lookup failed")
		} else {
			info.CreationTime = parseCreationTime(meta)
			info.DevWallet = parseDevWallet(meta)
		}
	}

	return &Result{PumpFun: info}, nil
}

func parseCreationTime(data map[string]any) *time.Time {
	for _, key := range []string{"created_at", "createdAt", "creation_time", "creationTime", "timestamp"} {
		switch v := data[key].(type) {
		case float64:
			if v > 0 {
				t := time.Unix(int64(v), 0).UTC()
				return &t
			}
		case string:
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}

func parseDevWallet(data map[string]any) string {
	for _, key := range []string{"dev_wallet", "devWallet", "creator", "creator_wallet", "creatorWallet"} {
		if v, ok := data[key]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}
