package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/ai"
	"github.com/aman-zulfiqar/sol-safety-check/internal/analyzer"
	"github.com/aman-zulfiqar/sol-safety-check/internal/constants"
	"github.com/aman-zulfiqar/sol-safety-check/internal/datasource"
	"github.com/aman-zulfiqar/sol-safety-check/internal/flags"
	"github.com/aman-zulfiqar/sol-safety-check/internal/metrics"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/aman-zulfiqar/sol-safety-check/internal/risk"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ReportService runs analyses and reads their history.
type ReportService interface {
	Analyze(ctx context.Context, mint string, opts analyzer.Options) (*models.RiskReport, error)
	History(ctx context.Context, mint string, limit int) ([]models.HistoryEntry, error)
}

// FlagStore is the flag CRUD surface backed by Redis.
type FlagStore interface {
	Upsert(ctx context.Context, key string, value bool, reason string) (*flags.Flag, error)
	Get(ctx context.Context, key string) (*flags.Flag, error)
	List(ctx context.Context) ([]*flags.Flag, error)
	Delete(ctx context.Context, key string) error
}

// Assistant explains reports and answers history questions.
type Assistant interface {
	Ask(ctx context.Context, question string) (*ai.AskResult, error)
	Explain(ctx context.Context, report *models.RiskReport) (string, error)
	Close() error
}

// EventSource streams finished reports.
type EventSource interface {
	Subscribe(ctx context.Context, channels ...string) (<-chan *models.ReportEvent, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Reports      ReportService     // Analysis pipeline
	Providers    []string          // Provider names, reported by /health
	Flags        FlagStore         // Redis-backed feature flags store (optional)
	AI           Assistant         // AI agent for explanations and questions (optional)
	AIBaseConfig ai.AgentConfig    // Base configuration for per-request model overrides
	Jupiter      datasource.Quoter // Jupiter Quote API client (optional)
	Events       EventSource       // Redis Pub/Sub report stream (optional)
	Metrics      *metrics.Metrics  // Prometheus collectors (optional)
	HistoryOn    bool              // Whether report history is stored
	RequestTTL   time.Duration     // Upper bound for one analysis request
	DevMode      bool              // Enable detailed error responses in development
	Logger       *logrus.Logger    // Structured logger
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		h.Logger = logrus.New()
	}
	return h.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) requestTTL() time.Duration {
	if h.RequestTTL > 0 {
		return h.RequestTTL
	}
	return constants.DefaultAnalysisTimeout + 15*time.Second
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		OK:        true,
		Providers: h.Providers,
		History:   h.HistoryOn,
		Flags:     h.Flags != nil,
		AI:        h.AI != nil,
	})
}

// analyze runs the pipeline for the :mint path parameter honouring the
// providers and fresh query parameters.
func (h *Handlers) analyze(c echo.Context, fresh bool) (*models.RiskReport, error) {
	mint := strings.TrimSpace(c.Param("mint"))
	providers := splitCSVQuery(c.QueryParams()["providers"])

	ctx, cancel := h.withTimeout(c.Request().Context(), h.requestTTL())
	defer cancel()

	return h.Reports.Analyze(ctx, mint, analyzer.Options{Providers: providers, Fresh: fresh})
}

func parseFresh(c echo.Context) (bool, error) {
	v := strings.TrimSpace(c.QueryParam("fresh"))
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// Report runs a full analysis and returns the risk report
// Accepts providers (csv) and fresh (bool) query parameters
func (h *Handlers) Report(c echo.Context) error {
	fresh, err := parseFresh(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid fresh", map[string]any{"fresh": "must be boolean"})
	}

	report, err := h.analyze(c, fresh)
	if err != nil {
		return h.analysisErr(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// Summary returns severity counts and the high/medium findings of a report
func (h *Handlers) Summary(c echo.Context) error {
	fresh, err := parseFresh(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid fresh", map[string]any{"fresh": "must be boolean"})
	}

	report, err := h.analyze(c, fresh)
	if err != nil {
		return h.analysisErr(c, err)
	}
	return c.JSON(http.StatusOK, risk.Summarize(report))
}

// History returns stored analyses of a mint
// Accepts limit query parameter (default: 20, range: 1-100)
func (h *Handlers) History(c echo.Context) error {
	limit := constants.DefaultHistoryCap
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > constants.MaxHistoryRows {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max " + strconv.Itoa(constants.MaxHistoryRows)})
	}

	mint := strings.TrimSpace(c.Param("mint"))

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Reports.History(ctx, mint, limit)
	if err != nil {
		return h.analysisErr(c, err)
	}
	if items == nil {
		items = []models.HistoryEntry{}
	}
	return c.JSON(http.StatusOK, HistoryResponse{Mint: mint, Items: items})
}

// assistant returns the default agent or a temporary one for a model override.
// The returned func releases the temporary agent.
func (h *Handlers) assistant(ctx context.Context, model string) (Assistant, func(), error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return h.AI, func() {}, nil
	}

	cfg := h.AIBaseConfig
	cfg.Model = model
	a, err := ai.NewAgent(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, func() { _ = a.Close() }, nil
}

// Explain analyses the mint and asks the LLM for a plain-language reading
func (h *Handlers) Explain(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req ExplainRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return h.err(c, http.StatusBadRequest, "invalid json", nil)
		}
	}

	start := time.Now()

	report, err := h.analyze(c, req.Fresh)
	if err != nil {
		return h.analysisErr(c, err)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	agent, release, err := h.assistant(ctx, req.Model)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
	}
	defer release()

	text, err := agent.Explain(ctx, report)
	if err != nil {
		return h.err(c, http.StatusBadGateway, "ai explain failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, ExplainResponse{
		Mint:         report.MintAddress,
		OverallScore: report.OverallScore,
		Verdict:      report.Verdict,
		Explanation:  text,
		TookMs:       time.Since(start).Milliseconds(),
	})
}

// AIAsk answers natural language questions about stored reports
// Supports optional model override for one-off requests
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	agent, release, err := h.assistant(ctx, req.Model)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
	}
	defer release()

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		if errors.Is(err, ai.ErrNoHistory) {
			return h.err(c, http.StatusBadRequest, "report history is not configured", nil)
		}
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}

// requireFlags rejects flag requests when no flag store is wired.
func (h *Handlers) requireFlags(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.Flags == nil {
			return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
		}
		return next(c)
	}
}

// FlagsUpsert creates or updates a feature flag with the given key and value
// Validates key format and returns the created/updated flag
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value, req.Reason)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsUpdate updates an existing feature flag with the given key
// Validates key format and returns the updated flag
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value, req.Reason)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsGet retrieves a feature flag by its key
// Returns 404 if flag doesn't exist
func (h *Handlers) FlagsGet(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsList returns all feature flags in the system
func (h *Handlers) FlagsList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsDelete removes a feature flag by its key
// Returns 204 No Content on successful deletion
func (h *Handlers) FlagsDelete(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
