package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/aman-zulfiqar/sol-safety-check/internal/risk"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const DefaultModel = "openai/gpt-4.1-mini"

// ErrNoHistory is returned by Ask when the agent has no ClickHouse connection.
var ErrNoHistory = errors.New("ai agent has no report history database")

// AgentConfig holds configuration for the AI agent.
type AgentConfig struct {
	// ClickHouse connection settings. Leave Addr empty for an explain-only agent.
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// OpenRouter / LLM settings.
	OpenRouterAPIKey string
	// Model name as understood by OpenRouter, e.g. "openai/gpt-4.1-mini".
	Model string

	Logger *logrus.Logger
}

// Agent explains risk reports and answers questions over report history
// using an LLM and ClickHouse.
type Agent struct {
	llm    llms.Model
	db     *sql.DB
	model  string
	logger *logrus.Logger
}

// NewAgent creates a new Agent with its own LLM and, when configured,
// ClickHouse clients.
func NewAgent(ctx context.Context, cfg AgentConfig) (*Agent, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	// OpenRouter speaks the OpenAI API.
	llm, err := openai.New(
		openai.WithToken(cfg.OpenRouterAPIKey),
		openai.WithBaseURL("https://openrouter.ai/api/v1"),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter LLM: %w", err)
	}

	var db *sql.DB
	if cfg.ClickHouseAddr != "" {
		db = clickhouse.OpenDB(&clickhouse.Options{
			Addr: []string{cfg.ClickHouseAddr},
			Auth: clickhouse.Auth{
				Database: cfg.ClickHouseDatabase,
				Username: cfg.ClickHouseUsername,
				Password: cfg.ClickHousePassword,
			},
		})

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping ClickHouse from AI agent: %w", err)
		}
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.ClickHouseAddr,
		"database": cfg.ClickHouseDatabase,
		"model":    cfg.Model,
		"history":  db != nil,
	}).Info("initialized AI agent")

	return &Agent{
		llm:    llm,
		db:     db,
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

// Model returns the LLM model name the agent talks to.
func (a *Agent) Model() string { return a.model }

// Close closes underlying resources.
func (a *Agent) Close() error {
	if a.db != nil {
		a.logger.Debug("closing AI agent ClickHouse connection")
		return a.db.Close()
	}
	return nil
}

// AskResult is the structured result of an Ask call.
type AskResult struct {
	SQL    string
	Answer string
}

// Ask takes a natural language question, generates SQL over risk_reports,
// executes it, and summarises the result.
func (a *Agent) Ask(ctx context.Context, question string) (*AskResult, error) {
	if a.db == nil {
		return nil, ErrNoHistory
	}

	sqlQuery, err := a.generateSQL(ctx, question)
	if err != nil {
		return nil, err
	}

	rowsJSON, err := a.runQuery(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}

	answer, err := a.summariseResult(ctx, question, sqlQuery, rowsJSON)
	if err != nil {
		return nil, err
	}

	return &AskResult{
		SQL:    sqlQuery,
		Answer: answer,
	}, nil
}

// Explain asks the LLM for a plain-language reading of a risk report.
func (a *Agent) Explain(ctx context.Context, report *models.RiskReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("nil report")
	}

	resp, err := llms.GenerateFromSinglePrompt(
		ctx,
		a.llm,
		explainPrompt(report),
		llms.WithMaxTokens(600),
		llms.WithTemperature(0.2),
	)
	if err != nil {
		return "", fmt.Errorf("LLM explanation failed: %w", err)
	}

	return strings.TrimSpace(resp), nil
}

func explainPrompt(report *models.RiskReport) string {
	var b strings.Builder

	symbol := ""
	if report.TokenMeta != nil && report.TokenMeta.Symbol != "" {
		symbol = " (" + report.TokenMeta.Symbol + ")"
	}
	fmt.Fprintf(&b, "Token: %s%s\n", report.MintAddress, symbol)
	fmt.Fprintf(&b, "Overall risk score: %d/100 (%s, verdict %q)\n", report.OverallScore, report.RiskLevel, report.Verdict)

	b.WriteString("Rule results:\n")
	for _, n := range report.Notes {
		fmt.Fprintf(&b, "  - [%s] %s scored %d: %s\n", n.Severity, n.RuleName, n.Score, n.Message)
	}
	if len(report.Warnings) > 0 {
		b.WriteString("Data gaps:\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	if len(report.DataSourcesUsed) > 0 {
		fmt.Fprintf(&b, "Sources: %s\n", strings.Join(report.DataSourcesUsed, ", "))
	}

	s := risk.Summarize(report)

	return fmt.Sprintf(`
You are a cautious crypto risk analyst explaining an automated Solana token safety report.

%s
Severity counts: %d high, %d medium, %d low.

Instructions:
- In 3 to 6 bullet points, explain the biggest risks first, then anything reassuring.
- Mention missing data when providers failed; missing data is not evidence of safety.
- Scores are 0-100 where higher means riskier.
- Never give financial advice or price predictions. End with "Always do your own research."
`, b.String(), s.HighRiskCount, s.MediumRiskCount, s.LowRiskCount)
}

// generateSQL asks the LLM to produce a safe SELECT query over risk_reports.
func (a *Agent) generateSQL(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(`
You are an expert ClickHouse SQL generator.

Use ONLY the following table:
%s

Rules:
- Return a single SELECT query in ClickHouse SQL.
- Do NOT include any explanation or comments, only the SQL.
- The table is risk_reports.
- Use generated_at for time filtering.
- Use aggregate functions like count, avg, max when appropriate.
- If user asks for \"riskiest\" or \"top\" something, use ORDER BY ... DESC and LIMIT.
- Never select the report column unless the question needs rule details.
- Never modify data: no INSERT, UPDATE, DELETE, DROP, ALTER, CREATE, TRUNCATE.

User question:
%s
`, reportsSchemaDescription, question)

	resp, err := llms.GenerateFromSinglePrompt(
		ctx,
		a.llm,
		prompt,
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return "", fmt.Errorf("LLM SQL generation failed: %w", err)
	}

	sqlQuery := sanitizeSQL(resp)
	if err := validateSQL(sqlQuery); err != nil {
		return "", err
	}

	a.logger.WithField("sql", sqlQuery).Debug("generated SQL from question")
	return sqlQuery, nil
}

// runQuery executes the generated SQL and encodes results as JSON.
func (a *Agent) runQuery(ctx context.Context, sqlQuery string) (string, error) {
	rows, err := a.db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return "", fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("failed to get columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return "", fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any, len(cols))
		for i, col := range cols {
			rowMap[col] = values[i]
		}
		out = append(out, rowMap)
	}

	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("row iteration error: %w", err)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}

	return string(data), nil
}

// summariseResult asks the LLM to answer the question given SQL + JSON results.
func (a *Agent) summariseResult(ctx context.Context, question, sqlQuery, rowsJSON string) (string, error) {
	prompt := fmt.Sprintf(`
You are a helpful assistant analysing historical Solana token risk reports.

User question:
%s

SQL that was executed:
%s

Query results in JSON (array of objects, can be empty):
%s

Instructions:
- If the result set is empty, say that no reports were found for the question.
- Otherwise, answer the question concisely using bullet points and short sentences.
- Include mint addresses, scores and risk levels where relevant.
- Do not restate the raw JSON.
`, question, sqlQuery, rowsJSON)

	resp, err := llms.GenerateFromSinglePrompt(
		ctx,
		a.llm,
		prompt,
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return "", fmt.Errorf("LLM summarisation failed: %w", err)
	}

	return strings.TrimSpace(resp), nil
}

// sanitizeSQL strips code fences and trailing semicolons from the LLM output.
func sanitizeSQL(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasPrefix(strings.ToLower(s), "sql") {
		s = s[3:]
	}
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

var fromReportsRe = regexp.MustCompile(`\bFROM\s+(\w+\.)?RISK_REPORTS\b`)

// validateSQL enforces a conservative safety policy for generated SQL.
func validateSQL(s string) error {
	if s == "" {
		return fmt.Errorf("empty SQL generated by LLM")
	}

	upper := strings.ToUpper(strings.TrimSpace(s))

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("only SELECT queries are allowed, got: %s", upper[:min(20, len(upper))])
	}

	disallowed := []string{
		"INSERT ", "UPDATE ", "DELETE ", "DROP ", "ALTER ", "TRUNCATE ",
		"CREATE ", "RENAME ", "ATTACH ", "DETACH ", "OPTIMIZE ", "SYSTEM ",
	}
	for _, kw := range disallowed {
		if strings.Contains(upper, kw) {
			return fmt.Errorf("disallowed SQL keyword %q in generated query", kw)
		}
	}

	if strings.Contains(s, ";") {
		return fmt.Errorf("multiple statements or semicolons are not allowed")
	}

	if !fromReportsRe.MatchString(upper) {
		return fmt.Errorf("query must target risk_reports table")
	}

	return nil
}
