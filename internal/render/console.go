// Package render prints risk reports for terminals.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
	"github.com/aman-zulfiqar/sol-safety-check/internal/risk"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	maxPairs   = 5
	maxHolders = 10
)

var printer = message.NewPrinter(language.English)

// JSON writes the report as indented JSON.
func JSON(w io.Writer, report *models.RiskReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Console writes the verdict, rule table, token info, pairs, holders,
// warnings and data sources. now is used for pair ages.
func Console(w io.Writer, report *models.RiskReport, now time.Time) error {
	ew := &errWriter{w: w}

	ew.printf("%s %s\n", risk.VerdictEmoji(report.OverallScore), report.Verdict)
	ew.printf("Risk Score: %d/100 (%s)\n\n", report.OverallScore, report.RiskLevel)

	ew.section("Risk Assessment Details")
	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tSCORE\tSEVERITY\tMESSAGE")
	for _, n := range report.Notes {
		fmt.Fprintf(tw, "%s\t%d\t%s %s\t%s\n", n.RuleName, n.Score, risk.SeverityEmoji(n.Severity), strings.ToUpper(string(n.Severity)), n.Message)
	}
	tw.Flush()

	if m := report.TokenMeta; m != nil {
		ew.section("Token Information")
		tw = tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Address\t%s\n", orNA(m.Address))
		if m.Symbol != "" {
			fmt.Fprintf(tw, "Symbol\t%s\n", m.Symbol)
		}
		if m.Name != "" {
			fmt.Fprintf(tw, "Name\t%s\n", m.Name)
		}
		supply := "N/A"
		if m.Supply != nil {
			supply = printer.Sprintf("%.0f", m.Supply.InexactFloat64())
		}
		fmt.Fprintf(tw, "Supply\t%s\n", supply)
		fmt.Fprintf(tw, "Mint Authority\t%s\n", authority(m.IsMintAuthorityRenounced))
		fmt.Fprintf(tw, "Freeze Authority\t%s\n", authority(m.IsFreezeAuthorityRenounced))
		tw.Flush()
	}

	if len(report.Pairs) > 0 {
		ew.section("Trading Pairs")
		tw = tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DEX\tLIQUIDITY (USD)\tVOLUME 24H (USD)\tAGE")
		for _, p := range report.Pairs[:min(maxPairs, len(report.Pairs))] {
			age := "N/A"
			if p.PairCreatedAt != nil {
				age = fmt.Sprintf("%d days", int(now.Sub(*p.PairCreatedAt).Hours()/24))
			}
			dex := p.DexID
			if dex == "" {
				dex = "Unknown"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", dex, usd(p.LiquidityUSD), usd(p.Volume24hUSD), age)
		}
		tw.Flush()
	}

	if len(report.TopHolders) > 0 {
		ew.section("Top Holders")
		tw = tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ADDRESS\tBALANCE\tPERCENTAGE")
		for _, h := range report.TopHolders[:min(maxHolders, len(report.TopHolders))] {
			balance, pct := "N/A", "N/A"
			if !h.Balance.IsZero() {
				balance = printer.Sprintf("%.0f", h.Balance.InexactFloat64())
			}
			if !h.Percentage.IsZero() {
				pct = h.Percentage.StringFixed(2) + "%"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", shortAddress(h.Address), balance, pct)
		}
		tw.Flush()
	}

	if len(report.Warnings) > 0 {
		ew.section("Warnings")
		for _, warning := range report.Warnings {
			ew.printf("• %s\n", warning)
		}
	}

	ew.section("Data Sources Used")
	if len(report.DataSourcesUsed) == 0 {
		ew.printf("None\n")
	} else {
		ew.printf("%s\n", strings.Join(report.DataSourcesUsed, ", "))
	}

	return ew.err
}

func authority(renounced bool) string {
	if renounced {
		return "Renounced"
	}
	return "Active"
}

func usd(v *float64) string {
	if v == nil || *v == 0 {
		return "N/A"
	}
	return printer.Sprintf("$%.0f", *v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func shortAddress(addr string) string {
	if addr == "" {
		return "N/A"
	}
	if len(addr) > 8 {
		return addr[:8] + "..."
	}
	return addr
}

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(e, format, args...)
}

func (e *errWriter) section(title string) {
	e.printf("\n== %s ==\n", title)
}
