package ai

// reportsSchemaDescription describes the report history table for NL→SQL prompting.
//
// Keep it in sync with cache.ReportsTableDDL.
const reportsSchemaDescription = `
Table: risk_reports

Columns:
  - id            UUID           -- Analysis run id
  - mint          String         -- Token mint address (base58)
  - overall_score UInt8          -- Composite risk score 0-100, higher is riskier
  - risk_level    String         -- One of 'safe' (0-29), 'caution' (30-59), 'high_risk' (60-100)
  - verdict       String         -- Human verdict, e.g. 'Caution'
  - high_notes    UInt8          -- Number of rule notes with severity 'high'
  - sources       Array(String)  -- Providers that returned data, e.g. ['dexscreener','rugcheck']
  - warnings      Array(String)  -- Provider failures, e.g. 'Birdeye failed: http 401'
  - report        String         -- Full report as JSON
  - generated_at  DateTime64(3)  -- When the report was produced (UTC)

Notes:
  - A mint can be analysed many times; use argMax(overall_score, generated_at) or
    ORDER BY generated_at DESC LIMIT 1 BY mint for the latest report per mint.
  - Rule level details live inside report, e.g. JSONExtractArrayRaw(report, 'notes').
  - Time filters should use generated_at, e.g. generated_at >= now() - INTERVAL 24 HOUR.
  - has(sources, 'rugcheck') tests whether a provider contributed.
`
