package report

// HTMLTemplate is the html/template source for the HTML report.
const HTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --orange: #ea580c;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 1000px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 16px 0 8px; }
  p { margin: 6px 0; }
  ul { margin: 6px 0 12px 20px; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-right { text-align: right; }

  .tier-bar {
    display: grid;
    grid-template-columns: repeat(4, 1fr);
    gap: 8px;
    margin: 12px 0;
  }
  .tier-item { background: var(--section-bg); padding: 10px; border-radius: 6px; text-align: center; }
  .tier-item .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .tier-item .value { font-size: 1.3rem; font-weight: 700; }

  .positive { color: var(--green); }
  .negative { color: var(--red); }

  .tier-badge {
    display: inline-block;
    padding: 1px 8px;
    border-radius: 3px;
    font-size: 0.8rem;
    font-weight: 600;
  }
  .tier-badge.high { background: #dcfce7; color: var(--green); }
  .tier-badge.medium { background: #dbeafe; color: var(--accent); }
  .tier-badge.low { background: #f3f4f6; color: var(--muted); }
  .tier-badge.defensive { background: #fef2f2; color: var(--red); }
  .tag { display: inline-block; background: #f3f4f6; border-radius: 3px; padding: 0 5px; margin: 1px; font-size: 0.75rem; }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); vertical-align: top; }

  .chart-container { margin: 12px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }

  .section { margin: 20px 0; }
  .section-summary {
    background: var(--section-bg);
    padding: 12px;
    border-radius: 6px;
    margin: 8px 0;
  }

  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<div class="header">
  <div class="header-left">
    <h1>{{.Title}}</h1>
    <p class="muted">{{.ThemeCount}} themes · run {{.RunID}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">{{.Author}}</p>
  </div>
</div>

{{if .ShowSummary}}
<div class="section" id="summary">
  <h2>Executive Summary</h2>
  <div class="tier-bar">
    {{range .TierCounts}}
    <div class="tier-item"><div class="label">{{.Tier}}</div><div class="value tier-{{.Class}}">{{.Count}}</div></div>
    {{end}}
  </div>
  <div class="section-summary">
    <ul>
    {{range .Takeaways}}<li>{{.}}</li>{{end}}
    </ul>
  </div>
</div>
{{end}}

{{if .ShowMomentum}}
<div class="section" id="momentum">
  <h2>Market Momentum</h2>
  <div class="chart-container">{{.MomentumChart}}</div>
  <div class="chart-container">{{.InterestChart}}</div>
  {{if .Momentum}}
  <table>
    <thead><tr><th>Theme</th><th>Window</th><th>Momentum</th><th>Direction</th><th>1Y vs 5Y</th><th>Acceleration</th><th>CAGR</th></tr></thead>
    <tbody>
    {{range .Momentum}}
    <tr>
      <td>{{.Theme}}</td>
      <td>{{.Timeframe}}</td>
      <td class="{{.MomentumClass}}">{{.Momentum}}</td>
      <td>{{.Direction}}</td>
      <td>{{.Volume}} {{.LongMomentum}}</td>
      <td>{{.Acceleration}}</td>
      <td>{{.CAGR}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
</div>
{{end}}

{{if .ShowRecommendations}}
<div class="section" id="recommendations">
  <h2>Campaign Recommendations</h2>
  <table>
    <thead><tr><th>Theme</th><th>Priority</th><th>Action</th><th>Budget</th><th>Searches</th><th>Competition</th><th>CPC</th><th>Rationale</th></tr></thead>
    <tbody>
    {{range .Recommendations}}
    <tr>
      <td>{{.Theme}}</td>
      <td><span class="tier-badge {{.TierClass}}">{{.Tier}}</span></td>
      <td>{{.Action}}</td>
      <td>{{.Budget}}</td>
      <td>{{.Searches}}</td>
      <td>{{.Compete}}</td>
      <td>{{.CPC}}</td>
      <td>{{range .Tags}}<span class="tag">{{.}}</span>{{end}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

{{if .ShowGeo}}
<div class="section" id="geo">
  <h2>Geographic Market Evolution</h2>
  {{if .Emerging}}
  <h3>Emerging Markets</h3>
  <ul>{{range .Emerging}}<li><strong>{{.Name}}</strong>: {{join .Items ", "}}</li>{{end}}</ul>
  {{end}}
  {{if .Declining}}
  <h3>Declining Markets</h3>
  <ul>{{range .Declining}}<li><strong>{{.Name}}</strong>: {{join .Items ", "}}</li>{{end}}</ul>
  {{end}}
  {{if .StableLeaders}}
  <h3>Stable Market Leaders</h3>
  <ul>{{range .StableLeaders}}<li><strong>{{.Name}}</strong>: popular for {{join .Items ", "}}</li>{{end}}</ul>
  {{end}}
  {{if .RegionLeaders}}
  <h3>Top Regions Across Themes</h3>
  <table>
    <thead><tr><th>Region</th><th>Total Score</th><th>Top Themes</th></tr></thead>
    <tbody>
    {{range .RegionLeaders}}<tr><td>{{.Region}}</td><td>{{.Score}}</td><td>{{join .Themes ", "}}</td></tr>{{end}}
    </tbody>
  </table>
  {{end}}
</div>
{{end}}

{{if .ShowSeasonality}}
<div class="section" id="seasonality">
  <h2>Seasonal Patterns</h2>
  <div class="chart-container">{{.SeasonalityChart}}</div>
  <table>
    <thead><tr><th>Theme</th><th>5-Year Peak</th><th>1-Year Peak</th><th>Strength</th><th>Strategy</th></tr></thead>
    <tbody>
    {{range .Seasonality}}<tr><td>{{.Theme}}</td><td>{{.LongPeak}}</td><td>{{.ShortPeak}}</td><td>{{.Strength}}</td><td>{{.Strategy}}</td></tr>{{end}}
    </tbody>
  </table>
</div>
{{end}}

{{if .ShowKeywords}}
<div class="section" id="keywords">
  <h2>Breakout Keywords</h2>
  {{range .Breakouts}}
  <h3>{{.Name}}</h3>
  <ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
  {{if .HighValue}}
  <h3>High-Value Keywords</h3>
  <table>
    <thead><tr><th>Query</th><th>Total Score</th><th>Max Score</th><th>Markets</th></tr></thead>
    <tbody>
    {{range .HighValue}}<tr><td>{{.Query}}</td><td>{{.Total}}</td><td>{{.Max}}</td><td>{{.Markets}}</td></tr>{{end}}
    </tbody>
  </table>
  {{end}}
  {{if .TopKeywords}}
  <h3>Top Keywords for Your Budget</h3>
  <table id="top-keywords">
    <thead><tr><th>Keyword</th><th>Market</th><th>Score</th><th>Priority</th><th>Budget</th><th>Est. CPC</th><th>Why</th></tr></thead>
    <tbody>
    {{range .TopKeywords}}<tr><td>{{.Keyword}}</td><td>{{.Market}}</td><td>{{.Score}}</td><td>{{.Priority}}</td><td>{{.Budget}}</td><td>{{.CPC}}</td><td>{{.Reason}}</td></tr>{{end}}
    </tbody>
  </table>
  {{end}}
  {{if .Trending}}
  <h3>Trending Searches Today</h3>
  <ul>{{range .Trending}}<li>{{.Term}}{{if .Traffic}} <span class="muted">({{.Traffic}})</span>{{end}}</li>{{end}}</ul>
  {{end}}
</div>
{{end}}

{{if .ShowPlan}}
<div class="section" id="plan">
  <h2>Campaign Plan</h2>
  <div class="section-summary">
    Monthly budget {{.Plan.Monthly}}: ads {{.Plan.Ads}}, testing {{.Plan.Testing}}, tools {{.Plan.Tools}}.
    Daily ads {{.Plan.DailyAds}}, max CPC target {{.Plan.MaxCPC}}.
  </div>
  {{if .Plan.Allocations}}
  <table>
    <thead><tr><th>Theme</th><th>Tier</th><th>Share</th><th>Monthly</th><th>Daily</th></tr></thead>
    <tbody>
    {{range .Plan.Allocations}}<tr><td>{{.Theme}}</td><td>{{.Tier}}</td><td>{{.Share}}</td><td>{{.Monthly}}</td><td>{{.Daily}}</td></tr>{{end}}
    </tbody>
  </table>
  {{end}}
  {{if .Plan.Adjustments}}
  <h3>Seasonal Adjustments</h3>
  <ul>{{range .Plan.Adjustments}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
  {{range .ActionPlan}}
  <h3>{{.Title}}</h3>
  <ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>
  {{end}}
</div>
{{end}}

{{if .ShowClusters}}
<div class="section" id="clusters">
  <h2>Campaign Groups</h2>
  <ul>{{range .Groups}}<li><strong>{{.Name}}</strong>: {{join .Items ", "}}</li>{{end}}</ul>
  {{if .GeoClusters}}
  <h3>Geographic Clusters</h3>
  <ul>{{range .GeoClusters}}<li>{{.Name}}: {{join .Items ", "}}</li>{{end}}</ul>
  {{end}}
</div>
{{end}}

{{if .ShowSkipped}}
<div class="section" id="skipped">
  <h2>Skipped Series</h2>
  <table>
    <thead><tr><th>Theme</th><th>Window</th><th>Reason</th></tr></thead>
    <tbody>
    {{range .Skipped}}<tr><td>{{.Theme}}</td><td>{{.Timeframe}}</td><td>{{.Reason}}</td></tr>{{end}}
    </tbody>
  </table>
</div>
{{end}}

<div class="footer">
  <p>Figures are relative Google Trends interest (0-100) and Keyword Planner estimates. Recommendations are computed on demand and not stored.</p>
  <p>{{.Author}} · Generated on {{.GeneratedAt}}</p>
</div>

</body>
</html>`
