package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"regdiag/domain/diagnostics"
)

// Renderer turns a run report into markdown and HTML summaries.
type Renderer struct{}

// NewRenderer creates a report renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderMarkdown produces the markdown summary of a diagnostics run.
func (r *Renderer) RenderMarkdown(report *diagnostics.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Heteroscedasticity diagnostics: %s\n\n", report.Dataset)
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Response: `%s`\n", report.Response)
	fmt.Fprintf(&b, "- Observations: %d\n", report.SampleSize)
	fmt.Fprintf(&b, "- Drop fraction: %.3f (of the whole sorted sample)\n", report.DropFraction)
	fmt.Fprintf(&b, "- Alternative: %s, alpha: %.3f\n", report.Alternative, report.Alpha)
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n\n", report.Fingerprint)

	b.WriteString("## Goldfeld-Quandt results\n\n")
	b.WriteString("| Predictor | F | p-value | df | Groups (low/high/dropped) | Decision |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, p := range report.Predictors {
		gq := p.GoldfeldQuandt
		fmt.Fprintf(&b, "| %s | %.4f | %.4g | (%d, %d) | %d/%d/%d | %s |\n",
			p.Predictor, gq.Statistic, gq.PValue, gq.DFNumerator, gq.DFDenominator,
			gq.LowSize, gq.HighSize, gq.Dropped, decisionLabel(p.Decision))
	}
	b.WriteString("\n")

	b.WriteString("## Per-predictor fits\n\n")
	for _, p := range report.Predictors {
		fmt.Fprintf(&b, "### %s\n\n", p.Predictor)
		fmt.Fprintf(&b, "- Fit: y = %.4f + %.4f·x, RSS %.4f, residual df %d, R² %.4f\n",
			p.Fit.Intercept, p.Fit.Slope, p.Fit.RSS, p.Fit.ResidualDF, p.Fit.RSquared)
		fmt.Fprintf(&b, "- Residuals: mean %.4g, sd %.4g, skew %.3f, excess kurtosis %.3f, outliers %d\n\n",
			p.Residuals.Mean, p.Residuals.StdDev, p.Residuals.Skewness,
			p.Residuals.Kurtosis, p.Residuals.OutlierCount)
	}

	return b.String()
}

// RenderHTML renders the markdown summary to HTML.
func (r *Renderer) RenderHTML(report *diagnostics.RunReport) []byte {
	md := []byte(r.RenderMarkdown(report))

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	opts := html.RendererOptions{Flags: html.CommonFlags | html.CompletePage}
	renderer := html.NewRenderer(opts)

	return markdown.ToHTML(md, p, renderer)
}

func decisionLabel(d diagnostics.Decision) string {
	if d == diagnostics.DecisionReject {
		return "reject homoscedasticity"
	}
	return "fail to reject"
}
