// Package report renders an analysis result as a markdown summary for
// presentation layers.
package report

import (
	"fmt"
	"math"
	"strings"

	"dosefit/app"
)

// BuildMarkdown renders parameter estimates, the potency comparison, and
// the aggregation summary as a markdown document.
func BuildMarkdown(result *app.AnalysisResult) string {
	var b strings.Builder

	b.WriteString("# Dose-response analysis\n\n")
	fmt.Fprintf(&b, "%d observations across %d conditions.\n\n", result.Observations, len(result.Conditions))

	b.WriteString("## Fitted parameters\n\n")
	b.WriteString("| Condition | Hill slope | Min | Max | EC50 |\n")
	b.WriteString("|-----------|-----------:|----:|----:|-----:|\n")
	for _, c := range result.Conditions {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			c.Condition,
			estimate(c.Params.HillSlope, c.StdErr.HillSlope),
			estimate(c.Params.Min, c.StdErr.Min),
			estimate(c.Params.Max, c.StdErr.Max),
			estimate(c.Params.EC50, c.StdErr.EC50),
		)
	}
	b.WriteString("\n")

	if ct := result.EC50Contrast; ct != nil {
		b.WriteString("## Potency comparison\n\n")
		fmt.Fprintf(&b, "EC50 difference %s - %s: %.4g (se %.4g), t(%d) = %.3f, p = %.4g.\n",
			ct.ConditionA, ct.ConditionB, ct.Estimate, ct.StdError, ct.DegreesOfFreedom, ct.Statistic, ct.PValue)
		verdict := "no significant potency shift at alpha 0.05"
		if ct.Significant(0.05) {
			verdict = "significant potency shift at alpha 0.05"
		}
		fmt.Fprintf(&b, "Verdict: %s.\n\n", verdict)
	}

	b.WriteString("## Normalization references\n\n")
	for _, m := range result.Maxima {
		fmt.Fprintf(&b, "- condition %s: max mean response %.4g at dose %g\n", m.Condition, m.MaxResponse, m.Dose)
	}
	b.WriteString("\n## Aggregated points\n\n")
	b.WriteString("| Dose | Condition | Mean | SEM | n |\n")
	b.WriteString("|-----:|-----------|-----:|----:|--:|\n")
	for _, p := range result.Aggregated {
		sem := "-"
		if p.HasSEM() {
			sem = fmt.Sprintf("%.3g", p.SEM)
		}
		fmt.Fprintf(&b, "| %g | %s | %.4g | %s | %d |\n", p.Dose, p.Condition, p.MeanResponse, sem, p.Replicates)
	}

	return b.String()
}

func estimate(value, stderr float64) string {
	if math.IsNaN(stderr) || math.IsInf(stderr, 0) {
		return fmt.Sprintf("%.4g", value)
	}
	return fmt.Sprintf("%.4g ± %.3g", value, stderr)
}
