package investigation

import (
	"fmt"
	"strings"

	"github.com/tarkyaio/tarka/internal/evidence"
	"github.com/tarkyaio/tarka/internal/models"
)

// RenderMarkdown produces the human-facing report body stored alongside the
// JSON snapshot (spec.md §4.4 "Two keys per run ... .md and .json"). The
// log section uses the actionable snippet selection, not the raw tail
// (spec.md §4.3 "Deterministic log snippet selection").
func RenderMarkdown(inv *models.Investigation, logSnippetCap int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — %s\n\n", inv.Alert.Name(), inv.Target.Name())
	fmt.Fprintf(&b, "**Family:** %s  \n", inv.Target.Playbook)
	fmt.Fprintf(&b, "**Classification:** %s  \n", inv.Analysis.Verdict.Classification)
	fmt.Fprintf(&b, "**Severity:** %s  \n\n", inv.Analysis.Verdict.Severity)

	fmt.Fprintf(&b, "## Verdict\n\n%s\n\n", inv.Analysis.Verdict.OneLiner)

	if len(inv.Analysis.Hypotheses) > 0 {
		b.WriteString("## Hypotheses\n\n")
		for _, h := range inv.Analysis.Hypotheses {
			fmt.Fprintf(&b, "- **%s** (%d%%): %s\n", h.Title, h.Confidence0To100, strings.Join(h.Why, "; "))
		}
		b.WriteString("\n")
	}

	if inv.Evidence.Logs != nil {
		snippet := evidence.SelectActionableSnippet(*inv.Evidence.Logs, logSnippetCap)
		if len(snippet) > 0 {
			b.WriteString("## Log snippet\n\n```\n")
			for _, l := range snippet {
				fmt.Fprintf(&b, "[%s] %s\n", l.Pattern, l.Message)
			}
			b.WriteString("```\n\n")
		}
	}

	if len(inv.Errors) > 0 {
		b.WriteString("## Collection notes\n\n")
		for _, e := range inv.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	return b.String()
}
