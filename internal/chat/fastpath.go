package chat

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/tools"
)

// greetingPattern must match the ENTIRE normalized (trimmed, lowercased)
// message, not merely a substring (spec.md §4.9 "patterns must match the
// entire normalized message").
var greetingPattern = regexp.MustCompile(`^(hi|hello|hey|yo|howdy|thanks|thank you|thx|ok|okay|cool|got it|sounds good|great|nice|bye|goodbye)[.!]*$`)

// normalize trims and lowercases a chat message before any fast-path match.
func normalize(msg string) string {
	return strings.ToLower(strings.TrimSpace(msg))
}

// IsGreeting reports whether msg is a bare greeting/acknowledgement.
func IsGreeting(msg string) bool {
	return greetingPattern.MatchString(normalize(msg))
}

// GreetingReply produces a short, target-aware acknowledgement (spec.md
// §4.9 "handled with a target-aware short reply, zero tool events").
func GreetingReply(cc Context) string {
	if cc.TargetName != "" {
		return fmt.Sprintf("Hey, I'm here if you want to dig into %s — just ask.", cc.TargetName)
	}
	return "Hey, happy to help — ask me about any case or the inbox overall."
}

var summaryPattern = regexp.MustCompile(`\b(summary|summarize|status|what happened|what's going on|whats going on|what is the root cause|root cause)\b`)

// IsSummaryRequest reports whether msg is asking for the case's current
// verdict (spec.md §4.9 "Summary / status").
func IsSummaryRequest(msg string) bool {
	return summaryPattern.MatchString(normalize(msg))
}

// SummaryReply renders a deterministic reply from the analysis snapshot's
// verdict and hypotheses (spec.md §4.9).
func SummaryReply(cc Context) string {
	if cc.Snapshot == nil {
		return "I don't have an analysis snapshot for this case yet."
	}
	v := cc.Snapshot.Analysis.Verdict
	var b strings.Builder
	if v.OneLiner != "" {
		b.WriteString(v.OneLiner)
	} else {
		b.WriteString("No one-line verdict is available yet.")
	}
	if v.Severity != "" || v.Classification != "" {
		b.WriteString(fmt.Sprintf(" (severity: %s, classification: %s)", orDash(v.Severity), orDash(v.Classification)))
	}
	if top := topHypothesis(cc.Snapshot.Analysis.Hypotheses); top != nil {
		b.WriteString(fmt.Sprintf("\nLeading hypothesis: %s (%d%% confidence).", top.Title, top.Confidence0To100))
	}
	if rca := cc.Snapshot.Analysis.RCA; rca != nil && rca.Summary != "" {
		b.WriteString("\nRCA: " + rca.Summary)
	}
	if len(v.Next) > 0 {
		b.WriteString("\nNext: " + strings.Join(v.Next, "; "))
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func topHypothesis(hyps []models.Hypothesis) *models.Hypothesis {
	if len(hyps) == 0 {
		return nil
	}
	best := hyps[0]
	for _, h := range hyps[1:] {
		if h.Confidence0To100 > best.Confidence0To100 {
			best = h
		}
	}
	return &best
}

var globalCountPattern = regexp.MustCompile(`how many .*(last|past|this) (\d+ )?(day|days|hour|hours|week|weeks)`)
var globalTopPattern = regexp.MustCompile(`^top\s+(\w+)`)

// GlobalCountsIntent recognizes "how many ... last N days" and "top teams"
// style requests and calls through to cases.count/cases.top (spec.md §4.9
// "Global counts").
func GlobalCountsIntent(ctx context.Context, deps Deps, cc Context, msg string) (Turn, bool) {
	n := normalize(msg)
	if m := globalTopPattern.FindStringSubmatch(n); m != nil {
		groupBy := singularize(m[1])
		inv := invocationFor(cc)
		ev := deps.Executor.Call(ctx, &inv, "cases.top", map[string]any{"group_by": groupBy})
		return Turn{Reply: topReply(groupBy, ev), ToolEvents: []tools.Event{ev}, FastPath: true}, true
	}
	if globalCountPattern.MatchString(n) {
		args := map[string]any{}
		if status := statusFilter(n); status != "" {
			args["status"] = status
		}
		inv := invocationFor(cc)
		ev := deps.Executor.Call(ctx, &inv, "cases.count", args)
		return Turn{Reply: countReply(ev), ToolEvents: []tools.Event{ev}, FastPath: true}, true
	}
	return Turn{}, false
}

func countReply(ev tools.Event) string {
	if !ev.Result.OK {
		return fmt.Sprintf("I couldn't count cases: %s", ev.Result.Error)
	}
	m, ok := ev.Result.Result.(map[string]any)
	if !ok {
		return ev.Summary
	}
	counts, _ := m["counts"]
	return fmt.Sprintf("%v total matching cases (%v).", m["total"], counts)
}

func topReply(groupBy string, ev tools.Event) string {
	if !ev.Result.OK {
		return fmt.Sprintf("I couldn't compute top %ss: %s", groupBy, ev.Result.Error)
	}
	return fmt.Sprintf("Here's the breakdown by %s: %v", groupBy, ev.Result.Result)
}

func singularize(s string) string {
	s = strings.TrimSuffix(s, "s")
	return s
}

func statusFilter(n string) string {
	switch {
	case strings.Contains(n, "open"):
		return "open"
	case strings.Contains(n, "closed"), strings.Contains(n, "resolved"):
		return "closed"
	default:
		return ""
	}
}

var familyWindowPattern = regexp.MustCompile(`how many\s+(\S+)\s+.*(last|past)\s+(\d+)\s*(day|days|hour|hours|week|weeks)`)

// CaseFamilyWindowIntent recognizes "how many <family> alerts on <target> in
// the last N days" and issues one SQL aggregation directly against
// investigation_runs (spec.md §4.9 "Case family count over window").
func CaseFamilyWindowIntent(ctx context.Context, deps Deps, cc Context, msg string) (Turn, bool) {
	if deps.Store == nil || cc.Mode != ModeCase {
		return Turn{}, false
	}
	n := normalize(msg)
	m := familyWindowPattern.FindStringSubmatch(n)
	if m == nil {
		return Turn{}, false
	}
	family := m[1]
	count, _ := strconv.Atoi(m[3])
	var unit time.Duration
	switch {
	case strings.HasPrefix(m[4], "day"):
		unit = 24 * time.Hour
	case strings.HasPrefix(m[4], "hour"):
		unit = time.Hour
	case strings.HasPrefix(m[4], "week"):
		unit = 7 * 24 * time.Hour
	}
	since := time.Now().Add(-time.Duration(count) * unit)

	total, err := deps.Store.CountRunsByFamily(ctx, family, cc.TargetName, since)
	if err != nil {
		return Turn{Reply: fmt.Sprintf("I couldn't look that up: %v", err), FastPath: true}, true
	}
	return Turn{Reply: fmt.Sprintf("%d %s run(s) for %s in the requested window.", total, family, orDash(cc.TargetName)), FastPath: true}, true
}

// Try evaluates the deterministic fast-path handlers in spec order, falling
// through to the LLM-driven graph when none match.
func Try(ctx context.Context, deps Deps, cc Context, msg string) (Turn, bool) {
	if IsGreeting(msg) {
		return Turn{Reply: GreetingReply(cc), FastPath: true}, true
	}
	if IsSummaryRequest(msg) && cc.Mode == ModeCase {
		return Turn{Reply: SummaryReply(cc), FastPath: true}, true
	}
	if cc.Mode == ModeGlobal {
		if t, ok := GlobalCountsIntent(ctx, deps, cc, msg); ok {
			return t, true
		}
	}
	if t, ok := CaseFamilyWindowIntent(ctx, deps, cc, msg); ok {
		return t, true
	}
	return Turn{}, false
}
