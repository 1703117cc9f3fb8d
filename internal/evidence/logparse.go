// Package evidence implements C2: best-effort, idempotent evidence
// collectors over K8s, Prometheus, logs, AWS and GitHub. Every exported
// collector function mutates an *models.Investigation's Evidence/Meta and
// appends to Errors instead of returning an error to its caller — grounded
// on the teacher's tolerant service-layer pattern
// (kubilitics-backend/internal/service) of logging-and-continuing rather
// than failing a whole aggregate fetch on one sub-call's error.
package evidence

import (
	"strings"

	"github.com/tarkyaio/tarka/internal/models"
)

// Log pattern priority, highest first (spec.md §4.2 Log parsing).
const (
	PatternFatal     = "FATAL|CRITICAL"
	PatternException = "Exception|Traceback|panic"
	PatternError     = "ERROR"
)

var (
	fatalTokens     = []string{"fatal", "critical"}
	exceptionTokens = []string{"exception", "traceback", "panic"}
	errorTokens     = []string{"error"}
)

const maxLogMessageLen = 500

// ParseLogLines classifies raw log lines deterministically by pattern
// priority (FATAL|CRITICAL > Exception|Traceback|panic > ERROR), truncates
// long messages, and returns the parsed set with pattern counts. cap bounds
// the number of raw lines considered (spec.md: "capped to ~400 lines").
func ParseLogLines(raw []string, cap int) models.LogsEvidence {
	if cap <= 0 || cap > len(raw) {
		cap = len(raw)
	}
	truncated := len(raw) > cap
	lines := raw[len(raw)-cap:]

	out := models.LogsEvidence{
		PatternCounts: map[string]int{},
		Truncated:     truncated,
	}

	for i, l := range lines {
		pattern := classifyLine(l)
		if pattern != "" {
			out.PatternCounts[pattern]++
		}
		out.Lines = append(out.Lines, models.LogLine{
			Index:   i,
			Pattern: pattern,
			Message: truncateMessage(l),
		})
	}
	return out
}

func classifyLine(line string) string {
	lower := strings.ToLower(line)
	if containsAny(lower, fatalTokens) {
		return PatternFatal
	}
	if containsAny(lower, exceptionTokens) {
		return PatternException
	}
	if containsAny(lower, errorTokens) {
		return PatternError
	}
	return ""
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func truncateMessage(msg string) string {
	if len(msg) <= maxLogMessageLen {
		return msg
	}
	return msg[:maxLogMessageLen] + "…"
}

// SelectActionableSnippet chooses the subset of a parsed log set worth
// surfacing in a report/RCA prompt: FATAL/CRITICAL and exception lines
// first, then ERROR lines, until cap lines are collected — never the raw
// tail, so startup banners don't dominate (spec.md §4.3 "Deterministic log
// snippet selection").
func SelectActionableSnippet(logs models.LogsEvidence, cap int) []models.LogLine {
	if cap <= 0 {
		cap = 20
	}
	var fatal, exc, errLines []models.LogLine
	for _, l := range logs.Lines {
		switch l.Pattern {
		case PatternFatal:
			fatal = append(fatal, l)
		case PatternException:
			exc = append(exc, l)
		case PatternError:
			errLines = append(errLines, l)
		}
	}
	selected := make([]models.LogLine, 0, cap)
	for _, group := range [][]models.LogLine{fatal, exc, errLines} {
		for _, l := range group {
			if len(selected) >= cap {
				return selected
			}
			selected = append(selected, l)
		}
	}
	return selected
}
