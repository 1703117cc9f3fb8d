package tools

import (
	"encoding/json"
	"regexp"
)

// alwaysRedact are patterns scrubbed from every tool result unconditionally
// before it re-enters the prompt context (spec.md §4.7 "Redaction").
var alwaysRedact = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-z0-9._-]{10,}`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)://[^:/\s]+:[^@/\s]+@`),                     // db password in a URI
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]{10,}`), // JWT
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)\bsk-[a-z0-9]{20,}\b`), // high-entropy token prefix
}

// infraRedact are optional patterns scrubbed only when LLM_REDACT_INFRASTRUCTURE
// is set (spec.md §4.7: "optionally redact infrastructure patterns").
var infraRedact = []*regexp.Regexp{
	regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),           // email
	regexp.MustCompile(`\b10\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),                            // private IP (10.x)
	regexp.MustCompile(`\b192\.168\.\d{1,3}\.\d{1,3}\b`),                               // private IP (192.168.x)
	regexp.MustCompile(`\b172\.(1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3}\b`),                // private IP (172.16-31.x)
	regexp.MustCompile(`\b\d{12}\b`),                                                   // 12-digit AWS account id
}

const redactedPlaceholder = "[REDACTED]"

// RedactString applies always-redact patterns, plus infra patterns when
// redactInfra is set, to s.
func RedactString(s string, redactInfra bool) string {
	for _, re := range alwaysRedact {
		s = re.ReplaceAllString(s, redactedPlaceholder)
	}
	if redactInfra {
		for _, re := range infraRedact {
			s = re.ReplaceAllString(s, redactedPlaceholder)
		}
	}
	return s
}

// RedactValue walks an arbitrary tool-result value (string, map, slice) and
// redacts every string leaf, preserving shape so callers can still index
// into the result by field name.
func RedactValue(v any, redactInfra bool) any {
	switch val := v.(type) {
	case string:
		return RedactString(val, redactInfra)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = RedactValue(vv, redactInfra)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = RedactValue(vv, redactInfra)
		}
		return out
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(val, &decoded); err != nil {
			return RedactString(string(val), redactInfra)
		}
		return RedactValue(decoded, redactInfra)
	default:
		return val
	}
}
