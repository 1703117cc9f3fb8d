// Package searchquery implements the hybrid `key:value` + free-text query
// parser backing GET /api/v1/cases?q=... (spec.md §6, SPEC_FULL.md §4.13).
// Grounded on original_source/agent/core/search_query.py's tokenizer: split
// on whitespace, classify each token as a recognized key:value pair or a
// free-text term, AND all terms together.
package searchquery

import "strings"

// Key is a normalized, canonical search-query key. Aliases (ns|namespace,
// svc|service, ...) all resolve to one of these.
type Key string

const (
	KeyNamespace  Key = "namespace"
	KeyPod        Key = "pod"
	KeyWorkload   Key = "workload"
	KeyService    Key = "service"
	KeyCluster    Key = "cluster"
	KeyAlertname  Key = "alertname"
)

// aliases maps every recognized key spelling to its canonical Key.
var aliases = map[string]Key{
	"ns":         KeyNamespace,
	"namespace":  KeyNamespace,
	"pod":        KeyPod,
	"deploy":     KeyWorkload,
	"deployment": KeyWorkload,
	"workload":   KeyWorkload,
	"svc":        KeyService,
	"service":    KeyService,
	"cluster":    KeyCluster,
	"alert":      KeyAlertname,
	"alertname":  KeyAlertname,
}

// canonicalSpelling is the spelling Render() emits per canonical Key, so
// that Parse(Render(q)) == q for any q built from recognized keys.
var canonicalSpelling = map[Key]string{
	KeyNamespace: "namespace",
	KeyPod:       "pod",
	KeyWorkload:  "workload",
	KeyService:   "service",
	KeyCluster:   "cluster",
	KeyAlertname: "alertname",
}

// Query is a parsed search expression: a set of key:value filters (AND'd
// together) plus free-text terms (also AND'd, matched as substrings).
type Query struct {
	Filters map[Key]string
	Terms   []string
}

// Parse splits raw on whitespace and classifies each token. A token of the
// form "key:value" where key resolves via aliases becomes a filter; every
// other non-empty token (including unrecognized "key:value" pairs, which
// are left verbatim) becomes a free-text term. Values are lower-cased for
// case-insensitive matching; key lookup is also case-insensitive.
func Parse(raw string) Query {
	q := Query{Filters: map[Key]string{}}
	for _, tok := range strings.Fields(raw) {
		if k, v, ok := splitToken(tok); ok {
			if canon, known := aliases[strings.ToLower(k)]; known && v != "" {
				q.Filters[canon] = strings.ToLower(v)
				continue
			}
		}
		q.Terms = append(q.Terms, strings.ToLower(tok))
	}
	return q
}

func splitToken(tok string) (key, value string, ok bool) {
	i := strings.IndexByte(tok, ':')
	if i <= 0 || i == len(tok)-1 {
		return "", "", false
	}
	return tok[:i], tok[i+1:], true
}

// Render serializes q back into the "key:value ... term term" string form
// Parse accepts, using each key's canonical spelling and a stable key
// order, so that Parse(Render(q)) == q (spec.md §8 property 7).
func Render(q Query) string {
	var parts []string
	for _, k := range []Key{KeyNamespace, KeyPod, KeyWorkload, KeyService, KeyCluster, KeyAlertname} {
		if v, ok := q.Filters[k]; ok {
			parts = append(parts, canonicalSpelling[k]+":"+v)
		}
	}
	parts = append(parts, q.Terms...)
	return strings.Join(parts, " ")
}

// Matches reports whether the given case summary fields satisfy q: every
// filter must match exactly (case-insensitive) and every free-text term
// must appear as a substring of the haystack (alertname + one_liner +
// driver, lower-cased).
func Matches(q Query, fields map[Key]string, haystack string) bool {
	for k, v := range q.Filters {
		if strings.ToLower(fields[k]) != v {
			return false
		}
	}
	haystack = strings.ToLower(haystack)
	for _, t := range q.Terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}
