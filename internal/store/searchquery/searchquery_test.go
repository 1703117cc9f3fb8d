package searchquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_KeysAndTerms(t *testing.T) {
	q := Parse("ns:prod svc:checkout timeout")
	assert.Equal(t, "prod", q.Filters[KeyNamespace])
	assert.Equal(t, "checkout", q.Filters[KeyService])
	assert.Equal(t, []string{"timeout"}, q.Terms)
}

func TestParse_RenderRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"namespace:prod service:checkout",
		"cluster:us-east-1 alertname:crashloop timeout spike",
		"",
	} {
		q := Parse(raw)
		got := Parse(Render(q))
		assert.Equal(t, q.Filters, got.Filters)
		assert.ElementsMatch(t, q.Terms, got.Terms)
	}
}

func TestMatches(t *testing.T) {
	q := Parse("ns:prod timeout")
	fields := map[Key]string{KeyNamespace: "prod"}
	assert.True(t, Matches(q, fields, "request timeout observed"))
	assert.False(t, Matches(q, fields, "all good"))

	fields[KeyNamespace] = "staging"
	assert.False(t, Matches(q, fields, "request timeout observed"))
}
