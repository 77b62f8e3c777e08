package simpleingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeCleanTextIsUntouched(t *testing.T) {
	s := NewSanitizer()

	res := s.Sanitize("just a plain sentence")
	assert.Equal(t, "just a plain sentence", res.SanitizedText)
	assert.Empty(t, res.Threats)
	assert.Empty(t, res.Modifications)
}

func TestSanitizeStripsScript(t *testing.T) {
	s := NewSanitizer()

	res := s.Sanitize(`hello <script>alert("x")</script> world`)
	assert.NotContains(t, res.SanitizedText, "<script")
	assert.NotContains(t, res.SanitizedText, "alert")

	require.NotEmpty(t, res.Threats)
	assert.Equal(t, ThreatScriptInjection, res.Threats[0].Type)
	assert.Equal(t, SeverityCritical, res.Threats[0].Severity)
	assert.Equal(t, 6, res.Threats[0].Location)
}

func TestSanitizeKeepsAllowedFormatting(t *testing.T) {
	s := NewSanitizer()

	res := s.Sanitize("<p>hi <b>there</b></p>")
	assert.Equal(t, "<p>hi <b>there</b></p>", res.SanitizedText)
	assert.Empty(t, res.Modifications)
}

func TestSanitizeDropsDisallowedAttributes(t *testing.T) {
	s := NewSanitizer()

	res := s.Sanitize(`<p style="color:red">hi</p>`)
	assert.Equal(t, "<p>hi</p>", res.SanitizedText)
	require.Len(t, res.Modifications, 1)
	assert.Equal(t, "html_clean", res.Modifications[0].Step)
}

func TestSanitizeRecordsThreatsBeforeCleaning(t *testing.T) {
	s := NewSanitizer()

	// Threat locations refer to the original string, not the cleaned one.
	text := `aaa <a href="javascript:alert(1)">x</a>`
	res := s.Sanitize(text)

	require.NotEmpty(t, res.Threats)
	assert.Equal(t, ThreatJavascriptURI, res.Threats[0].Type)
	assert.Equal(t, 13, res.Threats[0].Location)
}

func TestSanitizeNormalizesWhitespace(t *testing.T) {
	s := NewSanitizer()

	res := s.Sanitize("  too   much \n\t space  ")
	assert.Equal(t, "too much space", res.SanitizedText)

	var steps []string
	for _, m := range res.Modifications {
		steps = append(steps, m.Step)
	}
	assert.Contains(t, steps, "whitespace_normalize")
}

func TestSanitizeEmptyText(t *testing.T) {
	s := NewSanitizer()

	res := s.Sanitize("")
	assert.Empty(t, res.SanitizedText)
	assert.Empty(t, res.Threats)
	assert.Empty(t, res.Modifications)
}

func TestSanitizeModificationsRecordBeforeAfter(t *testing.T) {
	s := NewSanitizer()

	res := s.Sanitize("<div>boxed</div>")
	require.NotEmpty(t, res.Modifications)
	first := res.Modifications[0]
	assert.Equal(t, "<div>boxed</div>", first.Before)
	assert.NotEqual(t, first.Before, first.After)
}
