package simpleingest

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// threatSignatures is the sanitizer's own scan set. It overlaps the
// validator's signatures but is scanned against text only and records the
// match location before any cleaning happens.
var threatSignatures = []struct {
	pattern     *regexp.Regexp
	threatType  ThreatType
	description string
	severity    ThreatSeverity
}{
	{regexp.MustCompile(`(?i)<\s*script[^>]*>`), ThreatScriptInjection, "script tag in content", SeverityCritical},
	{regexp.MustCompile(`(?i)javascript\s*:`), ThreatJavascriptURI, "javascript: URI in content", SeverityHigh},
	{regexp.MustCompile(`(?i)\bon\w+\s*=`), ThreatEventHandler, "inline event handler attribute", SeverityHigh},
	{regexp.MustCompile(`(?i)data\s*:\s*text/html`), ThreatDataURIHTML, "data:text/html URI in content", SeverityMedium},
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Sanitizer strips unsafe markup from free text and reports detected attack
// patterns. Sanitize never fails; worst case it returns the input unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer with the allow-list cleaning policy:
// a small set of structural and formatting tags plus image alt/title
// attributes. Everything else is stripped.
func NewSanitizer() *Sanitizer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "br", "b", "i", "u", "em", "strong",
		"ul", "ol", "li", "blockquote", "code", "pre")
	policy.AllowAttrs("alt", "title").OnElements("img")
	policy.AllowElements("img")

	return &Sanitizer{policy: policy}
}

// Sanitize runs two passes over the text: a signature scan against the
// original string (so offending spans keep their location), then allow-list
// HTML cleaning and whitespace normalization. Every step that changes the
// string is recorded as a modification with before/after values.
func (s *Sanitizer) Sanitize(text string) SanitizationResult {
	res := SanitizationResult{SanitizedText: text}
	if text == "" {
		return res
	}

	for _, sig := range threatSignatures {
		for _, loc := range sig.pattern.FindAllStringIndex(text, -1) {
			res.Threats = append(res.Threats, SecurityThreat{
				Type:        sig.threatType,
				Description: sig.description,
				Location:    loc[0],
				Severity:    sig.severity,
			})
		}
	}

	cleaned := s.policy.Sanitize(text)
	if cleaned != res.SanitizedText {
		res.Modifications = append(res.Modifications, SanitizationModification{
			Step:   "html_clean",
			Before: res.SanitizedText,
			After:  cleaned,
		})
		res.SanitizedText = cleaned
	}

	normalized := strings.TrimSpace(whitespaceRe.ReplaceAllString(res.SanitizedText, " "))
	if normalized != res.SanitizedText {
		res.Modifications = append(res.Modifications, SanitizationModification{
			Step:   "whitespace_normalize",
			Before: res.SanitizedText,
			After:  normalized,
		})
		res.SanitizedText = normalized
	}

	return res
}
