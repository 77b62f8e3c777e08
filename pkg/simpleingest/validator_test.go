package simpleingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTextSubmission() ContentSubmission {
	return ContentSubmission{
		Type:       ContentTypeText,
		Text:       "hello world",
		Visibility: VisibilityPublic,
	}
}

func errorCodes(res ValidationResult) []string {
	codes := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func warningCodes(res ValidationResult) []string {
	codes := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

func TestValidateRequiredFields(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		sub   ContentSubmission
		field string
	}{
		{"text without text", ContentSubmission{Type: ContentTypeText}, "text"},
		{"text with blank text", ContentSubmission{Type: ContentTypeText, Text: "   "}, "text"},
		{"link without url", ContentSubmission{Type: ContentTypeLink}, "link_url"},
		{"image without media", ContentSubmission{Type: ContentTypeImage}, "media"},
		{"video without media", ContentSubmission{Type: ContentTypeVideo}, "media"},
		{"poll without poll data", ContentSubmission{Type: ContentTypePoll}, "poll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.sub)
			assert.False(t, res.Valid)
			require.NotEmpty(t, res.Errors)
			assert.Equal(t, CodeRequiredFieldMissing, res.Errors[0].Code)
			assert.Equal(t, tt.field, res.Errors[0].Field)
		})
	}
}

func TestValidateTextLength(t *testing.T) {
	v := NewValidator()

	t.Run("under warn threshold", func(t *testing.T) {
		sub := validTextSubmission()
		sub.Text = strings.Repeat("a", 8999)
		res := v.Validate(sub)
		assert.True(t, res.Valid)
		assert.NotContains(t, errorCodes(res), CodeContentTooLong)
		assert.NotContains(t, warningCodes(res), CodeContentTooLong)
	})

	t.Run("between warn threshold and limit", func(t *testing.T) {
		sub := validTextSubmission()
		sub.Text = strings.Repeat("a", 9500)
		res := v.Validate(sub)
		assert.True(t, res.Valid)
		assert.Contains(t, warningCodes(res), CodeContentTooLong)
	})

	t.Run("over limit", func(t *testing.T) {
		sub := validTextSubmission()
		sub.Text = strings.Repeat("a", 10001)
		res := v.Validate(sub)
		assert.False(t, res.Valid)
		assert.Contains(t, errorCodes(res), CodeContentTooLong)
	})
}

func TestValidateLinkURL(t *testing.T) {
	v := NewValidator(WithSuspiciousDomains("evil.example.com"))

	t.Run("valid https url", func(t *testing.T) {
		res := v.Validate(ContentSubmission{Type: ContentTypeLink, LinkURL: "https://example.com/a"})
		assert.True(t, res.Valid)
	})

	t.Run("invalid scheme", func(t *testing.T) {
		res := v.Validate(ContentSubmission{Type: ContentTypeLink, LinkURL: "not a url"})
		assert.Contains(t, errorCodes(res), CodeInvalidURL)
	})

	t.Run("too long", func(t *testing.T) {
		res := v.Validate(ContentSubmission{
			Type:    ContentTypeLink,
			LinkURL: "https://example.com/" + strings.Repeat("a", 2048),
		})
		assert.Contains(t, errorCodes(res), CodeInvalidURL)
	})

	t.Run("suspicious domain", func(t *testing.T) {
		res := v.Validate(ContentSubmission{Type: ContentTypeLink, LinkURL: "https://evil.example.com/x"})
		assert.Contains(t, errorCodes(res), CodeMaliciousContent)
	})

	t.Run("shortener is a warning", func(t *testing.T) {
		res := v.Validate(ContentSubmission{Type: ContentTypeLink, LinkURL: "https://bit.ly/abc"})
		assert.True(t, res.Valid)
		assert.Contains(t, warningCodes(res), CodeShortenedURL)
	})
}

func TestValidateTagsAndMentions(t *testing.T) {
	v := NewValidator()

	t.Run("too many tags", func(t *testing.T) {
		sub := validTextSubmission()
		for i := 0; i < 21; i++ {
			sub.Tags = append(sub.Tags, "tag")
		}
		res := v.Validate(sub)
		assert.Contains(t, errorCodes(res), CodeTooManyTags)
	})

	t.Run("tag count warning", func(t *testing.T) {
		sub := validTextSubmission()
		for i := 0; i < 11; i++ {
			sub.Tags = append(sub.Tags, "tag")
		}
		res := v.Validate(sub)
		assert.True(t, res.Valid)
		assert.Contains(t, warningCodes(res), CodeTooManyTags)
	})

	t.Run("invalid tag characters", func(t *testing.T) {
		sub := validTextSubmission()
		sub.Tags = []string{"ok", "not ok!"}
		res := v.Validate(sub)
		assert.Contains(t, errorCodes(res), CodeInvalidTag)
	})

	t.Run("unicode tags are fine", func(t *testing.T) {
		sub := validTextSubmission()
		sub.Tags = []string{"café", "日本語"}
		res := v.Validate(sub)
		assert.True(t, res.Valid)
	})

	t.Run("mention format", func(t *testing.T) {
		sub := validTextSubmission()
		sub.Mentions = []string{"@alice", "bob"}
		res := v.Validate(sub)
		assert.Contains(t, errorCodes(res), CodeInvalidMention)
	})

	t.Run("too many mentions", func(t *testing.T) {
		sub := validTextSubmission()
		for i := 0; i < 11; i++ {
			sub.Mentions = append(sub.Mentions, "@user")
		}
		res := v.Validate(sub)
		assert.Contains(t, errorCodes(res), CodeTooManyMentions)
	})
}

func TestValidatePoll(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v := NewValidator(WithValidatorClock(func() time.Time { return now }))

	t.Run("valid poll", func(t *testing.T) {
		expiry := now.Add(time.Hour)
		res := v.Validate(ContentSubmission{
			Type: ContentTypePoll,
			Poll: &PollData{Options: []string{"yes", "no"}, ExpiresAt: &expiry},
		})
		assert.True(t, res.Valid)
	})

	t.Run("too few options", func(t *testing.T) {
		res := v.Validate(ContentSubmission{
			Type: ContentTypePoll,
			Poll: &PollData{Options: []string{"only"}},
		})
		assert.Contains(t, errorCodes(res), CodeInvalidPoll)
	})

	t.Run("option too long", func(t *testing.T) {
		res := v.Validate(ContentSubmission{
			Type: ContentTypePoll,
			Poll: &PollData{Options: []string{"a", strings.Repeat("b", 101)}},
		})
		assert.Contains(t, errorCodes(res), CodeInvalidPoll)
	})

	t.Run("expiry too soon", func(t *testing.T) {
		expiry := now.Add(time.Minute)
		res := v.Validate(ContentSubmission{
			Type: ContentTypePoll,
			Poll: &PollData{Options: []string{"yes", "no"}, ExpiresAt: &expiry},
		})
		assert.Contains(t, errorCodes(res), CodeInvalidPoll)
	})
}

func TestValidateSchedule(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v := NewValidator(WithValidatorClock(func() time.Time { return now }))

	t.Run("in the past", func(t *testing.T) {
		past := now.Add(-time.Hour)
		sub := validTextSubmission()
		sub.ScheduledAt = &past
		res := v.Validate(sub)
		assert.Contains(t, errorCodes(res), CodeInvalidSchedule)
	})

	t.Run("more than a year ahead", func(t *testing.T) {
		far := now.Add(366 * 24 * time.Hour)
		sub := validTextSubmission()
		sub.ScheduledAt = &far
		res := v.Validate(sub)
		assert.Contains(t, errorCodes(res), CodeInvalidSchedule)
	})
}

func TestValidateLanguage(t *testing.T) {
	v := NewValidator()

	for _, lang := range []string{"en", "pt-BR"} {
		sub := validTextSubmission()
		sub.Language = lang
		assert.True(t, v.Validate(sub).Valid, lang)
	}
	for _, lang := range []string{"english", "EN", "en_US"} {
		sub := validTextSubmission()
		sub.Language = lang
		assert.Contains(t, errorCodes(v.Validate(sub)), CodeInvalidLanguage, lang)
	}
}

func TestValidateMaliciousContent(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name string
		text string
	}{
		{"script tag", "check this <script>alert(1)</script>"},
		{"javascript uri", "click javascript:alert(1)"},
		{"event handler", `<img src=x onerror=alert(1)>`},
		{"data uri html", "see data:text/html;base64,xxx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validTextSubmission()
			sub.Text = tt.text
			res := v.Validate(sub)
			assert.False(t, res.Valid)
			assert.Contains(t, errorCodes(res), CodeMaliciousContent)
		})
	}
}

func TestValidateReportsAllViolationsTogether(t *testing.T) {
	v := NewValidator()
	sub := ContentSubmission{
		Type:     ContentTypeText,
		Language: "nope",
		Tags:     []string{"bad tag!"},
	}
	res := v.Validate(sub)
	assert.False(t, res.Valid)
	codes := errorCodes(res)
	assert.Contains(t, codes, CodeRequiredFieldMissing)
	assert.Contains(t, codes, CodeInvalidLanguage)
	assert.Contains(t, codes, CodeInvalidTag)
}

func TestValidateIsIdempotent(t *testing.T) {
	v := NewValidator()
	sub := ContentSubmission{
		Type:     ContentTypeText,
		Text:     "<script>x</script>",
		Tags:     []string{"ok", "no good!"},
		Language: "xx-",
	}
	first := v.Validate(sub)
	second := v.Validate(sub)
	assert.Equal(t, first, second)
}
