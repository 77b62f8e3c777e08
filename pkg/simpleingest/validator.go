package simpleingest

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Validation limits.
const (
	maxTextLength       = 10000
	textWarnThreshold   = maxTextLength * 9 / 10
	maxLinkURLLength    = 2048
	maxTags             = 20
	tagsWarnThreshold   = 10
	maxMentions         = 10
	mentionsWarnLimit   = 5
	minPollOptions      = 2
	maxPollOptions      = 10
	maxPollOptionLength = 100
	minPollExpiry       = 5 * time.Minute
	maxScheduleAhead    = 365 * 24 * time.Hour
)

var (
	uriSchemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://\S+$`)
	tagRe       = regexp.MustCompile(`^[\p{L}\p{N}_]{1,50}$`)
	mentionRe   = regexp.MustCompile(`^@[\p{L}\p{N}_.]{1,30}$`)
	languageRe  = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
)

// maliciousSignatures are the fixed attack patterns checked against text and
// link fields. The sanitizer runs its own overlapping scan; the two sets are
// deliberately independent.
var maliciousSignatures = []struct {
	pattern     *regexp.Regexp
	description string
}{
	{regexp.MustCompile(`(?i)<\s*script`), "script tag"},
	{regexp.MustCompile(`(?i)javascript\s*:`), "javascript URI"},
	{regexp.MustCompile(`(?i)\bon\w+\s*=`), "inline event handler"},
	{regexp.MustCompile(`(?i)data\s*:\s*text/html`), "data text/html URI"},
}

// defaultShortenerDomains raise a warning, not an error.
var defaultShortenerDomains = []string{
	"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly", "is.gd", "buff.ly",
}

// Validator checks a submission against structural and security rules. It is
// pure: every rule is evaluated, nothing short-circuits, and validating the
// same submission twice yields the identical result.
type Validator struct {
	suspiciousDomains map[string]struct{}
	shortenerDomains  map[string]struct{}
	now               func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithSuspiciousDomains sets the host deny-list; a link to any of these is a
// MALICIOUS_CONTENT_DETECTED error.
func WithSuspiciousDomains(domains ...string) ValidatorOption {
	return func(v *Validator) {
		for _, d := range domains {
			v.suspiciousDomains[strings.ToLower(d)] = struct{}{}
		}
	}
}

// WithShortenerDomains replaces the default URL-shortener warning list.
func WithShortenerDomains(domains ...string) ValidatorOption {
	return func(v *Validator) {
		v.shortenerDomains = make(map[string]struct{}, len(domains))
		for _, d := range domains {
			v.shortenerDomains[strings.ToLower(d)] = struct{}{}
		}
	}
}

// WithValidatorClock overrides the time source (tests).
func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		v.now = now
	}
}

// NewValidator creates a Validator with the given options.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		suspiciousDomains: make(map[string]struct{}),
		shortenerDomains:  make(map[string]struct{}, len(defaultShortenerDomains)),
		now:               time.Now,
	}
	for _, d := range defaultShortenerDomains {
		v.shortenerDomains[d] = struct{}{}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks the submission and reports every violation together; it
// never stops at the first failure.
func (v *Validator) Validate(sub ContentSubmission) ValidationResult {
	var res ValidationResult

	v.checkRequiredFields(sub, &res)
	v.checkText(sub, &res)
	v.checkLinkURL(sub, &res)
	v.checkMedia(sub, &res)
	v.checkTags(sub, &res)
	v.checkMentions(sub, &res)
	v.checkPoll(sub, &res)
	v.checkSchedule(sub, &res)
	v.checkLanguage(sub, &res)
	v.checkMaliciousContent(sub, &res)

	res.Valid = len(res.Errors) == 0
	return res
}

func (v *Validator) checkRequiredFields(sub ContentSubmission, res *ValidationResult) {
	switch sub.Type {
	case ContentTypeText:
		if strings.TrimSpace(sub.Text) == "" {
			res.addError("text", CodeRequiredFieldMissing, "text content is required for text submissions", "")
		}
	case ContentTypeLink:
		if sub.LinkURL == "" {
			res.addError("link_url", CodeRequiredFieldMissing, "link URL is required for link submissions", "")
		}
	case ContentTypeImage, ContentTypeVideo:
		if len(sub.Media) == 0 {
			res.addError("media", CodeRequiredFieldMissing,
				fmt.Sprintf("at least one media attachment is required for %s submissions", sub.Type), "")
		}
	case ContentTypePoll:
		if sub.Poll == nil {
			res.addError("poll", CodeRequiredFieldMissing, "poll data is required for poll submissions", "")
		}
	}
}

func (v *Validator) checkText(sub ContentSubmission, res *ValidationResult) {
	n := len([]rune(sub.Text))
	if n > maxTextLength {
		res.addError("text", CodeContentTooLong,
			fmt.Sprintf("text exceeds maximum length of %d characters", maxTextLength), "")
	} else if n >= textWarnThreshold {
		res.addWarning("text", CodeContentTooLong,
			fmt.Sprintf("text is within 10%% of the %d character limit", maxTextLength))
	}
}

func (v *Validator) checkLinkURL(sub ContentSubmission, res *ValidationResult) {
	if sub.LinkURL == "" {
		return
	}
	if len(sub.LinkURL) > maxLinkURLLength {
		res.addError("link_url", CodeInvalidURL,
			fmt.Sprintf("link URL exceeds maximum length of %d characters", maxLinkURLLength), "")
		return
	}
	if !uriSchemeRe.MatchString(sub.LinkURL) {
		res.addError("link_url", CodeInvalidURL, "link URL is not a valid URI", sub.LinkURL)
		return
	}
	parsed, err := url.Parse(sub.LinkURL)
	if err != nil {
		res.addError("link_url", CodeInvalidURL, "link URL cannot be parsed", sub.LinkURL)
		return
	}
	host := strings.ToLower(parsed.Hostname())
	if _, bad := v.suspiciousDomains[host]; bad {
		res.addError("link_url", CodeMaliciousContent, "link URL points to a known suspicious domain", sub.LinkURL)
	}
	if _, short := v.shortenerDomains[host]; short {
		res.addWarning("link_url", CodeShortenedURL, "link URL uses a URL shortener")
	}
}

func (v *Validator) checkMedia(sub ContentSubmission, res *ValidationResult) {
	for i, att := range sub.Media {
		field := fmt.Sprintf("media[%d]", i)
		if _, err := url.ParseRequestURI(att.SourceURL); err != nil || att.SourceURL == "" {
			res.addError(field, CodeInvalidMedia, "media source URL is not well-formed", att.SourceURL)
		}
		if att.Type == MediaTypeImage || att.Type == MediaTypeVideo {
			if att.Width < 0 || att.Height < 0 {
				res.addError(field, CodeInvalidMedia, "declared media dimensions must be positive", "")
			}
		}
		if att.Type == MediaTypeVideo || att.Type == MediaTypeAudio {
			if att.DurationSeconds < 0 {
				res.addError(field, CodeInvalidMedia, "declared media duration must be positive", "")
			}
		}
	}
}

func (v *Validator) checkTags(sub ContentSubmission, res *ValidationResult) {
	if len(sub.Tags) > maxTags {
		res.addError("tags", CodeTooManyTags,
			fmt.Sprintf("at most %d tags are allowed", maxTags), "")
	} else if len(sub.Tags) > tagsWarnThreshold {
		res.addWarning("tags", CodeTooManyTags,
			fmt.Sprintf("more than %d tags may reduce reach", tagsWarnThreshold))
	}
	for i, tag := range sub.Tags {
		if !tagRe.MatchString(tag) {
			res.addError(fmt.Sprintf("tags[%d]", i), CodeInvalidTag,
				"tags may only contain word characters, 1-50 long", tag)
		}
	}
}

func (v *Validator) checkMentions(sub ContentSubmission, res *ValidationResult) {
	if len(sub.Mentions) > maxMentions {
		res.addError("mentions", CodeTooManyMentions,
			fmt.Sprintf("at most %d mentions are allowed", maxMentions), "")
	} else if len(sub.Mentions) > mentionsWarnLimit {
		res.addWarning("mentions", CodeTooManyMentions,
			fmt.Sprintf("more than %d mentions may be treated as spam", mentionsWarnLimit))
	}
	for i, m := range sub.Mentions {
		if !mentionRe.MatchString(m) {
			res.addError(fmt.Sprintf("mentions[%d]", i), CodeInvalidMention,
				"mentions must look like @handle, 1-30 word characters or dots", m)
		}
	}
}

func (v *Validator) checkPoll(sub ContentSubmission, res *ValidationResult) {
	if sub.Poll == nil {
		return
	}
	if len(sub.Poll.Options) < minPollOptions || len(sub.Poll.Options) > maxPollOptions {
		res.addError("poll.options", CodeInvalidPoll,
			fmt.Sprintf("polls need between %d and %d options", minPollOptions, maxPollOptions), "")
	}
	for i, opt := range sub.Poll.Options {
		if len([]rune(opt)) > maxPollOptionLength {
			res.addError(fmt.Sprintf("poll.options[%d]", i), CodeInvalidPoll,
				fmt.Sprintf("poll option exceeds %d characters", maxPollOptionLength), "")
		}
	}
	if sub.Poll.ExpiresAt != nil && sub.Poll.ExpiresAt.Before(v.now().Add(minPollExpiry)) {
		res.addError("poll.expires_at", CodeInvalidPoll,
			"poll expiry must be at least 5 minutes in the future", "")
	}
}

func (v *Validator) checkSchedule(sub ContentSubmission, res *ValidationResult) {
	if sub.ScheduledAt == nil {
		return
	}
	now := v.now()
	if sub.ScheduledAt.Before(now) {
		res.addError("scheduled_at", CodeInvalidSchedule, "scheduled time is in the past", "")
	} else if sub.ScheduledAt.After(now.Add(maxScheduleAhead)) {
		res.addError("scheduled_at", CodeInvalidSchedule, "scheduled time is more than one year ahead", "")
	}
}

func (v *Validator) checkLanguage(sub ContentSubmission, res *ValidationResult) {
	if sub.Language == "" {
		return
	}
	if !languageRe.MatchString(sub.Language) {
		res.addError("language", CodeInvalidLanguage,
			"language must be an ISO code like \"en\" or \"en-US\"", sub.Language)
	}
}

func (v *Validator) checkMaliciousContent(sub ContentSubmission, res *ValidationResult) {
	fields := []struct {
		name  string
		value string
	}{
		{"text", sub.Text},
		{"link_url", sub.LinkURL},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		for _, sig := range maliciousSignatures {
			if sig.pattern.MatchString(f.value) {
				res.addError(f.name, CodeMaliciousContent,
					fmt.Sprintf("content matches a known attack signature: %s", sig.description), "")
			}
		}
	}
}

func (r *ValidationResult) addError(field, code, message, rejected string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Code: code, Message: message, Rejected: rejected})
}

func (r *ValidationResult) addWarning(field, code, message string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Field: field, Code: code, Message: message})
}
