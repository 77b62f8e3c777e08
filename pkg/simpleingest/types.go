package simpleingest

import (
	"time"

	"github.com/google/uuid"
)

// ContentType is the domain type for submission content kinds.
type ContentType string

// Content type constants (typed).
const (
	ContentTypeText  ContentType = "text"
	ContentTypeLink  ContentType = "link"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
	ContentTypePoll  ContentType = "poll"
)

// MediaType is the domain type for declared media attachment kinds.
type MediaType string

// Media type constants (typed).
const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeDocument MediaType = "document"
)

// Visibility is the domain type for content visibility levels.
type Visibility string

// Visibility constants (typed).
const (
	VisibilityPublic    Visibility = "public"
	VisibilityFollowers Visibility = "followers"
	VisibilityPrivate   Visibility = "private"
	VisibilityDraft     Visibility = "draft"
)

// ContentStatus is the domain type for stored content lifecycle states.
type ContentStatus string

// Content status constants (typed).
const (
	ContentStatusPublished ContentStatus = "published"
	ContentStatusScheduled ContentStatus = "scheduled"
	ContentStatusDeleted   ContentStatus = "deleted"
)

// ContentSubmission is the inbound ingestion request. Required fields depend
// on the content type (e.g. a poll submission must carry poll data). A
// submission is treated as immutable once accepted by the pipeline.
type ContentSubmission struct {
	Type        ContentType       `json:"type"`
	Text        string            `json:"text,omitempty"`
	LinkURL     string            `json:"link_url,omitempty"`
	Media       []MediaAttachment `json:"media,omitempty"`
	Visibility  Visibility        `json:"visibility"`
	Tags        []string          `json:"tags,omitempty"`
	Mentions    []string          `json:"mentions,omitempty"`
	Poll        *PollData         `json:"poll,omitempty"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	Sensitive   bool              `json:"sensitive,omitempty"`
	Language    string            `json:"language,omitempty"`
}

// PollData holds the options and expiry for a poll submission.
type PollData struct {
	Options        []string   `json:"options"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MultipleChoice bool       `json:"multiple_choice,omitempty"`
}

// MediaAttachment is a declared media reference within a submission. The
// declared width/height/duration are caller-supplied hints; zero means
// undeclared. Actual facts are established by the media processor.
type MediaAttachment struct {
	Type            MediaType `json:"type"`
	SourceURL       string    `json:"source_url"`
	FileName        string    `json:"file_name,omitempty"`
	AltText         string    `json:"alt_text,omitempty"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
}

// ProcessingStatus is the domain type for per-attachment processing states.
type ProcessingStatus string

// Processing status constants (typed).
const (
	ProcessingStatusPending          ProcessingStatus = "pending"
	ProcessingStatusProcessing       ProcessingStatus = "processing"
	ProcessingStatusCompleted        ProcessingStatus = "completed"
	ProcessingStatusFailed           ProcessingStatus = "failed"
	ProcessingStatusValidationFailed ProcessingStatus = "validation_failed"
	ProcessingStatusVirusDetected    ProcessingStatus = "virus_detected"
)

// Variant name constants for derived media renditions.
const (
	VariantThumbnailSmall  = "thumbnail_small"
	VariantThumbnailMedium = "thumbnail_medium"
	VariantThumbnailLarge  = "thumbnail_large"
	VariantCompressed      = "compressed"
	VariantPosterFrame     = "poster_frame"
)

// ProcessedMedia is the terminal result of processing one attachment. It is
// created when processing starts and finalized exactly once, success or
// failure; it is never mutated afterwards.
type ProcessedMedia struct {
	ID           uuid.UUID         `json:"id"`
	SourceURL    string            `json:"source_url"`
	MediaType    MediaType         `json:"media_type"`
	URL          string            `json:"url,omitempty"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	AltText      string            `json:"alt_text,omitempty"`
	Metadata     MediaMetadata     `json:"metadata"`
	Status       ProcessingStatus  `json:"status"`
	Details      ProcessingDetails `json:"details"`
	Variants     []MediaVariant    `json:"variants,omitempty"`
}

// MediaMetadata holds facts extracted from the downloaded bytes.
type MediaMetadata struct {
	MimeType        string  `json:"mime_type,omitempty"`
	SizeBytes       int64   `json:"size_bytes,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	VideoCodec      string  `json:"video_codec,omitempty"`
	AudioCodec      string  `json:"audio_codec,omitempty"`
	Checksum        string  `json:"checksum,omitempty"`
}

// ProcessingDetails is the audit record for one attachment's transform
// history.
type ProcessingDetails struct {
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt time.Time             `json:"completed_at"`
	Duration    time.Duration         `json:"duration"`
	Operations  []ProcessingOperation `json:"operations,omitempty"`
	Warnings    []ProcessingWarning   `json:"warnings,omitempty"`
	Errors      []ProcessingError     `json:"errors,omitempty"`
}

// ProcessingOperation records one transform step applied to an attachment.
type ProcessingOperation struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	InputSize   int64             `json:"input_size,omitempty"`
	OutputSize  int64             `json:"output_size,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

// ProcessingWarning is a non-fatal observation made during processing.
type ProcessingWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ProcessingError is a per-attachment failure; it never fails the overall
// ingestion.
type ProcessingError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MediaVariant is a derived rendition (thumbnail, compressed tier, poster).
type MediaVariant struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Quality   int    `json:"quality,omitempty"`
}

// ValidationResult is the pure outcome of validating a submission.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors,omitempty"`
	Warnings []ValidationWarning `json:"warnings,omitempty"`
}

// ValidationError is a field-scoped structural or security violation.
type ValidationError struct {
	Field    string `json:"field,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Rejected string `json:"rejected,omitempty"`
}

// ValidationWarning is a field-scoped advisory that does not block ingestion.
type ValidationWarning struct {
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SanitizationResult holds cleaned text plus what changed and what was found.
type SanitizationResult struct {
	SanitizedText string                     `json:"sanitized_text"`
	Modifications []SanitizationModification `json:"modifications,omitempty"`
	Threats       []SecurityThreat           `json:"threats,omitempty"`
}

// SanitizationModification records one cleaning step that changed the text.
type SanitizationModification struct {
	Step   string `json:"step"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// ThreatType classifies a detected attack pattern.
type ThreatType string

// Threat type constants (typed).
const (
	ThreatScriptInjection ThreatType = "SCRIPT_INJECTION"
	ThreatJavascriptURI   ThreatType = "JAVASCRIPT_URI"
	ThreatEventHandler    ThreatType = "EVENT_HANDLER"
	ThreatDataURIHTML     ThreatType = "DATA_URI_HTML"
)

// ThreatSeverity grades a detected threat.
type ThreatSeverity string

// Threat severity constants (typed).
const (
	SeverityLow      ThreatSeverity = "low"
	SeverityMedium   ThreatSeverity = "medium"
	SeverityHigh     ThreatSeverity = "high"
	SeverityCritical ThreatSeverity = "critical"
)

// SecurityThreat is one attack-pattern match found in the original text,
// recorded before cleaning so the offending span is visible.
type SecurityThreat struct {
	Type        ThreatType     `json:"type"`
	Description string         `json:"description"`
	Location    int            `json:"location"`
	Severity    ThreatSeverity `json:"severity"`
}

// ExtractedMetadata is the semantic surface derived from a submission's text.
type ExtractedMetadata struct {
	Keywords  []string           `json:"keywords,omitempty"`
	Topics    []Topic            `json:"topics,omitempty"`
	Entities  []Entity           `json:"entities,omitempty"`
	Links     []ExtractedLink    `json:"links,omitempty"`
	Mentions  []ExtractedMention `json:"mentions,omitempty"`
	Hashtags  []ExtractedHashtag `json:"hashtags,omitempty"`
	Language  LanguageDetection  `json:"language"`
	Sentiment Sentiment          `json:"sentiment"`
	Metrics   ContentMetrics     `json:"metrics"`
}

// Topic is a category match with confidence in (0, 1].
type Topic struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Entity is a recognized span (person, URL, email) in the textual surface.
// Start/End are byte offsets into the concatenated surface.
type Entity struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// LinkCategory classifies an extracted URL by domain/extension heuristics.
type LinkCategory string

// Link category constants (typed).
const (
	LinkCategoryVideo    LinkCategory = "video"
	LinkCategorySocial   LinkCategory = "social_media"
	LinkCategoryImage    LinkCategory = "image"
	LinkCategoryDocument LinkCategory = "document"
	LinkCategoryExternal LinkCategory = "external"
)

// ExtractedLink is a URL match with its span, category and lazily fetched
// page metadata (nil until enrichment runs, or if enrichment failed).
type ExtractedLink struct {
	URL      string        `json:"url"`
	Start    int           `json:"start"`
	End      int           `json:"end"`
	Category LinkCategory  `json:"category"`
	Metadata *LinkMetadata `json:"metadata,omitempty"`
}

// ExtractedMention is an @handle match with its span.
type ExtractedMention struct {
	Handle string `json:"handle"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// ExtractedHashtag is a #tag match with its span.
type ExtractedHashtag struct {
	Tag   string `json:"tag"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// LanguageDetection is the script-ratio language guess.
type LanguageDetection struct {
	Code       string  `json:"code"`
	Confidence float64 `json:"confidence"`
}

// Sentiment holds word-list sentiment scores and the overall label.
type Sentiment struct {
	Positive   float64 `json:"positive"`
	Neutral    float64 `json:"neutral"`
	Negative   float64 `json:"negative"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ContentMetrics holds counting and readability metrics for the text surface.
type ContentMetrics struct {
	Characters        int     `json:"characters"`
	Words             int     `json:"words"`
	Sentences         int     `json:"sentences"`
	Paragraphs        int     `json:"paragraphs"`
	UniqueWords       int     `json:"unique_words"`
	AvgWordLength     float64 `json:"avg_word_length"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	ReadabilityScore  float64 `json:"readability_score"`
	ComplexityScore   float64 `json:"complexity_score"`
}

// LinkMetadata is page metadata fetched for an extracted link. On fetch
// failure only Secure and StatusCode are meaningful.
type LinkMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Author      string `json:"author,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Secure      bool   `json:"secure"`
	StatusCode  int    `json:"status_code,omitempty"`
}

// ContentIngestionResult is the terminal outcome of one ingest call. Either
// ContentID plus the best-effort artifacts are populated (Success true) or
// Errors is non-empty (Success false); never both.
type ContentIngestionResult struct {
	Success      bool                `json:"success"`
	ContentID    uuid.UUID           `json:"content_id,omitempty"`
	Media        []ProcessedMedia    `json:"media,omitempty"`
	Metadata     *ExtractedMetadata  `json:"metadata,omitempty"`
	Sanitization *SanitizationResult `json:"sanitization,omitempty"`
	Warnings     []ValidationWarning `json:"warnings,omitempty"`
	Errors       []ValidationError   `json:"errors,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}

// StoredContent is the persisted record composed at the end of a successful
// ingestion.
type StoredContent struct {
	ID          uuid.UUID          `json:"id"`
	AuthorID    uuid.UUID          `json:"author_id"`
	Type        ContentType        `json:"type"`
	Text        string             `json:"text,omitempty"`
	LinkURL     string             `json:"link_url,omitempty"`
	Media       []ProcessedMedia   `json:"media,omitempty"`
	Metadata    *ExtractedMetadata `json:"metadata,omitempty"`
	Visibility  Visibility         `json:"visibility"`
	Tags        []string           `json:"tags,omitempty"`
	Mentions    []string           `json:"mentions,omitempty"`
	Poll        *PollData          `json:"poll,omitempty"`
	Sensitive   bool               `json:"sensitive,omitempty"`
	Language    string             `json:"language,omitempty"`
	ScheduledAt *time.Time         `json:"scheduled_at,omitempty"`
	Status      ContentStatus      `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   *time.Time         `json:"deleted_at,omitempty"`
}

// Visible reports whether the record is immediately visible to readers
// (published, not a draft).
func (c *StoredContent) Visible() bool {
	return c.Status == ContentStatusPublished && c.Visibility != VisibilityDraft
}
