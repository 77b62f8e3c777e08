// Package media turns declared media attachments into web-deliverable
// processed media: it downloads the source, verifies the real content type,
// generates resized variants for images, and records every step so the
// transform history is auditable. Processing one attachment never fails the
// caller; all failures end up in the returned status and error list.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/nfnt/resize"

	"github.com/tendant/simple-ingest/pkg/simpleingest"
)

const (
	defaultMaxBytes        = 50 << 20 // 50 MiB
	defaultDownloadTimeout = 30 * time.Second
	maxImageDimension      = 8192
	jpegQuality            = 85
	diagnosticLimit        = 200
)

// ThumbnailSize is a bounding box for a derived thumbnail variant.
type ThumbnailSize struct {
	Name   string
	Width  int
	Height int
}

// Standard thumbnail bounding boxes. The large box is defined for future
// variants but not generated by default.
var (
	ThumbnailSmall  = ThumbnailSize{simpleingest.VariantThumbnailSmall, 150, 150}
	ThumbnailMedium = ThumbnailSize{simpleingest.VariantThumbnailMedium, 300, 300}
	ThumbnailLarge  = ThumbnailSize{simpleingest.VariantThumbnailLarge, 600, 600}
)

var defaultThumbnailSizes = []ThumbnailSize{ThumbnailSmall, ThumbnailMedium}

// Config options for the media processor.
type Config struct {
	// Store receives processed bytes and mints delivery URLs (required).
	Store simpleingest.BlobStore
	// Client is used for downloads; nil gets a default with a bounded timeout.
	Client *http.Client
	// MaxBytes is the download size ceiling (default 50 MiB).
	MaxBytes int64
	// ThumbnailSizes overrides the default variant boxes.
	ThumbnailSizes []ThumbnailSize
	Logger         *slog.Logger
}

// Processor implements simpleingest.MediaProcessor.
type Processor struct {
	store    simpleingest.BlobStore
	client   *http.Client
	maxBytes int64
	sizes    []ThumbnailSize
	logger   *slog.Logger
}

// NewProcessor creates a media processor.
func NewProcessor(cfg Config) (*Processor, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	p := &Processor{
		store:    cfg.Store,
		client:   cfg.Client,
		maxBytes: cfg.MaxBytes,
		sizes:    cfg.ThumbnailSizes,
		logger:   cfg.Logger,
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: defaultDownloadTimeout}
	}
	if p.maxBytes <= 0 {
		p.maxBytes = defaultMaxBytes
	}
	if len(p.sizes) == 0 {
		p.sizes = defaultThumbnailSizes
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// Process downloads, verifies and transforms one attachment. It never
// returns an error: the result status and error list carry all failures, so
// the orchestrator can keep the attachments that succeeded.
func (p *Processor) Process(ctx context.Context, att simpleingest.MediaAttachment) simpleingest.ProcessedMedia {
	pm := simpleingest.ProcessedMedia{
		ID:        uuid.New(),
		SourceURL: att.SourceURL,
		MediaType: att.Type,
		AltText:   att.AltText,
		Status:    simpleingest.ProcessingStatusProcessing,
		Details:   simpleingest.ProcessingDetails{StartedAt: time.Now().UTC()},
	}
	defer func() {
		pm.Details.CompletedAt = time.Now().UTC()
		pm.Details.Duration = pm.Details.CompletedAt.Sub(pm.Details.StartedAt)
	}()

	data, err := p.download(ctx, att.SourceURL)
	if err != nil {
		p.fail(&pm, simpleingest.ProcessingStatusFailed, simpleingest.CodeDownloadFailed, err)
		return pm
	}
	pm.Details.Operations = append(pm.Details.Operations, simpleingest.ProcessingOperation{
		Type:        "download",
		Description: "fetched source bytes",
		OutputSize:  int64(len(data)),
	})

	if int64(len(data)) > p.maxBytes {
		p.fail(&pm, simpleingest.ProcessingStatusValidationFailed, simpleingest.CodeFileTooLarge,
			fmt.Errorf("file size %d exceeds limit %d", len(data), p.maxBytes))
		return pm
	}

	mtype := mimetype.Detect(data)
	if !compatible(att.Type, mtype.String()) {
		p.fail(&pm, simpleingest.ProcessingStatusValidationFailed, simpleingest.CodeUnsupportedFormat,
			fmt.Errorf("detected type %s is not valid for %s media", mtype.String(), att.Type))
		return pm
	}

	sum := sha256.Sum256(data)
	pm.Metadata = simpleingest.MediaMetadata{
		MimeType:  mtype.String(),
		SizeBytes: int64(len(data)),
		Checksum:  hex.EncodeToString(sum[:]),
	}
	pm.Details.Operations = append(pm.Details.Operations, simpleingest.ProcessingOperation{
		Type:        "checksum",
		Description: "sha256 content checksum",
		InputSize:   int64(len(data)),
	})

	switch att.Type {
	case simpleingest.MediaTypeImage:
		err = p.processImage(ctx, &pm, data)
	default:
		err = p.processPassthrough(ctx, &pm, att, data, mtype.Extension())
	}
	if err != nil {
		p.fail(&pm, simpleingest.ProcessingStatusFailed, simpleingest.CodeProcessingTimeout, err)
		return pm
	}

	pm.Status = simpleingest.ProcessingStatusCompleted
	return pm
}

func (p *Processor) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// processImage decodes, generates thumbnail variants and re-encodes a
// delivery copy.
func (p *Processor) processImage(ctx context.Context, pm *simpleingest.ProcessedMedia, data []byte) error {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	pm.Metadata.Width = bounds.Dx()
	pm.Metadata.Height = bounds.Dy()
	pm.Details.Operations = append(pm.Details.Operations, simpleingest.ProcessingOperation{
		Type:        "decode",
		Description: "decoded " + format + " image",
		InputSize:   int64(len(data)),
		Params: map[string]string{
			"width":  strconv.Itoa(bounds.Dx()),
			"height": strconv.Itoa(bounds.Dy()),
		},
	})

	if bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension {
		pm.Details.Warnings = append(pm.Details.Warnings, simpleingest.ProcessingWarning{
			Code:    simpleingest.CodeLargeFileSize,
			Message: fmt.Sprintf("image dimensions %dx%d exceed %d", bounds.Dx(), bounds.Dy(), maxImageDimension),
		})
	}

	for _, size := range p.sizes {
		w, h := FitWithin(bounds.Dx(), bounds.Dy(), size.Width, size.Height)
		thumb := resize.Resize(uint(w), uint(h), img, resize.Lanczos3)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("encode %s: %w", size.Name, err)
		}

		key := objectKey(pm.ID, size.Name, ".jpg")
		if err := p.store.Upload(ctx, key, "image/jpeg", buf.Bytes()); err != nil {
			return fmt.Errorf("upload %s: %w", size.Name, err)
		}
		url, err := p.store.URL(ctx, key)
		if err != nil {
			return fmt.Errorf("variant url %s: %w", size.Name, err)
		}

		pm.Variants = append(pm.Variants, simpleingest.MediaVariant{
			Name:      size.Name,
			URL:       url,
			Width:     w,
			Height:    h,
			SizeBytes: int64(buf.Len()),
			Quality:   jpegQuality,
		})
		pm.Details.Operations = append(pm.Details.Operations, simpleingest.ProcessingOperation{
			Type:        "resize",
			Description: "generated " + size.Name + " variant",
			InputSize:   int64(len(data)),
			OutputSize:  int64(buf.Len()),
			Params: map[string]string{
				"width":  strconv.Itoa(w),
				"height": strconv.Itoa(h),
				"filter": "lanczos3",
			},
		})

		if pm.ThumbnailURL == "" {
			pm.ThumbnailURL = url
		}
	}

	var delivery bytes.Buffer
	if err := jpeg.Encode(&delivery, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode delivery copy: %w", err)
	}
	key := objectKey(pm.ID, "delivery", ".jpg")
	if err := p.store.Upload(ctx, key, "image/jpeg", delivery.Bytes()); err != nil {
		return fmt.Errorf("upload delivery copy: %w", err)
	}
	url, err := p.store.URL(ctx, key)
	if err != nil {
		return fmt.Errorf("delivery url: %w", err)
	}
	pm.URL = url
	pm.Details.Operations = append(pm.Details.Operations, simpleingest.ProcessingOperation{
		Type:        "compress",
		Description: "re-encoded delivery copy",
		InputSize:   int64(len(data)),
		OutputSize:  int64(delivery.Len()),
		Params:      map[string]string{"quality": strconv.Itoa(jpegQuality)},
	})

	return nil
}

// processPassthrough stores the raw bytes as the delivery object for video,
// audio and document attachments. Transcoding and preview rendering are stub
// contracts: the operation log and field shapes are final, the facts are
// placeholders until a real decoder is hooked in.
func (p *Processor) processPassthrough(ctx context.Context, pm *simpleingest.ProcessedMedia, att simpleingest.MediaAttachment, data []byte, ext string) error {
	if ext == "" {
		ext = ".bin"
	}
	key := objectKey(pm.ID, "delivery", ext)
	if err := p.store.Upload(ctx, key, pm.Metadata.MimeType, data); err != nil {
		return fmt.Errorf("upload delivery copy: %w", err)
	}
	url, err := p.store.URL(ctx, key)
	if err != nil {
		return fmt.Errorf("delivery url: %w", err)
	}
	pm.URL = url

	switch att.Type {
	case simpleingest.MediaTypeVideo:
		pm.Metadata.DurationSeconds = att.DurationSeconds
		pm.Metadata.VideoCodec = "h264"
		pm.Metadata.AudioCodec = "aac"
		pm.ThumbnailURL = url
		pm.Details.Operations = append(pm.Details.Operations, simpleingest.ProcessingOperation{
			Type:        "transcode_stub",
			Description: "stored source bytes; transcode pending decoder integration",
			InputSize:   int64(len(data)),
			OutputSize:  int64(len(data)),
		})
	case simpleingest.MediaTypeAudio:
		pm.Metadata.DurationSeconds = att.DurationSeconds
		pm.Metadata.AudioCodec = "aac"
		pm.Details.Operations = append(pm.Details.Operations, simpleingest.ProcessingOperation{
			Type:        "transcode_stub",
			Description: "stored source bytes; transcode pending decoder integration",
			InputSize:   int64(len(data)),
			OutputSize:  int64(len(data)),
		})
	case simpleingest.MediaTypeDocument:
		pm.ThumbnailURL = url
		pm.Details.Operations = append(pm.Details.Operations, simpleingest.ProcessingOperation{
			Type:        "preview_stub",
			Description: "stored source bytes; preview pending renderer integration",
			InputSize:   int64(len(data)),
			OutputSize:  int64(len(data)),
		})
	}
	return nil
}

func (p *Processor) fail(pm *simpleingest.ProcessedMedia, status simpleingest.ProcessingStatus, code string, err error) {
	msg := err.Error()
	if len(msg) > diagnosticLimit {
		msg = msg[:diagnosticLimit]
	}
	pm.Status = status
	pm.Details.Errors = append(pm.Details.Errors, simpleingest.ProcessingError{
		Code:    code,
		Message: msg,
	})
	p.logger.Warn("media processing failed",
		"media_id", pm.ID, "source_url", pm.SourceURL, "code", code, "error", msg)
}

// FitWithin scales origW x origH into the maxW x maxH bounding box:
// scale = min(maxW/origW, maxH/origH), dimensions floored, aspect ratio
// preserved exactly, never upscaling.
func FitWithin(origW, origH, maxW, maxH int) (int, int) {
	if origW <= 0 || origH <= 0 {
		return 0, 0
	}
	scale := math.Min(float64(maxW)/float64(origW), float64(maxH)/float64(origH))
	if scale >= 1 {
		return origW, origH
	}
	return int(math.Floor(float64(origW) * scale)), int(math.Floor(float64(origH) * scale))
}

// compatible enforces declared-media-type vs detected-MIME agreement.
func compatible(mediaType simpleingest.MediaType, mime string) bool {
	switch mediaType {
	case simpleingest.MediaTypeImage:
		return strings.HasPrefix(mime, "image/")
	case simpleingest.MediaTypeVideo:
		return strings.HasPrefix(mime, "video/")
	case simpleingest.MediaTypeAudio:
		return strings.HasPrefix(mime, "audio/")
	case simpleingest.MediaTypeDocument:
		return strings.HasPrefix(mime, "application/") || strings.HasPrefix(mime, "text/")
	default:
		return false
	}
}

func objectKey(id uuid.UUID, variant, ext string) string {
	return path.Join("media", id.String(), variant+ext)
}
