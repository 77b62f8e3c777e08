package media_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-ingest/pkg/simpleingest"
	"github.com/tendant/simple-ingest/pkg/simpleingest/media"
	memorystorage "github.com/tendant/simple-ingest/pkg/simpleingest/storage/memory"
)

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name         string
		origW, origH int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"wide landscape", 4000, 2000, 150, 150, 150, 75},
		{"tall portrait", 2000, 4000, 150, 150, 75, 150},
		{"square", 1000, 1000, 300, 300, 300, 300},
		{"never upscale", 100, 50, 150, 150, 100, 50},
		{"exact fit", 150, 150, 150, 150, 150, 150},
		{"floored dimensions", 333, 100, 150, 150, 150, 45},
		{"zero input", 0, 0, 150, 150, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := media.FitWithin(tt.origW, tt.origH, tt.maxW, tt.maxH)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func serveBytes(t *testing.T, contentType string, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProcessor(t *testing.T, store simpleingest.BlobStore, client *http.Client, maxBytes int64) *media.Processor {
	t.Helper()
	p, err := media.NewProcessor(media.Config{
		Store:    store,
		Client:   client,
		MaxBytes: maxBytes,
	})
	require.NoError(t, err)
	return p
}

func TestProcessImage(t *testing.T) {
	source := pngBytes(t, 64, 48)
	srv := serveBytes(t, "image/png", source)
	store := memorystorage.New("")
	p := newProcessor(t, store, srv.Client(), 0)

	pm := p.Process(context.Background(), simpleingest.MediaAttachment{
		Type:      simpleingest.MediaTypeImage,
		SourceURL: srv.URL + "/source.png",
		AltText:   "test card",
	})

	require.Equal(t, simpleingest.ProcessingStatusCompleted, pm.Status)
	assert.Empty(t, pm.Details.Errors)
	assert.Equal(t, "test card", pm.AltText)
	assert.Equal(t, "image/png", pm.Metadata.MimeType)
	assert.Equal(t, 64, pm.Metadata.Width)
	assert.Equal(t, 48, pm.Metadata.Height)
	assert.Equal(t, int64(len(source)), pm.Metadata.SizeBytes)
	assert.NotEmpty(t, pm.Metadata.Checksum)
	assert.NotEmpty(t, pm.URL)
	assert.NotEmpty(t, pm.ThumbnailURL)

	// Small and medium variants by default; the source is smaller than both
	// boxes, so neither is upscaled.
	require.Len(t, pm.Variants, 2)
	for _, v := range pm.Variants {
		assert.Equal(t, 64, v.Width)
		assert.Equal(t, 48, v.Height)
		assert.NotEmpty(t, v.URL)
	}
	assert.Equal(t, simpleingest.VariantThumbnailSmall, pm.Variants[0].Name)
	assert.Equal(t, simpleingest.VariantThumbnailMedium, pm.Variants[1].Name)

	// Variant and delivery objects actually landed in the store.
	var opTypes []string
	for _, op := range pm.Details.Operations {
		opTypes = append(opTypes, op.Type)
	}
	assert.Contains(t, opTypes, "download")
	assert.Contains(t, opTypes, "decode")
	assert.Contains(t, opTypes, "resize")
	assert.Contains(t, opTypes, "compress")
}

func TestProcessImageDownscales(t *testing.T) {
	srv := serveBytes(t, "image/png", pngBytes(t, 800, 400))
	p := newProcessor(t, memorystorage.New(""), srv.Client(), 0)

	pm := p.Process(context.Background(), simpleingest.MediaAttachment{
		Type:      simpleingest.MediaTypeImage,
		SourceURL: srv.URL + "/wide.png",
	})

	require.Equal(t, simpleingest.ProcessingStatusCompleted, pm.Status)
	require.Len(t, pm.Variants, 2)
	assert.Equal(t, 150, pm.Variants[0].Width)
	assert.Equal(t, 75, pm.Variants[0].Height)
	assert.Equal(t, 300, pm.Variants[1].Width)
	assert.Equal(t, 150, pm.Variants[1].Height)
}

func TestProcessDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()
	p := newProcessor(t, memorystorage.New(""), srv.Client(), 0)

	pm := p.Process(context.Background(), simpleingest.MediaAttachment{
		Type:      simpleingest.MediaTypeImage,
		SourceURL: srv.URL + "/missing.png",
	})

	assert.Equal(t, simpleingest.ProcessingStatusFailed, pm.Status)
	require.NotEmpty(t, pm.Details.Errors)
	assert.Equal(t, simpleingest.CodeDownloadFailed, pm.Details.Errors[0].Code)
	assert.Empty(t, pm.URL)
}

func TestProcessRejectsMismatchedType(t *testing.T) {
	srv := serveBytes(t, "text/plain", []byte("definitely not an image"))
	p := newProcessor(t, memorystorage.New(""), srv.Client(), 0)

	pm := p.Process(context.Background(), simpleingest.MediaAttachment{
		Type:      simpleingest.MediaTypeImage,
		SourceURL: srv.URL + "/fake.png",
	})

	assert.Equal(t, simpleingest.ProcessingStatusValidationFailed, pm.Status)
	require.NotEmpty(t, pm.Details.Errors)
	assert.Equal(t, simpleingest.CodeUnsupportedFormat, pm.Details.Errors[0].Code)
}

func TestProcessRejectsOversizedFile(t *testing.T) {
	srv := serveBytes(t, "image/png", pngBytes(t, 64, 64))
	p := newProcessor(t, memorystorage.New(""), srv.Client(), 32)

	pm := p.Process(context.Background(), simpleingest.MediaAttachment{
		Type:      simpleingest.MediaTypeImage,
		SourceURL: srv.URL + "/big.png",
	})

	assert.Equal(t, simpleingest.ProcessingStatusValidationFailed, pm.Status)
	require.NotEmpty(t, pm.Details.Errors)
	assert.Equal(t, simpleingest.CodeFileTooLarge, pm.Details.Errors[0].Code)
}

func TestProcessDocumentPassthrough(t *testing.T) {
	srv := serveBytes(t, "text/plain", []byte("plain text document body"))
	store := memorystorage.New("")
	p := newProcessor(t, store, srv.Client(), 0)

	pm := p.Process(context.Background(), simpleingest.MediaAttachment{
		Type:      simpleingest.MediaTypeDocument,
		SourceURL: srv.URL + "/notes.txt",
	})

	require.Equal(t, simpleingest.ProcessingStatusCompleted, pm.Status)
	assert.NotEmpty(t, pm.URL)
	assert.Equal(t, pm.URL, pm.ThumbnailURL)
	assert.Empty(t, pm.Variants)

	var opTypes []string
	for _, op := range pm.Details.Operations {
		opTypes = append(opTypes, op.Type)
	}
	assert.Contains(t, opTypes, "preview_stub")
}

func TestProcessVideoPassthrough(t *testing.T) {
	// Minimal mp4 file type box, enough for content sniffing.
	mp4 := []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
		'i', 's', 'o', 'm', 'i', 's', 'o', '2',
	}
	srv := serveBytes(t, "video/mp4", mp4)
	p := newProcessor(t, memorystorage.New(""), srv.Client(), 0)

	pm := p.Process(context.Background(), simpleingest.MediaAttachment{
		Type:            simpleingest.MediaTypeVideo,
		SourceURL:       srv.URL + "/clip.mp4",
		DurationSeconds: 12.5,
	})

	require.Equal(t, simpleingest.ProcessingStatusCompleted, pm.Status)
	assert.Equal(t, 12.5, pm.Metadata.DurationSeconds)
	assert.Equal(t, "h264", pm.Metadata.VideoCodec)
	assert.Equal(t, "aac", pm.Metadata.AudioCodec)
	assert.NotEmpty(t, pm.URL)
	assert.Equal(t, pm.URL, pm.ThumbnailURL)
}

func TestNewProcessorRequiresStore(t *testing.T) {
	_, err := media.NewProcessor(media.Config{})
	assert.Error(t, err)
}
