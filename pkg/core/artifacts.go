// Package core provides the collaborator contracts and error model shared by
// the pagecheck engine.
package core

import (
	"context"
	"time"
)

// Attachment represents an evidence artifact captured during verification
type Attachment struct {
	Name        string    `json:"name"`              // Element display name or artifact name
	ContentType string    `json:"contentType"`       // MIME type: image/png
	Path        string    `json:"path"`              // File path of the artifact
	Locator     string    `json:"locator,omitempty"` // Effective locator of the highlighted element
	CapturedAt  time.Time `json:"capturedAt"`
	Body        []byte    `json:"-"` // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(name, path string, data []byte) Attachment {
	if name == "" {
		name = AttachmentScreenshot
	}
	return Attachment{
		Name:        name,
		ContentType: ContentTypePNG,
		Path:        path,
		CapturedAt:  time.Now(),
		Body:        data,
	}
}

// ArtifactConfig controls screenshot evidence capture
type ArtifactConfig struct {
	Screenshot     bool   `yaml:"screenshot" json:"screenshot"`         // Default: true
	Highlight      bool   `yaml:"highlight" json:"highlight"`           // Default: true
	HighlightStyle string `yaml:"highlightStyle" json:"highlightStyle"` // Inline style applied while capturing
}

// DefaultHighlightStyle outlines the failing element in red.
const DefaultHighlightStyle = "border: 3px solid red; outline: 2px dashed yellow;"

// DefaultArtifactConfig returns sensible defaults for evidence capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		Screenshot:     true,
		Highlight:      true,
		HighlightStyle: DefaultHighlightStyle,
	}
}

// Screenshotter captures the current document as PNG. Every Driver is one.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// NullScreenshotter is a no-op implementation for testing
type NullScreenshotter struct{}

// Screenshot returns nil (no-op)
func (NullScreenshotter) Screenshot(context.Context) ([]byte, error) { return nil, nil }
