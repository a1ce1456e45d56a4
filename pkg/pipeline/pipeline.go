// Package pipeline provides the conversion pipeline for fabricpdf.
//
// This package implements the complete decode → render → store pipeline
// used by the HTTP server and the CLI. By centralizing this logic, both
// entry points share the same temp-file lifecycle, logging and error codes.
//
// # Architecture
//
// A conversion runs in four stages:
//
//  1. Decode: read the {"fabricJSON": ...} request envelope into a scene
//  2. Render: draw the scene into a PDF written to a temporary file
//  3. Read back: close the temporary file and load its bytes
//  4. Store: upload the bytes to the artifact store and return the URL
//
// The temporary file is removed on every exit path. A failure in any stage
// aborts the conversion and nothing is stored.
//
// # Usage
//
//	runner := pipeline.NewRunner(renderer, artifactStore, logger)
//	result, err := runner.ConvertRequest(ctx, r.Body, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.URL)
package pipeline

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fabricpdf/pkg/document"
	"github.com/matzehuels/fabricpdf/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultTitle is the PDF title metadata.
	DefaultTitle = "Fabric.js canvas"

	// artifactExt is the extension of stored artifacts.
	artifactExt = "pdf"

	tempPattern = "fabricpdf-*.pdf"
)

// =============================================================================
// Options - Conversion Configuration
// =============================================================================

// Options contains per-conversion settings.
type Options struct {
	// TempDir holds the temporary PDF. Empty uses os.TempDir().
	TempDir string `json:"-"`

	// PageSize defaults to US Letter.
	PageSize document.Size `json:"page_size,omitempty"`

	Title              string `json:"title,omitempty"`
	DisableCompression bool   `json:"disable_compression,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a conversion.
type Result struct {
	// URL is where the artifact store serves the PDF.
	URL string

	// Name is the artifact file name.
	Name string

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains conversion statistics.
type Stats struct {
	ObjectCount int
	Bytes       int
	RenderTime  time.Duration
	StoreTime   time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.PageSize == (document.Size{}) {
		o.PageSize = document.LetterSize
	}
	if o.PageSize.W <= 0 || o.PageSize.H <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid page size %gx%g", o.PageSize.W, o.PageSize.H)
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.TempDir == "" {
		o.TempDir = os.TempDir()
	}
	if info, err := os.Stat(o.TempDir); err != nil || !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidConfig, "temp dir %q is not a directory", o.TempDir)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// PDFOptions returns the document options implied by o.
func (o *Options) PDFOptions() []document.Option {
	return []document.Option{
		document.WithPageSize(o.PageSize),
		document.WithTitle(o.Title),
		document.WithCompression(!o.DisableCompression),
	}
}
