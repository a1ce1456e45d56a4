// Package store persists rendered artifacts and returns their public URLs.
//
// Three backends implement [Store]:
//
//   - [Cloudinary] uploads to Cloudinary as a raw asset and returns its
//     secure URL.
//   - [GridFS] writes to a MongoDB GridFS bucket.
//   - [Local] writes to a directory on disk.
//
// GridFS and Local also implement [Opener], so the HTTP server can stream
// their artifacts back under /artifacts/{id}.
//
// Every failure of a Store call is reported as STORE_ERROR.
package store

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContentKind classifies an artifact the way the upload backend needs it.
type ContentKind string

const (
	// KindRaw is a non-image file such as a PDF.
	KindRaw ContentKind = "raw"

	// KindImage is a raster image.
	KindImage ContentKind = "image"
)

// Artifact is a finished file ready for upload.
type Artifact struct {
	Name        string
	ContentKind ContentKind
	Data        []byte
}

// ContentType returns the MIME type implied by the artifact name.
func (a Artifact) ContentType() string {
	return contentTypeOf(a.Name)
}

// Store persists an artifact and returns a URL from which it can be retrieved.
type Store interface {
	Name() string
	Store(ctx context.Context, a Artifact) (string, error)
}

// Object is an opened artifact. The caller must close it.
type Object struct {
	io.ReadCloser
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Opener reads artifacts back by the id embedded in their URL.
// A missing artifact is reported as NOT_FOUND.
type Opener interface {
	Open(ctx context.Context, id string) (*Object, error)
}

// NewArtifactName returns a fresh unique file name with the given extension.
func NewArtifactName(ext string) string {
	return uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
}

func contentTypeOf(name string) string {
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// artifactURL joins a public base URL and an artifact id.
func artifactURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/artifacts/" + id
}
