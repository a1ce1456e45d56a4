package pipeline

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fabricpdf/pkg/document"
	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/render"
	"github.com/matzehuels/fabricpdf/pkg/scene"
	"github.com/matzehuels/fabricpdf/pkg/store"
)

type memStore struct {
	mu        sync.Mutex
	artifacts []store.Artifact
	err       error
}

func (s *memStore) Name() string { return "memory" }

func (s *memStore) Store(_ context.Context, a store.Artifact) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.artifacts = append(s.artifacts, a)
	return "https://cdn.example.com/" + a.Name, nil
}

func (s *memStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts)
}

type failingFetcher struct{}

func (failingFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	return nil, errors.New(errors.ErrCodeFetch, "fetch %s: status 404", url)
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(&bytes.Buffer{}, log.Options{})
}

func newTestRunner(s store.Store) *Runner {
	logger := quietLogger()
	return NewRunner(render.NewRenderer(failingFetcher{}, logger), s, logger)
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned up: %d entries left", len(entries))
	}
}

const rectRequest = `{"fabricJSON": {"background": "#fff", "objects": [
	{"type": "rect", "left": 10, "top": 10, "width": 50, "height": 50, "fill": "red"}
]}}`

func TestConvertRequest_Success(t *testing.T) {
	tmp := t.TempDir()
	s := &memStore{}
	r := newTestRunner(s)

	result, err := r.ConvertRequest(context.Background(), strings.NewReader(rectRequest), Options{TempDir: tmp})
	if err != nil {
		t.Fatalf("ConvertRequest() error: %v", err)
	}

	if s.calls() != 1 {
		t.Fatalf("store called %d times, want 1", s.calls())
	}
	a := s.artifacts[0]
	if !bytes.HasPrefix(a.Data, []byte("%PDF-")) {
		t.Error("stored artifact is not a PDF")
	}
	if a.ContentKind != store.KindRaw || !strings.HasSuffix(a.Name, ".pdf") {
		t.Errorf("artifact = %s (%s)", a.Name, a.ContentKind)
	}
	if result.URL != "https://cdn.example.com/"+a.Name || result.Name != a.Name {
		t.Errorf("result = %+v", result)
	}
	if result.Stats.ObjectCount != 1 || result.Stats.Bytes != len(a.Data) {
		t.Errorf("stats = %+v", result.Stats)
	}
	assertEmptyDir(t, tmp)
}

func TestConvert_FetchFailure(t *testing.T) {
	tmp := t.TempDir()
	s := &memStore{}
	r := newTestRunner(s)

	sc, err := scene.Parse([]byte(`{"objects": [
		{"type": "rect", "width": 1, "height": 1, "fill": "red"},
		{"type": "image", "src": "https://example.com/missing.png", "width": 1, "height": 1}
	]}`))
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.Convert(context.Background(), sc, Options{TempDir: tmp})
	if !errors.Is(err, errors.ErrCodeFetch) {
		t.Fatalf("Convert() error = %v, want FETCH_ERROR", err)
	}
	if s.calls() != 0 {
		t.Errorf("store called %d times after a fetch failure", s.calls())
	}
	assertEmptyDir(t, tmp)
}

func TestConvert_StoreFailure(t *testing.T) {
	tmp := t.TempDir()
	s := &memStore{err: errors.New(errors.ErrCodeStore, "upload rejected")}
	r := newTestRunner(s)

	_, err := r.ConvertRequest(context.Background(), strings.NewReader(rectRequest), Options{TempDir: tmp})
	if !errors.Is(err, errors.ErrCodeStore) {
		t.Fatalf("ConvertRequest() error = %v, want STORE_ERROR", err)
	}
	assertEmptyDir(t, tmp)
}

func TestConvertRequest_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"missing envelope", `{"objects": []}`, errors.ErrCodeInvalidInput},
		{"not json", `<scene/>`, errors.ErrCodeInvalidInput},
		{"bad object", `{"fabricJSON": {"objects": [{"type": "circle"}]}}`, errors.ErrCodeRender},
		{"bad color", `{"fabricJSON": {"objects": [{"type": "circle", "radius": 1, "fill": "nope"}]}}`, errors.ErrCodeRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			s := &memStore{}
			_, err := newTestRunner(s).ConvertRequest(context.Background(), strings.NewReader(tt.body), Options{TempDir: tmp})
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
			if s.calls() != 0 {
				t.Error("store must not be called")
			}
			assertEmptyDir(t, tmp)
		})
	}
}

func TestConvert_NoStore(t *testing.T) {
	_, err := newTestRunner(nil).Convert(context.Background(), &scene.Scene{}, Options{})
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Convert() error = %v, want INTERNAL_ERROR", err)
	}
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.pdf"
	r := newTestRunner(nil)

	sc, _ := scene.Parse([]byte(`{"objects": [{"type": "textbox", "text": "hi", "fontSize": 12}]}`))
	if err := r.RenderFile(context.Background(), sc, path, Options{}); err != nil {
		t.Fatalf("RenderFile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}

	// A failed render leaves no partial file behind.
	bad := dir + "/bad.pdf"
	sc, _ = scene.Parse([]byte(`{"objects": [{"type": "image", "src": "https://example.com/x.png", "width": 1, "height": 1}]}`))
	if err := r.RenderFile(context.Background(), sc, bad, Options{}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("partial output file was not removed")
	}
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if opts.PageSize != document.LetterSize {
		t.Errorf("PageSize = %v, want Letter", opts.PageSize)
	}
	if opts.Title != DefaultTitle || opts.TempDir == "" || opts.Logger == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}

	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call error: %v", err)
	}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"negative page", Options{PageSize: document.Size{W: -1, H: 10}}, errors.ErrCodeInvalidInput},
		{"missing temp dir", Options{TempDir: "/does/not/exist"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}
