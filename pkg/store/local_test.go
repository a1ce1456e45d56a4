package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/fabricpdf/pkg/errors"
)

func TestLocal_StoreAndOpen(t *testing.T) {
	tests := []struct {
		name       string
		baseURL    string
		wantPrefix string
	}{
		{"public base url", "http://localhost:8080/", "http://localhost:8080/artifacts/"},
		{"file url", "", "file://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			l, err := NewLocal(dir, tt.baseURL)
			if err != nil {
				t.Fatalf("NewLocal() error: %v", err)
			}

			name := NewArtifactName("pdf")
			url, err := l.Store(context.Background(), Artifact{Name: name, ContentKind: KindRaw, Data: []byte("%PDF-1.3")})
			if err != nil {
				t.Fatalf("Store() error: %v", err)
			}
			if !strings.HasPrefix(url, tt.wantPrefix) || !strings.HasSuffix(url, name) {
				t.Errorf("url = %q, want prefix %q and suffix %q", url, tt.wantPrefix, name)
			}

			obj, err := l.Open(context.Background(), name)
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			defer obj.Close()
			data, _ := io.ReadAll(obj)
			if string(data) != "%PDF-1.3" {
				t.Errorf("data = %q", data)
			}
			if obj.ContentType != "application/pdf" || obj.Size != 8 {
				t.Errorf("object = %+v", obj)
			}

			entries, _ := os.ReadDir(dir)
			if len(entries) != 1 {
				t.Errorf("dir has %d entries, want 1 (no temp files left)", len(entries))
			}
		})
	}
}

func TestLocal_GeneratedName(t *testing.T) {
	l, _ := NewLocal(t.TempDir(), "http://x")
	url, err := l.Store(context.Background(), Artifact{Data: []byte("x")})
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if !strings.HasSuffix(url, ".bin") {
		t.Errorf("url = %q, want generated .bin name", url)
	}
}

func TestLocal_Errors(t *testing.T) {
	dir := t.TempDir()
	l, _ := NewLocal(dir, "")
	ctx := context.Background()

	if _, err := l.Store(ctx, Artifact{Name: "../escape.pdf"}); !errors.Is(err, errors.ErrCodeStore) {
		t.Errorf("Store(traversal) error = %v, want STORE_ERROR", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := l.Store(cancelled, Artifact{Name: "a.pdf"}); !errors.Is(err, errors.ErrCodeStore) {
		t.Errorf("Store(cancelled) error = %v, want STORE_ERROR", err)
	}

	for _, id := range []string{"missing.pdf", "../etc", ".upload-1"} {
		if _, err := l.Open(ctx, id); !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("Open(%q) error = %v, want NOT_FOUND", id, err)
		}
	}

	// Read-only directory makes the write fail.
	ro := filepath.Join(dir, "ro")
	l2, _ := NewLocal(ro, "")
	if err := os.Chmod(ro, 0o500); err != nil {
		t.Skip("chmod not supported")
	}
	defer os.Chmod(ro, 0o755)
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	if _, err := l2.Store(ctx, Artifact{Name: "a.pdf", Data: []byte("x")}); !errors.Is(err, errors.ErrCodeStore) {
		t.Errorf("Store(read-only) error = %v, want STORE_ERROR", err)
	}
}

func TestNewArtifactName(t *testing.T) {
	a, b := NewArtifactName("pdf"), NewArtifactName(".pdf")
	if a == b {
		t.Error("names should be unique")
	}
	for _, n := range []string{a, b} {
		if !strings.HasSuffix(n, ".pdf") || strings.Contains(n, "..") {
			t.Errorf("name = %q", n)
		}
		if err := errors.ValidateArtifactID(n); err != nil {
			t.Errorf("generated name %q is not a valid id: %v", n, err)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.pdf":  "application/pdf",
		"a.png":  "image/png",
		"a.jpeg": "image/jpeg",
		"a.bin":  "application/octet-stream",
	}
	for name, want := range tests {
		if got := (Artifact{Name: name}).ContentType(); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
