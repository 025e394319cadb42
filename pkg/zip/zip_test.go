package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchive(t *testing.T) {
	mod := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	data, err := Archive([]File{
		{Name: "a.json", Data: []byte(`{"a":1}`), Modified: mod},
		{Name: "a.csv", Data: []byte("a\n1\n"), Modified: mod},
	})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 files, got %d", len(zr.File))
	}
	if zr.File[0].Name != "a.json" || zr.File[1].Name != "a.csv" {
		t.Fatalf("unexpected order %s, %s", zr.File[0].Name, zr.File[1].Name)
	}
	rc, err := zr.File[1].Open()
	if err != nil {
		t.Fatalf("open member: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read member: %v", err)
	}
	if string(body) != "a\n1\n" {
		t.Fatalf("unexpected content %q", body)
	}
}
