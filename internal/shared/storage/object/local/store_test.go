package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key, size, mimeType, err := store.Save(ctx, "client-1", "contrato arrendamento.txt", strings.NewReader("cláusula primeira"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("cláusula primeira")) {
		t.Fatalf("unexpected size %d", size)
	}
	if !strings.HasPrefix(mimeType, "text/plain") {
		t.Fatalf("unexpected mime type %q", mimeType)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "cláusula primeira" {
		t.Fatalf("unexpected contents %q", string(data))
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestSaveRejectsTraversalName(t *testing.T) {
	store := New(t.TempDir())
	if _, _, _, err := store.Save(context.Background(), "client-1", "../x.pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected invalid file name error")
	}
}
