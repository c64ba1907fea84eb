package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestObjectKey(t *testing.T) {
	id := uuid.New()
	key, err := ObjectKey("/productos/", id, "image/PNG; charset=binary")
	if err != nil {
		t.Fatalf("ObjectKey: %v", err)
	}
	if !strings.HasPrefix(key, "productos/"+id.String()+"/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}

	if _, err := ObjectKey("productos", id, "application/pdf"); err == nil {
		t.Fatal("expected unsupported type error")
	}
}

func TestIsAllowedImageType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/webp", "image/gif"} {
		if !IsAllowedImageType(ct) {
			t.Errorf("%s should be allowed", ct)
		}
	}
	if IsAllowedImageType("video/mp4") {
		t.Error("video should be rejected")
	}
}
