package xid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUsesPrefixAndIsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		id := New(InvoicePrefix)
		if !strings.HasPrefix(id, "INV-") {
			t.Fatalf("expected INV- prefix, got %q", id)
		}
		if parts := strings.Split(id, "-"); len(parts) != 3 || len(parts[2]) != 8 {
			t.Fatalf("unexpected id shape %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestBackupIsUUID(t *testing.T) {
	if _, err := uuid.Parse(Backup()); err != nil {
		t.Fatalf("backup id is not a uuid: %v", err)
	}
}
