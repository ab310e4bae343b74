package device

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/store"
)

func TestIDStableAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	first, err := ID(ctx, st)
	if err != nil {
		t.Fatalf("ID failed: %v", err)
	}
	if !strings.HasPrefix(first, "device-") {
		t.Errorf("id %q missing device- prefix", first)
	}

	again, _ := ID(ctx, st)
	if again != first {
		t.Errorf("id changed within one session: %q vs %q", first, again)
	}
	st.Close()

	st, err = store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer st.Close()

	after, err := ID(ctx, st)
	if err != nil {
		t.Fatalf("ID after reopen failed: %v", err)
	}
	if after != first {
		t.Errorf("id changed across restart: %q vs %q", first, after)
	}
}
