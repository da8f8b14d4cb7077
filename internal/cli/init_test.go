package cli

import (
	"context"
	"path/filepath"
	"testing"

	"moneymanager/internal/log"
)

func TestOpenSnapshotStore(t *testing.T) {
	logger := log.Discard()

	if repo := OpenSnapshotStore(logger, ""); repo != nil {
		t.Fatalf("expected disabled store for empty path")
	}

	repo := OpenSnapshotStore(logger, filepath.Join(t.TempDir(), "nested", "snap.db"))
	if repo == nil {
		t.Fatalf("expected migrated store")
	}
	defer repo.Close()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenSnapshotStoreUnusablePath(t *testing.T) {
	dir := t.TempDir()
	if repo := OpenSnapshotStore(log.Discard(), dir); repo != nil {
		_ = repo.Close()
		t.Fatalf("expected nil store when the path is a directory")
	}
}
