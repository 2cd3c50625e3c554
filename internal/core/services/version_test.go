package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven/mocks"
)

func TestVersionManager_NewDocument(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	lock := mocks.NewMockDistributedLock()
	vm := newVersionManager(store, lock)

	decision, err := vm.Resolve(context.Background(), "report.pdf", "hash-1", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Status != domain.UploadStatusNew {
		t.Errorf("expected status new, got %s", decision.Status)
	}
	if decision.Document.Version != 1 {
		t.Errorf("expected version 1, got %d", decision.Document.Version)
	}
	if !decision.Document.IsActive {
		t.Error("new document should be active")
	}

	names := lock.AcquiredNames()
	if len(names) != 1 || names[0] != "ingest:report.pdf" {
		t.Errorf("expected per-filename lock ingest:report.pdf, got %v", names)
	}
	if lock.IsHeld("ingest:report.pdf") {
		t.Error("lock should be released after Resolve")
	}
}

func TestVersionManager_NoChange(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	lock := mocks.NewMockDistributedLock()
	vm := newVersionManager(store, lock)

	first, err := vm.Resolve(context.Background(), "report.pdf", "hash-1", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same filename, same content: idempotent no-op.
	second, err := vm.Resolve(context.Background(), "report.pdf", "hash-1", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Status != domain.UploadStatusNoChange {
		t.Errorf("expected status no_change, got %s", second.Status)
	}
	if second.Document.ID != first.Document.ID {
		t.Errorf("expected existing document %s, got %s", first.Document.ID, second.Document.ID)
	}
	if second.Document.Version != 1 {
		t.Errorf("version must not change on identical content, got %d", second.Document.Version)
	}
}

func TestVersionManager_DuplicateContent(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	lock := mocks.NewMockDistributedLock()
	vm := newVersionManager(store, lock)

	first, err := vm.Resolve(context.Background(), "report.pdf", "hash-1", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same content under a different filename.
	decision, err := vm.Resolve(context.Background(), "copy-of-report.pdf", "hash-1", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Status != domain.UploadStatusDuplicate {
		t.Errorf("expected status duplicate, got %s", decision.Status)
	}
	if decision.Document.ID != first.Document.ID {
		t.Errorf("expected original document, got %s", decision.Document.ID)
	}
	if len(store.All()) != 1 {
		t.Errorf("duplicate upload must not create a document, have %d", len(store.All()))
	}
}

func TestVersionManager_NewVersion(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	chunks := mocks.NewMockChunkStore()
	store.Chunks = chunks
	lock := mocks.NewMockDistributedLock()
	vm := newVersionManager(store, lock)

	first, err := vm.Resolve(context.Background(), "report.pdf", "hash-1", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = chunks.SaveBatch(context.Background(), []*domain.Chunk{
		{ID: "c1", DocumentID: first.Document.ID, IsActive: true, Version: 1},
		{ID: "c2", DocumentID: first.Document.ID, IsActive: true, Version: 1},
	})

	decision, err := vm.Resolve(context.Background(), "report.pdf", "hash-2", 2048)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Status != domain.UploadStatusNewVersion {
		t.Errorf("expected status new_version, got %s", decision.Status)
	}
	if decision.Document.Version != 2 {
		t.Errorf("expected version 2, got %d", decision.Document.Version)
	}
	if decision.OldVersion != 1 {
		t.Errorf("expected old version 1, got %d", decision.OldVersion)
	}

	// Single-active invariant for the filename lineage.
	active := store.ActiveByFilename("report.pdf")
	if len(active) != 1 {
		t.Fatalf("expected exactly one active document, got %d", len(active))
	}
	if active[0].ID != decision.Document.ID {
		t.Error("the new version should be the active one")
	}

	// Old chunks deactivate with their document.
	if remaining := chunks.ActiveByDocument(first.Document.ID); len(remaining) != 0 {
		t.Errorf("expected old chunks deactivated, %d still active", len(remaining))
	}

	old, err := store.Get(context.Background(), first.Document.ID)
	if err != nil {
		t.Fatalf("old version should still exist: %v", err)
	}
	if old.IsActive || old.ReplacedAt == nil {
		t.Error("old version should be inactive with replaced_at set")
	}
}

func TestVersionManager_VersionMonotonicity(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	lock := mocks.NewMockDistributedLock()
	vm := newVersionManager(store, lock)

	hashes := []string{"h1", "h2", "h3", "h4"}
	var lastVersion int
	for _, h := range hashes {
		decision, err := vm.Resolve(context.Background(), "policy.txt", h, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decision.Document.Version != lastVersion+1 {
			t.Errorf("expected version %d, got %d", lastVersion+1, decision.Document.Version)
		}
		lastVersion = decision.Document.Version
	}
	if lastVersion != 4 {
		t.Errorf("expected final version 4, got %d", lastVersion)
	}
}

func TestVersionManager_SupersedeConflict(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	lock := mocks.NewMockDistributedLock()
	vm := newVersionManager(store, lock)

	if _, err := vm.Resolve(context.Background(), "report.pdf", "hash-1", 1024); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A concurrent upload on another instance already deactivated the row.
	store.SupersedeErr = domain.ErrVersionConflict

	_, err := vm.Resolve(context.Background(), "report.pdf", "hash-2", 2048)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}

func TestVersionManager_SupersedeRefreshesLock(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	lock := mocks.NewMockDistributedLock()
	vm := newVersionManager(store, lock)

	if _, err := vm.Resolve(context.Background(), "report.pdf", "hash-1", 1024); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The version-bump path extends the filename lock before the
	// supersede transaction starts.
	if _, err := vm.Resolve(context.Background(), "report.pdf", "hash-2", 2048); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	extended := lock.ExtendedNames()
	if len(extended) != 1 || extended[0] != "ingest:report.pdf" {
		t.Errorf("expected lock extension for ingest:report.pdf, got %v", extended)
	}
}

func TestVersionManager_ExpiredLockAbortsSupersede(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	lock := mocks.NewMockDistributedLock()
	vm := newVersionManager(store, lock)

	if _, err := vm.Resolve(context.Background(), "report.pdf", "hash-1", 1024); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Lock TTL ran out before the bump; another uploader may hold it now.
	lock.ExtendErr = errors.New("lock not held")

	_, err := vm.Resolve(context.Background(), "report.pdf", "hash-2", 2048)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}

func TestVersionManager_LockContention(t *testing.T) {
	store := mocks.NewMockDocumentStore()
	lock := mocks.NewMockDistributedLock()
	lock.Contended["ingest:report.pdf"] = true
	vm := newVersionManager(store, lock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // don't wait out the retry window

	_, err := vm.Resolve(ctx, "report.pdf", "hash-1", 1024)
	if err == nil {
		t.Fatal("expected error when the filename lock is contended")
	}
}
