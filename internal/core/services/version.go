package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

const (
	// ingestLockPrefix namespaces the per-filename upload locks.
	ingestLockPrefix = "ingest:"

	// ingestLockTTL bounds how long a crashed uploader can hold a
	// filename lock.
	ingestLockTTL = 30 * time.Second

	// ingestLockWait is the total time an upload waits for a contended
	// filename lock before giving up.
	ingestLockWait = 10 * time.Second

	ingestLockRetryInterval = 100 * time.Millisecond
)

// versionManager resolves the duplicate/version decision for an upload.
//
// Concurrent uploads of the same filename are serialized through a
// per-filename distributed lock, so two racing re-uploads can never both
// read the same active version and both bump it. The document store's
// Supersede carries its own optimistic guard as a second line of defence
// across instances that disagree about lock state.
type versionManager struct {
	documentStore driven.DocumentStore
	lock          driven.DistributedLock
}

func newVersionManager(documentStore driven.DocumentStore, lock driven.DistributedLock) *versionManager {
	return &versionManager{
		documentStore: documentStore,
		lock:          lock,
	}
}

// Resolve decides what an upload of (filename, contentHash) means and
// persists the outcome:
//
//   - active document with the same filename and same hash: no_change
//   - active document with the same filename and a different hash: the old
//     version is superseded and a new document at version+1 is inserted
//   - same hash active under a different filename: duplicate
//   - otherwise: a new document at version 1
func (m *versionManager) Resolve(ctx context.Context, filename, contentHash string, size int64) (*domain.UploadDecision, error) {
	lockName := ingestLockPrefix + filename
	if err := m.acquireLock(ctx, lockName); err != nil {
		return nil, err
	}
	defer func() { _ = m.lock.Release(context.WithoutCancel(ctx), lockName) }()

	existing, err := m.documentStore.GetActiveByFilename(ctx, filename)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup by filename: %w", err)
	}

	if existing != nil {
		if existing.ContentHash == contentHash {
			return &domain.UploadDecision{
				Status:   domain.UploadStatusNoChange,
				Document: existing,
			}, nil
		}
		// The supersede transaction can run long on a loaded database;
		// refresh the lock TTL before starting it. A failed extension
		// means the lock expired and another uploader may hold it now.
		if err := m.lock.Extend(ctx, lockName, ingestLockTTL); err != nil {
			return nil, domain.ErrVersionConflict
		}
		return m.supersede(ctx, existing, filename, contentHash, size)
	}

	byContent, err := m.documentStore.GetActiveByContentHash(ctx, contentHash)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup by content hash: %w", err)
	}
	if byContent != nil {
		return &domain.UploadDecision{
			Status:   domain.UploadStatusDuplicate,
			Document: byContent,
		}, nil
	}

	doc := &domain.Document{
		ID:          domain.GenerateID(),
		Filename:    filename,
		ContentHash: contentHash,
		FileSize:    size,
		Version:     1,
		IsActive:    true,
		UploadedAt:  time.Now(),
	}
	if err := m.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	return &domain.UploadDecision{
		Status:   domain.UploadStatusNew,
		Document: doc,
	}, nil
}

// supersede replaces the active version of a filename with new content.
// The store performs the deactivate+insert in one transaction with an
// optimistic guard on the old row still being active.
func (m *versionManager) supersede(ctx context.Context, old *domain.Document, filename, contentHash string, size int64) (*domain.UploadDecision, error) {
	newDoc := &domain.Document{
		ID:          domain.GenerateID(),
		Filename:    filename,
		ContentHash: contentHash,
		FileSize:    size,
		Version:     old.Version + 1,
		IsActive:    true,
		Metadata: map[string]string{
			"previous_version":        old.ID,
			"previous_version_number": strconv.Itoa(old.Version),
		},
		UploadedAt: time.Now(),
	}

	if err := m.documentStore.Supersede(ctx, old, newDoc); err != nil {
		return nil, err
	}

	return &domain.UploadDecision{
		Status:     domain.UploadStatusNewVersion,
		Document:   newDoc,
		OldVersion: old.Version,
	}, nil
}

// acquireLock waits for the per-filename lock with bounded retries.
func (m *versionManager) acquireLock(ctx context.Context, name string) error {
	deadline := time.Now().Add(ingestLockWait)
	for {
		acquired, err := m.lock.Acquire(ctx, name, ingestLockTTL)
		if err != nil {
			return fmt.Errorf("acquire ingest lock: %w", err)
		}
		if acquired {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("filename busy with a concurrent upload: %w", domain.ErrVersionConflict)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ingestLockRetryInterval):
		}
	}
}
