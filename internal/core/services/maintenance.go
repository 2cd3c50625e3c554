package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
)

// maintenanceLockName coordinates maintenance across instances so the
// cleanup and reindex jobs run once per cycle, not once per worker.
const maintenanceLockName = "maintenance"

// Maintenance runs the periodic housekeeping jobs on worker nodes:
// orphaned staged-file cleanup and similarity index rebuilds.
//
// For multi-worker deployments, configure a DistributedLock to prevent
// duplicate runs across instances.
type Maintenance struct {
	stagingDir  string
	vectorIndex driven.VectorIndex
	lock        driven.DistributedLock
	logger      *slog.Logger

	maxStagedAge    time.Duration
	cleanupInterval time.Duration
	reindexInterval time.Duration
	lockTTL         time.Duration

	// Internal state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// MaintenanceConfig holds configuration for the maintenance runner.
type MaintenanceConfig struct {
	StagingDir  string
	VectorIndex driven.VectorIndex
	Lock        driven.DistributedLock // Optional: coordination across instances
	Logger      *slog.Logger

	MaxStagedAge    time.Duration // Staged files older than this are orphaned (default: 24h)
	CleanupInterval time.Duration // How often to sweep the staging dir (default: 1h)
	ReindexInterval time.Duration // How often to rebuild the vector index (default: 24h)
	LockTTL         time.Duration // TTL for the maintenance lock (default: 5m)
}

// NewMaintenance creates a new maintenance runner.
func NewMaintenance(cfg MaintenanceConfig) *Maintenance {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxStagedAge := cfg.MaxStagedAge
	if maxStagedAge == 0 {
		maxStagedAge = 24 * time.Hour
	}
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = time.Hour
	}
	reindexInterval := cfg.ReindexInterval
	if reindexInterval == 0 {
		reindexInterval = 24 * time.Hour
	}
	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 5 * time.Minute
	}

	return &Maintenance{
		stagingDir:      cfg.StagingDir,
		vectorIndex:     cfg.VectorIndex,
		lock:            cfg.Lock,
		logger:          logger.With("service", "maintenance"),
		maxStagedAge:    maxStagedAge,
		cleanupInterval: cleanupInterval,
		reindexInterval: reindexInterval,
		lockTTL:         lockTTL,
	}
}

// Start begins the maintenance loop.
// It runs until Stop is called or context is cancelled.
func (m *Maintenance) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	m.logger.Info("maintenance starting",
		"cleanup_interval", m.cleanupInterval,
		"reindex_interval", m.reindexInterval,
	)

	go m.run(ctx)

	return nil
}

// Stop gracefully stops the maintenance loop.
func (m *Maintenance) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.stopCh)
	m.mu.Unlock()

	<-m.doneCh

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	m.logger.Info("maintenance stopped")
}

func (m *Maintenance) run(ctx context.Context) {
	defer close(m.doneCh)

	cleanupTicker := time.NewTicker(m.cleanupInterval)
	defer cleanupTicker.Stop()
	reindexTicker := time.NewTicker(m.reindexInterval)
	defer reindexTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("maintenance context cancelled")
			return
		case <-m.stopCh:
			return
		case <-cleanupTicker.C:
			m.withLock(ctx, func() {
				if _, err := m.CleanupStagedFiles(ctx); err != nil {
					m.logger.Error("staged file cleanup failed", "error", err)
				}
			})
		case <-reindexTicker.C:
			m.withLock(ctx, func() {
				if err := m.ReindexVectors(ctx); err != nil {
					m.logger.Error("vector index rebuild failed", "error", err)
				}
			})
		}
	}
}

// withLock runs fn while holding the maintenance lock, skipping the cycle
// when another instance holds it.
func (m *Maintenance) withLock(ctx context.Context, fn func()) {
	if m.lock == nil {
		fn()
		return
	}

	acquired, err := m.lock.Acquire(ctx, maintenanceLockName, m.lockTTL)
	if err != nil {
		m.logger.Warn("failed to acquire maintenance lock", "error", err)
		return
	}
	if !acquired {
		m.logger.Debug("maintenance lock held by another instance, skipping cycle")
		return
	}
	defer func() {
		if err := m.lock.Release(ctx, maintenanceLockName); err != nil {
			m.logger.Warn("failed to release maintenance lock", "error", err)
		}
	}()

	fn()
}

// CleanupStagedFiles removes staged uploads whose owners never came back:
// interrupted uploads leave partial files behind, and without a sweep the
// staging dir fills up. Files younger than MaxStagedAge are still owned by
// an in-flight upload or a retrying task and are left alone. Returns the
// number of files removed.
func (m *Maintenance) CleanupStagedFiles(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(m.stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-m.maxStagedAge)
	deleted := 0

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(m.stagingDir, entry.Name())
		if err := os.Remove(path); err != nil {
			m.logger.Warn("failed to remove orphaned staged file", "path", path, "error", err)
			continue
		}
		deleted++
		m.logger.Info("removed orphaned staged file",
			"filename", entry.Name(),
			"age", time.Since(info.ModTime()).Round(time.Second),
			"size", info.Size(),
		)
	}

	if deleted > 0 {
		m.logger.Info("staged file cleanup complete", "files_deleted", deleted)
	}
	return deleted, nil
}

// ReindexVectors rebuilds the similarity index.
func (m *Maintenance) ReindexVectors(ctx context.Context) error {
	if err := m.vectorIndex.Reindex(ctx); err != nil {
		return err
	}
	m.logger.Info("vector index rebuilt")
	return nil
}
