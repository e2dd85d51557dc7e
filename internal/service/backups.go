package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/store"
	"dukaan/backend/internal/xid"
)

// CreateBackup snapshots the caller's store.
func (s *Service) CreateBackup(ctx context.Context) (domain.Backup, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Backup{}, err
	}
	return s.backupStore(ctx, actor.Store, actor.UserID, domain.BackupTriggerManual)
}

func (s *Service) ListBackups(ctx context.Context) ([]domain.Backup, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBackups(ctx, actor.Store)
}

// GetBackup returns a backup including its snapshot.
func (s *Service) GetBackup(ctx context.Context, id string) (domain.Backup, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.Backup{}, err
	}
	b, err := s.repo.GetBackup(ctx, actor.Store, id)
	if err != nil {
		return domain.Backup{}, err
	}
	return *b, nil
}

// RestoreBackup replaces the caller's products, invoices, reports and
// templates with a stored snapshot.
func (s *Service) RestoreBackup(ctx context.Context, id string) (domain.RestoreResponse, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.RestoreResponse{}, err
	}
	b, err := s.repo.GetBackup(ctx, actor.Store, id)
	if err != nil {
		return domain.RestoreResponse{}, err
	}
	if b.Snapshot == nil {
		return domain.RestoreResponse{}, invalid("backup %s has no snapshot", id)
	}
	resp, err := s.restore(ctx, actor.Store, *b.Snapshot)
	if err != nil {
		return domain.RestoreResponse{}, err
	}
	resp.BackupID = b.ID
	return resp, nil
}

// ImportSnapshot restores an uploaded snapshot into the caller's store.
func (s *Service) ImportSnapshot(ctx context.Context, snapshot domain.Snapshot) (domain.RestoreResponse, error) {
	actor, err := actorStore(ctx)
	if err != nil {
		return domain.RestoreResponse{}, err
	}
	if snapshot.Version > domain.SnapshotVersion {
		return domain.RestoreResponse{}, invalid("snapshot version %d is newer than supported %d", snapshot.Version, domain.SnapshotVersion)
	}
	return s.restore(ctx, actor.Store, snapshot)
}

func (s *Service) restore(ctx context.Context, storeName string, snapshot domain.Snapshot) (domain.RestoreResponse, error) {
	if err := s.repo.ReplaceStoreData(ctx, storeName, snapshot); err != nil {
		return domain.RestoreResponse{}, err
	}
	s.invalidateDashboard(ctx, storeName)
	s.log.Info().Str("store", storeName).Int("invoices", len(snapshot.Invoices)).Msg("store data restored")
	return domain.RestoreResponse{
		Products: len(snapshot.Products),
		Invoices: len(snapshot.Invoices),
		Reports:  len(snapshot.Reports),
	}, nil
}

// Snapshot gathers everything a store owns into one document.
func (s *Service) Snapshot(ctx context.Context, storeName string, userID string) (domain.Snapshot, error) {
	snap := domain.Snapshot{
		Version:   domain.SnapshotVersion,
		Store:     storeName,
		CreatedAt: s.now().UTC(),
	}

	if userID != "" {
		user, err := s.repo.GetUser(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return domain.Snapshot{}, err
		}
		if user != nil {
			user.PasswordHash = ""
			snap.User = user
		}
	}

	var err error
	if snap.Products, err = s.repo.ListProducts(ctx, storeName); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Invoices, err = s.repo.ListInvoices(ctx, storeName); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Reports, err = s.repo.ListReports(ctx, storeName); err != nil {
		return domain.Snapshot{}, err
	}
	tpl, err := s.repo.GetTemplates(ctx, storeName)
	switch {
	case err == nil:
		snap.Templates = tpl
	case !errors.Is(err, store.ErrNotFound):
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) backupStore(ctx context.Context, storeName string, userID string, trigger string) (domain.Backup, error) {
	backup, err := s.writeBackup(ctx, storeName, userID, trigger)
	s.metrics.BackupDone(trigger, err)
	if err != nil {
		return domain.Backup{}, err
	}
	s.log.Info().Str("store", storeName).Str("trigger", trigger).Int64("size_bytes", backup.SizeBytes).Msg("backup created")
	return backup, nil
}

func (s *Service) writeBackup(ctx context.Context, storeName string, userID string, trigger string) (domain.Backup, error) {
	snap, err := s.Snapshot(ctx, storeName, userID)
	if err != nil {
		return domain.Backup{}, err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return domain.Backup{}, err
	}
	created, err := s.repo.CreateBackup(ctx, domain.Backup{
		ID:        xid.Backup(),
		Store:     storeName,
		Trigger:   trigger,
		SizeBytes: int64(len(payload)),
		CreatedAt: snap.CreatedAt,
		Snapshot:  &snap,
	})
	if err != nil {
		return domain.Backup{}, err
	}
	return *created, nil
}

// RunAutoBackups backs up every store whose latest backup is older than
// maxAge, or that has none. It returns how many backups were written.
func (s *Service) RunAutoBackups(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	written := 0
	var errs []error
	for _, user := range users {
		latest, ok, err := s.repo.LatestBackupAt(ctx, user.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok && now.Sub(latest) < maxAge {
			continue
		}
		if _, err := s.backupStore(ctx, user.Name, user.ID, domain.BackupTriggerAuto); err != nil {
			errs = append(errs, err)
			continue
		}
		written++
	}
	return written, errors.Join(errs...)
}

// RunBackupScheduler checks for stale backups immediately and then every
// interval until ctx is done. A zero maxAge disables it.
func (s *Service) RunBackupScheduler(ctx context.Context, interval time.Duration, maxAge time.Duration) error {
	if maxAge <= 0 {
		s.log.Info().Msg("auto backup disabled")
		return nil
	}
	if interval <= 0 {
		interval = time.Hour
	}

	run := func() {
		written, err := s.RunAutoBackups(ctx, maxAge)
		if err != nil && ctx.Err() == nil {
			s.log.Warn().Err(err).Int("written", written).Msg("auto backup run failed")
			return
		}
		if written > 0 {
			s.log.Info().Int("written", written).Msg("auto backup run finished")
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			run()
		}
	}
}
