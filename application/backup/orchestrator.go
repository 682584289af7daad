package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"notevault/application/storage"
	"notevault/domain/config"
	"notevault/domain/core/entities"
	pkgerrors "notevault/pkg/errors"

	"notevault/infrastructure/persistence/abstractions"

	"go.uber.org/zap"
)

// Orchestrator moves full vault snapshots between the local repository and
// the external object store. Every operation fast-fails with a platform
// error when the store is absent, so callers can distinguish "no backup
// support here" from a real failure.
//
// The index at backup_list is maintained with plain read-modify-write; the
// object store offers no cross-key transaction, so a crash between writing
// an artifact and updating the index can leave an unindexed artifact. The
// list path tolerates that, and the auditor reports the inverse case of an
// index entry without its artifact.
type Orchestrator struct {
	repo   *storage.Repository
	store  abstractions.ObjectStore
	cfg    *config.DomainConfig
	device DeviceInfo
	logger *zap.Logger
}

// NewOrchestrator creates a backup orchestrator
func NewOrchestrator(repo *storage.Repository, store abstractions.ObjectStore, cfg *config.DomainConfig, device DeviceInfo, logger *zap.Logger) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Orchestrator{
		repo:   repo,
		store:  store,
		cfg:    cfg,
		device: device,
		logger: logger,
	}
}

// CreateBackup snapshots the whole vault into a new artifact and registers
// it in the index
func (o *Orchestrator) CreateBackup(ctx context.Context, source BackupSource) (*BackupInfo, error) {
	if err := o.requireStore(); err != nil {
		return nil, err
	}
	if !ValidSource(source) {
		source = SourceManual
	}

	notes, outcome, err := o.repo.GetNotes(ctx)
	if err != nil {
		return nil, err
	}
	if outcome == storage.ReadUnrecoverable {
		return nil, unrecoverableCollection("notes")
	}
	categories, outcome, err := o.repo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	if outcome == storage.ReadUnrecoverable {
		return nil, unrecoverableCollection("categories")
	}
	settings, outcome, err := o.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if outcome == storage.ReadUnrecoverable {
		return nil, unrecoverableCollection("settings")
	}

	now := time.Now()
	id := NewBackupID(now)
	artifact := &BackupArtifact{
		Metadata: BackupMetadata{
			Version:    o.cfg.BackupVersion,
			CreatedAt:  now.Format(time.RFC3339),
			DeviceInfo: o.device,
			DataSummary: DataSummary{
				NotesCount:      len(notes),
				CategoriesCount: len(categories),
				HasSettings:     settings != nil,
				TotalSize:       payloadSize(notes, categories, settings),
			},
		},
		Notes:      notes,
		Categories: categories,
		Settings:   settings,
	}

	raw, err := json.Marshal(artifact)
	if err != nil {
		return nil, pkgerrors.NewStorageError("encode backup", err)
	}

	if err := o.store.SetItem(ctx, id, string(raw)); err != nil {
		return nil, pkgerrors.NewStorageError("store backup "+id, err)
	}

	info := BackupInfo{
		ID:              id,
		CreatedAt:       artifact.Metadata.CreatedAt,
		Source:          source,
		Size:            len(raw),
		NotesCount:      len(notes),
		CategoriesCount: len(categories),
	}
	if err := o.appendToIndex(ctx, info); err != nil {
		// The artifact exists but is unindexed; the next list call will
		// simply not show it. Surface the failure to the caller.
		return nil, err
	}

	if err := o.pruneOldBackups(ctx); err != nil {
		o.logger.Warn("Failed to prune old backups", zap.Error(err))
	}

	o.logger.Info("Backup created",
		zap.String("id", info.ID),
		zap.String("source", string(info.Source)),
		zap.Int("notes", info.NotesCount),
		zap.Int("categories", info.CategoriesCount),
	)
	return &info, nil
}

// GetAvailableBackups lists the indexed backups newest first, silently
// skipping index entries whose artifact has gone missing
func (o *Orchestrator) GetAvailableBackups(ctx context.Context) ([]BackupInfo, error) {
	if err := o.requireStore(); err != nil {
		return nil, err
	}

	index, err := o.readIndex(ctx)
	if err != nil {
		return nil, err
	}

	available := make([]BackupInfo, 0, len(index))
	for _, entry := range index {
		_, found, err := o.store.GetItem(ctx, entry.ID)
		if err != nil {
			return nil, pkgerrors.NewStorageError("check backup "+entry.ID, err)
		}
		if !found {
			o.logger.Warn("Skipping index entry with missing artifact", zap.String("id", entry.ID))
			continue
		}
		available = append(available, entry)
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].CreatedAt > available[j].CreatedAt
	})
	return available, nil
}

// RestoreFromBackup replaces the whole vault with the artifact's content.
// The artifact is fully validated before any local data is touched; a
// damaged backup leaves the vault exactly as it was. The content is then
// replayed record by record through the repository, so every restored
// record passes the same checks as an ordinary write.
func (o *Orchestrator) RestoreFromBackup(ctx context.Context, backupID string) (*DataSummary, error) {
	if err := o.requireStore(); err != nil {
		return nil, err
	}

	raw, found, err := o.store.GetItem(ctx, backupID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("fetch backup "+backupID, err)
	}
	if !found {
		return nil, pkgerrors.NewNotFoundError("backup " + backupID)
	}

	artifact, err := ParseArtifact([]byte(raw))
	if err != nil {
		return nil, err
	}

	if err := o.repo.ClearAllData(ctx); err != nil {
		return nil, err
	}
	for i := range artifact.Categories {
		if err := o.repo.AddCategory(ctx, &artifact.Categories[i]); err != nil {
			return nil, err
		}
	}
	for i := range artifact.Notes {
		if err := o.repo.AddNote(ctx, &artifact.Notes[i]); err != nil {
			return nil, err
		}
	}
	if err := o.repo.StoreSettings(ctx, artifact.Settings); err != nil {
		return nil, err
	}

	summary := artifact.Metadata.DataSummary
	o.logger.Info("Vault restored from backup",
		zap.String("id", backupID),
		zap.Int("notes", len(artifact.Notes)),
		zap.Int("categories", len(artifact.Categories)),
	)
	return &summary, nil
}

// DeleteBackup removes an artifact and its index entry
func (o *Orchestrator) DeleteBackup(ctx context.Context, backupID string) error {
	if err := o.requireStore(); err != nil {
		return err
	}

	if err := o.store.RemoveItem(ctx, backupID); err != nil {
		return pkgerrors.NewStorageError("delete backup "+backupID, err)
	}

	index, err := o.readIndex(ctx)
	if err != nil {
		return err
	}
	kept := index[:0]
	for _, entry := range index {
		if entry.ID != backupID {
			kept = append(kept, entry)
		}
	}
	return o.writeIndex(ctx, kept)
}

// unrecoverableCollection rejects a backup over a collection that only
// reads back as its empty default; snapshotting it would freeze the data
// loss into an apparently good backup
func unrecoverableCollection(name string) error {
	return pkgerrors.NewStorageError("create backup",
		fmt.Errorf("the %s collection is unrecoverable and would be backed up empty", name))
}

// payloadSize approximates the byte size of the vault content as the sum of
// the serialized collection lengths
func payloadSize(notes []entities.Note, categories []entities.Category, settings *entities.AppSettings) int {
	size := 0
	for _, chunk := range []interface{}{notes, categories, settings} {
		if raw, err := json.Marshal(chunk); err == nil {
			size += len(raw)
		}
	}
	return size
}

func (o *Orchestrator) requireStore() error {
	if o.store == nil || !o.store.Available() {
		return pkgerrors.NewPlatformUnavailableError("backup store")
	}
	return nil
}

func (o *Orchestrator) readIndex(ctx context.Context) ([]BackupInfo, error) {
	raw, found, err := o.store.GetItem(ctx, IndexKey)
	if err != nil {
		return nil, pkgerrors.NewStorageError("read backup index", err)
	}
	if !found {
		return nil, nil
	}

	var index []BackupInfo
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		o.logger.Warn("Backup index is damaged, starting a fresh one", zap.Error(err))
		return nil, nil
	}
	return index, nil
}

func (o *Orchestrator) writeIndex(ctx context.Context, index []BackupInfo) error {
	raw, err := json.Marshal(index)
	if err != nil {
		return pkgerrors.NewStorageError("encode backup index", err)
	}
	if err := o.store.SetItem(ctx, IndexKey, string(raw)); err != nil {
		return pkgerrors.NewStorageError("write backup index", err)
	}
	return nil
}

func (o *Orchestrator) appendToIndex(ctx context.Context, info BackupInfo) error {
	index, err := o.readIndex(ctx)
	if err != nil {
		return err
	}
	return o.writeIndex(ctx, append(index, info))
}

// pruneOldBackups deletes the oldest artifacts beyond the retention count
func (o *Orchestrator) pruneOldBackups(ctx context.Context) error {
	index, err := o.readIndex(ctx)
	if err != nil {
		return err
	}
	if len(index) <= o.cfg.MaxBackupsKept {
		return nil
	}

	sort.Slice(index, func(i, j int) bool {
		return index[i].CreatedAt > index[j].CreatedAt
	})

	for _, entry := range index[o.cfg.MaxBackupsKept:] {
		if err := o.store.RemoveItem(ctx, entry.ID); err != nil {
			return pkgerrors.NewStorageError("delete backup "+entry.ID, err)
		}
		o.logger.Info("Pruned old backup", zap.String("id", entry.ID))
	}
	return o.writeIndex(ctx, index[:o.cfg.MaxBackupsKept])
}
