package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"notevault/application/storage"
	"notevault/domain/config"
	"notevault/domain/core/entities"
	"notevault/infrastructure/persistence/abstractions"
	"notevault/infrastructure/persistence/memory"
	pkgerrors "notevault/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testDevice = DeviceInfo{Platform: "linux", Version: "0.0.0-test", DeviceID: "test-device"}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *storage.Repository, *memory.Store) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	store := memory.NewStore()
	adapter := storage.NewAdapter(store, zap.NewNop())
	shadows := storage.NewShadowWriter(adapter, cfg.MaxShadowsPerKey, zap.NewNop())
	repo := storage.NewRepository(shadows, cfg, zap.NewNop())
	require.NoError(t, repo.InitializeStorage(context.Background()))

	backups := memory.NewStore()
	return NewOrchestrator(repo, backups, cfg, testDevice, zap.NewNop()), repo, backups
}

func seedNotes(t *testing.T, repo *storage.Repository, contents ...string) []*entities.Note {
	t.Helper()
	ctx := context.Background()
	notes := make([]*entities.Note, 0, len(contents))
	for _, content := range contents {
		note, err := entities.NewNote(content, entities.NoteTypeText, repo.Config().DefaultCategoryID, repo.Config())
		require.NoError(t, err)
		require.NoError(t, repo.AddNote(ctx, note))
		notes = append(notes, note)
	}
	return notes
}

func TestCreateBackupStoresArtifactAndIndex(t *testing.T) {
	ctx := context.Background()
	orch, repo, backups := newTestOrchestrator(t)
	seedNotes(t, repo, "first", "second")

	info, err := orch.CreateBackup(ctx, SourceManual)
	require.NoError(t, err)
	assert.Equal(t, SourceManual, info.Source)
	assert.Equal(t, 2, info.NotesCount)
	assert.Equal(t, 1, info.CategoriesCount)
	assert.Positive(t, info.Size)

	raw, found, err := backups.GetItem(ctx, info.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, raw, info.Size)

	listed, err := orch.GetAvailableBackups(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, info.ID, listed[0].ID)
}

func TestBackupArtifactWireShape(t *testing.T) {
	ctx := context.Background()
	orch, repo, backups := newTestOrchestrator(t)
	seedNotes(t, repo, "wire shape check")

	info, err := orch.CreateBackup(ctx, SourceSafety)
	require.NoError(t, err)

	raw, found, err := backups.GetItem(ctx, info.ID)
	require.NoError(t, err)
	require.True(t, found)

	// Released clients parse this document; the shape is a contract
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	for _, field := range []string{"metadata", "notes", "categories", "settings"} {
		require.Contains(t, doc, field)
	}

	var metadata map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["metadata"], &metadata))
	for _, field := range []string{"version", "createdAt", "deviceInfo", "dataSummary"} {
		assert.Contains(t, metadata, field)
	}

	var device DeviceInfo
	require.NoError(t, json.Unmarshal(metadata["deviceInfo"], &device))
	assert.Equal(t, testDevice, device)

	var summary DataSummary
	require.NoError(t, json.Unmarshal(metadata["dataSummary"], &summary))
	assert.Equal(t, 1, summary.NotesCount)
	assert.True(t, summary.HasSettings)
	assert.Positive(t, summary.TotalSize)
}

func TestCreateBackupNormalizesUnknownSource(t *testing.T) {
	ctx := context.Background()
	orch, _, _ := newTestOrchestrator(t)

	info, err := orch.CreateBackup(ctx, "accidental")
	require.NoError(t, err)
	assert.Equal(t, SourceManual, info.Source)
}

func TestGetAvailableBackupsSortsNewestFirstAndSkipsDangling(t *testing.T) {
	ctx := context.Background()
	orch, _, backups := newTestOrchestrator(t)

	older, err := orch.CreateBackup(ctx, SourceManual)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newer, err := orch.CreateBackup(ctx, SourceScheduled)
	require.NoError(t, err)

	// Simulate an artifact lost out from under its index entry
	require.NoError(t, backups.RemoveItem(ctx, older.ID))

	listed, err := orch.GetAvailableBackups(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, newer.ID, listed[0].ID)
}

func TestRestoreFromBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	orch, repo, _ := newTestOrchestrator(t)
	seeded := seedNotes(t, repo, "note one", "note two")
	require.NoError(t, repo.StoreSettings(ctx, &entities.AppSettings{
		DefaultCategoryID: repo.Config().DefaultCategoryID,
		AudioQuality:      entities.AudioQualityHigh,
		ThemeMode:         entities.ThemeModeDark,
	}))

	info, err := orch.CreateBackup(ctx, SourceManual)
	require.NoError(t, err)

	// Mutate the vault after the backup
	require.NoError(t, repo.DeleteNote(ctx, seeded[0].ID))
	seedNotes(t, repo, "post-backup note")

	summary, err := orch.RestoreFromBackup(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NotesCount)

	notes, outcome, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.ReadLoaded, outcome)
	require.Len(t, notes, 2)
	assert.Equal(t, seeded[0].ID, notes[0].ID)
	assert.Equal(t, seeded[1].ID, notes[1].ID)

	settings, _, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.AudioQualityHigh, settings.AudioQuality)
	assert.Equal(t, entities.ThemeModeDark, settings.ThemeMode)
}

func TestRestoreUnknownBackupIsNotFound(t *testing.T) {
	ctx := context.Background()
	orch, _, _ := newTestOrchestrator(t)

	_, err := orch.RestoreFromBackup(ctx, "backup_404")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRestoreDamagedBackupLeavesVaultUntouched(t *testing.T) {
	ctx := context.Background()
	orch, repo, backups := newTestOrchestrator(t)
	seeded := seedNotes(t, repo, "precious data")

	damaged := `{"metadata":{"version":"1.0.0","createdAt":"2024-01-01T00:00:00Z"},"notes":[{"id":"x","content":"y","type":"text","categoryId":"missing"}],"categories":[],"settings":{"defaultCategoryId":"general","audioQuality":"medium","themeMode":"system"}}`
	require.NoError(t, backups.SetItem(ctx, "backup_1", damaged))

	_, err := orch.RestoreFromBackup(ctx, "backup_1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsReferentialIntegrity(err))

	notes, _, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, seeded[0].ID, notes[0].ID)
}

func TestRestoreOutOfEnumSettingsLeavesVaultUntouched(t *testing.T) {
	ctx := context.Background()
	orch, repo, backups := newTestOrchestrator(t)
	seeded := seedNotes(t, repo, "precious data")

	damaged := `{"metadata":{"version":"1.0.0","createdAt":"2024-01-01T00:00:00Z"},"notes":[],"categories":[{"id":"general","name":"General","color":"#6366F1","createdAt":"2024-01-01T00:00:00Z"}],"settings":{"defaultCategoryId":"general","audioQuality":"ultra","themeMode":"system"}}`
	require.NoError(t, backups.SetItem(ctx, "backup_1", damaged))

	_, err := orch.RestoreFromBackup(ctx, "backup_1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	notes, _, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, seeded[0].ID, notes[0].ID)
}

func TestRestoreDuplicateNoteIDsLeavesVaultUntouched(t *testing.T) {
	ctx := context.Background()
	orch, repo, backups := newTestOrchestrator(t)
	seeded := seedNotes(t, repo, "precious data")

	damaged := `{"metadata":{"version":"1.0.0","createdAt":"2024-01-01T00:00:00Z"},"notes":[{"id":"d1","content":"a","label":"a","type":"text","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"},{"id":"d1","content":"b","label":"b","type":"text","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}],"categories":[{"id":"general","name":"General","color":"#6366F1","createdAt":"2024-01-01T00:00:00Z"}],"settings":{"defaultCategoryId":"general","audioQuality":"medium","themeMode":"system"}}`
	require.NoError(t, backups.SetItem(ctx, "backup_1", damaged))

	_, err := orch.RestoreFromBackup(ctx, "backup_1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	notes, _, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, seeded[0].ID, notes[0].ID)

	// The settings record must survive the refused restore as well
	settings, outcome, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.ReadLoaded, outcome)
	assert.Equal(t, repo.Config().DefaultCategoryID, settings.DefaultCategoryID)
}

func TestCreateBackupRefusesUnrecoverableCollections(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	store := memory.NewStore()
	adapter := storage.NewAdapter(store, zap.NewNop())
	shadows := storage.NewShadowWriter(adapter, cfg.MaxShadowsPerKey, zap.NewNop())
	repo := storage.NewRepository(shadows, cfg, zap.NewNop())
	require.NoError(t, repo.InitializeStorage(ctx))

	backups := memory.NewStore()
	orch := NewOrchestrator(repo, backups, cfg, testDevice, zap.NewNop())

	// The initial empty write leaves no shadows, so this damage is terminal
	store.Corrupt(storage.KeyNotes, `broken beyond recovery`)

	_, err := orch.CreateBackup(ctx, SourceManual)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsStorage(err))
	assert.Zero(t, backups.Len())
}

func TestDeleteBackupRemovesArtifactAndIndexEntry(t *testing.T) {
	ctx := context.Background()
	orch, _, backups := newTestOrchestrator(t)

	info, err := orch.CreateBackup(ctx, SourceManual)
	require.NoError(t, err)

	require.NoError(t, orch.DeleteBackup(ctx, info.ID))

	_, found, err := backups.GetItem(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, found)

	listed, err := orch.GetAvailableBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCreateBackupPrunesBeyondRetention(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	cfg.MaxBackupsKept = 2

	store := memory.NewStore()
	adapter := storage.NewAdapter(store, zap.NewNop())
	shadows := storage.NewShadowWriter(adapter, cfg.MaxShadowsPerKey, zap.NewNop())
	repo := storage.NewRepository(shadows, cfg, zap.NewNop())
	require.NoError(t, repo.InitializeStorage(ctx))

	backups := memory.NewStore()
	orch := NewOrchestrator(repo, backups, cfg, testDevice, zap.NewNop())

	var ids []string
	for i := 0; i < 3; i++ {
		info, err := orch.CreateBackup(ctx, SourceScheduled)
		require.NoError(t, err)
		ids = append(ids, info.ID)
		time.Sleep(5 * time.Millisecond)
	}

	_, found, err := backups.GetItem(ctx, ids[0])
	require.NoError(t, err)
	assert.False(t, found)

	listed, err := orch.GetAvailableBackups(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, ids[2], listed[0].ID)
	assert.Equal(t, ids[1], listed[1].ID)
}

func TestDamagedIndexIsToleratedOnRead(t *testing.T) {
	ctx := context.Background()
	orch, _, backups := newTestOrchestrator(t)

	require.NoError(t, backups.SetItem(ctx, IndexKey, `][ not an index`))

	listed, err := orch.GetAvailableBackups(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	// A fresh index is started by the next successful backup
	info, err := orch.CreateBackup(ctx, SourceManual)
	require.NoError(t, err)

	listed, err = orch.GetAvailableBackups(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, info.ID, listed[0].ID)
}

func TestEveryOperationFastFailsWithoutAStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	store := memory.NewStore()
	adapter := storage.NewAdapter(store, zap.NewNop())
	shadows := storage.NewShadowWriter(adapter, cfg.MaxShadowsPerKey, zap.NewNop())
	repo := storage.NewRepository(shadows, cfg, zap.NewNop())
	require.NoError(t, repo.InitializeStorage(ctx))

	orch := NewOrchestrator(repo, abstractions.NewUnavailableObjectStore(""), cfg, testDevice, zap.NewNop())

	_, err := orch.CreateBackup(ctx, SourceManual)
	assert.True(t, pkgerrors.IsPlatformUnavailable(err))

	_, err = orch.GetAvailableBackups(ctx)
	assert.True(t, pkgerrors.IsPlatformUnavailable(err))

	_, err = orch.RestoreFromBackup(ctx, "backup_1")
	assert.True(t, pkgerrors.IsPlatformUnavailable(err))

	err = orch.DeleteBackup(ctx, "backup_1")
	assert.True(t, pkgerrors.IsPlatformUnavailable(err))
}
