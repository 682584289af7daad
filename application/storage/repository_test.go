package storage

import (
	"context"
	"testing"

	"notevault/domain/config"
	"notevault/domain/core/entities"
	pkgerrors "notevault/pkg/errors"
	"notevault/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepository(t *testing.T) (*Repository, *memory.Store) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	store := memory.NewStore()
	adapter := NewAdapter(store, zap.NewNop())
	shadows := NewShadowWriter(adapter, cfg.MaxShadowsPerKey, zap.NewNop())
	return NewRepository(shadows, cfg, zap.NewNop()), store
}

func newInitializedRepository(t *testing.T) (*Repository, *memory.Store) {
	t.Helper()
	repo, store := newTestRepository(t)
	require.NoError(t, repo.InitializeStorage(context.Background()))
	return repo, store
}

func TestInitializeStorageSeedsTheVault(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.InitializeStorage(ctx))

	categories, outcome, err := repo.GetCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadLoaded, outcome)
	require.Len(t, categories, 1)
	assert.Equal(t, repo.Config().DefaultCategoryID, categories[0].ID)

	notes, outcome, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadLoaded, outcome)
	assert.Empty(t, notes)

	settings, outcome, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadLoaded, outcome)
	assert.Equal(t, repo.Config().DefaultCategoryID, settings.DefaultCategoryID)
	assert.Equal(t, entities.AudioQualityMedium, settings.AudioQuality)
	assert.Equal(t, entities.ThemeModeSystem, settings.ThemeMode)
}

func TestInitializeStorageIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	note, err := entities.NewNote("keep me", entities.NoteTypeText, "", repo.Config())
	require.NoError(t, err)
	require.NoError(t, repo.AddNote(ctx, note))

	require.NoError(t, repo.InitializeStorage(ctx))
	require.NoError(t, repo.InitializeStorage(ctx))

	categories, _, err := repo.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	notes, _, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, note.ID, notes[0].ID)
}

func TestInitializeStorageRestoresMissingDefaultCategory(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	other, err := entities.NewCategory("Work", "#FF0000")
	require.NoError(t, err)
	require.NoError(t, repo.AddCategory(ctx, other))

	// Drop the default behind the repository's back
	require.NoError(t, repo.Shadows().Write(ctx, KeyCategories, []entities.Category{*other}))

	require.NoError(t, repo.InitializeStorage(ctx))

	categories, _, err := repo.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	ids := []string{categories[0].ID, categories[1].ID}
	assert.Contains(t, ids, repo.Config().DefaultCategoryID)
	assert.Contains(t, ids, other.ID)
}

func TestInitializeStorageMigratesLegacyLabels(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	legacy := `[{"id":"n1","content":"an old note without a label","type":"text","createdAt":"2023-01-01T00:00:00Z","updatedAt":"2023-01-01T00:00:00Z"}]`
	require.NoError(t, repo.Shadows().Adapter().SetRaw(ctx, KeyNotes, legacy))

	require.NoError(t, repo.InitializeStorage(ctx))

	notes, _, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "an old note without a label", notes[0].Label)
}

func TestAddAndGetNotes(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	note, err := entities.NewNote("hello world", entities.NoteTypeText, repo.Config().DefaultCategoryID, repo.Config())
	require.NoError(t, err)
	require.NoError(t, repo.AddNote(ctx, note))

	notes, outcome, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadLoaded, outcome)
	require.Len(t, notes, 1)
	assert.Equal(t, note.ID, notes[0].ID)
	assert.Equal(t, "hello world", notes[0].Content)
	assert.Equal(t, "hello world", notes[0].Label)
}

func TestAddNoteRejectsUnknownCategory(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	note, err := entities.NewNote("orphan", entities.NoteTypeText, "no-such-category", repo.Config())
	require.NoError(t, err)

	err = repo.AddNote(ctx, note)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsReferentialIntegrity(err))
}

func TestAddNoteRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	note, err := entities.NewNote("first", entities.NoteTypeText, "", repo.Config())
	require.NoError(t, err)
	require.NoError(t, repo.AddNote(ctx, note))

	err = repo.AddNote(ctx, note)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict))
}

func TestUpdateNotePreservesCreationTimestamp(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	note, err := entities.NewNote("original content", entities.NoteTypeText, "", repo.Config())
	require.NoError(t, err)
	require.NoError(t, repo.AddNote(ctx, note))
	createdAt := note.CreatedAt

	updated := *note
	updated.Content = "revised content"
	updated.CreatedAt = "2000-01-01T00:00:00Z"
	require.NoError(t, repo.UpdateNote(ctx, &updated))

	notes, _, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, createdAt, notes[0].CreatedAt)
	assert.Equal(t, "revised content", notes[0].Content)
	assert.Equal(t, "revised content", notes[0].Label)
}

func TestUpdateNoteNotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	ghost := &entities.Note{ID: "ghost", Content: "x", Type: entities.NoteTypeText}
	err := repo.UpdateNote(ctx, ghost)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	note, err := entities.NewNote("doomed", entities.NoteTypeText, "", repo.Config())
	require.NoError(t, err)
	require.NoError(t, repo.AddNote(ctx, note))

	require.NoError(t, repo.DeleteNote(ctx, note.ID))

	notes, _, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)

	err = repo.DeleteNote(ctx, note.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDeleteCategoryIsBlockedForTheDefault(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	err := repo.DeleteCategory(ctx, repo.Config().DefaultCategoryID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsProtectedRecord(err))

	categories, _, err := repo.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestDeleteCategoryIsBlockedWhileNotesReferenceIt(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	work, err := entities.NewCategory("Work", "#FF0000")
	require.NoError(t, err)
	require.NoError(t, repo.AddCategory(ctx, work))

	note, err := entities.NewNote("meeting notes", entities.NoteTypeText, work.ID, repo.Config())
	require.NoError(t, err)
	require.NoError(t, repo.AddNote(ctx, note))

	err = repo.DeleteCategory(ctx, work.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsReferentialIntegrity(err))

	categories, _, err := repo.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)

	// Once the note is gone the category can be deleted
	require.NoError(t, repo.DeleteNote(ctx, note.ID))
	require.NoError(t, repo.DeleteCategory(ctx, work.ID))

	categories, _, err = repo.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestDeleteCategoryIsBlockedAsSettingsDefault(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	work, err := entities.NewCategory("Work", "#FF0000")
	require.NoError(t, err)
	require.NoError(t, repo.AddCategory(ctx, work))
	require.NoError(t, repo.StoreSettings(ctx, &entities.AppSettings{
		DefaultCategoryID: work.ID,
		AudioQuality:      entities.AudioQualityMedium,
		ThemeMode:         entities.ThemeModeSystem,
	}))

	err = repo.DeleteCategory(ctx, work.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsReferentialIntegrity(err))

	// Pointing the default elsewhere unblocks the delete
	require.NoError(t, repo.StoreSettings(ctx, entities.DefaultSettings(repo.Config())))
	require.NoError(t, repo.DeleteCategory(ctx, work.ID))
}

func TestStoreSettingsValidatesEnums(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	err := repo.StoreSettings(ctx, &entities.AppSettings{
		DefaultCategoryID: repo.Config().DefaultCategoryID,
		AudioQuality:      "ultra",
		ThemeMode:         entities.ThemeModeDark,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	err = repo.StoreSettings(ctx, &entities.AppSettings{
		DefaultCategoryID: repo.Config().DefaultCategoryID,
		AudioQuality:      entities.AudioQualityHigh,
		ThemeMode:         entities.ThemeModeDark,
	})
	require.NoError(t, err)

	settings, _, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.AudioQualityHigh, settings.AudioQuality)
	assert.Equal(t, entities.ThemeModeDark, settings.ThemeMode)
}

func TestGetSettingsNormalizesInMemoryOnly(t *testing.T) {
	ctx := context.Background()
	repo, _ := newInitializedRepository(t)

	// Structurally valid but out of range; only the repair routine may
	// persist the normalized record
	damaged := `{"defaultCategoryId":"general","audioQuality":"ultra","themeMode":"neon"}`
	require.NoError(t, repo.Shadows().Adapter().SetRaw(ctx, KeySettings, damaged))

	settings, outcome, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadLoaded, outcome)
	assert.Equal(t, entities.AudioQualityMedium, settings.AudioQuality)
	assert.Equal(t, entities.ThemeModeSystem, settings.ThemeMode)

	raw, found, err := repo.Shadows().Adapter().GetRaw(ctx, KeySettings)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, damaged, raw)
}

func TestCorruptedPrimaryRecoversFromShadow(t *testing.T) {
	ctx := context.Background()
	repo, store := newInitializedRepository(t)

	first, err := entities.NewNote("survivor", entities.NoteTypeText, "", repo.Config())
	require.NoError(t, err)
	require.NoError(t, repo.AddNote(ctx, first))

	second, err := entities.NewNote("latest", entities.NoteTypeText, "", repo.Config())
	require.NoError(t, err)
	require.NoError(t, repo.AddNote(ctx, second))

	shadows, err := repo.Shadows().Shadows(ctx, KeyNotes)
	require.NoError(t, err)
	require.NotEmpty(t, shadows)
	newestShadow, _, err := repo.Shadows().Adapter().GetRaw(ctx, shadows[0].Key)
	require.NoError(t, err)

	store.Corrupt(KeyNotes, `{"not":"an array"`)

	notes, outcome, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadRecovered, outcome)
	assert.True(t, outcome.Degraded())
	require.Len(t, notes, 1)
	assert.Equal(t, first.ID, notes[0].ID)

	// The shadow is promoted verbatim, never re-serialized
	primary, found, err := repo.Shadows().Adapter().GetRaw(ctx, KeyNotes)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, newestShadow, primary)

	// The vault self-healed; the next read is clean
	_, outcome, err = repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadLoaded, outcome)
}

func TestRecoverySkipsDamagedShadows(t *testing.T) {
	ctx := context.Background()
	repo, store := newInitializedRepository(t)

	note, err := entities.NewNote("oldest good copy", entities.NoteTypeText, "", repo.Config())
	require.NoError(t, err)
	require.NoError(t, repo.AddNote(ctx, note))
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.AddNote(ctx, mustNote(t, repo.Config())))
	}

	shadows, err := repo.Shadows().Shadows(ctx, KeyNotes)
	require.NoError(t, err)
	require.Len(t, shadows, 3)

	// Damage the primary and the newest shadow; recovery must skip the
	// structurally invalid snapshot and settle on the next one
	store.Corrupt(KeyNotes, `broken`)
	store.Corrupt(shadows[0].Key, `[{"id":""}]`)

	notes, outcome, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadRecovered, outcome)
	require.Len(t, notes, 1)
	assert.Equal(t, note.ID, notes[0].ID)
}

func TestUnrecoverablePrimaryYieldsEmptyDefault(t *testing.T) {
	ctx := context.Background()
	repo, store := newInitializedRepository(t)

	store.Corrupt(KeyNotes, `not json at all`)

	notes, outcome, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadUnrecoverable, outcome)
	assert.True(t, outcome.Degraded())
	assert.Empty(t, notes)
}

func TestUnrecoverableSettingsFallBackToDefaults(t *testing.T) {
	ctx := context.Background()
	repo, store := newInitializedRepository(t)

	store.Corrupt(KeySettings, `{{`)

	settings, outcome, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadUnrecoverable, outcome)
	assert.Equal(t, entities.AudioQualityMedium, settings.AudioQuality)
	assert.Equal(t, repo.Config().DefaultCategoryID, settings.DefaultCategoryID)
}

func TestPrimitiveFaultSurfacesAsStorageError(t *testing.T) {
	ctx := context.Background()
	repo, store := newInitializedRepository(t)

	store.FailGets(assert.AnError)

	_, _, err := repo.GetNotes(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsStorage(err))
}

func TestClearAllDataRemovesPrimariesAndShadows(t *testing.T) {
	ctx := context.Background()
	repo, store := newInitializedRepository(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AddNote(ctx, mustNote(t, repo.Config())))
	}
	require.Greater(t, store.Len(), 3)

	require.NoError(t, repo.ClearAllData(ctx))
	assert.Zero(t, store.Len())

	notes, outcome, err := repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReadAbsent, outcome)
	assert.Empty(t, notes)
}

func mustNote(t *testing.T, cfg *config.DomainConfig) *entities.Note {
	t.Helper()
	note, err := entities.NewNote("filler content", entities.NoteTypeText, "", cfg)
	require.NoError(t, err)
	return note
}
