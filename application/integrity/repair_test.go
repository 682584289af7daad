package integrity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"notevault/application/storage"
	"notevault/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (v *testVault) repairer() *Repairer {
	return NewRepairer(v.repo, v.cfg, zap.NewNop())
}

func TestRepairHealthyVaultDoesNothing(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	note, err := entities.NewNote("fine as is", entities.NoteTypeText, vault.cfg.DefaultCategoryID, vault.cfg)
	require.NoError(t, err)
	require.NoError(t, vault.repo.AddNote(ctx, note))

	result := vault.repairer().Repair(ctx)
	assert.Zero(t, result.Repaired)
	assert.Empty(t, result.Actions)
	assert.Empty(t, result.Errors)
}

func TestRepairRecreatesDefaultCategory(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	other, err := entities.NewCategory("Work", "#FF0000")
	require.NoError(t, err)
	require.NoError(t, vault.repo.Shadows().Write(ctx, storage.KeyCategories, []entities.Category{*other}))

	result := vault.repairer().Repair(ctx)
	assert.Contains(t, result.Actions, "recreated the default category")
	assert.Equal(t, 1, result.Repaired)
	assert.Empty(t, result.Errors)

	categories, _, err := vault.repo.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	report := vault.auditor().Audit(ctx)
	assert.Empty(t, issuesOfType(report, IssueMissingDefaultCategory))
}

func TestRepairFixesDamagedNotes(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	damaged := `[
		{"id":"n1","content":"orphan","type":"text","categoryId":"gone","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"},
		{"id":"n1","content":"duplicate","type":"text","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"},
		{"id":"n2","content":"no label or timestamps","type":"gif"}
	]`
	vault.store.Corrupt(storage.KeyNotes, damaged)

	result := vault.repairer().Repair(ctx)
	assert.Empty(t, result.Errors)
	assert.Positive(t, result.Repaired)

	notes, _, err := vault.repo.GetNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	byID := make(map[string]entities.Note, len(notes))
	for _, note := range notes {
		byID[note.ID] = note
	}

	assert.Equal(t, vault.cfg.DefaultCategoryID, byID["n1"].CategoryID)
	assert.Equal(t, "orphan", byID["n1"].Content)

	assert.Equal(t, entities.NoteTypeText, byID["n2"].Type)
	assert.Equal(t, "no label or timestamps", byID["n2"].Label)
	assert.NotEmpty(t, byID["n2"].CreatedAt)
	assert.Equal(t, byID["n2"].CreatedAt, byID["n2"].UpdatedAt)

	report := vault.auditor().Audit(ctx)
	assert.True(t, report.IsHealthy())
}

func TestRepairResetsOutOfRangeSettings(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	vault.store.Corrupt(storage.KeySettings, `{"defaultCategoryId":"","audioQuality":"ultra","themeMode":"dark"}`)

	result := vault.repairer().Repair(ctx)
	assert.Contains(t, result.Actions, "reset settings to valid values")
	assert.Empty(t, result.Errors)

	var stored entities.AppSettings
	found, err := vault.repo.Shadows().Adapter().Get(ctx, storage.KeySettings, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, vault.cfg.DefaultCategoryID, stored.DefaultCategoryID)
	assert.Equal(t, entities.AudioQualityMedium, stored.AudioQuality)
	assert.Equal(t, entities.ThemeModeDark, stored.ThemeMode)
}

func TestRepairRepointsDanglingSettingsDefault(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	vault.store.Corrupt(storage.KeySettings, `{"defaultCategoryId":"ghost","audioQuality":"medium","themeMode":"system"}`)

	result := vault.repairer().Repair(ctx)
	assert.Contains(t, result.Actions, "reset settings to valid values")
	assert.Empty(t, result.Errors)

	var stored entities.AppSettings
	found, err := vault.repo.Shadows().Adapter().Get(ctx, storage.KeySettings, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, vault.cfg.DefaultCategoryID, stored.DefaultCategoryID)

	report := vault.auditor().Audit(ctx)
	assert.Empty(t, issuesOfType(report, IssueOrphanReference))
}

func TestRepairResetsUnrecoverableSettings(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	vault.store.Corrupt(storage.KeySettings, `{{not json`)

	result := vault.repairer().Repair(ctx)
	assert.Contains(t, result.Actions, "reset unrecoverable settings to defaults")

	settings, outcome, err := vault.repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.ReadLoaded, outcome)
	assert.Equal(t, entities.AudioQualityMedium, settings.AudioQuality)
}

func TestRepairRecoversCorruptPrimariesThroughShadows(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	note, err := entities.NewNote("shadowed", entities.NoteTypeText, "", vault.cfg)
	require.NoError(t, err)
	require.NoError(t, vault.repo.AddNote(ctx, note))
	require.NoError(t, vault.repo.AddNote(ctx, mustRepairNote(t, vault)))

	vault.store.Corrupt(storage.KeyNotes, `broken`)

	result := vault.repairer().Repair(ctx)
	assert.Contains(t, result.Actions, "recovered notes from a shadow snapshot")

	_, outcome, err := vault.repo.GetNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.ReadLoaded, outcome)
}

func TestRepairPrunesExcessShadows(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	// Seed shadows beyond the retention cap behind the writer's back
	base := time.Now().Add(-time.Hour)
	for i := 0; i < vault.cfg.RepairShadowRetention+5; i++ {
		key := storage.ShadowKey(storage.KeyNotes, base.Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, vault.store.SetItem(ctx, key, `[]`))
	}

	result := vault.repairer().Repair(ctx)
	assert.Contains(t, result.Actions,
		fmt.Sprintf("pruned 5 shadow snapshot(s) of %s", storage.KeyNotes))
	assert.GreaterOrEqual(t, result.Repaired, 5)

	shadows, err := vault.repo.Shadows().Shadows(ctx, storage.KeyNotes)
	require.NoError(t, err)
	assert.Len(t, shadows, vault.cfg.RepairShadowRetention)
}

func TestRepairIsIdempotent(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	vault.store.Corrupt(storage.KeyNotes, `[
		{"id":"n1","content":"orphan","type":"text","categoryId":"gone","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}
	]`)
	vault.store.Corrupt(storage.KeySettings, `{"defaultCategoryId":"general","audioQuality":"ultra","themeMode":"system"}`)

	first := vault.repairer().Repair(ctx)
	assert.Positive(t, first.Repaired)
	assert.Empty(t, first.Errors)

	second := vault.repairer().Repair(ctx)
	assert.Zero(t, second.Repaired)
	assert.Empty(t, second.Actions)
	assert.Empty(t, second.Errors)
}

func TestRepairCollectsErrorsInsteadOfAborting(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t)

	vault.store.FailGets(assert.AnError)

	result := vault.repairer().Repair(ctx)
	assert.NotEmpty(t, result.Errors)
}

func mustRepairNote(t *testing.T, vault *testVault) *entities.Note {
	t.Helper()
	note, err := entities.NewNote("filler", entities.NoteTypeText, "", vault.cfg)
	require.NoError(t, err)
	return note
}
