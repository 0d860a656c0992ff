package recovery

import (
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/qualigate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brokenRecord() model.Record {
	return model.Record{
		model.CategoryCustomDrivers: map[string]any{
			"drivers_customizados": []any{
				map[string]any{"nome": "Urgência"},
			},
		},
		model.CategoryProofArsenal: map[string]any{},
		model.CategoryForensicDetail: map[string]any{
			"densidade_persuasiva": map[string]any{
				"gatilhos_cialdini": map[string]any{"reciprocidade": 0.0, "autoridade": 0},
			},
		},
	}
}

func newTestFixer() *AutoFixer {
	return NewAutoFixer(WithFixClock(func() time.Time { return fixedNow }))
}

func TestAutoFix_AppliesAllFixes(t *testing.T) {
	rec := brokenRecord()

	res := newTestFixer().Fix(rec)

	require.True(t, res.AutoFixSuccessful)
	assert.Equal(t, []string{FixDriversMinimum, FixProofsMinimum, FixCialdiniBasic, FixMetadataAdded}, res.FixesApplied)
	assert.Equal(t, 4, res.OriginalIssues)

	drivers, ok := model.AsList(res.FixedData.Section(model.CategoryCustomDrivers)["drivers_customizados"])
	require.True(t, ok)
	require.Len(t, drivers, 3)
	assert.Equal(t, "Urgência", drivers[0].(map[string]any)["nome"])
	assert.Equal(t, "Driver Básico 3", drivers[2].(map[string]any)["nome"])
	assert.Equal(t, true, drivers[2].(map[string]any)["auto_fixed"])

	proofs, ok := model.AsList(res.FixedData.Section(model.CategoryProofArsenal)["arsenal_provis_completo"])
	require.True(t, ok)
	require.Len(t, proofs, 2)
	assert.Equal(t, "PROVI 1: Prova Básica", proofs[0].(map[string]any)["nome"])

	density := res.FixedData.Section(model.CategoryForensicDetail)["densidade_persuasiva"].(map[string]any)
	cialdini := density["gatilhos_cialdini"].(map[string]any)
	assert.Equal(t, 4, cialdini["prova_social"])
	assert.Equal(t, 2, cialdini["reciprocidade"])
	assert.Len(t, cialdini, 6)

	meta := res.FixedData.Section(model.CategoryMetadata)
	assert.Equal(t, 75.0, meta["quality_score"])
	assert.Equal(t, "auto_fixed", meta["validation_status"])
	assert.Equal(t, "2026-03-01T12:00:00Z", meta["fixed_at"])
	assert.Equal(t, res.FixesApplied, meta["fixes_applied"])
	assert.Equal(t, res.FixedData, res.Data())
}

func TestAutoFix_DoesNotModifyInput(t *testing.T) {
	rec := brokenRecord()

	newTestFixer().Fix(rec)

	assert.Equal(t, brokenRecord(), rec)
}

func TestAutoFix_StableOnSecondPass(t *testing.T) {
	f := newTestFixer()
	first := f.Fix(brokenRecord())
	require.True(t, first.AutoFixSuccessful)

	second := f.Fix(first.FixedData)

	require.True(t, second.AutoFixSuccessful)
	assert.Empty(t, second.FixesApplied)
	assert.Zero(t, second.OriginalIssues)
	assert.Equal(t, first.FixedData, second.FixedData)
}

func TestAutoFix_LeavesHealthyDataAlone(t *testing.T) {
	rec := model.Record{
		model.CategoryForensicDetail: map[string]any{
			"densidade_persuasiva": map[string]any{
				"gatilhos_cialdini": map[string]any{"reciprocidade": 0, "autoridade": 1},
			},
		},
		model.CategoryMetadata: map[string]any{"source": "generator"},
	}

	res := newTestFixer().Fix(rec)

	require.True(t, res.AutoFixSuccessful)
	assert.Empty(t, res.FixesApplied)
	assert.Equal(t, rec, res.FixedData)
}

func TestAutoFix_EmptyRecord(t *testing.T) {
	res := newTestFixer().Fix(model.Record{})

	require.True(t, res.AutoFixSuccessful)
	assert.Equal(t, []string{FixMetadataAdded}, res.FixesApplied)
	assert.Contains(t, res.FixedData, model.CategoryMetadata)
}

func TestAutoFix_Failure(t *testing.T) {
	tests := []struct {
		name    string
		rec     model.Record
		copier  func(model.Record) (model.Record, error)
		wantErr string
	}{
		{
			name: "drivers not a list",
			rec: model.Record{
				model.CategoryCustomDrivers: map[string]any{"drivers_customizados": 42},
			},
			wantErr: "drivers_customizados: expected a list, got int",
		},
		{
			name: "cialdini not a mapping",
			rec: model.Record{
				model.CategoryForensicDetail: map[string]any{
					"densidade_persuasiva": map[string]any{"gatilhos_cialdini": "muitos"},
				},
			},
			wantErr: "gatilhos_cialdini: expected a mapping, got string",
		},
		{
			name:    "copy error",
			rec:     model.Record{"a": 1},
			copier:  func(model.Record) (model.Record, error) { return nil, errors.New("copy record: unsupported") },
			wantErr: "copy record: unsupported",
		},
		{
			name:    "copy panic",
			rec:     model.Record{"a": 1},
			copier:  func(model.Record) (model.Record, error) { panic("boom") },
			wantErr: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFixer()
			if tt.copier != nil {
				f.copy = tt.copier
			}

			res := f.Fix(tt.rec)

			assert.False(t, res.AutoFixSuccessful)
			assert.Equal(t, tt.wantErr, res.Error)
			assert.Equal(t, tt.rec, res.OriginalData)
			assert.Equal(t, tt.rec, res.Data())
			assert.Empty(t, res.FixesApplied)
		})
	}
}
