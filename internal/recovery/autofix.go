package recovery

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/tiendc/go-deepcopy"

	"github.com/ppiankov/qualigate/internal/logger"
	"github.com/ppiankov/qualigate/internal/model"
)

// Fix names reported in AutoFixResult.FixesApplied
const (
	FixDriversMinimum = "drivers_mentais_minimum"
	FixProofsMinimum  = "provas_visuais_minimum"
	FixCialdiniBasic  = "cialdini_triggers_basic"
	FixMetadataAdded  = "metadata_added"
)

const (
	minFixedDrivers = 3
	minFixedProofs  = 2
)

var defaultCialdini = map[string]any{
	"reciprocidade": 2,
	"autoridade":    3,
	"prova_social":  4,
	"escassez":      1,
	"compromisso":   2,
	"afinidade":     3,
}

// AutoFixer repairs the structural gaps generators leave most often.
// It only works on copies and is safe for concurrent use.
type AutoFixer struct {
	log  *logger.Logger
	now  func() time.Time
	copy func(model.Record) (model.Record, error)
}

// AutoFixOption configures an AutoFixer
type AutoFixOption func(*AutoFixer)

// WithFixLogger sets the logger
func WithFixLogger(log *logger.Logger) AutoFixOption {
	return func(f *AutoFixer) { f.log = log }
}

// WithFixClock overrides the fixed_at timestamp source
func WithFixClock(now func() time.Time) AutoFixOption {
	return func(f *AutoFixer) { f.now = now }
}

// NewAutoFixer creates an AutoFixer
func NewAutoFixer(opts ...AutoFixOption) *AutoFixer {
	f := &AutoFixer{
		log:  logger.Nop(),
		now:  time.Now,
		copy: deepCopy,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func deepCopy(rec model.Record) (model.Record, error) {
	var dst model.Record
	if err := deepcopy.Copy(&dst, rec); err != nil {
		return nil, fmt.Errorf("copy record: %w", err)
	}
	if dst == nil {
		dst = model.Record{}
	}
	return dst, nil
}

// Fix applies the structural repairs to a copy of rec. The input is never
// modified; on failure the result carries the original record.
func (f *AutoFixer) Fix(rec model.Record) (result *model.AutoFixResult) {
	defer func() {
		if r := recover(); r != nil {
			result = f.failed(rec, fmt.Errorf("%v", r))
		}
	}()

	fixed, err := f.copy(rec)
	if err != nil {
		return f.failed(rec, err)
	}

	fixes := []string{}
	for _, step := range []struct {
		name string
		fn   func(model.Record) (bool, error)
	}{
		{FixDriversMinimum, padDrivers},
		{FixProofsMinimum, padProofs},
		{FixCialdiniBasic, fillCialdini},
	} {
		applied, err := step.fn(fixed)
		if err != nil {
			return f.failed(rec, err)
		}
		if applied {
			fixes = append(fixes, step.name)
		}
	}

	if _, ok := fixed[model.CategoryMetadata]; !ok {
		fixes = append(fixes, FixMetadataAdded)
		fixed[model.CategoryMetadata] = map[string]any{
			"auto_fixed":        true,
			"fixes_applied":     append([]string(nil), fixes...),
			"fixed_at":          f.now().UTC().Format(time.RFC3339),
			"quality_score":     75.0,
			"validation_status": "auto_fixed",
		}
	}

	f.log.Info("auto-fix applied", "fixes", len(fixes))
	return &model.AutoFixResult{
		AutoFixSuccessful: true,
		FixesApplied:      fixes,
		FixedData:         fixed,
		OriginalIssues:    len(fixes),
		Recommendation:    "Data fixed automatically; basic quality is guaranteed",
	}
}

func (f *AutoFixer) failed(rec model.Record, err error) *model.AutoFixResult {
	f.log.Error("auto-fix failed", "error", err)
	return &model.AutoFixResult{
		AutoFixSuccessful: false,
		FixesApplied:      []string{},
		OriginalData:      rec,
		Error:             err.Error(),
		Recommendation:    "Auto-fix failed; use the original data",
	}
}

// padDrivers fills drivers_customizados up to the minimum
func padDrivers(rec model.Record) (bool, error) {
	section, ok := model.AsMap(rec.Get(model.CategoryCustomDrivers))
	if !ok {
		return false, nil
	}
	raw, present := section["drivers_customizados"]
	if !present {
		return false, nil
	}
	drivers, ok := model.AsList(raw)
	if !ok {
		return false, fmt.Errorf("drivers_customizados: expected a list, got %T", raw)
	}
	if len(drivers) >= minFixedDrivers {
		return false, nil
	}

	for len(drivers) < minFixedDrivers {
		drivers = append(drivers, map[string]any{
			"nome":               fmt.Sprintf("Driver Básico %d", len(drivers)+1),
			"gatilho_central":    "Gatilho psicológico",
			"definicao_visceral": "Definição básica",
			"auto_fixed":         true,
		})
	}
	section["drivers_customizados"] = drivers
	rec[model.CategoryCustomDrivers] = section
	return true, nil
}

// padProofs fills arsenal_provis_completo up to the minimum, creating it when absent
func padProofs(rec model.Record) (bool, error) {
	section, ok := model.AsMap(rec.Get(model.CategoryProofArsenal))
	if !ok {
		return false, nil
	}
	var proofs []any
	if raw, present := section["arsenal_provis_completo"]; present && raw != nil {
		if proofs, ok = model.AsList(raw); !ok {
			return false, fmt.Errorf("arsenal_provis_completo: expected a list, got %T", raw)
		}
	}
	if len(proofs) >= minFixedProofs {
		return false, nil
	}

	for len(proofs) < minFixedProofs {
		proofs = append(proofs, map[string]any{
			"nome":                  fmt.Sprintf("PROVI %d: Prova Básica", len(proofs)+1),
			"conceito_alvo":         "Conceito fundamental",
			"experimento_escolhido": "Demonstração visual básica",
			"auto_fixed":            true,
		})
	}
	section["arsenal_provis_completo"] = proofs
	rec[model.CategoryProofArsenal] = section
	return true, nil
}

// fillCialdini writes the default trigger distribution when every counter is zero
func fillCialdini(rec model.Record) (bool, error) {
	metrics, ok := model.AsMap(rec.Get(model.CategoryForensicDetail))
	if !ok {
		return false, nil
	}

	density, ok := model.AsMap(metrics["densidade_persuasiva"])
	if !ok {
		if v := metrics["densidade_persuasiva"]; v != nil {
			return false, fmt.Errorf("densidade_persuasiva: expected a mapping, got %T", v)
		}
		density = map[string]any{}
	}

	cialdini, ok := model.AsMap(density["gatilhos_cialdini"])
	if !ok {
		if v := density["gatilhos_cialdini"]; v != nil {
			return false, fmt.Errorf("gatilhos_cialdini: expected a mapping, got %T", v)
		}
		cialdini = map[string]any{}
	}

	for _, count := range cialdini {
		if n, err := cast.ToFloat64E(count); err != nil || n != 0 {
			return false, nil
		}
	}

	for k, v := range defaultCialdini {
		cialdini[k] = v
	}
	density["gatilhos_cialdini"] = cialdini
	metrics["densidade_persuasiva"] = density
	rec[model.CategoryForensicDetail] = metrics
	return true, nil
}
