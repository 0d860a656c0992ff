package score

import (
	"fmt"
	"math"
	"time"

	"github.com/ppiankov/qualigate/internal/logger"
	"github.com/ppiankov/qualigate/internal/model"
)

// Validator scores one category. data is the category's sub-record,
// record the full analysis for cross-category checks.
type Validator func(data any, record model.Record) model.ComponentValidation

type component struct {
	name     string
	validate Validator
}

// Engine validates complete analysis records
type Engine struct {
	cfg        model.Config
	log        *logger.Logger
	components []component
	now        func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithValidator appends a validator for an extra category. Extra validators
// run unguarded: a panic drops the category from the weighted score.
func WithValidator(name string, v Validator) Option {
	return func(e *Engine) {
		e.components = append(e.components, component{name: name, validate: v})
	}
}

// WithClock overrides the validation timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine with the five built-in validators
func NewEngine(cfg model.Config, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	r := &rules{cfg: cfg}
	e := &Engine{
		cfg: cfg,
		log: log,
		now: time.Now,
		components: []component{
			{model.CategoryDrivers, guarded("drivers", r.drivers)},
			{model.CategoryProofs, guarded("visual proofs", r.proofs)},
			{model.CategoryAntiObjection, guarded("anti-objection", r.antiObjection)},
			{model.CategoryAvatar, guarded("avatar", r.avatar)},
			{model.CategoryForensics, guarded("forensic metrics", r.forensics)},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Components lists validated categories in evaluation order
func (e *Engine) Components() []string {
	names := make([]string, len(e.components))
	for i, c := range e.components {
		names[i] = c.name
	}
	return names
}

// ValidateCompleteAnalysis runs every validator and aggregates the verdict
func (e *Engine) ValidateCompleteAnalysis(record model.Record) *model.ValidationResult {
	result := &model.ValidationResult{
		Components:      []model.NamedValidation{},
		CriticalIssues:  []string{},
		Warnings:        []string{},
		Recommendations: []string{},
		ValidatedAt:     e.now().UTC(),
	}

	var weighted, weightSum float64
	for _, c := range e.components {
		cv, err := e.run(c, record)
		if err != nil {
			e.log.Error("component validation failed", "component", c.name, "error", err)
			result.CriticalIssues = append(result.CriticalIssues, fmt.Sprintf("validation of %s failed: %v", c.name, err))
			continue
		}

		result.Components = append(result.Components, model.NamedValidation{Component: c.name, ComponentValidation: cv})

		w := e.cfg.Weight(c.name)
		weighted += cv.Score * w
		weightSum += w

		result.CriticalIssues = append(result.CriticalIssues, cv.CriticalIssues...)
		result.Warnings = append(result.Warnings, cv.Warnings...)
	}

	if weightSum > 0 {
		result.QualityScore = clamp(weighted / weightSum)
	}

	result.OverallValid = result.QualityScore >= e.cfg.Thresholds.QualityGate && len(result.CriticalIssues) == 0
	result.ScientificCompliance = scientificCompliance(record)
	result.Recommendations = e.recommendations(result)

	e.log.Info("analysis validated",
		"quality_score", math.Round(result.QualityScore*10)/10,
		"overall_valid", result.OverallValid,
		"critical_issues", len(result.CriticalIssues),
		"warnings", len(result.Warnings))

	return result
}

func (e *Engine) run(c component, record model.Record) (cv model.ComponentValidation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	cv = c.validate(record.Get(c.name), record)
	cv.Score = clamp(cv.Score)
	if len(cv.CriticalIssues) > 0 {
		cv.Valid = false
	}
	return cv, nil
}

// scientificCompliance requires real search results, detailed forensic
// metrics and a quality score in the metadata
func scientificCompliance(record model.Record) bool {
	research := record.Section(model.CategoryWebResearch)
	if len(research) == 0 || !model.Truthy(research["search_results"]) {
		return false
	}
	hasMetrics := model.Truthy(record.Get(model.CategoryForensicDetail))
	hasQuality := model.Truthy(record.Section(model.CategoryMetadata)["quality_score"])
	return hasMetrics && hasQuality
}

func (e *Engine) recommendations(result *model.ValidationResult) []string {
	recs := []string{}

	if result.QualityScore < e.cfg.Thresholds.QualityGate {
		recs = append(recs, "Improve overall analysis quality by configuring more data and AI providers")
	}
	if len(result.CriticalIssues) > 0 {
		recs = append(recs, "Resolve the critical issues before using this analysis")
	}
	if !result.ScientificCompliance {
		recs = append(recs, "Add more scientific sources and quantitative data")
	}
	for _, c := range result.Components {
		if c.Score < e.cfg.Thresholds.RecommendationFloor {
			recs = append(recs, fmt.Sprintf("Improve the quality of component %s", c.Component))
		}
	}

	return recs
}

// guarded turns a panicking validator into a zero-score critical issue.
// The category still counts towards the weighted score.
func guarded(label string, v Validator) Validator {
	return func(data any, record model.Record) (cv model.ComponentValidation) {
		defer func() {
			if r := recover(); r != nil {
				cv = model.NewComponentValidation()
				cv.Critical("%s validation error: %v", label, r)
			}
		}()
		return v(data, record)
	}
}

// ratio returns min(actual/target*100, 100)
func ratio(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(actual/target*100, 100)
}

func clamp(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func average(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
