package model

import (
	"fmt"
	"time"
)

// ComponentValidation is the verdict for one analysis category
type ComponentValidation struct {
	Valid          bool               `json:"valid"`           // score passed and no critical issues
	Score          float64            `json:"score"`           // 0-100
	CriticalIssues []string           `json:"critical_issues"` // Block the pass verdict
	Warnings       []string           `json:"warnings"`        // Informational only
	Metrics        map[string]float64 `json:"metrics"`         // Raw counts and sub-scores
	Formula        string             `json:"formula,omitempty"`
}

// NewComponentValidation returns an empty, failing verdict
func NewComponentValidation() ComponentValidation {
	return ComponentValidation{
		CriticalIssues: []string{},
		Warnings:       []string{},
		Metrics:        map[string]float64{},
	}
}

// Critical appends a critical issue
func (c *ComponentValidation) Critical(format string, args ...any) {
	c.CriticalIssues = append(c.CriticalIssues, sprintf(format, args...))
}

// Warn appends a warning
func (c *ComponentValidation) Warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, sprintf(format, args...))
}

// NamedValidation keeps component order stable in reports
type NamedValidation struct {
	Component string `json:"component"`
	ComponentValidation
}

// ValidationResult is the aggregate verdict for a full analysis record
type ValidationResult struct {
	OverallValid         bool              `json:"overall_valid"`
	QualityScore         float64           `json:"quality_score"`
	Components           []NamedValidation `json:"component_validations"`
	CriticalIssues       []string          `json:"critical_issues"`
	Warnings             []string          `json:"warnings"`
	Recommendations      []string          `json:"recommendations"`
	ScientificCompliance bool              `json:"scientific_compliance"`
	ValidatedAt          time.Time         `json:"validated_at"`

	Sources *SourceValidation `json:"sources,omitempty"` // Set when source validation was requested
}

// Component looks up a component verdict by name
func (v *ValidationResult) Component(name string) (ComponentValidation, bool) {
	for _, c := range v.Components {
		if c.Component == name {
			return c.ComponentValidation, true
		}
	}
	return ComponentValidation{}, false
}

// SourceQuality buckets the share of trusted sources
type SourceQuality string

const (
	SourceQualityExcellent SourceQuality = "excellent"
	SourceQualityGood      SourceQuality = "good"
	SourceQualityFair      SourceQuality = "fair"
	SourceQualityPoor      SourceQuality = "poor"
	SourceQualityUnknown   SourceQuality = "unknown"
)

// SourceValidation describes where the research data came from
type SourceValidation struct {
	RealDataPercentage float64       `json:"real_data_percentage"`
	VerifiedSources    int           `json:"verified_sources"`
	TotalSources       int           `json:"total_sources"`
	SourceQuality      SourceQuality `json:"source_quality"`
	HasFallbackContent bool          `json:"has_fallback_content"`

	Domains           []string `json:"domains,omitempty"`            // Distinct registrable domains seen
	UnverifiedDomains []string `json:"unverified_domains,omitempty"` // Domains outside the trusted list
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
