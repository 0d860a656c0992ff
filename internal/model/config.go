package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all qualigate configuration
type Config struct {
	Thresholds    Thresholds         `yaml:"thresholds" mapstructure:"thresholds"`
	Weights       map[string]float64 `yaml:"weights" mapstructure:"weights" validate:"dive,gte=0"`
	DefaultWeight float64            `yaml:"default_weight" mapstructure:"default_weight" validate:"gte=0"`
	Sources       SourcesConfig      `yaml:"sources" mapstructure:"sources"`
	Drivers       DriversConfig      `yaml:"drivers" mapstructure:"drivers"`
	Recovery      RecoveryConfig     `yaml:"recovery" mapstructure:"recovery"`
	LLM           LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Audit         AuditConfig        `yaml:"audit" mapstructure:"audit"`
	Cache         CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency   ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting  RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output        OutputConfig       `yaml:"output" mapstructure:"output"`
}

// Thresholds groups every pass/fail and target number used by the validators
type Thresholds struct {
	QualityGate         float64 `yaml:"quality_gate" mapstructure:"quality_gate" validate:"gte=0,lte=100"`                 // overall_valid needs at least this
	RecommendationFloor float64 `yaml:"recommendation_floor" mapstructure:"recommendation_floor" validate:"gte=0,lte=100"` // components below get a recommendation

	Drivers       DriverThresholds        `yaml:"drivers" mapstructure:"drivers"`
	Proofs        ProofThresholds         `yaml:"proofs" mapstructure:"proofs"`
	AntiObjection AntiObjectionThresholds `yaml:"anti_objection" mapstructure:"anti_objection"`
	Avatar        AvatarThresholds        `yaml:"avatar" mapstructure:"avatar"`
	Forensics     ForensicThresholds      `yaml:"forensics" mapstructure:"forensics"`
}

// DriverThresholds for the mental-drivers validator
type DriverThresholds struct {
	Minimum             int     `yaml:"minimum" mapstructure:"minimum" validate:"gte=0"`
	Target              int     `yaml:"target" mapstructure:"target" validate:"gt=0"`
	MinDefinitionLength int     `yaml:"min_definition_length" mapstructure:"min_definition_length" validate:"gte=0"`
	PassScore           float64 `yaml:"pass_score" mapstructure:"pass_score" validate:"gte=0,lte=100"`
}

// ProofThresholds for the visual-proofs validator
type ProofThresholds struct {
	FullQuantity    int     `yaml:"full_quantity" mapstructure:"full_quantity" validate:"gt=0"`
	PartialQuantity int     `yaml:"partial_quantity" mapstructure:"partial_quantity" validate:"gt=0"`
	PartialScore    float64 `yaml:"partial_score" mapstructure:"partial_score" validate:"gte=0,lte=100"`
	PerItemScore    float64 `yaml:"per_item_score" mapstructure:"per_item_score" validate:"gte=0,lte=100"`
	PassScore       float64 `yaml:"pass_score" mapstructure:"pass_score" validate:"gte=0,lte=100"`
}

// AntiObjectionThresholds for the anti-objection validator
type AntiObjectionThresholds struct {
	RequiredUniversal []string `yaml:"required_universal" mapstructure:"required_universal" validate:"min=1"`
	TargetScripts     int      `yaml:"target_scripts" mapstructure:"target_scripts" validate:"gt=0"`
	TargetArsenal     int      `yaml:"target_arsenal" mapstructure:"target_arsenal" validate:"gt=0"`
	MinArsenal        int      `yaml:"min_arsenal" mapstructure:"min_arsenal" validate:"gte=0"`
	PassScore         float64  `yaml:"pass_score" mapstructure:"pass_score" validate:"gte=0,lte=100"`
}

// AvatarThresholds for the avatar validator
type AvatarThresholds struct {
	MinPains            int     `yaml:"min_pains" mapstructure:"min_pains" validate:"gte=0"`
	MinDesires          int     `yaml:"min_desires" mapstructure:"min_desires" validate:"gte=0"`
	MinProfileFields    int     `yaml:"min_profile_fields" mapstructure:"min_profile_fields" validate:"gte=0"`
	TargetPains         int     `yaml:"target_pains" mapstructure:"target_pains" validate:"gt=0"`
	TargetDesires       int     `yaml:"target_desires" mapstructure:"target_desires" validate:"gt=0"`
	TargetDemographic   int     `yaml:"target_demographic" mapstructure:"target_demographic" validate:"gt=0"`
	TargetPsychographic int     `yaml:"target_psychographic" mapstructure:"target_psychographic" validate:"gt=0"`
	PassScore           float64 `yaml:"pass_score" mapstructure:"pass_score" validate:"gte=0,lte=100"`
}

// ForensicThresholds for the forensic-metrics validator
type ForensicThresholds struct {
	MinArguments    float64 `yaml:"min_arguments" mapstructure:"min_arguments" validate:"gte=0"`
	MinCialdini     int     `yaml:"min_cialdini" mapstructure:"min_cialdini" validate:"gte=0"`
	MinIntense      int     `yaml:"min_intense" mapstructure:"min_intense" validate:"gte=0"`
	IntensityFloor  int     `yaml:"intensity_floor" mapstructure:"intensity_floor" validate:"gte=0,lte=10"` // N/10 values at or above count as intense
	TargetArguments float64 `yaml:"target_arguments" mapstructure:"target_arguments" validate:"gt=0"`
	TargetCialdini  int     `yaml:"target_cialdini" mapstructure:"target_cialdini" validate:"gt=0"`
	TargetIntense   int     `yaml:"target_intense" mapstructure:"target_intense" validate:"gt=0"`
	PassScore       float64 `yaml:"pass_score" mapstructure:"pass_score" validate:"gte=0,lte=100"`
}

// SourcesConfig for the data-source validator
type SourcesConfig struct {
	TrustedDomains  []string `yaml:"trusted_domains" mapstructure:"trusted_domains"`
	FallbackMarkers []string `yaml:"fallback_markers" mapstructure:"fallback_markers"`
}

// DriversConfig lists boilerplate phrases that mark a driver as generic
type DriversConfig struct {
	GenericPhrases []string `yaml:"generic_phrases" mapstructure:"generic_phrases"`
}

// RecoveryConfig for the error recovery system
type RecoveryConfig struct {
	DefaultSegment string `yaml:"default_segment" mapstructure:"default_segment" validate:"required"`
	ProbeMaxTokens int    `yaml:"probe_max_tokens" mapstructure:"probe_max_tokens" validate:"gt=0"`
	PreviewChars   int    `yaml:"preview_chars" mapstructure:"preview_chars" validate:"gt=0"`
}

// LLMConfig holds AI provider gateway configuration
type LLMConfig struct {
	Providers  []ProviderConfig `yaml:"providers" mapstructure:"providers" validate:"dive"`
	Timeout    int              `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"` // seconds
	ProbeRate  float64          `yaml:"probe_rate" mapstructure:"probe_rate"`            // availability probes per second per provider
	ProbeBurst int              `yaml:"probe_burst" mapstructure:"probe_burst"`
	StatusTTL  time.Duration    `yaml:"status_ttl" mapstructure:"status_ttl"` // how long a probe result is reused
	HTTPProxy  string           `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string           `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string           `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"` // comma-separated hosts that bypass the proxy
}

// ProviderConfig describes one AI provider, in priority order
type ProviderConfig struct {
	Name    string `yaml:"name" mapstructure:"name" validate:"required,oneof=openai anthropic claude ollama"`
	Model   string `yaml:"model,omitempty" mapstructure:"model"`
	APIKey  string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Overrides llm.probe_rate/probe_burst for this provider when set
	ProbeRate  float64 `yaml:"probe_rate,omitempty" mapstructure:"probe_rate" validate:"gte=0"`
	ProbeBurst int     `yaml:"probe_burst,omitempty" mapstructure:"probe_burst" validate:"gte=0"`
}

// AuditConfig selects where recovery steps and errors are persisted
type AuditConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend" validate:"oneof=none memory file sqlite"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
}

// CacheConfig for validation results
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig for batch validation
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0"` // 0 = NumCPU
}

// RateLimitConfig for batch validation
type RateLimitConfig struct {
	RecordsPerSecond float64 `yaml:"records_per_second" mapstructure:"records_per_second" validate:"gte=0"` // 0 = unlimited
	BurstSize        int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=0"`
}

// OutputConfig for rendering
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format" validate:"oneof=json yaml"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	LogMode string `yaml:"log_mode" mapstructure:"log_mode" validate:"oneof=dev development prod production"`
}

// Component weights in the aggregate quality score
var defaultWeights = map[string]float64{
	CategoryDrivers:       0.25,
	CategoryProofs:        0.20,
	CategoryAntiObjection: 0.20,
	CategoryAvatar:        0.20,
	CategoryForensics:     0.15,
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	weights := make(map[string]float64, len(defaultWeights))
	for k, v := range defaultWeights {
		weights[k] = v
	}

	return Config{
		Thresholds: Thresholds{
			QualityGate:         80,
			RecommendationFloor: 70,
			Drivers: DriverThresholds{
				Minimum:             5,
				Target:              19,
				MinDefinitionLength: 50,
				PassScore:           60,
			},
			Proofs: ProofThresholds{
				FullQuantity:    5,
				PartialQuantity: 3,
				PartialScore:    80,
				PerItemScore:    20,
				PassScore:       70,
			},
			AntiObjection: AntiObjectionThresholds{
				RequiredUniversal: []string{"tempo", "dinheiro", "confianca"},
				TargetScripts:     3,
				TargetArsenal:     8,
				MinArsenal:        5,
				PassScore:         70,
			},
			Avatar: AvatarThresholds{
				MinPains:            5,
				MinDesires:          5,
				MinProfileFields:    3,
				TargetPains:         15,
				TargetDesires:       15,
				TargetDemographic:   7,
				TargetPsychographic: 8,
				PassScore:           70,
			},
			Forensics: ForensicThresholds{
				MinArguments:    10,
				MinCialdini:     3,
				MinIntense:      2,
				IntensityFloor:  7,
				TargetArguments: 20,
				TargetCialdini:  6,
				TargetIntense:   4,
				PassScore:       60,
			},
		},
		Weights:       weights,
		DefaultWeight: 0.1,
		Sources: SourcesConfig{
			TrustedDomains: []string{
				"g1.globo.com",
				"exame.com",
				"valor.globo.com",
				"estadao.com.br",
				"folha.uol.com.br",
				"ibge.gov.br",
				"sebrae.com.br",
			},
			FallbackMarkers: []string{"fallback", "simulado", "em desenvolvimento", "modo emergência"},
		},
		Drivers: DriversConfig{
			GenericPhrases: []string{"em desenvolvimento", "customizado para", "driver mental"},
		},
		Recovery: RecoveryConfig{
			DefaultSegment: "negócios",
			ProbeMaxTokens: 500,
			PreviewChars:   200,
		},
		LLM: LLMConfig{
			Timeout:    30,
			ProbeRate:  1,
			ProbeBurst: 2,
			StatusTTL:  30 * time.Second,
		},
		Audit: AuditConfig{
			Backend: "memory",
			Dir:     "./qualigate-audit",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "./.qualigate-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 0,
		},
		RateLimiting: RateLimitConfig{
			RecordsPerSecond: 0,
			BurstSize:        5,
		},
		Output: OutputConfig{
			Format:  "json",
			LogMode: "dev",
		},
	}
}

// Weight returns the aggregate weight of a component
func (c Config) Weight(component string) float64 {
	if w, ok := c.Weights[component]; ok {
		return w
	}
	return c.DefaultWeight
}

// Validate checks struct constraints
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Thresholds.Proofs.PartialQuantity > c.Thresholds.Proofs.FullQuantity {
		return fmt.Errorf("invalid configuration: proofs.partial_quantity (%d) exceeds proofs.full_quantity (%d)",
			c.Thresholds.Proofs.PartialQuantity, c.Thresholds.Proofs.FullQuantity)
	}
	return nil
}
