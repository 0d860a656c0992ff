package validate

import (
	"net/url"
	"strings"

	"github.com/ppiankov/qualigate/internal/model"
	"golang.org/x/net/publicsuffix"
)

// SourceValidator checks where the research data of a record came from
type SourceValidator struct {
	trusted []string
	markers []string
}

// NewSourceValidator creates a source validator. A nil config uses the defaults.
func NewSourceValidator(config *model.SourcesConfig) *SourceValidator {
	if config == nil {
		def := model.DefaultConfig()
		config = &def.Sources
	}

	v := &SourceValidator{
		trusted: make([]string, 0, len(config.TrustedDomains)),
		markers: make([]string, 0, len(config.FallbackMarkers)),
	}
	for _, d := range config.TrustedDomains {
		v.trusted = append(v.trusted, strings.ToLower(d))
	}
	for _, m := range config.FallbackMarkers {
		v.markers = append(v.markers, strings.ToLower(m))
	}
	return v
}

// ValidateDataSources measures the share of search results from trusted
// outlets and flags placeholder content anywhere in the record
func (v *SourceValidator) ValidateDataSources(record model.Record) model.SourceValidation {
	result := model.SourceValidation{SourceQuality: model.SourceQualityUnknown}

	results := model.SearchResults(record)
	result.TotalSources = len(results)

	seen := make(map[string]bool)
	unverified := make(map[string]bool)
	for _, item := range results {
		rawURL, err := model.ResultURL(item)
		if err != nil {
			continue
		}

		trusted := v.IsTrusted(rawURL)
		if trusted {
			result.VerifiedSources++
		}

		domain := RegistrableDomain(rawURL)
		if domain == "" {
			continue
		}
		if !seen[domain] {
			seen[domain] = true
			result.Domains = append(result.Domains, domain)
		}
		if !trusted && !unverified[domain] {
			unverified[domain] = true
			result.UnverifiedDomains = append(result.UnverifiedDomains, domain)
		}
	}

	if result.TotalSources > 0 {
		result.RealDataPercentage = float64(result.VerifiedSources) / float64(result.TotalSources) * 100
	}

	data, err := record.JSON()
	if err != nil {
		return result
	}
	result.HasFallbackContent = v.hasMarker(strings.ToLower(string(data)))
	result.SourceQuality = Quality(result.RealDataPercentage)

	return result
}

// IsTrusted reports whether a URL mentions one of the trusted domains
func (v *SourceValidator) IsTrusted(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, d := range v.trusted {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func (v *SourceValidator) hasMarker(text string) bool {
	for _, m := range v.markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Quality buckets a real-data percentage
func Quality(percentage float64) model.SourceQuality {
	switch {
	case percentage >= 80:
		return model.SourceQualityExcellent
	case percentage >= 60:
		return model.SourceQualityGood
	case percentage >= 40:
		return model.SourceQualityFair
	default:
		return model.SourceQualityPoor
	}
}

// RegistrableDomain returns the eTLD+1 of a URL, or "" when it has no usable host.
// Scheme-less URLs are accepted.
func RegistrableDomain(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return ""
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
