package score

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/qualigate/internal/model"
)

// rules holds the built-in validators and their thresholds
type rules struct {
	cfg model.Config
}

// drivers scores the mental-drivers category
func (r *rules) drivers(data any, _ model.Record) model.ComponentValidation {
	th := r.cfg.Thresholds.Drivers
	cv := model.NewComponentValidation()

	section := model.DecodeDrivers(data)
	count := len(section.Items)
	if count == 0 {
		cv.Critical("no mental drivers found")
		return cv
	}
	cv.Metrics["driver_count"] = float64(count)

	if count < th.Minimum {
		cv.Critical("insufficient drivers: %d < %d minimum", count, th.Minimum)
	} else if count < th.Target {
		cv.Warn("drivers below target: %d < %d recommended", count, th.Target)
	}

	valid, generic := 0, 0
	for _, item := range section.Items {
		if _, ok := model.AsMap(item.Raw); !ok {
			continue
		}
		d := item.Driver
		if item.Decoded && item.Named && utf8.RuneCountInString(d.DefinicaoVisceral) > th.MinDefinitionLength {
			valid++
		}
		if r.isGeneric(item.Raw) {
			generic++
		}
	}
	cv.Metrics["valid_drivers"] = float64(valid)
	cv.Metrics["generic_drivers"] = float64(generic)

	quantity := ratio(float64(count), float64(th.Target))
	quality := float64(valid) / float64(count) * 100
	cv.Metrics["quantity_score"] = quantity
	cv.Metrics["quality_score"] = quality

	cv.Score = average(quantity, quality)
	cv.Formula = "avg(min(driver_count / target * 100, 100), valid_drivers / driver_count * 100)"
	cv.Valid = cv.Score >= th.PassScore && len(cv.CriticalIssues) == 0
	return cv
}

func (r *rules) isGeneric(raw any) bool {
	text := strings.ToLower(model.Text(raw))
	for _, phrase := range r.cfg.Drivers.GenericPhrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
