package score

import (
	"strings"

	"github.com/ppiankov/qualigate/internal/model"
)

// antiObjection scores the anti-objection system category
func (r *rules) antiObjection(data any, _ model.Record) model.ComponentValidation {
	th := r.cfg.Thresholds.AntiObjection
	cv := model.NewComponentValidation()

	section := model.DecodeAntiObjection(data)
	cv.Metrics["universais_count"] = float64(section.UniversalSize)
	cv.Metrics["scripts_count"] = float64(section.Scripts)
	cv.Metrics["arsenal_count"] = float64(section.EmergencyArsenal)

	var missing []string
	for _, req := range th.RequiredUniversal {
		if !section.UniversalKeys[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		cv.Critical("missing universal objections: %s", strings.Join(missing, ", "))
	}

	if section.Scripts == 0 {
		cv.Critical("personalized scripts missing")
	}

	if section.EmergencyArsenal < th.MinArsenal {
		cv.Warn("emergency arsenal limited: %d < %d", section.EmergencyArsenal, th.MinArsenal)
	}

	coverage := ratio(float64(section.UniversalSize), float64(len(th.RequiredUniversal)))
	scripts := ratio(float64(section.Scripts), float64(th.TargetScripts))
	arsenal := ratio(float64(section.EmergencyArsenal), float64(th.TargetArsenal))

	cv.Score = average(coverage, scripts, arsenal)
	cv.Formula = "avg(min(universal / required * 100, 100), min(scripts / target * 100, 100), min(arsenal / target * 100, 100))"
	cv.Valid = cv.Score >= th.PassScore && len(cv.CriticalIssues) == 0
	return cv
}
