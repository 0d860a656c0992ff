package score

import "github.com/ppiankov/qualigate/internal/model"

// avatar scores the detailed customer-avatar category.
// The four sub-scores are weighted equally.
func (r *rules) avatar(data any, _ model.Record) model.ComponentValidation {
	th := r.cfg.Thresholds.Avatar
	cv := model.NewComponentValidation()

	a := model.DecodeAvatar(data)
	cv.Metrics["dores_count"] = float64(a.Pains)
	cv.Metrics["desejos_count"] = float64(a.Desires)
	cv.Metrics["demografico_fields"] = float64(a.Demographic)
	cv.Metrics["psicografico_fields"] = float64(a.Psychographic)

	if a.Pains < th.MinPains {
		cv.Critical("insufficient pain points: %d < %d", a.Pains, th.MinPains)
	}
	if a.Desires < th.MinDesires {
		cv.Critical("insufficient desires: %d < %d", a.Desires, th.MinDesires)
	}
	if a.Demographic < th.MinProfileFields {
		cv.Warn("demographic profile limited: %d fields", a.Demographic)
	}
	if a.Psychographic < th.MinProfileFields {
		cv.Warn("psychographic profile limited: %d fields", a.Psychographic)
	}

	cv.Score = average(
		ratio(float64(a.Pains), float64(th.TargetPains)),
		ratio(float64(a.Desires), float64(th.TargetDesires)),
		ratio(float64(a.Demographic), float64(th.TargetDemographic)),
		ratio(float64(a.Psychographic), float64(th.TargetPsychographic)),
	)
	cv.Formula = "avg(pains/15, desires/15, demographic/7, psychographic/8), each capped at 100"
	cv.Valid = cv.Score >= th.PassScore && len(cv.CriticalIssues) == 0
	return cv
}
