package score

import "github.com/ppiankov/qualigate/internal/model"

// proofs scores the visual-proofs (PROVI) category
func (r *rules) proofs(data any, _ model.Record) model.ComponentValidation {
	th := r.cfg.Thresholds.Proofs
	cv := model.NewComponentValidation()

	section := model.DecodeProofs(data)
	count := len(section.Items)
	cv.Metrics["provis_count"] = float64(count)
	if count == 0 {
		cv.Critical("no visual proofs (PROVI) found")
		return cv
	}

	valid, complete := 0, 0
	for _, p := range section.Items {
		if !p.Decoded || !model.Truthy(p.Nome) || !model.Truthy(p.Experiment()) {
			continue
		}
		valid++
		if model.Truthy(p.RoteiroCompleto) && model.Truthy(p.Materiais) {
			complete++
		}
	}
	cv.Metrics["valid_provis"] = float64(valid)
	cv.Metrics["complete_provis"] = float64(complete)

	var quantity float64
	switch {
	case count >= th.FullQuantity:
		quantity = 100
	case count >= th.PartialQuantity:
		quantity = th.PartialScore
	default:
		quantity = float64(count) * th.PerItemScore
	}
	quality := float64(valid) / float64(count) * 100
	completeness := float64(complete) / float64(count) * 100

	cv.Score = average(quantity, quality, completeness)
	cv.Formula = "avg(quantity_tier, valid_provis / provis_count * 100, complete_provis / provis_count * 100)"
	cv.Valid = cv.Score >= th.PassScore && len(cv.CriticalIssues) == 0
	return cv
}
