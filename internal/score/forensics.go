package score

import (
	"strconv"
	"strings"

	"github.com/ppiankov/qualigate/internal/model"
	"github.com/spf13/cast"
)

// forensics scores the forensic rhetoric-metrics category
func (r *rules) forensics(data any, _ model.Record) model.ComponentValidation {
	th := r.cfg.Thresholds.Forensics
	cv := model.NewComponentValidation()

	f := model.DecodeForensics(data)
	if len(f.Density) == 0 {
		cv.Critical("persuasive density missing")
		return cv
	}

	arguments, err := cast.ToFloat64E(f.TotalArguments)
	if err != nil {
		cv.Critical("argumentos_totais is not numeric: %v", f.TotalArguments)
		arguments = 0
	}
	cv.Metrics["argumentos_totais"] = arguments
	if arguments < th.MinArguments {
		cv.Critical("insufficient arguments: %g < %g", arguments, th.MinArguments)
	}

	activated := 0
	for _, v := range f.Cialdini {
		if n, err := cast.ToFloat64E(v); err == nil && n > 0 {
			activated++
		}
	}
	cv.Metrics["cialdini_ativados"] = float64(activated)
	if activated < th.MinCialdini {
		cv.Critical("insufficient Cialdini triggers: %d < %d", activated, th.MinCialdini)
	}

	intense := 0
	if f.Emotional != nil {
		for _, v := range f.Emotional {
			if n, ok := parseIntensity(v); ok && n >= th.IntensityFloor {
				intense++
			}
		}
		cv.Metrics["emocoes_intensas"] = float64(intense)
		if intense < th.MinIntense {
			cv.Warn("low emotional intensity: %d emotions >= %d/10", intense, th.IntensityFloor)
		}
	}

	cv.Score = average(
		ratio(arguments, th.TargetArguments),
		ratio(float64(activated), float64(th.TargetCialdini)),
		ratio(float64(intense), float64(th.TargetIntense)),
	)
	cv.Formula = "avg(min(arguments / 20 * 100, 100), min(cialdini / 6 * 100, 100), min(intense / 4 * 100, 100))"
	cv.Valid = cv.Score >= th.PassScore && len(cv.CriticalIssues) == 0
	return cv
}

// parseIntensity reads "8/10" strings, bare integer strings and numbers
func parseIntensity(v any) (int, bool) {
	if s, ok := v.(string); ok {
		if i := strings.Index(s, "/"); i >= 0 {
			s = s[:i]
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		return n, err == nil
	}
	n, err := cast.ToIntE(v)
	return n, err == nil
}
