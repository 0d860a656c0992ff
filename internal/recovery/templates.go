package recovery

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/qualigate/internal/model"
)

const aiFallbackTemplate = `ANÁLISE BÁSICA DE RECUPERAÇÃO - %[1]s

AVATAR BÁSICO:
- Profissional de %[2]s em busca de crescimento
- Principais dores: Estagnação, competição, falta de método
- Principais desejos: Crescimento, reconhecimento, liberdade

DRIVERS MENTAIS BÁSICOS:
1. Urgência Temporal - Tempo limitado para agir
2. Autoridade Técnica - Expertise comprovada
3. Método vs Sorte - Diferença entre sistema e tentativa

SISTEMA ANTI-OBJEÇÃO BÁSICO:
- Tempo: Cada dia sem ação é oportunidade perdida
- Dinheiro: ROI comprovado em 3-6 meses
- Confiança: Metodologia testada e aprovada

RECOMENDAÇÃO: Configure APIs completas para análise avançada
`

// Emergency next steps, shown to operators as-is
var emergencySteps = []string{
	"Verifique logs de erro detalhados",
	"Configure APIs ausentes",
	"Execute análise novamente",
	"Contate suporte se problema persistir",
}

// segment returns context["segmento"], or the default when absent
func (s *System) segment(context map[string]any) string {
	if v, ok := context["segmento"]; ok && v != nil {
		return model.Text(v)
	}
	return s.cfg.DefaultSegment
}

func aiFallbackContent(segment string) string {
	return fmt.Sprintf(aiFallbackTemplate, strings.ToUpper(segment), segment)
}

func basicDrivers(segment string) map[string]any {
	return map[string]any{
		"drivers_customizados": []any{
			map[string]any{
				"nome":               "Urgência " + segment,
				"gatilho_central":    "Tempo limitado para dominar " + segment,
				"definicao_visceral": "Cada dia sem otimizar " + segment + " é oportunidade perdida",
				"recovery_mode":      true,
			},
			map[string]any{
				"nome":               "Autoridade " + segment,
				"gatilho_central":    "Expertise comprovada em " + segment,
				"definicao_visceral": "Ser reconhecido como autoridade em " + segment,
				"recovery_mode":      true,
			},
			map[string]any{
				"nome":               "Método vs Sorte",
				"gatilho_central":    "Diferença entre método e tentativa",
				"definicao_visceral": "Parar de tentar e começar a aplicar método em " + segment,
				"recovery_mode":      true,
			},
		},
		"recovery_applied":      true,
		"original_count_target": 19,
		"recovered_count":       3,
	}
}

func basicVisualProofs(segment string) map[string]any {
	return map[string]any{
		"arsenal_provis_completo": []any{
			map[string]any{
				"nome":                  "PROVI 1: Transformação " + segment,
				"conceito_alvo":         "Eficácia da metodologia",
				"experimento_escolhido": "Comparação visual de resultados antes e depois em " + segment,
				"recovery_mode":         true,
			},
			map[string]any{
				"nome":                  "PROVI 2: Método vs Caos",
				"conceito_alvo":         "Superioridade do método",
				"experimento_escolhido": "Demonstração de organização vs desorganização",
				"recovery_mode":         true,
			},
		},
		"recovery_applied":      true,
		"original_count_target": 8,
		"recovered_count":       2,
	}
}

func basicAntiObjection(segment string) map[string]any {
	return map[string]any{
		"objecoes_universais": map[string]any{
			"tempo": map[string]any{
				"objecao":       "Não tenho tempo para implementar isso agora",
				"contra_ataque": "Cada mês sem otimizar " + segment + " custa oportunidades",
				"recovery_mode": true,
			},
			"dinheiro": map[string]any{
				"objecao":       "Não tenho orçamento disponível",
				"contra_ataque": "O custo de não investir em " + segment + " é maior",
				"recovery_mode": true,
			},
			"confianca": map[string]any{
				"objecao":       "Preciso de mais garantias",
				"contra_ataque": "Metodologia testada com profissionais de " + segment,
				"recovery_mode": true,
			},
		},
		"recovery_applied":    true,
		"coverage_percentage": 60,
	}
}

func genericComponentData(component, segment string, now time.Time) map[string]any {
	return map[string]any{
		"component_name":   component,
		"status":           "recovered",
		"data":             "Dados básicos para " + component,
		"context":          segment,
		"recovery_applied": true,
		"timestamp":        now.Format(time.RFC3339),
	}
}

// normalize reshapes arbitrary data into a mapping
func normalize(data any) map[string]any {
	if m, ok := model.AsMap(data); ok {
		return m
	}
	if s, ok := data.(string); ok {
		return map[string]any{"content": s, "type": "string"}
	}
	if items, ok := model.AsList(data); ok {
		return map[string]any{"items": items, "count": len(items)}
	}
	return map[string]any{"value": fmt.Sprint(data), "type": fmt.Sprintf("%T", data)}
}
