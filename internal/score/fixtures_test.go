package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/qualigate/internal/model"
)

// definition returns a driver definition of n characters without boilerplate phrases
func definition(n int) string {
	return strings.Repeat("a", n)
}

func driverList(count, defLen int) []any {
	drivers := make([]any, count)
	for i := range drivers {
		drivers[i] = map[string]any{
			"nome":               fmt.Sprintf("Driver %d", i+1),
			"definicao_visceral": definition(defLen),
		}
	}
	return drivers
}

func proofList(count int, complete bool) []any {
	proofs := make([]any, count)
	for i := range proofs {
		p := map[string]any{
			"nome":        fmt.Sprintf("PROVI %d", i+1),
			"experimento": "antes e depois",
		}
		if complete {
			p["roteiro_completo"] = "roteiro"
			p["materiais"] = []any{"copo", "agua"}
		}
		proofs[i] = p
	}
	return proofs
}

func stringList(prefix string, n int) []any {
	items := make([]any, n)
	for i := range items {
		items[i] = fmt.Sprintf("%s %d", prefix, i+1)
	}
	return items
}

func fieldMap(n int) map[string]any {
	m := make(map[string]any, n)
	for i := 0; i < n; i++ {
		m[fmt.Sprintf("campo_%d", i)] = "valor"
	}
	return m
}

// fullRecord scores 100 on every component and is scientifically compliant
func fullRecord() model.Record {
	return model.Record{
		model.CategoryDrivers: map[string]any{
			"drivers_customizados": driverList(19, 80),
		},
		model.CategoryProofs: map[string]any{
			"arsenal_provis_completo": proofList(5, true),
		},
		model.CategoryAntiObjection: map[string]any{
			"objecoes_universais": map[string]any{
				"tempo":     map[string]any{"objecao": "sem tempo"},
				"dinheiro":  map[string]any{"objecao": "sem dinheiro"},
				"confianca": map[string]any{"objecao": "sem garantia"},
			},
			"scripts_personalizados": fieldMap(3),
			"arsenal_emergencia":     stringList("resposta", 8),
		},
		model.CategoryAvatar: map[string]any{
			"dores_viscerais":     stringList("dor", 15),
			"desejos_secretos":    stringList("desejo", 15),
			"perfil_demografico":  fieldMap(7),
			"perfil_psicografico": fieldMap(8),
		},
		model.CategoryForensics: map[string]any{
			"densidade_persuasiva": map[string]any{
				"argumentos_totais": 20,
				"gatilhos_cialdini": map[string]any{
					"reciprocidade": 2, "autoridade": 3, "prova_social": 4,
					"escassez": 1, "compromisso": 2, "afinidade": 3,
				},
			},
			"intensidade_emocional": map[string]any{
				"medo": "8/10", "desejo": "9/10", "raiva": 7, "esperanca": "10/10",
			},
		},
		model.CategoryWebResearch: map[string]any{
			"search_results": []any{map[string]any{"url": "https://g1.globo.com/economia"}},
		},
		model.CategoryForensicDetail: map[string]any{"densidade_persuasiva": map[string]any{}},
		model.CategoryMetadata:       map[string]any{"quality_score": 91.0},
	}
}
