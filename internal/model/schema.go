package model

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// The typed views below are the only place that knows about legacy key
// names. Validators work on these sections and never probe raw records.

// Driver is a single mental driver as emitted by the generator
type Driver struct {
	Nome              string `mapstructure:"nome" json:"nome"`
	DefinicaoVisceral string `mapstructure:"definicao_visceral" json:"definicao_visceral"`
	GatilhoCentral    string `mapstructure:"gatilho_central" json:"gatilho_central,omitempty"`
}

// DriverItem pairs the raw item (for phrase scans) with its decoded form
type DriverItem struct {
	Raw     any
	Driver  Driver
	Decoded bool // false when the raw item is not a mapping
	Named   bool // nome is present and truthy in the raw item
}

// DriversSection is the mental-drivers category
type DriversSection struct {
	Items []DriverItem
}

// Proof is a visual proof (PROVI)
type Proof struct {
	Nome                 any  `mapstructure:"nome"`
	Experimento          any  `mapstructure:"experimento"`
	ExperimentoEscolhido any  `mapstructure:"experimento_escolhido"`
	RoteiroCompleto      any  `mapstructure:"roteiro_completo"`
	Materiais            any  `mapstructure:"materiais"`
	Decoded              bool `mapstructure:"-"`
}

// Experiment resolves the experiment field, falling back to the legacy alias
func (p Proof) Experiment() any {
	if Truthy(p.Experimento) {
		return p.Experimento
	}
	return p.ExperimentoEscolhido
}

// ProofsSection is the visual-proofs category
type ProofsSection struct {
	Items []Proof
}

// AntiObjectionSection is the anti-objection system category
type AntiObjectionSection struct {
	UniversalKeys    map[string]bool // keys of a mapping, or string items of a list
	UniversalSize    int
	Scripts          int
	EmergencyArsenal int
}

// AvatarSection is the detailed avatar category
type AvatarSection struct {
	Pains         int
	Desires       int
	Demographic   int
	Psychographic int
}

// ForensicsSection is the forensic-metrics category
type ForensicsSection struct {
	Density        map[string]any // densidade_persuasiva
	TotalArguments any            // argumentos_totais, coerced by the validator
	Cialdini       map[string]any
	Emotional      map[string]any // intensidade_emocional, nil when absent or empty
}

// Proof list keys, in resolution order
var proofListKeys = []string{"arsenal_provis_completo", "provas_visuais", "visual_proofs"}

// DecodeDrivers builds the mental-drivers view
func DecodeDrivers(v any) DriversSection {
	section := DriversSection{}
	m, _ := AsMap(v)
	items, _ := AsList(m["drivers_customizados"])
	for _, raw := range items {
		item := DriverItem{Raw: raw}
		if m, ok := AsMap(raw); ok {
			item.Named = Truthy(m["nome"])
			if err := mapstructure.WeakDecode(raw, &item.Driver); err == nil {
				item.Decoded = true
			}
		}
		section.Items = append(section.Items, item)
	}
	return section
}

// DecodeProofs builds the visual-proofs view. The category may be a bare list
// or a mapping holding the list under one of several keys.
func DecodeProofs(v any) ProofsSection {
	var items []any
	if list, ok := AsList(v); ok {
		items = list
	} else if m, ok := AsMap(v); ok {
		for _, key := range proofListKeys {
			if list, ok := AsList(m[key]); ok && len(list) > 0 {
				items = list
				break
			}
		}
	}

	section := ProofsSection{}
	for _, raw := range items {
		var p Proof
		if _, ok := AsMap(raw); ok {
			if err := mapstructure.Decode(raw, &p); err == nil {
				p.Decoded = true
			}
		}
		section.Items = append(section.Items, p)
	}
	return section
}

// DecodeAntiObjection builds the anti-objection view
func DecodeAntiObjection(v any) AntiObjectionSection {
	m, _ := AsMap(v)
	keys := map[string]bool{}
	if universal, ok := AsMap(m["objecoes_universais"]); ok {
		for k := range universal {
			keys[k] = true
		}
	} else if items, ok := AsList(m["objecoes_universais"]); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				keys[s] = true
			}
		}
	}
	return AntiObjectionSection{
		UniversalKeys:    keys,
		UniversalSize:    Size(m["objecoes_universais"]),
		Scripts:          Size(m["scripts_personalizados"]),
		EmergencyArsenal: Size(m["arsenal_emergencia"]),
	}
}

// DecodeAvatar builds the avatar view, resolving the legacy pain/desire keys
func DecodeAvatar(v any) AvatarSection {
	m, _ := AsMap(v)
	return AvatarSection{
		Pains:         Size(firstTruthy(m, "dores_viscerais", "feridas_abertas_inconfessaveis")),
		Desires:       Size(firstTruthy(m, "desejos_secretos", "sonhos_proibidos_ardentes")),
		Demographic:   Size(m["perfil_demografico"]),
		Psychographic: Size(m["perfil_psicografico"]),
	}
}

// DecodeForensics builds the forensic-metrics view
func DecodeForensics(v any) ForensicsSection {
	m, _ := AsMap(v)
	section := ForensicsSection{}
	section.Density, _ = AsMap(m["densidade_persuasiva"])
	if section.Density != nil {
		section.TotalArguments = section.Density["argumentos_totais"]
		section.Cialdini, _ = AsMap(section.Density["gatilhos_cialdini"])
	}
	if emo, ok := AsMap(m["intensidade_emocional"]); ok && len(emo) > 0 {
		section.Emotional = emo
	}
	return section
}

// SearchResults returns pesquisa_web_massiva.search_results
func SearchResults(r Record) []any {
	items, _ := AsList(r.Section(CategoryWebResearch)["search_results"])
	return items
}

// ResultURL extracts the url field of a search result
func ResultURL(result any) (string, error) {
	m, ok := AsMap(result)
	if !ok {
		return "", fmt.Errorf("search result is %T, not a mapping", result)
	}
	return cast.ToStringE(m["url"])
}

func firstTruthy(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v := m[key]; Truthy(v) {
			return v
		}
	}
	return nil
}
