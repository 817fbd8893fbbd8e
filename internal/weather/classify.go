package weather

import "slices"

// Icon is the category key of a risk classification.
type Icon string

const (
	IconNoRisk       Icon = "sem_risco"
	IconFog          Icon = "nevoeiro"
	IconLightRain    Icon = "chuva_leve"
	IconModerateRain Icon = "chuva_moderada"
	IconHeavyRain    Icon = "chuva_forte"
	IconThunderstorm Icon = "tempestade"
	IconStrongWind   Icon = "vento_forte"
	IconExtremeWind  Icon = "vento_extremo"
	IconSnow         Icon = "neve"
	IconUnknown      Icon = "desconhecido"
)

var knownIcons = map[Icon]bool{
	IconNoRisk:       true,
	IconFog:          true,
	IconLightRain:    true,
	IconModerateRain: true,
	IconHeavyRain:    true,
	IconThunderstorm: true,
	IconStrongWind:   true,
	IconExtremeWind:  true,
	IconSnow:         true,
	IconUnknown:      true,
}

// File is the icon's asset name.
func (i Icon) File() string {
	if !knownIcons[i] {
		return string(IconUnknown) + ".svg"
	}
	return string(i) + ".svg"
}

// Risk is the classification of one observation. Severity ranges 0..5.
type Risk struct {
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
	Severity    int    `json:"severity"`
}

const stableDescription = "Condição estável"

// conditionRules maps disjoint WMO weather-code sets to a severity floor.
var conditionRules = []struct {
	codes       []int
	description string
	icon        Icon
	severity    int
}{
	{[]int{45, 48}, "Nevoeiro isolado", IconFog, 2},
	{[]int{51, 53, 55, 56, 57}, "Garoa leve", IconLightRain, 2},
	{[]int{61, 63, 65, 66, 67}, "Chuva moderada", IconModerateRain, 3},
	{[]int{80, 81, 82}, "Chuva forte", IconHeavyRain, 4},
	{[]int{71, 73, 75, 77, 85, 86}, "Precipitação invernal", IconSnow, 3},
	{[]int{95, 96, 99}, "Tempestade com raios", IconThunderstorm, 5},
}

// Classify maps a weather code, precipitation (mm) and wind speed (km/h) to a
// risk. Any argument may be nil.
//
// Three passes run in order: condition code, precipitation, wind. Severity is
// a running maximum, while description and icon are replaced by whichever
// pass applied last, so the text can read milder than the severity.
func Classify(code *int, precipMM, windKMH *float64) Risk {
	r := Risk{Description: stableDescription, Icon: IconNoRisk}

	if code != nil {
		for _, rule := range conditionRules {
			if slices.Contains(rule.codes, *code) {
				r.set(rule.description, rule.icon, rule.severity)
				break
			}
		}
	}

	if precipMM != nil {
		p := *precipMM
		switch {
		case p >= 8:
			r.set("Chuva intensa prevista", IconHeavyRain, 4)
		case p >= 3:
			r.set("Chuva moderada prevista", IconModerateRain, 3)
		case p >= 0.5 && r.Severity < 2:
			r.set("Possibilidade de garoa", IconLightRain, 2)
		}
	}

	if windKMH != nil {
		w := *windKMH
		switch {
		case w >= 65:
			r.set("Risco extremo de ventos", IconExtremeWind, 5)
		case w >= 45 && r.Severity < 5:
			r.set("Ventos fortes previstos", IconStrongWind, 4)
		}
	}

	if !knownIcons[r.Icon] {
		r.Icon = IconUnknown
	}
	return r
}

func (r *Risk) set(description string, icon Icon, floor int) {
	r.Description = description
	r.Icon = icon
	r.Severity = max(r.Severity, floor)
}

