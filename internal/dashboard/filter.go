package dashboard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/ssma-incidents/internal/models"
)

// Criteria narrows the incident set before aggregation. Zero values mean the
// filter is not applied. All populated filters must match.
type Criteria struct {
	// Exact match.
	Emitter       string
	Location      string
	Company       string
	SSTClass      string
	EnvClass      string
	Opinion       string
	Justification string
	Provenance    string
	Employee      string

	// Substring match.
	Cause       string
	Description string
	Action      string

	From    *time.Time
	To      *time.Time
	Month   int
	Year    *int
	HourMin *models.TimeOfDay
	HourMax *models.TimeOfDay

	// Any-of substring match within each field.
	Conditions    []string
	Behaviors     []string
	Environmental []string
}

// ParseCriteria reads filters from dashboard query parameters. Values that do
// not parse are dropped and the filter is left unset.
func ParseCriteria(q url.Values) Criteria {
	get := func(key string) string { return strings.TrimSpace(q.Get(key)) }

	c := Criteria{
		Emitter:       get("emitente"),
		Location:      get("local"),
		Company:       get("empresa"),
		SSTClass:      get("class_sst"),
		EnvClass:      get("class_ambiental"),
		Opinion:       get("parecer"),
		Justification: get("justificativa"),
		Provenance:    get("procedencia"),
		Employee:      get("funcionario"),
		Cause:         get("causa"),
		Description:   get("descricao"),
		Action:        get("acao"),
		Conditions:    listParam(q["condicao"]),
		Behaviors:     listParam(q["comportamento"]),
		Environmental: listParam(q["ambiental"]),
	}

	if v := get("data_inicio"); v != "" {
		if d, err := models.ParseDate(v); err == nil {
			c.From = &d
		}
	}
	if v := get("data_fim"); v != "" {
		if d, err := models.ParseDate(v); err == nil {
			c.To = &d
		}
	}
	if v := get("mes"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			c.Month = m
		}
	}
	if v := get("ano"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			c.Year = &y
		}
	}
	if v := get("hora_min"); v != "" {
		if t, err := models.ParseTimeOfDay(v); err == nil {
			c.HourMin = &t
		}
	}
	if v := get("hora_max"); v != "" {
		if t, err := models.ParseTimeOfDay(v); err == nil {
			c.HourMax = &t
		}
	}

	return c
}

func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Active returns the applied filters keyed by query parameter, with numeric
// and date values in their normalized form.
func (c Criteria) Active() map[string]any {
	active := make(map[string]any)
	put := func(key, v string) {
		if v != "" {
			active[key] = v
		}
	}

	put("emitente", c.Emitter)
	put("local", c.Location)
	put("empresa", c.Company)
	put("class_sst", c.SSTClass)
	put("class_ambiental", c.EnvClass)
	put("parecer", c.Opinion)
	put("justificativa", c.Justification)
	put("procedencia", c.Provenance)
	put("funcionario", c.Employee)
	put("causa", c.Cause)
	put("descricao", c.Description)
	put("acao", c.Action)

	if c.From != nil {
		active["data_inicio"] = c.From.Format(models.DateLayout)
	}
	if c.To != nil {
		active["data_fim"] = c.To.Format(models.DateLayout)
	}
	if c.Month != 0 {
		active["mes"] = fmt.Sprintf("%02d", c.Month)
	}
	if c.Year != nil {
		active["ano"] = fmt.Sprintf("%04d", *c.Year)
	}
	if c.HourMin != nil {
		active["hora_min"] = c.HourMin.String()
	}
	if c.HourMax != nil {
		active["hora_max"] = c.HourMax.String()
	}
	if len(c.Conditions) > 0 {
		active["condicao"] = c.Conditions
	}
	if len(c.Behaviors) > 0 {
		active["comportamento"] = c.Behaviors
	}
	if len(c.Environmental) > 0 {
		active["ambiental"] = c.Environmental
	}

	return active
}

// Match reports whether the incident satisfies every populated filter.
func (c Criteria) Match(i *models.Incident) bool {
	if !exact(c.Emitter, i.Emitter) ||
		!exact(c.Location, i.Location) ||
		!exact(c.Company, i.Company) ||
		!exact(c.SSTClass, i.SSTClass) ||
		!exact(c.EnvClass, i.EnvClass) ||
		!exact(c.Opinion, i.Opinion) ||
		!exact(c.Justification, i.Justification) ||
		!exact(c.Provenance, i.Provenance) ||
		!exact(c.Employee, i.Employee) {
		return false
	}

	if !contains(c.Cause, models.JoinTags(i.Causes)) ||
		!contains(c.Description, i.Description) ||
		!contains(c.Action, i.ImmediateAction) {
		return false
	}

	if !c.matchDate(i.Date) {
		return false
	}
	if c.HourMin != nil && i.Time < *c.HourMin {
		return false
	}
	if c.HourMax != nil && i.Time > *c.HourMax {
		return false
	}

	return anyOf(c.Conditions, i.UnsafeConditions) &&
		anyOf(c.Behaviors, i.UnsafeBehaviors) &&
		anyOf(c.Environmental, i.Environmental)
}

func (c Criteria) matchDate(d time.Time) bool {
	if c.From == nil && c.To == nil && c.Month == 0 && c.Year == nil {
		return true
	}
	// Undated incidents never satisfy a date filter.
	if d.IsZero() {
		return false
	}
	if c.From != nil && d.Before(*c.From) {
		return false
	}
	if c.To != nil && d.After(*c.To) {
		return false
	}
	if c.Month != 0 && int(d.Month()) != c.Month {
		return false
	}
	if c.Year != nil && d.Year() != *c.Year {
		return false
	}
	return true
}

func exact(want, got string) bool {
	return want == "" || want == got
}

func contains(want, field string) bool {
	if want == "" {
		return true
	}
	return field != "" && strings.Contains(field, want)
}

// anyOf matches when at least one wanted value is a substring of the stored
// field. An empty field never matches a non-empty filter.
func anyOf(want, tags []string) bool {
	if len(want) == 0 {
		return true
	}
	field := models.JoinTags(tags)
	if field == "" {
		return false
	}
	for _, w := range want {
		if strings.Contains(field, w) {
			return true
		}
	}
	return false
}
