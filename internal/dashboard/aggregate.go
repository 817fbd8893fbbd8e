package dashboard

import (
	"sort"
	"time"

	"github.com/mr1hm/ssma-incidents/internal/models"
)

// DayLayout keys the per-day chart.
const DayLayout = "02/01/2006"

// FrequencyTable lists category counts in order of first appearance.
type FrequencyTable struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

type Charts struct {
	Classification   FrequencyTable `json:"classificacao"`
	Location         FrequencyTable `json:"local"`
	Cause            FrequencyTable `json:"causa"`
	UnsafeConditions FrequencyTable `json:"condicoes"`
	UnsafeBehaviors  FrequencyTable `json:"comportamentos"`
	Environmental    FrequencyTable `json:"ambientais"`
	SSTClass         FrequencyTable `json:"quase_acidentes"`
}

type Meta struct {
	Total   int            `json:"total"`
	Filters map[string]any `json:"filters"`
}

type Result struct {
	Records []models.Incident `json:"-"`
	Charts  Charts            `json:"charts"`
	Daily   FrequencyTable    `json:"por_dia"`
	Meta    Meta              `json:"meta"`
}

// counter tallies tokens across records, remembering first-seen order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

// add counts each distinct token of one record once.
func (c *counter) add(tokens []string) {
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}

		if _, ok := c.counts[tok]; !ok {
			c.order = append(c.order, tok)
		}
		c.counts[tok]++
	}
}

func (c *counter) table() FrequencyTable {
	t := FrequencyTable{
		Labels: make([]string, 0, len(c.order)),
		Counts: make([]int, 0, len(c.order)),
	}
	for _, label := range c.order {
		t.Labels = append(t.Labels, label)
		t.Counts = append(t.Counts, c.counts[label])
	}
	return t
}

// tokens normalizes a stored value into countable tokens. Scalar fields go
// through the same split so comma-joined legacy values count per item.
func tokens(values ...string) []string {
	var out []string
	for _, v := range values {
		out = append(out, models.SplitTags(v)...)
	}
	return out
}

// Count builds a frequency table for one field of the given records.
func Count(records []models.Incident, field func(*models.Incident) []string) FrequencyTable {
	c := newCounter()
	for i := range records {
		c.add(field(&records[i]))
	}
	return c.table()
}

// Aggregate filters records with the criteria and counts every chart field
// over the matching set.
func Aggregate(records []models.Incident, criteria Criteria) Result {
	filtered := make([]models.Incident, 0, len(records))
	for i := range records {
		if criteria.Match(&records[i]) {
			filtered = append(filtered, records[i])
		}
	}

	return Result{
		Records: filtered,
		Charts: Charts{
			Classification:   Count(filtered, func(i *models.Incident) []string { return tokens(i.Classification) }),
			Location:         Count(filtered, func(i *models.Incident) []string { return tokens(i.Location) }),
			Cause:            Count(filtered, func(i *models.Incident) []string { return tokens(i.Causes...) }),
			UnsafeConditions: Count(filtered, func(i *models.Incident) []string { return tokens(i.UnsafeConditions...) }),
			UnsafeBehaviors:  Count(filtered, func(i *models.Incident) []string { return tokens(i.UnsafeBehaviors...) }),
			Environmental:    Count(filtered, func(i *models.Incident) []string { return tokens(i.Environmental...) }),
			SSTClass:         Count(filtered, func(i *models.Incident) []string { return tokens(i.SSTClass) }),
		},
		Daily: countByDay(filtered),
		Meta: Meta{
			Total:   len(filtered),
			Filters: criteria.Active(),
		},
	}
}

func countByDay(records []models.Incident) FrequencyTable {
	counts := make(map[time.Time]int)
	for i := range records {
		d := records[i].Date
		if d.IsZero() {
			continue
		}
		counts[d]++
	}

	days := make([]time.Time, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Slice(days, func(a, b int) bool { return days[a].Before(days[b]) })

	t := FrequencyTable{
		Labels: make([]string, 0, len(days)),
		Counts: make([]int, 0, len(days)),
	}
	for _, d := range days {
		t.Labels = append(t.Labels, d.Format(DayLayout))
		t.Counts = append(t.Counts, counts[d])
	}
	return t
}
