package dashboard

import (
	"cmp"
	"slices"

	"github.com/mr1hm/ssma-incidents/internal/models"
)

// Facets lists the values available to each dashboard filter.
type Facets struct {
	Emitters       []string `json:"emitentes"`
	Causes         []string `json:"causas"`
	Locations      []string `json:"locais"`
	Companies      []string `json:"empresas"`
	Employees      []string `json:"funcionarios"`
	SSTClasses     []string `json:"classes_sst"`
	EnvClasses     []string `json:"classes_ambientais"`
	Opinions       []string `json:"pareceres"`
	Justifications []string `json:"justificativas"`
	Provenances    []string `json:"procedencias"`
	Conditions     []string `json:"condicoes"`
	Behaviors      []string `json:"comportamentos"`
	Environmental  []string `json:"ambientais"`
	Years          []int    `json:"anos"`
	Months         []int    `json:"meses"`
}

type set[T cmp.Ordered] map[T]struct{}

func (s set[T]) add(values ...T) {
	var zero T
	for _, v := range values {
		if v != zero {
			s[v] = struct{}{}
		}
	}
}

func (s set[T]) sorted() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// BuildFacets collects the distinct, sorted values of every filterable field.
// Empty values are never offered.
func BuildFacets(records []models.Incident) Facets {
	emitters, causes, locations := set[string]{}, set[string]{}, set[string]{}
	companies, employees := set[string]{}, set[string]{}
	sst, env, opinions := set[string]{}, set[string]{}, set[string]{}
	justifications, provenances := set[string]{}, set[string]{}
	conditions, behaviors, environmental := set[string]{}, set[string]{}, set[string]{}
	years, months := set[int]{}, set[int]{}

	for i := range records {
		r := &records[i]

		emitters.add(r.Emitter)
		locations.add(r.Location)
		companies.add(r.Company)
		employees.add(r.Employee)
		sst.add(r.SSTClass)
		env.add(r.EnvClass)
		opinions.add(r.Opinion)
		justifications.add(r.Justification)
		provenances.add(r.Provenance)

		causes.add(tokens(r.Causes...)...)
		conditions.add(tokens(r.UnsafeConditions...)...)
		behaviors.add(tokens(r.UnsafeBehaviors...)...)
		environmental.add(tokens(r.Environmental...)...)

		if !r.Date.IsZero() {
			years.add(r.Date.Year())
			months.add(int(r.Date.Month()))
		}
	}

	return Facets{
		Emitters:       emitters.sorted(),
		Causes:         causes.sorted(),
		Locations:      locations.sorted(),
		Companies:      companies.sorted(),
		Employees:      employees.sorted(),
		SSTClasses:     sst.sorted(),
		EnvClasses:     env.sorted(),
		Opinions:       opinions.sorted(),
		Justifications: justifications.sorted(),
		Provenances:    provenances.sorted(),
		Conditions:     conditions.sorted(),
		Behaviors:      behaviors.sorted(),
		Environmental:  environmental.sorted(),
		Years:          years.sorted(),
		Months:         months.sorted(),
	}
}
