package api

import (
	"fmt"
	"time"

	"github.com/mr1hm/ssma-incidents/internal/models"
)

type IncidentResponse struct {
	ID               int64     `json:"id"`
	Emitter          string    `json:"emitente"`
	Classification   string    `json:"classificacao"`
	Company          string    `json:"empresa"`
	Date             string    `json:"data,omitempty"`
	Time             string    `json:"hora"`
	Location         string    `json:"local"`
	Description      string    `json:"descricao"`
	ImmediateAction  string    `json:"acao"`
	Employee         string    `json:"funcionario"`
	SSTClass         string    `json:"class_sst"`
	EnvClass         string    `json:"class_ambiental"`
	Causes           []string  `json:"causa"`
	Opinion          string    `json:"parecer"`
	MaintenanceOrder string    `json:"ordem_manutencao"`
	Provenance       string    `json:"procedencia"`
	Justification    string    `json:"justificativa"`
	UnsafeConditions []string  `json:"condicoes"`
	UnsafeBehaviors  []string  `json:"comportamentos"`
	Environmental    []string  `json:"ambientais"`
	CreatedAt        time.Time `json:"created_at"`
}

func toIncidentResponse(i *models.Incident) IncidentResponse {
	resp := IncidentResponse{
		ID:               i.ID,
		Emitter:          i.Emitter,
		Classification:   i.Classification,
		Company:          i.Company,
		Time:             i.Time.String(),
		Location:         i.Location,
		Description:      i.Description,
		ImmediateAction:  i.ImmediateAction,
		Employee:         i.Employee,
		SSTClass:         i.SSTClass,
		EnvClass:         i.EnvClass,
		Causes:           nonNil(i.Causes),
		Opinion:          i.Opinion,
		MaintenanceOrder: i.MaintenanceOrder,
		Provenance:       i.Provenance,
		Justification:    i.Justification,
		UnsafeConditions: nonNil(i.UnsafeConditions),
		UnsafeBehaviors:  nonNil(i.UnsafeBehaviors),
		Environmental:    nonNil(i.Environmental),
		CreatedAt:        i.CreatedAt,
	}
	if !i.Date.IsZero() {
		resp.Date = i.Date.Format(models.DateLayout)
	}
	return resp
}

func toIncidentList(incidents []models.Incident) []IncidentResponse {
	out := make([]IncidentResponse, 0, len(incidents))
	for i := range incidents {
		out = append(out, toIncidentResponse(&incidents[i]))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// IncidentRequest is the incident submission form. It binds from JSON or
// from url-encoded/multipart forms with repeated keys for list fields.
type IncidentRequest struct {
	Emitter          string   `json:"emitente" form:"emitente" binding:"required"`
	Classification   string   `json:"classificacao" form:"classificacao" binding:"required"`
	Company          string   `json:"empresa" form:"empresa" binding:"required"`
	Date             string   `json:"data" form:"data" binding:"required"`
	Time             string   `json:"hora" form:"hora" binding:"required"`
	Location         string   `json:"local" form:"local" binding:"required"`
	Description      string   `json:"descricao" form:"descricao"`
	ImmediateAction  string   `json:"acao" form:"acao"`
	Employee         string   `json:"funcionario" form:"funcionario"`
	SSTClass         string   `json:"class_sst" form:"class_sst"`
	EnvClass         string   `json:"class_ambiental" form:"class_ambiental"`
	Causes           []string `json:"causa" form:"causa"`
	Opinion          string   `json:"parecer" form:"parecer"`
	MaintenanceOrder string   `json:"ordem_manutencao" form:"ordem_manutencao"`
	Provenance       string   `json:"procedencia" form:"procedencia"`
	Justification    string   `json:"justificativa" form:"justificativa"`
	UnsafeConditions []string `json:"condicoes" form:"condicoes"`
	UnsafeBehaviors  []string `json:"comportamentos" form:"comportamentos"`
	Environmental    []string `json:"ambientais" form:"ambientais"`
}

func (r IncidentRequest) toIncident() (*models.Incident, error) {
	date, err := models.ParseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", r.Date)
	}
	tod, err := models.ParseTimeOfDay(r.Time)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q, expected HH:MM", r.Time)
	}

	return &models.Incident{
		Emitter:          r.Emitter,
		Classification:   r.Classification,
		Company:          r.Company,
		Date:             date,
		Time:             tod,
		Location:         r.Location,
		Description:      r.Description,
		ImmediateAction:  r.ImmediateAction,
		Employee:         r.Employee,
		SSTClass:         r.SSTClass,
		EnvClass:         r.EnvClass,
		Causes:           cleanTags(r.Causes),
		Opinion:          r.Opinion,
		MaintenanceOrder: r.MaintenanceOrder,
		Provenance:       r.Provenance,
		Justification:    r.Justification,
		UnsafeConditions: cleanTags(r.UnsafeConditions),
		UnsafeBehaviors:  cleanTags(r.UnsafeBehaviors),
		Environmental:    cleanTags(r.Environmental),
	}, nil
}

// cleanTags normalizes a submitted list the way storage will read it back.
func cleanTags(tags []string) []string {
	return models.SplitTags(models.JoinTags(tags))
}

type ReviewItem struct {
	ID               int64    `json:"id" binding:"required,gt=0"`
	SSTClass         string   `json:"class_sst"`
	EnvClass         string   `json:"class_ambiental"`
	Causes           []string `json:"causa"`
	Opinion          string   `json:"parecer"`
	MaintenanceOrder string   `json:"ordem_manutencao"`
	Provenance       string   `json:"procedencia"`
	Justification    string   `json:"justificativa"`
	UnsafeConditions []string `json:"condicoes"`
	UnsafeBehaviors  []string `json:"comportamentos"`
	Environmental    []string `json:"ambientais"`
	Employee         string   `json:"funcionario"`
}

type ReviewRequest struct {
	Reviews []ReviewItem `json:"reviews" binding:"required,min=1,dive"`
}

func (r ReviewItem) toReview() models.Review {
	return models.Review{
		SSTClass:         r.SSTClass,
		EnvClass:         r.EnvClass,
		Causes:           cleanTags(r.Causes),
		Opinion:          r.Opinion,
		MaintenanceOrder: r.MaintenanceOrder,
		Provenance:       r.Provenance,
		Justification:    r.Justification,
		UnsafeConditions: cleanTags(r.UnsafeConditions),
		UnsafeBehaviors:  cleanTags(r.UnsafeBehaviors),
		Environmental:    cleanTags(r.Environmental),
		Employee:         r.Employee,
	}
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}
