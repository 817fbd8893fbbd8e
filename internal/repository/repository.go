package repository

import (
	"context"
	"errors"

	"github.com/mr1hm/ssma-incidents/internal/models"
)

var ErrNotFound = errors.New("not found")

type ListOptions struct {
	Limit  int
	Offset int
	Newest bool // newest first; default is submission order
}

// ReviewUpdate pairs an incident id with the annotations to store on it.
type ReviewUpdate struct {
	ID     int64
	Review models.Review
}

type IncidentRepository interface {
	Add(ctx context.Context, i *models.Incident) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	List(ctx context.Context, opts ListOptions) ([]models.Incident, error)
	Count(ctx context.Context) (int, error)
	All(ctx context.Context) ([]models.Incident, error)
	ApplyReviews(ctx context.Context, updates []ReviewUpdate) (updated int, skipped []int64, err error)
}

type UserRepository interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	EnsureUser(ctx context.Context, username, passwordHash string) (bool, error)
}
