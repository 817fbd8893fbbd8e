package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mr1hm/ssma-incidents/internal/models"
)

const incidentColumns = `id, emitter, classification, company, date, time_of_day, location,
	description, immediate_action, employee, sst_class, env_class, causes, opinion,
	maintenance_order, provenance, justification, unsafe_conditions, unsafe_behaviors,
	environmental, created_at`

func (s *SQLiteDB) Add(ctx context.Context, i *models.Incident) (int64, error) {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO incidents (emitter, classification, company, date, time_of_day, location,
			description, immediate_action, employee, sst_class, env_class, causes, opinion,
			maintenance_order, provenance, justification, unsafe_conditions, unsafe_behaviors,
			environmental, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		i.Emitter,
		i.Classification,
		i.Company,
		nullDate(i.Date),
		int(i.Time),
		i.Location,
		nullString(i.Description),
		nullString(i.ImmediateAction),
		nullString(i.Employee),
		nullString(i.SSTClass),
		nullString(i.EnvClass),
		nullString(models.JoinTags(i.Causes)),
		nullString(i.Opinion),
		nullString(i.MaintenanceOrder),
		nullString(i.Provenance),
		nullString(i.Justification),
		nullString(models.JoinTags(i.UnsafeConditions)),
		nullString(models.JoinTags(i.UnsafeBehaviors)),
		nullString(models.JoinTags(i.Environmental)),
		i.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("error inserting incident: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading incident id: %w", err)
	}
	i.ID = id
	return id, nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id)
	i, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (s *SQLiteDB) List(ctx context.Context, opts ListOptions) ([]models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if opts.Newest {
		query += ` ORDER BY id DESC`
	} else {
		query += ` ORDER BY id ASC`
	}

	var args []any
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, max(opts.Offset, 0))
	}

	return s.queryIncidents(ctx, query, args...)
}

func (s *SQLiteDB) All(ctx context.Context) ([]models.Incident, error) {
	return s.queryIncidents(ctx, `SELECT `+incidentColumns+` FROM incidents ORDER BY id ASC`)
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting incidents: %w", err)
	}
	return n, nil
}

// ApplyReviews stores a batch of review annotations in one transaction.
// Unknown ids are skipped; any other failure rolls the whole batch back.
func (s *SQLiteDB) ApplyReviews(ctx context.Context, updates []ReviewUpdate) (int, []int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("error starting review transaction: %w", err)
	}
	defer tx.Rollback()

	updated := 0
	skipped := []int64{}
	for _, u := range updates {
		ok, err := applyReview(ctx, tx, u.ID, u.Review)
		if err != nil {
			return 0, nil, err
		}
		if !ok {
			skipped = append(skipped, u.ID)
			continue
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("error committing reviews: %w", err)
	}
	return updated, skipped, nil
}

func applyReview(ctx context.Context, tx *sql.Tx, id int64, r models.Review) (bool, error) {
	query := `
		UPDATE incidents SET
			sst_class = ?, env_class = ?, causes = ?, opinion = ?, maintenance_order = ?,
			provenance = ?, justification = ?, unsafe_conditions = ?, unsafe_behaviors = ?,
			environmental = ?, employee = ?
		WHERE id = ?
	`
	res, err := tx.ExecContext(ctx, query,
		nullString(r.SSTClass),
		nullString(r.EnvClass),
		nullString(models.JoinTags(r.Causes)),
		nullString(r.Opinion),
		nullString(r.MaintenanceOrder),
		nullString(r.Provenance),
		nullString(r.Justification),
		nullString(models.JoinTags(r.UnsafeConditions)),
		nullString(models.JoinTags(r.UnsafeBehaviors)),
		nullString(models.JoinTags(r.Environmental)),
		nullString(r.Employee),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("error updating incident %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteDB) queryIncidents(ctx context.Context, query string, args ...any) ([]models.Incident, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying incidents: %w", err)
	}
	defer rows.Close()

	var incidents []models.Incident
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, *i)
	}

	return incidents, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIncident(row scanner) (*models.Incident, error) {
	var i models.Incident
	var minutes int
	var date, description, action, employee, sst, env, causes, opinion sql.NullString
	var order, provenance, justification, conditions, behaviors, environmental, created sql.NullString

	err := row.Scan(
		&i.ID, &i.Emitter, &i.Classification, &i.Company, &date, &minutes, &i.Location,
		&description, &action, &employee, &sst, &env, &causes, &opinion,
		&order, &provenance, &justification, &conditions, &behaviors,
		&environmental, &created,
	)
	if err != nil {
		return nil, err
	}

	if date.String != "" {
		d, err := models.ParseDate(date.String)
		if err != nil {
			return nil, fmt.Errorf("incident %d has invalid date %q: %w", i.ID, date.String, err)
		}
		i.Date = d
	}
	if created.String != "" {
		t, err := time.Parse(time.RFC3339Nano, created.String)
		if err != nil {
			return nil, fmt.Errorf("incident %d has invalid created_at %q: %w", i.ID, created.String, err)
		}
		i.CreatedAt = t
	}

	i.Time = models.TimeOfDay(minutes)
	i.Description = description.String
	i.ImmediateAction = action.String
	i.Employee = employee.String
	i.SSTClass = sst.String
	i.EnvClass = env.String
	i.Causes = models.SplitTags(causes.String)
	i.Opinion = opinion.String
	i.MaintenanceOrder = order.String
	i.Provenance = provenance.String
	i.Justification = justification.String
	i.UnsafeConditions = models.SplitTags(conditions.String)
	i.UnsafeBehaviors = models.SplitTags(behaviors.String)
	i.Environmental = models.SplitTags(environmental.String)

	return &i, nil
}

// nullString stores empty strings as NULL so unset fields stay distinguishable
// from filled ones.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(d time.Time) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Format(models.DateLayout), Valid: true}
}
