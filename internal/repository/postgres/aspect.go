package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/pkg/database"
	apperrors "github.com/lorenzboss/m306-rate-mate/pkg/errors"
)

const (
	aspectNameConstraint   = "aspects_name_lower_key"
	ratingAspectConstraint = "ratings_aspect_id_fkey"
)

const aspectSelectWithCount = `
		SELECT a.id, a.name, a.description, a.created_at, a.updated_at,
		       (SELECT COUNT(*) FROM ratings r WHERE r.aspect_id = a.id) AS rating_count
		FROM aspects a`

// AspectRepository implements repository.AspectRepository using PostgreSQL.
type AspectRepository struct {
	db database.DBTX
}

// NewAspectRepository creates a new PostgreSQL-backed aspect repository.
func NewAspectRepository(db database.DBTX) *AspectRepository {
	return &AspectRepository{db: db}
}

func scanAspect(row pgx.Row) (*domain.Aspect, error) {
	var a domain.Aspect
	if err := row.Scan(&a.ID, &a.Name, &a.Description, &a.CreatedAt, &a.UpdatedAt, &a.RatingCount); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns all aspects ordered by name, each with its rating count.
func (r *AspectRepository) List(ctx context.Context) (_ []domain.Aspect, err error) {
	query := aspectSelectWithCount + ` ORDER BY a.name ASC`

	ctx, end := database.TraceQuery(ctx, "aspects.list", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list aspects: %w", err)
	}
	defer rows.Close()

	aspects := []domain.Aspect{}
	for rows.Next() {
		a, err := scanAspect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aspect row: %w", err)
		}
		aspects = append(aspects, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aspect rows: %w", err)
	}
	return aspects, nil
}

// GetByID retrieves an aspect by its ID.
func (r *AspectRepository) GetByID(ctx context.Context, id string) (_ *domain.Aspect, err error) {
	query := aspectSelectWithCount + ` WHERE a.id = $1`

	ctx, end := database.TraceQuery(ctx, "aspects.get_by_id", query)
	defer func() { end(err) }()

	a, err := scanAspect(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("aspect", id)
		}
		return nil, fmt.Errorf("get aspect: %w", err)
	}
	return a, nil
}

// NameTaken reports whether an aspect other than excludeID is called name,
// ignoring case.
func (r *AspectRepository) NameTaken(ctx context.Context, name, excludeID string) (_ bool, err error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM aspects
			WHERE LOWER(name) = LOWER($1) AND ($2 = '' OR id::text <> $2)
		)`

	ctx, end := database.TraceQuery(ctx, "aspects.name_taken", query)
	defer func() { end(err) }()

	var taken bool
	if err = r.db.QueryRow(ctx, query, name, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check aspect name: %w", err)
	}
	return taken, nil
}

// CountExisting returns how many of ids belong to existing aspects.
func (r *AspectRepository) CountExisting(ctx context.Context, ids []string) (_ int, err error) {
	query := `SELECT COUNT(*) FROM aspects WHERE id = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "aspects.count_existing", query)
	defer func() { end(err) }()

	var n int
	if err = r.db.QueryRow(ctx, query, ids).Scan(&n); err != nil {
		return 0, fmt.Errorf("count aspects: %w", err)
	}
	return n, nil
}

// Create inserts a new aspect.
func (r *AspectRepository) Create(ctx context.Context, a *domain.Aspect) (err error) {
	query := `
		INSERT INTO aspects (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "aspects.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, a.ID, a.Name, a.Description, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, aspectNameConstraint) {
			return apperrors.DuplicateName("aspect", a.Name)
		}
		return fmt.Errorf("insert aspect: %w", err)
	}
	return nil
}

// Update changes an aspect's name and description.
func (r *AspectRepository) Update(ctx context.Context, a *domain.Aspect) (err error) {
	query := `
		UPDATE aspects
		SET name = $1, description = $2, updated_at = $3
		WHERE id = $4`

	ctx, end := database.TraceQuery(ctx, "aspects.update", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, a.Name, a.Description, a.UpdatedAt, a.ID)
	if err != nil {
		if database.IsUniqueViolation(err, aspectNameConstraint) {
			return apperrors.DuplicateName("aspect", a.Name)
		}
		return fmt.Errorf("update aspect: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("aspect", a.ID)
	}
	return nil
}

// Delete removes an aspect. The ratings foreign key restricts deletion, so
// a rating added after the caller's own check still blocks it.
func (r *AspectRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM aspects WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "aspects.delete", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		if database.IsForeignKeyViolation(err, ratingAspectConstraint) {
			return apperrors.AspectInUse(id, 0)
		}
		return fmt.Errorf("delete aspect: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("aspect", id)
	}
	return nil
}
