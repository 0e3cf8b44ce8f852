package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edu-resource-portal/internal/models"
)

const resourceColumns = `id, title, description, category, subject, grade, year,
       file_url, preview_url, file_size, pages, downloads, uploaded_at, tags, quality_label`

// ResourceRepository handles catalog persistence.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create stores a new catalog entry.
func (r *ResourceRepository) Create(ctx context.Context, item *models.Resource) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.UploadedAt.IsZero() {
		item.UploadedAt = time.Now().UTC()
	}
	if item.Tags == nil {
		item.Tags = pq.StringArray{}
	}
	const query = `INSERT INTO resources
	(id, title, description, category, subject, grade, year, file_url, preview_url, file_size, pages, downloads, uploaded_at, tags, quality_label)
	VALUES (:id, :title, :description, :category, :subject, :grade, :year, :file_url, :preview_url, :file_size, :pages, :downloads, :uploaded_at, :tags, :quality_label)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// GetByID retrieves one catalog row.
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	var item models.Resource
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListAll returns the full catalog ordered by upload time. The filter and
// search engines work on this in-memory snapshot, so no axis conditions are
// pushed down here.
func (r *ResourceRepository) ListAll(ctx context.Context) ([]models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources ORDER BY uploaded_at DESC`
	var records []models.Resource
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return records, nil
}

// Update rewrites the mutable fields of a catalog entry.
func (r *ResourceRepository) Update(ctx context.Context, item *models.Resource) error {
	const query = `UPDATE resources SET
	title = :title, description = :description, category = :category, subject = :subject,
	grade = :grade, year = :year, file_url = :file_url, preview_url = :preview_url,
	file_size = :file_size, pages = :pages, tags = :tags, quality_label = :quality_label
	WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resource update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementDownloads bumps the popularity counter after a successful fetch.
func (r *ResourceRepository) IncrementDownloads(ctx context.Context, id string) error {
	const query = `UPDATE resources SET downloads = downloads + 1 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment resource downloads: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resource download rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a catalog entry.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM resources WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resource delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
