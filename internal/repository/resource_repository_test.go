package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-resource-portal/internal/models"
)

var resourceRowColumns = []string{
	"id", "title", "description", "category", "subject", "grade", "year",
	"file_url", "preview_url", "file_size", "pages", "downloads", "uploaded_at", "tags", "quality_label",
}

func newResourceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestResourceRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO resources")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	item := &models.Resource{
		Title:    "Algebra Essentials",
		Category: models.CategoryTextbook,
		Subject:  "Mathematics",
		Grade:    "10",
		Year:     "2023",
		FileURL:  "https://cdn.example.com/algebra.pdf",
		FileSize: "15.2 MB",
	}
	require.NoError(t, repo.Create(context.Background(), item))
	require.NotEmpty(t, item.ID)
	require.False(t, item.UploadedAt.IsZero())

	rows := sqlmock.NewRows(resourceRowColumns).
		AddRow(item.ID, item.Title, "", item.Category, item.Subject, item.Grade, item.Year,
			item.FileURL, nil, item.FileSize, nil, 0, time.Now(), pq.StringArray{}, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, category")).
		WithArgs(item.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, item.Title, found.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	rows := sqlmock.NewRows(resourceRowColumns).
		AddRow("res-1", "A", "", models.CategoryNotes, "Biology", "11", "2022",
			"https://cdn.example.com/a.pdf", nil, "1 MB", nil, 3, time.Now(), pq.StringArray{}, nil).
		AddRow("res-2", "B", "", models.CategoryGuide, "Physics", "10", "2021",
			"https://cdn.example.com/b.pdf", nil, "3 MB", nil, 9, time.Now(), pq.StringArray{}, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, category")).
		WillReturnRows(rows)

	items, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryIncrementDownloads(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources SET downloads = downloads + 1")).
		WithArgs("res-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.IncrementDownloads(context.Background(), "res-1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources SET downloads = downloads + 1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.IncrementDownloads(context.Background(), "missing"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newResourceRepoMock(t)
	defer cleanup()

	repo := NewResourceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE id = $1")).
		WithArgs("res-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "res-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
