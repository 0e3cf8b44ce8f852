package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-resource-portal/internal/models"
	"github.com/noah-isme/edu-resource-portal/internal/search"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
)

type stubResourceRepo struct {
	mu    sync.Mutex
	items map[string]models.Resource
	order []string
}

func newStubResourceRepo(items ...models.Resource) *stubResourceRepo {
	repo := &stubResourceRepo{items: make(map[string]models.Resource)}
	for _, item := range items {
		repo.items[item.ID] = item
		repo.order = append(repo.order, item.ID)
	}
	return repo
}

func (r *stubResourceRepo) Create(_ context.Context, item *models.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == "" {
		item.ID = "generated"
	}
	r.items[item.ID] = *item
	r.order = append(r.order, item.ID)
	return nil
}

func (r *stubResourceRepo) GetByID(_ context.Context, id string) (*models.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (r *stubResourceRepo) ListAll(context.Context) ([]models.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Resource, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *stubResourceRepo) Update(_ context.Context, item *models.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return sql.ErrNoRows
	}
	r.items[item.ID] = *item
	return nil
}

func (r *stubResourceRepo) IncrementDownloads(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.Downloads++
	r.items[id] = item
	return nil
}

func (r *stubResourceRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func sampleCatalog() []models.Resource {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	return []models.Resource{
		{ID: "r1", Title: "Algebra Essentials", Category: models.CategoryTextbook, Subject: "Mathematics", Grade: "10", Year: "2023", FileURL: "https://cdn.example.com/algebra.pdf", FileSize: "15.2 MB", Downloads: 40, UploadedAt: base},
		{ID: "r2", Title: "Biology Notes", Category: models.CategoryNotes, Subject: "Biology", Grade: "11", Year: "2022", FileURL: "https://cdn.example.com/bio.pdf", FileSize: "2.4 MB", Downloads: 90, UploadedAt: base.AddDate(0, 1, 0)},
		{ID: "r3", Title: "Chemistry Paper 1", Category: models.CategoryPastPaper, Subject: "Chemistry", Grade: "12", Year: "2023", FileURL: "https://cdn.example.com/chem.pdf", FileSize: "1.1 MB", Downloads: 15, UploadedAt: base.AddDate(0, 2, 0)},
	}
}

func newResourceService(repo ResourceRepository) *ResourceService {
	cache := NewCacheService(nil, nil, time.Minute, nil, false)
	return NewResourceService(repo, cache, search.NewEngine(), nil, nil, time.Minute, nil)
}

func TestResourceServiceListFiltersAndPaginates(t *testing.T) {
	svc := newResourceService(newStubResourceRepo(sampleCatalog()...))
	ctx := context.Background()

	sel := models.DefaultSelection()
	items, pagination, err := svc.List(ctx, sel, 1, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 3, pagination.TotalItems)
	require.Equal(t, 2, pagination.TotalPages)
	// default sort is popular
	require.Equal(t, "r2", items[0].ID)

	sel.Grade = "12"
	items, pagination, err = svc.List(ctx, sel, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "r3", items[0].ID)
	require.Equal(t, 1, pagination.TotalItems)
}

func TestResourceServiceGetMapsMissingToNotFound(t *testing.T) {
	svc := newResourceService(newStubResourceRepo())

	_, err := svc.Get(context.Background(), "missing")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}

func TestResourceServiceOptions(t *testing.T) {
	svc := newResourceService(newStubResourceRepo(sampleCatalog()...))

	opts, err := svc.Options(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"notes", "past-paper", "textbook"}, opts.Categories)
	require.Equal(t, []string{"10", "11", "12"}, opts.Grades)
	require.Equal(t, []string{"2023", "2022"}, opts.Years)
}

func TestResourceServiceCreateValidates(t *testing.T) {
	svc := newResourceService(newStubResourceRepo())

	err := svc.Create(context.Background(), &models.Resource{Title: ""})
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestResourceServiceCreateReindexes(t *testing.T) {
	svc := newResourceService(newStubResourceRepo())
	ctx := context.Background()

	item := &models.Resource{
		ID:       "new",
		Title:    "Physics Guide",
		Category: models.CategoryGuide,
		Subject:  "Physics",
		Grade:    "11",
		Year:     "2024",
		FileURL:  "https://cdn.example.com/physics.pdf",
		FileSize: "3.5 MB",
	}
	require.NoError(t, svc.Create(ctx, item))

	results := svc.Search(ctx, "physics", nil, 0)
	require.Len(t, results, 1)
	require.Equal(t, "new", results[0].ID)
}

func TestResourceServiceDeleteReindexes(t *testing.T) {
	svc := newResourceService(newStubResourceRepo(sampleCatalog()...))
	ctx := context.Background()
	require.NoError(t, svc.RefreshIndex(ctx))

	require.NoError(t, svc.Delete(ctx, "r1"))
	require.Empty(t, svc.Search(ctx, "algebra", nil, 0))

	err := svc.Delete(ctx, "r1")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}

func TestResourceServiceRecordDownloadIncrements(t *testing.T) {
	repo := newStubResourceRepo(sampleCatalog()...)
	svc := newResourceService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RecordDownload(ctx, "r1"))
	item, err := svc.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, 41, item.Downloads)

	err = svc.RecordDownload(ctx, "missing")
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}
