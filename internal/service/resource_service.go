package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-resource-portal/internal/filter"
	"github.com/noah-isme/edu-resource-portal/internal/models"
	"github.com/noah-isme/edu-resource-portal/internal/search"
	"github.com/noah-isme/edu-resource-portal/internal/validate"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
)

const catalogCacheKey = "catalog:all"

// ResourceRepository abstracts catalog persistence.
type ResourceRepository interface {
	Create(ctx context.Context, item *models.Resource) error
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	ListAll(ctx context.Context) ([]models.Resource, error)
	Update(ctx context.Context, item *models.Resource) error
	IncrementDownloads(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ResourceService serves the catalog: filtered listings, search, the distinct
// filter axis options, and admin mutations. Reads work off a cached snapshot;
// every mutation invalidates the snapshot and rebuilds the search index.
type ResourceService struct {
	repo      ResourceRepository
	cache     *CacheService
	engine    *search.Engine
	validator *validate.Validator
	metrics   *MetricsService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewResourceService constructs the service.
func NewResourceService(repo ResourceRepository, cache *CacheService, engine *search.Engine, validator *validate.Validator, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *ResourceService {
	if engine == nil {
		engine = search.NewEngine()
	}
	if validator == nil {
		validator = validate.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{
		repo:      repo,
		cache:     cache,
		engine:    engine,
		validator: validator,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// RefreshIndex loads the catalog and rebuilds the search projection. Called at
// startup and after every mutation.
func (s *ResourceService) RefreshIndex(ctx context.Context) error {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog index: %w", err)
	}
	s.engine.Index(items)
	return nil
}

func (s *ResourceService) catalog(ctx context.Context) ([]models.Resource, error) {
	var items []models.Resource
	if hit, err := s.cache.Get(ctx, catalogCacheKey, &items); err == nil && hit {
		return items, nil
	}

	start := time.Now()
	items, err := s.repo.ListAll(ctx)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("resources_list_all", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load catalog")
	}

	if err := s.cache.Set(ctx, catalogCacheKey, items, s.cacheTTL); err != nil {
		s.logger.Warn("cache catalog snapshot", zap.Error(err))
	}
	return items, nil
}

// List applies the filter selection to the catalog and pages the result.
func (s *ResourceService) List(ctx context.Context, sel models.FilterSelection, page, limit int) ([]models.Resource, *models.Pagination, error) {
	items, err := s.catalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	filtered := filter.Apply(items, sel)

	pagination := models.NewPagination(page, limit, len(filtered))
	startIdx := (pagination.Page - 1) * pagination.PageSize
	if startIdx >= len(filtered) {
		return []models.Resource{}, pagination, nil
	}
	endIdx := startIdx + pagination.PageSize
	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}
	return filtered[startIdx:endIdx], pagination, nil
}

// Get returns one catalog entry.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.Resource, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load resource")
	}
	return item, nil
}

// Options derives the distinct filter axis values from the catalog.
func (s *ResourceService) Options(ctx context.Context) (models.FilterOptions, error) {
	items, err := s.catalog(ctx)
	if err != nil {
		return models.FilterOptions{}, err
	}
	return filter.Options(items), nil
}

// Search runs a relevance-ranked query constrained by the filter selection.
func (s *ResourceService) Search(ctx context.Context, query string, sel *models.FilterSelection, limit int) []models.Resource {
	if s.metrics != nil {
		s.metrics.RecordSearch()
	}
	return s.engine.Search(query, search.Options{Selection: sel, Limit: limit})
}

// Suggestions returns autocomplete candidates for the query prefix.
func (s *ResourceService) Suggestions(query string, limit int) []string {
	return s.engine.Suggestions(query, limit)
}

// Create validates and stores a new catalog entry, then refreshes derived state.
func (s *ResourceService) Create(ctx context.Context, item *models.Resource) error {
	if result := s.validator.Resource(item); !result.Valid {
		return appErrors.Wrap(fmt.Errorf("%d field errors", len(result.Errors)), appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, firstError(result))
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create resource")
	}
	s.afterMutation(ctx)
	return nil
}

// Update validates and rewrites an entry, then refreshes derived state.
func (s *ResourceService) Update(ctx context.Context, item *models.Resource) error {
	if result := s.validator.Resource(item); !result.Valid {
		return appErrors.Wrap(fmt.Errorf("%d field errors", len(result.Errors)), appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, firstError(result))
	}
	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update resource")
	}
	s.afterMutation(ctx)
	return nil
}

// Delete removes an entry, then refreshes derived state.
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete resource")
	}
	s.afterMutation(ctx)
	return nil
}

// RecordDownload bumps the popularity counter and instrumentation for a
// served download.
func (s *ResourceService) RecordDownload(ctx context.Context, id string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.IncrementDownloads(ctx, id); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "record download")
	}
	if s.metrics != nil {
		s.metrics.RecordDownload(string(item.Category))
	}
	s.afterMutation(ctx)
	return nil
}

func (s *ResourceService) afterMutation(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("invalidate catalog cache", zap.Error(err))
	}
	if err := s.RefreshIndex(ctx); err != nil {
		s.logger.Warn("rebuild search index", zap.Error(err))
	}
}

func firstError(result validate.Result) string {
	if len(result.Errors) == 0 {
		return "validation failed"
	}
	first := result.Errors[0]
	return fmt.Sprintf("%s: %s", first.Field, first.Message)
}
