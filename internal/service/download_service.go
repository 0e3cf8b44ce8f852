package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-resource-portal/internal/analytics"
	"github.com/noah-isme/edu-resource-portal/internal/download"
	"github.com/noah-isme/edu-resource-portal/internal/models"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
	"github.com/noah-isme/edu-resource-portal/pkg/export"
	"github.com/noah-isme/edu-resource-portal/pkg/storage"
)

// DownloadService ties the catalog to the fetch manager: it issues signed
// download tokens, runs batch downloads, and exposes the persisted history.
type DownloadService struct {
	resources *ResourceService
	manager   *download.Manager
	history   *download.History
	signer    *storage.SignedURLSigner
	tracker   *analytics.Tracker
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewDownloadService constructs the service.
func NewDownloadService(resources *ResourceService, manager *download.Manager, history *download.History, signer *storage.SignedURLSigner, tracker *analytics.Tracker, logger *zap.Logger) *DownloadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadService{
		resources: resources,
		manager:   manager,
		history:   history,
		signer:    signer,
		tracker:   tracker,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// SignedDownload holds a freshly issued download grant.
type SignedDownload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	FileSize  string    `json:"fileSize"`
}

// RequestDownload verifies the resource, issues a signed token for it, bumps
// the popularity counter and schedules a background prefetch of the source
// file. The caller gets its token immediately; fetching happens off-request.
func (s *DownloadService) RequestDownload(ctx context.Context, resourceID string) (*SignedDownload, error) {
	item, err := s.resources.Get(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	filename := path.Base(item.FileURL)
	token, expiresAt, err := s.signer.Generate(item.ID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign download url")
	}

	if err := s.resources.RecordDownload(ctx, item.ID); err != nil {
		s.logger.Warn("record download", zap.String("resource", item.ID), zap.Error(err))
	}
	if s.tracker != nil {
		s.tracker.TrackDownload(ctx, item.ID, item.Title, true)
	}

	if err := s.manager.EnqueuePrefetch(download.FetchRequest{
		ResourceID: item.ID,
		URL:        item.FileURL,
		Filename:   filename,
		Title:      item.Title,
		Type:       downloadType(item.Category),
		FileSize:   item.FileSize,
	}); err != nil {
		s.logger.Warn("enqueue prefetch", zap.String("resource", item.ID), zap.Error(err))
	}

	return &SignedDownload{Token: token, ExpiresAt: expiresAt, FileSize: item.FileSize}, nil
}

// ResolveToken validates a signed token and returns the resource and file it
// grants access to.
func (s *DownloadService) ResolveToken(token string) (resourceID, filename string, err error) {
	resourceID, filename, _, err = s.signer.Parse(token, false)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	return resourceID, filename, nil
}

// DownloadBatch fetches the referenced resources sequentially and reports the
// per-item outcomes.
func (s *DownloadService) DownloadBatch(ctx context.Context, resourceIDs []string) (models.BatchDownloadReport, error) {
	if len(resourceIDs) == 0 {
		return models.BatchDownloadReport{}, appErrors.Clone(appErrors.ErrValidation, "at least one resource id required")
	}

	items := make([]models.BatchDownloadItem, 0, len(resourceIDs))
	var report models.BatchDownloadReport
	for _, id := range resourceIDs {
		item, err := s.resources.Get(ctx, id)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: not found", id))
			continue
		}
		items = append(items, models.BatchDownloadItem{
			ResourceID: item.ID,
			URL:        item.FileURL,
			Filename:   path.Base(item.FileURL),
			Title:      item.Title,
		})
	}

	fetched := s.manager.FetchBatch(ctx, items)
	report.Total = len(resourceIDs)
	report.Succeeded = fetched.Succeeded
	report.Failed += fetched.Failed
	report.Errors = append(report.Errors, fetched.Errors...)

	for _, item := range items {
		if s.tracker != nil {
			s.tracker.TrackDownload(ctx, item.ResourceID, item.Title, true)
		}
	}
	return report, nil
}

// ProbeSize reports the formatted remote size of a resource's source file.
func (s *DownloadService) ProbeSize(ctx context.Context, resourceID string) (string, error) {
	item, err := s.resources.Get(ctx, resourceID)
	if err != nil {
		return "", err
	}
	return s.manager.ProbeSize(ctx, item.FileURL), nil
}

// History returns recorded downloads, newest first.
func (s *DownloadService) History(ctx context.Context) []models.DownloadRecord {
	return s.history.List(ctx)
}

// ClearHistory wipes the recorded downloads.
func (s *DownloadService) ClearHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

// Stats summarizes history outcomes.
func (s *DownloadService) Stats(ctx context.Context) models.DownloadStats {
	return s.history.Stats(ctx)
}

// ExportHistoryCSV renders the history as CSV bytes.
func (s *DownloadService) ExportHistoryCSV(ctx context.Context) ([]byte, error) {
	return s.csv.Render(s.history.Dataset(ctx))
}

// ExportHistoryPDF renders the history as a tabular PDF.
func (s *DownloadService) ExportHistoryPDF(ctx context.Context) ([]byte, error) {
	return s.pdf.Render(s.history.Dataset(ctx), "Download History")
}

func downloadType(category models.ResourceCategory) models.DownloadType {
	switch category {
	case models.CategoryPastPaper:
		return models.DownloadTypePaper
	case models.CategoryTextbook:
		return models.DownloadTypeTextbook
	default:
		return models.DownloadTypeResource
	}
}
