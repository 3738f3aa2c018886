package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fdg312/nutri-coach/internal/blob"
	"github.com/fdg312/nutri-coach/internal/mealplans"
	"github.com/fdg312/nutri-coach/internal/profiles"
	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/fdg312/nutri-coach/internal/userctx"
)

// Errors
var (
	ErrInvalidFormat  = errors.New("invalid format")
	ErrPlanNotFound   = errors.New("meal plan not found")
	ErrReportNotFound = errors.New("report not found")
)

// PlanSource loads the owner's current plan.
type PlanSource interface {
	Current(ctx context.Context, ownerUserID string) (*mealplans.PlanSnapshot, bool, error)
}

// ProfileSource loads the owner's profile for the export header.
type ProfileSource interface {
	GetForOwner(ctx context.Context, ownerUserID string) (profiles.StoredProfile, error)
}

type Options struct {
	PresignTTL      int
	PublicBaseURL   string // S3 public base URL (if prefer_public_url mode)
	PreferPublicURL bool   // if true, use public URLs instead of presigned
}

// Service handles plan exports
type Service struct {
	reportsStorage storage.ReportsStorage
	plans          PlanSource
	profiles       ProfileSource
	generator      *Generator
	blobStore      blob.Store
	localMode      bool // true if no S3 configured
	opts           Options
}

// NewService creates a new reports service; a nil blobStore keeps export
// bytes in the metadata storage.
func NewService(reportsStorage storage.ReportsStorage, plans PlanSource, profileSource ProfileSource, blobStore blob.Store, opts Options) *Service {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 900
	}
	return &Service{
		reportsStorage: reportsStorage,
		plans:          plans,
		profiles:       profileSource,
		generator:      NewGenerator(),
		blobStore:      blobStore,
		localMode:      blobStore == nil,
		opts:           opts,
	}
}

// CreateReport exports the current plan.
func (s *Service) CreateReport(ctx context.Context, req CreateReportRequest) (*Report, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	owner := userctx.OwnerID(ctx)

	snap, found, err := s.plans.Current(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPlanNotFound
	}

	in := PlanExport{
		Title:    fmt.Sprintf("Plan diario %s", snap.GeneratedAt.Format("2006-01-02")),
		Snapshot: snap,
	}
	if sp, err := s.profiles.GetForOwner(ctx, owner); err == nil {
		in.Profile = &sp.Profile
	} else if !errors.Is(err, profiles.ErrProfileNotFound) {
		return nil, err
	}

	data, err := s.generator.Generate(format, in)
	if err != nil {
		return nil, fmt.Errorf("failed to generate export: %w", err)
	}

	report := &storage.ReportMeta{
		ID:          uuid.New(),
		OwnerUserID: owner,
		Format:      format,
		Title:       in.Title,
		SizeBytes:   int64(len(data)),
		Status:      StatusReady,
	}

	if s.localMode {
		report.Data = data
	} else {
		objectKey := fmt.Sprintf("%s/%s.%s", owner, report.ID.String(), format)
		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentTypeFor(format)); err != nil {
			return nil, fmt.Errorf("failed to upload export: %w", err)
		}
		report.ObjectKey = &objectKey
	}

	if err := s.reportsStorage.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	log.Info().
		Str("owner", owner).
		Str("report_id", report.ID.String()).
		Str("format", format).
		Int64("size_bytes", report.SizeBytes).
		Bool("local", s.localMode).
		Msg("plan exported")

	return toReport(report), nil
}

// GetReport retrieves a report owned by the caller.
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	meta, err := s.ownedReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReport(meta), nil
}

func (s *Service) ListReports(ctx context.Context, limit, offset int) ([]Report, error) {
	metaList, err := s.reportsStorage.ListReports(ctx, userctx.OwnerID(ctx), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]Report, len(metaList))
	for i := range metaList {
		reports[i] = *toReport(&metaList[i])
	}
	return reports, nil
}

func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	meta, err := s.ownedReport(ctx, id)
	if err != nil {
		return err
	}

	if !s.localMode && meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			log.Warn().Err(err).Str("report_id", id.String()).Msg("failed to delete export object")
		}
	}

	if err := s.reportsStorage.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("failed to delete report metadata: %w", err)
	}
	return nil
}

// DownloadURL returns where the export can be fetched.
func (s *Service) DownloadURL(ctx context.Context, report *Report, baseURL string) (string, error) {
	if s.localMode || report.ObjectKey == nil {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimSuffix(baseURL, "/"), report.ID.String()), nil
	}

	if s.opts.PreferPublicURL && s.opts.PublicBaseURL != "" {
		return strings.TrimSuffix(s.opts.PublicBaseURL, "/") + "/" + blob.ExportsPrefix + *report.ObjectKey, nil
	}

	presignedURL, err := s.blobStore.PresignGet(ctx, *report.ObjectKey, s.opts.PresignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedURL, nil
}

// LocalMode reports whether export bytes are kept in metadata storage.
func (s *Service) LocalMode() bool {
	return s.localMode
}

func (s *Service) ownedReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	meta, err := s.reportsStorage.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if meta.OwnerUserID != userctx.OwnerID(ctx) {
		return nil, ErrReportNotFound
	}
	return meta, nil
}

func toReport(meta *storage.ReportMeta) *Report {
	return &Report{
		ID:        meta.ID,
		Format:    meta.Format,
		Title:     meta.Title,
		ObjectKey: meta.ObjectKey,
		SizeBytes: meta.SizeBytes,
		Status:    meta.Status,
		Error:     meta.Error,
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
		Data:      meta.Data,
	}
}
