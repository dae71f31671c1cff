package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/nurpe/dossiers-service/internal/config"
	"github.com/nurpe/dossiers-service/internal/model"
)

// DossierReader is the read-only storage capability.
type DossierReader interface {
	GetDossier(ctx context.Context, id uuid.UUID) (*model.Dossier, error)
	ListDossiers(ctx context.Context, filter model.DossierFilter) ([]model.Dossier, error)
	DossierNumberExists(ctx context.Context, number string) (bool, error)
	GetTenant(ctx context.Context, dossierID uuid.UUID) (*model.Tenant, error)
	GetLandlord(ctx context.Context, dossierID uuid.UUID) (*model.Landlord, error)
	GetUnpaidAmount(ctx context.Context, dossierID uuid.UUID) (*model.UnpaidAmount, error)
	ListStatusHistory(ctx context.Context, dossierID uuid.UUID) ([]model.StatusTracking, error)
	Ping(ctx context.Context) error
}

// DossierWriter is the read-write storage capability. Every method is a
// single transaction.
type DossierWriter interface {
	CreateDossier(ctx context.Context, d model.Dossier) error
	ApplyPatch(ctx context.Context, id uuid.UUID, patch model.DossierPatch, history *model.StatusTracking, now time.Time) error
	DeleteDossier(ctx context.Context, id uuid.UUID) error
}

type DossierService struct {
	reader              DossierReader
	writer              DossierWriter
	log                 zerolog.Logger
	listConcurrency     int
	enforceUniqueNumber bool
	now                 func() time.Time
}

func NewDossierService(reader DossierReader, writer DossierWriter, log zerolog.Logger, cfg *config.Config) *DossierService {
	concurrency := cfg.Dossiers.ListConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &DossierService{
		reader:              reader,
		writer:              writer,
		log:                 log.With().Str("component", "dossier_service").Logger(),
		listConcurrency:     concurrency,
		enforceUniqueNumber: cfg.Dossiers.EnforceUniqueNumber,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *DossierService) Create(ctx context.Context, draft model.DossierDraft) (*model.Dossier, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	if s.enforceUniqueNumber {
		exists, err := s.reader.DossierNumberExists(ctx, draft.DossierNumber)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: dossier number %s", ErrAlreadyExists, draft.DossierNumber)
		}
	}

	now := s.now()
	dossierID := uuid.New()
	dossier := model.Dossier{
		ID:              dossierID,
		DossierNumber:   draft.DossierNumber,
		CreationDate:    dateOnly(draft.CreationDate),
		Status:          draft.Status,
		NextDeadline:    draft.NextDeadline,
		NextAction:      draft.NextAction,
		AdditionalNotes: draft.AdditionalNotes,
		CreatedAt:       now,
		UpdatedAt:       now,
		Tenant: model.Tenant{
			ID:         uuid.New(),
			DossierID:  dossierID,
			FirstName:  draft.Tenant.FirstName,
			LastName:   draft.Tenant.LastName,
			Email:      draft.Tenant.Email,
			Phone:      draft.Tenant.Phone,
			Address:    draft.Tenant.Address,
			City:       draft.Tenant.City,
			PostalCode: draft.Tenant.PostalCode,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Landlord: model.Landlord{
			ID:        uuid.New(),
			DossierID: dossierID,
			Type:      draft.Landlord.Type,
			Name:      draft.Landlord.Name,
			Email:     draft.Landlord.Email,
			Phone:     draft.Landlord.Phone,
			CreatedAt: now,
			UpdatedAt: now,
		},
		UnpaidAmount: model.UnpaidAmount{
			ID:              uuid.New(),
			DossierID:       dossierID,
			Amount:          draft.UnpaidAmount.Amount,
			Months:          draft.UnpaidAmount.Months,
			Since:           dateOnly(draft.UnpaidAmount.Since),
			Reason:          draft.UnpaidAmount.Reason,
			PreviousActions: draft.UnpaidAmount.PreviousActions,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		StatusHistory: []model.StatusTracking{
			newStatusEntry(dossierID, draft.Status, now),
		},
	}

	if err := s.writer.CreateDossier(ctx, dossier); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: dossier number %s", ErrAlreadyExists, draft.DossierNumber)
		}
		return nil, err
	}

	s.log.Info().Str("dossier_id", dossierID.String()).Str("dossier_number", dossier.DossierNumber).Msg("dossier created")
	return &dossier, nil
}

// GetByID returns ErrNotFound when the dossier row is absent or when any of
// its required child records is missing.
func (s *DossierService) GetByID(ctx context.Context, id uuid.UUID) (*model.Dossier, error) {
	dossier, err := s.reader.GetDossier(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	complete, err := s.assemble(ctx, dossier)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, ErrNotFound
	}
	return dossier, nil
}

// List returns complete dossiers, newest first. Incomplete ones are skipped
// and reported in the log.
func (s *DossierService) List(ctx context.Context, filter model.DossierFilter) ([]model.Dossier, error) {
	filter.DossierNumber = strings.TrimSpace(filter.DossierNumber)
	dossiers, err := s.reader.ListDossiers(ctx, filter)
	if err != nil {
		return nil, err
	}

	complete := make([]bool, len(dossiers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.listConcurrency)
	for i := range dossiers {
		g.Go(func() error {
			ok, err := s.assemble(gctx, &dossiers[i])
			if err != nil {
				return err
			}
			complete[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]model.Dossier, 0, len(dossiers))
	for i, dossier := range dossiers {
		if complete[i] {
			result = append(result, dossier)
		}
	}
	return result, nil
}

// Update applies the supplied fields and appends a status entry when the
// status actually changes.
func (s *DossierService) Update(ctx context.Context, id uuid.UUID, patch model.DossierPatch) (*model.Dossier, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var history *model.StatusTracking
	if patch.Status.Set && patch.Status.Value != existing.Status {
		entry := newStatusEntry(id, patch.Status.Value, now)
		history = &entry
	}
	if patch.UnpaidAmount != nil && patch.UnpaidAmount.Since.Set {
		patch.UnpaidAmount.Since.Value = dateOnly(patch.UnpaidAmount.Since.Value)
	}

	if err := s.writer.ApplyPatch(ctx, id, patch, history, now); err != nil {
		return nil, err
	}
	if history != nil {
		s.log.Info().
			Str("dossier_id", id.String()).
			Str("from", string(existing.Status)).
			Str("to", string(history.Status)).
			Msg("dossier status changed")
	}

	return s.GetByID(ctx, id)
}

func (s *DossierService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.writer.DeleteDossier(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info().Str("dossier_id", id.String()).Msg("dossier deleted")
	return nil
}

func (s *DossierService) Health(ctx context.Context) error {
	return s.reader.Ping(ctx)
}

// assemble loads the child records of dossier in place. It reports false when
// the aggregate is incomplete.
func (s *DossierService) assemble(ctx context.Context, dossier *model.Dossier) (bool, error) {
	var (
		tenant   *model.Tenant
		landlord *model.Landlord
		unpaid   *model.UnpaidAmount
		history  []model.StatusTracking
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tenant, err = optional(s.reader.GetTenant(gctx, dossier.ID))
		return err
	})
	g.Go(func() error {
		var err error
		landlord, err = optional(s.reader.GetLandlord(gctx, dossier.ID))
		return err
	})
	g.Go(func() error {
		var err error
		unpaid, err = optional(s.reader.GetUnpaidAmount(gctx, dossier.ID))
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.reader.ListStatusHistory(gctx, dossier.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	var missing []string
	if tenant == nil {
		missing = append(missing, "tenant")
	}
	if landlord == nil {
		missing = append(missing, "landlord")
	}
	if unpaid == nil {
		missing = append(missing, "unpaid_amount")
	}
	if len(history) == 0 {
		missing = append(missing, "status_history")
	}
	if len(missing) > 0 {
		s.log.Warn().
			Str("dossier_id", dossier.ID.String()).
			Str("dossier_number", dossier.DossierNumber).
			Strs("missing", missing).
			Msg("dossier has missing related data")
		return false, nil
	}

	dossier.Tenant = *tenant
	dossier.Landlord = *landlord
	dossier.UnpaidAmount = *unpaid
	dossier.StatusHistory = history
	return true, nil
}

// optional turns a not-found lookup into a nil result.
func optional[T any](value *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return value, err
}

func newStatusEntry(dossierID uuid.UUID, status model.DossierStatus, now time.Time) model.StatusTracking {
	return model.StatusTracking{
		ID:        uuid.New(),
		DossierID: dossierID,
		Status:    status,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
