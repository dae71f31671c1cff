package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/dossiers-service/internal/model"
)

type DiagnosticStore interface {
	GetDiagnostic(ctx context.Context, dossierID uuid.UUID) (*model.Diagnostic, error)
	UpsertDiagnostic(ctx context.Context, dossierID uuid.UUID, document map[string]any, now time.Time) error
}

type dossierGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Dossier, error)
}

type DiagnosticService struct {
	dossiers dossierGetter
	store    DiagnosticStore
	log      zerolog.Logger
	now      func() time.Time
}

func NewDiagnosticService(dossiers dossierGetter, store DiagnosticStore, log zerolog.Logger) *DiagnosticService {
	return &DiagnosticService{
		dossiers: dossiers,
		store:    store,
		log:      log.With().Str("component", "diagnostic_service").Logger(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *DiagnosticService) Get(ctx context.Context, dossierID uuid.UUID) (*model.Diagnostic, error) {
	if _, err := s.dossiers.GetByID(ctx, dossierID); err != nil {
		return nil, err
	}
	diagnostic, err := s.store.GetDiagnostic(ctx, dossierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	diagnostic.Bilan = ComputeBilan(diagnostic.Document)
	return diagnostic, nil
}

// Save replaces the diagnostic of a dossier. The financial summary under
// situationFinanciere.bilanFinancier is recomputed from the submitted figures.
func (s *DiagnosticService) Save(ctx context.Context, dossierID uuid.UUID, document map[string]any) (*model.Diagnostic, error) {
	if document == nil {
		return nil, fmt.Errorf("%w: diagnostic document is required", ErrInvalidInput)
	}
	if _, err := s.dossiers.GetByID(ctx, dossierID); err != nil {
		return nil, err
	}

	bilan := ComputeBilan(document)
	situation, _ := document["situationFinanciere"].(map[string]any)
	if situation == nil {
		situation = map[string]any{}
		document["situationFinanciere"] = situation
	}
	situation["bilanFinancier"] = map[string]any{
		"totalRessources": bilan.TotalRessources,
		"totalCharges":    bilan.TotalCharges,
		"resteAVivre":     bilan.ResteAVivre,
		"tauxEffort":      bilan.TauxEffort,
	}

	if err := s.store.UpsertDiagnostic(ctx, dossierID, document, s.now()); err != nil {
		return nil, err
	}
	s.log.Info().Str("dossier_id", dossierID.String()).Msg("diagnostic saved")
	return s.Get(ctx, dossierID)
}

// ComputeBilan sums resources and charges (array charges included), derives
// the remaining income and the housing effort rate (rent over resources).
func ComputeBilan(document map[string]any) model.Bilan {
	situation, _ := document["situationFinanciere"].(map[string]any)
	resources, _ := situation["ressources"].(map[string]any)
	charges, _ := situation["charges"].(map[string]any)

	var bilan model.Bilan
	for _, value := range resources {
		if n, ok := number(value); ok {
			bilan.TotalRessources += n
		}
	}
	for _, value := range charges {
		if items, ok := value.([]any); ok {
			for _, item := range items {
				if n, ok := number(item); ok {
					bilan.TotalCharges += n
				}
			}
			continue
		}
		if n, ok := number(value); ok {
			bilan.TotalCharges += n
		}
	}

	bilan.ResteAVivre = bilan.TotalRessources - bilan.TotalCharges
	if bilan.TotalRessources > 0 {
		rent, _ := number(charges["loyer"])
		bilan.TauxEffort = rent / bilan.TotalRessources
	}
	return bilan
}

func number(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
