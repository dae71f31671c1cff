package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/dossiers-service/internal/casing"
	"github.com/nurpe/dossiers-service/internal/model"
)

type diagnosticRow struct {
	DossierID uuid.UUID      `gorm:"column:dossier_id;primaryKey"`
	Document  datatypes.JSON `gorm:"column:document"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (diagnosticRow) TableName() string {
	return "diagnostics"
}

// DiagnosticRepository stores diagnostic documents with snake_case keys and
// hands them back in camelCase.
type DiagnosticRepository struct {
	db *gorm.DB
}

func NewDiagnosticRepository(db *gorm.DB) *DiagnosticRepository {
	return &DiagnosticRepository{db: db}
}

func (r *DiagnosticRepository) GetDiagnostic(ctx context.Context, dossierID uuid.UUID) (*model.Diagnostic, error) {
	var row diagnosticRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT dossier_id, document, created_at, updated_at
		FROM diagnostics
		WHERE dossier_id = ?
		LIMIT 1
	`, dossierID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.DossierID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var stored map[string]any
	if err := json.Unmarshal(row.Document, &stored); err != nil {
		return nil, fmt.Errorf("decode diagnostic %s: %w", dossierID, err)
	}
	document, _ := casing.ToDomainCase(stored).(map[string]any)

	return &model.Diagnostic{
		DossierID: row.DossierID,
		Document:  document,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// UpsertDiagnostic replaces the document of a dossier, keeping created_at of
// an existing row.
func (r *DiagnosticRepository) UpsertDiagnostic(ctx context.Context, dossierID uuid.UUID, document map[string]any, now time.Time) error {
	payload, err := json.Marshal(casing.ToStorageCase(document))
	if err != nil {
		return fmt.Errorf("encode diagnostic %s: %w", dossierID, err)
	}

	row := diagnosticRow{
		DossierID: dossierID,
		Document:  datatypes.JSON(payload),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dossier_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&row).Error
}
