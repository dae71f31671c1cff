package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/dossiers-service/internal/model"
)

type PDFGenerator interface {
	Generate(doc model.DossierDocument) ([]byte, error)
}

type ExcelGenerator interface {
	Generate(dossiers []model.Dossier, generatedAt time.Time) ([]byte, error)
}

type ExportResult struct {
	FileName string
	Content  []byte
}

type ExportService struct {
	dossiers    *DossierService
	diagnostics *DiagnosticService
	pdf         PDFGenerator
	excel       ExcelGenerator
	now         func() time.Time
}

func NewExportService(dossiers *DossierService, diagnostics *DiagnosticService, pdf PDFGenerator, excel ExcelGenerator) *ExportService {
	return &ExportService{
		dossiers:    dossiers,
		diagnostics: diagnostics,
		pdf:         pdf,
		excel:       excel,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *ExportService) DossierPDF(ctx context.Context, id uuid.UUID) (*ExportResult, error) {
	dossier, err := s.dossiers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := model.DossierDocument{Dossier: *dossier, GeneratedAt: s.now()}
	diagnostic, err := s.diagnostics.Get(ctx, id)
	switch {
	case err == nil:
		doc.Diagnostic = diagnostic
	case errors.Is(err, ErrNotFound):
	default:
		return nil, err
	}

	content, err := s.pdf.Generate(doc)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("dossier-%s-%s.pdf", fileToken(dossier.DossierNumber, dossier.ID), doc.GeneratedAt.Format("20060102")),
		Content:  content,
	}, nil
}

func (s *ExportService) Register(ctx context.Context, filter model.DossierFilter) (*ExportResult, error) {
	dossiers, err := s.dossiers.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	generatedAt := s.now()
	content, err := s.excel.Generate(dossiers, generatedAt)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("dossiers-%s.xlsx", generatedAt.Format("20060102")),
		Content:  content,
	}, nil
}

func fileToken(number string, id uuid.UUID) string {
	token := sanitizeFileName(number)
	if token == "" {
		return id.String()
	}
	return token
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
