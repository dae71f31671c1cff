package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/dossiers-service/internal/model"
)

const dateLayout = "2006-01-02"

type tenantRequest struct {
	FirstName  string `json:"firstName" binding:"required,notblank"`
	LastName   string `json:"lastName" binding:"required,notblank"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required,notblank"`
	Address    string `json:"address" binding:"required,notblank"`
	City       string `json:"city" binding:"required,notblank"`
	PostalCode string `json:"postalCode" binding:"required,notblank"`
}

type landlordRequest struct {
	Type  string `json:"type" binding:"required,oneof=private social company"`
	Name  string `json:"name" binding:"required,notblank"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,notblank"`
}

type unpaidAmountRequest struct {
	Amount          *float64 `json:"amount" binding:"required,min=0"`
	Months          int      `json:"months" binding:"required,min=1"`
	Since           string   `json:"since" binding:"required,notblank"`
	Reason          string   `json:"reason" binding:"required,oneof=unemployment health separation financial other"`
	PreviousActions *string  `json:"previousActions"`
}

type createDossierRequest struct {
	DossierNumber   string              `json:"dossierNumber" binding:"required,notblank"`
	CreationDate    string              `json:"creationDate" binding:"required,notblank"`
	Status          string              `json:"status" binding:"required,oneof=en_attente en_cours procedure_judiciaire plan_apurement resolu expulsion_programmee"`
	Tenant          tenantRequest       `json:"tenant"`
	Landlord        landlordRequest     `json:"landlord"`
	UnpaidAmount    unpaidAmountRequest `json:"unpaidAmount"`
	NextDeadline    *string             `json:"nextDeadline"`
	NextAction      *string             `json:"nextAction"`
	AdditionalNotes *string             `json:"additionalNotes"`
}

// Patch requests use model.Optional so that an omitted key, an explicit null
// and a value stay distinct. The validator sees the inner value.
type tenantPatchRequest struct {
	FirstName  model.Optional[string] `json:"firstName" binding:"omitempty,notblank"`
	LastName   model.Optional[string] `json:"lastName" binding:"omitempty,notblank"`
	Email      model.Optional[string] `json:"email" binding:"omitempty,email"`
	Phone      model.Optional[string] `json:"phone" binding:"omitempty,notblank"`
	Address    model.Optional[string] `json:"address" binding:"omitempty,notblank"`
	City       model.Optional[string] `json:"city" binding:"omitempty,notblank"`
	PostalCode model.Optional[string] `json:"postalCode" binding:"omitempty,notblank"`
}

type landlordPatchRequest struct {
	Type  model.Optional[string] `json:"type" binding:"omitempty,oneof=private social company"`
	Name  model.Optional[string] `json:"name" binding:"omitempty,notblank"`
	Email model.Optional[string] `json:"email" binding:"omitempty,email"`
	Phone model.Optional[string] `json:"phone" binding:"omitempty,notblank"`
}

type unpaidAmountPatchRequest struct {
	Amount          model.Optional[float64] `json:"amount" binding:"omitempty,min=0"`
	Months          model.Optional[int]     `json:"months" binding:"omitempty,min=1"`
	Since           model.Optional[string]  `json:"since" binding:"omitempty,notblank"`
	Reason          model.Optional[string]  `json:"reason" binding:"omitempty,oneof=unemployment health separation financial other"`
	PreviousActions model.Optional[string]  `json:"previousActions"`
}

type updateDossierRequest struct {
	Status          model.Optional[string]    `json:"status" binding:"omitempty,oneof=en_attente en_cours procedure_judiciaire plan_apurement resolu expulsion_programmee"`
	Tenant          *tenantPatchRequest       `json:"tenant"`
	Landlord        *landlordPatchRequest     `json:"landlord"`
	UnpaidAmount    *unpaidAmountPatchRequest `json:"unpaidAmount"`
	NextDeadline    model.Optional[string]    `json:"nextDeadline"`
	NextAction      model.Optional[string]    `json:"nextAction"`
	AdditionalNotes model.Optional[string]    `json:"additionalNotes"`
}

type tenantResponse struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	PostalCode string    `json:"postalCode"`
	DossierID  uuid.UUID `json:"dossierId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type landlordResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	DossierID uuid.UUID `json:"dossierId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type unpaidAmountResponse struct {
	ID              uuid.UUID `json:"id"`
	Amount          float64   `json:"amount"`
	Months          int       `json:"months"`
	Since           string    `json:"since"`
	Reason          string    `json:"reason"`
	PreviousActions *string   `json:"previousActions,omitempty"`
	DossierID       uuid.UUID `json:"dossierId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type statusTrackingResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
	Notes     *string   `json:"notes,omitempty"`
	DossierID uuid.UUID `json:"dossierId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type dossierResponse struct {
	ID              uuid.UUID                `json:"id"`
	DossierNumber   string                   `json:"dossierNumber"`
	CreationDate    string                   `json:"creationDate"`
	Status          string                   `json:"status"`
	Tenant          tenantResponse           `json:"tenant"`
	Landlord        landlordResponse         `json:"landlord"`
	UnpaidAmount    unpaidAmountResponse     `json:"unpaidAmount"`
	StatusHistory   []statusTrackingResponse `json:"statusHistory"`
	NextDeadline    *string                  `json:"nextDeadline,omitempty"`
	NextAction      *string                  `json:"nextAction,omitempty"`
	AdditionalNotes *string                  `json:"additionalNotes,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

type bilanResponse struct {
	TotalRessources float64 `json:"totalRessources"`
	TotalCharges    float64 `json:"totalCharges"`
	ResteAVivre     float64 `json:"resteAVivre"`
	TauxEffort      float64 `json:"tauxEffort"`
}

type diagnosticResponse struct {
	DossierID uuid.UUID      `json:"dossierId"`
	Document  map[string]any `json:"document"`
	Bilan     bilanResponse  `json:"bilan"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func toDossierResponse(d model.Dossier) dossierResponse {
	history := make([]statusTrackingResponse, 0, len(d.StatusHistory))
	for _, entry := range d.StatusHistory {
		history = append(history, statusTrackingResponse{
			ID:        entry.ID,
			Status:    string(entry.Status),
			Date:      entry.Date,
			Notes:     entry.Notes,
			DossierID: entry.DossierID,
			CreatedAt: entry.CreatedAt,
			UpdatedAt: entry.UpdatedAt,
		})
	}

	return dossierResponse{
		ID:            d.ID,
		DossierNumber: d.DossierNumber,
		CreationDate:  formatDate(d.CreationDate),
		Status:        string(d.Status),
		Tenant: tenantResponse{
			ID:         d.Tenant.ID,
			FirstName:  d.Tenant.FirstName,
			LastName:   d.Tenant.LastName,
			Email:      d.Tenant.Email,
			Phone:      d.Tenant.Phone,
			Address:    d.Tenant.Address,
			City:       d.Tenant.City,
			PostalCode: d.Tenant.PostalCode,
			DossierID:  d.Tenant.DossierID,
			CreatedAt:  d.Tenant.CreatedAt,
			UpdatedAt:  d.Tenant.UpdatedAt,
		},
		Landlord: landlordResponse{
			ID:        d.Landlord.ID,
			Type:      string(d.Landlord.Type),
			Name:      d.Landlord.Name,
			Email:     d.Landlord.Email,
			Phone:     d.Landlord.Phone,
			DossierID: d.Landlord.DossierID,
			CreatedAt: d.Landlord.CreatedAt,
			UpdatedAt: d.Landlord.UpdatedAt,
		},
		UnpaidAmount: unpaidAmountResponse{
			ID:              d.UnpaidAmount.ID,
			Amount:          d.UnpaidAmount.Amount,
			Months:          d.UnpaidAmount.Months,
			Since:           formatDate(d.UnpaidAmount.Since),
			Reason:          string(d.UnpaidAmount.Reason),
			PreviousActions: d.UnpaidAmount.PreviousActions,
			DossierID:       d.UnpaidAmount.DossierID,
			CreatedAt:       d.UnpaidAmount.CreatedAt,
			UpdatedAt:       d.UnpaidAmount.UpdatedAt,
		},
		StatusHistory:   history,
		NextDeadline:    d.NextDeadline,
		NextAction:      d.NextAction,
		AdditionalNotes: d.AdditionalNotes,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toDiagnosticResponse(d model.Diagnostic) diagnosticResponse {
	return diagnosticResponse{
		DossierID: d.DossierID,
		Document:  d.Document,
		Bilan: bilanResponse{
			TotalRessources: d.Bilan.TotalRessources,
			TotalCharges:    d.Bilan.TotalCharges,
			ResteAVivre:     d.Bilan.ResteAVivre,
			TauxEffort:      d.Bilan.TauxEffort,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
