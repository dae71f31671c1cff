package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/dossiers-service/internal/model"
)

type dossierRow struct {
	ID              uuid.UUID
	DossierNumber   string
	CreationDate    time.Time
	Status          string
	NextDeadline    *string
	NextAction      *string
	AdditionalNotes *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r dossierRow) toModel() model.Dossier {
	return model.Dossier{
		ID:              r.ID,
		DossierNumber:   r.DossierNumber,
		CreationDate:    r.CreationDate,
		Status:          model.DossierStatus(r.Status),
		NextDeadline:    r.NextDeadline,
		NextAction:      r.NextAction,
		AdditionalNotes: r.AdditionalNotes,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type tenantRow struct {
	ID         uuid.UUID
	DossierID  uuid.UUID
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r tenantRow) toModel() model.Tenant {
	return model.Tenant{
		ID:         r.ID,
		DossierID:  r.DossierID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		City:       r.City,
		PostalCode: r.PostalCode,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type landlordRow struct {
	ID        uuid.UUID
	DossierID uuid.UUID
	Type      string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r landlordRow) toModel() model.Landlord {
	return model.Landlord{
		ID:        r.ID,
		DossierID: r.DossierID,
		Type:      model.LandlordType(r.Type),
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type unpaidAmountRow struct {
	ID              uuid.UUID
	DossierID       uuid.UUID
	Amount          float64
	Months          int
	Since           time.Time
	Reason          string
	PreviousActions *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r unpaidAmountRow) toModel() model.UnpaidAmount {
	return model.UnpaidAmount{
		ID:              r.ID,
		DossierID:       r.DossierID,
		Amount:          r.Amount,
		Months:          r.Months,
		Since:           r.Since,
		Reason:          model.UnpaidReason(r.Reason),
		PreviousActions: r.PreviousActions,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type statusTrackingRow struct {
	ID        uuid.UUID
	DossierID uuid.UUID
	Status    string
	Date      time.Time
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r statusTrackingRow) toModel() model.StatusTracking {
	return model.StatusTracking{
		ID:        r.ID,
		DossierID: r.DossierID,
		Status:    model.DossierStatus(r.Status),
		Date:      r.Date,
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
