package model

import (
	"time"

	"github.com/google/uuid"
)

type DossierStatus string

const (
	DossierStatusPending     DossierStatus = "en_attente"
	DossierStatusInProgress  DossierStatus = "en_cours"
	DossierStatusJudicial    DossierStatus = "procedure_judiciaire"
	DossierStatusPaymentPlan DossierStatus = "plan_apurement"
	DossierStatusResolved    DossierStatus = "resolu"
	DossierStatusEviction    DossierStatus = "expulsion_programmee"
)

var DossierStatuses = []DossierStatus{
	DossierStatusPending,
	DossierStatusInProgress,
	DossierStatusJudicial,
	DossierStatusPaymentPlan,
	DossierStatusResolved,
	DossierStatusEviction,
}

// Valid reports membership only. Any status may follow any other.
func (s DossierStatus) Valid() bool {
	for _, status := range DossierStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Dossier struct {
	ID              uuid.UUID
	DossierNumber   string
	CreationDate    time.Time
	Status          DossierStatus
	NextDeadline    *string
	NextAction      *string
	AdditionalNotes *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Tenant        Tenant
	Landlord      Landlord
	UnpaidAmount  UnpaidAmount
	StatusHistory []StatusTracking // most recent first
}

type StatusTracking struct {
	ID        uuid.UUID
	DossierID uuid.UUID
	Status    DossierStatus
	Date      time.Time
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DossierDraft is the create input: every child record present, no ids or timestamps.
type DossierDraft struct {
	DossierNumber   string
	CreationDate    time.Time
	Status          DossierStatus
	NextDeadline    *string
	NextAction      *string
	AdditionalNotes *string
	Tenant          TenantDraft
	Landlord        LandlordDraft
	UnpaidAmount    UnpaidAmountDraft
}

type DossierPatch struct {
	Status          Optional[DossierStatus]
	NextDeadline    Optional[string]
	NextAction      Optional[string]
	AdditionalNotes Optional[string]
	Tenant          *TenantPatch
	Landlord        *LandlordPatch
	UnpaidAmount    *UnpaidAmountPatch
}

// HasDossierFields reports whether the patch touches the dossiers row itself.
func (p DossierPatch) HasDossierFields() bool {
	return p.Status.Set || p.NextDeadline.Set || p.NextAction.Set || p.AdditionalNotes.Set
}

type DossierFilter struct {
	DossierNumber string
}
