package model

import (
	"time"

	"github.com/google/uuid"
)

// Diagnostic is the social and financial assessment attached to a dossier.
// Document keeps the form as submitted, keyed in camelCase.
type Diagnostic struct {
	DossierID uuid.UUID
	Document  map[string]any
	Bilan     Bilan
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Bilan struct {
	TotalRessources float64
	TotalCharges    float64
	ResteAVivre     float64
	TauxEffort      float64
}

// DossierDocument is the input of the printable dossier summary.
type DossierDocument struct {
	Dossier     Dossier
	Diagnostic  *Diagnostic
	GeneratedAt time.Time
}
