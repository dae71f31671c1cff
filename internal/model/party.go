package model

import (
	"time"

	"github.com/google/uuid"
)

type LandlordType string

const (
	LandlordTypePrivate LandlordType = "private"
	LandlordTypeSocial  LandlordType = "social"
	LandlordTypeCompany LandlordType = "company"
)

type Tenant struct {
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

type TenantDraft struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
}

type TenantPatch struct {
	FirstName  Optional[string]
	LastName   Optional[string]
	Email      Optional[string]
	Phone      Optional[string]
	Address    Optional[string]
	City       Optional[string]
	PostalCode Optional[string]
}

type Landlord struct {
	ID        uuid.UUID
	DossierID uuid.UUID
	Type      LandlordType
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LandlordDraft struct {
	Type  LandlordType
	Name  string
	Email string
	Phone string
}

type LandlordPatch struct {
	Type  Optional[LandlordType]
	Name  Optional[string]
	Email Optional[string]
	Phone Optional[string]
}
