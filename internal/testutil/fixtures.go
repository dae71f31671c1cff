package testutil

import (
	"time"

	"github.com/nurpe/dossiers-service/internal/model"
)

func StringPtr(s string) *string {
	return &s
}

// DossierDraft returns a complete, valid create input.
func DossierDraft(number string) model.DossierDraft {
	return model.DossierDraft{
		DossierNumber: number,
		CreationDate:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Status:        model.DossierStatusPending,
		NextAction:    StringPtr("Appeler le bailleur"),
		Tenant: model.TenantDraft{
			FirstName:  "Marie",
			LastName:   "Dupont",
			Email:      "marie.dupont@example.fr",
			Phone:      "0601020304",
			Address:    "12 rue des Lilas",
			City:       "Lyon",
			PostalCode: "69003",
		},
		Landlord: model.LandlordDraft{
			Type:  model.LandlordTypeSocial,
			Name:  "Habitat Rhône",
			Email: "contact@habitat-rhone.fr",
			Phone: "0472000000",
		},
		UnpaidAmount: model.UnpaidAmountDraft{
			Amount: 1850.5,
			Months: 3,
			Since:  time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC),
			Reason: model.UnpaidReasonUnemployment,
		},
	}
}

// Clock is a manual time source that advances one second per call, so rows
// created in sequence get distinct, ordered timestamps.
type Clock struct {
	current time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{current: start.UTC()}
}

func (c *Clock) Now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}
