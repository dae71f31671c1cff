package service

import (
	"fmt"
	"strings"

	"github.com/nurpe/dossiers-service/internal/model"
)

func validateDraft(d model.DossierDraft) error {
	if strings.TrimSpace(d.DossierNumber) == "" {
		return fmt.Errorf("%w: dossier number is required", ErrInvalidInput)
	}
	if d.CreationDate.IsZero() {
		return fmt.Errorf("%w: creation date is required", ErrInvalidInput)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, d.Status)
	}

	t := d.Tenant
	for name, value := range map[string]string{
		"tenant first name":  t.FirstName,
		"tenant last name":   t.LastName,
		"tenant email":       t.Email,
		"tenant phone":       t.Phone,
		"tenant address":     t.Address,
		"tenant city":        t.City,
		"tenant postal code": t.PostalCode,
		"landlord name":      d.Landlord.Name,
		"landlord email":     d.Landlord.Email,
		"landlord phone":     d.Landlord.Phone,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
		}
	}

	if !validLandlordType(d.Landlord.Type) {
		return fmt.Errorf("%w: unknown landlord type %q", ErrInvalidInput, d.Landlord.Type)
	}
	return validateUnpaid(d.UnpaidAmount.Amount, d.UnpaidAmount.Months, d.UnpaidAmount.Reason, !d.UnpaidAmount.Since.IsZero())
}

func validatePatch(p model.DossierPatch) error {
	if p.Status.Set && (p.Status.Null || !p.Status.Value.Valid()) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, p.Status.Value)
	}

	if t := p.Tenant; t != nil {
		for name, value := range map[string]model.Optional[string]{
			"tenant first name":  t.FirstName,
			"tenant last name":   t.LastName,
			"tenant email":       t.Email,
			"tenant phone":       t.Phone,
			"tenant address":     t.Address,
			"tenant city":        t.City,
			"tenant postal code": t.PostalCode,
		} {
			if err := requiredText(name, value); err != nil {
				return err
			}
		}
	}

	if l := p.Landlord; l != nil {
		if l.Type.Set && (l.Type.Null || !validLandlordType(l.Type.Value)) {
			return fmt.Errorf("%w: unknown landlord type %q", ErrInvalidInput, l.Type.Value)
		}
		for name, value := range map[string]model.Optional[string]{
			"landlord name":  l.Name,
			"landlord email": l.Email,
			"landlord phone": l.Phone,
		} {
			if err := requiredText(name, value); err != nil {
				return err
			}
		}
	}

	if u := p.UnpaidAmount; u != nil {
		if u.Amount.Set && (u.Amount.Null || u.Amount.Value < 0) {
			return fmt.Errorf("%w: amount must be a positive number", ErrInvalidInput)
		}
		if u.Months.Set && (u.Months.Null || u.Months.Value < 1) {
			return fmt.Errorf("%w: months must be at least 1", ErrInvalidInput)
		}
		if u.Since.Set && (u.Since.Null || u.Since.Value.IsZero()) {
			return fmt.Errorf("%w: date of first unpaid is required", ErrInvalidInput)
		}
		if u.Reason.Set && (u.Reason.Null || !validReason(u.Reason.Value)) {
			return fmt.Errorf("%w: unknown reason %q", ErrInvalidInput, u.Reason.Value)
		}
	}
	return nil
}

func validateUnpaid(amount float64, months int, reason model.UnpaidReason, hasSince bool) error {
	if amount < 0 {
		return fmt.Errorf("%w: amount must be a positive number", ErrInvalidInput)
	}
	if months < 1 {
		return fmt.Errorf("%w: months must be at least 1", ErrInvalidInput)
	}
	if !hasSince {
		return fmt.Errorf("%w: date of first unpaid is required", ErrInvalidInput)
	}
	if !validReason(reason) {
		return fmt.Errorf("%w: unknown reason %q", ErrInvalidInput, reason)
	}
	return nil
}

func requiredText(name string, value model.Optional[string]) error {
	if value.Set && (value.Null || strings.TrimSpace(value.Value) == "") {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidInput, name)
	}
	return nil
}

func validLandlordType(t model.LandlordType) bool {
	switch t {
	case model.LandlordTypePrivate, model.LandlordTypeSocial, model.LandlordTypeCompany:
		return true
	}
	return false
}

func validReason(r model.UnpaidReason) bool {
	switch r {
	case model.UnpaidReasonUnemployment,
		model.UnpaidReasonHealth,
		model.UnpaidReasonSeparation,
		model.UnpaidReasonFinancial,
		model.UnpaidReasonOther:
		return true
	}
	return false
}
