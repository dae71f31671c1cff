package model

// Labels used in printed and exported documents.

func (s DossierStatus) Label() string {
	switch s {
	case DossierStatusPending:
		return "En attente"
	case DossierStatusInProgress:
		return "En cours"
	case DossierStatusJudicial:
		return "Procédure judiciaire"
	case DossierStatusPaymentPlan:
		return "Plan d'apurement"
	case DossierStatusResolved:
		return "Résolu"
	case DossierStatusEviction:
		return "Expulsion programmée"
	default:
		return string(s)
	}
}

func (t LandlordType) Label() string {
	switch t {
	case LandlordTypePrivate:
		return "Bailleur privé"
	case LandlordTypeSocial:
		return "Bailleur social"
	case LandlordTypeCompany:
		return "Société"
	default:
		return string(t)
	}
}

func (r UnpaidReason) Label() string {
	switch r {
	case UnpaidReasonUnemployment:
		return "Perte d'emploi"
	case UnpaidReasonHealth:
		return "Problème de santé"
	case UnpaidReasonSeparation:
		return "Séparation"
	case UnpaidReasonFinancial:
		return "Difficultés financières"
	case UnpaidReasonOther:
		return "Autre"
	default:
		return string(r)
	}
}
