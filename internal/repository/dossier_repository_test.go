package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/dossiers-service/internal/model"
	"github.com/nurpe/dossiers-service/internal/testutil"
)

func newDossier(number string, createdAt time.Time) model.Dossier {
	id := uuid.New()
	draft := testutil.DossierDraft(number)
	return model.Dossier{
		ID:            id,
		DossierNumber: number,
		CreationDate:  draft.CreationDate,
		Status:        draft.Status,
		NextAction:    draft.NextAction,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
		Tenant: model.Tenant{
			ID:         uuid.New(),
			DossierID:  id,
			FirstName:  draft.Tenant.FirstName,
			LastName:   draft.Tenant.LastName,
			Email:      draft.Tenant.Email,
			Phone:      draft.Tenant.Phone,
			Address:    draft.Tenant.Address,
			City:       draft.Tenant.City,
			PostalCode: draft.Tenant.PostalCode,
			CreatedAt:  createdAt,
			UpdatedAt:  createdAt,
		},
		Landlord: model.Landlord{
			ID:        uuid.New(),
			DossierID: id,
			Type:      draft.Landlord.Type,
			Name:      draft.Landlord.Name,
			Email:     draft.Landlord.Email,
			Phone:     draft.Landlord.Phone,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		UnpaidAmount: model.UnpaidAmount{
			ID:        uuid.New(),
			DossierID: id,
			Amount:    draft.UnpaidAmount.Amount,
			Months:    draft.UnpaidAmount.Months,
			Since:     draft.UnpaidAmount.Since,
			Reason:    draft.UnpaidAmount.Reason,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		StatusHistory: []model.StatusTracking{{
			ID:        uuid.New(),
			DossierID: id,
			Status:    draft.Status,
			Date:      createdAt,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}},
	}
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Table(table).Count(&count).Error)
	return count
}

func TestCreateDossierWritesAllRecords(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDossierRepository(db)
	ctx := context.Background()
	created := time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC)
	d := newDossier("D-001", created)

	require.NoError(t, repo.CreateDossier(ctx, d))

	stored, err := repo.GetDossier(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "D-001", stored.DossierNumber)
	assert.Equal(t, model.DossierStatusPending, stored.Status)
	assert.True(t, stored.CreatedAt.Equal(created))
	assert.Equal(t, "2024-01-15", stored.CreationDate.UTC().Format("2006-01-02"))
	require.NotNil(t, stored.NextAction)
	assert.Equal(t, "Appeler le bailleur", *stored.NextAction)
	assert.Nil(t, stored.NextDeadline)

	tenant, err := repo.GetTenant(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Tenant.ID, tenant.ID)
	assert.Equal(t, "marie.dupont@example.fr", tenant.Email)

	landlord, err := repo.GetLandlord(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LandlordTypeSocial, landlord.Type)

	unpaid, err := repo.GetUnpaidAmount(ctx, d.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1850.5, unpaid.Amount, 0.001)
	assert.Equal(t, 3, unpaid.Months)
	assert.Equal(t, model.UnpaidReasonUnemployment, unpaid.Reason)
	assert.Nil(t, unpaid.PreviousActions)

	history, err := repo.ListStatusHistory(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.DossierStatusPending, history[0].Status)

	exists, err := repo.DossierNumberExists(ctx, "D-001")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateDossierRollsBackWhenChildInsertFails(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDossierRepository(db)
	d := newDossier("D-002", time.Now().UTC())
	d.UnpaidAmount.Months = 0

	require.Error(t, repo.CreateDossier(context.Background(), d))

	for _, table := range []string{"dossiers", "tenants", "landlords", "unpaid_amounts", "status_tracking"} {
		assert.Zero(t, countRows(t, db, table), table)
	}
}

func TestCreateDossierDuplicateNumber(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDossierRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDossier(ctx, newDossier("D-003", time.Now().UTC())))
	err := repo.CreateDossier(ctx, newDossier("D-003", time.Now().UTC()))

	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.EqualValues(t, 1, countRows(t, db, "dossiers"))
}

func TestLookupsReportMissingRows(t *testing.T) {
	repo := NewDossierRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	id := uuid.New()

	_, err := repo.GetDossier(ctx, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetTenant(ctx, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetLandlord(ctx, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetUnpaidAmount(ctx, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	history, err := repo.ListStatusHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestListDossiersNewestFirstWithFilter(t *testing.T) {
	repo := NewDossierRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateDossier(ctx, newDossier("A", base)))
	require.NoError(t, repo.CreateDossier(ctx, newDossier("B", base.Add(time.Hour))))
	require.NoError(t, repo.CreateDossier(ctx, newDossier("C", base.Add(2*time.Hour))))

	all, err := repo.ListDossiers(ctx, model.DossierFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{all[0].DossierNumber, all[1].DossierNumber, all[2].DossierNumber})

	filtered, err := repo.ListDossiers(ctx, model.DossierFilter{DossierNumber: "B"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "B", filtered[0].DossierNumber)
}

func TestApplyPatchUpdatesOnlySuppliedFields(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDossierRepository(db)
	ctx := context.Background()
	created := time.Date(2024, time.April, 1, 8, 0, 0, 0, time.UTC)
	d := newDossier("D-010", created)
	require.NoError(t, repo.CreateDossier(ctx, d))

	later := created.Add(24 * time.Hour)
	entry := model.StatusTracking{
		ID:        uuid.New(),
		DossierID: d.ID,
		Status:    model.DossierStatusInProgress,
		Date:      later,
		CreatedAt: later,
		UpdatedAt: later,
	}
	patch := model.DossierPatch{
		Status:     model.Some(model.DossierStatusInProgress),
		NextAction: model.Null[string](),
		Tenant:     &model.TenantPatch{City: model.Some("Villeurbanne")},
		UnpaidAmount: &model.UnpaidAmountPatch{
			Amount:          model.Some(2100.0),
			PreviousActions: model.Some("Relance amiable"),
		},
	}
	require.NoError(t, repo.ApplyPatch(ctx, d.ID, patch, &entry, later))

	stored, err := repo.GetDossier(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DossierStatusInProgress, stored.Status)
	assert.Nil(t, stored.NextAction)
	assert.True(t, stored.UpdatedAt.Equal(later))
	assert.Equal(t, "D-010", stored.DossierNumber)

	tenant, err := repo.GetTenant(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Villeurbanne", tenant.City)
	assert.Equal(t, "Marie", tenant.FirstName)

	landlord, err := repo.GetLandlord(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, landlord.UpdatedAt.Equal(created))

	unpaid, err := repo.GetUnpaidAmount(ctx, d.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2100.0, unpaid.Amount, 0.001)
	assert.Equal(t, 3, unpaid.Months)
	require.NotNil(t, unpaid.PreviousActions)
	assert.Equal(t, "Relance amiable", *unpaid.PreviousActions)

	history, err := repo.ListStatusHistory(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.DossierStatusInProgress, history[0].Status)
	assert.Equal(t, model.DossierStatusPending, history[1].Status)
}

func TestDeleteDossierRemovesEverything(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewDossierRepository(db)
	diagnostics := NewDiagnosticRepository(db)
	ctx := context.Background()
	d := newDossier("D-020", time.Now().UTC())
	require.NoError(t, repo.CreateDossier(ctx, d))
	require.NoError(t, diagnostics.UpsertDiagnostic(ctx, d.ID, map[string]any{"famille": "seule"}, time.Now().UTC()))

	require.NoError(t, repo.DeleteDossier(ctx, d.ID))

	for _, table := range []string{"dossiers", "tenants", "landlords", "unpaid_amounts", "status_tracking", "diagnostics"} {
		assert.Zero(t, countRows(t, db, table), table)
	}
	assert.ErrorIs(t, repo.DeleteDossier(ctx, d.ID), gorm.ErrRecordNotFound)
}

func TestStatusHistoryOrderIsStableForEqualDates(t *testing.T) {
	repo := NewDossierRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	created := time.Date(2024, time.April, 2, 8, 0, 0, 0, time.UTC)
	d := newDossier("D-030", created)
	require.NoError(t, repo.CreateDossier(ctx, d))

	// Same business date as the initial entry, recorded one second later.
	later := model.StatusTracking{
		ID:        uuid.New(),
		DossierID: d.ID,
		Status:    model.DossierStatusResolved,
		Date:      created,
		CreatedAt: created.Add(time.Second),
		UpdatedAt: created.Add(time.Second),
	}
	require.NoError(t, repo.ApplyPatch(ctx, d.ID, model.DossierPatch{}, &later, created.Add(time.Second)))

	for i := 0; i < 3; i++ {
		history, err := repo.ListStatusHistory(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, later.ID, history[0].ID)
		assert.Equal(t, d.StatusHistory[0].ID, history[1].ID)
	}
}

func TestPing(t *testing.T) {
	repo := NewDossierRepository(testutil.NewSQLiteDB(t))
	assert.NoError(t, repo.Ping(context.Background()))
}
