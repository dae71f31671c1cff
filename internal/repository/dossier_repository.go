package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/dossiers-service/internal/casing"
	"github.com/nurpe/dossiers-service/internal/model"
)

type DossierRepository struct {
	db *gorm.DB
}

func NewDossierRepository(db *gorm.DB) *DossierRepository {
	return &DossierRepository{db: db}
}

const dossierColumns = `
	id,
	dossier_number,
	creation_date,
	status,
	next_deadline,
	next_action,
	additional_notes,
	created_at,
	updated_at`

func (r *DossierRepository) GetDossier(ctx context.Context, id uuid.UUID) (*model.Dossier, error) {
	var row dossierRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+dossierColumns+`
		FROM dossiers
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	dossier := row.toModel()
	return &dossier, nil
}

// ListDossiers returns bare dossier rows, newest first.
func (r *DossierRepository) ListDossiers(ctx context.Context, filter model.DossierFilter) ([]model.Dossier, error) {
	query := `SELECT ` + dossierColumns + ` FROM dossiers`
	var args []interface{}
	if filter.DossierNumber != "" {
		query += ` WHERE dossier_number = ?`
		args = append(args, filter.DossierNumber)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	var rows []dossierRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	dossiers := make([]model.Dossier, 0, len(rows))
	for _, row := range rows {
		dossiers = append(dossiers, row.toModel())
	}
	return dossiers, nil
}

func (r *DossierRepository) DossierNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM dossiers WHERE dossier_number = ?
	`, number).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *DossierRepository) GetTenant(ctx context.Context, dossierID uuid.UUID) (*model.Tenant, error) {
	var row tenantRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, dossier_id, first_name, last_name, email, phone, address, city, postal_code, created_at, updated_at
		FROM tenants
		WHERE dossier_id = ?
		LIMIT 1
	`, dossierID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	tenant := row.toModel()
	return &tenant, nil
}

func (r *DossierRepository) GetLandlord(ctx context.Context, dossierID uuid.UUID) (*model.Landlord, error) {
	var row landlordRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, dossier_id, type, name, email, phone, created_at, updated_at
		FROM landlords
		WHERE dossier_id = ?
		LIMIT 1
	`, dossierID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	landlord := row.toModel()
	return &landlord, nil
}

func (r *DossierRepository) GetUnpaidAmount(ctx context.Context, dossierID uuid.UUID) (*model.UnpaidAmount, error) {
	var row unpaidAmountRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, dossier_id, amount, months, since, reason, previous_actions, created_at, updated_at
		FROM unpaid_amounts
		WHERE dossier_id = ?
		LIMIT 1
	`, dossierID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	unpaid := row.toModel()
	return &unpaid, nil
}

// ListStatusHistory returns the status entries of a dossier, most recent first.
func (r *DossierRepository) ListStatusHistory(ctx context.Context, dossierID uuid.UUID) ([]model.StatusTracking, error) {
	var rows []statusTrackingRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, dossier_id, status, date, notes, created_at, updated_at
		FROM status_tracking
		WHERE dossier_id = ?
		ORDER BY date DESC, created_at DESC, id DESC
	`, dossierID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	history := make([]model.StatusTracking, 0, len(rows))
	for _, row := range rows {
		history = append(history, row.toModel())
	}
	return history, nil
}

// CreateDossier writes the dossier, its three child records and its status
// history in a single transaction.
func (r *DossierRepository) CreateDossier(ctx context.Context, d model.Dossier) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			INSERT INTO dossiers (
				id,
				dossier_number,
				creation_date,
				status,
				next_deadline,
				next_action,
				additional_notes,
				created_at,
				updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			d.ID,
			d.DossierNumber,
			d.CreationDate,
			string(d.Status),
			d.NextDeadline,
			d.NextAction,
			d.AdditionalNotes,
			d.CreatedAt,
			d.UpdatedAt,
		).Error; err != nil {
			return err
		}

		t := d.Tenant
		if err := tx.Exec(`
			INSERT INTO tenants (
				id, dossier_id, first_name, last_name, email, phone, address, city, postal_code, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, d.ID, t.FirstName, t.LastName, t.Email, t.Phone, t.Address, t.City, t.PostalCode, t.CreatedAt, t.UpdatedAt).Error; err != nil {
			return err
		}

		l := d.Landlord
		if err := tx.Exec(`
			INSERT INTO landlords (
				id, dossier_id, type, name, email, phone, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, l.ID, d.ID, string(l.Type), l.Name, l.Email, l.Phone, l.CreatedAt, l.UpdatedAt).Error; err != nil {
			return err
		}

		u := d.UnpaidAmount
		if err := tx.Exec(`
			INSERT INTO unpaid_amounts (
				id, dossier_id, amount, months, since, reason, previous_actions, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, u.ID, d.ID, u.Amount, u.Months, u.Since, string(u.Reason), u.PreviousActions, u.CreatedAt, u.UpdatedAt).Error; err != nil {
			return err
		}

		for _, entry := range d.StatusHistory {
			if err := insertStatus(tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyPatch updates only the supplied fields. history, when non-nil, is
// appended to status_tracking in the same transaction.
func (r *DossierRepository) ApplyPatch(
	ctx context.Context,
	id uuid.UUID,
	patch model.DossierPatch,
	history *model.StatusTracking,
	now time.Time,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if patch.HasDossierFields() {
			fields := map[string]any{}
			put(fields, "status", stringOf(patch.Status))
			put(fields, "nextDeadline", patch.NextDeadline)
			put(fields, "nextAction", patch.NextAction)
			put(fields, "additionalNotes", patch.AdditionalNotes)
			if err := update(tx, "dossiers", "id", id, fields, now); err != nil {
				return err
			}
		}

		if p := patch.Tenant; p != nil {
			fields := map[string]any{}
			put(fields, "firstName", p.FirstName)
			put(fields, "lastName", p.LastName)
			put(fields, "email", p.Email)
			put(fields, "phone", p.Phone)
			put(fields, "address", p.Address)
			put(fields, "city", p.City)
			put(fields, "postalCode", p.PostalCode)
			if err := update(tx, "tenants", "dossier_id", id, fields, now); err != nil {
				return err
			}
		}

		if p := patch.Landlord; p != nil {
			fields := map[string]any{}
			put(fields, "type", stringOf(p.Type))
			put(fields, "name", p.Name)
			put(fields, "email", p.Email)
			put(fields, "phone", p.Phone)
			if err := update(tx, "landlords", "dossier_id", id, fields, now); err != nil {
				return err
			}
		}

		if p := patch.UnpaidAmount; p != nil {
			fields := map[string]any{}
			put(fields, "amount", p.Amount)
			put(fields, "months", p.Months)
			put(fields, "since", p.Since)
			put(fields, "reason", stringOf(p.Reason))
			put(fields, "previousActions", p.PreviousActions)
			if err := update(tx, "unpaid_amounts", "dossier_id", id, fields, now); err != nil {
				return err
			}
		}

		if history != nil {
			return insertStatus(tx, *history)
		}
		return nil
	})
}

// DeleteDossier removes the dossier and everything attached to it. The schema
// also cascades; the explicit deletes keep engines without enforced foreign
// keys consistent.
func (r *DossierRepository) DeleteDossier(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"status_tracking", "unpaid_amounts", "landlords", "tenants", "diagnostics"} {
			if err := tx.Exec(`DELETE FROM `+table+` WHERE dossier_id = ?`, id).Error; err != nil {
				return err
			}
		}
		result := tx.Exec(`DELETE FROM dossiers WHERE id = ?`, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *DossierRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func insertStatus(tx *gorm.DB, entry model.StatusTracking) error {
	return tx.Exec(`
		INSERT INTO status_tracking (id, dossier_id, status, date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.DossierID, string(entry.Status), entry.Date, entry.Notes, entry.CreatedAt, entry.UpdatedAt).Error
}

// update writes fields, keyed in the API convention, to table and refreshes
// updated_at. An empty field set still touches updated_at.
func update(tx *gorm.DB, table, keyColumn string, id uuid.UUID, fields map[string]any, now time.Time) error {
	fields["updatedAt"] = now
	columns, _ := casing.ToStorageCase(fields).(map[string]any)
	return tx.Table(table).Where(keyColumn+" = ?", id).Updates(columns).Error
}

func put[T any](fields map[string]any, key string, value model.Optional[T]) {
	if !value.Set {
		return
	}
	if value.Null {
		fields[key] = nil
		return
	}
	fields[key] = value.Value
}

func stringOf[S ~string](value model.Optional[S]) model.Optional[string] {
	return model.Optional[string]{Value: string(value.Value), Set: value.Set, Null: value.Null}
}
