package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

var _ repository.AssignmentRepository = (*AssignmentRepo)(nil)

// AssignmentRepo implementación de AssignmentRepository sobre PostgreSQL.
// La requisición se persiste como 0 cuando no hay: la clave lógica del
// apartado nunca depende de igualdad de NULL.
type AssignmentRepo struct {
	q Querier
}

// NewAssignmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAssignmentRepository(q Querier) *AssignmentRepo {
	return &AssignmentRepo{q: q}
}

const assignmentColumns = `id, stock_record_id, project_id, site_id, requisition_id, quantity, unit_value, currency, assigned_at`

func scanAssignment(row pgx.Row) (*entity.Assignment, error) {
	var a entity.Assignment
	err := row.Scan(&a.ID, &a.StockRecordID, &a.ProjectID, &a.SiteID, &a.RequisitionID,
		&a.Quantity, &a.UnitValue, &a.Currency, &a.AssignedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert incrementa la fila con destino exacto o inserta una nueva;
// sobreescribe precio, moneda y fecha. No hace nada si quantity <= 0.
func (r *AssignmentRepo) Upsert(stockRecordID int64, dest entity.Destination, quantity, unitValue decimal.Decimal, currency string) error {
	if !quantity.IsPositive() {
		return nil
	}
	query := `
		INSERT INTO assignments (stock_record_id, project_id, site_id, requisition_id, quantity, unit_value, currency, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (stock_record_id, project_id, site_id, requisition_id)
		DO UPDATE SET quantity = assignments.quantity + EXCLUDED.quantity,
		              unit_value = EXCLUDED.unit_value,
		              currency = EXCLUDED.currency,
		              assigned_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		stockRecordID, dest.ProjectID, dest.SiteID, dest.RequisitionID, quantity, unitValue, currency)
	if err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}
	return nil
}

// GetForUpdate bloquea la fila por id junto con su StockRecord.
func (r *AssignmentRepo) GetForUpdate(id int64) (*entity.Assignment, *entity.StockRecord, error) {
	query := `
		SELECT a.id, a.stock_record_id, a.project_id, a.site_id, a.requisition_id,
		       a.quantity, a.unit_value, a.currency, a.assigned_at,
		       s.id, s.material_id, s.location_id, s.on_hand, s.reserved,
		       s.last_unit_cost, s.currency, s.updated_at
		FROM assignments a
		JOIN stock_records s ON s.id = a.stock_record_id
		WHERE a.id = $1
		FOR UPDATE`
	var a entity.Assignment
	var s entity.StockRecord
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&a.ID, &a.StockRecordID, &a.ProjectID, &a.SiteID, &a.RequisitionID,
		&a.Quantity, &a.UnitValue, &a.Currency, &a.AssignedAt,
		&s.ID, &s.MaterialID, &s.LocationID, &s.OnHand, &s.Reserved,
		&s.LastUnitCost, &s.Currency, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get assignment for update: %w", err)
	}
	return &a, &s, nil
}

// ListForUpdate bloquea las filas con cantidad del destino indicado,
// ordenadas quantity DESC, id ASC (se drenan las más grandes primero,
// desempate determinista). siteID nil omite el filtro de obra.
func (r *AssignmentRepo) ListForUpdate(stockRecordID, projectID int64, siteID *int64, requisitionID int64) ([]*entity.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE stock_record_id = $1 AND project_id = $2 AND requisition_id = $3 AND quantity > 0`
	args := []any{stockRecordID, projectID, requisitionID}
	if siteID != nil {
		query += ` AND site_id = $4`
		args = append(args, *siteID)
	}
	query += `
		ORDER BY quantity DESC, id ASC
		FOR UPDATE`

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments for update: %w", err)
	}
	defer rows.Close()

	var list []*entity.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// AddQuantity suma delta (puede ser negativo) a una fila ya bloqueada.
func (r *AssignmentRepo) AddQuantity(id int64, delta decimal.Decimal) error {
	query := `
		UPDATE assignments SET quantity = quantity + $2, assigned_at = now()
		WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, delta); err != nil {
		return fmt.Errorf("add assignment quantity: %w", err)
	}
	return nil
}
