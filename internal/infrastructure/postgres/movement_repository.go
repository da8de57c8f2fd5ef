package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del Kardex sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, batch_id, material_id, type, quantity, location_id,
	origin_project_id, dest_project_id, dest_site_id, purchase_order_id,
	requisition_id, source_assignment_id, unit_value, currency, notes, actor_id,
	ts, status, voided_at, voided_by, void_reason, reverses_movement_id`

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(&m.ID, &m.BatchID, &m.MaterialID, &m.Type, &m.Quantity, &m.LocationID,
		&m.OriginProjectID, &m.DestProjectID, &m.DestSiteID, &m.PurchaseOrderID,
		&m.RequisitionID, &m.SourceAssignmentID, &m.UnitValue, &m.Currency, &m.Notes, &m.ActorID,
		&m.Timestamp, &m.Status, &m.VoidedAt, &m.VoidedBy, &m.VoidReason, &m.ReversesMovementID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create persiste una entrada del Kardex y asigna su id.
func (r *MovementRepo) Create(m *entity.Movement) error {
	query := `
		INSERT INTO movements (batch_id, material_id, type, quantity, location_id,
			origin_project_id, dest_project_id, dest_site_id, purchase_order_id,
			requisition_id, source_assignment_id, unit_value, currency, notes, actor_id,
			ts, status, reverses_movement_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		m.BatchID, m.MaterialID, m.Type, m.Quantity, m.LocationID,
		m.OriginProjectID, m.DestProjectID, m.DestSiteID, m.PurchaseOrderID,
		m.RequisitionID, m.SourceAssignmentID, m.UnitValue, m.Currency, m.Notes, m.ActorID,
		m.Timestamp, m.Status, m.ReversesMovementID,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetForUpdate bloquea la entrada por id (SELECT FOR UPDATE).
func (r *MovementRepo) GetForUpdate(id int64) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1 FOR UPDATE`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement for update: %w", err)
	}
	return m, nil
}

// MarkVoided marca ACTIVE -> VOID con los campos de auditoría.
func (r *MovementRepo) MarkVoided(id int64, at time.Time, by, reason string) error {
	query := `
		UPDATE movements
		SET status = $2, voided_at = $3, voided_by = $4, void_reason = $5
		WHERE id = $1 AND status = $6`
	tag, err := r.q.Exec(context.Background(), query,
		id, entity.MovementStatusVoid, at, by, reason, entity.MovementStatusActive)
	if err != nil {
		return fmt.Errorf("mark movement voided: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark movement voided: el movimiento %d no está activo", id)
	}
	return nil
}

// Search devuelve la página filtrada y el total. Filtrado puramente aditivo;
// los anulados se excluyen salvo que el filtro los pida.
func (r *MovementRepo) Search(f repository.MovementFilter) ([]*entity.Movement, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	pos := 1
	add := func(cond string, val any) {
		where += fmt.Sprintf(" AND "+cond, pos)
		args = append(args, val)
		pos++
	}

	if f.MaterialID != nil {
		add("material_id = $%d", *f.MaterialID)
	}
	if f.ProjectID != nil {
		// Coincide contra origen o destino.
		where += fmt.Sprintf(" AND (origin_project_id = $%d OR dest_project_id = $%d)", pos, pos)
		args = append(args, *f.ProjectID)
		pos++
	}
	if f.LocationID != nil {
		add("location_id = $%d", *f.LocationID)
	}
	if f.Type != nil {
		add("type = $%d", string(*f.Type))
	}
	if f.PurchaseOrderID != nil {
		add("purchase_order_id = $%d", *f.PurchaseOrderID)
	}
	if f.RequisitionID != nil {
		add("requisition_id = $%d", *f.RequisitionID)
	}
	if f.ActorID != nil {
		add("actor_id = $%d", *f.ActorID)
	}
	if f.From != nil {
		add("ts >= $%d", *f.From)
	}
	if f.To != nil {
		add("ts <= $%d", *f.To)
	}
	if f.Search != "" {
		add("notes ILIKE $%d", "%"+f.Search+"%")
	}
	if !f.IncludeVoided {
		add("status = $%d", entity.MovementStatusActive)
	}

	var total int
	countQuery := `SELECT count(*) FROM movements` + where
	if err := r.q.QueryRow(context.Background(), countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	pageQuery := `SELECT ` + movementColumns + ` FROM movements` + where +
		fmt.Sprintf(" ORDER BY ts DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(context.Background(), pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, total, rows.Err()
}
