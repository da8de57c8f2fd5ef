package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construmax/almacen-api/internal/domain"
	"github.com/construmax/almacen-api/internal/domain/entity"
)

// IssueInput salida de material del almacén. Con AssignmentID la salida
// consume un apartado; sin él, consume disponible.
type IssueInput struct {
	MaterialID   int64
	Quantity     decimal.Decimal
	LocationID   int64
	AssignmentID *int64
	Note         string
}

// IssueResult movimiento creado, ubicación afectada y saldos resultantes.
type IssueResult struct {
	MovementID int64
	LocationID int64
	OnHand     decimal.Decimal
	Reserved   decimal.Decimal
}

// IssueService registra salidas de almacén y escribe el movimiento ISSUE.
type IssueService struct {
	tx  TxRunner
	now func() time.Time
}

// NewIssueService construye el servicio.
func NewIssueService(tx TxRunner) *IssueService {
	return &IssueService{tx: tx, now: time.Now}
}

// RegisterIssue aplica la salida. Una salida desde apartado registra el
// proyecto de origen y la fila exacta del pool, para que la reversa pueda
// restaurar preferentemente esa misma fila.
func (s *IssueService) RegisterIssue(ctx context.Context, actor entity.Actor, in IssueInput) (*IssueResult, error) {
	if in.MaterialID <= 0 {
		return nil, domain.NewValidation("material_id", "requerido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidation("quantity", "debe ser mayor que cero")
	}
	if in.AssignmentID == nil && in.LocationID <= 0 {
		return nil, domain.NewValidation("location_id", "requerido para salidas de disponible")
	}

	now := s.now()
	var result *IssueResult

	err := s.tx.Run(ctx, func(r Repos) error {
		mov := &entity.Movement{
			BatchID:    uuid.New().String(),
			MaterialID: in.MaterialID,
			Type:       entity.MovementIssue,
			Quantity:   in.Quantity,
			Notes:      in.Note,
			ActorID:    actor.ID,
			Timestamp:  now,
			Status:     entity.MovementStatusActive,
		}

		if in.AssignmentID == nil {
			// Salida de disponible.
			rec, err := r.Stock.GetForUpdate(in.MaterialID, in.LocationID)
			if err != nil {
				return err
			}
			if rec == nil {
				return domain.NewInsufficientStock(decimal.Zero, in.Quantity)
			}
			if rec.OnHand.LessThan(in.Quantity) {
				return domain.NewInsufficientStock(rec.OnHand, in.Quantity)
			}
			newOnHand := rec.OnHand.Sub(in.Quantity)
			if err := r.Stock.UpdateBalances(rec.ID, newOnHand, rec.Reserved); err != nil {
				return err
			}
			mov.LocationID = rec.LocationID
			mov.UnitValue = rec.LastUnitCost
			mov.Currency = rec.Currency
			if err := r.Movements.Create(mov); err != nil {
				return err
			}
			result = &IssueResult{MovementID: mov.ID, LocationID: rec.LocationID, OnHand: newOnHand, Reserved: rec.Reserved}
			return nil
		}

		// Salida desde un apartado.
		a, rec, err := r.Assignments.GetForUpdate(*in.AssignmentID)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.ErrNotFound
		}
		if rec.MaterialID != in.MaterialID {
			return domain.NewValidation("assignment_id", "el apartado no corresponde al material")
		}
		if a.Quantity.LessThan(in.Quantity) {
			return domain.NewInsufficientReservation(a.Quantity, in.Quantity)
		}
		if rec.Reserved.LessThan(in.Quantity) {
			return domain.NewInsufficientReservation(rec.Reserved, in.Quantity)
		}
		if err := r.Assignments.AddQuantity(a.ID, in.Quantity.Neg()); err != nil {
			return err
		}
		newReserved := rec.Reserved.Sub(in.Quantity)
		if err := r.Stock.UpdateBalances(rec.ID, rec.OnHand, newReserved); err != nil {
			return err
		}
		mov.LocationID = rec.LocationID
		mov.OriginProjectID = &a.ProjectID
		mov.SourceAssignmentID = &a.ID
		mov.UnitValue = a.UnitValue
		mov.Currency = a.Currency
		if a.RequisitionID != entity.NoRequisition {
			req := a.RequisitionID
			mov.RequisitionID = &req
		}
		if err := r.Movements.Create(mov); err != nil {
			return err
		}
		result = &IssueResult{MovementID: mov.ID, LocationID: rec.LocationID, OnHand: rec.OnHand, Reserved: newReserved}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
