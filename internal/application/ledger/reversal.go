package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construmax/almacen-api/internal/domain"
	"github.com/construmax/almacen-api/internal/domain/entity"
)

// ReversalEngine deshace un movimiento del Kardex: calcula el efecto inverso
// exacto según el tipo, lo aplica sobre existencias y pool de apartados,
// escribe el movimiento compensatorio ligado al original y marca el original
// como VOID. Todo en una transacción: si una guarda falla no queda efecto
// alguno y el original permanece intacto.
//
// Un movimiento compensatorio conserva el tipo del original pero su efecto fue
// el inverso; anularlo reaplica el efecto directo del tipo. La dirección se
// resuelve por la paridad de la cadena ReversesMovementID.
//
// Solo procede el mismo día calendario del movimiento, medido en la zona
// horaria de referencia configurada.
type ReversalEngine struct {
	tx            TxRunner
	tz            *time.Location
	centralSiteID int64
	now           func() time.Time
}

// NewReversalEngine construye el motor. tz es la zona horaria de referencia
// de la ventana de mismo día; centralSiteID la obra del almacén central.
func NewReversalEngine(tx TxRunner, tz *time.Location, centralSiteID int64) *ReversalEngine {
	return &ReversalEngine{tx: tx, tz: tz, centralSiteID: centralSiteID, now: time.Now}
}

// Reverse anula el movimiento movementID con el motivo dado (solo superusuario).
func (e *ReversalEngine) Reverse(ctx context.Context, actor entity.Actor, movementID int64, reason string) error {
	if !actor.IsSuperuser() {
		return domain.ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if len(reason) < 3 {
		return domain.NewValidation("reason", "el motivo debe tener al menos 3 caracteres")
	}
	now := e.now()

	return e.tx.Run(ctx, func(r Repos) error {
		m, err := r.Movements.GetForUpdate(movementID)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.ErrNotFound
		}
		if m.IsVoid() {
			return domain.NewValidation("movement_id", "el movimiento ya está anulado")
		}

		my, mm, md := m.Timestamp.In(e.tz).Date()
		ty, tm, td := now.In(e.tz).Date()
		if my != ty || mm != tm || md != td {
			return domain.ErrReversalWindowExpired
		}

		rec, err := r.Stock.GetForUpdate(m.MaterialID, m.LocationID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}

		inverse, err := effectWasInverse(r, m)
		if err != nil {
			return err
		}
		var onHand, reserved decimal.Decimal
		if inverse {
			onHand, reserved, err = e.redoEffect(r, m, rec)
		} else {
			onHand, reserved, err = e.undoEffect(r, m, rec)
		}
		if err != nil {
			return err
		}

		if err := r.Stock.UpdateBalances(rec.ID, onHand, reserved); err != nil {
			return err
		}

		comp := &entity.Movement{
			BatchID:            uuid.New().String(),
			MaterialID:         m.MaterialID,
			Type:               m.Type,
			Quantity:           m.Quantity,
			LocationID:         m.LocationID,
			OriginProjectID:    m.OriginProjectID,
			DestProjectID:      m.DestProjectID,
			DestSiteID:         m.DestSiteID,
			PurchaseOrderID:    m.PurchaseOrderID,
			RequisitionID:      m.RequisitionID,
			SourceAssignmentID: m.SourceAssignmentID,
			UnitValue:          m.UnitValue,
			Currency:           m.Currency,
			Notes:              "Reversa: " + reason,
			ActorID:            actor.ID,
			Timestamp:          now,
			Status:             entity.MovementStatusActive,
			ReversesMovementID: &m.ID,
		}
		if err := r.Movements.Create(comp); err != nil {
			return err
		}
		return r.Movements.MarkVoided(m.ID, now, actor.ID, reason)
	})
}

// effectWasInverse reporta si el movimiento aplicó el efecto inverso de su
// tipo: cada eslabón de la cadena de compensaciones invierte la dirección.
func effectWasInverse(r Repos, m *entity.Movement) (bool, error) {
	inverse := false
	for cur := m; cur.ReversesMovementID != nil; {
		prev, err := r.Movements.GetForUpdate(*cur.ReversesMovementID)
		if err != nil {
			return false, err
		}
		if prev == nil {
			return false, domain.NewValidation("movement", "la cadena de reversas está rota")
		}
		inverse = !inverse
		cur = prev
	}
	return inverse, nil
}

// undoEffect deshace el efecto directo de un movimiento según su tipo y
// devuelve los saldos resultantes. Las mutaciones del pool de apartados se
// aplican aquí; los saldos los persiste el llamador.
func (e *ReversalEngine) undoEffect(r Repos, m *entity.Movement, rec *entity.StockRecord) (decimal.Decimal, decimal.Decimal, error) {
	onHand, reserved := rec.OnHand, rec.Reserved
	qty := m.Quantity
	var zero decimal.Decimal

	switch m.Type {
	case entity.MovementAdjustUp:
		if onHand.LessThan(qty) {
			return zero, zero, domain.NewInsufficientStock(onHand, qty)
		}
		onHand = onHand.Sub(qty)

	case entity.MovementAdjustDown:
		onHand = onHand.Add(qty)

	case entity.MovementReserve:
		if m.DestProjectID == nil {
			return zero, zero, domain.NewValidation("movement", "el apartado no registra proyecto destino")
		}
		if reserved.LessThan(qty) {
			return zero, zero, domain.NewInsufficientReservation(reserved, qty)
		}
		rows, err := r.Assignments.ListForUpdate(rec.ID, *m.DestProjectID, m.DestSiteID, requisitionOf(m))
		if err != nil {
			return zero, zero, err
		}
		if err := drainAssignments(r.Assignments, rows, qty); err != nil {
			return zero, zero, err
		}
		reserved = reserved.Sub(qty)
		onHand = onHand.Add(qty)

	case entity.MovementTransfer:
		if m.DestProjectID == nil || m.OriginProjectID == nil {
			return zero, zero, domain.NewValidation("movement", "el traslado no registra origen y destino")
		}
		rows, err := r.Assignments.ListForUpdate(rec.ID, *m.DestProjectID, m.DestSiteID, requisitionOf(m))
		if err != nil {
			return zero, zero, err
		}
		if err := drainAssignments(r.Assignments, rows, qty); err != nil {
			return zero, zero, err
		}
		if err := e.restoreReservation(r, m, rec); err != nil {
			return zero, zero, err
		}
		// El traslado solo mueve masa dentro del pool: saldos intactos.

	case entity.MovementReceive:
		po, err := resolveOrder(r, m)
		if err != nil {
			return zero, zero, err
		}
		if po.SiteID == e.centralSiteID {
			if onHand.LessThan(qty) {
				return zero, zero, domain.NewInsufficientStock(onHand, qty)
			}
			onHand = onHand.Sub(qty)
		} else {
			if reserved.LessThan(qty) {
				return zero, zero, domain.NewInsufficientReservation(reserved, qty)
			}
			rows, err := r.Assignments.ListForUpdate(rec.ID, po.ProjectID, &po.SiteID, entity.NoRequisition)
			if err != nil {
				return zero, zero, err
			}
			if err := drainAssignments(r.Assignments, rows, qty); err != nil {
				return zero, zero, err
			}
			reserved = reserved.Sub(qty)
		}

	case entity.MovementIssue:
		if m.OriginProjectID == nil {
			// Salió de disponible: regresa a disponible.
			onHand = onHand.Add(qty)
		} else {
			// Salió de un apartado: regresa al apartado.
			reserved = reserved.Add(qty)
			if err := e.restoreReservation(r, m, rec); err != nil {
				return zero, zero, err
			}
		}

	default:
		return zero, zero, domain.ErrUnsupportedReversalType
	}
	return onHand, reserved, nil
}

// redoEffect reaplica el efecto directo de un movimiento cuyo efecto real fue
// el inverso (una compensación): anularlo restaura el efecto original, con las
// guardas espejo de undoEffect.
func (e *ReversalEngine) redoEffect(r Repos, m *entity.Movement, rec *entity.StockRecord) (decimal.Decimal, decimal.Decimal, error) {
	onHand, reserved := rec.OnHand, rec.Reserved
	qty := m.Quantity
	var zero decimal.Decimal

	switch m.Type {
	case entity.MovementAdjustUp:
		onHand = onHand.Add(qty)

	case entity.MovementAdjustDown:
		if onHand.LessThan(qty) {
			return zero, zero, domain.NewInsufficientStock(onHand, qty)
		}
		onHand = onHand.Sub(qty)

	case entity.MovementReserve:
		if m.DestProjectID == nil {
			return zero, zero, domain.NewValidation("movement", "el apartado no registra proyecto destino")
		}
		if onHand.LessThan(qty) {
			return zero, zero, domain.NewInsufficientStock(onHand, qty)
		}
		dest, err := destinationOf(r, m)
		if err != nil {
			return zero, zero, err
		}
		if err := r.Assignments.Upsert(rec.ID, dest, qty, m.UnitValue, m.Currency); err != nil {
			return zero, zero, err
		}
		onHand = onHand.Sub(qty)
		reserved = reserved.Add(qty)

	case entity.MovementTransfer:
		if m.DestProjectID == nil || m.OriginProjectID == nil {
			return zero, zero, domain.NewValidation("movement", "el traslado no registra origen y destino")
		}
		rows, err := r.Assignments.ListForUpdate(rec.ID, *m.OriginProjectID, nil, requisitionOf(m))
		if err != nil {
			return zero, zero, err
		}
		if err := drainAssignments(r.Assignments, rows, qty); err != nil {
			return zero, zero, err
		}
		dest, err := destinationOf(r, m)
		if err != nil {
			return zero, zero, err
		}
		if err := r.Assignments.Upsert(rec.ID, dest, qty, m.UnitValue, m.Currency); err != nil {
			return zero, zero, err
		}

	case entity.MovementReceive:
		po, err := resolveOrder(r, m)
		if err != nil {
			return zero, zero, err
		}
		if po.SiteID == e.centralSiteID {
			onHand = onHand.Add(qty)
		} else {
			dest := entity.Destination{ProjectID: po.ProjectID, SiteID: po.SiteID, RequisitionID: entity.NoRequisition}
			if err := r.Assignments.Upsert(rec.ID, dest, qty, m.UnitValue, m.Currency); err != nil {
				return zero, zero, err
			}
			reserved = reserved.Add(qty)
		}

	case entity.MovementIssue:
		if m.OriginProjectID == nil {
			if onHand.LessThan(qty) {
				return zero, zero, domain.NewInsufficientStock(onHand, qty)
			}
			onHand = onHand.Sub(qty)
		} else {
			if reserved.LessThan(qty) {
				return zero, zero, domain.NewInsufficientReservation(reserved, qty)
			}
			rows, err := r.Assignments.ListForUpdate(rec.ID, *m.OriginProjectID, nil, requisitionOf(m))
			if err != nil {
				return zero, zero, err
			}
			if err := drainAssignments(r.Assignments, rows, qty); err != nil {
				return zero, zero, err
			}
			reserved = reserved.Sub(qty)
		}

	default:
		return zero, zero, domain.ErrUnsupportedReversalType
	}
	return onHand, reserved, nil
}

// restoreReservation regresa la cantidad del movimiento a su apartado de
// origen: preferentemente la fila exacta referenciada por el movimiento; si
// esa fila ya no existe, se recrea el destino con la obra principal del
// proyecto de origen y sin requisición.
func (e *ReversalEngine) restoreReservation(r Repos, m *entity.Movement, rec *entity.StockRecord) error {
	if m.SourceAssignmentID != nil {
		src, _, err := r.Assignments.GetForUpdate(*m.SourceAssignmentID)
		if err != nil {
			return err
		}
		if src != nil {
			return r.Assignments.AddQuantity(src.ID, m.Quantity)
		}
	}
	proj, err := r.Projects.GetByID(*m.OriginProjectID)
	if err != nil {
		return err
	}
	if proj == nil {
		return domain.NewValidation("movement", "no se pudo resolver la obra del proyecto de origen")
	}
	dest := entity.Destination{ProjectID: proj.ID, SiteID: proj.SiteID, RequisitionID: entity.NoRequisition}
	return r.Assignments.Upsert(rec.ID, dest, m.Quantity, m.UnitValue, m.Currency)
}

// destinationOf resuelve el destino registrado en un movimiento RESERVE o
// TRANSFER; si el movimiento no capturó la obra, cae a la obra principal del
// proyecto destino.
func destinationOf(r Repos, m *entity.Movement) (entity.Destination, error) {
	dest := entity.Destination{ProjectID: *m.DestProjectID, RequisitionID: requisitionOf(m)}
	if m.DestSiteID != nil {
		dest.SiteID = *m.DestSiteID
		return dest, nil
	}
	proj, err := r.Projects.GetByID(*m.DestProjectID)
	if err != nil {
		return entity.Destination{}, err
	}
	if proj == nil {
		return entity.Destination{}, domain.NewValidation("movement", "no se pudo resolver la obra del proyecto destino")
	}
	dest.SiteID = proj.SiteID
	return dest, nil
}

// resolveOrder carga la orden de compra de un movimiento RECEIVE.
func resolveOrder(r Repos, m *entity.Movement) (*entity.PurchaseOrder, error) {
	if m.PurchaseOrderID == nil {
		return nil, domain.NewValidation("movement", "la entrada no registra orden de compra")
	}
	po, err := r.PurchaseOrders.GetByID(*m.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.NewValidation("movement", "no se pudo resolver la obra de destino de la entrada")
	}
	return po, nil
}
