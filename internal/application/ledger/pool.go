package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/construmax/almacen-api/internal/domain"
	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

// drainAssignments resta qty del pool de apartados repartiéndola vorazmente
// sobre rows (ya bloqueadas, ordenadas quantity DESC, id ASC). La suma se
// verifica antes de mutar fila alguna: todo-o-nada.
func drainAssignments(assignments repository.AssignmentRepository, rows []*entity.Assignment, qty decimal.Decimal) error {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Quantity)
	}
	if total.LessThan(qty) {
		return domain.NewInsufficientReservation(total, qty)
	}
	remaining := qty
	for _, row := range rows {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, row.Quantity)
		if err := assignments.AddQuantity(row.ID, take.Neg()); err != nil {
			return err
		}
		remaining = remaining.Sub(take)
	}
	return nil
}

// requisitionOf devuelve la requisición del movimiento o la variante explícita
// "sin requisición".
func requisitionOf(m *entity.Movement) int64 {
	if m.RequisitionID != nil {
		return *m.RequisitionID
	}
	return entity.NoRequisition
}
