package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo cerrado de movimiento del Kardex. La dirección del efecto
// está implícita en el tipo y en los campos de origen/destino; Quantity siempre es > 0.
type MovementType string

const (
	MovementAdjustUp   MovementType = "ADJUST_UP"   // ajuste manual positivo
	MovementAdjustDown MovementType = "ADJUST_DOWN" // ajuste manual negativo
	MovementReserve    MovementType = "RESERVE"     // apartado de existencia hacia un destino
	MovementTransfer   MovementType = "TRANSFER"    // traslado de un apartado entre destinos
	MovementReceive    MovementType = "RECEIVE"     // entrada por orden de compra
	MovementIssue      MovementType = "ISSUE"       // salida de almacén
)

// Valid reporta si el tipo pertenece al conjunto cerrado.
func (t MovementType) Valid() bool {
	switch t {
	case MovementAdjustUp, MovementAdjustDown, MovementReserve,
		MovementTransfer, MovementReceive, MovementIssue:
		return true
	}
	return false
}

// Estados de un movimiento. ACTIVE -> VOID ocurre a lo más una vez y solo
// después de deshacer su efecto sobre existencias y apartados.
const (
	MovementStatusActive = "ACTIVE"
	MovementStatusVoid   = "VOID"
)

// Movement es una entrada del Kardex: el registro inmutable de todo evento que
// afecta cantidades. Solo los campos de anulación se actualizan después de creado.
type Movement struct {
	ID         int64
	BatchID    string // uuid que agrupa las filas de una misma operación lógica
	MaterialID int64
	Type       MovementType
	Quantity   decimal.Decimal // siempre positiva
	LocationID int64

	OriginProjectID    *int64
	DestProjectID      *int64
	DestSiteID         *int64 // capturado en RESERVE para que su reversa sea inequívoca
	PurchaseOrderID    *int64
	RequisitionID      *int64
	SourceAssignmentID *int64

	UnitValue decimal.Decimal
	Currency  string
	Notes     string
	ActorID   string
	Timestamp time.Time

	Status             string
	VoidedAt           *time.Time
	VoidedBy           *string
	VoidReason         *string
	ReversesMovementID *int64
}

// IsVoid reporta si el movimiento ya fue anulado.
func (m *Movement) IsVoid() bool { return m.Status == MovementStatusVoid }
