package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentLineRequest una línea de ajuste manual.
type AdjustmentLineRequest struct {
	MaterialID int64            `json:"material_id"`
	Delta      decimal.Decimal  `json:"delta"`
	LocationID *int64           `json:"location_id,omitempty"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Currency   string           `json:"currency,omitempty"`
	Note       string           `json:"note"`
}

// ApplyAdjustmentsRequest body para POST /api/ledger/adjustments.
type ApplyAdjustmentsRequest struct {
	Adjustments []AdjustmentLineRequest `json:"adjustments"`
}

// AdjustmentLineResponse resultado por línea del lote.
type AdjustmentLineResponse struct {
	MaterialID int64           `json:"material_id"`
	LocationID int64           `json:"location_id"`
	MovementID int64           `json:"movement_id"`
	OnHand     decimal.Decimal `json:"on_hand"`
	Reserved   decimal.Decimal `json:"reserved"`
}

// ReserveRequest body para POST /api/ledger/reservations.
type ReserveRequest struct {
	MaterialID    int64           `json:"material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	SiteID        int64           `json:"site_id"`
	ProjectID     int64           `json:"project_id"`
	RequisitionID int64           `json:"requisition_id,omitempty"`
}

// ReservePortionResponse parte del apartado tomada de una ubicación.
type ReservePortionResponse struct {
	LocationID    int64           `json:"location_id"`
	QuantityTaken decimal.Decimal `json:"quantity_taken"`
}

// RelocateRequest body para POST /api/ledger/relocations.
type RelocateRequest struct {
	AssignmentID int64            `json:"assignment_id"`
	NewSiteID    int64            `json:"new_site_id"`
	NewProjectID int64            `json:"new_project_id"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"` // nil = toda la fila
}

// ReceiptRequest body para POST /api/ledger/receipts.
type ReceiptRequest struct {
	PurchaseOrderID int64           `json:"purchase_order_id"`
	MaterialID      int64           `json:"material_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	LocationID      *int64          `json:"location_id,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Currency        string          `json:"currency"`
	Note            string          `json:"note,omitempty"`
}

// IssueRequest body para POST /api/ledger/issues.
type IssueRequest struct {
	MaterialID   int64           `json:"material_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	LocationID   int64           `json:"location_id,omitempty"`
	AssignmentID *int64          `json:"assignment_id,omitempty"`
	Note         string          `json:"note,omitempty"`
}

// ReverseRequest body para POST /api/ledger/reversals.
type ReverseRequest struct {
	MovementID int64  `json:"movement_id"`
	Reason     string `json:"reason"`
}

// MovementResponse una entrada del Kardex en respuestas de consulta.
type MovementResponse struct {
	ID                 int64           `json:"id"`
	BatchID            string          `json:"batch_id"`
	MaterialID         int64           `json:"material_id"`
	Type               string          `json:"type"`
	Quantity           decimal.Decimal `json:"quantity"`
	LocationID         int64           `json:"location_id"`
	OriginProjectID    *int64          `json:"origin_project_id,omitempty"`
	DestProjectID      *int64          `json:"dest_project_id,omitempty"`
	DestSiteID         *int64          `json:"dest_site_id,omitempty"`
	PurchaseOrderID    *int64          `json:"purchase_order_id,omitempty"`
	RequisitionID      *int64          `json:"requisition_id,omitempty"`
	SourceAssignmentID *int64          `json:"source_assignment_id,omitempty"`
	UnitValue          decimal.Decimal `json:"unit_value"`
	Currency           string          `json:"currency,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	ActorID            string          `json:"actor_id"`
	Timestamp          time.Time       `json:"timestamp"`
	Status             string          `json:"status"`
	VoidedAt           *time.Time      `json:"voided_at,omitempty"`
	VoidedBy           *string         `json:"voided_by,omitempty"`
	VoidReason         *string         `json:"void_reason,omitempty"`
	ReversesMovementID *int64          `json:"reverses_movement_id,omitempty"`
}

// MovementPageResponse página del Kardex con el total de coincidencias.
type MovementPageResponse struct {
	Total int                `json:"total"`
	Rows  []MovementResponse `json:"rows"`
	Page  PageResponse       `json:"page"`
}
