package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construmax/almacen-api/internal/domain"
	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

// ReceiptInput entrada de material contra una orden de compra.
type ReceiptInput struct {
	PurchaseOrderID int64
	MaterialID      int64
	Quantity        decimal.Decimal
	LocationID      *int64 // nil = ubicación por defecto
	UnitPrice       decimal.Decimal
	Currency        string
	Note            string
}

// ReceiptResult movimiento creado y saldos resultantes.
type ReceiptResult struct {
	LocationID int64
	MovementID int64
	OnHand     decimal.Decimal
	Reserved   decimal.Decimal
}

// ReceiptService registra entradas por orden de compra. Si la orden se recibe
// en la obra del almacén central, la cantidad entra al disponible; si se
// recibe en la obra de un proyecto, entra directamente apartada al proyecto.
type ReceiptService struct {
	tx             TxRunner
	locations      repository.LocationRepository
	purchaseOrders repository.PurchaseOrderRepository
	centralSiteID  int64
	now            func() time.Time
}

// NewReceiptService construye el servicio. centralSiteID es la obra del
// almacén central configurada.
func NewReceiptService(tx TxRunner, locations repository.LocationRepository, purchaseOrders repository.PurchaseOrderRepository, centralSiteID int64) *ReceiptService {
	return &ReceiptService{
		tx:             tx,
		locations:      locations,
		purchaseOrders: purchaseOrders,
		centralSiteID:  centralSiteID,
		now:            time.Now,
	}
}

// RegisterReceipt aplica la entrada y escribe el movimiento RECEIVE.
func (s *ReceiptService) RegisterReceipt(ctx context.Context, actor entity.Actor, in ReceiptInput) (*ReceiptResult, error) {
	if in.MaterialID <= 0 {
		return nil, domain.NewValidation("material_id", "requerido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidation("quantity", "debe ser mayor que cero")
	}
	if !in.UnitPrice.IsPositive() {
		return nil, domain.NewValidation("unit_price", "debe ser mayor que cero")
	}
	if !validCurrency(in.Currency) {
		return nil, domain.NewValidation("currency", "código ISO 4217 de 3 letras")
	}

	po, err := s.purchaseOrders.GetByID(in.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.NewValidation("purchase_order_id", "la orden de compra no existe")
	}

	var locationID int64
	if in.LocationID != nil {
		loc, err := s.locations.GetByID(*in.LocationID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, domain.NewValidation("location_id", "la ubicación no existe")
		}
		locationID = loc.ID
	} else {
		loc, err := s.locations.GetDefault()
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, domain.NewValidation("location_id", "no hay ubicaciones de almacén registradas")
		}
		locationID = loc.ID
	}

	now := s.now()
	var result *ReceiptResult

	err = s.tx.Run(ctx, func(r Repos) error {
		rec, err := r.Stock.EnsureExists(in.MaterialID, locationID)
		if err != nil {
			return err
		}

		onHand, reserved := rec.OnHand, rec.Reserved
		mov := &entity.Movement{
			BatchID:         uuid.New().String(),
			MaterialID:      in.MaterialID,
			Type:            entity.MovementReceive,
			Quantity:        in.Quantity,
			LocationID:      locationID,
			PurchaseOrderID: &po.ID,
			UnitValue:       in.UnitPrice,
			Currency:        in.Currency,
			Notes:           in.Note,
			ActorID:         actor.ID,
			Timestamp:       now,
			Status:          entity.MovementStatusActive,
		}

		if po.SiteID == s.centralSiteID {
			// Recepción en almacén central: al disponible.
			onHand = onHand.Add(in.Quantity)
		} else {
			// Recepción en obra de proyecto: entra ya apartada.
			reserved = reserved.Add(in.Quantity)
			dest := entity.Destination{ProjectID: po.ProjectID, SiteID: po.SiteID, RequisitionID: entity.NoRequisition}
			if err := r.Assignments.Upsert(rec.ID, dest, in.Quantity, in.UnitPrice, in.Currency); err != nil {
				return err
			}
			mov.DestProjectID = &po.ProjectID
			mov.DestSiteID = &po.SiteID
		}

		// Toda entrada válida refresca la foto de precio.
		if err := r.Stock.UpdateBalancesAndPrice(rec.ID, onHand, reserved, in.UnitPrice, in.Currency); err != nil {
			return err
		}
		if err := r.Movements.Create(mov); err != nil {
			return err
		}
		result = &ReceiptResult{LocationID: locationID, MovementID: mov.ID, OnHand: onHand, Reserved: reserved}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
