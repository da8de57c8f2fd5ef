package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/construmax/almacen-api/internal/domain"
	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

// AdjustmentInput una línea de ajuste manual de existencia.
type AdjustmentInput struct {
	MaterialID int64
	Delta      decimal.Decimal
	LocationID *int64           // nil = ubicación por defecto (la de menor id)
	UnitPrice  *decimal.Decimal // solo admisible en el primer abastecimiento
	Currency   string           // obligatoria junto con UnitPrice
	Note       string
}

// AdjustmentResult resultado por línea: movimiento creado y saldos resultantes.
type AdjustmentResult struct {
	MaterialID int64
	LocationID int64
	MovementID int64
	OnHand     decimal.Decimal
	Reserved   decimal.Decimal
}

// AdjustmentService corrige existencias manualmente (solo superusuario).
// Un lote completo se procesa en una sola transacción: si una línea falla,
// se revierte el lote entero.
type AdjustmentService struct {
	tx        TxRunner
	locations repository.LocationRepository
	now       func() time.Time
}

// NewAdjustmentService construye el servicio. locations se usa fuera de la
// transacción para resolver referencias de catálogo.
func NewAdjustmentService(tx TxRunner, locations repository.LocationRepository) *AdjustmentService {
	return &AdjustmentService{tx: tx, locations: locations, now: time.Now}
}

// ApplyAdjustments aplica un lote de ajustes con semántica todo-o-nada.
func (s *AdjustmentService) ApplyAdjustments(ctx context.Context, actor entity.Actor, inputs []AdjustmentInput) ([]AdjustmentResult, error) {
	if !actor.IsSuperuser() {
		return nil, domain.ErrForbidden
	}
	if len(inputs) == 0 {
		return nil, domain.NewValidation("adjustments", "el lote no puede estar vacío")
	}

	// Resolver y validar cada línea antes de abrir la transacción.
	locationIDs := make([]int64, len(inputs))
	for i, in := range inputs {
		if in.MaterialID <= 0 {
			return nil, domain.NewValidation("material_id", "requerido")
		}
		if in.Delta.IsZero() {
			return nil, domain.NewValidation("delta", "debe ser distinto de cero")
		}
		if strings.TrimSpace(in.Note) == "" {
			return nil, domain.NewValidation("note", "la nota es obligatoria")
		}
		loc, err := s.resolveLocation(in.LocationID)
		if err != nil {
			return nil, err
		}
		locationIDs[i] = loc.ID

		// Precio y moneda van juntos o no van.
		if (in.UnitPrice == nil) != (in.Currency == "") {
			return nil, domain.NewValidation("unit_price", "precio y moneda deben indicarse juntos")
		}
		if in.UnitPrice != nil {
			if !in.UnitPrice.GreaterThan(decimal.Zero) {
				return nil, domain.NewValidation("unit_price", "debe ser mayor que cero")
			}
			if !validCurrency(in.Currency) {
				return nil, domain.NewValidation("currency", "código ISO 4217 de 3 letras")
			}
		}
	}

	batchID := uuid.New().String()
	now := s.now()
	results := make([]AdjustmentResult, 0, len(inputs))

	err := s.tx.Run(ctx, func(r Repos) error {
		for i, in := range inputs {
			res, err := s.applyOne(r, actor, in, locationIDs[i], batchID, now)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *AdjustmentService) applyOne(r Repos, actor entity.Actor, in AdjustmentInput, locationID int64, batchID string, now time.Time) (AdjustmentResult, error) {
	rec, err := r.Stock.EnsureExists(in.MaterialID, locationID)
	if err != nil {
		return AdjustmentResult{}, err
	}

	newOnHand := rec.OnHand.Add(in.Delta)
	if newOnHand.IsNegative() {
		return AdjustmentResult{}, domain.NewInsufficientStock(rec.OnHand, in.Delta.Neg())
	}

	// Precio/moneda solo admisibles en un primer abastecimiento genuino:
	// existencia total en cero y delta positivo.
	priceEdit := in.UnitPrice != nil
	if priceEdit && !(rec.TotalExistence().IsZero() && in.Delta.IsPositive()) {
		return AdjustmentResult{}, domain.ErrInvalidPriceEdit
	}

	if priceEdit {
		err = r.Stock.UpdateBalancesAndPrice(rec.ID, newOnHand, rec.Reserved, *in.UnitPrice, in.Currency)
	} else {
		err = r.Stock.UpdateBalances(rec.ID, newOnHand, rec.Reserved)
	}
	if err != nil {
		return AdjustmentResult{}, err
	}

	movType := entity.MovementAdjustUp
	if in.Delta.IsNegative() {
		movType = entity.MovementAdjustDown
	}
	unitValue, curr := rec.LastUnitCost, rec.Currency
	if priceEdit {
		unitValue, curr = *in.UnitPrice, in.Currency
	}
	mov := &entity.Movement{
		BatchID:    batchID,
		MaterialID: in.MaterialID,
		Type:       movType,
		Quantity:   in.Delta.Abs(),
		LocationID: locationID,
		UnitValue:  unitValue,
		Currency:   curr,
		Notes:      in.Note,
		ActorID:    actor.ID,
		Timestamp:  now,
		Status:     entity.MovementStatusActive,
	}
	if err := r.Movements.Create(mov); err != nil {
		return AdjustmentResult{}, err
	}

	return AdjustmentResult{
		MaterialID: in.MaterialID,
		LocationID: locationID,
		MovementID: mov.ID,
		OnHand:     newOnHand,
		Reserved:   rec.Reserved,
	}, nil
}

func (s *AdjustmentService) resolveLocation(id *int64) (*entity.Location, error) {
	if id == nil {
		loc, err := s.locations.GetDefault()
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, domain.NewValidation("location_id", "no hay ubicaciones de almacén registradas")
		}
		return loc, nil
	}
	loc, err := s.locations.GetByID(*id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.NewValidation("location_id", "la ubicación no existe")
	}
	return loc, nil
}
