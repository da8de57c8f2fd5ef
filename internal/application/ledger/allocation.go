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

// ReservePortion parte de un apartado satisfecha desde una ubicación.
type ReservePortion struct {
	LocationID    int64
	QuantityTaken decimal.Decimal
}

// AllocationService aparta existencia disponible hacia destinos y traslada
// apartados existentes entre destinos.
type AllocationService struct {
	tx       TxRunner
	projects repository.ProjectRepository
	now      func() time.Time
}

// NewAllocationService construye el servicio.
func NewAllocationService(tx TxRunner, projects repository.ProjectRepository) *AllocationService {
	return &AllocationService{tx: tx, projects: projects, now: time.Now}
}

// Reserve aparta quantity del material hacia (proyecto, obra, requisición),
// consumiendo primero las ubicaciones con más disponible (empate por id
// ascendente). El apartado puede quedar repartido entre varias ubicaciones;
// se devuelve el desglose por ubicación.
func (s *AllocationService) Reserve(ctx context.Context, actor entity.Actor, materialID int64, quantity decimal.Decimal, siteID, projectID, requisitionID int64) ([]ReservePortion, error) {
	if materialID <= 0 {
		return nil, domain.NewValidation("material_id", "requerido")
	}
	if !quantity.IsPositive() {
		return nil, domain.NewValidation("quantity", "debe ser mayor que cero")
	}
	if projectID <= 0 || siteID <= 0 {
		return nil, domain.NewValidation("destination", "proyecto y obra son obligatorios")
	}
	proj, err := s.projects.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, domain.NewValidation("project_id", "el proyecto no existe")
	}

	dest := entity.Destination{ProjectID: projectID, SiteID: siteID, RequisitionID: requisitionID}
	batchID := uuid.New().String()
	now := s.now()
	var portions []ReservePortion

	err = s.tx.Run(ctx, func(r Repos) error {
		// Bloquea todas las filas con disponible, orden determinista.
		rows, err := r.Stock.ListForUpdateByMaterial(materialID)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, rec := range rows {
			total = total.Add(rec.OnHand)
		}
		if total.LessThan(quantity) {
			return domain.NewInsufficientStock(total, quantity)
		}

		remaining := quantity
		for _, rec := range rows {
			if !remaining.IsPositive() {
				break
			}
			take := decimal.Min(remaining, rec.OnHand)
			if err := r.Stock.UpdateBalances(rec.ID, rec.OnHand.Sub(take), rec.Reserved.Add(take)); err != nil {
				return err
			}
			if err := r.Assignments.Upsert(rec.ID, dest, take, rec.LastUnitCost, rec.Currency); err != nil {
				return err
			}
			mov := &entity.Movement{
				BatchID:       batchID,
				MaterialID:    materialID,
				Type:          entity.MovementReserve,
				Quantity:      take,
				LocationID:    rec.LocationID,
				DestProjectID: &dest.ProjectID,
				DestSiteID:    &dest.SiteID,
				UnitValue:     rec.LastUnitCost,
				Currency:      rec.Currency,
				ActorID:       actor.ID,
				Timestamp:     now,
				Status:        entity.MovementStatusActive,
			}
			if dest.HasRequisition() {
				mov.RequisitionID = &dest.RequisitionID
			}
			if err := r.Movements.Create(mov); err != nil {
				return err
			}
			portions = append(portions, ReservePortion{LocationID: rec.LocationID, QuantityTaken: take})
			remaining = remaining.Sub(take)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return portions, nil
}

// Relocate traslada quantity (la fila completa si es nil) de un apartado hacia
// otro destino. Trasladar al mismo destino exacto es un no-op idempotente.
// La fila origen se conserva aunque quede en cero: el historial lo necesita
// la reversa.
func (s *AllocationService) Relocate(ctx context.Context, actor entity.Actor, assignmentID, newSiteID, newProjectID int64, quantity *decimal.Decimal) error {
	if assignmentID <= 0 {
		return domain.NewValidation("assignment_id", "requerido")
	}
	if newProjectID <= 0 || newSiteID <= 0 {
		return domain.NewValidation("destination", "proyecto y obra son obligatorios")
	}
	proj, err := s.projects.GetByID(newProjectID)
	if err != nil {
		return err
	}
	if proj == nil {
		return domain.NewValidation("new_project_id", "el proyecto no existe")
	}
	now := s.now()

	return s.tx.Run(ctx, func(r Repos) error {
		a, rec, err := r.Assignments.GetForUpdate(assignmentID)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.ErrNotFound
		}

		moved := a.Quantity
		if quantity != nil {
			moved = *quantity
		}
		if !moved.IsPositive() {
			return domain.NewValidation("quantity", "debe ser mayor que cero")
		}
		if moved.GreaterThan(a.Quantity) {
			return domain.NewInsufficientReservation(a.Quantity, moved)
		}

		newDest := entity.Destination{ProjectID: newProjectID, SiteID: newSiteID, RequisitionID: a.RequisitionID}
		if newDest.Equal(a.Destination()) {
			return nil // mismo destino exacto: no-op
		}

		if err := r.Assignments.AddQuantity(a.ID, moved.Neg()); err != nil {
			return err
		}
		if err := r.Assignments.Upsert(a.StockRecordID, newDest, moved, a.UnitValue, a.Currency); err != nil {
			return err
		}

		mov := &entity.Movement{
			BatchID:            uuid.New().String(),
			MaterialID:         rec.MaterialID,
			Type:               entity.MovementTransfer,
			Quantity:           moved,
			LocationID:         rec.LocationID,
			OriginProjectID:    &a.ProjectID,
			DestProjectID:      &newDest.ProjectID,
			DestSiteID:         &newDest.SiteID,
			SourceAssignmentID: &a.ID,
			UnitValue:          a.UnitValue,
			Currency:           a.Currency,
			ActorID:            actor.ID,
			Timestamp:          now,
			Status:             entity.MovementStatusActive,
		}
		if newDest.HasRequisition() {
			mov.RequisitionID = &newDest.RequisitionID
		}
		return r.Movements.Create(mov)
	})
}
