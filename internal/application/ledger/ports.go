package ledger

import (
	"context"

	"github.com/construmax/almacen-api/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción. El núcleo del
// ledger nunca toca un pool directamente: todo lo que muta pasa por aquí.
type Repos struct {
	Stock          repository.StockRecordRepository
	Assignments    repository.AssignmentRepository
	Movements      repository.MovementRepository
	Locations      repository.LocationRepository
	Projects       repository.ProjectRepository
	PurchaseOrders repository.PurchaseOrderRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Cualquier error revierte la transacción
// completa: nunca se observan efectos parciales.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
