package repository

import "github.com/construmax/almacen-api/internal/domain/entity"

// LocationRepository catálogo de ubicaciones de almacén (solo lectura aquí;
// el alta/baja de ubicaciones vive fuera del núcleo del ledger).
type LocationRepository interface {
	// GetByID nil, nil si no existe.
	GetByID(id int64) (*entity.Location, error)
	// GetDefault la ubicación de menor id; se usa cuando un ajuste no indica
	// ubicación. nil, nil si no hay ninguna.
	GetDefault() (*entity.Location, error)
}

// ProjectRepository catálogo de proyectos.
type ProjectRepository interface {
	GetByID(id int64) (*entity.Project, error)
}

// PurchaseOrderRepository referencia mínima a órdenes de compra: lo que el
// ledger necesita para enrutar entradas y revertirlas.
type PurchaseOrderRepository interface {
	GetByID(id int64) (*entity.PurchaseOrder, error)
}
