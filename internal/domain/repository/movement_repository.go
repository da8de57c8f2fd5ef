package repository

import (
	"time"

	"github.com/construmax/almacen-api/internal/domain/entity"
)

// MovementFilter filtros aditivos para consultar el Kardex. Los punteros nil
// omiten el filtro; Project coincide contra proyecto de origen O de destino.
type MovementFilter struct {
	MaterialID      *int64
	ProjectID       *int64
	LocationID      *int64
	Type            *entity.MovementType
	PurchaseOrderID *int64
	RequisitionID   *int64
	ActorID         *string
	From            *time.Time
	To              *time.Time
	Search          string // texto libre sobre notas
	IncludeVoided   bool   // por defecto se excluyen los anulados
	Limit           int
	Offset          int
}

// MovementRepository puerto de persistencia del Kardex.
type MovementRepository interface {
	// Create persiste una entrada nueva (status ACTIVE) y asigna su id.
	Create(m *entity.Movement) error
	// GetForUpdate bloquea la entrada por id. nil, nil si no existe.
	GetForUpdate(id int64) (*entity.Movement, error)
	// MarkVoided marca ACTIVE -> VOID con los campos de auditoría. El efecto
	// del movimiento ya debe estar deshecho en la misma transacción.
	MarkVoided(id int64, at time.Time, by, reason string) error
	// Search devuelve la página filtrada y el total de coincidencias.
	// Lectura pura: sin candados ni transacción.
	Search(f MovementFilter) ([]*entity.Movement, int, error)
}
