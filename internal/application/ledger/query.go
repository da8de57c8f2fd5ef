package ledger

import (
	"context"

	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

// Límites de paginación del Kardex.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// QueryService lectura filtrada y paginada del Kardex. Sin transacción y sin
// candados: filtrado puramente aditivo, ninguna regla de negocio.
type QueryService struct {
	movements repository.MovementRepository
}

// NewQueryService construye el servicio sobre un repositorio atado al pool.
func NewQueryService(movements repository.MovementRepository) *QueryService {
	return &QueryService{movements: movements}
}

// Search devuelve la página de movimientos y el total de coincidencias.
// El límite se acota a MaxPageLimit; cero toma el valor por defecto.
func (s *QueryService) Search(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.movements.Search(f)
}
