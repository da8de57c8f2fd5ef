package repository

import (
	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// AssignmentRepository puerto de persistencia para el pool de apartados.
type AssignmentRepository interface {
	// Upsert incrementa la cantidad de la fila con destino exacto (proyecto,
	// obra, requisición) o inserta una nueva; sobreescribe precio/moneda y
	// fecha. No hace nada si quantity <= 0.
	Upsert(stockRecordID int64, dest entity.Destination, quantity, unitValue decimal.Decimal, currency string) error
	// GetForUpdate bloquea la fila por id, junto con su StockRecord.
	// nil, nil, nil si no existe.
	GetForUpdate(id int64) (*entity.Assignment, *entity.StockRecord, error)
	// ListForUpdate bloquea las filas con quantity > 0 que coinciden con el
	// destino, ordenadas quantity DESC, id ASC (se drenan las más grandes
	// primero, desempate determinista). siteID nil omite el filtro de obra.
	ListForUpdate(stockRecordID, projectID int64, siteID *int64, requisitionID int64) ([]*entity.Assignment, error)
	// AddQuantity suma delta (puede ser negativo) a una fila ya bloqueada.
	AddQuantity(id int64, delta decimal.Decimal) error
}
