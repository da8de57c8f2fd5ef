package repository

import (
	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockRecordRepository puerto de persistencia para existencias por
// (material, ubicación). Los métodos *ForUpdate solo tienen sentido dentro de
// una transacción abierta: el candado de fila se libera en Commit/Rollback.
type StockRecordRepository interface {
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) y la devuelve.
	// nil, nil si no existe.
	GetForUpdate(materialID, locationID int64) (*entity.StockRecord, error)
	// EnsureExists devuelve la fila bloqueada, creándola en ceros si no existe.
	EnsureExists(materialID, locationID int64) (*entity.StockRecord, error)
	// ListForUpdateByMaterial bloquea todas las filas del material con
	// on_hand > 0, ordenadas on_hand DESC, id ASC (orden determinista de
	// bloqueo y de consumo voraz).
	ListForUpdateByMaterial(materialID int64) ([]*entity.StockRecord, error)
	// UpdateBalances persiste on_hand y reserved de una fila ya bloqueada.
	UpdateBalances(id int64, onHand, reserved decimal.Decimal) error
	// UpdateBalancesAndPrice además fija la foto de precio/moneda (regla de
	// primer abastecimiento).
	UpdateBalancesAndPrice(id int64, onHand, reserved, unitCost decimal.Decimal, currency string) error
}
