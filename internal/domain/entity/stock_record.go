package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord es la existencia autoritativa de un material en una ubicación de
// almacén: clave única (material_id, location_id). OnHand y Reserved nunca son
// negativos; OnHand + Reserved es la existencia total física en esa ubicación.
// Se crea perezosamente en ceros la primera vez que una operación lo necesita
// y nunca se elimina.
type StockRecord struct {
	ID         int64
	MaterialID int64
	LocationID int64
	OnHand     decimal.Decimal // disponible, sin apartar
	Reserved   decimal.Decimal // apartado hacia destinos vía Assignment

	// Foto del último precio de entrada válido. Solo editable bajo la regla
	// de primer abastecimiento (existencia total en cero y delta positivo).
	LastUnitCost decimal.Decimal
	Currency     string

	UpdatedAt time.Time
}

// TotalExistence devuelve OnHand + Reserved (función pura).
func (s *StockRecord) TotalExistence() decimal.Decimal {
	return s.OnHand.Add(s.Reserved)
}
