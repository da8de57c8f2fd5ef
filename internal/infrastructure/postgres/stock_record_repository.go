package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL
// (usable con pool o tx; los métodos ForUpdate requieren tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

const stockRecordColumns = `id, material_id, location_id, on_hand, reserved, last_unit_cost, currency, updated_at`

func scanStockRecord(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(&s.ID, &s.MaterialID, &s.LocationID, &s.OnHand, &s.Reserved,
		&s.LastUnitCost, &s.Currency, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetForUpdate obtiene la existencia y bloquea la fila (SELECT FOR UPDATE).
// El candado y la lectura del valor de guarda son la misma sentencia: no hay
// ventana entre verificar y actuar.
func (r *StockRecordRepo) GetForUpdate(materialID, locationID int64) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE material_id = $1 AND location_id = $2
		FOR UPDATE`
	s, err := scanStockRecord(r.q.QueryRow(context.Background(), query, materialID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record for update: %w", err)
	}
	return s, nil
}

// EnsureExists devuelve la fila bloqueada, creándola en ceros si no existe.
// El INSERT tolera la carrera con otra transacción que cree la misma clave.
func (r *StockRecordRepo) EnsureExists(materialID, locationID int64) (*entity.StockRecord, error) {
	insert := `
		INSERT INTO stock_records (material_id, location_id, on_hand, reserved, last_unit_cost, currency, updated_at)
		VALUES ($1, $2, 0, 0, 0, '', now())
		ON CONFLICT (material_id, location_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), insert, materialID, locationID); err != nil {
		return nil, fmt.Errorf("ensure stock record: %w", err)
	}
	s, err := r.GetForUpdate(materialID, locationID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("ensure stock record: fila no visible tras insertar (material %d, ubicación %d)", materialID, locationID)
	}
	return s, nil
}

// ListForUpdateByMaterial bloquea todas las filas con disponible del material,
// ordenadas on_hand DESC, id ASC. El orden es parte del contrato: consumo
// voraz determinista y adquisición de candados consistente entre llamadores
// concurrentes.
func (r *StockRecordRepo) ListForUpdateByMaterial(materialID int64) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE material_id = $1 AND on_hand > 0
		ORDER BY on_hand DESC, id ASC
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, materialID)
	if err != nil {
		return nil, fmt.Errorf("list stock records for update: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockRecord
	for rows.Next() {
		s, err := scanStockRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpdateBalances persiste los saldos de una fila ya bloqueada.
func (r *StockRecordRepo) UpdateBalances(id int64, onHand, reserved decimal.Decimal) error {
	query := `
		UPDATE stock_records SET on_hand = $2, reserved = $3, updated_at = now()
		WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, onHand, reserved); err != nil {
		return fmt.Errorf("update stock balances: %w", err)
	}
	return nil
}

// UpdateBalancesAndPrice además fija la foto de precio/moneda.
func (r *StockRecordRepo) UpdateBalancesAndPrice(id int64, onHand, reserved, unitCost decimal.Decimal, currency string) error {
	query := `
		UPDATE stock_records
		SET on_hand = $2, reserved = $3, last_unit_cost = $4, currency = $5, updated_at = now()
		WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, onHand, reserved, unitCost, currency); err != nil {
		return fmt.Errorf("update stock balances and price: %w", err)
	}
	return nil
}
