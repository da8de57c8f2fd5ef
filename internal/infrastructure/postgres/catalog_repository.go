package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

var (
	_ repository.LocationRepository      = (*LocationRepo)(nil)
	_ repository.ProjectRepository       = (*ProjectRepo)(nil)
	_ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)
)

// LocationRepo lectura del catálogo de ubicaciones de almacén.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

func (r *LocationRepo) GetByID(id int64) (*entity.Location, error) {
	query := `SELECT id, name, created_at FROM locations WHERE id = $1`
	var l entity.Location
	err := r.q.QueryRow(context.Background(), query, id).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// GetDefault la ubicación de menor id: el destino de los ajustes que no
// indican ubicación.
func (r *LocationRepo) GetDefault() (*entity.Location, error) {
	query := `SELECT id, name, created_at FROM locations ORDER BY id ASC LIMIT 1`
	var l entity.Location
	err := r.q.QueryRow(context.Background(), query).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get default location: %w", err)
	}
	return &l, nil
}

// ProjectRepo lectura del catálogo de proyectos.
type ProjectRepo struct {
	q Querier
}

// NewProjectRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProjectRepository(q Querier) *ProjectRepo {
	return &ProjectRepo{q: q}
}

func (r *ProjectRepo) GetByID(id int64) (*entity.Project, error) {
	query := `SELECT id, name, site_id FROM projects WHERE id = $1`
	var p entity.Project
	err := r.q.QueryRow(context.Background(), query, id).Scan(&p.ID, &p.Name, &p.SiteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// PurchaseOrderRepo referencia mínima a órdenes de compra.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

func (r *PurchaseOrderRepo) GetByID(id int64) (*entity.PurchaseOrder, error) {
	query := `SELECT id, project_id, site_id FROM purchase_orders WHERE id = $1`
	var po entity.PurchaseOrder
	err := r.q.QueryRow(context.Background(), query, id).Scan(&po.ID, &po.ProjectID, &po.SiteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	return &po, nil
}
