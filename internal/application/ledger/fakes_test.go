package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/construmax/almacen-api/internal/domain"
	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

// memStore estado en memoria compartido por los repositorios fake. El fake de
// TxRunner toma un snapshot antes de ejecutar y lo restaura si la función
// devuelve error, imitando el rollback de la transacción real.
type memStore struct {
	stocks      []*entity.StockRecord
	assignments []*entity.Assignment
	movements   []*entity.Movement
	locations   []*entity.Location
	projects    []*entity.Project
	orders      []*entity.PurchaseOrder

	stockSeq  int64
	assignSeq int64
	movSeq    int64
}

func newStore() *memStore { return &memStore{} }

func (s *memStore) addLocation(id int64) {
	s.locations = append(s.locations, &entity.Location{ID: id, Name: "bodega"})
}

func (s *memStore) addProject(id, siteID int64) {
	s.projects = append(s.projects, &entity.Project{ID: id, Name: "proyecto", SiteID: siteID})
}

func (s *memStore) addOrder(id, projectID, siteID int64) {
	s.orders = append(s.orders, &entity.PurchaseOrder{ID: id, ProjectID: projectID, SiteID: siteID})
}

func (s *memStore) addStock(materialID, locationID int64, onHand, reserved, cost string, currency string) *entity.StockRecord {
	s.stockSeq++
	rec := &entity.StockRecord{
		ID:           s.stockSeq,
		MaterialID:   materialID,
		LocationID:   locationID,
		OnHand:       d(onHand),
		Reserved:     d(reserved),
		LastUnitCost: d(cost),
		Currency:     currency,
	}
	s.stocks = append(s.stocks, rec)
	return rec
}

func (s *memStore) addAssignment(stockRecordID int64, dest entity.Destination, qty, unitValue string, currency string) *entity.Assignment {
	s.assignSeq++
	a := &entity.Assignment{
		ID:            s.assignSeq,
		StockRecordID: stockRecordID,
		ProjectID:     dest.ProjectID,
		SiteID:        dest.SiteID,
		RequisitionID: dest.RequisitionID,
		Quantity:      d(qty),
		UnitValue:     d(unitValue),
		Currency:      currency,
	}
	s.assignments = append(s.assignments, a)
	return a
}

func (s *memStore) stockByID(id int64) *entity.StockRecord {
	for _, rec := range s.stocks {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (s *memStore) assignmentByID(id int64) *entity.Assignment {
	for _, a := range s.assignments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *memStore) movementByID(id int64) *entity.Movement {
	for _, m := range s.movements {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// snapshot copia el estado mutable (stocks, assignments, movements).
type memSnapshot struct {
	stocks      []entity.StockRecord
	assignments []entity.Assignment
	movements   []entity.Movement
	stockSeq    int64
	assignSeq   int64
	movSeq      int64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{stockSeq: s.stockSeq, assignSeq: s.assignSeq, movSeq: s.movSeq}
	for _, rec := range s.stocks {
		snap.stocks = append(snap.stocks, *rec)
	}
	for _, a := range s.assignments {
		snap.assignments = append(snap.assignments, *a)
	}
	for _, m := range s.movements {
		snap.movements = append(snap.movements, *m)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.stocks = s.stocks[:0]
	for i := range snap.stocks {
		rec := snap.stocks[i]
		s.stocks = append(s.stocks, &rec)
	}
	s.assignments = s.assignments[:0]
	for i := range snap.assignments {
		a := snap.assignments[i]
		s.assignments = append(s.assignments, &a)
	}
	s.movements = s.movements[:0]
	for i := range snap.movements {
		m := snap.movements[i]
		s.movements = append(s.movements, &m)
	}
	s.stockSeq, s.assignSeq, s.movSeq = snap.stockSeq, snap.assignSeq, snap.movSeq
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios fake
// ──────────────────────────────────────────────────────────────────────────────

type fakeStockRepo struct{ st *memStore }

func (f fakeStockRepo) GetForUpdate(materialID, locationID int64) (*entity.StockRecord, error) {
	for _, rec := range f.st.stocks {
		if rec.MaterialID == materialID && rec.LocationID == locationID {
			return rec, nil
		}
	}
	return nil, nil
}

func (f fakeStockRepo) EnsureExists(materialID, locationID int64) (*entity.StockRecord, error) {
	rec, _ := f.GetForUpdate(materialID, locationID)
	if rec != nil {
		return rec, nil
	}
	f.st.stockSeq++
	rec = &entity.StockRecord{
		ID:           f.st.stockSeq,
		MaterialID:   materialID,
		LocationID:   locationID,
		OnHand:       decimal.Zero,
		Reserved:     decimal.Zero,
		LastUnitCost: decimal.Zero,
	}
	f.st.stocks = append(f.st.stocks, rec)
	return rec, nil
}

func (f fakeStockRepo) ListForUpdateByMaterial(materialID int64) ([]*entity.StockRecord, error) {
	var rows []*entity.StockRecord
	for _, rec := range f.st.stocks {
		if rec.MaterialID == materialID && rec.OnHand.IsPositive() {
			rows = append(rows, rec)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].OnHand.Cmp(rows[j].OnHand); c != 0 {
			return c > 0
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

func (f fakeStockRepo) UpdateBalances(id int64, onHand, reserved decimal.Decimal) error {
	rec := f.st.stockByID(id)
	if rec == nil {
		return domain.ErrNotFound
	}
	rec.OnHand, rec.Reserved = onHand, reserved
	return nil
}

func (f fakeStockRepo) UpdateBalancesAndPrice(id int64, onHand, reserved, unitCost decimal.Decimal, currency string) error {
	if err := f.UpdateBalances(id, onHand, reserved); err != nil {
		return err
	}
	rec := f.st.stockByID(id)
	rec.LastUnitCost, rec.Currency = unitCost, currency
	return nil
}

type fakeAssignmentRepo struct{ st *memStore }

func (f fakeAssignmentRepo) Upsert(stockRecordID int64, dest entity.Destination, quantity, unitValue decimal.Decimal, currency string) error {
	if !quantity.IsPositive() {
		return nil
	}
	for _, a := range f.st.assignments {
		if a.StockRecordID == stockRecordID && a.Destination().Equal(dest) {
			a.Quantity = a.Quantity.Add(quantity)
			a.UnitValue, a.Currency = unitValue, currency
			return nil
		}
	}
	f.st.assignSeq++
	f.st.assignments = append(f.st.assignments, &entity.Assignment{
		ID:            f.st.assignSeq,
		StockRecordID: stockRecordID,
		ProjectID:     dest.ProjectID,
		SiteID:        dest.SiteID,
		RequisitionID: dest.RequisitionID,
		Quantity:      quantity,
		UnitValue:     unitValue,
		Currency:      currency,
	})
	return nil
}

func (f fakeAssignmentRepo) GetForUpdate(id int64) (*entity.Assignment, *entity.StockRecord, error) {
	a := f.st.assignmentByID(id)
	if a == nil {
		return nil, nil, nil
	}
	return a, f.st.stockByID(a.StockRecordID), nil
}

func (f fakeAssignmentRepo) ListForUpdate(stockRecordID, projectID int64, siteID *int64, requisitionID int64) ([]*entity.Assignment, error) {
	var rows []*entity.Assignment
	for _, a := range f.st.assignments {
		if a.StockRecordID != stockRecordID || a.ProjectID != projectID || a.RequisitionID != requisitionID {
			continue
		}
		if siteID != nil && a.SiteID != *siteID {
			continue
		}
		if !a.Quantity.IsPositive() {
			continue
		}
		rows = append(rows, a)
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Quantity.Cmp(rows[j].Quantity); c != 0 {
			return c > 0
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

func (f fakeAssignmentRepo) AddQuantity(id int64, delta decimal.Decimal) error {
	a := f.st.assignmentByID(id)
	if a == nil {
		return domain.ErrNotFound
	}
	a.Quantity = a.Quantity.Add(delta)
	return nil
}

type fakeMovementRepo struct{ st *memStore }

func (f fakeMovementRepo) Create(m *entity.Movement) error {
	f.st.movSeq++
	m.ID = f.st.movSeq
	cp := *m
	f.st.movements = append(f.st.movements, &cp)
	return nil
}

func (f fakeMovementRepo) GetForUpdate(id int64) (*entity.Movement, error) {
	return f.st.movementByID(id), nil
}

func (f fakeMovementRepo) MarkVoided(id int64, at time.Time, by, reason string) error {
	m := f.st.movementByID(id)
	if m == nil || m.Status != entity.MovementStatusActive {
		return domain.ErrNotFound
	}
	m.Status = entity.MovementStatusVoid
	m.VoidedAt, m.VoidedBy, m.VoidReason = &at, &by, &reason
	return nil
}

func (f fakeMovementRepo) Search(filter repository.MovementFilter) ([]*entity.Movement, int, error) {
	var all []*entity.Movement
	for _, m := range f.st.movements {
		if !filter.IncludeVoided && m.Status != entity.MovementStatusActive {
			continue
		}
		if filter.MaterialID != nil && m.MaterialID != *filter.MaterialID {
			continue
		}
		if filter.Type != nil && m.Type != *filter.Type {
			continue
		}
		all = append(all, m)
	}
	total := len(all)
	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			all = nil
		} else {
			all = all[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

type fakeLocationRepo struct{ st *memStore }

func (f fakeLocationRepo) GetByID(id int64) (*entity.Location, error) {
	for _, loc := range f.st.locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return nil, nil
}

func (f fakeLocationRepo) GetDefault() (*entity.Location, error) {
	var min *entity.Location
	for _, loc := range f.st.locations {
		if min == nil || loc.ID < min.ID {
			min = loc
		}
	}
	return min, nil
}

type fakeProjectRepo struct{ st *memStore }

func (f fakeProjectRepo) GetByID(id int64) (*entity.Project, error) {
	for _, p := range f.st.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

type fakeOrderRepo struct{ st *memStore }

func (f fakeOrderRepo) GetByID(id int64) (*entity.PurchaseOrder, error) {
	for _, po := range f.st.orders {
		if po.ID == id {
			return po, nil
		}
	}
	return nil, nil
}

// fakeTx ejecuta fn contra los repositorios fake; si fn falla restaura el
// snapshot previo, igual que el rollback real.
type fakeTx struct{ st *memStore }

func (f fakeTx) Run(_ context.Context, fn func(r Repos) error) error {
	snap := f.st.snapshot()
	err := fn(Repos{
		Stock:          fakeStockRepo{f.st},
		Assignments:    fakeAssignmentRepo{f.st},
		Movements:      fakeMovementRepo{f.st},
		Locations:      fakeLocationRepo{f.st},
		Projects:       fakeProjectRepo{f.st},
		PurchaseOrders: fakeOrderRepo{f.st},
	})
	if err != nil {
		f.st.restore(snap)
	}
	return err
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers comunes
// ──────────────────────────────────────────────────────────────────────────────

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func i64(v int64) *int64 { return &v }

var (
	superuser   = entity.Actor{ID: "u-super", Role: entity.RoleSuperuser}
	almacenista = entity.Actor{ID: "u-alm", Role: entity.RoleAlmacenista}
)

// fixedNow reloj fijo para tests.
func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
