package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/construmax/almacen-api/internal/domain"
	"github.com/construmax/almacen-api/internal/domain/entity"
)

const testCentralSite int64 = 1

func newReceiptService(st *memStore) *ReceiptService {
	svc := NewReceiptService(fakeTx{st}, fakeLocationRepo{st}, fakeOrderRepo{st}, testCentralSite)
	svc.now = fixedNow(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	return svc
}

func TestRegisterReceipt_AlmacenCentralEntraAlDisponible(t *testing.T) {
	st := newStore()
	st.addLocation(1)
	st.addProject(3, testCentralSite)
	st.addOrder(100, 3, testCentralSite)
	st.addStock(7, 1, "2", "0", "10", "MXN")
	svc := newReceiptService(st)

	res, err := svc.RegisterReceipt(context.Background(), almacenista, ReceiptInput{
		PurchaseOrderID: 100,
		MaterialID:      7,
		Quantity:        d("8"),
		LocationID:      i64(1),
		UnitPrice:       d("11.25"),
		Currency:        "MXN",
	})
	require.NoError(t, err)

	assert.True(t, res.OnHand.Equal(d("10")))
	assert.True(t, res.Reserved.IsZero())
	assert.Empty(t, st.assignments, "recepción central no toca el pool")

	// Toda entrada válida refresca la foto de precio.
	rec := st.stockByID(1)
	assert.True(t, rec.LastUnitCost.Equal(d("11.25")))

	require.Len(t, st.movements, 1)
	m := st.movements[0]
	assert.Equal(t, entity.MovementReceive, m.Type)
	require.NotNil(t, m.PurchaseOrderID)
	assert.Equal(t, int64(100), *m.PurchaseOrderID)
	assert.Nil(t, m.DestProjectID)
}

func TestRegisterReceipt_ObraDeProyectoEntraApartada(t *testing.T) {
	st := newStore()
	st.addLocation(1)
	st.addProject(3, 20)
	st.addOrder(100, 3, 20) // obra 20 != almacén central
	svc := newReceiptService(st)

	res, err := svc.RegisterReceipt(context.Background(), almacenista, ReceiptInput{
		PurchaseOrderID: 100,
		MaterialID:      7,
		Quantity:        d("8"),
		UnitPrice:       d("11.25"),
		Currency:        "MXN",
	})
	require.NoError(t, err)

	assert.True(t, res.OnHand.IsZero())
	assert.True(t, res.Reserved.Equal(d("8")))

	// El pool recibe la fila apartada al proyecto de la orden, sin requisición.
	require.Len(t, st.assignments, 1)
	a := st.assignments[0]
	assert.Equal(t, int64(3), a.ProjectID)
	assert.Equal(t, int64(20), a.SiteID)
	assert.Equal(t, entity.NoRequisition, a.RequisitionID)
	assert.True(t, a.Quantity.Equal(d("8")))

	m := st.movements[0]
	require.NotNil(t, m.DestProjectID)
	assert.Equal(t, int64(3), *m.DestProjectID)
	assert.Equal(t, int64(20), *m.DestSiteID)
}

func TestRegisterReceipt_Validaciones(t *testing.T) {
	st := newStore()
	st.addLocation(1)
	st.addProject(3, testCentralSite)
	st.addOrder(100, 3, testCentralSite)
	svc := newReceiptService(st)
	ctx := context.Background()

	base := ReceiptInput{PurchaseOrderID: 100, MaterialID: 7, Quantity: d("1"), UnitPrice: d("10"), Currency: "MXN"}

	cases := []struct {
		name   string
		mutate func(*ReceiptInput)
	}{
		{"cantidad cero", func(in *ReceiptInput) { in.Quantity = d("0") }},
		{"precio cero", func(in *ReceiptInput) { in.UnitPrice = d("0") }},
		{"moneda inválida", func(in *ReceiptInput) { in.Currency = "PESOS" }},
		{"orden inexistente", func(in *ReceiptInput) { in.PurchaseOrderID = 999 }},
		{"ubicación inexistente", func(in *ReceiptInput) { in.LocationID = i64(999) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, err := svc.RegisterReceipt(ctx, almacenista, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, st.movements)
}
