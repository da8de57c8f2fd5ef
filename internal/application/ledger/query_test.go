package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

func TestQueryService_AcotaLaPaginacion(t *testing.T) {
	st := newStore()
	svc := NewQueryService(fakeMovementRepo{st})
	ctx := context.Background()

	mk := func(status string) {
		require.NoError(t, fakeMovementRepo{st}.Create(&entity.Movement{
			BatchID: "b", MaterialID: 7, Type: entity.MovementAdjustUp,
			Quantity: d("1"), LocationID: 1, Status: status,
		}))
	}
	for i := 0; i < 30; i++ {
		mk(entity.MovementStatusActive)
	}

	// Límite cero toma el valor por defecto.
	rows, total, err := svc.Search(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, 30, total)
	assert.Len(t, rows, DefaultPageLimit)

	// Límite mayor al máximo se acota.
	rows, _, err = svc.Search(ctx, repository.MovementFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, rows, 30, "hay menos filas que el máximo")

	// Offset negativo se normaliza a cero.
	rows, _, err = svc.Search(ctx, repository.MovementFilter{Limit: 5, Offset: -3})
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestQueryService_ExcluyeAnuladosPorDefecto(t *testing.T) {
	st := newStore()
	svc := NewQueryService(fakeMovementRepo{st})
	ctx := context.Background()

	active := &entity.Movement{BatchID: "b", MaterialID: 7, Type: entity.MovementAdjustUp, Quantity: d("1"), Status: entity.MovementStatusActive}
	voided := &entity.Movement{BatchID: "b", MaterialID: 7, Type: entity.MovementAdjustUp, Quantity: d("1"), Status: entity.MovementStatusVoid}
	require.NoError(t, fakeMovementRepo{st}.Create(active))
	require.NoError(t, fakeMovementRepo{st}.Create(voided))

	_, total, err := svc.Search(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = svc.Search(ctx, repository.MovementFilter{IncludeVoided: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
