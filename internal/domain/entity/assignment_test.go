package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestinationEqual(t *testing.T) {
	base := Destination{ProjectID: 1, SiteID: 10, RequisitionID: 55}

	assert.True(t, base.Equal(Destination{ProjectID: 1, SiteID: 10, RequisitionID: 55}))
	assert.False(t, base.Equal(Destination{ProjectID: 2, SiteID: 10, RequisitionID: 55}))
	assert.False(t, base.Equal(Destination{ProjectID: 1, SiteID: 11, RequisitionID: 55}))
	assert.False(t, base.Equal(Destination{ProjectID: 1, SiteID: 10, RequisitionID: NoRequisition}),
		"con requisición y sin requisición son destinos distintos")

	sin := Destination{ProjectID: 1, SiteID: 10, RequisitionID: NoRequisition}
	assert.True(t, sin.Equal(Destination{ProjectID: 1, SiteID: 10}),
		"sin requisición solo es igual a sin requisición")
}

func TestDestinationHasRequisition(t *testing.T) {
	assert.True(t, Destination{ProjectID: 1, SiteID: 10, RequisitionID: 55}.HasRequisition())
	assert.False(t, Destination{ProjectID: 1, SiteID: 10}.HasRequisition())
}

func TestMovementTypeValid(t *testing.T) {
	for _, mt := range []MovementType{
		MovementAdjustUp, MovementAdjustDown, MovementReserve,
		MovementTransfer, MovementReceive, MovementIssue,
	} {
		assert.True(t, mt.Valid(), "%s debe ser válido", mt)
	}
	assert.False(t, MovementType("LEGACY").Valid())
	assert.False(t, MovementType("").Valid())
}
