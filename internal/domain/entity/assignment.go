package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoRequisition es la variante explícita "sin requisición" de un destino.
// Se persiste como 0 (NOT NULL) para que la clave lógica del apartado no
// dependa de semántica de igualdad de NULL.
const NoRequisition int64 = 0

// Destination identifica el destino de un apartado: proyecto, obra y
// requisición opcional. Es un value type con igualdad definida explícitamente.
type Destination struct {
	ProjectID     int64
	SiteID        int64
	RequisitionID int64 // NoRequisition = sin requisición
}

// Equal compara los tres componentes del destino. "Sin requisición" solo es
// igual a "sin requisición".
func (d Destination) Equal(o Destination) bool {
	return d.ProjectID == o.ProjectID &&
		d.SiteID == o.SiteID &&
		d.RequisitionID == o.RequisitionID
}

// HasRequisition reporta si el destino está ligado a una requisición.
func (d Destination) HasRequisition() bool { return d.RequisitionID != NoRequisition }

// Assignment es una fila del pool de apartados: cantidad de un StockRecord
// apartada hacia un destino. Clave lógica única (stock_record_id, proyecto,
// obra, requisición). Las filas nunca se eliminan, solo se llevan a cero,
// para preservar el historial que necesita la reversa.
type Assignment struct {
	ID            int64
	StockRecordID int64
	ProjectID     int64
	SiteID        int64
	RequisitionID int64 // NoRequisition = sin requisición

	Quantity   decimal.Decimal // nunca negativa
	UnitValue  decimal.Decimal
	Currency   string
	AssignedAt time.Time
}

// Destination devuelve el destino de la fila como value type.
func (a *Assignment) Destination() Destination {
	return Destination{ProjectID: a.ProjectID, SiteID: a.SiteID, RequisitionID: a.RequisitionID}
}
