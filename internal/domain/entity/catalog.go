package entity

import "time"

// Location es una ubicación física de almacén (bodega, área, anaquel).
// El material se referencia solo por id: el catálogo de materiales vive fuera
// del núcleo del ledger.
type Location struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Site es una obra: el lugar físico donde un proyecto consume material.
type Site struct {
	ID   int64
	Name string
}

// Project es un proyecto de la empresa. SiteID es su obra principal, usada
// para resolver el origen de una salida cuando el movimiento no lo trae.
type Project struct {
	ID     int64
	Name   string
	SiteID int64
}

// PurchaseOrder es la referencia mínima a una orden de compra que el ledger
// necesita para enrutar una entrada: la obra donde se recibe y el proyecto
// que la pidió. El flujo de aprobación vive fuera del núcleo.
type PurchaseOrder struct {
	ID        int64
	ProjectID int64
	SiteID    int64
}
