package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura). Los handlers HTTP
// clasifican por identidad del error (errors.Is), nunca por el texto.
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrUserNotFound            = errors.New("usuario no encontrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrUnauthorized            = errors.New("no autorizado")
	ErrForbidden               = errors.New("acceso denegado")
	ErrInsufficientStock       = errors.New("existencia insuficiente")
	ErrInsufficientReservation = errors.New("apartado insuficiente")
	ErrInvalidPriceEdit        = errors.New("precio/moneda solo editables en el primer abastecimiento")
	ErrReversalWindowExpired   = errors.New("la reversa solo procede el mismo día del movimiento")
	ErrUnsupportedReversalType = errors.New("tipo de movimiento sin reversa definida")
)

// QuantityError acompaña a ErrInsufficientStock / ErrInsufficientReservation
// con el detalle que el llamador necesita para corregirse.
type QuantityError struct {
	Err       error // sentinel envuelto
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%s: disponible %s, solicitado %s", e.Err, e.Available, e.Requested)
}

func (e *QuantityError) Unwrap() error { return e.Err }

// NewInsufficientStock construye el error de existencia insuficiente con detalle.
func NewInsufficientStock(available, requested decimal.Decimal) error {
	return &QuantityError{Err: ErrInsufficientStock, Available: available, Requested: requested}
}

// NewInsufficientReservation construye el error de apartado insuficiente con detalle.
func NewInsufficientReservation(available, requested decimal.Decimal) error {
	return &QuantityError{Err: ErrInsufficientReservation, Available: available, Requested: requested}
}

// ValidationError envuelve ErrInvalidInput con el campo y motivo concretos.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrInvalidInput, e.Reason, e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidation construye un error de validación con campo y motivo.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reporta si el error es corregible por el llamador (entrada o
// regla de negocio) en oposición a una falla interna de almacenamiento.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInsufficientReservation) ||
		errors.Is(err, ErrInvalidPriceEdit) ||
		errors.Is(err, ErrReversalWindowExpired) ||
		errors.Is(err, ErrUnsupportedReversalType)
}
