package entity

import "time"

// Roles válidos para User. Superusuario es el único con capacidad de ajustar
// existencias y revertir movimientos; almacenista opera el día a día; consulta
// solo tiene lectura del Kardex.
const (
	RoleSuperuser   = "superusuario"
	RoleAlmacenista = "almacenista"
	RoleConsulta    = "consulta"
)

// User representa un usuario de la plataforma.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // superusuario, almacenista, consulta
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor es quien ejecuta una operación del ledger: id + rol tomados del token.
type Actor struct {
	ID   string
	Role string
}

// IsSuperuser reporta si el actor tiene la capacidad de superusuario.
func (a Actor) IsSuperuser() bool { return a.Role == RoleSuperuser }
