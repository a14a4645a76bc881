package entity

import (
	"sort"
	"time"
)

// Roles válidos.
const (
	RoleAdmin      = "admin"
	RoleAlmacenero = "almacenero" // maneja stock: crea materiales y registra movimientos
	RoleProduccion = "produccion" // solo lectura
)

// Estados de usuario.
const (
	UserStatusActive   = "activo"
	UserStatusInactive = "inactivo"
)

// IsValidRole valida que el rol pertenezca al conjunto conocido.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAlmacenero, RoleProduccion:
		return true
	}
	return false
}

// RoleSet conjunto de roles concedidos a un principal.
type RoleSet map[string]struct{}

// NewRoleSet construye un RoleSet a partir de una lista (ignora duplicados).
func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has indica si el conjunto contiene el rol.
func (s RoleSet) Has(role string) bool {
	_, ok := s[role]
	return ok
}

// HasAny indica si el conjunto contiene al menos uno de los roles.
func (s RoleSet) HasAny(roles ...string) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Slice devuelve los roles ordenados (salida estable para JSON y logs).
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Principal actor autenticado junto con sus roles resueltos en esta petición.
// Se pasa explícitamente a cada caso de uso; ningún componente lee sesión global.
type Principal struct {
	ID    string
	Roles RoleSet
}

// User representa un usuario del sistema (principal persistido).
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash
	Name         string
	Roles        []string
	Status       string // activo, inactivo
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive indica si el usuario puede operar.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
