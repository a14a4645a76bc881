// Package authz contiene la tabla única de autorización (operación × entidad → roles).
// Todo punto de entrada que muta estado la consulta antes de tocar persistencia;
// ningún otro paquete compara roles por su cuenta.
package authz

import (
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// Operation acción solicitada.
type Operation string

// EntityKind tipo de entidad sobre la que se actúa.
type EntityKind string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpRead   Operation = "read"
)

const (
	EntityMaterial  EntityKind = "material"
	EntityMovement  EntityKind = "movement"
	EntityReport    EntityKind = "report"
	EntityPrincipal EntityKind = "principal"
)

type rule struct {
	op   Operation
	kind EntityKind
}

var (
	writers = []string{entity.RoleAdmin, entity.RoleAlmacenero}
	readers = []string{entity.RoleAdmin, entity.RoleAlmacenero, entity.RoleProduccion}
	admins  = []string{entity.RoleAdmin}
)

// table: lo que no aparece aquí está denegado.
var table = map[rule][]string{
	{OpCreate, EntityMaterial}: writers,
	{OpUpdate, EntityMaterial}: writers,
	{OpDelete, EntityMaterial}: admins,
	{OpRead, EntityMaterial}:   readers,

	// Registrar un movimiento es la única escritura posible sobre el ledger.
	{OpCreate, EntityMovement}: writers,
	{OpRead, EntityMovement}:   readers,

	{OpRead, EntityReport}: readers,

	{OpCreate, EntityPrincipal}: admins,
	{OpUpdate, EntityPrincipal}: admins,
	{OpDelete, EntityPrincipal}: admins,
	{OpRead, EntityPrincipal}:   admins,
}

// Allowed es una función pura: determinística y sin efectos secundarios.
func Allowed(roles entity.RoleSet, op Operation, kind EntityKind) bool {
	required, ok := table[rule{op, kind}]
	if !ok {
		return false
	}
	return roles.HasAny(required...)
}

// Check devuelve domain.ErrForbidden si el principal no puede ejecutar op sobre kind.
func Check(p entity.Principal, op Operation, kind EntityKind) error {
	if p.ID == "" || !Allowed(p.Roles, op, kind) {
		return domain.ErrForbidden
	}
	return nil
}
