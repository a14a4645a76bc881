package auth

import (
	"context"
	"fmt"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// RoleRegistry resuelve los roles de un principal consultando el almacén de usuarios
// en cada llamada. No cachea: un cambio de rol o una desactivación se aplica a la
// siguiente petición.
type RoleRegistry struct {
	users repository.UserRepository
	log   *logger.Logger
}

// NewRoleRegistry construye el registro de roles.
func NewRoleRegistry(users repository.UserRepository, log *logger.Logger) *RoleRegistry {
	return &RoleRegistry{users: users, log: log.Named("roles")}
}

// RolesOf devuelve los roles vigentes del principal. Un principal desconocido o
// inactivo tiene el conjunto vacío. Si el almacén falla devuelve
// domain.ErrAuthUnavailable; nunca degrada a "sin roles" ni a "todos los roles".
func (r *RoleRegistry) RolesOf(ctx context.Context, principalID string) (entity.RoleSet, error) {
	if principalID == "" {
		return entity.NewRoleSet(), nil
	}
	u, err := r.users.GetByID(ctx, principalID)
	if err != nil {
		if !isAuthUnavailable(err) {
			err = fmt.Errorf("%w: %w", domain.ErrAuthUnavailable, err)
		}
		r.log.Error().Err(err).Str("principal_id", principalID).Msg("no se pudieron resolver roles")
		return nil, err
	}
	if u == nil || !u.IsActive() {
		return entity.NewRoleSet(), nil
	}
	roles := entity.NewRoleSet()
	for _, role := range u.Roles {
		if entity.IsValidRole(role) {
			roles[role] = struct{}{}
		}
	}
	return roles, nil
}

// ResolvePrincipal arma el Principal de la petición actual.
func (r *RoleRegistry) ResolvePrincipal(ctx context.Context, principalID string) (entity.Principal, error) {
	roles, err := r.RolesOf(ctx, principalID)
	if err != nil {
		return entity.Principal{}, err
	}
	return entity.Principal{ID: principalID, Roles: roles}, nil
}
