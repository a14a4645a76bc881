package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/materiales-api/internal/application/auth"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/authz"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// MinPasswordLength longitud mínima de contraseña.
const MinPasswordLength = 8

// UserUseCase administración de usuarios y roles (solo admin).
type UserUseCase struct {
	repo repository.UserRepository
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// Create registra un usuario: valida roles, hashea password con bcrypt y persiste.
func (uc *UserUseCase) Create(ctx context.Context, actor entity.Principal, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := authz.Check(actor, authz.OpCreate, authz.EntityPrincipal); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email inválido", domain.ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password debe tener al menos %d caracteres", domain.ErrInvalidInput, MinPasswordLength)
	}
	if name == "" {
		name = email
	}
	roles, err := normalizeRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Roles:        roles,
		Status:       entity.UserStatusActive,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

// Update cambia nombre, roles o estado. Un admin no puede quitarse su propio rol
// admin ni desactivarse.
func (uc *UserUseCase) Update(ctx context.Context, actor entity.Principal, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := authz.Check(actor, authz.OpUpdate, authz.EntityPrincipal); err != nil {
		return nil, err
	}
	user, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name requerido", domain.ErrInvalidInput)
		}
		user.Name = name
	}
	if in.Roles != nil {
		roles, err := normalizeRoles(*in.Roles)
		if err != nil {
			return nil, err
		}
		if user.ID == actor.ID && !slices.Contains(roles, entity.RoleAdmin) {
			return nil, fmt.Errorf("%w: no puede quitarse su propio rol admin", domain.ErrInvalidInput)
		}
		user.Roles = roles
	}
	if in.Status != nil {
		switch *in.Status {
		case entity.UserStatusActive, entity.UserStatusInactive:
		default:
			return nil, fmt.Errorf("%w: status desconocido", domain.ErrInvalidInput)
		}
		if user.ID == actor.ID && *in.Status != entity.UserStatusActive {
			return nil, fmt.Errorf("%w: no puede desactivarse a sí mismo", domain.ErrInvalidInput)
		}
		user.Status = *in.Status
	}

	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

// Delete elimina un usuario. Un admin no puede eliminarse a sí mismo.
func (uc *UserUseCase) Delete(ctx context.Context, actor entity.Principal, id string) error {
	if err := authz.Check(actor, authz.OpDelete, authz.EntityPrincipal); err != nil {
		return err
	}
	if id == actor.ID {
		return fmt.Errorf("%w: no puede eliminarse a sí mismo", domain.ErrInvalidInput)
	}
	if _, err := uc.get(ctx, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

// List devuelve usuarios paginados.
func (uc *UserUseCase) List(ctx context.Context, actor entity.Principal, page dto.PageRequest) (*dto.UserListResponse, error) {
	if err := authz.Check(actor, authz.OpRead, authz.EntityPrincipal); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *auth.ToUserResponse(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (uc *UserUseCase) get(ctx context.Context, id string) (*entity.User, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrUserNotFound
	}
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// normalizeRoles valida y deduplica roles; la salida va ordenada.
func normalizeRoles(in []string) ([]string, error) {
	set := entity.NewRoleSet()
	for _, r := range in {
		r = strings.ToLower(strings.TrimSpace(r))
		if !entity.IsValidRole(r) {
			return nil, fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, r)
		}
		set[r] = struct{}{}
	}
	return set.Slice(), nil
}
