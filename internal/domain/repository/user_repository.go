package repository

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// UserRepository define el puerto del almacén de principales y roles.
// GetByID/GetByEmail devuelven (nil, nil) si no existe.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	Delete(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int, error)
}
