package dto

import "time"

// CreateUserRequest entrada para crear un usuario (password en texto, se hashea en use case).
type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Name     string   `json:"name" validate:"required,min=1,max=200"`
	Roles    []string `json:"roles" validate:"dive,oneof=admin almacenero produccion"`
}

// UpdateUserRequest cambios de nombre, roles o estado (solo admin).
type UpdateUserRequest struct {
	Name   *string   `json:"name"`
	Roles  *[]string `json:"roles"`
	Status *string   `json:"status" validate:"omitempty,oneof=activo inactivo"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse lista paginada de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MeResponse principal actual con roles resueltos en esta petición.
type MeResponse struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}
