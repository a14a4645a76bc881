package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrMaterialNotFound   = errors.New("material no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicateCode      = errors.New("el código de material ya existe")
	ErrMaterialInUse      = errors.New("el material tiene movimientos registrados")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrInsufficientStock  = errors.New("stock insuficiente")

	// ErrConflict: se perdió la carrera contra otra actualización de stock; reintentar es seguro.
	ErrConflict = errors.New("conflicto con el estado actual")

	// Fallos de infraestructura: se reportan como reintentables y nunca se silencian.
	ErrAuthUnavailable        = errors.New("registro de roles no disponible")
	ErrPersistenceUnavailable = errors.New("persistencia no disponible")
)

// IsRetryable indica si el llamador puede reenviar la misma operación.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAuthUnavailable) ||
		errors.Is(err, ErrPersistenceUnavailable)
}
