// Package material contiene reglas de dominio puras del catálogo de materiales:
// normalización de códigos, validación de campos y aritmética del ledger.
package material

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/materiales-api/internal/domain"
)

// MaxCodeLength longitud máxima del código normalizado.
const MaxCodeLength = 50

var upper = cases.Upper(language.Und)

// NormalizeCode aplica la regla única de normalización de códigos:
// NFKC, sin espacios alrededor y en mayúsculas. " tel-001 " y "TEL-001" son el mismo código.
// Un código vacío, con espacios internos o demasiado largo es domain.ErrInvalidInput.
func NormalizeCode(raw string) (string, error) {
	code := strings.TrimSpace(norm.NFKC.String(raw))
	if code == "" {
		return "", fmt.Errorf("%w: código requerido", domain.ErrInvalidInput)
	}
	if strings.IndexFunc(code, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: el código no puede contener espacios", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(code) > MaxCodeLength {
		return "", fmt.Errorf("%w: código excede %d caracteres", domain.ErrInvalidInput, MaxCodeLength)
	}
	return upper.String(code), nil
}
