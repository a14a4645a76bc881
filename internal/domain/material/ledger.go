package material

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
)

// NextStock calcula el stock resultante de aplicar mov sobre current.
// Devuelve domain.ErrInsufficientStock si el resultado sería negativo.
func NextStock(current decimal.Decimal, mov *entity.Movement) (decimal.Decimal, error) {
	next := mov.Apply(current)
	if next.IsNegative() {
		return current, domain.ErrInsufficientStock
	}
	return next, nil
}

// ReplayStock recalcula el stock a partir del stock inicial y los movimientos en orden del ledger:
// stock = inicial + Σ entradas − Σ salidas. Sirve para auditar la consistencia ledger/stock.
func ReplayStock(initial decimal.Decimal, movements []*entity.Movement) decimal.Decimal {
	stock := initial
	for _, m := range movements {
		stock = stock.Add(m.SignedQuantity())
	}
	return stock
}
