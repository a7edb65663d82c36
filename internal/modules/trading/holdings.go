package trading

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DeriveHoldings replays trades (oldest first) into open positions using average cost.
// Sells reduce quantity at the current average cost; fully closed positions are dropped.
func DeriveHoldings(trades []Trade) []Holding {
	type position struct {
		qty  decimal.Decimal
		cost decimal.Decimal
	}
	positions := make(map[string]*position)

	for _, t := range trades {
		p := positions[t.Symbol]
		if p == nil {
			p = &position{}
			positions[t.Symbol] = p
		}
		qty := decimal.NewFromFloat(t.Quantity)
		switch t.Side {
		case SideBuy:
			p.qty = p.qty.Add(qty)
			p.cost = p.cost.Add(qty.Mul(decimal.NewFromFloat(t.Price)))
		case SideSell:
			if !p.qty.IsPositive() {
				continue
			}
			if qty.GreaterThanOrEqual(p.qty) {
				p.qty = decimal.Zero
				p.cost = decimal.Zero
				continue
			}
			avg := p.cost.Div(p.qty)
			p.qty = p.qty.Sub(qty)
			p.cost = p.cost.Sub(avg.Mul(qty))
		}
	}

	holdings := make([]Holding, 0, len(positions))
	for symbol, p := range positions {
		if !p.qty.IsPositive() {
			continue
		}
		qty, _ := p.qty.Float64()
		avg, _ := p.cost.Div(p.qty).Round(4).Float64()
		basis, _ := p.cost.Round(2).Float64()
		holdings = append(holdings, Holding{
			Symbol:      symbol,
			Quantity:    qty,
			AverageCost: avg,
			CostBasis:   basis,
		})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings
}

// holdingQuantity returns the shares held of symbol, 0 when none.
func holdingQuantity(holdings []Holding, symbol string) float64 {
	for _, h := range holdings {
		if h.Symbol == symbol {
			return h.Quantity
		}
	}
	return 0
}
