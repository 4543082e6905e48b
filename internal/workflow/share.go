package workflow

import "github.com/shopspring/decimal"

// PerGroupShare splits goal evenly across activeGroups, rounded to cents.
// With no active groups the goal is returned unchanged.
func PerGroupShare(goal float64, activeGroups int64) float64 {
	if activeGroups <= 0 {
		return goal
	}
	share := decimal.NewFromFloat(goal).
		DivRound(decimal.NewFromInt(activeGroups), 2)
	f, _ := share.Float64()
	return f
}

// Percent returns count/total as a whole percentage clamped to [0, 100]; 0 when total is 0.
func Percent(count, total int64) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(count).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(0).
		IntPart()
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// AmountPercent is Percent for money amounts.
func AmountPercent(collected, target float64) int {
	if target <= 0 || collected <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(collected).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromFloat(target)).
		Round(0).
		IntPart()
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// SumAmounts adds money amounts without float drift.
func SumAmounts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	f, _ := total.Round(2).Float64()
	return f
}
