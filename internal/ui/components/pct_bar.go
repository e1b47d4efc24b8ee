package components

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/ui/styles"
)

// PctBar renders a supervision percentage as a progress bar. The bar is full
// at Scale percent.
type PctBar struct {
	progress progress.Model
	Scale    float64
}

// NewPctBar creates a bar that fills at twice the target share.
func NewPctBar() PctBar {
	p := progress.New(
		progress.WithScaledGradient("#ff6b6b", "#51cf66"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return PctBar{progress: p, Scale: styles.PctTarget * 2}
}

// Fraction returns how much of the bar pct fills, clamped to [0, 1].
func (b PctBar) Fraction(pct decimal.NullDecimal) float64 {
	if !pct.Valid || b.Scale <= 0 {
		return 0
	}
	f := pct.Decimal.InexactFloat64() / b.Scale
	return min(max(f, 0), 1)
}

// View renders the bar with a label column and the colored percentage.
func (b PctBar) View(pct decimal.NullDecimal, label string, width int) string {
	b.progress.Width = max(width-30, 10)

	labelStr := styles.ProgressLabelStyle.Width(18).MaxWidth(18).Render(label)
	pctStr := lipgloss.NewStyle().Width(8).Align(lipgloss.Right).Render(RenderPct(pct))

	return lipgloss.JoinHorizontal(lipgloss.Center,
		labelStr,
		b.progress.ViewAs(b.Fraction(pct)),
		" ",
		pctStr,
	)
}
