// Package styles holds the lipgloss palette and shared styles of the viewer.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// Palette. ANSI 256 codes so the viewer looks the same over ssh.
var (
	Primary   = lipgloss.Color("37")  // teal
	Secondary = lipgloss.Color("111") // periwinkle
	Subtle    = lipgloss.Color("242")

	Success = lipgloss.Color("78")
	Error   = lipgloss.Color("203")
	Warning = lipgloss.Color("179")
	Info    = lipgloss.Color("75")

	BgDark   = lipgloss.Color("234")
	BgAccent = lipgloss.Color("23")

	TextPrimary   = lipgloss.Color("255")
	TextSecondary = lipgloss.Color("248")
	TextMuted     = lipgloss.Color("243")
)

// Layout.
var (
	DocStyle      = lipgloss.NewStyle().Margin(1, 2).Padding(0, 1)
	TitleStyle    = lipgloss.NewStyle().Foreground(Primary).Bold(true).MarginBottom(1)
	SubTitleStyle = lipgloss.NewStyle().Foreground(Secondary).Bold(true).MarginBottom(1)

	// ProgressLabelStyle pads clinic names in front of percentage bars.
	ProgressLabelStyle = lipgloss.NewStyle().Foreground(TextSecondary).Width(20)

	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Secondary).
			Padding(0, 1).
			MarginBottom(1)
)

// Help and key hints.
var (
	HelpStyle          = lipgloss.NewStyle().Foreground(TextMuted)
	HelpKeyStyle       = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	HelpDescStyle      = lipgloss.NewStyle().Foreground(TextSecondary)
	HelpSeparatorStyle = lipgloss.NewStyle().Foreground(Subtle)
	HelpPanelStyle     = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(Secondary).
				Background(BgDark).
				Padding(1, 3)
)

// Tables.
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(Secondary).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Subtle).
				BorderBottom(true)
	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(TextPrimary).
				Background(BgAccent)
)

// Message text.
var (
	ErrorTextStyle   = lipgloss.NewStyle().Foreground(Error)
	SuccessTextStyle = lipgloss.NewStyle().Foreground(Success)
	WarningTextStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoTextStyle    = lipgloss.NewStyle().Foreground(Info)
)

// PctTarget is the supervised share, in percent, a provider is expected to reach.
const PctTarget = 5.0

var (
	pctOnTarget  = lipgloss.NewStyle().Foreground(Success)
	pctShort     = lipgloss.NewStyle().Foreground(Warning)
	pctFarShort  = lipgloss.NewStyle().Foreground(Error)
	pctUndefined = lipgloss.NewStyle().Foreground(Subtle).Italic(true)
)

// PctStyle colors a supervision percentage against PctTarget. ok reports
// whether the percentage is defined at all.
func PctStyle(pct float64, ok bool) lipgloss.Style {
	switch {
	case !ok:
		return pctUndefined
	case pct >= PctTarget:
		return pctOnTarget
	case pct*2 >= PctTarget:
		return pctShort
	}
	return pctFarShort
}

func StatusStyle(status models.RunStatus) lipgloss.Style {
	switch status {
	case models.RunSucceeded:
		return SuccessTextStyle
	case models.RunFailed:
		return ErrorTextStyle.Bold(true)
	}
	return InfoTextStyle
}

// AnomalyStyle ranks anomaly kinds: data that changes totals is red,
// dropped records are amber, everything else is informational.
func AnomalyStyle(kind models.AnomalyKind) lipgloss.Style {
	switch kind {
	case models.AnomalyNegativeResidual, models.AnomalyIdentityConflict:
		return ErrorTextStyle
	case models.AnomalyMalformedInterval:
		return WarningTextStyle
	}
	return HelpDescStyle
}

// CenterBoth places content in the middle of a width x height box.
func CenterBoth(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
