package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/supervision-hours/internal/models"
	"github.com/j-veylop/supervision-hours/internal/ui/styles"
)

// chrome holds the styles of the frame around the active tab.
var chrome = struct {
	navbar, active, inactive lipgloss.Style
	header, content, busy    lipgloss.Style
	muted                    lipgloss.Style
}{
	navbar: lipgloss.NewStyle().Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(styles.Subtle),
	active:   lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Underline(true).Padding(0, 2),
	inactive: lipgloss.NewStyle().Foreground(styles.TextMuted).Padding(0, 2),
	header:   lipgloss.NewStyle().Foreground(styles.TextSecondary).Padding(0, 2),
	content:  lipgloss.NewStyle().Padding(1, 2),
	busy:     lipgloss.NewStyle().Foreground(styles.Primary),
	muted:    lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true),
}

// toastLook maps a notification type to its text style and marker.
var toastLook = map[NotificationType]struct {
	style  lipgloss.Style
	marker string
}{
	NotificationSuccess: {styles.SuccessTextStyle, "✓"},
	NotificationError:   {styles.ErrorTextStyle.Bold(true), "✗"},
	NotificationWarning: {styles.WarningTextStyle, "!"},
	NotificationInfo:    {styles.InfoTextStyle, "i"},
}

func (m *Model) View() string {
	if !m.ready {
		return chrome.content.Render(m.spinner.View() + " Loading...")
	}

	sections := []string{m.renderNavbar(), m.renderHeader()}
	if tab := m.current(); tab != nil {
		sections = append(sections, tab.View())
	}
	sections = append(sections, m.renderFooter())
	screen := strings.Join(sections, "\n")

	if m.showHelp {
		help := m.renderHelp()
		x := (m.width - lipgloss.Width(help)) / 2
		y := (m.height - lipgloss.Height(help)) / 2
		screen = stamp(screen, help, x, y, m.height)
	}
	if toasts := m.renderNotifications(); len(toasts) > 0 {
		stack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
		screen = stamp(screen, stack, m.width-lipgloss.Width(stack)-2, 2, 0)
	}
	return screen
}

func (m *Model) renderNavbar() string {
	labels := make([]string, len(m.tabNames))
	for i, name := range m.tabNames {
		style := chrome.inactive
		if TabID(i) == m.activeTab {
			style = chrome.active
		}
		labels[i] = style.Render(fmt.Sprintf("%d %s", i+1, name))
	}
	return chrome.navbar.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, labels...))
}

func (m *Model) renderHeader() string {
	run := m.state.SelectedRun()
	if run == nil {
		return chrome.header.Render("No runs recorded")
	}
	pct := models.FormatPercent(run.PctSupervised())
	if pct == "" {
		pct = "n/a"
	}
	line := fmt.Sprintf("Run %s  %s  %s  direct %sh  supervision %sh  %s%%",
		shortID(run.ID),
		run.Window,
		styles.StatusStyle(run.Status).Render(string(run.Status)),
		models.FormatHours(run.DirectHours),
		models.FormatHours(run.SupervisionHours),
		pct,
	)
	return chrome.header.Render(ansi.Truncate(line, max(m.width-4, 0), "…"))
}

func (m *Model) renderFooter() string {
	bindings := m.keymap.ShortHelp()
	if tab := m.current(); tab != nil {
		bindings = append(tab.ShortHelp(), bindings...)
	}
	return chrome.header.Render(m.help.ShortHelpView(bindings))
}

func (m *Model) renderHelp() string {
	groups := m.keymap.FullHelp()
	if tab := m.current(); tab != nil {
		groups = append(groups, tab.FullHelp()...)
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Keys"),
		m.help.FullHelpView(groups),
		"",
		chrome.muted.Render("? or esc closes this panel"),
	)
	return styles.HelpPanelStyle.Render(body)
}

func (m *Model) renderNotifications() []string {
	var toasts []string
	for _, n := range m.state.GetNotifications() {
		look, ok := toastLook[n.Type]
		if !ok {
			look.style, look.marker = chrome.busy, m.spinner.View()
		}
		toasts = append(toasts, styles.ToastStyle.Render(look.style.Render(look.marker+" "+n.Message)))
	}
	return toasts
}

// stamp draws layer over base with its top-left corner at column x, row y.
// base is padded with blank lines up to minLines first so a layer placed
// below short content is not lost.
func stamp(base, layer string, x, y, minLines int) string {
	x, y = max(x, 0), max(y, 0)
	rows := strings.Split(base, "\n")
	for len(rows) < minLines {
		rows = append(rows, "")
	}

	width := lipgloss.Width(layer)
	for i, overlay := range strings.Split(layer, "\n") {
		row := y + i
		if row >= len(rows) {
			break
		}
		left := ansi.Truncate(rows[row], x, "")
		if pad := x - lipgloss.Width(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		rows[row] = left + overlay + ansi.TruncateLeft(rows[row], x+width, "")
	}
	return strings.Join(rows, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
