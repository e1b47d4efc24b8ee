package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/supervision-hours/internal/ui/styles"
)

var waitingCaption = lipgloss.NewStyle().Foreground(styles.TextSecondary).Italic(true)

// Waiting is a placeholder shown while a tab has nothing to render yet.
type Waiting struct {
	dots    spinner.Model
	caption string
}

// NewWaiting returns a Waiting placeholder captioned with caption.
func NewWaiting(caption string) Waiting {
	dots := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
	)
	return Waiting{dots: dots, caption: caption}
}

// Tick starts the animation.
func (w Waiting) Tick() tea.Cmd { return w.dots.Tick }

// Advance steps the animation on its own tick messages and ignores the rest.
func (w Waiting) Advance(msg tea.Msg) (Waiting, tea.Cmd) {
	tick, ok := msg.(spinner.TickMsg)
	if !ok {
		return w, nil
	}
	var cmd tea.Cmd
	w.dots, cmd = w.dots.Update(tick)
	return w, cmd
}

// Caption replaces the text next to the animation.
func (w Waiting) Caption(caption string) Waiting {
	w.caption = caption
	return w
}

// Render draws the placeholder centered in a width x height box.
func (w Waiting) Render(width, height int) string {
	line := lipgloss.JoinHorizontal(lipgloss.Center, w.dots.View(), " ", waitingCaption.Render(w.caption))
	return styles.CenterBoth(line, width, height)
}
