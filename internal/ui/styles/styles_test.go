package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/supervision-hours/internal/models"
)

func TestPctStyle(t *testing.T) {
	tests := []struct {
		name string
		pct  float64
		ok   bool
		want lipgloss.Color
	}{
		{"undefined", 50, false, Subtle},
		{"on target", PctTarget, true, Success},
		{"half target", PctTarget / 2, true, Warning},
		{"low", 1, true, Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PctStyle(tt.pct, tt.ok).GetForeground(); got != tt.want {
				t.Errorf("PctStyle(%v, %v) foreground = %v, want %v", tt.pct, tt.ok, got, tt.want)
			}
		})
	}
}

func TestStatusStyle(t *testing.T) {
	if StatusStyle(models.RunFailed).GetForeground() != Error {
		t.Error("failed runs should render in the error color")
	}
	if StatusStyle(models.RunSucceeded).GetForeground() != Success {
		t.Error("succeeded runs should render in the success color")
	}
	if StatusStyle(models.RunRunning).GetForeground() != Info {
		t.Error("running runs should render in the info color")
	}
}
