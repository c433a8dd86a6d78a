package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/sudomakes/oneway/internal/progress"
	"github.com/sudomakes/oneway/internal/status"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	MutedColor       tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TitleColor       tcell.Color
	TableHeaderFg    tcell.Color
	TableCursorFg    tcell.Color
	TableCursorBg    tcell.Color
	KeyColor         tcell.Color
	HighlightColor   tcell.Color
	OKColor          tcell.Color
	WarnColor        tcell.Color
	ErrColor         tcell.Color
	StatusBarBg      tcell.Color
}

// DefaultTheme returns a dark theme with WhatsApp green accents.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorWhiteSmoke,
		MutedColor:       tcell.ColorGray,
		BorderColor:      tcell.ColorSeaGreen,
		BorderFocusColor: tcell.ColorLightGreen,
		TitleColor:       tcell.ColorLimeGreen,
		TableHeaderFg:    tcell.ColorWhite,
		TableCursorFg:    tcell.ColorBlack,
		TableCursorBg:    tcell.ColorLightGreen,
		KeyColor:         tcell.ColorDodgerBlue,
		HighlightColor:   tcell.ColorYellow,
		OKColor:          tcell.ColorLimeGreen,
		WarnColor:        tcell.ColorOrange,
		ErrColor:         tcell.ColorOrangeRed,
		StatusBarBg:      tcell.ColorDarkSlateGray,
	}
}

// SessionColor picks the color for a session state badge.
func (t *Theme) SessionColor(s status.State) tcell.Color {
	switch s {
	case status.Connected:
		return t.OKColor
	case status.Connecting, status.AuthRequired:
		return t.WarnColor
	case status.LoggedOut, status.Error:
		return t.ErrColor
	default:
		return t.MutedColor
	}
}

// PhaseColor picks the color for a sync phase.
func (t *Theme) PhaseColor(p progress.Phase) tcell.Color {
	switch p {
	case progress.Syncing:
		return t.WarnColor
	case progress.Done:
		return t.OKColor
	case progress.Error:
		return t.ErrColor
	default:
		return t.MutedColor
	}
}

// Tag returns a tview color tag for c, e.g. "[#ff4500]".
func Tag(c tcell.Color) string {
	return "[" + ColorName(c) + "]"
}

// ColorName returns c as a hex color tview tags accept.
func ColorName(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
