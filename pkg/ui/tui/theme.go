// Cerberus Console
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Cerberus Console.
//
// Cerberus Console is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Cerberus Console is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Cerberus Console.  If not, see <http://www.gnu.org/licenses/>.

package tui

import (
	"github.com/ZaparooProject/cerberus-console/pkg/helpers/syncutil"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Theme defines all colors used in the TUI.
type Theme struct {
	Name                     string
	DisplayName              string
	TextColorName            string
	LabelColorName           string
	AccentColorName          string
	ErrorColorName           string
	WarningColorName         string
	SuccessColorName         string
	AlarmOnColorName         string
	AlarmOffColorName        string
	PrimitiveBackgroundColor tcell.Color
	ContrastBackgroundColor  tcell.Color
	BorderColor              tcell.Color
	PrimaryTextColor         tcell.Color
	SecondaryTextColor       tcell.Color
	InverseTextColor         tcell.Color
	FieldBackgroundColor     tcell.Color
	LCDBackgroundColor       tcell.Color
	LCDTextColor             tcell.Color
	OLEDTextColor            tcell.Color
}

// ThemeDefault is the dark blue console look.
var ThemeDefault = Theme{
	Name:        "default",
	DisplayName: "Default (Dark Blue)",

	PrimitiveBackgroundColor: tcell.ColorDarkBlue,
	ContrastBackgroundColor:  tcell.ColorBlue,
	BorderColor:              tcell.ColorLightYellow,
	PrimaryTextColor:         tcell.ColorWhite,
	SecondaryTextColor:       tcell.ColorGray,
	InverseTextColor:         tcell.ColorDarkBlue,
	FieldBackgroundColor:     tcell.ColorBlue,

	LCDBackgroundColor: tcell.NewHexColor(0x9BBC0F),
	LCDTextColor:       tcell.NewHexColor(0x0F380F),
	OLEDTextColor:      tcell.ColorAqua,

	TextColorName:     "white",
	LabelColorName:    "gray",
	AccentColorName:   "yellow",
	ErrorColorName:    "red",
	WarningColorName:  "yellow",
	SuccessColorName:  "green",
	AlarmOnColorName:  "red",
	AlarmOffColorName: "gray",
}

// ThemeAmber is a monochrome amber terminal.
var ThemeAmber = Theme{
	Name:        "amber",
	DisplayName: "Amber",

	PrimitiveBackgroundColor: tcell.NewHexColor(0x000000),
	ContrastBackgroundColor:  tcell.NewHexColor(0x1A1000),
	BorderColor:              tcell.NewHexColor(0xFFB000),
	PrimaryTextColor:         tcell.NewHexColor(0xFFB000),
	SecondaryTextColor:       tcell.NewHexColor(0x996A00),
	InverseTextColor:         tcell.NewHexColor(0x000000),
	FieldBackgroundColor:     tcell.NewHexColor(0x1A1000),

	LCDBackgroundColor: tcell.NewHexColor(0x1A1000),
	LCDTextColor:       tcell.NewHexColor(0xFFCC00),
	OLEDTextColor:      tcell.NewHexColor(0xFFB000),

	TextColorName:     "#ffb000",
	LabelColorName:    "#996a00",
	AccentColorName:   "#ffcc00",
	ErrorColorName:    "#ff5000",
	WarningColorName:  "#ffcc00",
	SuccessColorName:  "#ffe080",
	AlarmOnColorName:  "#ff5000",
	AlarmOffColorName: "#4d3300",
}

// AvailableThemes maps theme names to their definitions.
var AvailableThemes = map[string]*Theme{
	"default": &ThemeDefault,
	"amber":   &ThemeAmber,
}

var (
	currentTheme = &ThemeDefault
	themeMu      syncutil.RWMutex
)

// CurrentTheme returns the currently active theme.
func CurrentTheme() *Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the current theme by name.
// Returns false if the theme name is not found.
func SetCurrentTheme(name string) bool {
	theme, ok := AvailableThemes[name]
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTheme = theme
	themeMu.Unlock()
	ApplyTheme(theme)
	return true
}

// ApplyTheme applies the given theme to tview's global styles.
func ApplyTheme(theme *Theme) {
	tview.Styles.PrimitiveBackgroundColor = theme.PrimitiveBackgroundColor
	tview.Styles.ContrastBackgroundColor = theme.ContrastBackgroundColor
	tview.Styles.BorderColor = theme.BorderColor
	tview.Styles.PrimaryTextColor = theme.PrimaryTextColor
	tview.Styles.SecondaryTextColor = theme.SecondaryTextColor
	tview.Styles.InverseTextColor = theme.InverseTextColor
}
