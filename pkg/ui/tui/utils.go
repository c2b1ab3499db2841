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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

// RequestTimeout bounds calls from the TUI into the console loop.
const RequestTimeout = 5 * time.Second

// lcdWidth is the column count of the character display.
const lcdWidth = 16

func requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, RequestTimeout)
}

func genericModal(
	message string,
	title string,
	action func(buttonIndex int, buttonLabel string),
) *tview.Modal {
	modal := tview.NewModal()
	modal.SetTitle(title).
		SetBorder(true).
		SetTitleAlign(tview.AlignCenter)
	modal.SetText(message)
	modal.AddButtons([]string{"OK"}).
		SetDoneFunc(action)
	return modal
}

// lcdLine pads or truncates s to the character display width.
func lcdLine(s string) string {
	s = runewidth.Truncate(s, lcdWidth, "")
	return runewidth.FillRight(s, lcdWidth)
}

func iconGlyph(icon models.Icon) string {
	switch icon {
	case models.IconLock:
		return "[#]"
	case models.IconMail:
		return "[@]"
	case models.IconHappy:
		return "(^_^)"
	case models.IconFire:
		return "/!\\"
	case models.IconSOS:
		return "SOS"
	case models.IconNone:
		return ""
	default:
		return string(icon)
	}
}

func indicator(label string, on bool, theme *Theme) string {
	color := theme.AlarmOffColorName
	mark := "o"
	if on {
		color = theme.AlarmOnColorName
		mark = "*"
	}
	return fmt.Sprintf("[%s::b]%s %s[-::-]", color, mark, label)
}

func severityColor(sev models.Severity, theme *Theme) string {
	switch sev {
	case models.SeverityError:
		return theme.ErrorColorName
	case models.SeverityWarn:
		return theme.WarningColorName
	case models.SeveritySuccess:
		return theme.SuccessColorName
	case models.SeverityInfo:
		return theme.TextColorName
	default:
		return theme.TextColorName
	}
}

func formatEntry(e *models.LogEntry, theme *Theme) string {
	return fmt.Sprintf("[%s]%s[-] [%s]%-3s[-] [%s]%s[-]",
		theme.LabelColorName, e.Stamp(),
		theme.AccentColorName, e.Source,
		severityColor(e.Severity, theme), tview.Escape(e.Message),
	)
}

func formatEntries(entries []models.LogEntry, theme *Theme) string {
	lines := make([]string, 0, len(entries))
	for i := range entries {
		lines = append(lines, formatEntry(&entries[i], theme))
	}
	return strings.Join(lines, "\n")
}
