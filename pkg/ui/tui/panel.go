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
	"encoding/json"
	"errors"
	"fmt"

	apimodels "github.com/ZaparooProject/cerberus-console/pkg/api/models"
	"github.com/ZaparooProject/cerberus-console/pkg/api/models/requests"
	"github.com/ZaparooProject/cerberus-console/pkg/console/eventlog"
	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/ZaparooProject/cerberus-console/pkg/console/session"
	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	PageConsole = "console"
	PageModal   = "modal"
)

const helpLine = "F1 wake  F2 lock  F3 SOS  F4 wipe  F5 link  F6 export  Ctrl-C quit"

var ErrNoExportDir = errors.New("no export directory configured")

type Options struct {
	Console     requests.Console
	Fs          afero.Fs
	Clock       clockwork.Clock
	ExportDir   string
	Version     string
	LogCapacity int
}

// Panel renders the console hardware and forwards operator input. All
// widget state is touched only from the tview goroutine.
type Panel struct {
	ctx     context.Context //nolint:containedctx // lifetime of the panel
	app     *tview.Application
	opts    Options
	pages   *tview.Pages
	lcd     *tview.TextView
	oled    *tview.TextView
	alarms  *tview.TextView
	status  *tview.TextView
	logView *tview.TextView
	hint    *tview.TextView
	input   *tview.InputField
	notifs  <-chan apimodels.Notification
	entries []models.LogEntry
	snap    models.Snapshot
}

func NewPanel(ctx context.Context, app *tview.Application, opts Options) *Panel {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = eventlog.DefaultCapacity
	}

	theme := CurrentTheme()
	p := &Panel{
		ctx:   ctx,
		app:   app,
		opts:  opts,
		pages: tview.NewPages(),
	}

	p.lcd = tview.NewTextView().SetTextAlign(tview.AlignLeft)
	p.lcd.SetTextColor(theme.LCDTextColor).
		SetBackgroundColor(theme.LCDBackgroundColor)
	p.lcd.SetBorder(true).SetTitle(" LCD ")

	p.oled = tview.NewTextView().SetTextAlign(tview.AlignCenter)
	p.oled.SetTextColor(theme.OLEDTextColor)
	p.oled.SetBorder(true).SetTitle(" OLED ")

	p.alarms = tview.NewTextView().SetDynamicColors(true)
	p.alarms.SetBorder(true).SetTitle(" Alarms ")

	p.status = tview.NewTextView().SetDynamicColors(true)
	p.status.SetBorder(true).SetTitle(" Status ")

	p.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	p.logView.SetBorder(true).SetTitle(" Log ")

	p.hint = tview.NewTextView().SetDynamicColors(true)
	p.hint.SetText(helpLine)

	p.input = tview.NewInputField().
		SetLabel("> ").
		SetFieldBackgroundColor(theme.FieldBackgroundColor)
	p.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := p.input.GetText()
		p.input.SetText("")
		p.run("command", func(ctx context.Context) error {
			return p.opts.Console.Submit(ctx, text)
		})
	})

	displays := tview.NewFlex().
		AddItem(p.lcd, lcdWidth+2, 0, false).
		AddItem(p.oled, 0, 1, false).
		AddItem(p.alarms, 12, 0, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(displays, 4, 0, false).
		AddItem(p.status, 3, 0, false).
		AddItem(p.logView, 0, 1, false).
		AddItem(p.input, 1, 0, true).
		AddItem(p.hint, 1, 0, false)
	layout.SetBorder(true).
		SetTitle(" Cerberus Console " + opts.Version + " ").
		SetTitleAlign(tview.AlignCenter)
	layout.SetInputCapture(p.handleKey)

	p.pages.AddPage(PageConsole, layout, true, true)
	p.render()
	return p
}

// Root is the primitive to install as the application root.
func (p *Panel) Root() tview.Primitive {
	return p.pages
}

func (p *Panel) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() { //nolint:exhaustive
	case tcell.KeyF1:
		p.trigger(session.ActionWake)
	case tcell.KeyF2:
		p.trigger(session.ActionForceLock)
	case tcell.KeyF3:
		p.trigger(session.ActionSOS)
	case tcell.KeyF4:
		p.trigger(session.ActionWipe)
	case tcell.KeyF5:
		p.run("link", p.opts.Console.ToggleLink)
	case tcell.KeyF6:
		p.export()
	default:
		return event
	}
	return nil
}

func (p *Panel) trigger(a session.Action) {
	p.run(string(a), func(ctx context.Context) error {
		return p.opts.Console.Trigger(ctx, a)
	})
}

// run calls into the console off the UI goroutine and reports failures
// on the hint line.
func (p *Panel) run(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := requestContext(p.ctx)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Str("action", name).Msg("console request failed")
			p.app.QueueUpdateDraw(func() {
				p.showHint(fmt.Sprintf("[%s]%s: %s[-]",
					CurrentTheme().ErrorColorName, name, tview.Escape(err.Error())))
			})
		}
	}()
}

func (p *Panel) export() {
	go func() {
		path, count, err := p.exportLogs()
		p.app.QueueUpdateDraw(func() {
			if err != nil {
				log.Error().Err(err).Msg("log export failed")
				p.showModal("Export failed:\n"+err.Error(), "Export")
				return
			}
			p.showModal(fmt.Sprintf("Exported %d entries to\n%s", count, path), "Export")
		})
	}()
}

func (p *Panel) exportLogs() (string, int, error) {
	if p.opts.ExportDir == "" {
		return "", 0, ErrNoExportDir
	}
	ctx, cancel := requestContext(p.ctx)
	defer cancel()
	entries, err := p.opts.Console.Logs(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read logs: %w", err)
	}
	path, err := eventlog.Export(p.opts.Fs, p.opts.ExportDir, p.opts.Clock.Now(), entries)
	if err != nil {
		return "", 0, err
	}
	log.Info().Str("path", path).Int("count", len(entries)).Msg("exported console log")
	return path, len(entries), nil
}

func (p *Panel) showModal(message, title string) {
	modal := genericModal(message, title, func(int, string) {
		p.pages.RemovePage(PageModal)
		p.app.SetFocus(p.input)
	})
	p.pages.AddPage(PageModal, modal, true, true)
	p.app.SetFocus(modal)
}

func (p *Panel) showHint(text string) {
	p.hint.SetText(text)
}

// Load replaces the panel contents with the console's current state.
func (p *Panel) Load(ctx context.Context) error {
	snap, err := p.opts.Console.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read console state: %w", err)
	}
	entries, err := p.opts.Console.Logs(ctx)
	if err != nil {
		return fmt.Errorf("failed to read console log: %w", err)
	}
	p.snap = snap
	p.entries = entries
	p.render()
	return nil
}

// Apply folds one notification into the panel. Call it on the UI
// goroutine.
func (p *Panel) Apply(n apimodels.Notification) error {
	switch n.Method {
	case apimodels.NotificationCharacterDisplay:
		var v apimodels.CharacterDisplayNotification
		if err := json.Unmarshal(n.Params, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", n.Method, err)
		}
		p.snap.Character = models.CharacterFrame{Line1: v.Line1, Line2: v.Line2}
		p.renderLCD()
	case apimodels.NotificationGraphicDisplay:
		var v apimodels.GraphicDisplayNotification
		if err := json.Unmarshal(n.Params, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", n.Method, err)
		}
		p.snap.Graphic = models.GraphicFrame{Text: v.Text, Icon: v.Icon}
		p.renderOLED()
	case apimodels.NotificationAlarmLight, apimodels.NotificationAlarmSound:
		var v apimodels.AlarmNotification
		if err := json.Unmarshal(n.Params, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", n.Method, err)
		}
		if n.Method == apimodels.NotificationAlarmLight {
			p.snap.Alarms.Light = v.On
		} else {
			p.snap.Alarms.Sound = v.On
		}
		p.renderAlarms()
	case apimodels.NotificationStateChanged:
		var v apimodels.StateChangedNotification
		if err := json.Unmarshal(n.Params, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", n.Method, err)
		}
		p.snap.State = v.To
		p.renderStatus()
	case apimodels.NotificationLinkChanged:
		var v apimodels.LinkChangedNotification
		if err := json.Unmarshal(n.Params, &v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", n.Method, err)
		}
		p.snap.LinkConnected = v.Connected
		p.renderStatus()
	case apimodels.NotificationLogAdded:
		var e models.LogEntry
		if err := json.Unmarshal(n.Params, &e); err != nil {
			return fmt.Errorf("failed to decode %s: %w", n.Method, err)
		}
		// replayed from before the snapshot
		if n := len(p.entries); n > 0 && e.ID <= p.entries[n-1].ID {
			return nil
		}
		p.entries = append(p.entries, e)
		if over := len(p.entries) - p.opts.LogCapacity; over > 0 {
			p.entries = append(p.entries[:0:0], p.entries[over:]...)
		}
		p.renderLog()
	case apimodels.NotificationLogCleared:
		p.entries = nil
		p.renderLog()
	default:
		log.Debug().Str("method", n.Method).Msg("tui ignoring notification")
	}
	return nil
}

// Listen applies notifications until ctx ends or the channel closes.
func (p *Panel) Listen(ctx context.Context, notifs <-chan apimodels.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifs:
			if !ok {
				return
			}
			p.app.QueueUpdateDraw(func() {
				if err := p.Apply(n); err != nil {
					log.Warn().Err(err).Msg("bad notification for tui")
				}
			})
		}
	}
}

func (p *Panel) render() {
	p.renderLCD()
	p.renderOLED()
	p.renderAlarms()
	p.renderStatus()
	p.renderLog()
}

func (p *Panel) renderLCD() {
	p.lcd.SetText(lcdLine(p.snap.Character.Line1) + "\n" + lcdLine(p.snap.Character.Line2))
}

func (p *Panel) renderOLED() {
	glyph := iconGlyph(p.snap.Graphic.Icon)
	if glyph == "" {
		p.oled.SetText("\n" + p.snap.Graphic.Text)
		return
	}
	p.oled.SetText(glyph + "\n" + p.snap.Graphic.Text)
}

func (p *Panel) renderAlarms() {
	theme := CurrentTheme()
	p.alarms.SetText(indicator("LIGHT", p.snap.Alarms.Light, theme) + "\n" +
		indicator("SOUND", p.snap.Alarms.Sound, theme))
}

func (p *Panel) renderStatus() {
	theme := CurrentTheme()
	link := fmt.Sprintf("[%s]OFFLINE[-]", theme.LabelColorName)
	if p.snap.LinkConnected {
		link = fmt.Sprintf("[%s]ONLINE[-]", theme.SuccessColorName)
	}
	p.status.SetText(fmt.Sprintf("[%s::b]STATE[-::-] %s   [%s::b]LINK[-::-] %s",
		theme.LabelColorName, p.snap.State,
		theme.LabelColorName, link))
}

func (p *Panel) renderLog() {
	p.logView.SetText(formatEntries(p.entries, CurrentTheme()))
	p.logView.ScrollToEnd()
}
