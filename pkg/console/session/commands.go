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

package session

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ZaparooProject/cerberus-console/pkg/console/cipher"
	"github.com/ZaparooProject/cerberus-console/pkg/console/commands"
	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/rs/zerolog/log"
)

const (
	welcomeHold    = 1500 * time.Millisecond
	eraseHold      = 1500 * time.Millisecond
	farewellHold   = 2 * time.Second
	stageDelay     = time.Second
	resultHold     = 5 * time.Second
	animInterval   = 400 * time.Millisecond
	sosInterval    = 200 * time.Millisecond
	sosTicks       = 21
	welcomeBuzz    = 800 * time.Millisecond
	denyBuzz       = 200 * time.Millisecond
	promptMessage  = "ENTER MESSAGE"
	promptLocked   = "SYSTEM LOCKED"
	encryptingText = "ENCRYPTING"
)

// Submit handles one line of operator input. Blank input and input before
// Boot are ignored.
func (m *Machine) Submit(input string) {
	if m.state == models.StateBooting {
		log.Debug().Msg("input ignored while booting")
		return
	}

	cmd := m.parser.Parse(input)
	if cmd.Kind == commands.KindEmpty {
		return
	}

	m.lastActivity = m.sched.Now()
	m.thermalLatch = false
	m.Log(models.SourceUser, cmd.Raw, models.SeverityInfo)
	m.mirror(cmd.Raw)

	if m.state == models.StateSleep {
		if m.pendingWake {
			if cmd.Kind == commands.KindAwake {
				m.wake()
			}
			return
		}
		m.setState(models.StateUnlocked)
	}

	if cmd.Kind == commands.KindErase {
		m.erase()
		return
	}

	switch m.state {
	case models.StateLocked:
		m.handleLocked(cmd)
	case models.StateUnlocked:
		m.handleUnlocked(cmd)
	default:
		log.Debug().
			Stringer("state", m.state).
			Str("command", cmd.Kind.String()).
			Msg("command ignored in current state")
	}
}

// Action is a one-press shortcut for a reserved command.
type Action string

const (
	ActionWake      Action = "wake"
	ActionForceLock Action = "force_lock"
	ActionSOS       Action = "sos"
	ActionWipe      Action = "wipe"
)

// Trigger submits the reserved word behind a quick action.
func (m *Machine) Trigger(a Action) error {
	words := m.opts.Words
	switch a {
	case ActionWake:
		m.Submit(words.Awake)
	case ActionForceLock:
		m.Submit(words.Lockdown)
	case ActionSOS:
		m.Submit(words.SOS)
	case ActionWipe:
		m.Submit(words.Erase)
	default:
		return fmt.Errorf("unknown action: %q", a)
	}
	return nil
}

func (m *Machine) mirror(line string) {
	up := m.sinks.Uplink
	if !up.Connected() {
		return
	}
	if err := up.Send(line); err != nil {
		log.Warn().Err(err).Msg("failed to mirror command to uplink")
		m.Log(models.SourceHardware, "TX FAIL: PORT CLOSED?", models.SeverityError)
		up.Drop()
	}
}

func (m *Machine) wake() {
	m.pendingWake = false
	m.setState(models.StateLocked)
	m.setCharacter("ENTER PASSWORD", "")
	m.setGraphic("PASSWORD?", models.IconLock)
}

func (m *Machine) erase() {
	captured := m.state
	m.log.Clear()
	m.setCharacter("DATA WIPED", "")
	m.setGraphic("ERASED", models.IconNone)
	m.Log(models.SourceSystem, "MEMORY CORE FLUSHED", models.SeveritySuccess)

	m.sched.After(eraseHold, groupErase, func(time.Time) {
		state := captured
		if m.opts.Policy == PolicyPreempt {
			state = m.state
			switch state {
			case models.StateSleep, models.StateSOS, models.StateEncrypting:
				return
			default:
			}
		}
		if state == models.StateLocked {
			m.setCharacter(promptLocked, "")
		} else {
			m.setCharacter(promptMessage, "")
		}
	})
}

func (m *Machine) handleLocked(cmd commands.Command) {
	switch {
	case cmd.Kind == commands.KindSOS:
		m.sos()
	case cmd.Raw == m.opts.AdminPassword:
		m.welcome(true)
	case cmd.Raw == m.opts.GuestPassword:
		m.welcome(false)
	default:
		m.setCharacter("ACCESS DENIED", "")
		m.setGraphicText("INVALID")
		m.pulse(outputSound, denyBuzz)
		m.Log(models.SourceSystem, "AUTH_FAIL: INVALID CREDENTIALS", models.SeverityError)
	}
}

func (m *Machine) welcome(admin bool) {
	m.setState(models.StateUnlocked)
	level := "LVL_2 (GUEST)"
	if admin {
		level = "LVL_1 (ADMIN)"
		m.setCharacter("WELCOME "+m.opts.Operator, "")
		m.setGraphic("HELLO", models.IconNone)
	} else {
		m.setCharacter("WELCOME", "")
		m.setGraphic("", models.IconHappy)
	}
	m.setLight(true)
	m.pulse(outputSound, welcomeBuzz)
	m.Log(models.SourceSystem, "IDENTITY VERIFIED: "+level, models.SeveritySuccess)

	m.sched.After(welcomeHold, groupWelcome, func(time.Time) {
		m.setLight(false)
		m.setCharacter(promptMessage, "")
		m.setGraphicIcon(models.IconMail)
	})
}

func (m *Machine) handleUnlocked(cmd commands.Command) {
	switch cmd.Kind {
	case commands.KindFarewell:
		m.farewell()
	case commands.KindLockdown:
		m.enterSleep()
		m.Log(models.SourceSystem, "MANUAL LOCKDOWN INITIATED", models.SeverityWarn)
	case commands.KindSOS:
		m.sos()
	case commands.KindQuickMessage, commands.KindFreeText:
		m.send(cmd.Message)
	default:
		m.send(cmd.Raw)
	}
}

func (m *Machine) farewell() {
	m.log.Clear()
	m.setCharacter("ERASED", "")
	m.setGraphicText("ERASED")
	m.sched.After(farewellHold, groupFarewell, func(time.Time) {
		m.enterSleep()
	})
}

// send runs the transmit sequence: encrypting animation, SENT, RECEIVED,
// then the cipher on the LCD and the plain text on the OLED until the
// result hold ends.
func (m *Machine) send(msg string) {
	encoded := cipher.Encode(msg)

	m.setState(models.StateEncrypting)
	m.setCharacter(encryptingText, "")
	m.setGraphic("SENDING...", models.IconNone)

	dots := 0
	m.sched.Every(animInterval, groupAnim, func(time.Time) bool {
		if m.state != models.StateEncrypting {
			return false
		}
		dots = (dots + 1) % 4
		m.setCharacter(encryptingText+strings.Repeat(".", dots), "")
		return true
	})

	m.sched.After(stageDelay, groupSend, func(time.Time) {
		m.setGraphicText("SENT")
		m.sched.After(stageDelay, groupSend, func(time.Time) {
			m.setGraphicText("RECEIVED")
			m.sched.After(stageDelay, groupSend, func(time.Time) {
				m.setState(models.StateUnlocked)
				m.setCharacter(`\ `+encoded, "")
				m.setGraphicText(msg)
				m.Log(
					models.SourceSystem,
					fmt.Sprintf("PACKET DELIVERED: %d BYTES", utf8.RuneCountInString(msg)),
					models.SeveritySuccess,
				)
				m.sched.After(resultHold, groupSend, func(time.Time) {
					m.setCharacter(promptMessage, "")
					m.setGraphic("", models.IconMail)
				})
			})
		})
	})
}

// sos raises the emergency beacon: both outputs toggle every interval
// and the console locks when the beacon ends.
func (m *Machine) sos() {
	m.preempt()
	m.setState(models.StateSOS)
	m.setCharacter("!!! WARNING !!!", "SOS SIGNAL")
	m.setGraphic("SOS SOS", models.IconSOS)
	m.Log(models.SourceSystem, "EMERGENCY BEACON ACTIVATED", models.SeverityError)

	ticks := 0
	m.sched.Every(sosInterval, groupSOS, func(time.Time) bool {
		ticks++
		if ticks >= sosTicks {
			m.setState(models.StateLocked)
			m.pendingWake = true
			m.setCharacter(promptLocked, "")
			m.setGraphic("LOCKED", models.IconLock)
			m.setLight(false)
			m.setSound(false)
			return false
		}
		m.setLight(!m.alarms.Light)
		m.setSound(!m.alarms.Sound)
		return true
	})
}
