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

// Package notifications publishes console events for API clients and
// in-process subscribers.
package notifications

import (
	"encoding/json"
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/api/models"
	console "github.com/ZaparooProject/cerberus-console/pkg/console/models"
	"github.com/rs/zerolog/log"
)

// queueWait bounds how long the console loop waits for room in a full
// queue before dropping a notification.
const queueWait = 100 * time.Millisecond

// sendNotification marshals payload and queues it, waiting at most
// queueWait when the queue is full.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	var params json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error marshalling notification params")
			return
		}
		params = data
	}

	notif := models.Notification{Method: method, Params: params}
	select {
	case ns <- notif:
		return
	default:
	}

	timer := time.NewTimer(queueWait)
	defer timer.Stop()
	select {
	case ns <- notif:
	case <-timer.C:
		log.Warn().Str("method", method).Msg("notification queue full, dropping")
	}
}

func CharacterDisplay(ns chan<- models.Notification, line1, line2 string) {
	sendNotification(ns, models.NotificationCharacterDisplay, models.CharacterDisplayNotification{
		Line1: line1,
		Line2: line2,
	})
}

func GraphicDisplay(ns chan<- models.Notification, text string, icon console.Icon) {
	sendNotification(ns, models.NotificationGraphicDisplay, models.GraphicDisplayNotification{
		Text: text,
		Icon: icon,
	})
}

func AlarmLight(ns chan<- models.Notification, on bool) {
	sendNotification(ns, models.NotificationAlarmLight, models.AlarmNotification{On: on})
}

func AlarmSound(ns chan<- models.Notification, on bool) {
	sendNotification(ns, models.NotificationAlarmSound, models.AlarmNotification{On: on})
}

func StateChanged(ns chan<- models.Notification, from, to console.SessionState) {
	sendNotification(ns, models.NotificationStateChanged, models.StateChangedNotification{
		From: from,
		To:   to,
	})
}

func LogAdded(ns chan<- models.Notification, entry console.LogEntry) {
	sendNotification(ns, models.NotificationLogAdded, entry)
}

func LogCleared(ns chan<- models.Notification) {
	sendNotification(ns, models.NotificationLogCleared, nil)
}

func LinkChanged(ns chan<- models.Notification, connected bool) {
	sendNotification(ns, models.NotificationLinkChanged, models.LinkChangedNotification{
		Connected: connected,
	})
}

// Sinks adapts a notification channel to the console's display, alarm and
// observer interfaces.
type Sinks struct {
	ns chan<- models.Notification
}

func NewSinks(ns chan<- models.Notification) *Sinks {
	return &Sinks{ns: ns}
}

func (s *Sinks) SetCharacterDisplay(line1, line2 string) {
	CharacterDisplay(s.ns, line1, line2)
}

func (s *Sinks) SetGraphicDisplay(text string, icon console.Icon) {
	GraphicDisplay(s.ns, text, icon)
}

func (s *Sinks) StateChanged(from, to console.SessionState) { StateChanged(s.ns, from, to) }
func (s *Sinks) LogAdded(entry console.LogEntry)            { LogAdded(s.ns, entry) }
func (s *Sinks) LogCleared()                                { LogCleared(s.ns) }
func (s *Sinks) LinkChanged(connected bool)                 { LinkChanged(s.ns, connected) }

func (s *Sinks) Light(on bool) { AlarmLight(s.ns, on) }
func (s *Sinks) Sound(on bool) { AlarmSound(s.ns, on) }
