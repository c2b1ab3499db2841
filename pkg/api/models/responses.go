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

package models

import (
	console "github.com/ZaparooProject/cerberus-console/pkg/console/models"
)

type StateResponse = console.Snapshot

type LogsResponse struct {
	Entries []console.LogEntry `json:"entries"`
}

type LogsExportResponse struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

type CharacterDisplayNotification struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

type GraphicDisplayNotification struct {
	Text string       `json:"text"`
	Icon console.Icon `json:"icon"`
}

type AlarmNotification struct {
	On bool `json:"on"`
}

type StateChangedNotification struct {
	From console.SessionState `json:"from"`
	To   console.SessionState `json:"to"`
}

type LinkChangedNotification struct {
	Connected bool `json:"connected"`
}
