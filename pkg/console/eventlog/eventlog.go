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

// Package eventlog implements the console's bounded, append-only log.
package eventlog

import (
	"time"

	"github.com/ZaparooProject/cerberus-console/pkg/console/models"
)

// DefaultCapacity is how many entries the console keeps.
const DefaultCapacity = 50

// Buffer is a fixed-capacity ring of log entries. The oldest entry is
// dropped when a new one is appended to a full buffer.
//
// Buffer is not safe for concurrent use; it is owned by the console event
// loop.
type Buffer struct {
	entries  []models.LogEntry
	start    int
	size     int
	nextID   uint64
	onAppend func(models.LogEntry)
	onClear  func()
}

// New returns an empty buffer holding at most capacity entries. A
// non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries: make([]models.LogEntry, capacity),
		nextID:  1,
	}
}

// OnAppend registers a hook called after every append.
func (b *Buffer) OnAppend(fn func(models.LogEntry)) {
	b.onAppend = fn
}

// OnClear registers a hook called after the buffer is cleared.
func (b *Buffer) OnClear(fn func()) {
	b.onClear = fn
}

// Append stores a new entry and returns it. IDs keep increasing across
// clears.
func (b *Buffer) Append(
	at time.Time,
	source models.Source,
	message string,
	severity models.Severity,
) models.LogEntry {
	entry := models.LogEntry{
		ID:       b.nextID,
		Time:     at,
		Source:   source,
		Message:  message,
		Severity: severity,
	}
	b.nextID++

	capacity := len(b.entries)
	if b.size < capacity {
		b.entries[(b.start+b.size)%capacity] = entry
		b.size++
	} else {
		b.entries[b.start] = entry
		b.start = (b.start + 1) % capacity
	}

	if b.onAppend != nil {
		b.onAppend(entry)
	}
	return entry
}

// Entries returns a copy of the stored entries, oldest first.
func (b *Buffer) Entries() []models.LogEntry {
	out := make([]models.LogEntry, b.size)
	capacity := len(b.entries)
	for i := range b.size {
		out[i] = b.entries[(b.start+i)%capacity]
	}
	return out
}

// Len returns the number of stored entries.
func (b *Buffer) Len() int {
	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.entries)
}

// Clear drops every entry.
func (b *Buffer) Clear() {
	clear(b.entries)
	b.start = 0
	b.size = 0
	if b.onClear != nil {
		b.onClear()
	}
}
