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

// Package commands turns raw operator input into a closed set of console
// commands.
package commands

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind identifies a command variant.
type Kind int

const (
	// KindEmpty is blank input. It is never acted on.
	KindEmpty Kind = iota
	KindErase
	KindAwake
	KindSOS
	KindFarewell
	KindLockdown
	KindQuickMessage
	KindFreeText
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindErase:
		return "erase"
	case KindAwake:
		return "awake"
	case KindSOS:
		return "sos"
	case KindFarewell:
		return "farewell"
	case KindLockdown:
		return "lockdown"
	case KindQuickMessage:
		return "quick_message"
	case KindFreeText:
		return "free_text"
	default:
		return "unknown"
	}
}

// Command is a parsed operator input.
type Command struct {
	// Raw is the normalized input: NFC, trimmed and uppercased.
	Raw string
	// Message is the text to transmit for KindQuickMessage and KindFreeText.
	Message string
	Kind    Kind
}

// Words are the reserved tokens recognized by the parser.
type Words struct {
	// QuickMessages maps shorthand tokens to the message they send.
	QuickMessages map[string]string
	Erase         string
	Awake         string
	SOS           string
	Farewell      string
	Lockdown      string
	// SOSAliases are extra tokens that also raise the SOS beacon.
	SOSAliases []string
}

// DefaultWords returns the stock console vocabulary.
func DefaultWords() Words {
	return Words{
		Erase:      "ERASED",
		Awake:      "AWAKE",
		SOS:        "SOS",
		SOSAliases: []string{"1"},
		Farewell:   "SAGAR BYE",
		Lockdown:   "HIDDEN*",
		QuickMessages: map[string]string{
			"2": "MISSION CONFIRMED",
			"3": "NEGATIVE ABORT",
		},
	}
}

// Parser classifies normalized input against a vocabulary.
type Parser struct {
	quick map[string]string
	sos   map[string]struct{}
	words Words
}

// NewParser builds a parser for the given words. Words are normalized the
// same way as input so configuration may use any case.
func NewParser(words Words) *Parser {
	p := &Parser{
		words: Words{
			Erase:    Normalize(words.Erase),
			Awake:    Normalize(words.Awake),
			SOS:      Normalize(words.SOS),
			Farewell: Normalize(words.Farewell),
			Lockdown: Normalize(words.Lockdown),
		},
		quick: make(map[string]string, len(words.QuickMessages)),
		sos:   make(map[string]struct{}, len(words.SOSAliases)+1),
	}
	for k, v := range words.QuickMessages {
		p.quick[Normalize(k)] = Normalize(v)
	}
	if p.words.SOS != "" {
		p.sos[p.words.SOS] = struct{}{}
	}
	for _, a := range words.SOSAliases {
		if a = Normalize(a); a != "" {
			p.sos[a] = struct{}{}
		}
	}
	return p
}

// Normalize applies NFC composition, trims surrounding whitespace and
// uppercases the input.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(s)))
}

// Parse classifies raw input. The state machine decides which variants
// apply in the current state; Parse only names them.
func (p *Parser) Parse(input string) Command {
	raw := Normalize(input)
	cmd := Command{Raw: raw}

	switch {
	case raw == "":
		cmd.Kind = KindEmpty
	case raw == p.words.Erase:
		cmd.Kind = KindErase
	case raw == p.words.Awake:
		cmd.Kind = KindAwake
	case p.isSOS(raw):
		cmd.Kind = KindSOS
	case raw == p.words.Farewell:
		cmd.Kind = KindFarewell
	case raw == p.words.Lockdown:
		cmd.Kind = KindLockdown
	default:
		if msg, ok := p.quick[raw]; ok {
			cmd.Kind = KindQuickMessage
			cmd.Message = msg
		} else {
			cmd.Kind = KindFreeText
			cmd.Message = raw
		}
	}

	return cmd
}

func (p *Parser) isSOS(raw string) bool {
	_, ok := p.sos[raw]
	return ok
}
