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

// Package cipher implements the console's display cipher: a fixed
// per-character substitution used to render "encrypted" message text on the
// character LCD. It is decorative and provides no secrecy.
package cipher

import (
	"strings"
	"unicode"
)

// table maps every supported character to its token. Several letters share
// tokens with digits (D and Z both map to "#11", F and 5 to "*121"); the
// table is reproduced as-is and is not meant to be reversible.
var table = map[rune]string{
	'A': "@1*", 'B': "#21", 'C': "*31", 'D': "#11", 'E': "107",
	'F': "*121", 'G': "##3", 'H': "11&", 'I': "11", 'J': "@33",
	'K': "@#3", 'L': "1#11", 'M': "##", 'N': "#1", 'O': "3@",
	'P': "@*1", 'Q': "*##", 'R': "@11", 'S': "111", 'T': "3",
	'U': "113", 'V': "1@%", 'W': "@13", 'X': "#113", 'Y': "#33",
	'Z': "#11",

	'0': "@1", '1': "#21@", '2': "*31%", '3': "#11$", '4': "1",
	'5': "*121", '6': "##3", '7': "11*%", '8': "11#%", '9': "@333",

	' ': " ",
}

// Token returns the cipher token for r and whether r is in the table.
// Unmapped runes are returned unchanged.
func Token(r rune) (string, bool) {
	tok, ok := table[r]
	if !ok {
		return string(r), false
	}
	return tok, true
}

// Supported reports whether r, once uppercased, has a table entry.
func Supported(r rune) bool {
	_, ok := table[unicode.ToUpper(r)]
	return ok
}

// Tokens returns the token for every rune of the uppercased message, in
// input order. The result always has one entry per rune.
func Tokens(message string) []string {
	upper := strings.ToUpper(message)
	tokens := make([]string, 0, len(upper))
	for _, r := range upper {
		tok, _ := Token(r)
		tokens = append(tokens, tok)
	}
	return tokens
}

// Encode uppercases message and replaces each rune with its token, joining
// the tokens with a single space in input order. A space encodes to a space
// token, so word gaps show up as a run of three spaces in the output.
func Encode(message string) string {
	return strings.Join(Tokens(message), " ")
}
