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

package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error lists every rejected param, keyed by its JSON name. It matches
// ErrInvalidParams with errors.Is.
type Error struct {
	Params []ParamError
}

type ParamError struct {
	Name    string
	Rule    string
	Message string
}

func (e *Error) Error() string {
	if len(e.Params) == 0 {
		return ErrInvalidParams.Error()
	}
	var sb strings.Builder
	for i, p := range e.Params {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(p.Message)
	}
	return sb.String()
}

func (*Error) Is(target error) bool {
	return target == ErrInvalidParams
}

func newError(errs validator.ValidationErrors) *Error {
	out := &Error{Params: make([]ParamError, 0, len(errs))}
	for _, fe := range errs {
		out.Params = append(out.Params, ParamError{
			Name:    fe.Field(),
			Rule:    fe.Tag(),
			Message: describe(fe),
		})
	}
	return out
}

// jsonName reports struct fields by the name clients send.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return strings.ToLower(f.Name)
	default:
		return name
	}
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "console":
		return name + " must not contain control characters"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", name, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", name, fe.Param(), unit)
	}
	return fmt.Sprintf("%s failed %s", name, fe.Tag())
}
