/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package forest

import "fmt"

// Kind identifies one of the error categories raised by the simulation
// engine (see the error handling design in the project documentation).
type Kind int

// The error kinds the engine can raise.
const (
	ConfigError Kind = iota
	InvalidSite
	StampOutOfBounds
	GrowthInvariantViolation
	SoilInvalid
	PermafrostInvalidParameter
	ExpressionError
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case InvalidSite:
		return "InvalidSite"
	case StampOutOfBounds:
		return "StampOutOfBounds"
	case GrowthInvariantViolation:
		return "GrowthInvariantViolation"
	case SoilInvalid:
		return "SoilInvalid"
	case PermafrostInvalidParameter:
		return "PermafrostInvalidParameter"
	case ExpressionError:
		return "ExpressionError"
	default:
		return "UnknownError"
	}
}

// Error is a typed simulation error. Callers that need to distinguish error
// categories programmatically should use errors.As to recover the Kind;
// everyone else can just print it.
type Error struct {
	Kind    Kind
	Op      string // the operation that failed, e.g. "ResourceUnit.applyPattern"
	Err     error  // the underlying cause, if any
	Message string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("forest: %s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("forest: %s: %s: %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// newError builds a *Error from a formatted message, and wrapError builds
// one around an underlying cause. They are the two constructors used
// internally, so that error kind and operation are always recorded together.
func newError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
