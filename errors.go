/*
 * errors.go, part of gomsd.
 *
 * Copyright 2026 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package msd

import (
	"errors"
	"fmt"
	"strings"
)

//Kind classifies the errors of gomsd, so the coordinator can decide
//what to do with each.
type Kind int

const (
	KindUnknown Kind = iota
	//Missing or inconsistent parameters. Always fatal, detected before any work starts.
	KindConfig
	//Malformed, truncated or inconsistent input data. Fatal for the segment where it happens.
	KindInput
	//A failure that might not happen again, such as an external tool timing out.
	KindTransient
	//A numerical problem. These are normally reported, not returned.
	KindNumerical
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindInput:
		return "input"
	case KindTransient:
		return "transient"
	case KindNumerical:
		return "numerical"
	}
	return "unknown"
}

//Sentinels to use with errors.Is. Every CError unwraps to the one matching its Kind.
var (
	ErrConfig    = errors.New("configuration error")
	ErrInput     = errors.New("input error")
	ErrTransient = errors.New("transient error")
	ErrNumerical = errors.New("numerical error")
	ErrNoChunks  = errors.New("no chunk completed successfully")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfig:
		return ErrConfig
	case KindInput:
		return ErrInput
	case KindTransient:
		return ErrTransient
	case KindNumerical:
		return ErrNumerical
	}
	return nil
}

//CError is the concrete error type of gomsd. It carries a decoration
//with the chain of functions that passed it up, a Kind and, optionally,
//the error that caused it.
type CError struct {
	message string
	deco    []string
	kind    Kind
	cause   error
}

//NewError returns a new CError of the given kind. caller is used as the first decoration.
func NewError(kind Kind, caller string, cause error, format string, args ...any) *CError {
	return &CError{message: fmt.Sprintf(format, args...), deco: []string{caller}, kind: kind, cause: cause}
}

//Errorf is a shortcut for NewError without a cause.
func Errorf(kind Kind, caller string, format string, args ...any) *CError {
	return NewError(kind, caller, nil, format, args...)
}

func (err *CError) Error() string {
	if err.cause != nil {
		return err.message + ": " + err.cause.Error()
	}
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice. An empty string just returns the current decoration.
func (err *CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Trace returns the decoration as a single string, innermost caller first.
func (err *CError) Trace() string {
	return strings.Join(err.deco, " <- ")
}

//Kind returns the class of the error
func (err *CError) Kind() Kind { return err.kind }

//Critical is false only for numerical problems, which are reported and clamped.
func (err *CError) Critical() bool { return err.kind != KindNumerical }

//Unwrap allows errors.Is and errors.As to see both the sentinel for the kind
//of the error and its cause.
func (err *CError) Unwrap() []error {
	ret := make([]error, 0, 2)
	if s := err.kind.sentinel(); s != nil {
		ret = append(ret, s)
	}
	if err.cause != nil {
		ret = append(ret, err.cause)
	}
	return ret
}

//ErrDecorate decorates err with the caller's name if err implements Error.
//Other errors are returned unchanged.
func ErrDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

//KindOf returns the Kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrInput):
		return KindInput
	case errors.Is(err, ErrNumerical):
		return KindNumerical
	}
	return KindUnknown
}

//IsLastFrame returns true if err signals the normal end of a trajectory segment.
func IsLastFrame(err error) bool {
	var l LastFrameError
	return errors.As(err, &l)
}
