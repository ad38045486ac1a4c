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

package xyzt

import (
	"fmt"

	msd "github.com/rmera/gomsd"
)

//Error is the general structure for xyzt errors. It implements msd.TrajError.
//Critical errors unwrap to msd.ErrInput.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return fmt.Sprintf("%s (file: %s)", err.message, err.filename)
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//FileName returns the name of the file for which the error was generated.
func (err Error) FileName() string { return err.filename }

//Format returns the format of the file (always "xyzt").
func (err Error) Format() string { return "xyzt" }

//Critical returns whether the error is critical or it can be ignored.
func (err Error) Critical() bool { return err.critical }

func (err Error) Unwrap() error {
	if err.critical {
		return msd.ErrInput
	}
	return nil
}

//lastFrameError implements msd.LastFrameError
type lastFrameError struct {
	fileName string
	deco     []string
}

//Error returns an error message string.
func (E *lastFrameError) Error() string {
	return "EOF" //: Last frame in xyzt file reached"
}

//Format returns the format used by the trajectory that returned the error.
func (E *lastFrameError) Format() string {
	return "xyzt"
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (E *lastFrameError) Decorate(dec string) []string {
	if dec != "" {
		E.deco = append(E.deco, dec)
	}
	return E.deco
}

//FileName returns the filename of the trajectory that originated the error.
func (E *lastFrameError) FileName() string {
	return E.fileName
}

//Critical returns false, a last frame error is never critical.
func (E *lastFrameError) Critical() bool {
	return false
}

//NormalLastFrameTermination does nothing, it is there so we can have an interface unifying all
//"normal termination" errors so they can be filtered out by type switch.
func (E *lastFrameError) NormalLastFrameTermination() {
}

func newLastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}

//Some error messages.
const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	NilCoordinates = "nil coordinates given"
)
