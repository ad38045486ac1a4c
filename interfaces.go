/*
 * interfaces.go, part of gomsd.
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
	v3 "github.com/rmera/gomsd/v3"
)

//Traj is a trajectory segment that can be read frame by frame.
type Traj interface {

	//Is the trajectory ready to be read?
	Readable() bool

	//Next reads the next frame into output, which must have Len() vectors.
	//If output is nil, the frame is read and checked, but discarded.
	//At the normal end of the segment it returns a LastFrameError.
	Next(output *v3.Matrix) error

	//Len returns the number of particles per frame.
	Len() int

	Close() error
}

//TrajWriter writes frames, one call at a time.
type TrajWriter interface {
	WNext(coords *v3.Matrix) error
	Len() int
	Close() error
}

//Error is the interface for errors that all packages in this library implement.
//The Decorate method allows to add and retrieve info from the
//error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //This is the new thing for errors. It allows you to add information when you pass it up. Each call also returns the "decoration" slice of strins resulting from the current call. If passed an empty string, it will just return the current decoration.
}

//TrajError is the interface for errors in trajectories
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

//LastFrameError has a useless function to distinguish the harmless errors (i.e. last frame) so they can be
//filtered in a typeswith that looks for this interface.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination() //does nothing, just to separate this interface from other TrajError's
}
