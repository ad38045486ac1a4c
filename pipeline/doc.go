/*
 * doc.go, part of gomsd.
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

//Package pipeline processes a set of trajectory segments in parallel.
//
//Each segment is a task: its coordinates are (optionally) extracted by an
//external tool, read a few frames at a time, unwrapped, reduced to molecular
//centers of mass and accumulated into displacement statistics. Tasks run on a
//bounded pool of workers and share no mutable state; only their small
//partial states are merged, in segment order, once all of them return.
//A failed segment is reported and does not stop the others.
//
//When unwrapping is carried across segments, each task waits for the end state
//of the previous one, so the segments are effectively processed one after the other.
package pipeline
