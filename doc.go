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

/*
Package msd holds the shared interfaces and error types of gomsd, a library and
command line tool to obtain displacement statistics from molecular dynamics
trajectories.

gomsd reads plain-text coordinate segments (one file per piece of a long
trajectory), removes periodic boundary jumps (package pbc), reduces molecules
to their centers of mass (package com) and accumulates the mean squared
displacement and the non-Gaussian parameters per lag time (package dispstat).
It also obtains molecular dipole moments (package dipole). Package pipeline runs
all of that over many segments in parallel, with bounded memory, merging the
partial results in a deterministic order.

The segments are read through the Traj interface, defined here, so new formats
only need to implement it.
*/
package msd
