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
Package dispstat accumulates displacement statistics of center-of-mass trajectories
per lag time: the mean squared displacement, the non-Gaussian parameter

	α₂(Δt) = 3⟨Δr⁴⟩ / (5⟨Δr²⟩²) − 1

and the cross-axis parameters α_ab(Δt) = ⟨Δa²Δb²⟩ / (⟨Δa²⟩⟨Δb²⟩) − 1 for the
pairs xy, xz and yz.

Only sums are kept (a State), so partial results from different segments
can be merged in any order and finalized once at the end. A displacement is
always taken between two frames of the same segment.
*/
package dispstat
