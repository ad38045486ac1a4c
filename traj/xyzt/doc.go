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
Package xyzt reads and writes plain-text coordinate segments.

Two layouts are supported. In the "records" layout each line holds one particle:

	index x y z

and a frame is Len() consecutive lines with consecutive indexes. The index of
the first particle (usually 0 or 1) is taken from the first line of the file.
In the "flat" layout each line is a whole frame, x1 y1 z1 x2 y2 z2 ...
Empty lines and lines starting with '#' are ignored in both.

Files ending in .zst are zstd-compressed, files ending in .gz are gzip-compressed,
anything else is read as plain text. The file itself can be memory-mapped
instead of read through the usual buffered calls.
*/
package xyzt
