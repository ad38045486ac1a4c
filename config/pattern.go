/*
 * pattern.go, part of gomsd.
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

package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	placeholder = regexp.MustCompile(`\{([^{}]*)\}`)
	indexExpr   = regexp.MustCompile(`^i(?:([+\-*/])(\d+))?$`)
)

//Expand replaces each '*' in pattern with common, and each {i}, {i+n}, {i-n},
//{i*n} or {i/n} with the value of the expression for the segment index i.
//Division is integer division. Placeholders that are not index expressions are left as they are.
func Expand(pattern, common string, i int) string {
	var b strings.Builder
	last := 0
	//'*' inside braces is the multiplication of an index expression, not the common term.
	for _, m := range placeholder.FindAllStringIndex(pattern, -1) {
		b.WriteString(strings.ReplaceAll(pattern[last:m[0]], "*", common))
		ph := pattern[m[0]:m[1]]
		if v, ok := evalIndex(ph[1:len(ph)-1], i); ok {
			b.WriteString(strconv.Itoa(v))
		} else {
			b.WriteString(ph)
		}
		last = m[1]
	}
	b.WriteString(strings.ReplaceAll(pattern[last:], "*", common))
	return b.String()
}

func evalIndex(expr string, i int) (int, bool) {
	sub := indexExpr.FindStringSubmatch(strings.TrimSpace(expr))
	if sub == nil {
		return 0, false
	}
	if sub[1] == "" {
		return i, true
	}
	n, err := strconv.Atoi(sub[2])
	if err != nil {
		return 0, false
	}
	switch sub[1] {
	case "+":
		return i + n, true
	case "-":
		return i - n, true
	case "*":
		return i * n, true
	case "/":
		if n == 0 {
			return 0, false
		}
		return i / n, true
	}
	return 0, false
}

//ExpandList expands pattern for each of the indexes given.
func ExpandList(pattern, common string, indexes []int) []string {
	ret := make([]string, len(indexes))
	for k, i := range indexes {
		ret[k] = Expand(pattern, common, i)
	}
	return ret
}

//ValidatePattern returns an error if pattern has more than one {i}, placeholders other than
//index expressions, or unmatched braces. An empty pattern is valid.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if strings.Count(pattern, "{") != strings.Count(pattern, "}") {
		return fmt.Errorf("unmatched braces in pattern %q", pattern)
	}
	if strings.Count(pattern, "{i}") > 1 {
		return fmt.Errorf("multiple {i} indexes not supported in pattern %q", pattern)
	}
	for _, m := range placeholder.FindAllStringSubmatch(pattern, -1) {
		if _, ok := evalIndex(m[1], 1); !ok {
			return fmt.Errorf("unsupported placeholder %s in pattern %q, only {i} and {i+n}, {i-n}, {i*n}, {i/n} are supported", m[0], pattern)
		}
	}
	return nil
}

//HasIndex returns true if the pattern contains an index placeholder, so it gives
//a different path for each segment.
func HasIndex(pattern string) bool {
	for _, m := range placeholder.FindAllStringSubmatch(pattern, -1) {
		if _, ok := evalIndex(m[1], 1); ok {
			return true
		}
	}
	return false
}
