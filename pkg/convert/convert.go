// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert parses query parameters leniently.

A missing or malformed value yields the caller's default instead of an error.
Use [strconv] directly where a malformed value must be rejected.
*/
package convert

import (
	"strconv"
)

// ToIntD parses s as an int, returning def when s is empty or malformed.
func ToIntD(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// ToUint64D parses s as an unsigned decimal, returning def when s is empty,
// negative or malformed.
func ToUint64D(s string, def uint64) uint64 {
	if s == "" {
		return def
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v
	}
	return def
}
