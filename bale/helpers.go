// Copyright (c) 2024 RoseLoverX

package bale

import (
	"strconv"
	"time"
)

func getStr(a string, b string) string {
	if a == "" {
		return b
	}
	return a
}

func getInt(a int, b int) int {
	if a == 0 {
		return b
	}
	return a
}

func getDuration(a, b time.Duration) time.Duration {
	if a <= 0 {
		return b
	}
	return a
}

func getVariadic[T comparable](opts []T, def T) T {
	if len(opts) == 0 {
		return def
	}
	first := opts[0]
	var zero T
	if first == zero {
		return def
	}
	return first
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

// stateKey is the textual form ids are stored under.
func stateKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
