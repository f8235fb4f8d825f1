// Package util contains helper functions used around the code.
package util

import "strings"

// In returns true if s is found in ss, false otherwise
func In(ss []string, s string) bool {
	for _, v := range ss {
		if s == v {
			return true
		}
	}

	return false
}

// One returns the only non-blank value of vs, trimmed. ok is false when vs is empty, blank or has several values.
func One(vs []string) (v string, ok bool) {
	if len(vs) != 1 {
		return "", false
	}

	v = strings.TrimSpace(vs[0])

	return v, v != ""
}
