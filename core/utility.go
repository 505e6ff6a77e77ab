// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

// SafeString ensures a string is null terminated for handing to the
// driver. Strings from Go constants lack the terminator and the
// loader walks right past their end.
func SafeString(s string) string {
	if len(s) == 0 {
		return "\x00"
	}
	if s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

// SafeStrings null terminates every string in the slice in place.
func SafeStrings(list []string) []string {
	for idx := range list {
		list[idx] = SafeString(list[idx])
	}
	return list
}

// dedupStrings drops repeated entries and keeps first occurence order.
func dedupStrings(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
