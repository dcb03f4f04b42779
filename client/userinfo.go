package client

import (
	"sort"
	"strings"
)

// DefaultUserInfo returns the default client metadata sent with the
// connect packet. rate and snaps matter for the server's send budget,
// the rest are gameplay cosmetics.
func DefaultUserInfo(name string) map[string]string {
	return map[string]string{
		"name":           name,
		"model":          "sarge",
		"headmodel":      "sarge",
		"team_model":     "james",
		"team_headmodel": "james",
		"handicap":       "100",
		"teamtask":       "0",
		"sex":            "male",
		"color1":         "4",
		"color2":         "5",
		"rate":           "25000",
		"snaps":          "40",
		"cl_maxpackets":  "125",
		"cl_timeNudge":   "0",
		"cl_anonymous":   "0",
	}
}

// FormatInfo serializes key/value pairs into the backslash delimited
// info string form. Keys are emitted in sorted order so the output is
// deterministic.
func FormatInfo(pairs map[string]string) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteByte('\\')
		sb.WriteString(k)
		sb.WriteByte('\\')
		sb.WriteString(pairs[k])
	}
	return sb.String()
}

// ParseInfo parses a backslash delimited info string, tolerating the
// optional surrounding quotes and a leading backslash.
func ParseInfo(s string) map[string]string {
	s = strings.Trim(s, "\"")
	parts := strings.Split(s, "\\")
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}

	pairs := make(map[string]string, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		pairs[parts[i]] = parts[i+1]
	}
	return pairs
}
