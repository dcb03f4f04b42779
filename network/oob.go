package network

import (
	"bytes"
	"strings"
)

// oobHeader marks a connectionless packet in place of a sequence number.
var oobHeader = []byte{0xff, 0xff, 0xff, 0xff}

// IsOOB reports whether data is an out-of-band packet.
func IsOOB(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], oobHeader)
}

// OOB builds an out-of-band packet carrying plain command text.
func OOB(text string) []byte {
	buf := make([]byte, 0, 4+len(text))
	buf = append(buf, oobHeader...)
	return append(buf, text...)
}

// OOBData builds an out-of-band packet with a binary payload following
// the command text, e.g. "connect " plus the compressed userinfo.
func OOBData(command string, payload []byte) []byte {
	buf := make([]byte, 0, 4+len(command)+len(payload))
	buf = append(buf, oobHeader...)
	buf = append(buf, command...)
	return append(buf, payload...)
}

// ParseOOB splits an out-of-band packet into its command word and the
// remaining argument text. Returns ok == false for non-OOB data.
func ParseOOB(data []byte) (command, args string, ok bool) {
	if !IsOOB(data) {
		return "", "", false
	}
	text := strings.TrimSpace(strings.Trim(string(data[4:]), "\x00"))
	// the separator may be a space or, for status replies, a newline
	if i := strings.IndexAny(text, " \t\r\n"); i >= 0 {
		return text[:i], strings.TrimSpace(text[i+1:]), true
	}
	return text, "", true
}
