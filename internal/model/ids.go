package model

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewTaskID returns the client-side task id: the creation instant in unix ms.
func NewTaskID(now time.Time) int64 {
	return now.UnixMilli()
}

// NewSubtaskID returns "-<unix ms>-<9 base36 chars>".
func NewSubtaskID(now time.Time, r *rand.Rand) string {
	var b strings.Builder
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')
	for i := 0; i < 9; i++ {
		b.WriteByte(base36[intn(r, len(base36))])
	}
	return b.String()
}

// RandomColor returns a "#RRGGBB" color with uppercase hex digits.
func RandomColor(r *rand.Rand) string {
	const hex = "0123456789ABCDEF"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i := 1; i < len(out); i++ {
		out[i] = hex[intn(r, 16)]
	}
	return string(out)
}

func intn(r *rand.Rand, n int) int {
	if r == nil {
		return rand.IntN(n)
	}
	return r.IntN(n)
}

// Initials joins the uppercased first rune of every whitespace separated token.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		first, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(first))
	}
	return b.String()
}

// FormatName capitalizes the first rune of each word and lowercases the rest.
func FormatName(name string) string {
	parts := strings.Fields(strings.ToLower(name))
	for i, part := range parts {
		first, size := utf8.DecodeRuneInString(part)
		parts[i] = string(unicode.ToUpper(first)) + part[size:]
	}
	return strings.Join(parts, " ")
}
