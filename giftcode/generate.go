package giftcode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeGroupLen = 4

// GenerateCode produces a random code in the format PREFIX-XXXX-XXXX.
// Uniqueness is not checked here; the store's unique constraint on the
// code column rejects the astronomically rare collision at insert time.
func GenerateCode(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 2 + 2*codeGroupLen)
	b.WriteString(prefix)
	for range 2 {
		b.WriteByte('-')
		b.WriteString(randomGroup(codeGroupLen))
	}
	return b.String()
}

func randomGroup(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("giftcode: rand failed: %v", err))
	}
	for i, c := range buf {
		buf[i] = codeAlphabet[int(c)%len(codeAlphabet)]
	}
	return string(buf)
}
