package hg

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// lookupEncoding resolves an encoding name reported by Mercurial.
// A nil result means the bytes are used as-is.
func lookupEncoding(name string) encoding.Encoding {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil
	}
	return enc
}

// Decode converts bytes written by the server into a Go string
func Decode(enc string, b []byte) string {
	e := lookupEncoding(enc)
	if e == nil {
		if utf8.Valid(b) {
			return string(b)
		}
		return strings.ToValidUTF8(string(b), "�")
	}
	out, err := e.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// Encode converts a Go string into the server encoding
func Encode(enc string, s string) ([]byte, error) {
	e := lookupEncoding(enc)
	if e == nil {
		return []byte(s), nil
	}
	return e.NewEncoder().Bytes([]byte(s))
}
