package records

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
)

// LookupEncoding resolves a charset label such as "latin-1", "ISO-8859-1",
// "cp1252" or "utf-8". An empty label means UTF-8.
func LookupEncoding(label string) (encoding.Encoding, error) {
	name := strings.ToLower(strings.TrimSpace(label))
	switch name {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "latin-1", "latin1", "l1":
		name = "iso-8859-1"
	case "cp1252":
		name = "windows-1252"
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown text encoding %q", internalerr.ErrInvalidConfig, label)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: unsupported text encoding %q", internalerr.ErrInvalidConfig, label)
	}
	return enc, nil
}

// DecodeReader wraps r so that bytes in the given charset come out as UTF-8.
func DecodeReader(r io.Reader, label string) (io.Reader, error) {
	enc, err := LookupEncoding(label)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return r, nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// DecodeBytes converts raw bytes in the given charset to a UTF-8 string.
func DecodeBytes(b []byte, label string) (string, error) {
	enc, err := LookupEncoding(label)
	if err != nil {
		return "", err
	}
	if enc == unicode.UTF8 {
		return string(b), nil
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", label, err)
	}
	return string(out), nil
}
