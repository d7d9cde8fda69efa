// Package textenc converts entry content between its in-memory text form and
// the exact bytes stored on disk.
package textenc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// UTF8BOM is the UTF-8 byte order mark
var UTF8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// codec returns the x/text codec for encodings that need a transform.
// UTF-8 variants return nil. UTF-16 encoders never emit a BOM, decoders
// require and consume one.
func codec(enc domain.Encoding, encode bool) (encoding.Encoding, error) {
	bom := unicode.ExpectBOM
	if encode {
		bom = unicode.IgnoreBOM
	}
	switch enc {
	case domain.EncodingUTF8, domain.EncodingUTF8BOM:
		return nil, nil
	case domain.EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, bom), nil
	case domain.EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, bom), nil
	case domain.EncodingWindows1252:
		return charmap.Windows1252, nil
	case domain.EncodingLatin1:
		return charmap.ISO8859_1, nil
	}
	return nil, fmt.Errorf("%w: %q is not a text encoding", domain.ErrUnknownEncoding, enc)
}

// Encode converts text content into the bytes of the given encoding. UTF-8
// content is written verbatim, BOM-carrying encodings get their mark first.
func Encode(content string, enc domain.Encoding) ([]byte, error) {
	c, err := codec(enc, true)
	if err != nil {
		return nil, domain.NewEncodingError("", string(enc), "unsupported text encoding", err)
	}

	switch enc {
	case domain.EncodingUTF8:
		return []byte(content), nil
	case domain.EncodingUTF8BOM:
		out := make([]byte, 0, len(UTF8BOM)+len(content))
		out = append(out, UTF8BOM...)
		return append(out, content...), nil
	}

	if !utf8.ValidString(content) {
		return nil, domain.NewEncodingError("", string(enc), "content is not valid UTF-8", nil)
	}
	body, err := c.NewEncoder().Bytes([]byte(content))
	if err != nil {
		return nil, domain.NewEncodingError("", string(enc), "content not representable", err)
	}

	switch enc {
	case domain.EncodingUTF16LE:
		return append(append([]byte{}, utf16LEBOM...), body...), nil
	case domain.EncodingUTF16BE:
		return append(append([]byte{}, utf16BEBOM...), body...), nil
	}
	return body, nil
}

// Decode converts on-disk bytes in the given encoding into text content.
// A leading BOM is consumed for BOM-carrying encodings.
func Decode(data []byte, enc domain.Encoding) (string, error) {
	c, err := codec(enc, false)
	if err != nil {
		return "", domain.NewEncodingError("", string(enc), "unsupported text encoding", err)
	}

	switch enc {
	case domain.EncodingUTF8:
		if !utf8.Valid(data) {
			return "", domain.NewEncodingError("", string(enc), "invalid UTF-8 sequence", nil)
		}
		return string(data), nil
	case domain.EncodingUTF8BOM:
		body := bytes.TrimPrefix(data, UTF8BOM)
		if !utf8.Valid(body) {
			return "", domain.NewEncodingError("", string(enc), "invalid UTF-8 sequence", nil)
		}
		return string(body), nil
	}

	out, err := c.NewDecoder().Bytes(data)
	if err != nil {
		return "", domain.NewEncodingError("", string(enc), "decode failed", err)
	}
	return string(out), nil
}

// EncodeBase64 returns the standard base64 form of binary data
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes a base64 payload. ASCII whitespace is ignored so
// wrapped payloads are accepted.
func DecodeBase64(content string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, content)
	return base64.StdEncoding.DecodeString(compact)
}

// Payload returns the exact bytes an entry stands for on disk
func Payload(e domain.Entry) ([]byte, error) {
	if e.IsBinary {
		data, err := DecodeBase64(e.Content)
		if err != nil {
			return nil, domain.NewEncodingError(e.Path, string(domain.EncodingBase64), "invalid base64 payload", err)
		}
		return data, nil
	}
	data, err := Encode(e.Content, e.Encoding)
	if err != nil {
		var encErr *domain.EncodingError
		if errors.As(err, &encErr) {
			encErr.Path = e.Path
		}
		return nil, err
	}
	return data, nil
}
