package textenc

import (
	"bytes"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/domain"
)

// Detection is the outcome of sniffing raw file bytes
type Detection struct {
	Binary   bool
	Encoding domain.Encoding
	// Content holds the decoded text, or base64 for binary data
	Content string
	EOL     domain.EOLStyle
}

// Sniff classifies raw bytes as text in one of the BOM-detectable encodings
// or as binary. Text is accepted only when re-encoding the decoded content
// reproduces data exactly.
func Sniff(data []byte) Detection {
	for _, enc := range candidates(data) {
		content, err := Decode(data, enc)
		if err != nil {
			continue
		}
		if strings.IndexByte(content, 0) >= 0 {
			continue
		}
		roundTrip, err := Encode(content, enc)
		if err != nil || !bytes.Equal(roundTrip, data) {
			continue
		}
		return Detection{
			Encoding: enc,
			Content:  content,
			EOL:      DetectEOL(content),
		}
	}
	return Detection{
		Binary:   true,
		Encoding: domain.EncodingBase64,
		Content:  EncodeBase64(data),
		EOL:      domain.EOLNone,
	}
}

func candidates(data []byte) []domain.Encoding {
	switch {
	case bytes.HasPrefix(data, UTF8BOM):
		return []domain.Encoding{domain.EncodingUTF8BOM}
	case bytes.HasPrefix(data, utf16LEBOM):
		return []domain.Encoding{domain.EncodingUTF16LE}
	case bytes.HasPrefix(data, utf16BEBOM):
		return []domain.Encoding{domain.EncodingUTF16BE}
	}
	return []domain.Encoding{domain.EncodingUTF8}
}

// DetectEOL reports the line-ending style of content. Content without any
// line break is LF; more than one kind of break is MIXED.
func DetectEOL(content string) domain.EOLStyle {
	var crlf, cr, lf bool
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\r':
			if i+1 < len(content) && content[i+1] == '\n' {
				crlf = true
				i++
			} else {
				cr = true
			}
		case '\n':
			lf = true
		}
	}

	kinds := 0
	style := domain.EOLLF
	if lf {
		kinds++
	}
	if crlf {
		kinds++
		style = domain.EOLCRLF
	}
	if cr {
		kinds++
		style = domain.EOLCR
	}
	if kinds > 1 {
		return domain.EOLMixed
	}
	return style
}
