package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// DefaultCharset is assumed when nothing else can be determined.
const DefaultCharset = "utf-8"

// Decode converts body to UTF-8 text and returns the charset it was decoded
// from. A charset declared by a byte order mark or by contentType wins.
// Otherwise valid UTF-8 is taken as is, and anything else is guessed by
// content before falling back to the document's own <meta> declaration.
func Decode(body []byte, contentType string) (string, string) {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if certain {
		if text, err := enc.NewDecoder().Bytes(body); err == nil {
			return string(text), name
		}
	}

	if utf8.Valid(body) {
		return string(body), DefaultCharset
	}

	if guess, err := chardet.NewHtmlDetector().DetectBest(body); err == nil {
		if e, n := charset.Lookup(guess.Charset); e != nil {
			if text, err := e.NewDecoder().Bytes(body); err == nil {
				return string(text), n
			}
		}
	}

	if enc != nil {
		if text, err := enc.NewDecoder().Bytes(body); err == nil {
			return string(text), name
		}
	}
	return strings.ToValidUTF8(string(body), "�"), DefaultCharset
}
