// Package encoding turns bank exports of unknown charset into UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names the encoding a reader was decoded from.
type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF16LE     Charset = "UTF-16LE"
	UTF16BE     Charset = "UTF-16BE"
	Windows1252 Charset = "windows-1252"
	ISO88599    Charset = "ISO-8859-9"
)

const sniffLen = 4096

var boms = []struct {
	prefix  []byte
	charset Charset
	dec     encoding.Encoding
}{
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8, nil},
	{[]byte{0xFF, 0xFE}, UTF16LE, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{[]byte{0xFE, 0xFF}, UTF16BE, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
}

// chardet names mapped to the decoder used for them. Latin-1 is decoded as
// Windows-1252, its superset.
var detected = map[string]struct {
	charset Charset
	dec     encoding.Encoding
}{
	"UTF-8":        {UTF8, nil},
	"ISO-8859-1":   {Windows1252, charmap.Windows1252},
	"windows-1252": {Windows1252, charmap.Windows1252},
	"ISO-8859-9":   {ISO88599, charmap.ISO8859_9},
}

// Decode sniffs the start of r and returns a reader producing UTF-8 along
// with the charset it decided on. A byte order mark wins, then valid UTF-8,
// then chardet's best guess; anything else is read as Windows-1252.
func Decode(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("sniffing encoding: %w", err)
	}

	for _, b := range boms {
		if !bytes.HasPrefix(head, b.prefix) {
			continue
		}

		if b.dec == nil {
			_, _ = br.Discard(len(b.prefix))
			return br, b.charset, nil
		}

		return transform.NewReader(br, b.dec.NewDecoder()), b.charset, nil
	}

	if utf8.Valid(head) {
		return br, UTF8, nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		if d, ok := detected[res.Charset]; ok {
			if d.dec == nil {
				return br, d.charset, nil
			}

			return transform.NewReader(br, d.dec.NewDecoder()), d.charset, nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), Windows1252, nil
}
