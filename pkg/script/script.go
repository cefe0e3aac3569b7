// Package script loads Gamelang source files and decodes them to UTF-8.
package script

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/gamelang/pkg/fileutil"
)

// Extension is the file extension of Gamelang scripts.
const Extension = ".gml"

// Script is a loaded source file.
type Script struct {
	FileName string // path relative to the loader's base
	Content  string // UTF-8 content
	Size     int64  // size of the raw file in bytes
}

// Supported source encodings.
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift-jis"
	EncodingEUCJP    = "euc-jp"
	EncodingUTF16    = "utf-16"
)

var encodings = map[string]encoding.Encoding{
	EncodingUTF8:     unicode.UTF8BOM,
	EncodingShiftJIS: japanese.ShiftJIS,
	EncodingEUCJP:    japanese.EUCJP,
	EncodingUTF16:    unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
}

// aliases maps alternative spellings to canonical encoding names.
var aliases = map[string]string{
	"":          EncodingUTF8,
	"utf8":      EncodingUTF8,
	"sjis":      EncodingShiftJIS,
	"shift_jis": EncodingShiftJIS,
	"shiftjis":  EncodingShiftJIS,
	"eucjp":     EncodingEUCJP,
	"euc_jp":    EncodingEUCJP,
	"utf16":     EncodingUTF16,
}

// NormalizeEncoding returns the canonical name of an encoding, or an error
// if it is not supported.
func NormalizeEncoding(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[n]; ok {
		n = canonical
	}
	if _, ok := encodings[n]; !ok {
		return "", fmt.Errorf("unsupported encoding %q (supported: utf-8, shift-jis, euc-jp, utf-16)", name)
	}
	return n, nil
}

// Decode converts data in the named encoding to a UTF-8 string. A UTF-8
// byte order mark is removed.
func Decode(data []byte, encodingName string) (string, error) {
	n, err := NormalizeEncoding(encodingName)
	if err != nil {
		return "", err
	}

	reader := transform.NewReader(bytes.NewReader(data), encodings[n].NewDecoder())
	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", n, err)
	}
	return string(utf8Data), nil
}

// Loader reads scripts from a FileSystem.
type Loader struct {
	fs       fileutil.FileSystem
	encoding string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEncoding sets the source encoding (default utf-8).
func WithEncoding(name string) Option {
	return func(l *Loader) {
		l.encoding = name
	}
}

// NewLoader creates a Loader reading from fsys.
func NewLoader(fsys fileutil.FileSystem, opts ...Option) *Loader {
	l := &Loader{fs: fsys, encoding: EncodingUTF8}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads and decodes a single script.
func (l *Loader) Load(name string) (*Script, error) {
	data, err := l.fs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", name, err)
	}

	content, err := Decode(data, l.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding of %s: %w", name, err)
	}

	return &Script{
		FileName: name,
		Content:  content,
		Size:     int64(len(data)),
	}, nil
}

// LoadAll reads every script with the Gamelang extension in dir, in file
// name order.
func (l *Loader) LoadAll(dir string) ([]Script, error) {
	files, err := l.fs.Glob(dir, Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no script files found in %s", dir)
	}

	scripts := make([]Script, 0, len(files))
	for _, file := range files {
		s, err := l.Load(file)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *s)
	}
	return scripts, nil
}
