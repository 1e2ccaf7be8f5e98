package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sstent/coxorb-go/internal/models"
)

// TrackParser is implemented by every parser that yields a GPS track.
type TrackParser interface {
	ParseFile(path string) (models.Track, error)
}

var (
	_ TrackParser = (*GPXParser)(nil)
	_ TrackParser = (*FITParser)(nil)
	_ TrackParser = (*sniffedParser)(nil)
)

// NewTrackParser picks a track parser from the file extension, falling back
// to the file content when the extension is not recognised.
//
// The content fallback is the only way to read a track whose name does not
// end in .gpx or .fit: the parser it returns skips the extension check and
// only requires filename to be an existing regular file.
func NewTrackParser(filename string, opts ...Option) (TrackParser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gpx":
		return NewGPXParser(opts...), nil
	case ".fit":
		return NewFITParser(opts...), nil
	}

	fileType, err := DetectFileType(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	switch fileType {
	case FileTypeGPX:
		return &sniffedParser{parse: NewGPXParser(opts...).parse}, nil
	case FileTypeFIT:
		fp := NewFITParser(opts...)
		return &sniffedParser{parse: func(r io.Reader, path string) (models.Track, error) {
			return fp.parse(bufio.NewReader(r), path)
		}}, nil
	default:
		return nil, fmt.Errorf("unsupported track file type: %s", fileType)
	}
}

// sniffedParser reads a track file whose type was recognised from content.
type sniffedParser struct {
	parse func(r io.Reader, path string) (models.Track, error)
}

func (p *sniffedParser) ParseFile(path string) (models.Track, error) {
	if err := checkRegular(path); err != nil {
		return models.Track{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return models.Track{}, &ParseError{Kind: KindFileNotFound, Path: path, Row: noRow, Message: "cannot open file", Err: err}
	}
	defer file.Close()

	return p.parse(file, path)
}
