package parser

import (
	"bytes"
	"io"
	"os"
)

type FileType string

const (
	FileTypeFIT         FileType = "fit"
	FileTypeGPX         FileType = "gpx"
	FileTypePerformance FileType = "performance_csv"
	FileTypeUnknown     FileType = "unknown"
)

const sniffLen = 512

var (
	fitSignature      = []byte(".FIT")
	performancePrefix = []byte("COXORB Performance Data")
	utf8BOM           = []byte{0xEF, 0xBB, 0xBF}
)

// DetectFileType sniffs the first bytes of a file.
func DetectFileType(path string) (FileType, error) {
	file, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown, err
	}
	defer file.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(file, header)
	if err != nil && n == 0 {
		return FileTypeUnknown, err
	}

	return DetectFileTypeFromData(header[:n]), nil
}

func DetectFileTypeFromData(data []byte) FileType {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}

	// FIT header: size, protocol, profile(2), data size(4), ".FIT"
	if len(data) >= 12 && bytes.Equal(data[8:12], fitSignature) {
		return FileTypeFIT
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	if bytes.HasPrefix(data, performancePrefix) {
		return FileTypePerformance
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("<")) {
		if bytes.Contains(data, []byte("<gpx")) ||
			bytes.Contains(data, []byte(":gpx")) ||
			bytes.Contains(data, []byte("topografix.com/GPX")) {
			return FileTypeGPX
		}
	}

	return FileTypeUnknown
}
