// Package audio decodes synthesized clips and merges them into a single WAV stream.
package audio

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format is an audio container format.
type Format string

// Supported clip formats.
const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatUnknown Format = ""
)

// DetectFormat sniffs the container format from the leading bytes.
func DetectFormat(data []byte) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatUnknown {
		return ".bin"
	}
	return "." + string(f)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// ContentTypeForFile maps a stored file name to its MIME type.
func ContentTypeForFile(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
