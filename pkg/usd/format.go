package usd

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/h2non/filetype"
)

// Format is one of the on-disk USD encodings.
type Format int

const (
	FormatUnknown Format = iota
	FormatUSDA           // text
	FormatUSDC           // binary crate
	FormatUSDZ           // zip archive
)

var (
	magicUSDA = []byte("#usda")
	magicUSDC = []byte("PXR-USDC")
)

// headerSize is how much of a file the probes read. It covers every magic
// and the zip local file header.
const headerSize = 64

func (f Format) String() string {
	switch f {
	case FormatUSDA:
		return "usda"
	case FormatUSDC:
		return "usdc"
	case FormatUSDZ:
		return "usdz"
	default:
		return "unknown"
	}
}

// Ext returns the conventional file extension, including the dot.
func (f Format) Ext() string {
	if f == FormatUnknown {
		return ".usd"
	}
	return "." + f.String()
}

// ParseFormat parses a format name or extension ("usda", ".usdz").
func ParseFormat(s string) (Format, bool) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "usda":
		return FormatUSDA, true
	case "usdc":
		return FormatUSDC, true
	case "usdz":
		return FormatUSDZ, true
	default:
		return FormatUnknown, false
	}
}

// DetectFormat classifies data by its magic bytes. Only the header is
// inspected; nothing is parsed.
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, magicUSDA):
		return FormatUSDA
	case bytes.HasPrefix(data, magicUSDC):
		return FormatUSDC
	case filetype.Is(data, "zip"):
		return FormatUSDZ
	default:
		return FormatUnknown
	}
}

// DetectFile reads the header of the file at path and classifies it.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, err
	}
	return DetectFormat(head[:n]), nil
}

// IsSceneData reports whether data looks like USD in any encoding. It is a
// cheap probe: a true result does not mean a load will succeed.
func IsSceneData(data []byte) bool {
	return DetectFormat(data) != FormatUnknown
}

// IsSceneFile is IsSceneData for a file. Unreadable files report false.
func IsSceneFile(path string) bool {
	f, err := DetectFile(path)
	return err == nil && f != FormatUnknown
}
