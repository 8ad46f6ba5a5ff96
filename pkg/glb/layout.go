// Package glb writes triangle meshes as binary glTF 2.0 (.glb) files.
//
// A GLB file is a 12-byte header followed by length-prefixed chunks:
//
//	magic "glTF" | version 2 | total length
//	JSON length | "JSON" | JSON text padded with spaces
//	BIN length  | "BIN\0" | buffer padded with zeros
//
// All integers are little-endian uint32 and every chunk is 4-byte aligned.
package glb

import "fmt"

const (
	// Magic is "glTF" read as a little-endian uint32.
	Magic uint32 = 0x46546C67
	// Version is the container version written in the header.
	Version uint32 = 2

	// ChunkJSON tags the JSON chunk ("JSON").
	ChunkJSON uint32 = 0x4E4F534A
	// ChunkBIN tags the binary buffer chunk ("BIN\0").
	ChunkBIN uint32 = 0x004E4942

	HeaderSize      = 12
	ChunkHeaderSize = 8

	jsonPad byte = ' '
	binPad  byte = 0
)

// Pad4 rounds n up to the next multiple of 4.
func Pad4(n int) int {
	return (n + 3) &^ 3
}

// Layout is the byte layout of a GLB file. Writing and checking a file
// both derive their lengths from the same Layout.
type Layout struct {
	JSONLength int
	JSONPadded int
	BinLength  int
	BinPadded  int
	Total      int
}

// NewLayout computes the layout for a JSON document of jsonLen bytes and
// a binary buffer of binLen bytes. An empty buffer gets no BIN chunk.
func NewLayout(jsonLen, binLen int) Layout {
	l := Layout{
		JSONLength: jsonLen,
		JSONPadded: Pad4(jsonLen),
		BinLength:  binLen,
		BinPadded:  Pad4(binLen),
	}
	l.Total = HeaderSize + ChunkHeaderSize + l.JSONPadded
	if l.HasBIN() {
		l.Total += ChunkHeaderSize + l.BinPadded
	}
	return l
}

// HasBIN reports whether the file carries a BIN chunk.
func (l Layout) HasBIN() bool {
	return l.BinLength > 0
}

// BINOffset returns the file offset of the BIN chunk payload.
func (l Layout) BINOffset() int {
	return HeaderSize + ChunkHeaderSize + l.JSONPadded + ChunkHeaderSize
}

func (l Layout) String() string {
	return fmt.Sprintf("glb: json %d (+%d) bin %d (+%d) total %d",
		l.JSONLength, l.JSONPadded-l.JSONLength, l.BinLength, l.BinPadded-l.BinLength, l.Total)
}
