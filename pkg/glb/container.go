package glb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/taigrr/usdglb/pkg/models"
)

var (
	// ErrBufferMismatch is returned when the document's buffer does not
	// describe the container's binary data.
	ErrBufferMismatch = errors.New("glb: document buffer does not match binary data")

	// ErrTooLarge is returned when the file would exceed 4 GiB.
	ErrTooLarge = errors.New("glb: file exceeds 4 GiB")
)

// Container is a finished glTF document with the one binary buffer its
// views point into.
type Container struct {
	Document *gltf.Document
	Binary   []byte
}

// JSON returns the document's JSON text.
func (c *Container) JSON() ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(c.Document)
	if err != nil {
		return nil, fmt.Errorf("glb: marshal document: %w", err)
	}
	return data, nil
}

func (c *Container) check() error {
	if len(c.Binary) == 0 {
		if len(c.Document.Buffers) != 0 {
			return fmt.Errorf("%w: %d buffers, no data", ErrBufferMismatch, len(c.Document.Buffers))
		}
		return nil
	}
	if len(c.Document.Buffers) != 1 {
		return fmt.Errorf("%w: %d buffers", ErrBufferMismatch, len(c.Document.Buffers))
	}
	if n := c.Document.Buffers[0].ByteLength; n != len(c.Binary) {
		return fmt.Errorf("%w: byteLength %d, %d bytes", ErrBufferMismatch, n, len(c.Binary))
	}
	return nil
}

// Layout returns the file layout for the given JSON text.
func (c *Container) Layout(jsonText []byte) Layout {
	return NewLayout(len(jsonText), len(c.Binary))
}

// WriteTo writes the container as a GLB file.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	jsonText, err := c.JSON()
	if err != nil {
		return 0, err
	}
	l := c.Layout(jsonText)
	if uint64(l.Total) > math.MaxUint32 {
		return 0, ErrTooLarge
	}

	bw := bufio.NewWriter(w)
	cw := &countWriter{w: bw}

	header := make([]byte, 0, HeaderSize+ChunkHeaderSize)
	header = binary.LittleEndian.AppendUint32(header, Magic)
	header = binary.LittleEndian.AppendUint32(header, Version)
	header = binary.LittleEndian.AppendUint32(header, uint32(l.Total))
	header = appendChunkHeader(header, l.JSONPadded, ChunkJSON)
	cw.write(header)
	cw.write(jsonText)
	cw.pad(l.JSONPadded-l.JSONLength, jsonPad)

	if l.HasBIN() {
		cw.write(appendChunkHeader(nil, l.BinPadded, ChunkBIN))
		cw.write(c.Binary)
		cw.pad(l.BinPadded-l.BinLength, binPad)
	}
	if cw.err == nil {
		cw.err = bw.Flush()
	}
	if cw.err != nil {
		return cw.n, fmt.Errorf("glb: write: %w", cw.err)
	}
	return cw.n, nil
}

// MarshalBinary returns the GLB file bytes.
func (c *Container) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendChunkHeader(b []byte, length int, typ uint32) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(length))
	return binary.LittleEndian.AppendUint32(b, typ)
}

// countWriter counts bytes and keeps the first error.
type countWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countWriter) write(p []byte) {
	if cw.err != nil {
		return
	}
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	cw.err = err
}

func (cw *countWriter) pad(n int, b byte) {
	if n > 0 {
		cw.write(bytes.Repeat([]byte{b}, n))
	}
}

// Skipped is a mesh that Encode did not write.
type Skipped struct {
	Name string
	Err  error
}

// Report summarizes an Encode call.
type Report struct {
	Meshes  int
	Skipped []Skipped
	Bytes   int64
}

// Build adds meshes to a new builder and returns the container. Meshes the
// builder rejects are listed in the report.
func Build(meshes []*models.Mesh, opts ...BuilderOption) (*Container, *Report) {
	b := NewBuilder(opts...)
	r := &Report{}
	for _, m := range meshes {
		if _, err := b.Add(m); err != nil {
			r.Skipped = append(r.Skipped, Skipped{Name: m.Name, Err: err})
		}
	}
	r.Meshes = b.Len()
	return b.Finish(), r
}

// Encode writes meshes to w as one GLB file.
func Encode(w io.Writer, meshes []*models.Mesh, opts ...BuilderOption) (*Report, error) {
	c, r := Build(meshes, opts...)
	n, err := c.WriteTo(w)
	r.Bytes = n
	return r, err
}

// WriteFile writes the container to path. The data goes to a temporary
// file in the same directory that is renamed into place, so readers never
// see a partial file.
func WriteFile(path string, c *Container, log *zap.Logger) (int64, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("glb: create %s: %w", path, err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove temp file", zap.String("path", tmp), zap.Error(err))
		}
	}()

	n, err := c.WriteTo(f)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("glb: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("glb: rename %s: %w", path, err)
	}
	log.Debug("wrote glb", zap.String("path", path), zap.Int64("bytes", n))
	return n, nil
}
