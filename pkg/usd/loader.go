package usd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Loader opens scenes through a Source.
type Loader struct {
	source  Source
	log     *zap.Logger
	tempDir string
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithTempDir sets where in-memory data is staged. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(l *Loader) {
		l.tempDir = dir
	}
}

// NewLoader creates a loader for src.
func NewLoader(src Source, opts ...Option) *Loader {
	l := &Loader{
		source: src,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open loads the scene at path, detecting its encoding from the header.
func (l *Loader) Open(path string) (*Scene, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}

	format, err := DetectFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Diagnostic: err.Error(), Err: err}
	}
	if format == FormatUnknown {
		return nil, &LoadError{Path: path, Diagnostic: "unrecognized scene format"}
	}
	return l.load(path, path, format)
}

// FromBytes loads a scene from memory. The data is staged through a
// uniquely named temporary file which is removed before FromBytes returns,
// whether or not the load succeeds.
func (l *Loader) FromBytes(data []byte, format Format) (*Scene, error) {
	if format == FormatUnknown {
		format = DetectFormat(data)
	}
	if format == FormatUnknown {
		return nil, &LoadError{Diagnostic: "unrecognized scene format"}
	}

	path, err := l.stage(data, format)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			l.log.Warn("removing staged scene", zap.String("path", path), zap.Error(err))
		}
	}()

	return l.load(path, "memory:"+format.String(), format)
}

// FromUSDA loads text USD from memory.
func (l *Loader) FromUSDA(data []byte) (*Scene, error) { return l.FromBytes(data, FormatUSDA) }

// FromUSDC loads binary crate USD from memory.
func (l *Loader) FromUSDC(data []byte) (*Scene, error) { return l.FromBytes(data, FormatUSDC) }

// FromUSDZ loads a USDZ archive from memory.
func (l *Loader) FromUSDZ(data []byte) (*Scene, error) { return l.FromBytes(data, FormatUSDZ) }

func (l *Loader) load(path, origin string, format Format) (*Scene, error) {
	graph, err := l.source.Load(path, format)
	if err != nil {
		l.log.Debug("scene load failed", zap.String("path", origin), zap.Error(err))
		return nil, &LoadError{Path: origin, Diagnostic: err.Error(), Err: err}
	}
	if graph == nil {
		return nil, ErrNullResource
	}

	l.log.Debug("scene loaded",
		zap.String("path", origin),
		zap.Stringer("format", format),
		zap.Int("roots", len(graph.Roots())),
	)
	return newScene(graph, origin, format, l.log), nil
}

// stage writes data to a new file in the temp directory. The name carries a
// random UUID and the file is created exclusively, so concurrent loads never
// share a path.
func (l *Loader) stage(data []byte, format Format) (path string, err error) {
	dir := l.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path = filepath.Join(dir, "usdglb-"+uuid.NewString()+format.Ext())

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", &IOError{Op: "stage scene", Err: err}
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = &IOError{Op: "stage scene", Err: cerr}
		}
		if err != nil {
			_ = os.Remove(path)
			path = ""
		}
	}()

	if _, err := f.Write(data); err != nil {
		return path, &IOError{Op: "stage scene", Err: err}
	}
	if err := f.Sync(); err != nil {
		return path, &IOError{Op: "stage scene", Err: err}
	}
	return path, nil
}

func checkPath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	case strings.IndexByte(path, 0) >= 0:
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidPath, path)
	case !utf8.ValidString(path):
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidPath, path)
	}
	return nil
}
