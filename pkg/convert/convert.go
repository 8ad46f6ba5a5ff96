// Package convert runs the scene to GLB pipeline: load, extract,
// triangulate and write.
package convert

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/usdglb/pkg/glb"
	"github.com/taigrr/usdglb/pkg/models"
	"github.com/taigrr/usdglb/pkg/usd"
)

// ErrNoMeshes is returned when a scene contains no Mesh prims.
var ErrNoMeshes = errors.New("convert: scene has no meshes")

// Result summarizes one conversion.
type Result struct {
	Input  string
	Output string

	// Found counts Mesh prims, Exported the meshes written.
	Found     int
	Exported  int
	Materials int

	// Failures are meshes that could not be extracted or triangulated.
	Failures []*models.MeshError
	// Skipped are meshes the writer rejected, such as empty meshes.
	Skipped []glb.Skipped

	Bytes    int64
	Duration time.Duration
}

// Converter converts scenes to GLB files. It is safe for concurrent use.
type Converter struct {
	loader    *usd.Loader
	workers   int
	generator string
	log       *zap.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithWorkers sets how many meshes are triangulated at once. Values below
// one mean runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(c *Converter) { c.workers = n }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) {
		if log != nil {
			c.log = log
		}
	}
}

// WithGenerator sets the asset.generator string of written files.
func WithGenerator(name string) Option {
	return func(c *Converter) { c.generator = name }
}

// New creates a converter that loads scenes with loader.
func New(loader *usd.Loader, opts ...Option) *Converter {
	c := &Converter{
		loader:    loader,
		generator: glb.DefaultGenerator,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Convert loads in and writes its meshes to out.
func (c *Converter) Convert(ctx context.Context, in, out string) (*Result, error) {
	start := time.Now()

	scene, err := c.loader.Open(in)
	if err != nil {
		return nil, err
	}
	defer scene.Close()

	res, container, err := c.ConvertScene(ctx, scene)
	if err != nil {
		return res, fmt.Errorf("convert %s: %w", in, err)
	}
	res.Input = in
	res.Output = out

	n, err := glb.WriteFile(out, container, c.log)
	if err != nil {
		return res, err
	}
	res.Bytes = n
	res.Duration = time.Since(start)

	c.log.Info("converted",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("meshes", res.Exported),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failures)),
		zap.Int64("bytes", res.Bytes),
		zap.Duration("took", res.Duration),
	)
	return res, nil
}

// ConvertScene extracts and triangulates the meshes of an open scene and
// builds the GLB container without writing it.
func (c *Converter) ConvertScene(ctx context.Context, scene *usd.Scene) (*Result, *glb.Container, error) {
	ex, err := models.ExtractMeshes(scene)
	if err != nil {
		return nil, nil, err
	}
	res := &Result{
		Found:    len(ex.Meshes) + len(ex.Failures),
		Failures: ex.Failures,
	}
	for _, f := range ex.Failures {
		c.log.Warn("mesh extraction failed", zap.String("path", f.Path), zap.Error(f.Err))
	}
	if res.Found == 0 {
		return res, nil, ErrNoMeshes
	}

	mats, err := models.ExtractMaterials(scene)
	if err != nil {
		c.log.Warn("material inputs ignored", zap.Error(err))
	}
	res.Materials = len(mats)

	tris, failures, err := c.triangulate(ctx, ex.Meshes)
	if err != nil {
		return res, nil, err
	}
	for _, f := range failures {
		c.log.Warn("triangulation failed", zap.String("path", f.Path), zap.Error(f.Err))
	}
	res.Failures = append(res.Failures, failures...)

	container, report := glb.Build(tris, glb.WithGenerator(c.generator), glb.WithLogger(c.log))
	res.Exported = report.Meshes
	res.Skipped = report.Skipped
	return res, container, nil
}

// triangulate triangulates meshes on up to c.workers goroutines. Results
// keep the input order. Only cancellation stops the batch; per-mesh
// errors are returned as failures.
func (c *Converter) triangulate(ctx context.Context, meshes []*models.Mesh) ([]*models.Mesh, []*models.MeshError, error) {
	out := make([]*models.Mesh, len(meshes))
	errs := make([]error, len(meshes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, m := range meshes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i], errs[i] = models.Triangulate(m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	tris := make([]*models.Mesh, 0, len(meshes))
	var failures []*models.MeshError
	for i, m := range meshes {
		if errs[i] != nil {
			failures = append(failures, &models.MeshError{Path: m.Path, Err: errs[i]})
			continue
		}
		tris = append(tris, out[i])
	}
	return tris, failures, nil
}
