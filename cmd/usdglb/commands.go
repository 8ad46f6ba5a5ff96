package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/usdglb/internal/logger"
	"github.com/taigrr/usdglb/pkg/convert"
	"github.com/taigrr/usdglb/pkg/models"
	"github.com/taigrr/usdglb/pkg/usd"
)

// maxTreeProps is how many property names tree prints per prim.
const maxTreeProps = 10

func (a *app) converter() *convert.Converter {
	return convert.New(a.loader,
		convert.WithWorkers(a.cfg.Convert.Workers),
		convert.WithGenerator(a.cfg.Convert.Generator),
		convert.WithLogger(logger.Log.Named("convert")),
	)
}

func (a *app) convertCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "convert <in> <out.glb>",
		Short: "Convert a scene's meshes to a GLB file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			c := a.converter()
			w := cmd.OutOrStdout()

			if watch {
				logger.Info("watching", zap.String("input", in))
				return c.Watch(cmd.Context(), in, out, a.cfg.Debounce(), func(res *convert.Result, err error) {
					if err != nil {
						logger.Error("conversion failed", zap.Error(err))
						return
					}
					printResult(w, res)
				})
			}

			res, err := c.Convert(cmd.Context(), in, out)
			if err != nil {
				return err
			}
			printResult(w, res)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reconvert whenever the input changes")
	return cmd
}

func printResult(w io.Writer, res *convert.Result) {
	fmt.Fprintf(w, "%s -> %s\n", res.Input, res.Output)
	fmt.Fprintf(w, "  meshes:    %d found, %d exported\n", res.Found, res.Exported)
	fmt.Fprintf(w, "  materials: %d\n", res.Materials)
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  failed:    %v\n", f)
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  skipped:   %s (%v)\n", s.Name, s.Err)
	}
	fmt.Fprintf(w, "  wrote %d bytes in %v\n", res.Bytes, res.Duration.Round(time.Microsecond))
}

func (a *app) open(path string) (*usd.Scene, error) {
	scene, err := a.loader.Open(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened scene", zap.String("origin", scene.Origin()), zap.Stringer("format", scene.Format()))
	return scene, nil
}

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <in>",
		Short: "Print the prim hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer scene.Close()

			w := cmd.OutOrStdout()
			return scene.Walk(func(e usd.Entry) error {
				indent := strings.Repeat("  ", e.Depth)
				typ := e.Node.TypeName()
				if typ == "" {
					typ = "(no type)"
				}
				fmt.Fprintf(w, "%s%s [%s]\n", indent, e.Node.Name(), typ)

				props, err := e.Node.PropertyNames()
				if err != nil {
					return err
				}
				for i, p := range props {
					if i == maxTreeProps {
						fmt.Fprintf(w, "%s  ... %d more\n", indent, len(props)-maxTreeProps)
						break
					}
					fmt.Fprintf(w, "%s  .%s\n", indent, p)
				}
				return nil
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <in>",
		Short: "Print the scene as text the source can load again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer scene.Close()
			return scene.Export(cmd.OutOrStdout())
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <in>",
		Short: "Count prims by kind and summarize meshes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer scene.Close()

			nodes, err := scene.Traverse()
			if err != nil {
				return err
			}
			counts := make(map[usd.Kind]int)
			for _, n := range nodes {
				counts[n.Kind()]++
			}
			kinds := make([]usd.Kind, 0, len(counts))
			for k := range counts {
				kinds = append(kinds, k)
			}
			slices.Sort(kinds)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%s)\n", args[0], scene.Format())
			fmt.Fprintf(w, "  prims: %d\n", len(nodes))
			for _, k := range kinds {
				fmt.Fprintf(w, "  %-9s %d\n", k.String()+":", counts[k])
			}

			ex, err := models.ExtractMeshes(scene)
			if err != nil {
				return err
			}
			for _, m := range ex.Meshes {
				if !m.HasGeometry() {
					fmt.Fprintf(w, "  mesh %s: geometry unavailable, %d properties\n", m.Path, len(m.Properties))
					continue
				}
				fmt.Fprintf(w, "  mesh %s: %d points, %d faces, %d triangles\n",
					m.Path, m.VertexCount(), m.FaceCount(), m.TriangleCount())
			}
			for _, f := range ex.Failures {
				fmt.Fprintf(w, "  %v\n", f)
			}

			mats, err := models.ExtractMaterials(scene)
			if err != nil {
				logger.Warn("material inputs ignored", zap.Error(err))
			}
			for _, m := range mats {
				note := ""
				if m.Defaulted {
					note = " (defaults)"
				}
				fmt.Fprintf(w, "  material %s%s\n", m.Path, note)
			}
			return nil
		},
	}
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.glb>",
		Short: "Read a GLB file back and list its meshes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meshes, err := models.LoadGLB(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d meshes\n", args[0], len(meshes))
			for _, m := range meshes {
				b := m.Bounds()
				fmt.Fprintf(w, "  %s: %d vertices, %d triangles, bounds %v..%v\n",
					m.Name, m.VertexCount(), m.FaceCount(), b.Min, b.Max)
			}
			return nil
		},
	}
}
