// Command gshadec compiles a material file into the vertex and pixel shader
// sources of the standard effect.
//
//	gshadec [flags] material.toml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/soypat/gshade/effects"
	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/glhost"
	"github.com/soypat/gshade/material"
)

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gshadec:", err)
		os.Exit(1)
	}
}

type options struct {
	outDir    string
	glsl      string
	precision string
	convert   string
	graph     bool
	gpu       bool
	switches  map[string]int
	vv, v, q  bool
}

func parseFlags(args []string, stderr io.Writer) (opts options, path string, err error) {
	fs := flag.NewFlagSet("gshadec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.outDir, "o", "", "write <name>.vert and <name>.frag to this directory instead of stdout")
	fs.StringVar(&opts.glsl, "glsl", "330 core", "GLSL version directive")
	fs.StringVar(&opts.precision, "precision", "", "default float precision of the pixel stage: lowp, mediump or highp")
	fs.StringVar(&opts.convert, "convert", "", "also write the material to this .toml or .yaml file")
	fs.BoolVar(&opts.graph, "graph", false, "print the shading graph of each channel")
	fs.BoolVar(&opts.gpu, "gpu", false, "compile the generated program with the OpenGL driver")
	fs.BoolVar(&opts.vv, "vv", false, "debug output")
	fs.BoolVar(&opts.v, "v", false, "verbose output")
	fs.BoolVar(&opts.q, "q", false, "errors only")
	fs.Func("set", "override a material switch, name=value (repeatable)", func(s string) error {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return errors.New("want name=value")
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if opts.switches == nil {
			opts.switches = make(map[string]int)
		}
		opts.switches[name] = n
		return nil
	})
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: gshadec [flags] material.{toml,yaml}")
		fs.PrintDefaults()
	}
	err = fs.Parse(args)
	if err != nil {
		return opts, "", err
	} else if fs.NArg() != 1 {
		fs.Usage()
		return opts, "", errors.New("expected one material file")
	}
	return opts, fs.Arg(0), nil
}

// levelFromFlags returns the log level selected by the -vv, -v and -q
// flags, evaluated in that order. The default is warnings.
func levelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, path, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: levelFromFlags(opts.vv, opts.v, opts.q),
	}))

	m, err := material.Load(path)
	if err != nil {
		return err
	}
	for name, v := range opts.switches {
		m.SetSwitch(name, v)
	}
	if err = m.Validate(); err != nil {
		return err
	}
	log.Info("material loaded", slog.String("name", m.Name), slog.Any("switches", m.SwitchNames()))

	effect, err := effects.NewStandardEffect()
	if err != nil {
		return err
	}
	if opts.graph {
		printGraph(stdout, "vertex", effect.Vertex())
		printGraph(stdout, "pixel", effect.Pixel())
	}
	cfg := glbuild.Config{
		Version:   "#version " + opts.glsl + "\n",
		Precision: opts.precision,
		Logger:    log,
	}
	pair, err := effect.Generate(m, cfg)
	if err != nil {
		return err
	}
	log.Info("generated",
		slog.Int("varyings", len(pair.Varyings)),
		slog.Int("uniforms", len(pair.Uniforms())),
		slog.String("hash", strconv.FormatUint(pair.Hash(), 16)),
	)

	if opts.convert != "" {
		err = writeMaterial(opts.convert, m)
		if err != nil {
			return err
		}
	}
	if opts.outDir == "" {
		fmt.Fprintf(stdout, "// %s.vert\n%s\n// %s.frag\n%s", m.Name, pair.Vertex, m.Name, pair.Pixel)
	} else {
		err = writeSources(opts.outDir, outName(m, path), pair)
		if err != nil {
			return err
		}
	}
	if opts.gpu {
		return compileGPU(pair, m, log)
	}
	return nil
}

func outName(m *material.Material, path string) string {
	if m.Name != "" {
		return m.Name
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func writeSources(dir, name string, pair *glbuild.ShaderPair) error {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return err
	}
	err = os.WriteFile(filepath.Join(dir, name+".vert"), []byte(pair.Vertex), 0o644)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".frag"), []byte(pair.Pixel), 0o644)
}

func writeMaterial(path string, m *material.Material) error {
	format, err := material.FormatFromPath(path)
	if err != nil {
		return err
	}
	b, err := m.Marshal(format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func printGraph(w io.Writer, stage string, sd *glbuild.ShaderDef) {
	nodes := 0
	sd.ForEachNode(func(glbuild.Handle, glbuild.Node) error {
		nodes++
		return nil
	})
	fmt.Fprintf(w, "// %s: %d nodes\n", stage, nodes)
	for _, ch := range sd.Channels() {
		root, _ := sd.Root(ch)
		fmt.Fprintf(w, "// %s %s: %s\n", stage, ch, glbuild.FormatGraph(sd.Graph(), root))
	}
}

func compileGPU(pair *glbuild.ShaderPair, m *material.Material, log *slog.Logger) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	terminate, err := glhost.InitWindow("gshadec", 1, 1)
	if err != nil {
		return fmt.Errorf("starting OpenGL: %w", err)
	}
	defer terminate()
	cache := glhost.NewCache(log)
	defer cache.Delete()
	prog, err := cache.Program(pair)
	if err != nil {
		return err
	}
	err = prog.ApplyDefaults(m)
	if err != nil {
		return err
	}
	log.Info("program compiled and linked", slog.Int("samplers", len(glhost.Samplers(pair))))
	return nil
}
