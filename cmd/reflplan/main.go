// reflplan prints the reflection render schedule a config produces,
// without opening a window.
package main

import (
	"flag"
	"fmt"
	gomath "math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Faultbox/midgard-mirror/internal/app"
	"github.com/Faultbox/midgard-mirror/internal/config"
	"github.com/Faultbox/midgard-mirror/internal/engine/camera"
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/internal/engine/render/rendertest"
	"github.com/Faultbox/midgard-mirror/internal/jobs"
	"github.com/Faultbox/midgard-mirror/internal/logger"
	"github.com/Faultbox/midgard-mirror/internal/reflection"
	"github.com/Faultbox/midgard-mirror/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "plan":
		cmdPlan(args)
	case "overrides":
		cmdOverrides(args)
	case "simulate", "sim":
		cmdSimulate(args)
	case "presets":
		cmdPresets()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`reflplan - planar reflection schedule inspector

Usage:
  reflplan <command> [options]

Commands:
  plan      [-config file] [-levels n]              Print the per-frame steps
  overrides [-config file] [-levels n]              Print per-clone quality settings
  simulate  [-config file] [-levels n] [-frames n]  Run frames against a recording pipeline
  presets                                           List the mirror presets

Examples:
  reflplan plan -levels 3
  reflplan simulate -config config.yaml -frames 4`)
}

// options are the flags shared by every config-driven command.
type options struct {
	configPath string
	levels     int
	frames     int
	debug      bool
}

func parseOptions(name string, args []string, withFrames bool) options {
	var opts options
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", "", "Path to config file (defaults when empty)")
	fs.IntVar(&opts.levels, "levels", 0, "Override the recursion depth")
	fs.BoolVar(&opts.debug, "debug", false, "Log reflection passes to stderr")
	if withFrames {
		fs.IntVar(&opts.frames, "frames", 1, "Number of frames to run")
	}
	_ = fs.Parse(args)
	return opts
}

func loadConfig(opts options) *config.Config {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(opts.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if opts.levels > 0 {
		cfg.Reflections.Recursion.Levels = opts.levels
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if opts.debug {
		if err := logger.Init("debug", ""); err != nil {
			fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
			os.Exit(1)
		}
	}
	return cfg
}

// offline is a set of surfaces built over recording fakes.
type offline struct {
	pipeline  *rendertest.Pipeline
	allocator *rendertest.Allocator
	counter   *jobs.Counting
	notifier  camera.Notifier
	viewer    *camera.Camera
	mirrors   *app.Mirrors
}

func build(cfg *config.Config) *offline {
	g := cfg.Graphics
	o := &offline{
		pipeline:  rendertest.NewPipeline(),
		allocator: rendertest.NewAllocator(),
		counter:   &jobs.Counting{},
	}
	o.pipeline.Scale = g.RenderScale
	o.pipeline.Samples = g.MSAASamples

	cc := cfg.Camera
	o.viewer = camera.NewPerspective("main", g.Width, g.Height, cc.FieldOfView*gomath.Pi/180, cc.Near, cc.Far)
	o.viewer.Position = math.Vec3{X: 0, Y: 2, Z: cc.Distance}
	o.viewer.WorldToCamera = math.LookAt(o.viewer.Position, math.Vec3{Y: 1}, math.Up)

	deps := reflection.Deps{
		Pipeline:  o.pipeline,
		Allocator: o.allocator,
		Cameras:   camera.NewPool(),
		Jobs:      o.counter,
	}
	refl := &cfg.Reflections
	m, err := app.BuildMirrors(&refl.Registry, refl.Recursion, o.viewer, deps, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m.Subscribe(&o.notifier)
	o.mirrors = m
	return o
}

func cmdPlan(args []string) {
	cfg := loadConfig(parseOptions("plan", args, false))
	o := build(cfg)
	defer o.mirrors.Close()

	for _, s := range o.mirrors.Standalone() {
		fmt.Printf("standalone %s\n", s.Name())
	}

	sched := o.mirrors.Scheduler()
	if sched == nil {
		fmt.Println("no recursive group")
		return
	}

	fmt.Printf("group %d: %d surfaces, %d levels, strategy %s\n",
		sched.Settings().Group, sched.Len(), sched.Settings().Levels, sched.Strategy())
	for i := 0; i < sched.Len(); i++ {
		fmt.Printf("  [%d] %s\n", i, sched.Base(i).Name())
	}
	fmt.Println()

	plan := sched.Plan()
	for i, st := range plan {
		fmt.Printf("%3d  %s\n", i, st)
	}
	fmt.Printf("\n%d steps\n", len(plan))
}

func cmdOverrides(args []string) {
	cfg := loadConfig(parseOptions("overrides", args, false))
	o := build(cfg)
	defer o.mirrors.Close()

	sched := o.mirrors.Scheduler()
	if sched == nil {
		fmt.Println("no recursive group")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SURFACE\tDEPTH\tSHADOWS\tMSAA\tHDR\tRESOLUTION")
	for i := 0; i < sched.Len(); i++ {
		for depth := 0; depth < sched.Settings().Levels; depth++ {
			c := sched.Clone(i, depth)
			s := c.Settings()
			fmt.Fprintf(w, "%s\t%d\t%t\t%t\t%t\t%s\n", c.Name(), depth, s.Shadows, s.MSAA, s.HDR, s.Resolution)
		}
	}
	w.Flush()
}

func cmdSimulate(args []string) {
	opts := parseOptions("simulate", args, true)
	cfg := loadConfig(opts)
	o := build(cfg)
	defer o.mirrors.Close()

	for frame := 0; frame < max(opts.frames, 1); frame++ {
		o.pipeline.Reset()
		jobsBefore := o.counter.Count()

		ctx := render.Context{Frame: uint64(frame)}
		o.notifier.BeginCamera(ctx, o.viewer)
		o.mirrors.Tick()

		fmt.Printf("frame %d: %d draws, %d derivation jobs, %d live targets\n",
			frame, len(o.pipeline.Draws), o.counter.Count()-jobsBefore, len(o.allocator.Live))
		for _, d := range o.pipeline.Draws {
			fmt.Printf("  draw %-28s %dx%d inverted=%t\n", d.View.Name, d.View.PixelWidth, d.View.PixelHeight, d.Inverted)
		}
		if len(o.pipeline.Publishes) > 0 {
			fmt.Printf("  published %s\n", strings.Join(o.pipeline.Publishes, ", "))
		}
	}
	fmt.Printf("\n%d targets allocated\n", o.allocator.Allocated)
}

func cmdPresets() {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDIRECTION\tSHADER PROPERTY")
	for _, p := range reflection.Presets() {
		d := p.Direction()
		fmt.Fprintf(w, "%s\t(%g, %g, %g)\t%s\n", p, d.X, d.Y, d.Z, p.ShaderProperty())
	}
	w.Flush()
}
