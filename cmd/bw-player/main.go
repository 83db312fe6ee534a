package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lixenwraith/bw-player/asset"
	"github.com/lixenwraith/bw-player/audio"
	"github.com/lixenwraith/bw-player/codec"
	"github.com/lixenwraith/bw-player/config"
	"github.com/lixenwraith/bw-player/crash"
	"github.com/lixenwraith/bw-player/player"
	"github.com/lixenwraith/bw-player/render"
	"github.com/lixenwraith/bw-player/service"
	"github.com/lixenwraith/bw-player/status"
	"github.com/lixenwraith/bw-player/terminal"
)

func main() {
	// Panic recovery: the terminal is reset even if playback crashes
	defer func() {
		crash.Handle(recover())
	}()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "bw-player: %v\n", err)
		os.Exit(1)
	}
}

// cli holds parsed flags; values only override the config when the flag was given
type cli struct {
	configPath string
	info       bool
	check      bool
	dumpConfig bool

	fps     float64
	mode    string
	onError string
	loop    bool
	center  bool
	output  string
	color   string
	fg      string
	bg      string
	invert  bool
	audio   string
	volume  float64
	mute    bool
	debug   bool
	logDir  string

	set  map[string]bool
	args []string
}

func parseFlags(args []string, stderr io.Writer) (*cli, error) {
	c := &cli{set: make(map[string]bool)}
	fs := flag.NewFlagSet("bw-player", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bw-player [flags] [animation.bwa]\n\nWithout a file the built-in demo plays.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&c.configPath, "config", "", "TOML config file (default "+config.Path()+" when present)")
	fs.BoolVar(&c.info, "info", false, "print animation details and command statistics, then exit")
	fs.BoolVar(&c.check, "check", false, "decode every frame and report the first failure, then exit")
	fs.BoolVar(&c.dumpConfig, "dump-config", false, "print the effective configuration as TOML, then exit")

	fs.Float64Var(&c.fps, "fps", 0, "override the animation frame rate")
	fs.StringVar(&c.mode, "mode", "", "render mode: auto, full, diff")
	fs.StringVar(&c.onError, "on-error", "", "corrupt frame handling: stop, skip")
	fs.BoolVar(&c.loop, "loop", false, "restart after the last frame")
	fs.BoolVar(&c.center, "center", false, "center the animation in the terminal")
	fs.StringVar(&c.output, "output", "", "output backend: ansi, tcell")
	fs.StringVar(&c.color, "color", "", "color mode: auto, truecolor, 256")
	fs.StringVar(&c.fg, "fg", "", "color of white pixels")
	fs.StringVar(&c.bg, "bg", "", "color of black pixels")
	fs.BoolVar(&c.invert, "invert", false, "swap foreground and background")
	fs.StringVar(&c.audio, "audio", "", "WAV soundtrack")
	fs.Float64Var(&c.volume, "volume", 1, "soundtrack volume, 0 to 1")
	fs.BoolVar(&c.mute, "mute", false, "mute the soundtrack")
	fs.BoolVar(&c.debug, "debug", false, "write a debug log")
	fs.StringVar(&c.logDir, "log-dir", "", "debug log directory")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { c.set[f.Name] = true })
	c.args = fs.Args()
	if len(c.args) > 1 {
		return nil, fmt.Errorf("expected at most one animation file, got %d", len(c.args))
	}
	return c, nil
}

// apply overrides cfg with the flags that were given on the command line
func (c *cli) apply(cfg *config.Config) {
	for name := range c.set {
		switch name {
		case "fps":
			cfg.Player.FPS = c.fps
		case "mode":
			cfg.Player.Mode = c.mode
		case "on-error":
			cfg.Player.OnError = c.onError
		case "loop":
			cfg.Player.Loop = c.loop
		case "center":
			cfg.Player.Center = c.center
		case "output":
			cfg.Player.Output = c.output
		case "color":
			cfg.Style.Color = c.color
		case "fg":
			cfg.Style.Fg = c.fg
		case "bg":
			cfg.Style.Bg = c.bg
		case "invert":
			cfg.Style.Invert = c.invert
		case "audio":
			cfg.Audio.File = c.audio
		case "volume":
			cfg.Audio.Volume = c.volume
		case "mute":
			cfg.Audio.Muted = c.mute
		case "debug":
			cfg.Log.Debug = c.debug
		case "log-dir":
			cfg.Log.Dir = c.logDir
		}
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	c, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if c.dumpConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	if logFile := setupLogging(cfg.Log.Debug, cfg.Log.Dir); logFile != nil {
		defer logFile.Close()
	}

	name, anim, err := loadAnimation(c.args)
	if err != nil {
		return err
	}
	log.Printf("loaded %s: %dx%d, %g fps, %d frames", name, anim.Width, anim.Height, anim.FPS, anim.FrameCount())

	switch {
	case c.info:
		return printInfo(stdout, name, anim)
	case c.check:
		return checkAnimation(stdout, name, anim)
	}
	return play(cfg, anim)
}

func loadAnimation(args []string) (string, *asset.Animation, error) {
	if len(args) == 0 {
		anim, err := asset.Demo()
		return "demo", anim, err
	}
	anim, err := asset.Load(args[0])
	return args[0], anim, err
}

func printInfo(w io.Writer, name string, anim *asset.Animation) error {
	cols, rows := (anim.Width+1)/2, (anim.Height+2)/3
	fmt.Fprintf(w, "%s: %dx%d pixels (%dx%d cells), %g fps, %d frames, %.2fs\n",
		name, anim.Width, anim.Height, cols, rows, anim.FPS, anim.FrameCount(), anim.Duration())

	stats, err := anim.Check()
	fmt.Fprintf(w, "stream: %d bytes, %d commands\n", stats.Bytes, stats.CommandCount())
	for k := range stats.Commands {
		fmt.Fprintf(w, "  %-5s %8d commands %10d pixels\n", codec.Kind(k), stats.Commands[k], stats.Pixels[k])
	}
	return err
}

func checkAnimation(w io.Writer, name string, anim *asset.Animation) error {
	if _, err := anim.Check(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Fprintf(w, "%s: ok, %d frames\n", name, anim.FrameCount())
	return nil
}

func play(cfg config.Config, anim *asset.Animation) error {
	fg, bg, err := cfg.Style.Colors()
	if err != nil {
		return err
	}
	style := render.Style{Fg: fg, Bg: bg, ColorMode: cfg.Style.ColorMode()}

	mode, err := player.ParseMode(cfg.Player.Mode)
	if err != nil {
		return err
	}
	onError, err := player.ParseErrorAction(cfg.Player.OnError)
	if err != nil {
		return err
	}
	opts := player.Options{
		FPS:     cfg.Player.FPS,
		Mode:    mode,
		OnError: onError,
		Loop:    cfg.Player.Loop,
		Metrics: status.NewRegistry(),
	}

	hub := service.NewHub()
	audioSvc := audio.NewService()
	if err := hub.Register(audioSvc, cfg.Audio.File, cfg.Audio.Volume, cfg.Audio.Muted); err != nil {
		return err
	}

	var termSvc *terminal.Service
	var screenSvc *player.ScreenService
	if cfg.Player.Output == "tcell" {
		screenSvc = player.NewScreenService()
		err = hub.Register(screenSvc, style, cfg.Player.Center)
	} else {
		termSvc = terminal.NewService()
		err = hub.Register(termSvc, style.ColorMode, bg)
	}
	if err != nil {
		return err
	}

	if err := hub.InitAll(); err != nil {
		return err
	}
	defer hub.StopAll()
	if err := hub.StartAll(); err != nil {
		return err
	}
	log.Printf("services started: %v", hub.Names())

	var sink player.Sink
	if screenSvc != nil {
		crash.SetTerminal(screenSvc)
		s := screenSvc.Sink()
		sink, opts.Keys, opts.Resize = s, s.Keys(), s.Resizes()
	} else {
		term := termSvc.Terminal()
		crash.SetTerminal(term)
		sink, opts.Keys, opts.Resize = player.NewANSISink(term, style, cfg.Player.Center), term.Keys(), term.ResizeChan()
	}
	defer crash.SetTerminal(nil)

	// A nil *Soundtrack must not become a non-nil Pauser
	if st := audioSvc.Soundtrack(); st != nil {
		opts.Audio = st
		logSoundtrack(st, anim)
	}

	p, err := player.New(anim, sink, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Log.Debug {
		crash.Go(func() { reportMetrics(ctx, opts.Metrics, metricsInterval) })
	}

	stats, err := p.Run(ctx)
	log.Printf("playback: %+v", stats)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// logSoundtrack records the source format and warns when the soundtrack is
// shorter than the animation
func logSoundtrack(st *audio.Soundtrack, anim *asset.Animation) {
	f := st.Format()
	d := st.Duration()
	log.Printf("audio: %d Hz, %d channels, %d-byte samples, %v", f.SampleRate, f.NumChannels, f.Precision, d)
	if video := time.Duration(anim.Duration() * float64(time.Second)); d < video {
		log.Printf("audio: soundtrack ends %v before the animation", (video - d).Round(time.Millisecond))
	}
}

const metricsInterval = 5 * time.Second

// reportMetrics logs a metrics snapshot, process usage included, every
// interval until ctx is done
func reportMetrics(ctx context.Context, reg *status.Registry, interval time.Duration) {
	sampler, err := status.NewProcessSampler(reg)
	if err != nil {
		log.Printf("metrics: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sampler != nil {
				if err := sampler.Sample(); err != nil {
					log.Printf("metrics: %v", err)
				}
			}
			b.Reset()
			reg.WriteTo(&b)
			log.Print("metrics: ", b.String())
		}
	}
}
