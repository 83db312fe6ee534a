package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/bw-player/asset"
	"github.com/lixenwraith/bw-player/audio"
	"github.com/lixenwraith/bw-player/codec"
	"github.com/lixenwraith/bw-player/config"
	"github.com/lixenwraith/bw-player/status"
)

// isolate keeps tests away from the user's config file
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestApplyFlags(t *testing.T) {
	c, err := parseFlags([]string{"-fps", "12", "-mode", "diff", "-invert", "-volume", "0.5", "-output", "tcell", "anim.bwa"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if len(c.args) != 1 || c.args[0] != "anim.bwa" {
		t.Errorf("args = %v", c.args)
	}

	cfg := config.Default()
	cfg.Player.Loop = true
	cfg.Style.Fg = "red"
	c.apply(&cfg)

	if cfg.Player.FPS != 12 || cfg.Player.Mode != "diff" || cfg.Player.Output != "tcell" {
		t.Errorf("player = %+v", cfg.Player)
	}
	if !cfg.Style.Invert || cfg.Audio.Volume != 0.5 {
		t.Errorf("style/audio = %+v %+v", cfg.Style, cfg.Audio)
	}
	// flags not given keep the config values
	if !cfg.Player.Loop || cfg.Style.Fg != "red" {
		t.Errorf("unset flags overrode config: %+v %+v", cfg.Player, cfg.Style)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	if _, err := parseFlags([]string{"a.bwa", "b.bwa"}, &bytes.Buffer{}); err == nil {
		t.Error("two files accepted")
	}
	if _, err := parseFlags([]string{"-fps", "fast"}, &bytes.Buffer{}); err == nil {
		t.Error("bad fps accepted")
	}
}

func TestRun_Info(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	if err := run([]string{"-info"}, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"demo: 96x72 pixels (48x24 cells), 30 fps, 120 frames", "white", "flip"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("info missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_Check(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	good := &asset.Animation{Width: 4, Height: 3, FPS: 10, Frames: [][]byte{{0x4B}, {0xC5}}}
	bad := &asset.Animation{Width: 4, Height: 3, FPS: 10, Frames: [][]byte{{0x4B}, {0x4C}}}
	write := func(name string, a *asset.Animation) string {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if _, err := a.WriteTo(f); err != nil {
			t.Fatal(err)
		}
		return path
	}

	var out bytes.Buffer
	goodPath := write("good.bwa", good)
	if err := run([]string{"-check", goodPath}, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("check good: %v", err)
	}
	if !strings.Contains(out.String(), "ok, 2 frames") {
		t.Errorf("output = %q", out.String())
	}

	err := run([]string{"-check", write("bad.bwa", bad)}, &bytes.Buffer{}, &bytes.Buffer{})
	var fe *asset.FrameError
	if !errors.As(err, &fe) || fe.Index != 1 || !errors.Is(err, codec.ErrRunOutOfBounds) {
		t.Errorf("check bad = %v", err)
	}

	if err := run([]string{"-check", filepath.Join(dir, "missing.bwa")}, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Error("missing file accepted")
	}
}

func TestRun_DumpConfig(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	if err := run([]string{"-dump-config", "-mode", "full", "-fg", "#ff8800"}, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	cfg := config.Default()
	if err := config.Parse(out.Bytes(), &cfg); err != nil {
		t.Fatalf("dumped config does not parse: %v\n%s", err, out.String())
	}
	if cfg.Player.Mode != "full" || cfg.Style.Fg != "#ff8800" {
		t.Errorf("round trip = %+v %+v", cfg.Player, cfg.Style)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	isolate(t)
	err := run([]string{"-mode", "sideways", "-info"}, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("run = %v, want ErrInvalid", err)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("[player]\nspeed = 2\n"), 0644)
	if err := run([]string{"-config", path, "-info"}, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Error("unknown config key accepted")
	}
}

func TestRun_Help(t *testing.T) {
	var errOut bytes.Buffer
	if err := run([]string{"-h"}, &bytes.Buffer{}, &errOut); err != nil {
		t.Errorf("run -h = %v", err)
	}
	if !strings.Contains(errOut.String(), "Usage: bw-player") {
		t.Errorf("usage = %q", errOut.String())
	}
}

func TestReportMetrics(t *testing.T) {
	var buf safeBuffer
	log.SetOutput(&buf)
	defer log.SetOutput(io.Discard)

	reg := status.NewRegistry()
	reg.Ints.Get("player.rendered").Store(7)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reportMetrics(ctx, reg, time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for !strings.Contains(buf.String(), "player.rendered=7") || !strings.Contains(buf.String(), "process.rss_kb=") {
		select {
		case <-deadline:
			t.Fatalf("no metrics logged: %q", buf.String())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

type safeBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestLogSoundtrack(t *testing.T) {
	sr := beep.SampleRate(22050)
	path := filepath.Join(t.TempDir(), "quiet.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, generators.Silence(sr.N(time.Second)), format); err != nil {
		t.Fatalf("wav.Encode: %v", err)
	}
	f.Close()

	st, err := audio.Open(path, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	anim, err := asset.Demo()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(io.Discard)
	logSoundtrack(st, anim)

	out := buf.String()
	for _, want := range []string{"audio: 22050 Hz, 2 channels, 2-byte samples, 1s", "soundtrack ends 3s before the animation"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
