package asset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/lixenwraith/bw-player/codec"
)

func sample() *Animation {
	return &Animation{
		Width:  4,
		Height: 3,
		FPS:    29.97,
		Frames: [][]byte{
			{0x4B},       // White×12
			{0x45, 0x05}, // White×6, Skip×6
			{},
			{0xC0}, // Flip×1
		},
	}
}

func encoded(t *testing.T, a *Animation) []byte {
	t.Helper()
	var buf bytes.Buffer
	n, err := a.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	in := sample()
	data := encoded(t, in)

	if string(data[:4]) != Magic {
		t.Errorf("magic = %q", data[:4])
	}
	if len(data) != HeaderSize+4*4+1+2+0+1 {
		t.Errorf("encoded size = %d", len(data))
	}

	out, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out.Width != in.Width || out.Height != in.Height || out.FPS != in.FPS {
		t.Errorf("header = %dx%d@%g", out.Width, out.Height, out.FPS)
	}
	if out.FrameCount() != in.FrameCount() {
		t.Fatalf("frames = %d, want %d", out.FrameCount(), in.FrameCount())
	}
	for i := range in.Frames {
		if !bytes.Equal(out.Frames[i], in.Frames[i]) {
			t.Errorf("frame %d = %x, want %x", i, out.Frames[i], in.Frames[i])
		}
	}
}

func TestRead_Errors(t *testing.T) {
	good := encoded(t, sample())

	withHeader := func(mutate func(h []byte)) []byte {
		d := bytes.Clone(good)
		mutate(d[:HeaderSize])
		return d
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"short header", good[:10], ErrTruncated},
		{"bad magic", withHeader(func(h []byte) { copy(h, "GIF8") }), ErrBadMagic},
		{"zero width", withHeader(func(h []byte) { binary.BigEndian.PutUint32(h[4:8], 0) }), ErrInvalidHeader},
		{"huge height", withHeader(func(h []byte) { binary.BigEndian.PutUint32(h[8:12], MaxDimension+1) }), ErrInvalidHeader},
		{"nan fps", withHeader(func(h []byte) { binary.BigEndian.PutUint64(h[12:20], math.Float64bits(math.NaN())) }), ErrInvalidHeader},
		{"infinite fps", withHeader(func(h []byte) { binary.BigEndian.PutUint64(h[12:20], math.Float64bits(math.Inf(1))) }), ErrInvalidHeader},
		{"tiny fps", withHeader(func(h []byte) { binary.BigEndian.PutUint64(h[12:20], math.Float64bits(1e-12)) }), ErrInvalidHeader},
		{"fps too high", withHeader(func(h []byte) { binary.BigEndian.PutUint64(h[12:20], math.Float64bits(MaxFPS*2)) }), ErrInvalidHeader},
		{"negative fps", withHeader(func(h []byte) { binary.BigEndian.PutUint64(h[12:20], math.Float64bits(-1)) }), ErrInvalidHeader},
		{"too many frames", withHeader(func(h []byte) { binary.BigEndian.PutUint32(h[20:24], MaxFrames+1) }), ErrInvalidHeader},
		{"missing frame", withHeader(func(h []byte) { binary.BigEndian.PutUint32(h[20:24], 5) }), ErrTruncated},
		{"short frame size", good[:HeaderSize+2], ErrTruncated},
		{"short frame data", good[:HeaderSize+4+1+4+1], ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("Read() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRead_TruncatedAllocation(t *testing.T) {
	good := encoded(t, sample())

	manyFrames := bytes.Clone(good[:HeaderSize])
	binary.BigEndian.PutUint32(manyFrames[20:24], MaxFrames)

	bigFrame := bytes.Clone(good[:HeaderSize])
	binary.BigEndian.PutUint32(bigFrame[20:24], 1)
	bigFrame = binary.BigEndian.AppendUint32(bigFrame, MaxFrameSize)
	bigFrame = append(bigFrame, 0x4B)

	const budget = 4 << 20
	tests := []struct {
		name string
		data []byte
	}{
		{"frame count without frames", manyFrames},
		{"frame size without data", bigFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before, after runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&before)
			_, err := Read(bytes.NewReader(tt.data))
			runtime.ReadMemStats(&after)

			if !errors.Is(err, ErrTruncated) {
				t.Errorf("Read() = %v, want ErrTruncated", err)
			}
			if got := after.TotalAlloc - before.TotalAlloc; got > budget {
				t.Errorf("allocated %d bytes for %d bytes of input", got, len(tt.data))
			}
		})
	}
}

func TestRead_LargeFrame(t *testing.T) {
	a := sample()
	a.Frames = [][]byte{bytes.Repeat([]byte{0x05}, 3*frameChunk+7)}
	out, err := Read(bytes.NewReader(encoded(t, a)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(out.Frames[0], a.Frames[0]) {
		t.Errorf("frame length = %d, want %d", len(out.Frames[0]), len(a.Frames[0]))
	}
}

func TestWriteTo_Invalid(t *testing.T) {
	a := sample()
	a.FPS = 0
	if _, err := a.WriteTo(&bytes.Buffer{}); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("WriteTo with fps 0 = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.bwa")
	if err := os.WriteFile(path, encoded(t, sample()), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.FrameCount() != 4 {
		t.Errorf("frames = %d", a.FrameCount())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.bwa")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load missing = %v", err)
	}
}

func TestCheck(t *testing.T) {
	s, err := sample().Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if s.CommandCount() != 4 || s.Bytes != 4 {
		t.Errorf("stats = %+v", s)
	}
	if s.Pixels[codec.KindWhite] != 18 || s.Pixels[codec.KindSkip] != 6 || s.Pixels[codec.KindFlip] != 1 {
		t.Errorf("pixels = %v", s.Pixels)
	}

	bad := sample()
	bad.Frames[2] = []byte{0x4C} // White×13 on a 12-pixel canvas
	_, err = bad.Check()
	var fe *FrameError
	if !errors.As(err, &fe) || fe.Index != 2 {
		t.Fatalf("Check() = %v, want FrameError at 2", err)
	}
	if !errors.Is(err, codec.ErrRunOutOfBounds) {
		t.Errorf("Check() = %v, want ErrRunOutOfBounds", err)
	}
}

func TestDemo(t *testing.T) {
	a, err := Demo()
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	if a.Width != 96 || a.Height != 72 || a.FPS != 30 || a.FrameCount() != 120 {
		t.Errorf("demo = %dx%d@%g, %d frames", a.Width, a.Height, a.FPS, a.FrameCount())
	}
	if a.Duration() != 4 {
		t.Errorf("duration = %g", a.Duration())
	}
	s, err := a.Check()
	if err != nil {
		t.Fatalf("demo does not decode: %v", err)
	}
	// Key frame covers the whole canvas
	first, _ := codec.Scan(a.Frames[0], a.Width*a.Height)
	if first.Covered != a.Width*a.Height || first.Commands[codec.KindSkip] != 0 {
		t.Errorf("first frame stats = %+v", first)
	}
	if s.Bytes != len(demoData)-HeaderSize-4*a.FrameCount() {
		t.Errorf("total bytes = %d", s.Bytes)
	}
}
