package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/lixenwraith/bw-player/canvas"
)

// appendCommand encodes one command the way the asset encoder does
func appendCommand(buf []byte, kind Kind, length int) []byte {
	length--
	b := byte(kind)<<kindShift | byte(length&baseMask)
	length >>= 5
	if length != 0 {
		b |= extendedFlag
	}
	buf = append(buf, b)

	for length != 0 {
		length--
		b = byte(length & contMask)
		length >>= 7
		if length != 0 {
			b |= moreFlag
		}
		buf = append(buf, b)
	}
	return buf
}

func encode(cmds ...Command) []byte {
	var buf []byte
	for _, c := range cmds {
		buf = appendCommand(buf, c.Kind, c.Length)
	}
	return buf
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		want  Command
		wantN int
	}{
		{"skip 1", []byte{0x00}, Command{KindSkip, 1}, 1},
		{"white 6", []byte{0x45}, Command{KindWhite, 6}, 1},
		{"black 32", []byte{0x9F}, Command{KindBlack, 32}, 1},
		{"flip 1", []byte{0xC0}, Command{KindFlip, 1}, 1},
		{"extended 33", []byte{0x20, 0x00}, Command{KindSkip, 33}, 2},
		{"extended 4128", []byte{0x3F, 0x7F}, Command{KindSkip, 4128}, 2},
		{"extended 4129", []byte{0x20, 0x80, 0x00}, Command{KindSkip, 4129}, 3},
		{"extended max", []byte{0xFF, 0xFF, 0x7F}, Command{KindFlip, MaxRunLength}, 3},
		{"trailing bytes ignored", []byte{0x45, 0xFF, 0xFF}, Command{KindWhite, 6}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := DecodeCommand(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || n != tt.wantN {
				t.Errorf("got %v (%d bytes), want %v (%d bytes)", got, n, tt.want, tt.wantN)
			}
		})
	}
}

func TestDecodeCommand_Empty(t *testing.T) {
	_, n, err := DecodeCommand(nil)
	if n != 0 || err != nil {
		t.Errorf("empty buffer: n=%d err=%v, want 0, nil", n, err)
	}
}

func TestDecodeCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		wantErr error
	}{
		{"extended flag without continuation", []byte{0x60}, ErrTruncatedStream},
		{"more flag without second byte", []byte{0x20, 0x80}, ErrTruncatedStream},
		{"third continuation byte", []byte{0x20, 0x80, 0x80, 0x00}, ErrLengthOverflow},
		{"third continuation at buffer end", []byte{0x20, 0x80, 0x80}, ErrLengthOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Capacity equals length so a read past the end would panic
			in := tt.in[:len(tt.in):len(tt.in)]
			_, _, err := DecodeCommand(in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeCommand_RoundTrip(t *testing.T) {
	lengths := []int{1, 2, 31, 32, 33, 4095, 4128, 4129, 65536, MaxRunLength}
	kinds := []Kind{KindSkip, KindWhite, KindBlack, KindFlip}

	for _, kind := range kinds {
		for _, length := range lengths {
			enc := appendCommand(nil, kind, length)
			first, n, err := DecodeCommand(enc)
			if err != nil || n != len(enc) {
				t.Fatalf("%v×%d: n=%d err=%v", kind, length, n, err)
			}

			again := appendCommand(nil, first.Kind, first.Length)
			if !bytes.Equal(enc, again) {
				t.Fatalf("%v×%d: re-encoded %x, want %x", kind, length, again, enc)
			}

			second, _, err := DecodeCommand(again)
			if err != nil {
				t.Fatalf("%v×%d: second decode: %v", kind, length, err)
			}
			if first != second || first.Kind != kind || first.Length != length {
				t.Errorf("%v×%d: decoded %v then %v", kind, length, first, second)
			}
		}
	}
}

func TestDecodeCommand_AllLengths(t *testing.T) {
	buf := make([]byte, 0, 3)
	for length := 1; length <= MaxRunLength; length++ {
		buf = appendCommand(buf[:0], KindSkip, length)
		cmd, n, err := DecodeCommand(buf)
		if err != nil || n != len(buf) || cmd.Length != length {
			t.Fatalf("length %d: got %v n=%d err=%v from %x", length, cmd, n, err, buf)
		}
	}

	buf = appendCommand(buf[:0], KindSkip, MaxRunLength+1)
	if _, _, err := DecodeCommand(buf); !errors.Is(err, ErrLengthOverflow) {
		t.Errorf("MaxRunLength+1: got %v, want ErrLengthOverflow", err)
	}
}

func TestKindString(t *testing.T) {
	if KindFlip.String() != "flip" || Kind(7).String() != "Kind(7)" {
		t.Errorf("unexpected names %q %q", KindFlip, Kind(7))
	}
}

// model applies commands pixel by pixel on a bool slice
func model(prev []bool, cmds []Command) []bool {
	out := append([]bool(nil), prev...)
	cursor := 0
	for _, c := range cmds {
		for i := cursor; i < cursor+c.Length; i++ {
			switch c.Kind {
			case KindWhite:
				out[i] = true
			case KindBlack:
				out[i] = false
			case KindFlip:
				out[i] = !out[i]
			}
		}
		cursor += c.Length
	}
	return out
}

func pixels(c *canvas.Canvas) []bool {
	out := make([]bool, c.Len())
	for i := range out {
		out[i] = bool(c.PixelAt(i))
	}
	return out
}

func randomCanvas(rng *rand.Rand, w, h int) *canvas.Canvas {
	c := canvas.New(w, h)
	for i := 0; i < c.Len(); i++ {
		if rng.Intn(2) == 1 {
			c.SetRun(i, i+1, canvas.White)
		}
	}
	return c
}

func TestDecode_MatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const w, h = 31, 17

	for iter := 0; iter < 300; iter++ {
		prev := randomCanvas(rng, w, h)

		var cmds []Command
		remaining := w * h
		// Some streams stop short of the full canvas
		if rng.Intn(3) == 0 {
			remaining = rng.Intn(remaining + 1)
		}
		for remaining > 0 {
			length := 1 + rng.Intn(min(remaining, 70))
			cmds = append(cmds, Command{Kind(rng.Intn(4)), length})
			remaining -= length
		}

		dst := canvas.New(w, h)
		if err := Decode(dst, prev, encode(cmds...)); err != nil {
			t.Fatalf("iter %d: %v", iter, err)
		}

		want := model(pixels(prev), cmds)
		got := pixels(dst)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("iter %d: pixel %d = %v, want %v", iter, i, got[i], want[i])
			}
		}
	}
}

func TestDecode_ShortStreamKeepsSuffix(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	prev := randomCanvas(rng, 16, 6)
	dst := canvas.New(16, 6)

	frame := encode(Command{KindFlip, 40}, Command{KindWhite, 9})
	if err := Decode(dst, prev, frame); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	for i := 49; i < prev.Len(); i++ {
		if dst.PixelAt(i) != prev.PixelAt(i) {
			t.Fatalf("pixel %d changed outside the command stream", i)
		}
	}
}

func TestDecode_EmptyFrameCopiesPrevious(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	prev := randomCanvas(rng, 10, 10)
	dst := canvas.New(10, 10)
	dst.SetRun(0, dst.Len(), canvas.White)

	if err := Decode(dst, prev, nil); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !dst.Equal(prev) {
		t.Error("empty frame should reproduce the previous canvas")
	}
}

func TestDecode_ExactCoverage(t *testing.T) {
	prev := canvas.New(4, 3)
	dst := canvas.New(4, 3)

	frame := encode(Command{KindWhite, 12})
	if err := Decode(dst, prev, frame); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := 0; i < dst.Len(); i++ {
		if dst.PixelAt(i) != canvas.White {
			t.Fatalf("pixel %d not white", i)
		}
	}
}

func TestDecode_WhiteThenSkip(t *testing.T) {
	// 0x45 = white×6, 0x05 = skip×6
	prev := canvas.New(4, 3)
	dst := canvas.New(4, 3)

	if err := Decode(dst, prev, []byte{0x45, 0x05}); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := 0; i < dst.Len(); i++ {
		want := canvas.Color(i < 6)
		if dst.PixelAt(i) != want {
			t.Errorf("pixel %d = %v, want %v", i, dst.PixelAt(i), want)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		wantErr error
	}{
		{"run past end", encode(Command{KindWhite, 13}), ErrRunOutOfBounds},
		{"skip past end", encode(Command{KindSkip, 10}, Command{KindSkip, 3}), ErrRunOutOfBounds},
		{"truncated after valid command", []byte{0x45, 0x20}, ErrTruncatedStream},
		{"truncated mid continuation", []byte{0x05, 0x20, 0x80}, ErrTruncatedStream},
		{"overflow", []byte{0x20, 0x80, 0x80, 0x00}, ErrLengthOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := canvas.New(4, 3)
			prev.SetRun(2, 7, canvas.White)
			snapshot := append([]byte(nil), prev.Bytes()...)

			frame := tt.frame[:len(tt.frame):len(tt.frame)]
			err := Decode(canvas.New(4, 3), prev, frame)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if !bytes.Equal(prev.Bytes(), snapshot) {
				t.Error("previous canvas modified by failed decode")
			}
		})
	}
}

func TestDecode_DimensionMismatch(t *testing.T) {
	err := Decode(canvas.New(4, 3), canvas.New(3, 4), nil)
	if !errors.Is(err, canvas.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestScan(t *testing.T) {
	frame := encode(
		Command{KindBlack, 100},
		Command{KindWhite, 33},
		Command{KindSkip, 7},
		Command{KindFlip, 5000},
		Command{KindWhite, 1},
	)

	s, err := Scan(frame, 6000)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if s.Bytes != len(frame) {
		t.Errorf("Bytes = %d, want %d", s.Bytes, len(frame))
	}
	if s.Covered != 5141 {
		t.Errorf("Covered = %d, want 5141", s.Covered)
	}
	if s.CommandCount() != 5 || s.Commands[KindWhite] != 2 {
		t.Errorf("Commands = %v", s.Commands)
	}
	if s.Pixels[KindWhite] != 34 || s.Pixels[KindFlip] != 5000 {
		t.Errorf("Pixels = %v", s.Pixels)
	}

	if _, err := Scan(frame, 5000); !errors.Is(err, ErrRunOutOfBounds) {
		t.Errorf("short canvas: got %v, want ErrRunOutOfBounds", err)
	}

	var total Stats
	total.Add(s)
	total.Add(s)
	if total.Covered != 2*s.Covered || total.Commands[KindFlip] != 2 {
		t.Errorf("Add: %+v", total)
	}
}
