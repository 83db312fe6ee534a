package status

import (
	"strings"
	"sync"
	"testing"
)

func TestMetricMap_GetCachesPointer(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	a := m.Get("x")
	a.Store(1.5)
	if b := m.Get("x"); b != a || b.Load() != 1.5 {
		t.Errorf("second Get returned a different metric")
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d", m.Count())
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := r.Ints.Get("frames")
			for range 1000 {
				c.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := r.Ints.Get("frames").Load(); got != 8000 {
		t.Errorf("frames = %d, want 8000", got)
	}
}

func TestRegistry_WriteTo(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get("player.rendered").Store(42)
	r.Floats.Get("player.late_ms").Store(3.14159)
	r.Strings.Get("player.state").Store("paused")

	var b strings.Builder
	if _, err := r.WriteTo(&b); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	want := "player.late_ms=3.14 player.rendered=42 player.state=paused\n"
	if b.String() != want {
		t.Errorf("WriteTo = %q, want %q", b.String(), want)
	}
}

func TestAtomicString_Truncates(t *testing.T) {
	var s AtomicString
	if s.Load() != "" {
		t.Error("zero value not empty")
	}
	s.Store(strings.Repeat("a", MaxStringLen+5))
	if len(s.Load()) != MaxStringLen {
		t.Errorf("len = %d", len(s.Load()))
	}
}

func TestProcessSampler(t *testing.T) {
	r := NewRegistry()
	s, err := NewProcessSampler(r)
	if err != nil {
		t.Fatalf("NewProcessSampler: %v", err)
	}
	if err := s.Sample(); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if rss := r.Ints.Get("process.rss_kb").Load(); rss <= 0 {
		t.Errorf("rss = %d", rss)
	}
	if n := r.Ints.Get("process.threads").Load(); n < 1 {
		t.Errorf("threads = %d", n)
	}
	if cpu := r.Floats.Get("process.cpu_pct").Load(); cpu < 0 {
		t.Errorf("cpu = %v", cpu)
	}
}
