package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func breakerWithClock(cfg BreakerConfig) (*Breaker, *manualClock) {
	clock := &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(cfg)
	b.clock = clock.now
	return b, clock
}

var errSegment = errors.New("segment failed")

func failing() error { return errSegment }
func working() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := breakerWithClock(BreakerConfig{Threshold: 3, Cooldown: time.Second})
	for i := 0; i < 3; i++ {
		if b.State() != Closed {
			t.Fatalf("call %d: state = %v before threshold", i, b.State())
		}
		if err := b.Do(failing); !errors.Is(err, errSegment) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if b.State() != Open {
		t.Fatalf("state = %v, want open", b.State())
	}
	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) || called {
		t.Errorf("open breaker: err = %v, called = %v", err, called)
	}
}

func TestBreakerSuccessClearsRun(t *testing.T) {
	b, _ := breakerWithClock(BreakerConfig{Threshold: 2})
	_ = b.Do(failing)
	_ = b.Do(working)
	_ = b.Do(failing)
	if b.State() != Closed || b.Failures() != 1 {
		t.Errorf("state = %v failures = %d, want closed with 1", b.State(), b.Failures())
	}
}

func TestBreakerProbing(t *testing.T) {
	tests := []struct {
		name  string
		probe func() error
		want  State
	}{
		{"probe succeeds", working, Closed},
		{"probe fails", failing, Open},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clock := breakerWithClock(BreakerConfig{Threshold: 1, Cooldown: time.Minute})
			_ = b.Do(failing)
			clock.advance(59 * time.Second)
			if b.State() != Open {
				t.Fatalf("state = %v before cooldown", b.State())
			}
			clock.advance(time.Second)
			if b.State() != Probing {
				t.Fatalf("state = %v after cooldown, want probing", b.State())
			}
			_ = b.Do(tt.probe)
			if got := b.State(); got != tt.want {
				t.Errorf("state = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBreakerLimitsConcurrentProbes(t *testing.T) {
	b, clock := breakerWithClock(BreakerConfig{Threshold: 1, Cooldown: time.Second, Probes: 1})
	_ = b.Do(failing)
	clock.advance(time.Second)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Do(func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered
	if err := b.Do(working); !errors.Is(err, ErrOpen) {
		t.Errorf("second probe err = %v, want ErrOpen", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe err = %v", err)
	}
	if b.State() != Closed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	b, _ := breakerWithClock(BreakerConfig{Threshold: 1})
	_ = b.Do(func() error { return fmt.Errorf("request: %w", context.Canceled) })
	if b.State() != Closed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreakerFailedFilter(t *testing.T) {
	errBadInput := errors.New("bad input")
	b, _ := breakerWithClock(BreakerConfig{
		Threshold: 1,
		Failed:    func(err error) bool { return !errors.Is(err, errBadInput) },
	})
	_ = b.Do(func() error { return errBadInput })
	if b.State() != Closed {
		t.Fatalf("client error opened the breaker")
	}
	_ = b.Do(failing)
	if b.State() != Open {
		t.Errorf("state = %v, want open", b.State())
	}
}

func TestBreakerTransitionsAndReset(t *testing.T) {
	var seen []string
	b, clock := breakerWithClock(BreakerConfig{
		Name:      "segmenter",
		Threshold: 1,
		Cooldown:  time.Second,
		OnTransition: func(name string, from, to State) {
			seen = append(seen, fmt.Sprintf("%s:%v>%v", name, from, to))
		},
	})
	_ = b.Do(failing)
	clock.advance(time.Second)
	_ = b.State()
	b.Reset()
	b.Reset()

	want := []string{"segmenter:closed>open", "segmenter:open>probing", "segmenter:probing>closed"}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("transitions = %v, want %v", seen, want)
	}
	if b.Failures() != 0 {
		t.Errorf("failures = %d after reset", b.Failures())
	}
}

func TestBreakerConcurrentCalls(t *testing.T) {
	b := NewBreaker(BreakerConfig{Threshold: 1000})
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if (i+j)%2 == 0 {
					_ = b.Do(working)
				} else {
					_ = b.Do(failing)
				}
			}
		}(i)
	}
	wg.Wait()
	if b.State() != Closed {
		t.Errorf("state = %v", b.State())
	}
}

func TestStateNames(t *testing.T) {
	for s, want := range map[State]string{Closed: "closed", Open: "open", Probing: "probing", State(9): "unknown"} {
		if s.String() != want {
			t.Errorf("State(%d) = %q, want %q", s, s.String(), want)
		}
	}
}
