package domain

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewSession(t *testing.T) {
	s := NewSession("BOOT")
	snap := s.Snapshot()

	if snap.Token != "BOOT" {
		t.Errorf("Token = %q, want %q", snap.Token, "BOOT")
	}
	if snap.Generation != 0 {
		t.Errorf("Generation = %d, want 0", snap.Generation)
	}
	if snap.Rotated {
		t.Error("Rotated should be false before any handshake")
	}
}

func TestSession_Advance(t *testing.T) {
	t.Run("with new token", func(t *testing.T) {
		s := NewSession("BOOT")
		snap := s.Advance("T1")

		if snap.Token != "T1" || snap.Generation != 1 || !snap.Rotated {
			t.Errorf("Advance(T1) = %+v, want {T1 1 true}", snap)
		}
		if got := s.Snapshot(); got != snap {
			t.Errorf("Snapshot() = %+v, want %+v", got, snap)
		}
	})

	t.Run("empty token only bumps generation", func(t *testing.T) {
		s := NewSession("BOOT")
		s.Advance("T1")
		snap := s.Advance("")

		if snap.Token != "T1" {
			t.Errorf("Token = %q, want T1 to remain active", snap.Token)
		}
		if snap.Generation != 2 {
			t.Errorf("Generation = %d, want 2", snap.Generation)
		}
	})

	t.Run("empty token before rotation keeps bootstrap", func(t *testing.T) {
		s := NewSession("BOOT")
		snap := s.Advance("")

		if snap.Token != "BOOT" || snap.Generation != 1 || snap.Rotated {
			t.Errorf("Advance(\"\") = %+v, want {BOOT 1 false}", snap)
		}
	})
}

func TestSession_GenerationMonotonic(t *testing.T) {
	s := NewSession("BOOT")
	const n = 25
	for i := 1; i <= n; i++ {
		before := s.Generation()
		s.Advance(fmt.Sprintf("T%d", i))
		if after := s.Generation(); after != before+1 {
			t.Fatalf("handshake %d: generation %d -> %d, want +1", i, before, after)
		}
	}
	if got := s.Generation(); got != n {
		t.Errorf("Generation() = %d, want %d", got, n)
	}
}

func TestSession_ConcurrentAdvanceIsAtomic(t *testing.T) {
	s := NewSession("BOOT")

	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Advance(fmt.Sprintf("w%d-%d", w, i))
			}
		}(w)
	}

	readers := make(chan error, workers)
	for r := 0; r < workers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last int64
			for i := 0; i < perWorker; i++ {
				snap := s.Snapshot()
				if snap.Generation < last {
					readers <- fmt.Errorf("generation went backwards: %d after %d", snap.Generation, last)
					return
				}
				last = snap.Generation
			}
		}()
	}

	wg.Wait()
	close(readers)
	for err := range readers {
		t.Error(err)
	}

	if got := s.Generation(); got != workers*perWorker {
		t.Errorf("Generation() = %d, want %d", got, workers*perWorker)
	}
}

func TestSession_TokenAndGenerationMoveTogether(t *testing.T) {
	s := NewSession("BOOT")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	torn := make(chan SessionSnapshot, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := s.Snapshot()
			if snap.Generation == 0 {
				if snap.Token != "BOOT" {
					select {
					case torn <- snap:
					default:
					}
				}
				continue
			}
			if snap.Token != fmt.Sprintf("gen-%d", snap.Generation) {
				select {
				case torn <- snap:
				default:
				}
			}
		}
	}()

	for i := 1; i <= 500; i++ {
		s.mu.Lock()
		want := fmt.Sprintf("gen-%d", s.generation+1)
		s.mu.Unlock()
		s.Advance(want)
	}
	close(stop)
	wg.Wait()

	select {
	case snap := <-torn:
		t.Fatalf("observed torn session state: %+v", snap)
	default:
	}
}
