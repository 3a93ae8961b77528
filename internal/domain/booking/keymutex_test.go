package booking

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestKeyedMutexExclusion(t *testing.T) {
	km := newKeyedMutex()
	key := slotKey{amenityID: uuid.New(), buildingID: "B1", day: "2026-02-19"}

	const workers = 20
	var counter, max int
	var track sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock(key)
			defer km.Unlock(key)

			track.Lock()
			counter++
			if counter > max {
				max = counter
			}
			track.Unlock()

			time.Sleep(time.Millisecond)

			track.Lock()
			counter--
			track.Unlock()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Errorf("max concurrent holders = %d, want 1", max)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	a := slotKey{amenityID: uuid.New(), buildingID: "B1", day: "2026-02-19"}
	b := slotKey{amenityID: uuid.New(), buildingID: "B1", day: "2026-02-19"}

	km.Lock(a)

	done := make(chan struct{})
	go func() {
		km.Lock(b)
		km.Unlock(b)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on independent key blocked")
	}

	km.Unlock(a)
}

func TestKeyedMutexReclaimsEntries(t *testing.T) {
	km := newKeyedMutex()
	key := slotKey{amenityID: uuid.New(), buildingID: "B1", day: "2026-02-19"}

	km.Lock(key)
	km.Unlock(key)

	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.entries) != 0 {
		t.Errorf("entries = %d, want 0 after release", len(km.entries))
	}
}
