package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/kvbase/lib/db"
)

// EngineFactory creates a new, empty engine. The engine is closed by the suite.
type EngineFactory func(t testing.TB) db.Engine

// RunEngineTests runs the conformance suite for a db.Engine implementation.
func RunEngineTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory(t))
		})

		t.Run("GetReturnsCopy", func(t *testing.T) {
			testGetReturnsCopy(t, factory(t))
		})

		t.Run("EmptyValue", func(t *testing.T) {
			testEmptyValue(t, factory(t))
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrent(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, engine db.Engine) {
	defer engine.Close()

	key := []byte("test-key")
	value1 := []byte("test-value1")
	value2 := []byte("test-value2")

	if err := engine.Put(key, value1); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	result, loaded, err := engine.Get(key)
	if err != nil || !loaded {
		t.Fatalf("Expected key %s to exist after Put (err=%v)", key, err)
	}
	if !bytes.Equal(result, value1) {
		t.Errorf("Expected value %s, got %s", value1, result)
	}

	if err := engine.Put(key, value2); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	result, _, _ = engine.Get(key)
	if !bytes.Equal(result, value2) {
		t.Errorf("Expected updated value %s, got %s", value2, result)
	}

	_, loaded, err = engine.Get([]byte("nonexistent-key"))
	if err != nil {
		t.Errorf("Get of a missing key must not fail: %v", err)
	}
	if loaded {
		t.Errorf("Expected nonexistent key to return loaded=false")
	}
}

func testGetReturnsCopy(t *testing.T, engine db.Engine) {
	defer engine.Close()

	key := []byte("copy-key")
	if err := engine.Put(key, []byte("original")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	retrieved, _, _ := engine.Get(key)
	retrieved[0] = 'X'

	original, _, _ := engine.Get(key)
	if bytes.Equal(retrieved, original) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testEmptyValue(t *testing.T, engine db.Engine) {
	defer engine.Close()

	key := []byte("empty")
	if err := engine.Put(key, []byte{}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	result, loaded, err := engine.Get(key)
	if err != nil || !loaded {
		t.Fatalf("Expected empty value to be stored (err=%v)", err)
	}
	if len(result) != 0 {
		t.Errorf("Expected empty value, got %q", result)
	}
}

func testConcurrent(t *testing.T, engine db.Engine) {
	defer engine.Close()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := []byte(fmt.Sprintf("w%d-k%d", w, i))
				if err := engine.Put(key, key); err != nil {
					t.Errorf("Put failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			key := []byte(fmt.Sprintf("w%d-k%d", w, i))
			value, loaded, err := engine.Get(key)
			if err != nil || !loaded || !bytes.Equal(key, value) {
				t.Fatalf("Key %s lost after concurrent writes (loaded=%v, err=%v)", key, loaded, err)
			}
		}
	}
}
