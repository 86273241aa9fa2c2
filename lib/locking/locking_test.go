package locking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockListAdd(t *testing.T) {
	lr := NewLockResult()
	lr.Read.Add(Context).Add(Database("sales")).Add(Context)

	assert.Equal(t, LockList{Context, Database("sales")}, lr.Read)
	assert.Empty(t, lr.Write)
	assert.Equal(t, "ctx", Context.String())
	assert.Equal(t, "db:sales", Database("sales").String())
}

func TestReadersRunConcurrently(t *testing.T) {
	locks := NewLocks()
	lr := NewLockResult()
	lr.Read.Add(Context, Database("sales"))

	first := locks.Acquire(lr)
	defer first()

	done := make(chan struct{})
	go func() {
		release := locks.Acquire(lr)
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second reader was blocked by the first one")
	}
}

func TestWriterExcludesReaders(t *testing.T) {
	locks := NewLocks()

	writer := NewLockResult()
	writer.Write.Add(Database("sales"))
	reader := NewLockResult()
	reader.Read.Add(Context, Database("sales"))

	releaseWriter := locks.Acquire(writer)

	acquired := make(chan struct{})
	go func() {
		release := locks.Acquire(reader)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("reader acquired the lock while the writer held it")
	case <-time.After(50 * time.Millisecond):
	}

	releaseWriter()
	// releasing twice is harmless
	releaseWriter()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("reader was not granted the lock after the writer released it")
	}
}

func TestOtherDatabasesAreIndependent(t *testing.T) {
	locks := NewLocks()

	writer := NewLockResult()
	writer.Write.Add(Database("sales"))
	release := locks.Acquire(writer)
	defer release()

	other := NewLockResult()
	other.Read.Add(Context, Database("inventory"))

	done := make(chan struct{})
	go func() {
		locks.Acquire(other)()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on another database blocked")
	}
}
