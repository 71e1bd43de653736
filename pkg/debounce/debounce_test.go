package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitsLatestValueOnly(t *testing.T) {
	d := New[int](30 * time.Millisecond)
	defer d.Stop()

	d.Set(1)
	d.Set(2)
	d.Set(3)

	select {
	case v := <-d.C():
		assert.Equal(t, 3, v)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected an emission")
	}

	// no second emission should follow
	select {
	case v := <-d.C():
		t.Fatalf("unexpected extra emission: %d", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSetResetsTimer(t *testing.T) {
	d := New[string](60 * time.Millisecond)
	defer d.Stop()

	d.Set("first")
	time.Sleep(30 * time.Millisecond)
	d.Set("second")

	// 30ms after the second Set the original timer would have fired;
	// nothing may be emitted yet
	select {
	case v := <-d.C():
		t.Fatalf("emitted too early: %s", v)
	case <-time.After(20 * time.Millisecond):
	}

	select {
	case v := <-d.C():
		assert.Equal(t, "second", v)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected an emission")
	}
}

func TestFlushEmitsImmediately(t *testing.T) {
	d := New[int](10 * time.Second)
	defer d.Stop()

	d.Set(42)
	d.Flush()

	select {
	case v := <-d.C():
		assert.Equal(t, 42, v)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("flush should emit without waiting for the delay")
	}
}

func TestStopPreventsEmission(t *testing.T) {
	d := New[int](20 * time.Millisecond)

	d.Set(1)
	d.Stop()

	select {
	case v := <-d.C():
		t.Fatalf("emission after Stop: %d", v)
	case <-time.After(100 * time.Millisecond):
	}

	// Set after Stop is a no-op
	d.Set(2)
	select {
	case v := <-d.C():
		t.Fatalf("emission after Stop: %d", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOverwritesUndeliveredValue(t *testing.T) {
	d := New[int](10 * time.Millisecond)
	defer d.Stop()

	d.Set(1)
	time.Sleep(50 * time.Millisecond)
	// 1 sits undelivered in the buffer; a newer settle replaces it
	d.Set(2)
	time.Sleep(50 * time.Millisecond)

	select {
	case v := <-d.C():
		require.Equal(t, 2, v)
	default:
		t.Fatal("expected a buffered value")
	}
}
