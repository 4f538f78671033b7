/*****************************************************************************************************************/

package rangereader

/*****************************************************************************************************************/

import (
	"context"
	"testing"
)

/*****************************************************************************************************************/

// fakeObject is an in-memory RangeGetter backed by a byte slice, counting
// how many GetRange calls it serves so tests can assert on buffer reuse.
type fakeObject struct {
	data  []byte
	calls int
}

func (f *fakeObject) GetRange(_ context.Context, offset int64, n int) ([]byte, error) {
	f.calls++

	end := offset + int64(n)
	if end > int64(len(f.data)) {
		end = int64(len(f.data))
	}

	return f.data[offset:end], nil
}

/*****************************************************************************************************************/

func TestReadIntoServesOverlappingReadFromSameBufferWithoutRefetch(t *testing.T) {
	size := 8 * 1024 * 1024
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}

	obj := &fakeObject{data: data}
	r := New(obj)

	dest := make([]byte, 64)

	if err := r.ReadInto(context.Background(), 0, 64, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsAfterFirst := obj.calls

	// A second, overlapping read at a nearby offset should be served from
	// buffer A without a new fetch.
	if err := r.ReadInto(context.Background(), 100, 64, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obj.calls != callsAfterFirst {
		t.Fatalf("expected second overlapping read to reuse buffer A, but triggered %d new fetch(es)", obj.calls-callsAfterFirst)
	}

	want := data[100:164]
	for i := range want {
		if dest[i] != want[i] {
			t.Fatalf("byte %d: expected %d, got %d", i, want[i], dest[i])
		}
	}
}

/*****************************************************************************************************************/

func TestReadIntoSeparatesThreeRegionsAcrossBuffers(t *testing.T) {
	size := 8 * 1024 * 1024
	data := make([]byte, size)

	obj := &fakeObject{data: data}
	r := New(obj)

	dest := make([]byte, 64)

	if err := r.ReadInto(context.Background(), 0, 64, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.ReadInto(context.Background(), 50*1024, 64, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.ReadInto(context.Background(), 5*1024*1024, 64, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obj.calls != 3 {
		t.Fatalf("expected exactly 3 fetches for 3 disjoint regions, got %d", obj.calls)
	}

	if err := r.ReadInto(context.Background(), 100, 32, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.calls != 3 {
		t.Fatalf("expected the fourth read at offset 100 to be served from buffer A without a new fetch, got %d total fetches", obj.calls)
	}
}

/*****************************************************************************************************************/

func TestReadIntoFailsOnShortRemoteResponse(t *testing.T) {
	obj := &fakeObject{data: make([]byte, 10)}
	r := New(obj)

	dest := make([]byte, 100)
	if err := r.ReadInto(context.Background(), 0, 100, dest); err == nil {
		t.Fatalf("expected an error when the remote GET returns fewer bytes than requested")
	}
}

/*****************************************************************************************************************/
