// File: session/writer_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/momentics/wscore/api"
	"github.com/momentics/wscore/fake"
	"github.com/momentics/wscore/pool"
	"github.com/momentics/wscore/protocol"
)

func TestWriterPreservesFrameOrder(t *testing.T) {
	tr := fake.NewTransport()
	w := newWriter(tr, false, 8, pool.Default())

	for i := 0; i < 20; i++ {
		f := protocol.NewTextFrame([]byte(fmt.Sprintf("m%02d", i)))
		if err := w.HandleFrame(f); err != nil {
			t.Fatalf("HandleFrame %d: %v", i, err)
		}
	}
	if err := w.drain(); err != nil {
		t.Fatalf("drain: %v", err)
	}

	dec := protocol.Decoder{}
	frames, err := dec.Feed(tr.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(frames) != 20 {
		t.Fatalf("wrote %d frames", len(frames))
	}
	for i, f := range frames {
		if want := fmt.Sprintf("m%02d", i); string(f.Payload) != want {
			t.Fatalf("frame %d payload %q, want %q", i, f.Payload, want)
		}
	}
}

func TestWriterConcurrentProducers(t *testing.T) {
	tr := fake.NewTransport()
	w := newWriter(tr, false, 4, pool.Default())

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := w.HandleFrame(protocol.NewBinaryFrame([]byte{byte(p)})); err != nil {
					t.Errorf("producer %d: %v", p, err)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	if err := w.drain(); err != nil {
		t.Fatalf("drain: %v", err)
	}

	dec := protocol.Decoder{}
	frames, err := dec.Feed(tr.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(frames) != 8*50 {
		t.Fatalf("wrote %d frames, want %d", len(frames), 8*50)
	}
}

func TestWriterSurfacesTransportFailure(t *testing.T) {
	tr := fake.NewTransport()
	tr.SetWriteError(errors.New("wire cut"))
	w := newWriter(tr, false, 4, pool.Default())

	err := w.HandleFrame(protocol.NewTextFrame([]byte("x")))
	if api.CodeOf(err) != api.ErrCodeInternal {
		t.Fatalf("error = %v", err)
	}
	// later sends keep failing with the sticky error
	if err := w.HandleFrame(protocol.NewTextFrame([]byte("y"))); err == nil {
		t.Fatal("writer accepted frames after transport failure")
	}
}

func TestWriterCloseUnblocksProducers(t *testing.T) {
	tr := fake.NewTransport()
	w := newWriter(tr, false, 2, pool.Default())
	w.close()

	if err := w.HandleFrame(protocol.NewTextFrame([]byte("x"))); !errors.Is(err, api.ErrSessionClosed) {
		t.Fatalf("HandleFrame on closed writer = %v", err)
	}
	if err := w.drain(); err != nil {
		t.Fatalf("drain on closed writer = %v", err)
	}
}
