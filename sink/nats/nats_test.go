package nats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nats-io/nats.go"
	"github.com/rbaliyan/evtrack"
	"github.com/rbaliyan/evtrack/payload"
	"syreclabs.com/go/faker"
)

// mockConn records published messages
type mockConn struct {
	mu   sync.Mutex
	msgs []*nats.Msg
	err  error
}

func (c *mockConn) PublishMsg(m *nats.Msg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func sampleReport() *evtrack.Report {
	return &evtrack.Report{
		ID:      evtrack.NewID(),
		Name:    faker.Lorem().Word(),
		TakenAt: time.Now().Truncate(time.Millisecond),
		Objects: []evtrack.ObjectReport{
			{ID: 1, Type: "*main.panel", Events: []evtrack.EventCount{{Name: "resize", Handlers: 2}}},
		},
	}
}

func TestEmit(t *testing.T) {
	faker.Seed(time.Now().UnixNano())

	codecs := []payload.Codec{payload.JSON{}, payload.MsgPack{}}
	for _, c := range codecs {
		t.Run(c.ContentType(), func(t *testing.T) {
			conn := &mockConn{}
			s := New(conn, WithCodec(c), WithSubject("reports.test"))
			r := sampleReport()

			if err := s.Emit(context.Background(), r); err != nil {
				t.Fatalf("Emit failed: %v", err)
			}
			if len(conn.msgs) != 1 {
				t.Fatalf("expected 1 message, got %d", len(conn.msgs))
			}

			msg := conn.msgs[0]
			if msg.Subject != "reports.test" {
				t.Errorf("expected subject reports.test, got %s", msg.Subject)
			}
			if got := msg.Header.Get(HeaderContentType); got != c.ContentType() {
				t.Errorf("expected content type %s, got %s", c.ContentType(), got)
			}
			if got := msg.Header.Get(HeaderTracker); got != r.Name {
				t.Errorf("expected tracker header %s, got %s", r.Name, got)
			}

			decoded, err := Decode(msg)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !decoded.TakenAt.Equal(r.TakenAt) {
				t.Errorf("taken_at mismatch: %v != %v", decoded.TakenAt, r.TakenAt)
			}
			decoded.TakenAt = r.TakenAt
			if diff := cmp.Diff(r, decoded); diff != "" {
				t.Errorf("report mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmitDefaults(t *testing.T) {
	s := New(&mockConn{})
	if s.Subject() != DefaultSubject {
		t.Errorf("expected default subject, got %s", s.Subject())
	}
}

func TestEmitErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("nil conn", func(t *testing.T) {
		if err := New(nil).Emit(ctx, sampleReport()); !errors.Is(err, ErrNilConn) {
			t.Errorf("expected ErrNilConn, got %v", err)
		}
	})

	t.Run("publish failure", func(t *testing.T) {
		want := errors.New("nats: connection closed")
		s := New(&mockConn{err: want})
		if err := s.Emit(ctx, sampleReport()); !errors.Is(err, want) {
			t.Errorf("expected wrapped publish error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		conn := &mockConn{}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := New(conn).Emit(cctx, sampleReport()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(conn.msgs) != 0 {
			t.Error("expected nothing published")
		}
	})
}

func TestFlushPublishes(t *testing.T) {
	conn := &mockConn{}
	tracker, _ := evtrack.TestTracker(evtrack.WithSinks(New(conn)))

	tracker.Register(&struct{ id int }{}, "update", "handler")
	if _, err := tracker.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if len(conn.msgs) != 1 {
		t.Fatalf("expected 1 published report, got %d", len(conn.msgs))
	}
	r, err := Decode(conn.msgs[0])
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "test-tracker" || r.Handlers() != 1 {
		t.Errorf("unexpected report %+v", r)
	}
}
