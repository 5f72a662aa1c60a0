package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type collectSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *collectSink) Consume(_ context.Context, evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *collectSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *collectSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func validEvent(kind Kind) Event {
	return Event{
		RunID: uuid.New(),
		TS:    time.Now().UTC(),
		Kind:  kind,
		Title: "某政策",
	}
}

func TestHub_DeliversToAllSinks(t *testing.T) {
	t.Parallel()
	a := &collectSink{}
	b := &collectSink{}
	h := NewHub(Config{}, a, b)

	h.Emit(validEvent(KindRunStart))
	h.Emit(validEvent(KindRecordDone))

	require.NoError(t, h.Close(context.Background()))
	require.Len(t, a.snapshot(), 2)
	require.Len(t, b.snapshot(), 2)
	require.True(t, a.closed)
}

func TestHub_DiscardsInvalidEvents(t *testing.T) {
	t.Parallel()
	s := &collectSink{}
	h := NewHub(Config{}, s)

	h.Emit(Event{Kind: KindRunStart}) // missing run id and timestamp
	h.Emit(validEvent(KindRunDone))

	require.NoError(t, h.Close(context.Background()))
	got := s.snapshot()
	require.Len(t, got, 1)
	require.Equal(t, KindRunDone, got[0].Kind)
}

func TestHub_EmitAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()
	s := &collectSink{}
	h := NewHub(Config{}, s)
	require.NoError(t, h.Close(context.Background()))

	h.Emit(validEvent(KindRunStart))
	require.Empty(t, s.snapshot())
}

func TestEvent_Validate(t *testing.T) {
	t.Parallel()

	evt := validEvent(KindRecordDone)
	require.NoError(t, evt.Validate())

	evt.Title = ""
	require.Error(t, evt.Validate())

	evt = validEvent(KindRunStart)
	evt.Kind = "BOGUS"
	require.Error(t, evt.Validate())

	evt = validEvent(KindRunDone)
	evt.Dur = -time.Second
	require.Error(t, evt.Validate())
}
