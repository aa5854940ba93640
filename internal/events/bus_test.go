package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
)

func newTestBus(size int) *Bus {
	return NewBus(size, logger.New(logger.Config{Level: "disabled"}))
}

func waitFor(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBus_EmitDeliversToSubscribers(t *testing.T) {
	bus := newTestBus(8)
	defer bus.Close()

	got := make(chan Event, 1)
	bus.On(ComplianceValidated, func(ev Event) { got <- ev })

	bus.Emit(ComplianceValidated, ValidatedPayload{DocumentID: "doc-1", Score: 0.5})

	ev := waitFor(t, got)
	assert.Equal(t, ComplianceValidated, ev.Name)
	payload, ok := ev.Payload.(ValidatedPayload)
	require.True(t, ok)
	assert.Equal(t, "doc-1", payload.DocumentID)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestBus_OtherNamesNotDelivered(t *testing.T) {
	bus := newTestBus(8)

	var calls int32
	bus.On(DocumentSaved, func(Event) { atomic.AddInt32(&calls, 1) })
	bus.Emit(CompliancePredicted, nil)
	bus.Close()

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestBus_WildcardReceivesEverything(t *testing.T) {
	bus := newTestBus(8)
	defer bus.Close()

	got := make(chan Event, 2)
	bus.On(Wildcard, func(ev Event) { got <- ev })

	bus.Emit(ComplianceValidated, nil)
	bus.Emit(CompliancePredicted, nil)

	assert.Equal(t, ComplianceValidated, waitFor(t, got).Name)
	assert.Equal(t, CompliancePredicted, waitFor(t, got).Name)
}

func TestBus_OffStopsDelivery(t *testing.T) {
	bus := newTestBus(8)
	defer bus.Close()

	var calls int32
	sub := bus.On(DocumentSaved, func(Event) { atomic.AddInt32(&calls, 1) })
	require.Equal(t, 1, bus.Count(DocumentSaved))

	bus.Off(sub)
	<-sub.Done()
	assert.Equal(t, 0, bus.Count(DocumentSaved))

	bus.Emit(DocumentSaved, nil)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	// Removing twice is a no-op
	bus.Off(sub)
	bus.Off(nil)
}

func TestBus_EmitNeverBlocks(t *testing.T) {
	bus := newTestBus(1)

	release := make(chan struct{})
	var calls int32
	bus.On(DocumentSaved, func(Event) {
		<-release
		atomic.AddInt32(&calls, 1)
	})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			bus.Emit(DocumentSaved, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow subscriber")
	}

	close(release)
	bus.Close()

	n := atomic.LoadInt32(&calls)
	assert.GreaterOrEqual(t, n, int32(1))
	assert.Less(t, n, int32(50))
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	bus := newTestBus(8)
	defer bus.Close()

	got := make(chan Event, 2)
	bus.On(DocumentSaved, func(ev Event) {
		if ev.Payload == "boom" {
			panic("handler failure")
		}
		got <- ev
	})

	bus.Emit(DocumentSaved, "boom")
	bus.Emit(DocumentSaved, "ok")

	assert.Equal(t, "ok", waitFor(t, got).Payload)
}

func TestBus_CloseIsIdempotent(t *testing.T) {
	bus := newTestBus(8)

	var wg sync.WaitGroup
	wg.Add(1)
	bus.On(DocumentSaved, func(Event) { wg.Done() })
	bus.Emit(DocumentSaved, nil)
	wg.Wait()

	bus.Close()
	bus.Close()

	sub := bus.On(DocumentSaved, func(Event) {})
	<-sub.Done()
	bus.Emit(DocumentSaved, nil)
	assert.Equal(t, 0, bus.Count(DocumentSaved))
}
