package events

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestBus_PublishFansOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(zap.NewNop())
	var count atomic.Int32
	var got atomic.Value

	bus.Subscribe(UserRegistered, func(_ context.Context, p any) {
		got.Store(p.(UserRegisteredEvent).Email)
		count.Add(1)
	})
	bus.Subscribe(UserRegistered, func(context.Context, any) { count.Add(1) })
	bus.Subscribe(ResultRecorded, func(context.Context, any) { count.Add(100) })

	bus.Publish(UserRegistered, UserRegisteredEvent{UserID: 1, Email: "ana@example.com"})
	bus.Wait()

	assert.Equal(t, int32(2), count.Load())
	assert.Equal(t, "ana@example.com", got.Load())
	bus.Close()
}

func TestBus_RecoversPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(zap.NewNop())
	var ran atomic.Bool
	bus.Subscribe(ResultRecorded, func(context.Context, any) { panic("boom") })
	bus.Subscribe(ResultRecorded, func(context.Context, any) { ran.Store(true) })

	bus.Publish(ResultRecorded, ResultRecordedEvent{})
	bus.Close()

	assert.True(t, ran.Load())
}

func TestBus_DropsAfterClose(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var ran atomic.Bool
	bus.Subscribe(ResultRecorded, func(context.Context, any) { ran.Store(true) })

	bus.Close()
	bus.Publish(ResultRecorded, nil)
	bus.Wait()

	assert.False(t, ran.Load())
}

func TestBus_NilIsNoop(t *testing.T) {
	var bus *Bus
	bus.Publish(UserRegistered, nil)
}
