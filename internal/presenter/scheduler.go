package presenter

import (
	"context"
	"time"
)

// EmitFunc delivers one frame to the client.
type EmitFunc func(Frame) error

// Scheduler plays a timeline through an EmitFunc.
type Scheduler interface {
	Play(ctx context.Context, tl Timeline, emit EmitFunc) error
}

// RealtimeScheduler waits out each frame's delay before emitting it.
type RealtimeScheduler struct{}

func (RealtimeScheduler) Play(ctx context.Context, tl Timeline, emit EmitFunc) error {
	for _, f := range tl {
		if d := f.Delay(); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}

// ImmediateScheduler emits every frame at once and leaves the pacing to
// the client, which can honor DelayMS itself.
type ImmediateScheduler struct{}

func (ImmediateScheduler) Play(ctx context.Context, tl Timeline, emit EmitFunc) error {
	for _, f := range tl {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}
