package server

import (
	"context"
	"fmt"
	"sync"

	"parques-server/internal/parques"
)

// roomWorker owns one room. Every read and write of the room runs on its
// goroutine, one job at a time, so commands for a room never interleave
// while different rooms progress in parallel.
type roomWorker struct {
	id    int
	room  *parques.Room
	inbox chan func(*parques.Room)
	done  chan struct{}
	once  sync.Once
}

func newRoomWorker(room *parques.Room) *roomWorker {
	w := &roomWorker{
		id:    room.ID,
		room:  room,
		inbox: make(chan func(*parques.Room)),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *roomWorker) run() {
	for {
		select {
		case job := <-w.inbox:
			job(w.room)
		case <-w.done:
			return
		}
	}
}

// do runs fn on the worker and waits for its result. The inbox is unbuffered,
// so once a job is accepted it runs to completion even if ctx ends meanwhile.
func (w *roomWorker) do(ctx context.Context, fn func(*parques.Room) error) error {
	_, err := query(ctx, w, func(r *parques.Room) (struct{}, error) {
		return struct{}{}, fn(r)
	})
	return err
}

// query runs fn on the worker and hands its value back through the result
// channel. When ctx ends first the zero value is returned and whatever fn
// produces later is dropped.
func query[T any](ctx context.Context, w *roomWorker, fn func(*parques.Room) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	results := make(chan result, 1)
	job := func(r *parques.Room) {
		v, err := fn(r)
		results <- result{value: v, err: err}
	}

	var zero T
	select {
	case w.inbox <- job:
	case <-w.done:
		return zero, fmt.Errorf("room %d closed: %w", w.id, parques.ErrRoomNotFound)
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case res := <-results:
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// stop ends the worker. Safe to call from inside a job and more than once.
func (w *roomWorker) stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *roomWorker) stopped() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}
