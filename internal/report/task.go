package report

import (
	"context"

	"github.com/paywall-split/paywall-split/internal/event"
)

// Task is the pending result of one submission.
type Task struct {
	Event event.Event

	done chan struct{}
	err  error
}

func newTask(e event.Event) *Task {
	return &Task{Event: e, done: make(chan struct{})}
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

// Done is closed once the submission has finished, successfully or not.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the submission error. Only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the submission finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
