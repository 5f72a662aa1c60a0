package sinks

import (
	"context"
	"fmt"

	"github.com/mnr-tools/policy-crawler/internal/progress"
)

// CallbackSink forwards the formatted progress line of each event to a
// user-supplied function. The hub delivers events off the crawl loop, so a
// slow callback never stalls the run.
type CallbackSink struct {
	fn func(string)
}

// NewCallbackSink wraps fn; a nil fn yields a sink that ignores all events.
func NewCallbackSink(fn func(string)) *CallbackSink {
	return &CallbackSink{fn: fn}
}

// Consume invokes the callback with the event's message line. A panicking
// callback loses that line but cannot take down the run.
func (s *CallbackSink) Consume(_ context.Context, evt progress.Event) (err error) {
	if s.fn == nil || evt.Message == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("progress callback panic: %v", r)
		}
	}()
	s.fn(evt.Message)
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *CallbackSink) Close(context.Context) error {
	return nil
}
