package llm

import "context"

// Stream delivers answer fragments as they are produced. The fragment
// channel closes at end of stream; Err is valid once the channel is closed
// and reports a backend failure that ended the stream early, if any.
type Stream struct {
	fragments chan string
	err       error
}

func newStream() *Stream {
	return &Stream{fragments: make(chan string, 16)}
}

// Fragments returns the channel of answer fragments in generation order.
func (s *Stream) Fragments() <-chan string {
	return s.fragments
}

// Err reports the failure that terminated the stream, or nil for a clean
// end. Only valid after Fragments is closed.
func (s *Stream) Err() error {
	return s.err
}

func (s *Stream) send(ctx context.Context, fragment string) error {
	select {
	case s.fragments <- fragment:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail must be called before finish.
func (s *Stream) fail(err error) {
	s.err = err
}

func (s *Stream) finish() {
	close(s.fragments)
}
