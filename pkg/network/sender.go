package network

// Sender posts events into a connection's input stream. It is a value
// type; copying it yields another handle onto the same stream, which
// is how delegated goroutines keep a reference that outlives the
// Handler call that spawned them.
type Sender struct {
	events chan<- Event
	done   <-chan struct{}
}

// post delivers an event unless the connection has been torn down.
func (s Sender) post(event Event) error {
	select {
	case s.events <- event:
		return nil
	case <-s.done:
		return ErrConnectionClosed
	}
}

// ResponseComplete reinjects the result of a delegated computation.
func (s Sender) ResponseComplete(result ResponseResult) error {
	return s.post(ResponseComplete{Result: result})
}

// Internal posts an application-defined event for the Handler.
func (s Sender) Internal(value any) error {
	return s.post(InternalEvent{Value: value})
}

// Close asks the connection to shut down through the ordinary event
// path.
func (s Sender) Close() error {
	return s.post(CloseRequest{})
}
