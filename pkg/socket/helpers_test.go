package socket

import (
	"context"
	"sync"

	"github.com/BobCatC/CodableWebsocket/pkg/pipeline"
	"github.com/BobCatC/CodableWebsocket/pkg/transport"
)

type quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// recorder keeps everything a pump delivers.
type recorder[T any] struct {
	mu          sync.Mutex
	sub         pipeline.Subscription
	outcomes    []Outcome[T]
	completions []error
}

func (r *recorder[T]) OnSubscribe(s pipeline.Subscription) {
	r.mu.Lock()
	r.sub = s
	r.mu.Unlock()
	s.Request(pipeline.Unlimited)
}

func (r *recorder[T]) OnNext(o Outcome[T]) pipeline.Demand {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
	return pipeline.Max(1)
}

func (r *recorder[T]) OnComplete(err error) {
	r.mu.Lock()
	r.completions = append(r.completions, err)
	r.mu.Unlock()
}

func (r *recorder[T]) delivered() []Outcome[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome[T](nil), r.outcomes...)
}

func (r *recorder[T]) completed() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.completions...)
}

type step struct {
	frame transport.Frame
	err   error
	code  transport.CloseCode
}

// scripted is a binding that replays receive steps and records sends.
type scripted struct {
	steps chan step

	mu       sync.Mutex
	code     transport.CloseCode
	sent     []transport.Frame
	sendErr  error
	sendCode transport.CloseCode
}

func newScripted(steps ...step) *scripted {
	s := &scripted{steps: make(chan step, len(steps)+8)}
	for _, st := range steps {
		s.steps <- st
	}
	return s
}

func (s *scripted) Kind() transport.Kind { return transport.KindUnknown }

func (s *scripted) Subprotocol() string { return "" }

func (s *scripted) CloseStatus() transport.CloseCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

func (s *scripted) State() transport.State {
	if s.CloseStatus() != transport.CloseInvalid {
		return transport.StateClosed
	}
	return transport.StateOpen
}

func (s *scripted) Send(_ context.Context, f transport.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		if s.sendCode != transport.CloseInvalid {
			s.code = s.sendCode
		}
		return s.sendErr
	}
	s.sent = append(s.sent, f)
	return nil
}

func (s *scripted) Receive(ctx context.Context) (transport.Frame, error) {
	select {
	case st := <-s.steps:
		if st.code != transport.CloseInvalid {
			s.mu.Lock()
			s.code = st.code
			s.mu.Unlock()
		}
		return st.frame, st.err
	case <-ctx.Done():
		return transport.Frame{}, ctx.Err()
	}
}

func (s *scripted) Close(code transport.CloseCode, _ string) error {
	s.mu.Lock()
	if s.code == transport.CloseInvalid {
		s.code = code
	}
	s.mu.Unlock()
	return nil
}

func (s *scripted) frames() []transport.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transport.Frame(nil), s.sent...)
}

// endless is a binding whose peer never stops sending the same text frame.
type endless struct{ text string }

func (e endless) Kind() transport.Kind             { return transport.KindUnknown }
func (e endless) Subprotocol() string              { return "" }
func (e endless) CloseStatus() transport.CloseCode { return transport.CloseInvalid }
func (e endless) State() transport.State           { return transport.StateOpen }

func (e endless) Send(context.Context, transport.Frame) error { return nil }

func (e endless) Receive(ctx context.Context) (transport.Frame, error) {
	if err := ctx.Err(); err != nil {
		return transport.Frame{}, err
	}
	return transport.TextFrame(e.text), nil
}

func (e endless) Close(transport.CloseCode, string) error { return nil }
