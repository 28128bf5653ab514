package socket

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BobCatC/CodableWebsocket/pkg/pipeline"
	"github.com/BobCatC/CodableWebsocket/pkg/transport"
)

// Send encodes it and writes one frame. Text items go out as text frames,
// raw bytes as binary frames and typed values as binary frames unless
// WithTypedAsText was given.
//
// A typed value that fails to encode is dropped: Send returns an error
// wrapping ErrEncode and the connection stays usable. Transport failures
// wrap ErrSend, and also ErrConnectionClosed once the connection is gone.
// With WithSendRate, Send first waits for the limiter.
func (a *Adapter[T]) Send(ctx context.Context, it Item[T]) error {
	if a.isClosed() {
		return ErrClosed
	}
	f, err := a.encode(it)
	if err != nil {
		return err
	}
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit: %w", ErrSend, err)
		}
	}
	if err := a.binding.Send(ctx, f); err != nil {
		a.metrics.SendFailed()
		a.log.Error("send failed", zap.Stringer("frame", f.Kind), zap.Error(err))
		if code := a.binding.CloseStatus(); code != transport.CloseInvalid {
			return fmt.Errorf("%w: %w", ErrSend, &CloseError{Code: code, Err: err})
		}
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	a.metrics.FrameSent(f.Kind.String())
	return nil
}

// SendText sends s as a text frame.
func (a *Adapter[T]) SendText(ctx context.Context, s string) error {
	return a.Send(ctx, TextItem[T](s))
}

// SendValue encodes v with the adapter codec and sends it.
func (a *Adapter[T]) SendValue(ctx context.Context, v T) error {
	return a.Send(ctx, TypedItem(v))
}

// SendBytes sends b as a binary frame.
func (a *Adapter[T]) SendBytes(ctx context.Context, b []byte) error {
	return a.Send(ctx, RawItem[T](b))
}

func (a *Adapter[T]) encode(it Item[T]) (transport.Frame, error) {
	switch it.Kind() {
	case ItemText:
		s, _ := it.Text()
		return transport.TextFrame(s), nil
	case ItemRaw:
		b, _ := it.Raw()
		return transport.BinaryFrame(b), nil
	case ItemTyped:
		v, _ := it.Typed()
		b, err := a.codec.Marshal(v)
		if err != nil {
			a.metrics.EncodeFailed()
			a.log.Error("dropping value that failed to encode",
				zap.String("codec", a.codec.ContentType()), zap.Error(err))
			return transport.Frame{}, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		if a.typedAsText {
			return transport.TextFrame(string(b)), nil
		}
		return transport.BinaryFrame(b), nil
	default:
		return transport.Frame{}, ErrInvalidItem
	}
}

// OnSubscribe accepts an upstream of outbound items and requests everything.
func (a *Adapter[T]) OnSubscribe(s pipeline.Subscription) {
	a.mu.Lock()
	prev := a.upstream
	a.upstream = s
	a.mu.Unlock()
	if prev != nil {
		a.log.Warn("replacing upstream subscription")
		prev.Cancel()
	}
	if a.isClosed() {
		s.Cancel()
		return
	}
	s.Request(pipeline.Unlimited)
}

// OnNext sends one upstream item using the adapter lifetime context. Errors
// are only visible in logs and metrics.
func (a *Adapter[T]) OnNext(it Item[T]) pipeline.Demand {
	if err := a.Send(a.ctx, it); err != nil {
		a.log.Debug("upstream item not sent", zap.Stringer("item", it.Kind()), zap.Error(err))
	}
	return pipeline.Unlimited
}

// OnComplete records the end of the upstream. The connection stays open.
func (a *Adapter[T]) OnComplete(err error) {
	a.mu.Lock()
	a.upstream = nil
	a.mu.Unlock()
	if err != nil {
		a.log.Warn("upstream completed with error", zap.Error(err))
		return
	}
	a.log.Debug("upstream completed")
}
