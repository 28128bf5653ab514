package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "codablews"

// Metrics counts adapter traffic. A nil *Metrics is valid and records nothing.
type Metrics struct {
	FramesReceived  *prometheus.CounterVec
	FramesSent      *prometheus.CounterVec
	DecodeFallbacks *prometheus.CounterVec
	EncodeFailures  prometheus.Counter
	SendFailures    prometheus.Counter
	ReceiveFailures prometheus.Counter
	Subscriptions   prometheus.Gauge
}

// NewMetrics creates the adapter collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Frames received from the socket by kind.",
		}, []string{"kind"}),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Frames written to the socket by kind.",
		}, []string{"kind"}),
		DecodeFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_fallbacks_total",
			Help:      "Frames delivered as text or raw bytes because decoding failed.",
		}, []string{"kind"}),
		EncodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encode_failures_total",
			Help:      "Typed values dropped because they failed to encode.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Frames the transport failed to send.",
		}),
		ReceiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receive_failures_total",
			Help:      "Failed receive calls.",
		}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscriptions",
			Help:      "Decoding pumps currently delivering.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.FramesReceived, m.FramesSent, m.DecodeFallbacks,
		m.EncodeFailures, m.SendFailures, m.ReceiveFailures, m.Subscriptions,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) FrameReceived(kind string) {
	if m != nil {
		m.FramesReceived.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) FrameSent(kind string) {
	if m != nil {
		m.FramesSent.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) DecodeFallback(kind string) {
	if m != nil {
		m.DecodeFallbacks.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) EncodeFailed() {
	if m != nil {
		m.EncodeFailures.Inc()
	}
}

func (m *Metrics) SendFailed() {
	if m != nil {
		m.SendFailures.Inc()
	}
}

func (m *Metrics) ReceiveFailed() {
	if m != nil {
		m.ReceiveFailures.Inc()
	}
}

func (m *Metrics) SubscriptionStarted() {
	if m != nil {
		m.Subscriptions.Inc()
	}
}

func (m *Metrics) SubscriptionEnded() {
	if m != nil {
		m.Subscriptions.Dec()
	}
}
