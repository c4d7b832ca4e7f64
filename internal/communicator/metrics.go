package communicator

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "distobj"

// metrics 管道层指标
//
// 每个 Manager 一份；启用时注册到自己的 Registry，不污染全局默认注册表。
type metrics struct {
	registry *prometheus.Registry

	pipesActive      prometheus.Gauge
	bytesSent        prometheus.Counter
	bytesReceived    prometheus.Counter
	messagesSent     prometheus.Counter
	messagesReceived prometheus.Counter
	sendFailures     prometheus.Counter
	closeFailures    prometheus.Counter
	decodeFailures   prometheus.Counter
	observerPanics   prometheus.Counter
	peerConnections  prometheus.Gauge
}

func newMetrics(enabled bool) *metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipe",
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipe",
			Name:      name,
			Help:      help,
		})
	}

	m := &metrics{
		pipesActive:      gauge("active", "Number of started pipes."),
		bytesSent:        counter("sent_bytes_total", "Payload bytes accepted by the transport."),
		bytesReceived:    counter("received_bytes_total", "Payload bytes delivered to observers."),
		messagesSent:     counter("sent_messages_total", "Messages accepted by the transport."),
		messagesReceived: counter("received_messages_total", "Messages decoded from peers."),
		sendFailures:     counter("send_failures_total", "SendData calls that failed in the transport."),
		closeFailures:    counter("close_failures_total", "Transport errors swallowed while stopping a pipe."),
		decodeFailures:   counter("decode_failures_total", "Received buffers that could not be decoded."),
		observerPanics:   counter("observer_panics_total", "Panics recovered from data change observers."),
		peerConnections:  gauge("peer_connections", "Open peer sessions across all pipes."),
	}

	if enabled {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			m.pipesActive,
			m.bytesSent,
			m.bytesReceived,
			m.messagesSent,
			m.messagesReceived,
			m.sendFailures,
			m.closeFailures,
			m.decodeFailures,
			m.observerPanics,
			m.peerConnections,
		)
	}
	return m
}
