package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu           sync.Mutex
	published    []mockPublish
	handlers     map[string]mqtt.MessageHandler
	unsubscribed []string
	connected    bool
	publishErr   error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected: true,
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, mockPublish{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, topic)
	m.unsubscribed = append(m.unsubscribed, topic)
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) setConnected(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = v
}

// Simulate delivers payload on topic through the handler subscribed to pattern.
func (m *MockMQTTClient) Simulate(t *testing.T, pattern, topic string, payload []byte) error {
	t.Helper()
	m.mu.Lock()
	handler, ok := m.handlers[pattern]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no handler subscribed to %q", pattern)
	}
	return handler(topic, payload)
}

// PublishedTo returns the messages published on topic, oldest first.
func (m *MockMQTTClient) PublishedTo(topic string) []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockPublish
	for _, p := range m.published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// MockTransport implements Transport for testing.
type MockTransport struct {
	mu        sync.Mutex
	sent      []sentCommand
	connected bool
	sendErr   error
}

type sentCommand struct {
	ShadeID   string
	CommandID string
	Command   shade.NativeCommand
}

func NewMockTransport() *MockTransport {
	return &MockTransport{connected: true}
}

func (m *MockTransport) Send(_ context.Context, shadeID, commandID string, cmd shade.NativeCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentCommand{ShadeID: shadeID, CommandID: commandID, Command: cmd})
	return nil
}

func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockTransport) Sent() []sentCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentCommand(nil), m.sent...)
}

// mockHistory implements HistoryRecorder.
type mockHistory struct {
	mu      sync.Mutex
	records []historyRecord
}

type historyRecord struct {
	ShadeID string
	Reading shade.Reading
	Native  shade.NativeReading
	Source  string
}

func (m *mockHistory) RecordStateChange(_ context.Context, shadeID string, r shade.Reading, native shade.NativeReading, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, historyRecord{ShadeID: shadeID, Reading: r, Native: native, Source: source})
	return nil
}

func (m *mockHistory) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// mockTelemetry implements Telemetry.
type mockTelemetry struct {
	mu        sync.Mutex
	positions []string
	commands  map[bool]int
}

func newMockTelemetry() *mockTelemetry {
	return &mockTelemetry{commands: make(map[bool]int)}
}

func (m *mockTelemetry) WriteShadePosition(shadeID, channel string, _, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = append(m.positions, shadeID+"/"+channel)
}

func (m *mockTelemetry) WriteShadeCommand(_, _, _ string, accepted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[accepted]++
}

// recordingSink collects diagnostics.
type recordingSink struct {
	mu    sync.Mutex
	diags []shade.Diagnostic
}

func (s *recordingSink) Report(d shade.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = append(s.diags, d)
}

func (s *recordingSink) kinds() []shade.DiagnosticKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shade.DiagnosticKind, 0, len(s.diags))
	for _, d := range s.diags {
		out = append(out, d.Kind)
	}
	return out
}

// decode unmarshals a published payload.
func decode[T any](t *testing.T, payload []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", payload, err)
	}
	return v
}

func intp(v int) *int { return &v }

// mockAuditor implements CommandAuditor.
type mockAuditor struct {
	mu   sync.Mutex
	acks []AckMessage
	msgs []CommandMessage
	err  error
}

func (m *mockAuditor) RecordCommand(_ context.Context, msg CommandMessage, ack AckMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	m.acks = append(m.acks, ack)
	return m.err
}
