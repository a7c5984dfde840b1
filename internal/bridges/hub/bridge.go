package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-shades/internal/history"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

const (
	// defaultCommandTimeout bounds a single native send.
	defaultCommandTimeout = 5 * time.Second

	// feedbackTimeout bounds history writes for one feedback message and
	// the audit write for one command.
	feedbackTimeout = 2 * time.Second
)

// Logger is the structured logging interface used by the bridge.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MQTTClient is the MQTT surface the bridge needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// HistoryRecorder persists translated readings. Optional.
type HistoryRecorder interface {
	RecordStateChange(ctx context.Context, shadeID string, reading shade.Reading, native shade.NativeReading, source string) error
}

// Telemetry receives position and command points. Optional.
// Satisfied by *influxdb.Client.
type Telemetry interface {
	WriteShadePosition(shadeID, channel string, percent, native int)
	WriteShadeCommand(shadeID, channel, command string, accepted bool)
}

// CommandAuditor records every handled command with its outcome. Optional.
type CommandAuditor interface {
	RecordCommand(ctx context.Context, msg CommandMessage, ack AckMessage) error
}

// Options holds the dependencies of a Bridge.
type Options struct {
	// HubID names the hub in native and health topics. Required.
	HubID string

	Version string

	// MQTTClient carries normalized commands and state. Required.
	MQTTClient MQTTClient

	// Transport delivers native commands. Defaults to an MQTTTransport on MQTTClient.
	Transport Transport

	// Shades are resolved into actuators when the bridge is created.
	Shades []shade.ActuatorConfig

	// Diagnostics receives registry gaps found during resolution and in feedback.
	Diagnostics shade.DiagnosticSink

	History   HistoryRecorder
	Telemetry Telemetry
	Audit     CommandAuditor
	Logger    Logger

	CommandTimeout time.Duration
	HealthInterval time.Duration
}

// Bridge connects normalized shade commands and state on MQTT to a shade hub
// that speaks native axis values.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	hubID          string
	mqtt           MQTTClient
	transport      Transport
	health         *HealthReporter
	sink           shade.DiagnosticSink
	history        HistoryRecorder
	telemetry      Telemetry
	audit          CommandAuditor
	logger         Logger
	commandTimeout time.Duration

	actuators map[string]shade.Actuator

	// Last translated reading per shade and channel.
	stateCache   map[string]map[shade.Channel]shade.Reading
	stateCacheMu sync.RWMutex

	commandsReceived atomic.Uint64
	commandsSent     atomic.Uint64
	feedbackReceived atomic.Uint64
	errorCount       atomic.Uint64

	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc
}

// NewBridge resolves the configured shades and creates a bridge.
// Call Start to begin operation.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.HubID == "" {
		return nil, fmt.Errorf("hub id is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	transport := opts.Transport
	if transport == nil {
		transport = NewMQTTTransport(opts.MQTTClient, opts.HubID)
	}
	commandTimeout := opts.CommandTimeout
	if commandTimeout <= 0 {
		commandTimeout = defaultCommandTimeout
	}

	actuators := make(map[string]shade.Actuator, len(opts.Shades))
	for _, cfg := range opts.Shades {
		if cfg.ID == "" {
			return nil, fmt.Errorf("shade with empty id")
		}
		if _, dup := actuators[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate shade id %q", cfg.ID)
		}
		actuators[cfg.ID] = shade.ResolveActuator(cfg, opts.Diagnostics)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		hubID:          opts.HubID,
		mqtt:           opts.MQTTClient,
		transport:      transport,
		sink:           opts.Diagnostics,
		history:        opts.History,
		telemetry:      opts.Telemetry,
		audit:          opts.Audit,
		logger:         opts.Logger,
		commandTimeout: commandTimeout,
		actuators:      actuators,
		stateCache:     make(map[string]map[shade.Channel]shade.Reading),
		ctx:            ctx,
		ctxCancel:      cancel,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		HubID:     opts.HubID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		Transport: transport,
		Stats:     b.Stats,
		Logger:    opts.Logger,
	})
	b.health.SetShadeCount(len(actuators))

	return b, nil
}

// Start subscribes to command and feedback topics and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	commandTopic := mqtt.Topics{}.AllShadeCommands()
	if err := b.mqtt.Subscribe(commandTopic, 1, b.handleCommandMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	feedbackTopic := mqtt.Topics{}.AllNativePositions(b.hubID)
	if err := b.mqtt.Subscribe(feedbackTopic, 1, b.handleFeedbackMessage); err != nil {
		return fmt.Errorf("subscribe to feedback: %w", err)
	}
	b.logInfo("subscribed to feedback", "topic", feedbackTopic)

	b.health.Start(ctx)

	b.logInfo("bridge started", "hub_id", b.hubID, "shades", len(b.actuators))
	return nil
}

// Stop unsubscribes, stops health reporting and waits for in-flight messages.
// Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.ctxCancel()

		for _, topic := range []string{
			mqtt.Topics{}.AllShadeCommands(),
			mqtt.Topics{}.AllNativePositions(b.hubID),
		} {
			if err := b.mqtt.Unsubscribe(topic); err != nil {
				b.logWarn("unsubscribe failed", "topic", topic, "error", err)
			}
		}

		b.health.Stop()
		b.wg.Wait()
		b.logInfo("bridge stopped")
	})
}

// Actuator returns the resolved actuator for shadeID.
func (b *Bridge) Actuator(shadeID string) (shade.Actuator, bool) {
	a, ok := b.actuators[shadeID]
	return a, ok
}

// ShadeIDs returns the configured shade IDs, sorted.
func (b *Bridge) ShadeIDs() []string {
	ids := make([]string, 0, len(b.actuators))
	for id := range b.actuators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CurrentState returns the normalized state of shadeID as it would be published.
func (b *Bridge) CurrentState(shadeID string) (StateMessage, bool) {
	act, ok := b.actuators[shadeID]
	if !ok {
		return StateMessage{}, false
	}
	return b.stateMessage(shadeID, act), true
}

// State returns a copy of the cached readings of shadeID.
func (b *Bridge) State(shadeID string) map[shade.Channel]shade.Reading {
	b.stateCacheMu.RLock()
	defer b.stateCacheMu.RUnlock()

	out := make(map[shade.Channel]shade.Reading, len(b.stateCache[shadeID]))
	for ch, r := range b.stateCache[shadeID] {
		out[ch] = r
	}
	return out
}

// Stats returns the traffic counters.
func (b *Bridge) Stats() BridgeStatistics {
	return BridgeStatistics{
		CommandsReceived: b.commandsReceived.Load(),
		CommandsSent:     b.commandsSent.Load(),
		FeedbackReceived: b.feedbackReceived.Load(),
		Errors:           b.errorCount.Load(),
	}
}

// handleCommandMessage is the MQTT handler for graylogic/command/shade/+.
func (b *Bridge) handleCommandMessage(topic string, payload []byte) error {
	b.wg.Add(1)
	defer b.wg.Done()

	shadeID, ok := mqtt.Topics{}.ShadeIDFromCommand(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	b.commandsReceived.Add(1)

	var msg CommandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.errorCount.Add(1)
		b.publishAck(AckMessage{
			Timestamp: time.Now().UTC(),
			ShadeID:   shadeID,
			Status:    AckFailed,
			Error:     &AckError{Code: ErrCodeInvalidCommand, Message: "malformed command payload"},
		})
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	b.publishAck(b.HandleCommand(b.ctx, shadeID, msg))
	return nil
}

// HandleCommand translates msg for shadeID, sends the native command to the
// hub and returns the acknowledgement. Refresh republishes the cached state.
func (b *Bridge) HandleCommand(ctx context.Context, shadeID string, msg CommandMessage) AckMessage {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Channel == "" {
		msg.Channel = shade.ChannelPosition
	}

	ack := b.handleCommand(ctx, shadeID, msg)

	if b.audit != nil {
		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), feedbackTimeout)
		defer cancel()
		if err := b.audit.RecordCommand(auditCtx, msg, ack); err != nil {
			b.logWarn("failed to audit command", "command_id", msg.ID, "shade_id", shadeID, "error", err)
		}
	}
	return ack
}

func (b *Bridge) handleCommand(ctx context.Context, shadeID string, msg CommandMessage) AckMessage {
	ack := AckMessage{
		CommandID: msg.ID,
		Timestamp: time.Now().UTC(),
		ShadeID:   shadeID,
		Channel:   msg.Channel,
	}

	b.logDebug("received command",
		"command_id", msg.ID,
		"shade_id", shadeID,
		"channel", string(msg.Channel),
		"command", string(msg.Command))

	act, ok := b.actuators[shadeID]
	if !ok {
		return b.fail(ack, msg, ErrCodeNotConfigured, fmt.Errorf("%w: %s", ErrShadeNotConfigured, shadeID))
	}

	if msg.Command == shade.CommandRefresh {
		if err := b.publishState(shadeID); err != nil {
			return b.fail(ack, msg, ErrCodeBridgeError, err)
		}
		ack.Status = AckAccepted
		return ack
	}

	cmd := shade.Command{Kind: msg.Command}
	if msg.Command == shade.CommandPercent {
		if msg.Percent == nil {
			return b.fail(ack, msg, ErrCodeInvalidCommand, fmt.Errorf("%w: percent is required", shade.ErrInvalidCommand))
		}
		cmd.Percent = *msg.Percent
	}

	native, err := shade.TranslateCommand(shade.CommandRequest{
		Channel:     msg.Channel,
		Command:     cmd,
		Actuator:    act,
		CurrentMain: b.cachedPosition(shadeID, shade.ChannelPosition),
	})
	if err != nil {
		return b.fail(ack, msg, errorCode(err), err)
	}
	if native.IsNoop() {
		ack.Status = AckIgnored
		return ack
	}

	sendCtx, cancel := context.WithTimeout(ctx, b.commandTimeout)
	defer cancel()
	if err := b.transport.Send(sendCtx, shadeID, msg.ID, native); err != nil {
		return b.fail(ack, msg, ErrCodeDeviceUnreachable, err)
	}

	b.commandsSent.Add(1)
	if b.telemetry != nil {
		b.telemetry.WriteShadeCommand(shadeID, string(msg.Channel), string(msg.Command), true)
	}
	ack.Status = AckAccepted
	ack.Native = &native
	return ack
}

// fail completes ack as failed and records the error.
func (b *Bridge) fail(ack AckMessage, msg CommandMessage, code string, err error) AckMessage {
	b.errorCount.Add(1)
	if b.telemetry != nil {
		b.telemetry.WriteShadeCommand(ack.ShadeID, string(msg.Channel), string(msg.Command), false)
	}
	b.logWarn("command rejected",
		"command_id", ack.CommandID,
		"shade_id", ack.ShadeID,
		"code", code,
		"error", err)

	ack.Status = AckFailed
	ack.Error = &AckError{Code: code, Message: err.Error()}
	return ack
}

// errorCode maps translation errors to acknowledgement codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, shade.ErrOutOfRange):
		return ErrCodeOutOfRange
	case errors.Is(err, shade.ErrUnsupportedChannel):
		return ErrCodeUnsupportedChannel
	case errors.Is(err, shade.ErrUnsupportedForCurrentState):
		return ErrCodeUnsupportedForState
	case errors.Is(err, shade.ErrInvalidCommand):
		return ErrCodeInvalidCommand
	case errors.Is(err, ErrShadeNotConfigured):
		return ErrCodeNotConfigured
	case errors.Is(err, ErrTransportUnavailable):
		return ErrCodeDeviceUnreachable
	default:
		return ErrCodeBridgeError
	}
}

// handleFeedbackMessage is the MQTT handler for graylogic/native/{hub}/+/position.
func (b *Bridge) handleFeedbackMessage(topic string, payload []byte) error {
	b.wg.Add(1)
	defer b.wg.Done()

	shadeID, ok := mqtt.Topics{}.ShadeIDFromNativePosition(b.hubID, topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	b.feedbackReceived.Add(1)

	var msg FeedbackMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.errorCount.Add(1)
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return b.HandleFeedback(b.ctx, shadeID, msg)
}

// HandleFeedback translates a native reading into normalized channel values,
// caches and records the changed ones and republishes the shade state.
//
// Each feedback message is a full snapshot: an axis the hub omits becomes
// undefined.
func (b *Bridge) HandleFeedback(ctx context.Context, shadeID string, msg FeedbackMessage) error {
	act, ok := b.actuators[shadeID]
	if !ok {
		b.errorCount.Add(1)
		return fmt.Errorf("%w: %s", ErrShadeNotConfigured, shadeID)
	}

	keys := make([]string, 0, len(msg.Properties))
	for k := range msg.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		act.CheckObservedProperty(k, msg.Properties[k], b.sink)
	}

	recordCtx, cancel := context.WithTimeout(ctx, feedbackTimeout)
	defer cancel()

	for _, ch := range act.Channels() {
		axis, _ := shade.ChannelAxis(ch)
		native := msg.reading(axis)
		reading := shade.TranslateRefresh(ch, native, act)

		if !b.updateCache(shadeID, reading) {
			continue
		}
		b.record(recordCtx, shadeID, reading, native)
	}

	return b.publishState(shadeID)
}

// record writes a changed reading to history and telemetry.
func (b *Bridge) record(ctx context.Context, shadeID string, r shade.Reading, native shade.NativeReading) {
	if b.history != nil {
		if err := b.history.RecordStateChange(ctx, shadeID, r, native, history.SourceFeedback); err != nil {
			b.logWarn("failed to record shade history", "shade_id", shadeID, "error", err)
		}
	}
	if b.telemetry != nil && native.Present {
		if percent, ok := r.Position.Percent(); ok {
			b.telemetry.WriteShadePosition(shadeID, string(r.Channel), percent, native.Value)
		}
	}
}

// updateCache stores r and reports whether it differs from the cached value.
func (b *Bridge) updateCache(shadeID string, r shade.Reading) bool {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()

	channels, ok := b.stateCache[shadeID]
	if !ok {
		channels = make(map[shade.Channel]shade.Reading)
		b.stateCache[shadeID] = channels
	}
	prev, seen := channels[r.Channel]
	channels[r.Channel] = r
	return !seen || prev != r
}

// cachedPosition returns the last reading of ch, or UnknownPosition.
func (b *Bridge) cachedPosition(shadeID string, ch shade.Channel) shade.Position {
	b.stateCacheMu.RLock()
	defer b.stateCacheMu.RUnlock()
	if r, ok := b.stateCache[shadeID][ch]; ok {
		return r.Position
	}
	return shade.UnknownPosition
}

// stateMessage builds the normalized state of shadeID from the cache.
func (b *Bridge) stateMessage(shadeID string, act shade.Actuator) StateMessage {
	b.stateCacheMu.RLock()
	cached := b.stateCache[shadeID]
	state := make(map[string]any, len(act.Channels()))
	for _, ch := range act.Channels() {
		r, ok := cached[ch]
		state[string(ch)] = stateValue(r, ok)
	}
	b.stateCacheMu.RUnlock()

	return StateMessage{
		ShadeID:   shadeID,
		Timestamp: time.Now().UTC(),
		State:     state,
	}
}

// stateValue renders a reading as JSON: boolean for the state channel,
// integer percent otherwise, nil when undefined.
func stateValue(r shade.Reading, ok bool) any {
	if !ok || !r.Known() {
		return nil
	}
	if r.Channel == shade.ChannelState {
		return r.On
	}
	percent, _ := r.Position.Percent()
	return percent
}

// publishState publishes the retained state of shadeID.
func (b *Bridge) publishState(shadeID string) error {
	act, ok := b.actuators[shadeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrShadeNotConfigured, shadeID)
	}

	payload, err := json.Marshal(b.stateMessage(shadeID, act))
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.ShadeState(shadeID), payload, 1, true); err != nil {
		b.errorCount.Add(1)
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}

// publishAck publishes ack on the shade's ack topic.
func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.Topics{}.ShadeAck(ack.ShadeID), payload, 1, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

func (b *Bridge) logDebug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *Bridge) logInfo(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Bridge) logWarn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if b.logger != nil {
		b.logger.Error(msg, "error", err)
	}
}
