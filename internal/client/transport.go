// Package client implements the caller-side transport: a persistent
// WebSocket channel with correlation-ID matching and reconnect backoff,
// an HTTP one-shot fallback, and a synchronous inline analysis of last
// resort. Both channels resolve to the same response envelope, so callers
// never need to know which path served them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/GALIB-Dev/AI-Extension/internal/analysis"
	"github.com/GALIB-Dev/AI-Extension/internal/protocol"
)

// State is the persistent channel's connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

const (
	defaultRequestTimeout = 15 * time.Second
	defaultBackoffFloor   = 250 * time.Millisecond
	defaultBackoffCeiling = 4 * time.Second

	// oneShotRetryDelay is the pause before the single one-shot retry
	// that follows a context-invalidated failure.
	oneShotRetryDelay = 200 * time.Millisecond
)

// ErrTransportExhausted is returned when both channels and the inline
// fallback produced nothing useful.
var ErrTransportExhausted = errors.New("analysis service unavailable, please try again")

// Options configures a Transport.
type Options struct {
	// HostURL is the analysis host base URL, e.g. "http://127.0.0.1:8080".
	HostURL string

	RequestTimeout time.Duration
	BackoffFloor   time.Duration
	BackoffCeiling time.Duration

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	Logger     zerolog.Logger
}

// pendingRequest tracks one in-flight request on the persistent channel.
// Exactly one resolution ever occurs: matched response, timeout, or
// disconnect rejection.
type pendingRequest struct {
	correlationID string
	ch            chan *protocol.Response
	timer         *time.Timer
	startedAt     time.Time
}

// Transport is the caller-side channel manager.
type Transport struct {
	opts    Options
	wsURL   string
	httpURL string
	probe   string
	logger  zerolog.Logger

	httpClient *http.Client
	dialer     *websocket.Dialer

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	backoff   time.Duration
	pending   map[string]*pendingRequest
	reconnect *time.Timer
	closed    bool

	writeMu sync.Mutex
}

// New creates a transport. The persistent channel is opened lazily on
// first use.
func New(opts Options) *Transport {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.BackoffFloor <= 0 {
		opts.BackoffFloor = defaultBackoffFloor
	}
	if opts.BackoffCeiling <= 0 {
		opts.BackoffCeiling = defaultBackoffCeiling
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.RequestTimeout}
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	}

	wsBase := strings.Replace(opts.HostURL, "http", "ws", 1)

	return &Transport{
		opts:       opts,
		wsURL:      wsBase + "/ws/explain",
		httpURL:    opts.HostURL + "/api/v1/explain",
		probe:      opts.HostURL + "/health",
		logger:     opts.Logger,
		httpClient: httpClient,
		dialer:     dialer,
		state:      StateDisconnected,
		backoff:    opts.BackoffFloor,
		pending:    make(map[string]*pendingRequest),
	}
}

// State reports the persistent channel state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Explain requests an analysis, preferring the persistent channel and
// degrading through the one-shot channel down to the inline scan.
func (t *Transport) Explain(ctx context.Context, text, pageContext string, opts analysis.Options) (*protocol.Response, error) {
	req := &protocol.Request{
		Type: protocol.MsgExplainText,
		Payload: protocol.ExplainPayload{
			Text:        text,
			PageContext: pageContext,
			Options:     opts,
		},
		CorrelationID: uuid.New().String(),
	}

	if resp, err := t.sendPersistent(ctx, req); err == nil {
		return resp, nil
	} else {
		t.logger.Debug().Err(err).Msg("Persistent channel failed, falling back to one-shot")
	}

	if resp, err := t.sendOneShot(ctx, req); err == nil {
		return resp, nil
	} else {
		t.logger.Warn().Err(err).Msg("One-shot channel failed, falling back to inline analysis")
	}

	if resp := inlineScan(text, req.CorrelationID); resp != nil {
		return resp, nil
	}
	return nil, ErrTransportExhausted
}

// Persistent channel path.

func (t *Transport) sendPersistent(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if err := t.ensureConnected(); err != nil {
		return nil, err
	}

	pending := &pendingRequest{
		correlationID: req.CorrelationID,
		ch:            make(chan *protocol.Response, 1),
		startedAt:     time.Now(),
	}
	pending.timer = time.AfterFunc(t.opts.RequestTimeout, func() {
		t.rejectPending(req.CorrelationID)
	})

	t.mu.Lock()
	conn := t.conn
	if conn == nil {
		t.mu.Unlock()
		pending.timer.Stop()
		return nil, errors.New("persistent channel not connected")
	}
	t.pending[req.CorrelationID] = pending
	t.mu.Unlock()

	t.writeMu.Lock()
	err := conn.WriteJSON(req)
	t.writeMu.Unlock()
	if err != nil {
		t.removePending(req.CorrelationID)
		t.handleDisconnect(err)
		return nil, fmt.Errorf("persistent channel send failed: %w", err)
	}

	select {
	case resp := <-pending.ch:
		if resp == nil {
			return nil, errors.New("request rejected: timeout or disconnect")
		}
		return resp, nil
	case <-ctx.Done():
		t.removePending(req.CorrelationID)
		return nil, ctx.Err()
	}
}

// ensureConnected opens the persistent channel if it is down and no
// reconnect is already pending.
func (t *Transport) ensureConnected() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errors.New("transport closed")
	}
	if t.state == StateConnected {
		t.mu.Unlock()
		return nil
	}
	if t.state == StateConnecting {
		t.mu.Unlock()
		return errors.New("persistent channel still connecting")
	}
	t.state = StateConnecting
	t.mu.Unlock()

	conn, resp, err := t.dialer.Dial(t.wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.mu.Lock()
	if err != nil {
		t.state = StateDisconnected
		t.scheduleReconnectLocked()
		t.bumpBackoffLocked()
		t.mu.Unlock()
		return fmt.Errorf("persistent channel dial failed: %w", err)
	}

	t.conn = conn
	t.state = StateConnected
	t.backoff = t.opts.BackoffFloor
	t.mu.Unlock()

	t.logger.Debug().Str("url", t.wsURL).Msg("Persistent channel connected")
	go t.readLoop(conn)
	return nil
}

// readLoop matches incoming responses to pending requests by correlation
// ID. Unmatched or already-resolved IDs are dropped.
func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		var resp protocol.Response
		if err := conn.ReadJSON(&resp); err != nil {
			t.handleDisconnect(err)
			return
		}

		pending := t.removePending(resp.CorrelationID)
		if pending == nil {
			t.logger.Debug().Str("correlation_id", resp.CorrelationID).Msg("Dropping unmatched response")
			continue
		}
		pending.timer.Stop()
		pending.ch <- &resp
	}
}

// handleDisconnect rejects every pending request, clears the channel
// handle, doubles the backoff, and schedules a reconnect.
func (t *Transport) handleDisconnect(cause error) {
	t.mu.Lock()
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	if t.state == StateDisconnected {
		t.mu.Unlock()
		return
	}
	t.state = StateDisconnected

	rejected := t.pending
	t.pending = make(map[string]*pendingRequest)

	delay := t.backoff
	t.scheduleReconnectLocked()
	t.bumpBackoffLocked()
	t.mu.Unlock()

	for _, p := range rejected {
		p.timer.Stop()
		p.ch <- nil
	}

	t.logger.Debug().Err(cause).Dur("backoff", delay).Int("rejected", len(rejected)).Msg("Persistent channel disconnected")
}

// bumpBackoffLocked doubles the backoff up to the ceiling. Caller holds
// t.mu.
func (t *Transport) bumpBackoffLocked() {
	t.backoff *= 2
	if t.backoff > t.opts.BackoffCeiling {
		t.backoff = t.opts.BackoffCeiling
	}
}

// scheduleReconnectLocked arms the reconnect timer. Caller holds t.mu.
func (t *Transport) scheduleReconnectLocked() {
	if t.closed || t.reconnect != nil {
		return
	}
	t.reconnect = time.AfterFunc(t.backoff, func() {
		t.mu.Lock()
		t.reconnect = nil
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return
		}
		if err := t.ensureConnected(); err != nil {
			t.logger.Debug().Err(err).Msg("Reconnect attempt failed")
		}
	})
}

func (t *Transport) removePending(correlationID string) *pendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[correlationID]
	if !ok {
		return nil
	}
	delete(t.pending, correlationID)
	return p
}

// rejectPending resolves a request with a timeout rejection.
func (t *Transport) rejectPending(correlationID string) {
	p := t.removePending(correlationID)
	if p == nil {
		return
	}
	t.logger.Debug().Str("correlation_id", correlationID).Dur("waited", time.Since(p.startedAt)).Msg("Request timed out")
	p.ch <- nil
}

// One-shot channel path.

// sendOneShot posts the envelope to the one-shot endpoint. A
// context-invalidated condition on the first attempt triggers a liveness
// probe and exactly one retry; a second failure surfaces as a transport
// error.
func (t *Transport) sendOneShot(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	resp, err := t.postEnvelope(ctx, req)
	if err == nil {
		return resp, nil
	}

	if !isContextInvalidated(err) {
		return nil, err
	}

	t.logger.Debug().Err(err).Msg("One-shot link invalidated, probing host before retry")
	if probeErr := t.probeHost(ctx); probeErr != nil {
		return nil, fmt.Errorf("host liveness probe failed: %w", probeErr)
	}

	select {
	case <-time.After(oneShotRetryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return t.postEnvelope(ctx, req)
}

func (t *Transport) postEnvelope(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.httpURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("one-shot send failed: %w", err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read one-shot response: %w", err)
	}

	var resp protocol.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("malformed one-shot response: %w", err)
	}
	return &resp, nil
}

func (t *Transport) probeHost(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.probe, nil)
	if err != nil {
		return err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("host unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// isContextInvalidated detects the host-teardown condition that warrants
// the single probe-and-retry.
func isContextInvalidated(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "context invalidated")
}

// Close shuts the transport down and rejects anything still pending.
func (t *Transport) Close() {
	t.mu.Lock()
	t.closed = true
	if t.reconnect != nil {
		t.reconnect.Stop()
		t.reconnect = nil
	}
	conn := t.conn
	t.conn = nil
	t.state = StateDisconnected
	rejected := t.pending
	t.pending = make(map[string]*pendingRequest)
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	for _, p := range rejected {
		p.timer.Stop()
		p.ch <- nil
	}
}
