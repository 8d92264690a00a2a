// Package notify publishes installer status and progress to the
// control server over a websocket. Delivery is best-effort: the
// orchestrator never waits for, or fails on, an unreachable server.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/balsa-asanovic/agama/internal/logging"
	"github.com/balsa-asanovic/agama/internal/progress"
)

var log = logging.L("notify")

const (
	dialTimeout = 5 * time.Second
	writeWait   = 10 * time.Second
)

// ErrTransport marks failures to reach the control server. Callers
// are expected to treat it as non-fatal.
var ErrTransport = errors.New("notification transport unavailable")

// Message is the wire format sent to the control server.
type Message struct {
	Type      string          `json:"type"` // "status" or "progress"
	RunID     string          `json:"runId"`
	Status    string          `json:"status,omitempty"`
	Progress  *progress.Event `json:"progress,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Config holds the control server endpoint.
type Config struct {
	ServerURL string
	AuthToken string
}

// Publisher sends messages for one installation run. The connection is
// dialed lazily and re-dialed after failures.
type Publisher struct {
	config Config
	runID  string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewPublisher creates a Publisher with a fresh run id.
func NewPublisher(cfg Config) *Publisher {
	return &Publisher{config: cfg, runID: uuid.NewString()}
}

// RunID identifies this installation run on the server.
func (p *Publisher) RunID() string {
	return p.runID
}

// PublishStatus sends a status change. Returns ErrTransport when the
// server cannot be reached.
func (p *Publisher) PublishStatus(status string) error {
	return p.send(Message{
		Type:      "status",
		RunID:     p.runID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
}

// PublishProgress sends a progress event.
func (p *Publisher) PublishProgress(event progress.Event) error {
	return p.send(Message{
		Type:      "progress",
		RunID:     p.runID,
		Progress:  &event,
		Timestamp: time.Now().UTC(),
	})
}

// ProgressCallback adapts the publisher to the progress.Callback
// contract; transport errors are logged and dropped.
func (p *Publisher) ProgressCallback() progress.Callback {
	return func(event progress.Event) {
		if err := p.PublishProgress(event); err != nil {
			log.Debug("dropping progress event", "error", err)
		}
	}
}

// Close shuts the connection down.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) send(msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnLocked(); err != nil {
		return err
	}

	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		// Drop the broken connection; the next publish re-dials.
		p.conn.Close()
		p.conn = nil
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

func (p *Publisher) ensureConnLocked() error {
	if p.conn != nil {
		return nil
	}
	if p.config.ServerURL == "" {
		return fmt.Errorf("%w: no server configured", ErrTransport)
	}

	wsURL, err := p.buildWSURL()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	p.conn = conn
	log.Info("connected", "server", p.config.ServerURL, "runId", p.runID)
	return nil
}

func (p *Publisher) buildWSURL() (string, error) {
	serverURL, err := url.Parse(p.config.ServerURL)
	if err != nil {
		return "", err
	}

	switch serverURL.Scheme {
	case "https":
		serverURL.Scheme = "wss"
	case "http":
		serverURL.Scheme = "ws"
	}

	serverURL.Path = fmt.Sprintf("/api/v1/installer/%s/ws", p.runID)
	if p.config.AuthToken != "" {
		q := serverURL.Query()
		q.Set("token", p.config.AuthToken)
		serverURL.RawQuery = q.Encode()
	}

	return serverURL.String(), nil
}
