package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mindscribe/mindscribe/internal/config"
)

// WebsocketEngine streams finalized utterances from a realtime speech
// recognition service over a websocket connection.
type WebsocketEngine struct {
	endpoint string
	apiKey   string
	language string

	mu      sync.Mutex
	conn    *websocket.Conn
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// wire messages

type wsListenRequest struct {
	Type     string `json:"type"`
	Language string `json:"language"`
}

type wsMessage struct {
	Type  string `json:"type"` // "final", "error"
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

func NewWebsocketEngine(cfg config.CaptureConfig) *WebsocketEngine {
	return &WebsocketEngine{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
	}
}

func (e *WebsocketEngine) Name() string { return "websocket" }

func (e *WebsocketEngine) Start(ctx context.Context) (<-chan Result, <-chan error, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil, nil, fmt.Errorf("engine already started")
	}

	engineCtx, cancel := context.WithCancel(ctx)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+e.apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(engineCtx, e.endpoint, headers)
	if err != nil {
		cancel()
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, nil, fmt.Errorf("dial %s: %w", e.endpoint, ErrPermissionDenied)
		}
		return nil, nil, fmt.Errorf("websocket dial: %w", err)
	}

	if err := conn.WriteJSON(wsListenRequest{Type: "listen", Language: e.language}); err != nil {
		conn.Close()
		cancel()
		return nil, nil, fmt.Errorf("send listen request: %w", err)
	}

	e.conn = conn
	e.cancel = cancel
	e.started = true

	resultCh := make(chan Result, 32)
	errCh := make(chan error, 1)

	e.wg.Add(1)
	go e.readLoop(engineCtx, conn, resultCh, errCh)

	log.Printf("capture: websocket engine connected, language=%s", e.language)
	return resultCh, errCh, nil
}

func (e *WebsocketEngine) readLoop(ctx context.Context, conn *websocket.Conn, resultCh chan<- Result, errCh chan<- error) {
	defer func() {
		close(resultCh)
		close(errCh)
		e.mu.Lock()
		e.started = false
		e.mu.Unlock()
		e.wg.Done()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			// abnormal termination: closing the channel lets the adapter restart
			log.Printf("capture: websocket read ended: %v", err)
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("capture: skipping malformed message: %v", err)
			continue
		}

		switch msg.Type {
		case "final":
			select {
			case resultCh <- Result{Text: msg.Text}:
			case <-ctx.Done():
				return
			}
		case "error":
			select {
			case errCh <- fmt.Errorf("recognition service: %s", msg.Error):
			default:
			}
		}
	}
}

func (e *WebsocketEngine) Stop() error {
	e.mu.Lock()
	conn := e.conn
	cancel := e.cancel
	e.conn = nil
	e.cancel = nil
	e.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	return nil
}
