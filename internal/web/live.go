package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"token-audit/internal/audit"
	"token-audit/internal/domain"
	"token-audit/internal/observability"
	"token-audit/internal/query"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event types streamed on /ws/audit.
const (
	EventScan         = "scan"
	EventState        = "state"
	EventNotification = "notification"
	EventDone         = "done"
)

// Event is one message of the live audit stream.
type Event struct {
	Type         string              `json:"type"`
	Kind         query.Kind          `json:"kind,omitempty"`
	Status       query.Status        `json:"status,omitempty"`
	Fields       map[string]string   `json:"fields,omitempty"`
	Notification *query.Notification `json:"notification,omitempty"`
	Empty        bool                `json:"empty,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// liveSession serializes writes to one websocket connection.
type liveSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *liveSession) send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(ev)
}

func (s *liveSession) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (s *liveSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// readPump drains the connection so control frames are processed and
// cancels the session once the client goes away.
func (s *liveSession) readPump(cancel context.CancelFunc) {
	defer cancel()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *liveSession) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ping(); err != nil {
				return
			}
		}
	}
}

// handleLive streams the audit of one contract: the scan outcome, every
// fetch transition with the fields it fills in, notifications, then done.
// Closing the connection abandons the fetches.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := h.resolve(domain.ChainID(q.Get("chain")), q.Get("address"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	observability.LiveSessionOpened()
	defer observability.LiveSessionClosed()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := &liveSession{conn: conn}
	go s.readPump(cancel)
	go s.pingLoop(ctx)

	if err := h.stream(ctx, s, t); err != nil && ctx.Err() == nil {
		h.logger.Printf("live audit %s on %s: %v", t.address, t.chainID, err)
	}
	s.close()
}

func (h *Handler) stream(ctx context.Context, s *liveSession, t target) error {
	scan, err := h.loader.Scan(ctx, t.chainID, t.address)
	if err != nil {
		n := query.NotificationFor(err)
		if err := s.send(Event{Type: EventNotification, Kind: query.KindScan, Notification: &n}); err != nil {
			return err
		}
		return s.send(Event{Type: EventDone})
	}

	view := audit.Build(audit.Input{ChainID: t.chainID, Chain: t.info, Address: t.address, Scan: scan})
	if err := s.send(Event{Type: EventScan, Empty: view.Empty, Message: view.EmptyMessage}); err != nil {
		return err
	}

	run := h.loader.Start(ctx, t.request(scan), func(u query.Update) {
		ev := Event{Type: EventState, Kind: u.Kind, Status: u.Status}
		if u.Status.Done() {
			ev.Fields = fieldsFor(t, scan, u)
		}
		if err := s.send(ev); err != nil {
			return
		}
		if u.Notification != nil {
			s.send(Event{Type: EventNotification, Kind: u.Kind, Notification: u.Notification})
		}
	})

	select {
	case <-run.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	snap := run.Snapshot()
	final := audit.Build(audit.Input{ChainID: t.chainID, Chain: t.info, Address: t.address, Scan: scan, Snapshot: snap})
	observability.RecordAudit(string(t.chainID), t.address, outcome(final))

	return s.send(Event{Type: EventDone})
}

// fieldsFor renders the fields a finished fetch fills in.
func fieldsFor(t target, scan *domain.ScanResult, u query.Update) map[string]string {
	var snap query.Snapshot
	switch u.Kind {
	case query.KindInfo:
		snap.Info = query.Result[domain.TokenInfoResponse]{Status: u.Status, Data: u.Info}
	case query.KindToken:
		snap.Token = query.Result[domain.TokenResponse]{Status: u.Status, Data: u.Token}
	}
	v := audit.Build(audit.Input{ChainID: t.chainID, Chain: t.info, Address: t.address, Scan: scan, Snapshot: snap})
	return v.Fields(u.Kind)
}
