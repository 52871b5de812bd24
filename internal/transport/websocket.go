package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/khushisaxena01/boomkart/internal/version"
	"github.com/khushisaxena01/boomkart/pkg/api"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/khushisaxena01/boomkart/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket клиента релея
const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// WSTransport - клиент сервиса рандеву поверх gorilla/websocket.
// Все соединения с пирами мультиплексируются в одно WS-соединение.
type WSTransport struct {
	url    string
	dialer *websocket.Dialer
	log    *logrus.Entry

	mu      sync.Mutex
	conn    *websocket.Conn
	id      string
	links   map[string]*wsLink // по link id
	pending map[string]*wsLink // по ref, ждут open/error

	send     chan api.RelayFrame
	replies  chan api.RelayFrame
	incoming chan Conn
	done     chan struct{}
	stopOnce sync.Once
}

func NewWSTransport(url string) *WSTransport {
	return &WSTransport{
		url:      url,
		dialer:   websocket.DefaultDialer,
		log:      logger.Component("ws_transport"),
		links:    make(map[string]*wsLink),
		pending:  make(map[string]*wsLink),
		send:     make(chan api.RelayFrame, 256),
		replies:  make(chan api.RelayFrame, 4),
		incoming: make(chan Conn, 16),
		done:     make(chan struct{}),
	}
}

func (t *WSTransport) Open(ctx context.Context, id string) (string, error) {
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())
	conn, _, err := t.dialer.DialContext(ctx, t.url, header)
	if err != nil {
		return "", fmt.Errorf("dial relay %s: %w", t.url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	go t.writePump()
	go t.readPump()

	if err := t.enqueue(api.RelayFrame{Kind: api.FrameRegister, ID: id}); err != nil {
		return "", err
	}
	reply, err := t.await(ctx, api.FrameRegistered)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	t.id = reply.ID
	t.mu.Unlock()
	t.log.WithField("id", reply.ID).Info("Registered at relay")
	return reply.ID, nil
}

func (t *WSTransport) Listen(ctx context.Context) error {
	if err := t.enqueue(api.RelayFrame{Kind: api.FrameListen}); err != nil {
		return err
	}
	_, err := t.await(ctx, api.FrameListening)
	return err
}

func (t *WSTransport) Dial(ctx context.Context, peer string) (Conn, error) {
	t.mu.Lock()
	registered := t.id != ""
	t.mu.Unlock()
	if !registered {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	link := newWSLink(t, peer)
	link.ref = utils.GeneratePrefixedID("ref_")

	t.mu.Lock()
	t.pending[link.ref] = link
	t.mu.Unlock()

	if err := t.enqueue(api.RelayFrame{Kind: api.FrameConnect, Peer: peer, Ref: link.ref}); err != nil {
		t.forget(link)
		return nil, err
	}
	return link, nil
}

func (t *WSTransport) Incoming() <-chan Conn {
	return t.incoming
}

func (t *WSTransport) Close() error {
	t.shutdown(nil)
	return nil
}

// await ждет ответа релея на register/listen.
func (t *WSTransport) await(ctx context.Context, want string) (api.RelayFrame, error) {
	select {
	case f := <-t.replies:
		if f.Kind == api.FrameError {
			return f, relayError(f.Error)
		}
		if f.Kind != want {
			return f, fmt.Errorf("relay: unexpected %q, want %q", f.Kind, want)
		}
		return f, nil
	case <-ctx.Done():
		return api.RelayFrame{}, ctx.Err()
	case <-t.done:
		return api.RelayFrame{}, ErrClosed
	}
}

func (t *WSTransport) enqueue(f api.RelayFrame) error {
	select {
	case t.send <- f:
		return nil
	case <-t.done:
		return ErrClosed
	}
}

// readPump разбирает кадры релея и раздает их по линкам.
func (t *WSTransport) readPump() {
	for {
		var f api.RelayFrame
		if err := t.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.log.WithError(err).Warn("Relay connection lost")
			}
			t.shutdown(err)
			return
		}
		t.dispatch(f)
	}
}

func (t *WSTransport) dispatch(f api.RelayFrame) {
	switch f.Kind {
	case api.FrameRegistered, api.FrameListening:
		t.reply(f)

	case api.FrameError:
		if f.Ref == "" {
			t.reply(f)
			return
		}
		t.mu.Lock()
		link, ok := t.pending[f.Ref]
		delete(t.pending, f.Ref)
		t.mu.Unlock()
		if ok {
			link.push(Event{Kind: EventError, Err: relayError(f.Error)})
		}

	case api.FrameOpen:
		t.mu.Lock()
		link, ok := t.pending[f.Ref]
		delete(t.pending, f.Ref)
		if ok {
			link.setID(f.Link)
			t.links[f.Link] = link
		}
		t.mu.Unlock()
		if ok {
			link.push(Event{Kind: EventOpen})
		}

	case api.FrameIncoming:
		link := newWSLink(t, f.Peer)
		link.setID(f.Link)
		t.mu.Lock()
		t.links[f.Link] = link
		t.mu.Unlock()
		select {
		case t.incoming <- link:
			link.push(Event{Kind: EventOpen})
		default:
			t.log.WithField("peer", f.Peer).Warn("Incoming queue full, refusing connection")
			link.Close()
		}

	case api.FrameData:
		t.mu.Lock()
		link, ok := t.links[f.Link]
		t.mu.Unlock()
		if ok {
			link.push(Event{Kind: EventData, Data: []byte(f.Data)})
		}

	case api.FrameClose:
		t.mu.Lock()
		link, ok := t.links[f.Link]
		delete(t.links, f.Link)
		t.mu.Unlock()
		if ok {
			link.finish()
		}

	default:
		t.log.WithField("kind", f.Kind).Debug("Unknown relay frame")
	}
}

func (t *WSTransport) reply(f api.RelayFrame) {
	select {
	case t.replies <- f:
	default:
		t.log.WithField("kind", f.Kind).Warn("Unexpected relay reply dropped")
	}
}

// writePump - единственный писатель в WS-соединение.
func (t *WSTransport) writePump() {
	for {
		select {
		case f := <-t.send:
			if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				t.log.WithError(err).Warn("failed to set write deadline")
			}
			if err := t.conn.WriteJSON(f); err != nil {
				t.log.WithError(err).Debug("write json frame failed")
				t.shutdown(err)
				return
			}
		case <-t.done:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
				t.log.WithError(err).Debug("write close message failed")
			}
			return
		}
	}
}

// shutdown закрывает транспорт один раз. Если причина - сбой сети,
// все линки получают EventError перед закрытием.
func (t *WSTransport) shutdown(cause error) {
	t.stopOnce.Do(func() {
		close(t.done)

		t.mu.Lock()
		var links []*wsLink
		for _, l := range t.links {
			links = append(links, l)
		}
		for _, l := range t.pending {
			links = append(links, l)
		}
		t.links = make(map[string]*wsLink)
		t.pending = make(map[string]*wsLink)
		conn := t.conn
		t.mu.Unlock()

		for _, l := range links {
			if cause != nil {
				l.push(Event{Kind: EventError, Err: fmt.Errorf("relay connection lost: %w", cause)})
			}
			l.finish()
		}

		if conn != nil {
			// writePump отправит close-кадр; readPump выйдет по ошибке чтения
			time.AfterFunc(writeWait, func() { _ = conn.Close() })
			if cause != nil {
				_ = conn.Close()
			}
		}
	})
}

func (t *WSTransport) forget(l *wsLink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l.ref != "" {
		delete(t.pending, l.ref)
	}
	if id := l.linkID(); id != "" {
		delete(t.links, id)
	}
}

func relayError(code string) error {
	switch code {
	case api.RelayErrIDTaken:
		return ErrIDTaken
	case api.RelayErrPeerUnavailable:
		return ErrPeerUnavailable
	}
	return errors.New("relay: " + code)
}

// wsLink - соединение с одним пиром внутри WSTransport.
type wsLink struct {
	t    *WSTransport
	peer string
	ref  string

	mu     sync.Mutex
	id     string
	events chan Event
	done   bool
}

func newWSLink(t *WSTransport, peer string) *wsLink {
	return &wsLink{t: t, peer: peer, events: make(chan Event, 256)}
}

func (l *wsLink) Peer() string         { return l.peer }
func (l *wsLink) Events() <-chan Event { return l.events }

func (l *wsLink) setID(id string) {
	l.mu.Lock()
	l.id = id
	l.mu.Unlock()
}

func (l *wsLink) linkID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.id
}

func (l *wsLink) Send(data []byte) error {
	l.mu.Lock()
	id, done := l.id, l.done
	l.mu.Unlock()
	if done {
		return ErrClosed
	}
	if id == "" {
		return ErrNotOpen
	}
	if !json.Valid(data) {
		return fmt.Errorf("ws transport: payload is not JSON")
	}
	payload := append(json.RawMessage(nil), data...)
	return l.t.enqueue(api.RelayFrame{Kind: api.FrameData, Link: id, Data: payload})
}

func (l *wsLink) Close() error {
	l.mu.Lock()
	id, done := l.id, l.done
	l.mu.Unlock()
	if done {
		return nil
	}
	l.t.forget(l)
	if id != "" {
		if err := l.t.enqueue(api.RelayFrame{Kind: api.FrameClose, Link: id}); err != nil {
			l.t.log.WithError(err).Debug("close frame not sent")
		}
	}
	l.finish()
	return nil
}

func (l *wsLink) push(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	select {
	case l.events <- ev:
	default:
		l.t.log.WithField("peer", l.peer).Warn("Link event buffer full, dropping")
	}
}

func (l *wsLink) finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.done = true
	select {
	case l.events <- Event{Kind: EventClose}:
	default:
	}
	close(l.events)
}
