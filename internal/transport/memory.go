package transport

import (
	"context"
	"sync"

	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/khushisaxena01/boomkart/pkg/utils"
)

const memBuffer = 256

// Broker - сервис рандеву внутри процесса. Используется в тестах
// и в локальном режиме клиента.
type Broker struct {
	mu    sync.Mutex
	peers map[string]*MemoryTransport
}

func NewBroker() *Broker {
	return &Broker{peers: make(map[string]*MemoryTransport)}
}

// Transport создает нового, еще не зарегистрированного клиента брокера.
func (b *Broker) Transport() *MemoryTransport {
	return &MemoryTransport{
		broker:   b,
		incoming: make(chan Conn, 16),
	}
}

// MemoryTransport - клиент Broker.
type MemoryTransport struct {
	broker *Broker

	mu        sync.Mutex
	id        string
	listening bool
	closed    bool
	incoming  chan Conn
	conns     []*memConn
}

func (t *MemoryTransport) Open(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		id = utils.GeneratePrefixedID("peer_")
	}

	t.broker.mu.Lock()
	defer t.broker.mu.Unlock()
	if _, taken := t.broker.peers[id]; taken {
		return "", ErrIDTaken
	}
	t.broker.peers[id] = t

	t.mu.Lock()
	t.id = id
	t.mu.Unlock()
	return id, nil
}

func (t *MemoryTransport) Listen(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.id == "" || t.closed {
		return ErrNotOpen
	}
	t.listening = true
	return ctx.Err()
}

func (t *MemoryTransport) Dial(ctx context.Context, peer string) (Conn, error) {
	t.mu.Lock()
	self := t.id
	t.mu.Unlock()
	if self == "" {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	local := newMemConn(peer)
	t.track(local)

	t.broker.mu.Lock()
	target, ok := t.broker.peers[peer]
	t.broker.mu.Unlock()

	// 1. Неизвестный id: соединение навсегда остается в connecting
	if !ok {
		logger.Log.WithField("peer", peer).Debug("memory transport: dial to unknown peer")
		return local, nil
	}

	// 2. Пир есть, но не принимает соединения
	if !target.accepts() {
		local.push(Event{Kind: EventError, Err: ErrPeerUnavailable})
		return local, nil
	}

	// 3. Соединяем пару концов
	remote := newMemConn(self)
	local.remote, remote.remote = remote, local
	target.track(remote)

	select {
	case target.incoming <- remote:
	default:
		local.push(Event{Kind: EventError, Err: ErrPeerUnavailable})
		return local, nil
	}
	remote.push(Event{Kind: EventOpen})
	local.push(Event{Kind: EventOpen})
	return local, nil
}

func (t *MemoryTransport) Incoming() <-chan Conn {
	return t.incoming
}

// Close снимает регистрацию и закрывает все соединения клиента.
func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	id := t.id
	conns := t.conns
	t.conns = nil
	t.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	if id != "" {
		t.broker.mu.Lock()
		if t.broker.peers[id] == t {
			delete(t.broker.peers, id)
		}
		t.broker.mu.Unlock()
	}
	return nil
}

func (t *MemoryTransport) accepts() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listening && !t.closed
}

func (t *MemoryTransport) track(c *memConn) {
	t.mu.Lock()
	t.conns = append(t.conns, c)
	t.mu.Unlock()
}

// memConn - один конец пары. remote == nil, пока соединение не открыто.
type memConn struct {
	peer   string
	remote *memConn

	mu     sync.Mutex
	events chan Event
	done   bool
}

func newMemConn(peer string) *memConn {
	return &memConn{peer: peer, events: make(chan Event, memBuffer)}
}

func (c *memConn) Peer() string         { return c.peer }
func (c *memConn) Events() <-chan Event { return c.events }

func (c *memConn) Send(data []byte) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done {
		return ErrClosed
	}
	if c.remote == nil {
		return ErrNotOpen
	}
	buf := append([]byte(nil), data...)
	c.remote.push(Event{Kind: EventData, Data: buf})
	return nil
}

func (c *memConn) Close() error {
	c.finish()
	if c.remote != nil {
		c.remote.finish()
	}
	return nil
}

func (c *memConn) push(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	select {
	case c.events <- ev:
	default:
		logger.Log.WithField("peer", c.peer).Warn("memory transport: event buffer full, dropping")
	}
}

// finish доставляет close и закрывает канал событий.
func (c *memConn) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.done = true
	select {
	case c.events <- Event{Kind: EventClose}:
	default:
	}
	close(c.events)
}
