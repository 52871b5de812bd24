// Package session - комната на двоих поверх transport: хост принимает гостя,
// стороны обмениваются снимками. Все состояние сессии меняется только в
// горутине, которая вызывает Poll/CreateRoom/JoinRoom; горутины транспорта
// лишь складывают события во входящую очередь.
package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/khushisaxena01/boomkart/internal/transport"
	"github.com/khushisaxena01/boomkart/pkg/api"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxPlayers = 2
	JoinTimeout       = 10 * time.Second

	inboxSize  = 256
	reasonFull = "Room full"
)

type Role int

const (
	RoleNone Role = iota
	RoleHost
	RoleGuest
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleGuest:
		return "guest"
	}
	return "none"
}

// Callbacks вызываются из Poll/JoinRoom, то есть в горутине владельца сессии.
type Callbacks struct {
	OnPlayerJoin   func(player api.PlayerState)
	OnPlayerLeave  func(id string)
	OnPlayerUpdate func(player api.PlayerState)
	OnGameStart    func(track string)
	OnError        func(err error)
}

type inboundKind int

const (
	inboundIncoming inboundKind = iota
	inboundEvent
)

type inbound struct {
	kind inboundKind
	conn transport.Conn
	ev   transport.Event
}

type Option func(*Session)

func WithMaxPlayers(n int) Option {
	return func(s *Session) { s.maxPlayers = n }
}

func WithJoinTimeout(d time.Duration) Option {
	return func(s *Session) { s.joinTimeout = d }
}

func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// Session - одна сетевая сессия клиента.
type Session struct {
	transport transport.Transport
	cb        Callbacks
	log       *logrus.Entry
	rng       *rand.Rand

	maxPlayers  int
	joinTimeout time.Duration

	initialized bool
	role        Role
	roomID      string
	local       api.PlayerState
	conns       map[string]transport.Conn
	remotes     map[string]api.PlayerState
	// members - кто учтен в playerCount. Пишут только join и списки игроков.
	members     map[string]bool
	playerCount int
	handlers    map[string]handlerFunc

	inbox     chan inbound
	done      chan struct{}
	closeOnce sync.Once
}

func New(tr transport.Transport, cb Callbacks, opts ...Option) *Session {
	s := &Session{
		transport:   tr,
		cb:          cb,
		log:         logger.Component("session"),
		maxPlayers:  DefaultMaxPlayers,
		joinTimeout: JoinTimeout,
		conns:       make(map[string]transport.Conn),
		remotes:     make(map[string]api.PlayerState),
		members:     make(map[string]bool),
		handlers:    make(map[string]handlerFunc),
		inbox:       make(chan inbound, inboxSize),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerHandlers()
	return s
}

// Init регистрирует клиента у сервиса рандеву. Пустой playerID - случайный
// идентификатор комнаты, чтобы клиент мог сразу стать хостом.
func (s *Session) Init(ctx context.Context, playerID string) (string, error) {
	if s.initialized {
		return s.local.ID, nil
	}
	if playerID == "" {
		playerID = api.RoomID(api.NewRoomCode(s.rng))
	}

	id, err := s.transport.Open(ctx, playerID)
	if err != nil {
		return "", &InitError{Err: err}
	}

	s.local.ID = id
	s.initialized = true
	go s.acceptLoop()

	s.log.WithField("id", id).Info("Multiplayer initialized")
	return id, nil
}

// CreateRoom делает клиента хостом. Возвращает 4-значный код комнаты.
func (s *Session) CreateRoom(ctx context.Context, track, racer string) (string, error) {
	if !s.initialized {
		return "", ErrNotInitialized
	}
	code, ok := api.RoomCode(s.local.ID)
	if !ok {
		return "", ErrNotRoomID
	}
	if err := s.transport.Listen(ctx); err != nil {
		return "", &NetworkError{Err: err}
	}

	s.role = RoleHost
	s.roomID = s.local.ID
	s.playerCount = 1
	s.local.Racer = racer

	s.log.WithFields(logrus.Fields{
		"room":  code,
		"track": track,
		"racer": racer,
	}).Info("Room created")
	return code, nil
}

// JoinRoom подключается к хосту по коду и ждет sync_players.
// Ограничено JoinTimeout: по истечении - ErrConnectTimeout.
func (s *Session) JoinRoom(ctx context.Context, code, racer string) error {
	// 1. Код проверяется до любого сетевого вызова
	if err := api.ValidateRoomCode(code); err != nil {
		return err
	}
	if !s.initialized {
		return ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, s.joinTimeout)
	defer cancel()

	hostID := api.RoomID(code)
	conn, err := s.transport.Dial(ctx, hostID)
	if err != nil {
		return classify(err)
	}

	s.role = RoleGuest
	s.roomID = hostID
	s.local.Racer = racer
	log := s.log.WithField("host", hostID)
	log.Info("Attempting to connect to host")

	// 2. Ждем open, отправляем join, ждем синхронизацию или отказ
	fail := func(err error) error {
		conn.Close()
		delete(s.conns, hostID)
		s.role = RoleNone
		s.roomID = ""
		log.WithError(err).Warn("Join failed")
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fail(ErrConnectTimeout)
			}
			return fail(ctx.Err())

		case ev, ok := <-conn.Events():
			if !ok {
				return fail(&RejectedError{Reason: reasonClosed})
			}
			switch ev.Kind {
			case transport.EventOpen:
				s.conns[hostID] = conn
				join := api.JoinMessage{Player: api.PlayerInfo{ID: s.local.ID, Racer: racer}}
				if err := s.sendTo(conn, join); err != nil {
					// Хост мог уже отказать: причина лежит в очереди перед close
					if errors.Is(err, transport.ErrClosed) {
						continue
					}
					return fail(classify(err))
				}
				log.Info("Connected to host, join sent")

			case transport.EventData:
				msg, err := api.Decode(ev.Data)
				if err != nil {
					log.WithError(err).Warn("Bad message while joining")
					continue
				}
				if m, isErr := msg.(api.ErrorMessage); isErr {
					return fail(&RejectedError{Reason: m.Message})
				}
				s.handle(conn, msg)
				if _, synced := msg.(api.SyncPlayersMessage); synced {
					s.forward(conn)
					log.WithField("players", s.playerCount).Info("Joined room")
					return nil
				}

			case transport.EventClose:
				return fail(&RejectedError{Reason: reasonClosed})

			case transport.EventError:
				return fail(classify(ev.Err))
			}
		}
	}
}

// Poll применяет накопленные сетевые события. Вызывается раз в кадр и
// никогда не блокируется. Возвращает число обработанных событий.
func (s *Session) Poll() int {
	n := 0
	for {
		select {
		case in := <-s.inbox:
			s.handleInbound(in)
			n++
		default:
			return n
		}
	}
}

// WaitForPlayers крутит Poll, пока в комнате не наберется n участников.
// Для хоста перед стартом гонки.
func (s *Session) WaitForPlayers(ctx context.Context, n int) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		s.Poll()
		if s.playerCount >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SendPlayerUpdate рассылает собственный снимок всем соединениям.
func (s *Session) SendPlayerUpdate(state api.PlayerState) error {
	state.ID = s.local.ID
	if state.Racer == "" {
		state.Racer = s.local.Racer
	}
	s.local = state
	return s.broadcast(api.PlayerUpdateMessage{Player: state}, "")
}

// StartGame - только для хоста.
func (s *Session) StartGame(track string) error {
	if s.role != RoleHost {
		return ErrNotHost
	}
	s.log.WithField("track", track).Info("Starting game")
	return s.broadcast(api.GameStartMessage{Track: track}, "")
}

// LeaveRoom закрывает все соединения и сбрасывает комнату.
// Регистрация у сервиса рандеву сохраняется.
func (s *Session) LeaveRoom() {
	for id, c := range s.conns {
		c.Close()
		delete(s.conns, id)
	}
	s.remotes = make(map[string]api.PlayerState)
	s.members = make(map[string]bool)
	s.role = RoleNone
	s.roomID = ""
	s.playerCount = 0
}

// Disconnect завершает сессию целиком.
func (s *Session) Disconnect() {
	s.LeaveRoom()
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.transport.Close(); err != nil {
			s.log.WithError(err).Warn("transport close failed")
		}
	})
	s.initialized = false
}

// IsActive - есть комната и хотя бы одно живое соединение.
func (s *Session) IsActive() bool {
	return s.roomID != "" && len(s.conns) > 0
}

func (s *Session) IsHost() bool    { return s.role == RoleHost }
func (s *Session) Role() Role      { return s.role }
func (s *Session) LocalID() string { return s.local.ID }
func (s *Session) PlayerCount() int {
	return s.playerCount
}

// RoomCode - 4-значный код текущей комнаты или пустая строка.
func (s *Session) RoomCode() string {
	code, _ := api.RoomCode(s.roomID)
	return code
}

func (s *Session) LocalPlayer() api.PlayerState {
	return s.local
}

// RemotePlayers - копия кэша удаленных снимков.
func (s *Session) RemotePlayers() map[string]api.PlayerState {
	out := make(map[string]api.PlayerState, len(s.remotes))
	for id, p := range s.remotes {
		out[id] = p
	}
	return out
}

// AllPlayers - удаленные снимки плюс собственный.
func (s *Session) AllPlayers() map[string]api.PlayerState {
	out := s.RemotePlayers()
	out[s.local.ID] = s.local
	return out
}

// --- внутреннее ---

func (s *Session) acceptLoop() {
	for {
		select {
		case c, ok := <-s.transport.Incoming():
			if !ok {
				return
			}
			if !s.deliver(inbound{kind: inboundIncoming, conn: c}) {
				c.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// forward перекладывает события соединения во входящую очередь.
func (s *Session) forward(conn transport.Conn) {
	go func() {
		for ev := range conn.Events() {
			if !s.deliver(inbound{kind: inboundEvent, conn: conn, ev: ev}) {
				return
			}
		}
		// Канал закрыт: close мог потеряться при полном буфере.
		// Повторный close для dropConn безвреден.
		s.deliver(inbound{kind: inboundEvent, conn: conn, ev: transport.Event{Kind: transport.EventClose}})
	}()
}

func (s *Session) deliver(in inbound) bool {
	select {
	case s.inbox <- in:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) handleInbound(in inbound) {
	if in.kind == inboundIncoming {
		s.acceptIncoming(in.conn)
		return
	}

	switch in.ev.Kind {
	case transport.EventOpen:
		s.log.WithField("peer", in.conn.Peer()).Debug("Connection open")
	case transport.EventData:
		msg, err := api.Decode(in.ev.Data)
		if err != nil {
			s.log.WithError(err).WithField("peer", in.conn.Peer()).Warn("Dropping message")
			return
		}
		s.handle(in.conn, msg)
	case transport.EventClose:
		s.dropConn(in.conn)
	case transport.EventError:
		err := classify(in.ev.Err)
		s.log.WithError(err).WithField("peer", in.conn.Peer()).Error("Connection error")
		s.fireError(err)
	}
}

// acceptIncoming - хост решает только по лимиту участников.
func (s *Session) acceptIncoming(conn transport.Conn) {
	if s.role != RoleHost {
		conn.Close()
		return
	}
	if s.playerCount >= s.maxPlayers {
		s.reject(conn, reasonFull)
		return
	}

	s.log.WithField("peer", conn.Peer()).Info("Player connecting")
	s.conns[conn.Peer()] = conn
	s.forward(conn)
}

func (s *Session) reject(conn transport.Conn, reason string) {
	if err := s.sendTo(conn, api.ErrorMessage{Message: reason}); err != nil {
		s.log.WithError(err).Debug("reject message not delivered")
	}
	if cur, ok := s.conns[conn.Peer()]; ok && cur == conn {
		delete(s.conns, conn.Peer())
	}
	conn.Close()
	s.log.WithFields(logrus.Fields{
		"peer":   conn.Peer(),
		"reason": reason,
	}).Warn("Connection rejected")
}

func (s *Session) dropConn(conn transport.Conn) {
	id := conn.Peer()
	if cur, ok := s.conns[id]; !ok || cur != conn {
		return
	}
	delete(s.conns, id)

	delete(s.remotes, id)
	if s.members[id] {
		delete(s.members, id)
		if s.playerCount > 0 {
			s.playerCount--
		}
	}

	s.log.WithFields(logrus.Fields{
		"peer": id,
		"role": s.role.String(),
	}).Info("Player disconnected")

	if s.cb.OnPlayerLeave != nil {
		s.cb.OnPlayerLeave(id)
	}
}

func (s *Session) sendTo(conn transport.Conn, msg api.Message) error {
	data, err := api.Encode(msg)
	if err != nil {
		return err
	}
	return conn.Send(data)
}

func (s *Session) broadcast(msg api.Message, exclude string) error {
	var firstErr error
	for id, c := range s.conns {
		if id == exclude {
			continue
		}
		if err := s.sendTo(c, msg); err != nil {
			s.log.WithError(err).WithField("peer", id).Warn("Failed to send message")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Session) fireError(err error) {
	if s.cb.OnError != nil {
		s.cb.OnError(err)
	}
}
