package session

import (
	"fmt"

	"github.com/khushisaxena01/boomkart/internal/transport"
	"github.com/khushisaxena01/boomkart/pkg/api"
	"github.com/sirupsen/logrus"
)

type handlerFunc func(conn transport.Conn, msg api.Message) error

// on приводит сообщение к конкретному типу перед вызовом обработчика.
func on[T api.Message](fn func(conn transport.Conn, msg T) error) handlerFunc {
	return func(conn transport.Conn, msg api.Message) error {
		typed, ok := msg.(T)
		if !ok {
			return fmt.Errorf("handler for %q got %T", msg.Type(), msg)
		}
		return fn(conn, typed)
	}
}

func (s *Session) registerHandlers() {
	s.handlers[api.TypeJoin] = on(s.handleJoin)
	s.handlers[api.TypePlayerJoin] = on(s.handlePlayerJoin)
	s.handlers[api.TypePlayerUpdate] = on(s.handlePlayerUpdate)
	s.handlers[api.TypeGameStart] = on(s.handleGameStart)
	s.handlers[api.TypeSyncPlayers] = on(s.handleSyncPlayers)
	s.handlers[api.TypeError] = on(s.handleError)
}

func (s *Session) handle(conn transport.Conn, msg api.Message) {
	h, ok := s.handlers[msg.Type()]
	if !ok {
		s.log.WithField("type", msg.Type()).Warn("No handler for message")
		return
	}
	if err := h(conn, msg); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"type": msg.Type(),
			"peer": conn.Peer(),
		}).Warn("Message handling failed")
	}
}

// handleJoin - хост регистрирует гостя и отвечает полным списком игроков.
func (s *Session) handleJoin(conn transport.Conn, m api.JoinMessage) error {
	if s.role != RoleHost {
		return ErrNotHost
	}

	id := conn.Peer()
	if m.Player.ID != id {
		s.log.WithFields(logrus.Fields{
			"claimed": m.Player.ID,
			"peer":    id,
		}).Warn("Join id does not match connection, using connection id")
	}

	known := s.members[id]
	if !known && s.playerCount >= s.maxPlayers {
		s.reject(conn, reasonFull)
		return nil
	}
	if !known {
		s.members[id] = true
		s.playerCount++
	}

	player := api.PlayerState{ID: id, Racer: m.Player.Racer}
	s.remotes[id] = player

	// 1. Новичку - всех, включая его самого
	if err := s.sendTo(conn, api.SyncPlayersMessage{Players: s.AllPlayers()}); err != nil {
		return err
	}
	// 2. Остальным - только новичка
	if err := s.broadcast(api.PlayerJoinMessage{Player: player}, id); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"peer":    id,
		"racer":   m.Player.Racer,
		"players": s.playerCount,
	}).Info("Player joined")

	if s.cb.OnPlayerJoin != nil {
		s.cb.OnPlayerJoin(player)
	}
	return nil
}

func (s *Session) handlePlayerJoin(_ transport.Conn, m api.PlayerJoinMessage) error {
	if m.Player.ID == s.local.ID {
		return nil
	}
	if !s.members[m.Player.ID] {
		s.members[m.Player.ID] = true
		s.playerCount++
	}
	s.remotes[m.Player.ID] = m.Player
	if s.cb.OnPlayerJoin != nil {
		s.cb.OnPlayerJoin(m.Player)
	}
	return nil
}

// handlePlayerUpdate принимает снимок только от его владельца,
// и только после join.
func (s *Session) handlePlayerUpdate(conn transport.Conn, m api.PlayerUpdateMessage) error {
	if m.Player.ID != conn.Peer() {
		return fmt.Errorf("update for %q from %q", m.Player.ID, conn.Peer())
	}
	if !s.members[m.Player.ID] {
		return fmt.Errorf("update from %q before join", m.Player.ID)
	}
	s.remotes[m.Player.ID] = m.Player
	if s.cb.OnPlayerUpdate != nil {
		s.cb.OnPlayerUpdate(m.Player)
	}
	return nil
}

func (s *Session) handleGameStart(_ transport.Conn, m api.GameStartMessage) error {
	if s.role != RoleGuest {
		return nil
	}
	s.log.WithField("track", m.Track).Info("Game started by host")
	if s.cb.OnGameStart != nil {
		s.cb.OnGameStart(m.Track)
	}
	return nil
}

// handleSyncPlayers сливает полный список в кэш, пропуская себя.
func (s *Session) handleSyncPlayers(_ transport.Conn, m api.SyncPlayersMessage) error {
	for id, p := range m.Players {
		if id == s.local.ID {
			continue
		}
		p.ID = id
		s.remotes[id] = p
		s.members[id] = true
		if s.cb.OnPlayerUpdate != nil {
			s.cb.OnPlayerUpdate(p)
		}
	}
	s.playerCount = len(s.members) + 1
	return nil
}

func (s *Session) handleError(_ transport.Conn, m api.ErrorMessage) error {
	err := &RejectedError{Reason: m.Message}
	s.log.WithError(err).Warn("Error from peer")
	s.fireError(err)
	return nil
}
