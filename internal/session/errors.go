package session

import (
	"errors"
	"strings"

	"github.com/khushisaxena01/boomkart/internal/transport"
	"github.com/khushisaxena01/boomkart/pkg/api"
)

var (
	ErrConnectTimeout = errors.New("connection timeout - room not found")
	ErrNotInitialized = errors.New("session not initialized")
	ErrNotHost        = errors.New("only the host can do this")
	ErrNotRoomID      = errors.New("peer id is not a room id")
)

// RejectedError - удаленный отказ: комната полна, пир недоступен,
// хост закрыл соединение до синхронизации.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "rejected by room: " + e.Reason
}

// PeerUnavailable сообщает, что по идентификатору никто не принимает соединения.
func (e *RejectedError) PeerUnavailable() bool {
	return e.Reason == reasonPeerUnavailable
}

const (
	reasonPeerUnavailable = "peer-unavailable"
	reasonClosed          = "connection closed"
)

// NetworkError - сбой транспорта.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InitError - не удалось зарегистрироваться у сервиса рандеву.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return "failed to initialize multiplayer: " + e.Err.Error()
}

func (e *InitError) Unwrap() error { return e.Err }

// classify переводит ошибку соединения в таксономию сессии.
func classify(err error) error {
	switch {
	case errors.Is(err, transport.ErrPeerUnavailable):
		return &RejectedError{Reason: reasonPeerUnavailable}
	case errors.Is(err, transport.ErrClosed):
		return &RejectedError{Reason: reasonClosed}
	}
	return &NetworkError{Err: err}
}

// UserMessage - текст для игрока. У каждого класса ошибок свой.
// constrained добавляет подсказку для мобильных клиентов.
func UserMessage(err error, constrained bool) string {
	if err == nil {
		return ""
	}

	var (
		msg      string
		initErr  *InitError
		rejected *RejectedError
		netErr   *NetworkError
	)

	switch {
	case errors.As(err, &initErr):
		return "Failed to initialize multiplayer: " + initErr.Err.Error() +
			"\n\nTip: Make sure you have a stable internet connection."
	case errors.Is(err, api.ErrInvalidRoomCode):
		return "Please enter a valid 4-digit room code"
	case errors.Is(err, ErrConnectTimeout):
		msg = "Room not found. Please check the code and try again."
	case errors.As(err, &rejected) && rejected.PeerUnavailable():
		msg = "Room not found. Please check the room code."
	case errors.As(err, &rejected):
		msg = "Failed to join room: " + rejected.Reason
	case errors.As(err, &netErr):
		msg = "Network error. Please check your connection."
	default:
		msg = "Failed to join room: " + strings.TrimSpace(err.Error())
	}

	if constrained {
		msg += "\n\nMobile Tip: Make sure both devices are on WiFi for best results."
	}
	return msg
}
