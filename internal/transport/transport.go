// Package transport описывает канал между двумя пирами и сервис рандеву,
// через который они находят друг друга. Сессия знает только эти интерфейсы.
package transport

import (
	"context"
	"errors"
)

var (
	ErrIDTaken         = errors.New("peer id is already taken")
	ErrPeerUnavailable = errors.New("peer unavailable")
	ErrNotOpen         = errors.New("transport is not open")
	ErrClosed          = errors.New("connection closed")
)

// EventKind - жизненный цикл соединения: connecting -> open -> data* -> close.
type EventKind int

const (
	EventOpen EventKind = iota
	EventData
	EventClose
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventData:
		return "data"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event - событие соединения. Data заполнена только для EventData,
// Err - только для EventError.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}

// Conn - надежный упорядоченный канал к одному пиру.
// Канал Events закрывается после EventClose.
type Conn interface {
	Peer() string
	Send(data []byte) error
	Events() <-chan Event
	Close() error
}

// Transport - клиент сервиса рандеву.
type Transport interface {
	// Open регистрирует идентификатор и возвращает выданный.
	Open(ctx context.Context, id string) (string, error)
	// Listen разрешает входящие соединения (роль хоста).
	Listen(ctx context.Context) error
	// Dial начинает соединение. Возвращенный Conn еще в состоянии connecting:
	// результат приходит событием open или error. К неизвестному id соединение
	// может так и не открыться, ограничение по времени - забота вызывающего.
	Dial(ctx context.Context, peer string) (Conn, error)
	Incoming() <-chan Conn
	Close() error
}
