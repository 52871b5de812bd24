package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Типы сообщений сессии. Значения - часть совместимости с пирами,
// поэтому совпадают с тем, что шлют браузерные клиенты.
const (
	TypeJoin         = "join"
	TypePlayerJoin   = "player_join"
	TypePlayerUpdate = "player_update"
	TypeGameStart    = "game_start"
	TypeSyncPlayers  = "sync_players"
	TypeError        = "error"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// Message - сообщение сессии (тип-сумма).
// Реализуется только типами этого пакета.
type Message interface {
	Type() string
	message()
}

// Position - позиция в мировых координатах.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlayerState - снимок игрока. Перезаписывается целиком при каждом получении.
type PlayerState struct {
	ID       string   `json:"id"`
	Racer    string   `json:"racer"`
	Position Position `json:"position"`
	// Angle - курс в градусах.
	Angle float64 `json:"angle"`
	Speed float64 `json:"speed"`
	Lap   int     `json:"lap"`
	// Time - время текущего круга, мс.
	Time float64 `json:"time"`
}

// PlayerInfo - то, что гость сообщает о себе при входе.
type PlayerInfo struct {
	ID    string `json:"id"`
	Racer string `json:"racer"`
}

// --- ГОСТЬ -> ХОСТ ---

// JoinMessage отправляется гостем сразу после открытия соединения.
type JoinMessage struct {
	Player PlayerInfo `json:"player"`
}

// --- ЛЮБАЯ СТОРОНА ---

// PlayerUpdateMessage - прореженная рассылка собственного снимка.
type PlayerUpdateMessage struct {
	Player PlayerState `json:"player"`
}

// --- ХОСТ -> ГОСТЬ ---

// PlayerJoinMessage - хост сообщает остальным о новом игроке.
type PlayerJoinMessage struct {
	Player PlayerState `json:"player"`
}

// GameStartMessage - хост запускает гонку на треке.
type GameStartMessage struct {
	Track string `json:"track"`
}

// SyncPlayersMessage - все известные хосту игроки, включая его самого.
type SyncPlayersMessage struct {
	Players map[string]PlayerState `json:"players"`
}

// ErrorMessage - отказ хоста (например, "Room full").
type ErrorMessage struct {
	Message string `json:"message"`
}

func (JoinMessage) Type() string         { return TypeJoin }
func (PlayerJoinMessage) Type() string   { return TypePlayerJoin }
func (PlayerUpdateMessage) Type() string { return TypePlayerUpdate }
func (GameStartMessage) Type() string    { return TypeGameStart }
func (SyncPlayersMessage) Type() string  { return TypeSyncPlayers }
func (ErrorMessage) Type() string        { return TypeError }

func (JoinMessage) message()         {}
func (PlayerJoinMessage) message()   {}
func (PlayerUpdateMessage) message() {}
func (GameStartMessage) message()    {}
func (SyncPlayersMessage) message()  {}
func (ErrorMessage) message()        {}

// Encode сериализует сообщение в JSON с полем-дискриминатором "type".
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case JoinMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			JoinMessage
		}{TypeJoin, v})
	case PlayerJoinMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			PlayerJoinMessage
		}{TypePlayerJoin, v})
	case PlayerUpdateMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			PlayerUpdateMessage
		}{TypePlayerUpdate, v})
	case GameStartMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			GameStartMessage
		}{TypeGameStart, v})
	case SyncPlayersMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			SyncPlayersMessage
		}{TypeSyncPlayers, v})
	case ErrorMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			ErrorMessage
		}{TypeError, v})
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownMessageType, m)
}

// Decode читает дискриминатор и распаковывает конкретный тип.
// Неизвестный тип - ErrUnknownMessageType, а не молчаливый пропуск.
func Decode(data []byte) (Message, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid message format: %w", err)
	}

	switch head.Type {
	case TypeJoin:
		return decodeAs[JoinMessage](data)
	case TypePlayerJoin:
		return decodeAs[PlayerJoinMessage](data)
	case TypePlayerUpdate:
		return decodeAs[PlayerUpdateMessage](data)
	case TypeGameStart:
		return decodeAs[GameStartMessage](data)
	case TypeSyncPlayers:
		return decodeAs[SyncPlayersMessage](data)
	case TypeError:
		return decodeAs[ErrorMessage](data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, head.Type)
}

// decodeAs берет на себя Unmarshal и Validate для конкретного типа.
func decodeAs[T Message](data []byte) (Message, error) {
	var msg T

	// 1. Распаковка JSON
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", msg.Type(), err)
	}

	// 2. Автоматическая валидация
	if v, ok := any(msg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s validation failed: %w", msg.Type(), err)
		}
	}

	return msg, nil
}
