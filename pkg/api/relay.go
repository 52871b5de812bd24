package api

import "encoding/json"

// Кадры протокола релея (клиент <-> сервер рандеву).
// Сообщения сессии едут внутри Data как есть.
const (
	FrameRegister   = "register"
	FrameRegistered = "registered"
	FrameListen     = "listen"
	FrameListening  = "listening"
	FrameConnect    = "connect"
	FrameOpen       = "open"
	FrameIncoming   = "incoming"
	FrameData       = "data"
	FrameClose      = "close"
	FrameError      = "error"
)

// Коды ошибок релея.
const (
	RelayErrIDTaken         = "id-taken"
	RelayErrPeerUnavailable = "peer-unavailable"
	RelayErrNotRegistered   = "not-registered"
	RelayErrBadFrame        = "bad-frame"
)

// RelayFrame - единый конверт протокола релея.
type RelayFrame struct {
	Kind string `json:"kind"`

	// ID - идентификатор клиента (register/registered).
	ID string `json:"id,omitempty"`

	// Peer - удаленная сторона (connect/incoming/open).
	Peer string `json:"peer,omitempty"`

	// Link - идентификатор соединения между двумя пирами.
	Link string `json:"link,omitempty"`

	// Ref - метка запроса connect, чтобы сопоставить ответ open/error.
	Ref string `json:"ref,omitempty"`

	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}
