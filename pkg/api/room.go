package api

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
)

// RoomPrefix превращает 4-значный код комнаты в идентификатор хоста.
const RoomPrefix = "room_"

const (
	roomCodeMin = 1000
	roomCodeMax = 9999
)

var ErrInvalidRoomCode = errors.New("room code must be exactly 4 digits")

// ValidateRoomCode: ровно 4 ASCII-цифры.
func ValidateRoomCode(code string) error {
	if len(code) != 4 {
		return ErrInvalidRoomCode
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return ErrInvalidRoomCode
		}
	}
	return nil
}

// RoomID строит идентификатор хоста по коду.
func RoomID(code string) string {
	return RoomPrefix + code
}

// RoomCode извлекает код из идентификатора хоста.
func RoomCode(id string) (string, bool) {
	code, ok := strings.CutPrefix(id, RoomPrefix)
	if !ok || ValidateRoomCode(code) != nil {
		return "", false
	}
	return code, true
}

// NewRoomCode выдает случайный код 1000..9999. rng может быть nil.
func NewRoomCode(rng *rand.Rand) string {
	span := roomCodeMax - roomCodeMin + 1
	var n int
	if rng != nil {
		n = rng.Intn(span)
	} else {
		n = rand.Intn(span)
	}
	return strconv.Itoa(roomCodeMin + n)
}
