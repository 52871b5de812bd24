package api

import (
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func samplePlayer(id string) PlayerState {
	return PlayerState{
		ID:       id,
		Racer:    "kartC",
		Position: Position{X: -12.75, Y: 0.5, Z: 33.125},
		Angle:    -271.5,
		Speed:    0.3125,
		Lap:      2,
		Time:     15234,
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"join", JoinMessage{Player: PlayerInfo{ID: "room_4821", Racer: "taimi"}}},
		{"player_join", PlayerJoinMessage{Player: samplePlayer("room_1234")}},
		{"player_update", PlayerUpdateMessage{Player: samplePlayer("room_1234")}},
		{"game_start", GameStartMessage{Track: "oval"}},
		{"sync_players", SyncPlayersMessage{Players: map[string]PlayerState{
			"room_1234": samplePlayer("room_1234"),
			"room_4821": {ID: "room_4821", Racer: "taimi"},
		}}},
		{"error", ErrorMessage{Message: "Room full"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			// Дискриминатор совпадает с именем типа
			var head map[string]json.RawMessage
			if err := json.Unmarshal(data, &head); err != nil {
				t.Fatalf("encoded message is not an object: %v", err)
			}
			if string(head["type"]) != `"`+tt.name+`"` {
				t.Errorf("type tag = %s, want %q", head["type"], tt.name)
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.msg) {
				t.Errorf("round trip mismatch:\n got %#v\nwant %#v", got, tt.msg)
			}
		})
	}
}

func TestDecode_WireCompatibility(t *testing.T) {
	// Сообщение в том виде, как его шлет браузерный клиент
	raw := `{"type":"player_update","player":{"id":"room_1000","position":{"x":1.5,"y":0.5,"z":-2},"angle":90,"speed":0.2,"racer":"kartA","lap":1,"time":820}}`

	msg, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	upd, ok := msg.(PlayerUpdateMessage)
	if !ok {
		t.Fatalf("Decode() = %T, want PlayerUpdateMessage", msg)
	}
	if upd.Player.Position.Z != -2 || upd.Player.Racer != "kartA" || upd.Player.Lap != 1 {
		t.Errorf("unexpected player: %+v", upd.Player)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		unknown bool
	}{
		{"unknown type", `{"type":"teleport"}`, true},
		{"missing type", `{"player":{"id":"x"}}`, true},
		{"not json", `{{`, false},
		{"join without id", `{"type":"join","player":{"racer":"kartA"}}`, false},
		{"game_start without track", `{"type":"game_start"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrUnknownMessageType) != tt.unknown {
				t.Errorf("errors.Is(ErrUnknownMessageType) = %v, want %v (err=%v)", !tt.unknown, tt.unknown, err)
			}
		})
	}
}

func TestRoomCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"4821", true},
		{"0000", true},
		{"482", false},
		{"48211", false},
		{"48a1", false},
		{"", false},
		{"４８２１", false}, // не ASCII
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := ValidateRoomCode(tt.code)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateRoomCode(%q) = %v, want valid=%v", tt.code, err, tt.valid)
			}
		})
	}

	code, ok := RoomCode(RoomID("4821"))
	if !ok || code != "4821" {
		t.Errorf("RoomCode(RoomID) = %q, %v", code, ok)
	}
	if _, ok := RoomCode("peer_abc"); ok {
		t.Error("RoomCode must reject ids without the room prefix")
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		c := NewRoomCode(rng)
		if err := ValidateRoomCode(c); err != nil || c < "1000" {
			t.Fatalf("NewRoomCode() = %q", c)
		}
	}
}
