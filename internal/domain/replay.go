package domain

// LeaderboardEntry - одна запись таблицы рекордов трека.
type LeaderboardEntry struct {
	Time        int64  `json:"time" msgpack:"time"` // миллисекунды
	Racer       string `json:"racer" msgpack:"racer"`
	Date        string `json:"date" msgpack:"date"` // RFC 3339
	Laps        int    `json:"laps" msgpack:"laps"`
	Multiplayer bool   `json:"multiplayer" msgpack:"multiplayer"`
}

// RecordingFrame - снимок локальной машины на одном кадре.
// Только int64/float64: формат кадра кодируется protobuf'ом.
type RecordingFrame struct {
	Tick      int64
	ElapsedMs int64
	X         float64
	Z         float64
	Angle     float64
	Speed     float64
	Lap       int64
}

// Recording - запись заезда: заголовок и лента кадров.
type Recording struct {
	RaceID    string
	Track     string
	Racer     string
	Timestamp int64
	Laps      int
	Frames    []RecordingFrame
}
