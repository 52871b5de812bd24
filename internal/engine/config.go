package engine

import (
	"os"

	"github.com/khushisaxena01/boomkart/pkg/track"
)

// Переменные окружения, перекрывающие значения по умолчанию
const (
	EnvRelayURL = "KART_RELAY_URL"
	EnvDataDir  = "KART_DATA_DIR"
)

// Config хранит параметры запуска клиента
type Config struct {
	FPS int
	// Constrained - слабое устройство: реже шлем снимки по сети.
	Constrained bool
	MaxLaps     int
	Racer       string
	Track       string
	// TrackDir - каталог с внешними трассами <dir>/<name>/map.json
	TrackDir string
	// DataDir - каталог badger с таблицей рекордов. Пусто - без сохранения.
	DataDir  string
	RelayURL string
	// Record включает запись кадров гонки в RecordDir
	Record    bool
	RecordDir string
}

// NewConfig создает конфиг по умолчанию
func NewConfig() Config {
	cfg := Config{
		FPS:       60,
		MaxLaps:   3,
		Racer:     "kartB",
		Track:     track.OvalName,
		TrackDir:  "maps",
		RelayURL:  "ws://localhost:8080/ws",
		RecordDir: "recordings",
	}
	if v := os.Getenv(EnvRelayURL); v != "" {
		cfg.RelayURL = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	return cfg
}

// SendEvery - раз во сколько кадров отправлять свой снимок.
func (c Config) SendEvery() int {
	if c.Constrained {
		return 5
	}
	return 3
}
