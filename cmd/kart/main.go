package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/khushisaxena01/boomkart/internal/agent"
	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/internal/engine"
	"github.com/khushisaxena01/boomkart/internal/infrastructure/storage"
	"github.com/khushisaxena01/boomkart/internal/mirror"
	"github.com/khushisaxena01/boomkart/internal/session"
	"github.com/khushisaxena01/boomkart/internal/transport"
	"github.com/khushisaxena01/boomkart/internal/version"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/khushisaxena01/boomkart/pkg/track"
)

func init() {
	logger.Init()
}

// memRelay - значение -relay для игры внутри одного процесса.
const memRelay = "mem"

// lobby - роль в мультиплеере, выбранная флагами.
type lobby struct {
	host bool
	code string
	tr   transport.Transport
	// onRoom вызывается хостом, когда код комнаты известен.
	onRoom func(code string)
}

func main() {
	// 1. Парсинг конфигурации
	cfg := engine.NewConfig()
	var lb lobby
	var replayPath string

	flag.StringVar(&cfg.Track, "track", cfg.Track, "Track name (built-in or <tracks>/<name>/map.json)")
	flag.StringVar(&cfg.TrackDir, "tracks", cfg.TrackDir, "Directory with external tracks")
	flag.StringVar(&cfg.Racer, "racer", cfg.Racer, "Racer id")
	flag.IntVar(&cfg.MaxLaps, "laps", cfg.MaxLaps, "Laps per race")
	flag.IntVar(&cfg.FPS, "fps", cfg.FPS, "Frame rate")
	flag.BoolVar(&cfg.Constrained, "constrained", cfg.Constrained, "Low-end device: send updates less often")
	flag.StringVar(&cfg.DataDir, "data", cfg.DataDir, "Leaderboard directory (empty - do not save)")
	flag.StringVar(&cfg.RelayURL, "relay", cfg.RelayURL, `Relay WebSocket URL ("mem" - in-process, host gets a local guest)`)
	flag.BoolVar(&cfg.Record, "record", cfg.Record, "Record the race")
	flag.StringVar(&cfg.RecordDir, "record-dir", cfg.RecordDir, "Directory for .bkrc recordings")
	flag.BoolVar(&lb.host, "host", false, "Create a room and wait for a guest")
	flag.StringVar(&lb.code, "join", "", "Join a room by its 4-digit code")
	flag.StringVar(&replayPath, "replay", "", "Path to .bkrc recording to print")
	flag.Parse()

	logger.Log.Info("Starting boomkart...")
	logger.Log.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// РЕЖИМ РЕПЛЕЯ
	if replayPath != "" {
		if err := printReplay(replayPath); err != nil {
			logger.Log.WithError(err).Fatal("Failed to load replay")
		}
		return
	}

	// 2. Транспорт: релей по WebSocket или брокер в памяти
	var broker *transport.Broker
	newTransport := func() transport.Transport {
		if broker != nil {
			return broker.Transport()
		}
		return transport.NewWSTransport(cfg.RelayURL)
	}
	var guests sync.WaitGroup
	if cfg.RelayURL == memRelay {
		broker = transport.NewBroker()
		if lb.host {
			lb.onRoom = func(code string) {
				guests.Add(1)
				go func() {
					defer guests.Done()
					runLocalGuest(ctx, cfg, code, newTransport())
				}()
			}
		}
	}
	lb.tr = newTransport()

	err := engine.SelectRacer(cfg.Racer, func(r domain.Racer) error {
		return play(ctx, cfg, r, lb)
	})
	guests.Wait()
	switch {
	case errors.Is(err, context.Canceled):
		logger.Log.Info("Interrupted")
	case err != nil:
		logger.Log.WithError(err).Fatal(session.UserMessage(err, cfg.Constrained))
	}
}

func play(ctx context.Context, cfg engine.Config, racer domain.Racer, lb lobby) error {
	// 1. Рекорды
	var board engine.Leaderboard
	if cfg.DataDir != "" {
		db, err := storage.OpenLeaderboard(cfg.DataDir)
		if err != nil {
			return err
		}
		defer db.Close()
		board = db
	}

	// 2. Сеть
	mir := mirror.New(sceneLog{log: logger.Component("scene")})
	multiplayer := lb.host || lb.code != ""
	var net engine.Network
	if multiplayer {
		sess, trackName, err := connect(ctx, cfg, racer, lb, mir)
		if err != nil {
			return err
		}
		defer sess.Disconnect()
		net = sess
		cfg.Track = trackName
	}

	// 3. Гонка
	tr, err := track.Load(cfg.TrackDir, cfg.Track)
	if err != nil {
		return err
	}
	race, err := engine.NewRace(engine.RaceOptions{
		Track:       tr,
		Racer:       racer,
		MaxLaps:     cfg.MaxLaps,
		Multiplayer: multiplayer,
		Host:        lb.host,
		Board:       board,
		Feedback:    newConsoleFeedback(),
		Record:      cfg.Record,
	})
	if err != nil {
		return err
	}

	driver := engine.NewDriver(cfg, race, agent.NewAutopilot(tr), newConsoleRenderer(cfg.FPS), net, mir)
	if err := driver.Run(ctx); err != nil {
		return err
	}

	report(race.Summary())
	if cfg.Record {
		saveRecording(cfg.RecordDir, race.Recording())
	}
	return nil
}

// connect проводит лобби: хост ждет гостя и стартует, гость ждет game_start.
// Возвращает трек, на котором едем.
func connect(ctx context.Context, cfg engine.Config, racer domain.Racer, lb lobby, mir *mirror.Mirror) (*session.Session, string, error) {
	log := logger.Component("lobby")
	var started string

	sess := session.New(lb.tr, session.Callbacks{
		OnPlayerJoin:   mir.Apply,
		OnPlayerLeave:  mir.Remove,
		OnPlayerUpdate: mir.Apply,
		OnGameStart:    func(t string) { started = t },
		OnError: func(err error) {
			log.WithError(err).Warn(session.UserMessage(err, cfg.Constrained))
		},
	})

	if _, err := sess.Init(ctx, ""); err != nil {
		sess.Disconnect()
		return nil, "", err
	}

	if lb.host {
		code, err := sess.CreateRoom(ctx, cfg.Track, racer.ID)
		if err != nil {
			sess.Disconnect()
			return nil, "", err
		}
		fmt.Printf("Room code: %s\n", code)
		if lb.onRoom != nil {
			lb.onRoom(code)
		}
		if err := sess.WaitForPlayers(ctx, session.DefaultMaxPlayers); err != nil {
			sess.Disconnect()
			return nil, "", err
		}
		if err := sess.StartGame(cfg.Track); err != nil {
			sess.Disconnect()
			return nil, "", err
		}
		return sess, cfg.Track, nil
	}

	if err := sess.JoinRoom(ctx, lb.code, racer.ID); err != nil {
		sess.Disconnect()
		return nil, "", err
	}
	log.WithField("room", lb.code).Info("Joined, waiting for host to start")

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for started == "" {
		select {
		case <-ctx.Done():
			sess.Disconnect()
			return nil, "", ctx.Err()
		case <-ticker.C:
			sess.Poll()
			if !sess.IsActive() {
				sess.Disconnect()
				return nil, "", &session.NetworkError{Err: errors.New("host left before start")}
			}
		}
	}
	return sess, started, nil
}

// runLocalGuest - второй игрок на автопилоте в том же процессе.
// Без рекордов и записи: badger не открывается дважды.
func runLocalGuest(ctx context.Context, cfg engine.Config, code string, tr transport.Transport) {
	cfg.DataDir = ""
	cfg.Record = false
	racer, _ := domain.LookupRacer("kartA")
	if err := play(ctx, cfg, racer, lobby{code: code, tr: tr}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Component("local_guest").WithError(err).Error("Local guest failed")
	}
}

func report(sum *engine.RaceSummary) {
	if sum == nil {
		return
	}
	fmt.Printf("Race finished on %s as %s\n", sum.Track, sum.Racer)
	for i, t := range sum.LapTimes {
		fmt.Printf("  lap %d: %s\n", i+1, formatTime(t))
	}
	fmt.Printf("  total: %s  avg: %s  best: %s\n", formatTime(sum.Total), formatTime(sum.Average), formatTime(sum.Best))
	if sum.NewBest {
		fmt.Println("  NEW BEST TIME!")
	}
}

func saveRecording(dir string, rec *domain.Recording) {
	if rec == nil {
		return
	}
	svc, err := storage.NewRecordingService(dir)
	if err != nil {
		logger.Log.WithError(err).Error("Recording dir unavailable")
		return
	}
	path, err := svc.Save(rec)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to save recording")
		return
	}
	logger.Log.WithField("path", path).Info("Recording saved")
}

func printReplay(path string) error {
	rec, err := (&storage.RecordingService{}).Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("Race %s on %s as %s, %d laps, %d frames\n",
		rec.RaceID, rec.Track, rec.Racer, rec.Laps, len(rec.Frames))
	for _, f := range rec.Frames {
		logger.Log.WithField("tick", f.Tick).Debugf("x=%.2f z=%.2f angle=%.1f speed=%.2f lap=%d",
			f.X, f.Z, f.Angle, f.Speed, f.Lap)
	}
	if n := len(rec.Frames); n > 0 {
		last := rec.Frames[n-1]
		fmt.Printf("Finished in %s\n", formatTime(time.Duration(last.ElapsedMs)*time.Millisecond))
	}
	return nil
}

// formatTime - M:SS.mmm
func formatTime(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
