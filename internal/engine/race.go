package engine

import (
	"errors"
	"time"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/internal/systems"
	"github.com/khushisaxena01/boomkart/pkg/api"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/khushisaxena01/boomkart/pkg/track"
	"github.com/khushisaxena01/boomkart/pkg/utils"
	"github.com/sirupsen/logrus"
)

// StartOffset - сдвиг по X на старте сетевой гонки: хост левее, гость правее.
const StartOffset = 1.5

var ErrNoTrack = errors.New("race requires a track")

type RaceState int

const (
	RaceLoading RaceState = iota
	RaceRunning
	RacePaused
	RaceFinished
)

func (s RaceState) String() string {
	switch s {
	case RaceLoading:
		return "loading"
	case RaceRunning:
		return "running"
	case RacePaused:
		return "paused"
	case RaceFinished:
		return "finished"
	}
	return "unknown"
}

// RaceOptions - параметры одной гонки.
type RaceOptions struct {
	Track   *track.Track
	Racer   domain.Racer
	MaxLaps int

	Multiplayer bool
	Host        bool

	Board    Leaderboard
	Feedback Feedback
	Record   bool
}

// RaceSummary - итоги для экрана финиша.
type RaceSummary struct {
	Track       string
	Racer       string
	Laps        int
	LapTimes    []time.Duration
	Total       time.Duration
	Average     time.Duration
	Best        time.Duration
	NewBest     bool
	Multiplayer bool
}

// Race - одна гонка локального игрока. Вся мутация - из горутины драйвера.
type Race struct {
	ID       string
	Track    *track.Track
	Racer    domain.Racer
	Vehicle  *domain.Vehicle
	Lap      *domain.Lap
	Powerups []*domain.Powerup
	// Multiplayer фиксируется на старте и не меняется при обрыве сессии.
	Multiplayer bool

	state     RaceState
	tile      domain.TileCode
	frame     int
	clock     time.Duration
	board     Leaderboard
	feedback  Feedback
	recording *domain.Recording
	summary   *RaceSummary
	log       *logrus.Entry
}

func NewRace(opts RaceOptions) (*Race, error) {
	if opts.Track == nil {
		return nil, ErrNoTrack
	}
	if opts.MaxLaps <= 0 {
		opts.MaxLaps = 3
	}
	if opts.Racer.ID == "" {
		opts.Racer, _ = domain.LookupRacer(domain.DefaultRacer)
	}
	if opts.Feedback == nil {
		opts.Feedback = nopFeedback{}
	}

	start := opts.Track.Start
	if opts.Multiplayer {
		if opts.Host {
			start.X -= StartOffset
		} else {
			start.X += StartOffset
		}
	}

	r := &Race{
		ID:          utils.GenerateID(),
		Track:       opts.Track,
		Racer:       opts.Racer,
		Vehicle:     domain.NewVehicle(start.X, start.Z, start.Angle),
		Lap:         domain.NewLap(opts.MaxLaps),
		Powerups:    opts.Track.SpawnPowerups(),
		Multiplayer: opts.Multiplayer,
		board:       opts.Board,
		feedback:    opts.Feedback,
	}
	r.log = logger.Log.WithFields(logrus.Fields{
		"component": "race",
		"race_id":   r.ID,
	})

	// Стартуем "с дороги": старт на финишной линии сразу запускает хронометраж
	r.tile = domain.TileRoad

	if opts.Record {
		r.recording = &domain.Recording{
			RaceID: r.ID,
			Track:  opts.Track.Name,
			Racer:  opts.Racer.ID,
			Laps:   opts.MaxLaps,
		}
	}
	return r, nil
}

func (r *Race) State() RaceState { return r.state }
func (r *Race) Frame() int       { return r.frame }

// Summary - nil до финиша.
func (r *Race) Summary() *RaceSummary { return r.summary }

// Recording - nil, если запись выключена.
func (r *Race) Recording() *domain.Recording { return r.recording }

func (r *Race) Start(now time.Time) {
	if r.state != RaceLoading {
		return
	}
	r.state = RaceRunning
	if r.recording != nil {
		r.recording.Timestamp = now.Unix()
	}
	r.feedback.Cue(domain.CueRaceStart, r.Vehicle.Position)
	r.log.WithFields(logrus.Fields{
		"track": r.Track.Name,
		"racer": r.Racer.ID,
		"laps":  r.Lap.MaxLaps,
	}).Info("Race started")
}

func (r *Race) Pause() {
	if r.state == RaceRunning {
		r.state = RacePaused
	}
}

func (r *Race) Resume() {
	if r.state == RacePaused {
		r.state = RaceRunning
	}
}

// Step - один тик гонки. Вне состояния running ничего не делает.
func (r *Race) Step(in domain.Input, elapsed time.Duration, now time.Time) systems.LapEvent {
	if r.state != RaceRunning {
		return systems.LapEventNone
	}
	r.frame++
	r.clock += elapsed

	// 1. Физика
	res := systems.StepVehicle(r.Vehicle, &in, systems.StepContext{
		Map:     r.Track.Map,
		Limits:  r.Racer.Limits,
		Current: r.tile,
		Rate:    systems.RateFactor(elapsed),
		Now:     now,
		Frame:   r.frame,
	})
	for _, c := range res.Cues {
		r.feedback.Cue(c, r.Vehicle.Position)
	}

	// 2. Круги
	systems.TickLap(r.Lap, elapsed)
	ev := systems.CrossTile(r.Lap, r.tile, res.Tile)
	r.tile = res.Tile

	switch ev {
	case systems.LapEventStarted:
		r.log.Debug("Lap timing started")
	case systems.LapEventCompleted:
		r.feedback.Cue(domain.CueLap, r.Vehicle.Position)
		r.log.WithFields(logrus.Fields{
			"lap":  r.Lap.Count,
			"time": r.Lap.Last,
		}).Info("Lap completed")
	case systems.LapEventFinished:
		r.feedback.Cue(domain.CueFinish, r.Vehicle.Position)
		r.feedback.Cue(domain.CueCelebrate, r.Vehicle.Position)
	}

	// 3. Бонусы
	var collected []*domain.Powerup
	r.Powerups, collected = systems.CollectPowerups(r.Vehicle, r.Powerups, r.Racer.Limits, now)
	for _, p := range collected {
		r.feedback.Cue(domain.CuePowerup, p.Position)
		r.feedback.RemovePowerup(p)
	}

	// 4. Запись кадра
	if r.recording != nil {
		r.recording.Frames = append(r.recording.Frames, domain.RecordingFrame{
			Tick:      int64(r.frame),
			ElapsedMs: r.clock.Milliseconds(),
			X:         r.Vehicle.Position.X,
			Z:         r.Vehicle.Position.Z,
			Angle:     r.Vehicle.Angle,
			Speed:     r.Vehicle.Speed,
			Lap:       int64(r.Lap.Count),
		})
	}

	if ev == systems.LapEventFinished {
		r.finish(now)
	}
	return ev
}

// finish сохраняет результат ровно один раз. Рекорд ищется до сохранения.
func (r *Race) finish(now time.Time) {
	r.state = RaceFinished

	sum := &RaceSummary{
		Track:       r.Track.Name,
		Racer:       r.Racer.ID,
		Laps:        r.Lap.Count,
		LapTimes:    append([]time.Duration(nil), r.Lap.Times...),
		Total:       r.Lap.Total,
		Average:     r.Lap.Average(),
		Best:        r.Lap.Best,
		Multiplayer: r.Multiplayer,
	}
	r.summary = sum

	if r.board == nil {
		return
	}

	best, found, err := r.board.BestFor(r.Track.Name, r.Lap.Count)
	if err != nil {
		r.log.WithError(err).Warn("Failed to read leaderboard")
	}
	sum.NewBest = !found || sum.Total.Milliseconds() < best.Time

	entry := domain.LeaderboardEntry{
		Time:        sum.Total.Milliseconds(),
		Racer:       r.Racer.ID,
		Date:        now.UTC().Format(time.RFC3339),
		Laps:        r.Lap.Count,
		Multiplayer: r.Multiplayer,
	}
	if err := r.board.SaveTime(r.Track.Name, entry); err != nil {
		r.log.WithError(err).Error("Failed to save race time")
		return
	}
	r.log.WithFields(logrus.Fields{
		"total":    sum.Total,
		"new_best": sum.NewBest,
	}).Info("Race time saved")
}

// Snapshot - собственный снимок для рассылки. ID проставляет сессия.
func (r *Race) Snapshot() api.PlayerState {
	v := r.Vehicle
	return api.PlayerState{
		Racer:    r.Racer.ID,
		Position: api.Position{X: v.Position.X, Y: v.Position.Y, Z: v.Position.Z},
		Angle:    v.Angle,
		Speed:    v.Speed,
		Lap:      r.Lap.Count,
		Time:     float64(r.Lap.Current.Milliseconds()),
	}
}
