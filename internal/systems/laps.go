package systems

import (
	"time"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/sirupsen/logrus"
)

// LapEvent - что произошло с прогрессом гонки на этом тике.
type LapEvent int

const (
	LapEventNone LapEvent = iota
	LapEventStarted
	LapEventCompleted
	LapEventFinished
)

// TickLap наращивает время текущего круга, пока идет хронометраж.
func TickLap(l *domain.Lap, elapsed time.Duration) {
	if l.State == domain.LapTiming {
		l.Current += elapsed
	}
}

// CrossTile обрабатывает переход машины с тайла prev на тайл entered.
// Срабатывает только на въезде: стоять на линии финиша ничего не дает.
func CrossTile(l *domain.Lap, prev, entered domain.TileCode) LapEvent {
	if entered == prev || l.State == domain.LapFinished {
		return LapEventNone
	}

	switch entered {
	case domain.TileCheckpoint:
		l.Checkpoint = true

	case domain.TileFinish:
		// 1. Первое пересечение запускает хронометраж, круг 0 не считается
		if l.State == domain.LapNotStarted {
			l.State = domain.LapTiming
			l.Current = 0
			l.Checkpoint = false
			return LapEventStarted
		}

		// 2. Без чекпоинта круг не засчитывается (езда задом через линию)
		if !l.Checkpoint {
			return LapEventNone
		}

		completeLap(l)
		if l.MaxLaps > 0 && l.Count >= l.MaxLaps {
			l.State = domain.LapFinished
			logger.Log.WithFields(logrus.Fields{
				"component": "lap_system",
				"laps":      l.Count,
				"total":     l.Total,
				"best":      l.Best,
			}).Info("Race finished")
			return LapEventFinished
		}
		return LapEventCompleted
	}

	return LapEventNone
}

func completeLap(l *domain.Lap) {
	l.Checkpoint = false
	l.Last = l.Current
	if len(l.Times) == 0 || l.Current < l.Best {
		l.Best = l.Current
	}
	l.Times = append(l.Times, l.Current)
	l.Total += l.Current
	l.Count++
	l.Current = 0
}
