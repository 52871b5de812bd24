package domain

import "time"

// LapState - состояние машины кругов.
type LapState int

const (
	LapNotStarted LapState = iota
	LapTiming
	LapFinished
)

func (s LapState) String() string {
	switch s {
	case LapNotStarted:
		return "not_started"
	case LapTiming:
		return "timing"
	case LapFinished:
		return "finished"
	}
	return "unknown"
}

// Lap - прогресс гонки. Живет от старта до финиша.
type Lap struct {
	State   LapState
	Count   int
	MaxLaps int

	Current time.Duration
	Last    time.Duration
	Best    time.Duration
	Times   []time.Duration
	Total   time.Duration

	// Checkpoint должен быть взведен до того, как финишная линия засчитает круг.
	Checkpoint bool
}

func NewLap(maxLaps int) *Lap {
	return &Lap{MaxLaps: maxLaps}
}

// Average - среднее время круга. Ноль, если кругов нет.
func (l *Lap) Average() time.Duration {
	if l.Count == 0 {
		return 0
	}
	return l.Total / time.Duration(l.Count)
}
