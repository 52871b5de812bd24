package domain

// Cue - звуковой или визуальный сигнал, который ядро отдает наружу.
// Игровое состояние от них не зависит.
type Cue int

const (
	CueBump Cue = iota
	CueImpact
	CueSkid
	CueBoostPad
	CueBoostPadEnter
	CueMud
	CueRaceStart
	CueLap
	CueFinish
	CueCelebrate
	CuePowerup
)

var cueNames = map[Cue]string{
	CueBump:          "bump",
	CueImpact:        "impact",
	CueSkid:          "skid",
	CueBoostPad:      "boost_pad",
	CueBoostPadEnter: "woosh",
	CueMud:           "mud",
	CueRaceStart:     "race_start",
	CueLap:           "lap",
	CueFinish:        "finish",
	CueCelebrate:     "celebrate",
	CuePowerup:       "powerup",
}

func (c Cue) String() string {
	if name, ok := cueNames[c]; ok {
		return name
	}
	return "unknown"
}
