package domain

import "sort"

// Limits - неизменяемый набор констант управляемости гонщика.
// Все величины безразмерные "на тик при 60 FPS".
type Limits struct {
	MaxSpeed     float64
	MaxBoost     float64
	Acceleration float64
	Brake        float64
	Friction     float64
	TurnSpeed    float64
	TurnFriction float64
	MaxTurnSpeed float64
	ReverseSpeed float64
}

// BoostedMax - потолок скорости под бустом.
func (l Limits) BoostedMax() float64 {
	return l.MaxSpeed + l.MaxBoost
}

// Racer - запись из таблицы гонщиков.
type Racer struct {
	ID     string
	Name   string
	Limits Limits
}

const DefaultRacer = "kartB"

var racers = map[string]Racer{
	"kartA": {
		ID:   "kartA",
		Name: "Yestermobile",
		Limits: Limits{
			MaxSpeed: 0.42, MaxBoost: 0.2, Acceleration: 0.035, Brake: 0.1, Friction: 0.02,
			TurnSpeed: 0.3, TurnFriction: 0.2, MaxTurnSpeed: 2.4, ReverseSpeed: -0.05,
		},
	},
	"kartB": {
		ID:   "kartB",
		Name: "Centurion",
		Limits: Limits{
			MaxSpeed: 0.4, MaxBoost: 0.2, Acceleration: 0.04, Brake: 0.1, Friction: 0.02,
			TurnSpeed: 0.3, TurnFriction: 0.2, MaxTurnSpeed: 2.6, ReverseSpeed: -0.05,
		},
	},
	"kartC": {
		ID:   "kartC",
		Name: "Salt Machine",
		Limits: Limits{
			MaxSpeed: 0.45, MaxBoost: 0.15, Acceleration: 0.03, Brake: 0.12, Friction: 0.025,
			TurnSpeed: 0.25, TurnFriction: 0.2, MaxTurnSpeed: 2.2, ReverseSpeed: -0.04,
		},
	},
	"taimi": {
		ID:   "taimi",
		Name: "Taimi",
		Limits: Limits{
			MaxSpeed: 0.36, MaxBoost: 0.25, Acceleration: 0.05, Brake: 0.1, Friction: 0.018,
			TurnSpeed: 0.35, TurnFriction: 0.22, MaxTurnSpeed: 3.0, ReverseSpeed: -0.06,
		},
	},
}

// LookupRacer ищет гонщика по идентификатору.
func LookupRacer(id string) (Racer, bool) {
	r, ok := racers[id]
	return r, ok
}

// RacerIDs возвращает отсортированный список гонщиков.
func RacerIDs() []string {
	ids := make([]string, 0, len(racers))
	for id := range racers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
