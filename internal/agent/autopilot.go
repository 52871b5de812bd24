package agent

import (
	"math"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/internal/engine"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/khushisaxena01/boomkart/pkg/track"
	"github.com/sirupsen/logrus"
)

// Параметры автопилота
const (
	steerDeadzone  = 5.0  // градусы
	throttleWithin = 60.0 // газ только при ошибке курса меньше
	reachRadius    = 6.0  // точка считается пройденной
)

// Autopilot - headless-водитель. Ведет машину по точкам маршрута трека
// и подключается к драйверу как обычный источник ввода.
//
// Жизненный цикл:
//  1. NewAutopilot -> маршрут из Track.Waypoints (или центры финиша и чекпоинта).
//  2. Input вызывается драйвером каждый кадр.
//  3. Дошли до точки - переключаемся на следующую по кругу.
type Autopilot struct {
	route []domain.Vec3
	next  int
	log   *logrus.Entry
}

func NewAutopilot(tr *track.Track) *Autopilot {
	route := append([]domain.Vec3(nil), tr.Waypoints...)
	if len(route) == 0 {
		route = fallbackRoute(tr.Map)
	}
	a := &Autopilot{
		route: route,
		log:   logger.Component("autopilot").WithField("track", tr.Name),
	}
	a.log.WithField("points", len(route)).Info("Autopilot route ready")
	return a
}

// Target - текущая точка маршрута.
func (a *Autopilot) Target() (domain.Vec3, bool) {
	if len(a.route) == 0 {
		return domain.Vec3{}, false
	}
	return a.route[a.next], true
}

func (a *Autopilot) Input(race *engine.Race) domain.Input {
	var in domain.Input
	if len(a.route) == 0 || race.Vehicle == nil {
		return in
	}
	v := race.Vehicle

	// 1. Переключение точки
	target := a.route[a.next]
	if distance(v.Position, target) < reachRadius {
		a.next = (a.next + 1) % len(a.route)
		target = a.route[a.next]
		a.log.WithField("point", a.next).Debug("Waypoint reached")
	}

	// 2. Ошибка курса. Вперед - это (-sin, -cos).
	dx := target.X - v.Position.X
	dz := target.Z - v.Position.Z
	want := math.Atan2(-dx, -dz) * 180 / math.Pi
	diff := normalizeAngle(want - v.Angle)

	// 3. Руль и газ
	switch {
	case diff > steerDeadzone:
		in.Left = true
	case diff < -steerDeadzone:
		in.Right = true
	}
	in.Accelerate = math.Abs(diff) < throttleWithin
	return in
}

// normalizeAngle приводит угол к (-180, 180].
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}

func distance(a, b domain.Vec3) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

// fallbackRoute - чекпоинт, затем финиш. Хватает для кольцевых трасс.
func fallbackRoute(m *domain.TileMap) []domain.Vec3 {
	var route []domain.Vec3
	for _, code := range []domain.TileCode{domain.TileCheckpoint, domain.TileFinish} {
		if p, ok := centroid(m.Find(code)); ok {
			route = append(route, p)
		}
	}
	return route
}

func centroid(tiles []domain.TileCoord) (domain.Vec3, bool) {
	if len(tiles) == 0 {
		return domain.Vec3{}, false
	}
	var sx, sy float64
	for _, t := range tiles {
		sx += float64(t.X)
		sy += float64(t.Y)
	}
	n := float64(len(tiles))
	return domain.Vec3{
		X: domain.TileToWorldX(sx / n),
		Y: domain.VehicleHeight,
		Z: domain.TileToWorldZ(sy / n),
	}, true
}
