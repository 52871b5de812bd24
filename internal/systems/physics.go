package systems

import (
	"math"
	"time"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/sirupsen/logrus"
)

// TargetFPS - частота, под которую подобраны все константы гонщиков.
const TargetFPS = 60

// Пороговые значения интегратора.
const (
	turnDeadband    = 0.05
	skidSpeed       = 0.2
	skidTurn        = 1.1
	kickstartBelow  = 0.015
	kickstartSpeed  = 0.04
	overCapMargin   = 0.1
	overCapBleed    = 0.03
	stopThreshold   = 0.01
	reverseDecay    = 0.01
	bounceNudge     = 0.15
	mudSpeedCeiling = 0.10
)

// RateFactor - безразмерный множитель тика: 1.0 при 60 FPS.
func RateFactor(elapsed time.Duration) float64 {
	return TargetFPS * elapsed.Seconds()
}

// StepContext - всё, что интегратору нужно кроме самой машины.
type StepContext struct {
	Map    *domain.TileMap
	Limits domain.Limits
	// Current - тайл, на который машина въехала на прошлом тике.
	Current domain.TileCode
	Rate    float64
	Now     time.Time
	// Frame - номер кадра, нужен только для прореживания эффектов.
	Frame int
}

// StepResult - итог одного тика.
type StepResult struct {
	// Tile - тайл целевой позиции. Становится Current на следующем тике,
	// даже если машина отскочила.
	Tile    domain.TileCode
	Coord   domain.TileCoord
	Bounced bool
	// OutOfBounds - цель вне квадрата мира или вне сетки.
	OutOfBounds bool
	Cues        []domain.Cue
}

// Entered сообщает, что на этом тике машина въехала на тайл code.
func (r StepResult) Entered(prev, code domain.TileCode) bool {
	return r.Tile == code && prev != code
}

// StepVehicle продвигает машину на один тик.
// Input может быть изменен: отскок от стены отменяет газ и тормоз.
func StepVehicle(v *domain.Vehicle, in *domain.Input, ctx StepContext) StepResult {
	res := StepResult{}
	r := ctx.Rate
	l := ctx.Limits

	// 1. Поворот
	steer(v, in, l, r)

	// 2. Ускоритель под колесами (тайл прошлого тика)
	if ctx.Current == domain.TileBoost {
		v.Speed = l.BoostedMax()
		res.Cues = append(res.Cues, domain.CueBoostPad)
	}

	if v.Speed > skidSpeed && math.Abs(v.TurnSpeed) > skidTurn {
		res.Cues = append(res.Cues, domain.CueSkid)
	}

	// 3. Мертвая зона и ограничение скорости поворота, затем курс
	if math.Abs(v.TurnSpeed) < turnDeadband {
		v.TurnSpeed = 0
	}
	v.TurnSpeed = clamp(v.TurnSpeed, -l.MaxTurnSpeed, l.MaxTurnSpeed)
	v.Angle += v.TurnSpeed * r

	// 4. Скорость
	throttle(v, in, l, r)
	capSpeed(v, l, r, ctx.Now)
	reverse(v, in, l, r)

	// 5. Целевая позиция
	rad := v.Angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	dist := v.Speed * r
	tx := v.Position.X - dist*sin
	tz := v.Position.Z - dist*cos

	// 6. Столкновения
	coord, code, ok := ctx.Map.Lookup(tx, tz)
	res.Coord = coord
	res.Tile = code
	if !ok || code == domain.TileWall {
		res.Bounced = true
		res.OutOfBounds = !ok
		res.Tile = domain.TileWall
		bounce(v, in, sin, cos, &res)
		return res
	}
	v.Position.X = tx
	v.Position.Z = tz

	// 7. Особые тайлы
	switch code {
	case domain.TileMud:
		// Брызги только когда грязь реально тормозит
		if v.Speed > mudSpeedCeiling {
			v.Speed = mudSpeedCeiling
			if ctx.Frame%2 == 0 {
				res.Cues = append(res.Cues, domain.CueMud)
			}
		}
	case domain.TileBoost:
		if ctx.Current != domain.TileBoost {
			res.Cues = append(res.Cues, domain.CueBoostPadEnter)
		}
	}

	return res
}

func steer(v *domain.Vehicle, in *domain.Input, l domain.Limits, r float64) {
	step := l.TurnSpeed
	if r >= 1 {
		step *= r
	}
	switch {
	case in.Left:
		v.TurnSpeed += step
	case in.Right:
		v.TurnSpeed -= step
	default:
		v.TurnSpeed /= 1 + l.TurnFriction*r
	}
}

func throttle(v *domain.Vehicle, in *domain.Input, l domain.Limits, r float64) {
	switch {
	case in.Accelerate:
		if v.Speed < kickstartBelow {
			v.Speed = kickstartSpeed
		}
		v.Speed *= 1 + l.Acceleration*r
	case in.Brake:
		if v.Speed > 0 {
			v.Speed /= 1 + l.Brake*r
		}
	default:
		v.Speed /= 1 + l.Friction*r
	}
}

// capSpeed ограничивает скорость сверху. Буст снимается по истечении.
func capSpeed(v *domain.Vehicle, l domain.Limits, r float64, now time.Time) {
	if v.BoostActive && !v.Boosted(now) {
		v.BoostActive = false
	}

	limit := l.MaxSpeed
	if v.BoostActive {
		limit = l.BoostedMax()
	}

	if v.Speed > limit+overCapMargin {
		v.Speed -= overCapBleed * r
	} else if v.Speed > limit {
		v.Speed = limit
	}

	if v.Speed > 0 && v.Speed < stopThreshold {
		v.Speed = 0
	}
}

// reverse: задний ход по тормозу с места, иначе отрицательная скорость
// затухает к нулю и не перескакивает его.
func reverse(v *domain.Vehicle, in *domain.Input, l domain.Limits, r float64) {
	if in.Brake && v.Speed <= 0 {
		v.Speed = l.ReverseSpeed
		return
	}
	if v.Speed < 0 {
		v.Speed += reverseDecay * r
		if v.Speed > -stopThreshold {
			v.Speed = 0
		}
	}
}

// bounce - двухфазный отскок: при движении вперед (или стоя) скорость
// инвертируется и машину отталкивает назад; при движении назад - остановка.
func bounce(v *domain.Vehicle, in *domain.Input, sin, cos float64, res *StepResult) {
	in.Accelerate = false
	in.Brake = false

	if v.Speed < 0 {
		v.Speed = 0
		return
	}

	v.Speed = -v.Speed
	v.Position.X -= (v.Speed - bounceNudge) * sin
	v.Position.Z -= (v.Speed - bounceNudge) * cos
	res.Cues = append(res.Cues, domain.CueBump, domain.CueImpact)

	logger.Log.WithFields(logrus.Fields{
		"component": "physics_system",
		"x":         v.Position.X,
		"z":         v.Position.Z,
		"speed":     v.Speed,
	}).Debug("Wall bounce")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
