package systems

import (
	"math"
	"time"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	PickupRadius    = 0.9
	SpeedMultiplier = 2.0
	BoostDuration   = 3000 * time.Millisecond
)

// InPickupRange - евклидово расстояние в плоскости XZ.
func InPickupRange(v *domain.Vehicle, p *domain.Powerup) bool {
	dx := v.Position.X - p.Position.X
	dz := v.Position.Z - p.Position.Z
	return math.Hypot(dx, dz) < PickupRadius
}

// CollectPowerups проверяет активные бонусы и применяет подобранные.
// Возвращает оставшийся активный набор и подобранные бонусы.
// Подобранный бонус в активный набор больше не попадает. Слайс active переиспользуется.
func CollectPowerups(v *domain.Vehicle, active []*domain.Powerup, l domain.Limits, now time.Time) (remaining, collected []*domain.Powerup) {
	remaining = active[:0]
	for _, p := range active {
		if p.Collected {
			continue
		}
		if !InPickupRange(v, p) {
			remaining = append(remaining, p)
			continue
		}

		p.Collected = true
		ApplyPowerup(v, p.Type, l, now)
		collected = append(collected, p)
	}
	return remaining, collected
}

// ApplyPowerup применяет эффект бонуса к машине.
// Неизвестный тип логируется и игнорируется.
func ApplyPowerup(v *domain.Vehicle, t domain.PowerupType, l domain.Limits, now time.Time) bool {
	switch t {
	case domain.PowerupSpeed:
		v.Speed = math.Min(v.Speed*SpeedMultiplier, l.BoostedMax())
		// Повторный подбор заменяет срок, а не складывается
		v.BoostActive = true
		v.BoostUntil = now.Add(BoostDuration)
	case domain.PowerupShell:
		v.Speed = l.BoostedMax()
	case domain.PowerupObstacle:
		v.Stop()
	default:
		logger.Log.WithFields(logrus.Fields{
			"component": "powerup_system",
			"type":      string(t),
		}).Warn("Unknown powerup type, ignoring")
		return false
	}
	return true
}
