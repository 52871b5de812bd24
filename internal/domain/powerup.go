package domain

// PowerupType - тип бонуса на трассе.
type PowerupType string

const (
	PowerupSpeed    PowerupType = "speed"
	PowerupShell    PowerupType = "shell"
	PowerupObstacle PowerupType = "obstacle"
)

// Known проверяет, что тип бонуса нам известен.
func (t PowerupType) Known() bool {
	switch t {
	case PowerupSpeed, PowerupShell, PowerupObstacle:
		return true
	}
	return false
}

// Powerup - бонус, размещенный на трассе.
// Collected меняется только false -> true.
type Powerup struct {
	ID        int
	Type      PowerupType
	Position  Vec3
	Collected bool
	// Phase - смещение фазы анимации (покачивание, вращение).
	Phase float64
}
