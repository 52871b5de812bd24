package engine

import (
	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/pkg/api"
)

// Leaderboard - хранилище рекордов. Реализуется storage.Leaderboard.
type Leaderboard interface {
	BestFor(track string, laps int) (domain.LeaderboardEntry, bool, error)
	SaveTime(track string, entry domain.LeaderboardEntry) error
}

// Feedback - звук и частицы. На игровое состояние не влияет.
type Feedback interface {
	Cue(c domain.Cue, at domain.Vec3)
	RemovePowerup(p *domain.Powerup)
}

// Renderer получает готовый кадр.
type Renderer interface {
	Render(view FrameView)
}

// InputSource - клавиатура, геймпад или автопилот.
type InputSource interface {
	Input(r *Race) domain.Input
}

// Network - то, что драйверу нужно от сетевой сессии.
type Network interface {
	Poll() int
	IsActive() bool
	SendPlayerUpdate(state api.PlayerState) error
}

// FrameView - все, что нужно для отрисовки одного кадра.
type FrameView struct {
	Frame    int
	State    RaceState
	Vehicle  domain.Vehicle
	Lap      domain.Lap
	Powerups []*domain.Powerup
	Remotes  []api.PlayerState
}

type nopFeedback struct{}

func (nopFeedback) Cue(domain.Cue, domain.Vec3)   {}
func (nopFeedback) RemovePowerup(*domain.Powerup) {}
