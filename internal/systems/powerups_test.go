package systems

import (
	"testing"
	"time"

	"github.com/khushisaxena01/boomkart/internal/domain"
)

func TestCollectPowerups_CollectedOnce(t *testing.T) {
	l := testLimits()
	v := domain.NewVehicle(10, 10, 0)
	p := &domain.Powerup{ID: 1, Type: domain.PowerupShell, Position: domain.Vec3{X: 10.5, Z: 10}}
	far := &domain.Powerup{ID: 2, Type: domain.PowerupObstacle, Position: domain.Vec3{X: 30, Z: 30}}

	active, got := CollectPowerups(v, []*domain.Powerup{p, far}, l, testNow)
	if len(got) != 1 || got[0] != p {
		t.Fatalf("collected = %v, want the shell", got)
	}
	if !p.Collected {
		t.Error("Collected flag must be set")
	}
	if len(active) != 1 || active[0] != far {
		t.Errorf("active = %v, want only the far obstacle", active)
	}

	// Машина остается в радиусе: эффект не повторяется
	v.Speed = 0.1
	_, again := CollectPowerups(v, active, l, testNow)
	if len(again) != 0 || v.Speed != 0.1 {
		t.Errorf("Powerup triggered twice: collected=%v speed=%v", again, v.Speed)
	}

	// Даже если собранный бонус снова попал в набор
	_, again = CollectPowerups(v, []*domain.Powerup{p}, l, testNow)
	if len(again) != 0 || v.Speed != 0.1 {
		t.Errorf("Collected powerup must never be reconsidered: %v", again)
	}
}

func TestApplyPowerup(t *testing.T) {
	l := testLimits()

	tests := []struct {
		name      string
		kind      domain.PowerupType
		speed     float64
		wantSpeed float64
		wantBoost bool
		wantOK    bool
	}{
		{"speed doubles", domain.PowerupSpeed, 0.2, 0.4, true, true},
		{"speed capped at boosted max", domain.PowerupSpeed, 0.4, l.BoostedMax(), true, true},
		{"shell", domain.PowerupShell, 0.1, l.BoostedMax(), false, true},
		{"obstacle", domain.PowerupObstacle, 0.35, 0, false, true},
		{"unknown ignored", domain.PowerupType("banana"), 0.3, 0.3, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := domain.NewVehicle(0, 0, 0)
			v.Speed = tt.speed
			v.TurnSpeed = 1.5

			ok := ApplyPowerup(v, tt.kind, l, testNow)

			if ok != tt.wantOK {
				t.Errorf("ApplyPowerup() = %v, want %v", ok, tt.wantOK)
			}
			if v.Speed != tt.wantSpeed {
				t.Errorf("Speed = %v, want %v", v.Speed, tt.wantSpeed)
			}
			if v.BoostActive != tt.wantBoost {
				t.Errorf("BoostActive = %v, want %v", v.BoostActive, tt.wantBoost)
			}
			if tt.kind == domain.PowerupObstacle && v.TurnSpeed != 0 {
				t.Errorf("Obstacle must zero turn-rate, got %v", v.TurnSpeed)
			}
		})
	}
}

func TestApplyPowerup_SpeedRetriggerReplacesExpiry(t *testing.T) {
	l := testLimits()
	v := domain.NewVehicle(0, 0, 0)

	ApplyPowerup(v, domain.PowerupSpeed, l, testNow)
	if !v.BoostUntil.Equal(testNow.Add(BoostDuration)) {
		t.Fatalf("BoostUntil = %v", v.BoostUntil)
	}

	later := testNow.Add(time.Second)
	ApplyPowerup(v, domain.PowerupSpeed, l, later)
	if !v.BoostUntil.Equal(later.Add(BoostDuration)) {
		t.Errorf("Re-trigger must restart the window, BoostUntil = %v", v.BoostUntil)
	}
}
