package agent

import (
	"math"
	"os"
	"testing"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/internal/engine"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/khushisaxena01/boomkart/pkg/track"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func ovalRace(t *testing.T) (*track.Track, *engine.Race) {
	t.Helper()
	tr, err := track.Load("", track.OvalName)
	if err != nil {
		t.Fatal(err)
	}
	race, err := engine.NewRace(engine.RaceOptions{Track: tr})
	if err != nil {
		t.Fatal(err)
	}
	return tr, race
}

func TestAutopilot_StraightAhead(t *testing.T) {
	tr, race := ovalRace(t)
	a := NewAutopilot(tr)

	// Старт смотрит на первую точку маршрута
	in := a.Input(race)
	if !in.Accelerate || in.Left || in.Right {
		t.Errorf("Input = %+v, want straight acceleration", in)
	}
}

func TestAutopilot_Steering(t *testing.T) {
	tr, race := ovalRace(t)
	a := NewAutopilot(tr)
	target, _ := a.Target()

	tests := []struct {
		name      string
		dx, dz    float64 // смещение цели относительно машины
		left      bool
		right     bool
		accelerat bool
	}{
		{"target ahead", 0, -20, false, false, true},
		{"target right", 20, 0, false, true, false},
		{"target left", -20, 0, true, false, false},
		{"slightly left", -3, -20, true, false, true},
		{"inside deadzone", 0.5, -20, false, false, true},
		{"target behind", 0.1, 20, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			race.Vehicle.Angle = 0
			race.Vehicle.Position.X = target.X - tt.dx
			race.Vehicle.Position.Z = target.Z - tt.dz

			in := a.Input(race)
			if in.Left != tt.left || in.Right != tt.right || in.Accelerate != tt.accelerat {
				t.Errorf("Input = %+v, want left=%v right=%v accel=%v",
					in, tt.left, tt.right, tt.accelerat)
			}
		})
	}
}

func TestAutopilot_AdvancesWaypoint(t *testing.T) {
	tr, race := ovalRace(t)
	a := NewAutopilot(tr)

	first, _ := a.Target()
	race.Vehicle.Position.X = first.X + 1
	race.Vehicle.Position.Z = first.Z

	a.Input(race)
	got, _ := a.Target()
	if got != tr.Waypoints[1] {
		t.Errorf("Target = %+v, want second waypoint %+v", got, tr.Waypoints[1])
	}

	// После последней точки - снова первая
	for i := 1; i < len(tr.Waypoints); i++ {
		p, _ := a.Target()
		race.Vehicle.Position = p
		a.Input(race)
	}
	if got, _ := a.Target(); got != first {
		t.Errorf("route did not wrap: %+v", got)
	}
}

func TestAutopilot_FallbackRoute(t *testing.T) {
	f := track.GenerateOval()
	f.Waypoints = nil
	tr, err := track.FromFile("no-route", f)
	if err != nil {
		t.Fatal(err)
	}

	a := NewAutopilot(tr)
	if len(a.route) != 2 {
		t.Fatalf("route = %d points, want checkpoint and finish", len(a.route))
	}

	// Чекпоинт справа от центра, финиш слева
	if a.route[0].X <= 0 || a.route[1].X >= 0 {
		t.Errorf("route = %+v", a.route)
	}
}

func TestAutopilot_EmptyRoute(t *testing.T) {
	m, err := domain.NewTileMap([][]domain.TileCode{{domain.TileRoad}})
	if err != nil {
		t.Fatal(err)
	}
	a := NewAutopilot(&track.Track{Name: "empty", Map: m})
	if _, ok := a.Target(); ok {
		t.Error("empty map must have no target")
	}
	if in := a.Input(&engine.Race{Vehicle: domain.NewVehicle(0, 0, 0)}); in != (domain.Input{}) {
		t.Errorf("Input = %+v, want idle", in)
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{190, -170},
		{-190, 170},
		{540, 180},
		{-180, 180},
		{359, -1},
	}
	for _, tt := range tests {
		if got := normalizeAngle(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("normalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
