package systems

import (
	"testing"
	"time"

	"github.com/khushisaxena01/boomkart/internal/domain"
)

func timingLap(maxLaps int) *domain.Lap {
	l := domain.NewLap(maxLaps)
	l.State = domain.LapTiming
	return l
}

func TestCrossTile_FirstFinishStartsTiming(t *testing.T) {
	l := domain.NewLap(3)
	l.Current = 5 * time.Second

	if ev := CrossTile(l, domain.TileRoad, domain.TileFinish); ev != LapEventStarted {
		t.Fatalf("event = %v, want started", ev)
	}
	if l.State != domain.LapTiming || l.Current != 0 || l.Count != 0 {
		t.Errorf("Unexpected lap after start: %+v", l)
	}
}

func TestCrossTile_FinishWithoutCheckpoint(t *testing.T) {
	tests := []struct {
		name string
		prev domain.TileCode
	}{
		{"from road", domain.TileRoad},
		{"from mud", domain.TileMud},
		{"backing over from wall contact", domain.TileWall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := timingLap(3)
			l.Current = 12 * time.Second

			ev := CrossTile(l, tt.prev, domain.TileFinish)
			if ev != LapEventNone {
				t.Errorf("event = %v, want none", ev)
			}
			if l.Count != 0 || len(l.Times) != 0 {
				t.Errorf("Finish without checkpoint must not count a lap: %+v", l)
			}
			if l.Current != 12*time.Second {
				t.Errorf("Current lap timer must keep running, got %v", l.Current)
			}
		})
	}
}

func TestCrossTile_CompletesLap(t *testing.T) {
	l := timingLap(3)
	l.Current = 20 * time.Second

	CrossTile(l, domain.TileRoad, domain.TileCheckpoint)
	if !l.Checkpoint {
		t.Fatal("Checkpoint flag must be set on entry")
	}

	if ev := CrossTile(l, domain.TileRoad, domain.TileFinish); ev != LapEventCompleted {
		t.Fatalf("event = %v, want completed", ev)
	}
	if l.Count != 1 {
		t.Errorf("Count = %d, want 1", l.Count)
	}
	if l.Current != 0 {
		t.Errorf("Current = %v, want reset to 0", l.Current)
	}
	if len(l.Times) != 1 || l.Times[0] != 20*time.Second {
		t.Errorf("Times = %v, want [20s]", l.Times)
	}
	if l.Last != 20*time.Second || l.Best != 20*time.Second || l.Total != 20*time.Second {
		t.Errorf("Last/Best/Total = %v/%v/%v", l.Last, l.Best, l.Total)
	}
	if l.Checkpoint {
		t.Error("Checkpoint flag must be cleared after a lap")
	}

	// Стоять на линии - не новый въезд
	if ev := CrossTile(l, domain.TileFinish, domain.TileFinish); ev != LapEventNone {
		t.Errorf("Staying on the line must be a no-op, got %v", ev)
	}
}

func TestCrossTile_BestIsMinimum(t *testing.T) {
	l := timingLap(5)
	for _, d := range []time.Duration{30 * time.Second, 25 * time.Second, 28 * time.Second} {
		l.Current = d
		CrossTile(l, domain.TileRoad, domain.TileCheckpoint)
		CrossTile(l, domain.TileRoad, domain.TileFinish)
	}

	if l.Best != 25*time.Second {
		t.Errorf("Best = %v, want 25s", l.Best)
	}
	if l.Last != 28*time.Second {
		t.Errorf("Last = %v, want 28s", l.Last)
	}
	if l.Total != 83*time.Second {
		t.Errorf("Total = %v, want 83s", l.Total)
	}
	if l.Average() != 83*time.Second/3 {
		t.Errorf("Average = %v", l.Average())
	}
}

func TestCrossTile_FinishesAtMaxLaps(t *testing.T) {
	l := timingLap(3)
	var events []LapEvent
	for i := 0; i < 3; i++ {
		TickLap(l, 10*time.Second)
		CrossTile(l, domain.TileRoad, domain.TileCheckpoint)
		events = append(events, CrossTile(l, domain.TileRoad, domain.TileFinish))
	}

	want := []LapEvent{LapEventCompleted, LapEventCompleted, LapEventFinished}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("lap %d event = %v, want %v", i+1, events[i], want[i])
		}
	}
	if l.State != domain.LapFinished || l.Count != 3 {
		t.Errorf("Lap = %+v, want finished with 3 laps", l)
	}

	// После финиша ничего не считается и время стоит
	TickLap(l, time.Second)
	CrossTile(l, domain.TileRoad, domain.TileCheckpoint)
	if ev := CrossTile(l, domain.TileRoad, domain.TileFinish); ev != LapEventNone || l.Count != 3 {
		t.Errorf("Finished race must ignore crossings, got %v count=%d", ev, l.Count)
	}
	if l.Current != 0 {
		t.Errorf("Timer must stop after finish, got %v", l.Current)
	}
}
