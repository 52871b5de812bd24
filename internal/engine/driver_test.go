package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/internal/mirror"
	"github.com/khushisaxena01/boomkart/pkg/api"
)

type fakeNetwork struct {
	active bool
	polls  int
	sent   []api.PlayerState
	err    error
}

func (n *fakeNetwork) Poll() int      { n.polls++; return 0 }
func (n *fakeNetwork) IsActive() bool { return n.active }
func (n *fakeNetwork) SendPlayerUpdate(s api.PlayerState) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, s)
	return nil
}

type fakeRenderer struct {
	views []FrameView
}

func (r *fakeRenderer) Render(v FrameView) { r.views = append(r.views, v) }

type constInput domain.Input

func (c constInput) Input(*Race) domain.Input { return domain.Input(c) }

func TestDriver_Decimation(t *testing.T) {
	tests := []struct {
		name        string
		constrained bool
		frames      int
		wantSent    int
	}{
		{"desktop every 3rd", false, 30, 10},
		{"constrained every 5th", true, 30, 6},
		{"desktop partial", false, 8, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Constrained = tt.constrained

			race := newTestRace(t, nil, nil)
			now := time.Unix(1700000000, 0)
			race.Start(now)

			net := &fakeNetwork{active: true}
			d := NewDriver(cfg, race, nil, nil, net, nil)
			for i := 0; i < tt.frames; i++ {
				now = now.Add(frameTime)
				d.Frame(now)
			}

			if len(net.sent) != tt.wantSent || d.Sent() != tt.wantSent {
				t.Errorf("sent = %d, want %d", len(net.sent), tt.wantSent)
			}
			if net.polls != tt.frames {
				t.Errorf("polls = %d, want one per frame", net.polls)
			}
		})
	}
}

func TestDriver_InactiveNetworkSendsNothing(t *testing.T) {
	race := newTestRace(t, nil, nil)
	race.Start(time.Now())

	net := &fakeNetwork{}
	d := NewDriver(NewConfig(), race, nil, nil, net, nil)
	now := time.Now()
	for i := 0; i < 12; i++ {
		now = now.Add(frameTime)
		d.Frame(now)
	}
	if len(net.sent) != 0 {
		t.Errorf("sent %d updates without an active session", len(net.sent))
	}
}

func TestDriver_SendErrorKeepsSimulating(t *testing.T) {
	race := newTestRace(t, nil, nil)
	race.Start(time.Now())

	net := &fakeNetwork{active: true, err: errors.New("link down")}
	d := NewDriver(NewConfig(), race, constInput{Accelerate: true}, nil, net, nil)
	now := time.Now()
	for i := 0; i < 6; i++ {
		now = now.Add(frameTime)
		d.Frame(now)
	}
	if race.Frame() != 6 || race.Vehicle.Speed <= 0 {
		t.Errorf("simulation stalled: frame=%d speed=%v", race.Frame(), race.Vehicle.Speed)
	}
	if d.Sent() != 0 {
		t.Errorf("Sent = %d, want 0 on errors", d.Sent())
	}
}

func TestDriver_RenderView(t *testing.T) {
	race := newTestRace(t, nil, nil)
	race.Start(time.Now())

	m := mirror.New(nil)
	m.Apply(api.PlayerState{ID: "peer_a", Racer: "kartA"})

	rnd := &fakeRenderer{}
	d := NewDriver(NewConfig(), race, nil, rnd, nil, m)
	d.Frame(time.Now())

	if len(rnd.views) != 1 {
		t.Fatalf("Render calls = %d, want 1", len(rnd.views))
	}
	v := rnd.views[0]
	if v.Frame != 1 || v.State != RaceRunning || len(v.Remotes) != 1 || len(v.Powerups) != 1 {
		t.Errorf("view = %+v", v)
	}
}

func TestDriver_RunStopsOnCancel(t *testing.T) {
	cfg := NewConfig()
	cfg.FPS = 200
	race := newTestRace(t, nil, nil)
	d := NewDriver(cfg, race, nil, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := d.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline", err)
	}
	if race.State() != RaceRunning {
		t.Errorf("state = %v, want running", race.State())
	}
}

func TestSelectRacer(t *testing.T) {
	var picked domain.Racer
	err := SelectRacer("kartA", func(r domain.Racer) error {
		picked = r
		return nil
	})
	if err != nil || picked.Name != "Yestermobile" {
		t.Errorf("SelectRacer = %v, picked %+v", err, picked)
	}

	called := false
	err = SelectRacer("hovercraft", func(domain.Racer) error { called = true; return nil })
	if !errors.Is(err, ErrUnknownRacer) || called {
		t.Errorf("unknown racer: err=%v called=%v", err, called)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvRelayURL, "ws://relay.example:9000/ws")
	t.Setenv(EnvDataDir, "/tmp/kart")

	cfg := NewConfig()
	if cfg.RelayURL != "ws://relay.example:9000/ws" || cfg.DataDir != "/tmp/kart" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SendEvery() != 3 {
		t.Errorf("SendEvery = %d, want 3", cfg.SendEvery())
	}
}
