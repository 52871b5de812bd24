package mirror

import (
	"os"
	"testing"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/pkg/api"
	"github.com/khushisaxena01/boomkart/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type fakeProxy struct {
	pos       domain.Vec3
	angle     float64
	poses     int
	destroyed bool
}

func (p *fakeProxy) SetPose(pos domain.Vec3, angle float64) {
	p.pos, p.angle = pos, angle
	p.poses++
}

func (p *fakeProxy) Destroy() { p.destroyed = true }

type fakeScene struct {
	spawned map[string]string
	proxies map[string]*fakeProxy
	// notReady - сколько раз подряд Spawn вернет nil
	notReady int
}

func newFakeScene() *fakeScene {
	return &fakeScene{spawned: map[string]string{}, proxies: map[string]*fakeProxy{}}
}

func (s *fakeScene) Spawn(id, racer string) Proxy {
	if s.notReady > 0 {
		s.notReady--
		return nil
	}
	p := &fakeProxy{}
	s.spawned[id] = racer
	s.proxies[id] = p
	return p
}

func snapshot(id, racer string, x, z, angle float64) api.PlayerState {
	return api.PlayerState{
		ID:       id,
		Racer:    racer,
		Position: api.Position{X: x, Y: domain.VehicleHeight, Z: z},
		Angle:    angle,
	}
}

func TestMirror_LazySpawnAndOverwrite(t *testing.T) {
	scene := newFakeScene()
	m := New(scene)

	m.Apply(snapshot("peer_a", "kartC", 1, 2, 90))
	m.Apply(snapshot("peer_a", "kartC", 5, 6, 180))

	if len(scene.spawned) != 1 || scene.spawned["peer_a"] != "kartC" {
		t.Fatalf("spawned = %v, want one kartC proxy", scene.spawned)
	}
	p := scene.proxies["peer_a"]
	if p.poses != 2 {
		t.Errorf("SetPose calls = %d, want 2", p.poses)
	}
	if p.pos.X != 5 || p.pos.Z != 6 || p.angle != 180 {
		t.Errorf("pose = %+v %v, want last snapshot", p.pos, p.angle)
	}
}

func TestMirror_UnknownRacerUsesDefaultSkin(t *testing.T) {
	scene := newFakeScene()
	m := New(scene)

	m.Apply(snapshot("peer_a", "hovercraft", 0, 0, 0))
	if got := scene.spawned["peer_a"]; got != domain.DefaultRacer {
		t.Errorf("skin = %q, want %q", got, domain.DefaultRacer)
	}
}

func TestMirror_SpawnRetry(t *testing.T) {
	scene := newFakeScene()
	scene.notReady = 1
	m := New(scene)

	m.Apply(snapshot("peer_a", "kartA", 1, 1, 0))
	if _, ok := scene.proxies["peer_a"]; ok {
		t.Fatal("proxy must not exist while scene is not ready")
	}
	if _, ok := m.Snapshot("peer_a"); !ok {
		t.Error("snapshot must be cached even without a proxy")
	}

	m.Apply(snapshot("peer_a", "kartA", 2, 2, 0))
	if p, ok := scene.proxies["peer_a"]; !ok || p.pos.X != 2 {
		t.Error("proxy must be spawned on the next snapshot")
	}
}

func TestMirror_Remove(t *testing.T) {
	scene := newFakeScene()
	m := New(scene)

	m.Apply(snapshot("peer_a", "kartA", 1, 1, 0))
	m.Apply(snapshot("peer_b", "kartB", 2, 2, 0))
	m.Remove("peer_a")

	if !scene.proxies["peer_a"].destroyed {
		t.Error("proxy must be destroyed on leave")
	}
	if _, ok := m.Snapshot("peer_a"); ok {
		t.Error("snapshot must be discarded on leave")
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1", m.Count())
	}

	m.Clear()
	if m.Count() != 0 || !scene.proxies["peer_b"].destroyed {
		t.Error("Clear must destroy everything")
	}
}

func TestMirror_NilScene(t *testing.T) {
	m := New(nil)
	m.Apply(snapshot("peer_b", "kartB", 1, 1, 0))
	m.Apply(snapshot("peer_a", "kartA", 1, 1, 0))
	m.Apply(api.PlayerState{})

	snaps := m.Snapshots()
	if len(snaps) != 2 || snaps[0].ID != "peer_a" {
		t.Errorf("Snapshots = %v", snaps)
	}
}
