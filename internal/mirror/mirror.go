// Package mirror отображает снимки удаленных игроков на прокси в сцене.
// Физика для удаленных игроков не считается: каждый снимок просто
// перезаписывает позу прокси.
package mirror

import (
	"sort"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/pkg/api"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Proxy - визуальное представление удаленного игрока.
type Proxy interface {
	SetPose(pos domain.Vec3, angle float64)
	Destroy()
}

// Scene создает прокси. Может вернуть nil, если модель гонщика еще не готова:
// тогда попытка повторится на следующем снимке.
type Scene interface {
	Spawn(id, racer string) Proxy
}

type Mirror struct {
	scene   Scene
	proxies map[string]Proxy
	snaps   map[string]api.PlayerState
	log     *logrus.Entry
}

// New принимает nil scene: тогда хранятся только снимки.
func New(scene Scene) *Mirror {
	return &Mirror{
		scene:   scene,
		proxies: make(map[string]Proxy),
		snaps:   make(map[string]api.PlayerState),
		log:     logger.Component("mirror"),
	}
}

// Apply - последний снимок побеждает.
func (m *Mirror) Apply(p api.PlayerState) {
	if p.ID == "" {
		return
	}
	m.snaps[p.ID] = p

	proxy, ok := m.proxies[p.ID]
	if !ok {
		proxy = m.spawn(p)
		if proxy == nil {
			return
		}
	}
	proxy.SetPose(domain.Vec3{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z}, p.Angle)
}

func (m *Mirror) spawn(p api.PlayerState) Proxy {
	if m.scene == nil {
		return nil
	}

	skin := p.Racer
	if _, known := domain.LookupRacer(skin); !known {
		skin = domain.DefaultRacer
	}

	proxy := m.scene.Spawn(p.ID, skin)
	if proxy == nil {
		m.log.WithField("peer", p.ID).Debug("Proxy not ready, will retry")
		return nil
	}
	m.proxies[p.ID] = proxy
	m.log.WithFields(logrus.Fields{
		"peer":  p.ID,
		"racer": skin,
	}).Info("Remote player spawned")
	return proxy
}

// Remove уничтожает прокси и забывает снимок.
func (m *Mirror) Remove(id string) {
	if proxy, ok := m.proxies[id]; ok {
		proxy.Destroy()
		delete(m.proxies, id)
	}
	delete(m.snaps, id)
}

func (m *Mirror) Clear() {
	for id := range m.snaps {
		m.Remove(id)
	}
	for id := range m.proxies {
		m.Remove(id)
	}
}

func (m *Mirror) Snapshot(id string) (api.PlayerState, bool) {
	p, ok := m.snaps[id]
	return p, ok
}

// Snapshots упорядочены по id.
func (m *Mirror) Snapshots() []api.PlayerState {
	out := make([]api.PlayerState, 0, len(m.snaps))
	for _, p := range m.snaps {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Mirror) Count() int {
	return len(m.snaps)
}
