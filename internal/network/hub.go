// Package network - реестр сервиса рандеву: кто зарегистрирован, кто
// принимает соединения и какие линки открыты между пирами.
package network

import (
	"errors"
	"sort"
	"sync"

	"github.com/khushisaxena01/boomkart/pkg/api"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/khushisaxena01/boomkart/pkg/utils"
	"github.com/sirupsen/logrus"
)

var (
	ErrIDTaken      = errors.New("peer id is already taken")
	ErrUnknownPeer  = errors.New("unknown peer")
	ErrNotListening = errors.New("peer is not accepting connections")
	ErrUnknownLink  = errors.New("unknown link")
)

type peer struct {
	send      chan<- api.RelayFrame
	listening bool
	links     map[string]struct{}
}

// Link - соединение между двумя пирами. A - инициатор.
type Link struct {
	ID string
	A  string
	B  string
}

// Other возвращает вторую сторону линка.
func (l Link) Other(id string) (string, bool) {
	switch id {
	case l.A:
		return l.B, true
	case l.B:
		return l.A, true
	}
	return "", false
}

// PeerInfo - строка отладочного дампа.
type PeerInfo struct {
	ID        string `json:"id"`
	Listening bool   `json:"listening"`
	Links     int    `json:"links"`
}

// Registry занимается только учетом и доставкой кадров.
// Каналы принадлежат клиентам: Registry в них пишет, но не закрывает.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*peer
	links map[string]Link
	log   *logrus.Entry
}

func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[string]*peer),
		links: make(map[string]Link),
		log:   logger.Component("registry"),
	}
}

// Register закрепляет id за клиентом. Пустой id - выдать новый.
func (r *Registry) Register(id string, send chan<- api.RelayFrame) (string, error) {
	if id == "" {
		id = utils.GeneratePrefixedID("peer_")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.peers[id]; taken {
		return "", ErrIDTaken
	}
	r.peers[id] = &peer{send: send, links: make(map[string]struct{})}
	return id, nil
}

// Unregister удаляет клиента и закрывает все его линки: вторые стороны
// получают close. После возврата Registry больше не пишет в канал клиента.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[id]
	if !ok {
		return
	}
	for linkID := range p.links {
		r.closeLinkLocked(id, linkID)
	}
	delete(r.peers, id)
}

func (r *Registry) SetListening(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[id]
	if !ok {
		return ErrUnknownPeer
	}
	p.listening = true
	return nil
}

// Connect открывает линк from -> target и отправляет target кадр incoming.
func (r *Registry) Connect(from, target string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.peers[from]
	if !ok {
		return "", ErrUnknownPeer
	}
	dst, ok := r.peers[target]
	if !ok {
		return "", ErrUnknownPeer
	}
	if !dst.listening {
		return "", ErrNotListening
	}

	link := Link{ID: utils.GeneratePrefixedID("link_"), A: from, B: target}
	r.links[link.ID] = link
	src.links[link.ID] = struct{}{}
	dst.links[link.ID] = struct{}{}

	r.deliverLocked(target, api.RelayFrame{Kind: api.FrameIncoming, Peer: from, Link: link.ID})
	return link.ID, nil
}

// Forward пересылает кадр второй стороне линка.
func (r *Registry) Forward(from string, f api.RelayFrame) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[f.Link]
	if !ok {
		return ErrUnknownLink
	}
	other, ok := link.Other(from)
	if !ok {
		return ErrUnknownLink
	}
	if !r.deliverLocked(other, f) {
		return ErrUnknownPeer
	}
	return nil
}

// CloseLink закрывает линк по инициативе from.
func (r *Registry) CloseLink(from, linkID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[linkID]
	if !ok {
		return ErrUnknownLink
	}
	if _, member := link.Other(from); !member {
		return ErrUnknownLink
	}
	r.closeLinkLocked(from, linkID)
	return nil
}

// SendTo - unicast. false, если клиента нет или его очередь полна.
func (r *Registry) SendTo(id string, f api.RelayFrame) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deliverLocked(id, f)
}

func (r *Registry) PeerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

func (r *Registry) LinkCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.links)
}

// Snapshot - состояние реестра для /debug/peers.
func (r *Registry) Snapshot() []PeerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PeerInfo, 0, len(r.peers))
	for id, p := range r.peers {
		out = append(out, PeerInfo{ID: id, Listening: p.listening, Links: len(p.links)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) closeLinkLocked(from, linkID string) {
	link, ok := r.links[linkID]
	if !ok {
		return
	}
	delete(r.links, linkID)

	for _, id := range []string{link.A, link.B} {
		if p, ok := r.peers[id]; ok {
			delete(p.links, linkID)
		}
	}
	if other, ok := link.Other(from); ok {
		r.deliverLocked(other, api.RelayFrame{Kind: api.FrameClose, Link: linkID})
	}
}

func (r *Registry) deliverLocked(id string, f api.RelayFrame) bool {
	p, ok := r.peers[id]
	if !ok {
		return false
	}
	select {
	case p.send <- f:
		return true
	default:
		r.log.WithFields(logrus.Fields{
			"peer": id,
			"kind": f.Kind,
		}).Warn("Peer queue full, dropping frame")
		return false
	}
}
