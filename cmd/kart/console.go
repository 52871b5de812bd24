package main

import (
	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/internal/engine"
	"github.com/khushisaxena01/boomkart/internal/mirror"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/sirupsen/logrus"
)

// consoleRenderer - headless-отрисовка: раз в every кадров пишет сводку в лог.
type consoleRenderer struct {
	every int
	log   *logrus.Entry
}

func newConsoleRenderer(fps int) *consoleRenderer {
	if fps <= 0 {
		fps = 60
	}
	return &consoleRenderer{every: fps, log: logger.Component("render")}
}

func (r *consoleRenderer) Render(v engine.FrameView) {
	if v.Frame%r.every != 0 {
		return
	}
	r.log.WithFields(logrus.Fields{
		"frame":   v.Frame,
		"state":   v.State.String(),
		"lap":     v.Lap.Count,
		"x":       v.Vehicle.Position.X,
		"z":       v.Vehicle.Position.Z,
		"speed":   v.Vehicle.Speed,
		"remotes": len(v.Remotes),
	}).Info("Frame")
}

// consoleFeedback пишет сигналы в debug-лог.
type consoleFeedback struct {
	log *logrus.Entry
}

func newConsoleFeedback() *consoleFeedback {
	return &consoleFeedback{log: logger.Component("feedback")}
}

func (f *consoleFeedback) Cue(c domain.Cue, at domain.Vec3) {
	f.log.WithFields(logrus.Fields{"cue": c.String(), "x": at.X, "z": at.Z}).Debug("Cue")
}

func (f *consoleFeedback) RemovePowerup(p *domain.Powerup) {
	f.log.WithFields(logrus.Fields{"id": p.ID, "type": p.Type}).Info("Powerup collected")
}

// sceneLog - сцена для зеркала удаленных игроков без графики.
type sceneLog struct {
	log *logrus.Entry
}

type proxyLog struct {
	id  string
	log *logrus.Entry
}

func (s sceneLog) Spawn(id, racer string) mirror.Proxy {
	s.log.WithFields(logrus.Fields{"player": id, "racer": racer}).Info("Remote kart spawned")
	return proxyLog{id: id, log: s.log}
}

func (p proxyLog) SetPose(domain.Vec3, float64) {}

func (p proxyLog) Destroy() {
	p.log.WithField("player", p.id).Info("Remote kart removed")
}
