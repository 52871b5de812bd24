package engine

import (
	"context"
	"time"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/internal/mirror"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/sirupsen/logrus"
)

// maxFrameElapsed ограничивает шаг после долгой паузы (свернутое окно, отладчик).
const maxFrameElapsed = 250 * time.Millisecond

// Driver связывает гонку, ввод, сеть и отрисовку. Держит не больше одной
// гонки и одной сетевой сессии. Сеть никогда не блокирует кадр.
type Driver struct {
	cfg      Config
	race     *Race
	input    InputSource
	renderer Renderer
	net      Network
	mirror   *mirror.Mirror

	frame int
	last  time.Time
	sent  int
	log   *logrus.Entry
}

// NewDriver: input, renderer, net и m могут быть nil.
func NewDriver(cfg Config, race *Race, input InputSource, renderer Renderer, net Network, m *mirror.Mirror) *Driver {
	return &Driver{
		cfg:      cfg,
		race:     race,
		input:    input,
		renderer: renderer,
		net:      net,
		mirror:   m,
		log:      logger.Component("driver"),
	}
}

func (d *Driver) Race() *Race { return d.race }

// Sent - сколько снимков ушло в сеть.
func (d *Driver) Sent() int { return d.sent }

// Frame выполняет один кадр.
func (d *Driver) Frame(now time.Time) {
	var elapsed time.Duration
	if !d.last.IsZero() {
		elapsed = now.Sub(d.last)
	}
	if elapsed > maxFrameElapsed {
		elapsed = maxFrameElapsed
	}
	d.last = now
	d.frame++

	// 1. Входящие сообщения
	if d.net != nil {
		d.net.Poll()
	}

	// 2. Симуляция
	var in domain.Input
	if d.input != nil {
		in = d.input.Input(d.race)
	}
	d.race.Step(in, elapsed, now)

	// 3. Свой снимок - раз в SendEvery кадров
	if d.net != nil && d.net.IsActive() && d.frame%d.cfg.SendEvery() == 0 {
		if err := d.net.SendPlayerUpdate(d.race.Snapshot()); err != nil {
			d.log.WithError(err).Warn("Failed to send player update")
		} else {
			d.sent++
		}
	}

	// 4. Отрисовка
	if d.renderer != nil {
		d.renderer.Render(d.view())
	}
}

func (d *Driver) view() FrameView {
	v := FrameView{
		Frame:    d.frame,
		State:    d.race.State(),
		Vehicle:  *d.race.Vehicle,
		Lap:      *d.race.Lap,
		Powerups: d.race.Powerups,
	}
	if d.mirror != nil {
		v.Remotes = d.mirror.Snapshots()
	}
	return v
}

// Run крутит кадры по тикеру до финиша гонки или отмены контекста.
func (d *Driver) Run(ctx context.Context) error {
	fps := d.cfg.FPS
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	d.race.Start(time.Now())
	d.log.WithField("fps", fps).Info("Frame loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			d.Frame(now)
			if d.race.State() == RaceFinished {
				d.log.WithField("frames", d.frame).Info("Frame loop finished")
				return nil
			}
		}
	}
}
