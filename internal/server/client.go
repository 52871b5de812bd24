package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/khushisaxena01/boomkart/internal/network"
	"github.com/khushisaxena01/boomkart/pkg/api"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между WebSocket и реестром рандеву
type Client struct {
	Registry *network.Registry
	Conn     *websocket.Conn
	Send     chan api.RelayFrame
	ID       string
	log      *logrus.Entry
}

func NewClient(reg *network.Registry, conn *websocket.Conn) *Client {
	return &Client{
		Registry: reg,
		Conn:     conn,
		Send:     make(chan api.RelayFrame, sendBuffer),
		log:      logger.Component("relay_client"),
	}
}

// readPump читает кадры клиента. Единственный, кто закрывает Send.
func (c *Client) readPump() {
	defer func() {
		if c.ID != "" {
			// Вторые стороны всех линков получат close
			c.Registry.Unregister(c.ID)
			c.log.WithField("peer", c.ID).Info("Client disconnected")
		}
		close(c.Send)
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	for {
		var f api.RelayFrame
		if err := c.Conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("WS read error")
			}
			return
		}
		c.handle(f)
	}
}

func (c *Client) handle(f api.RelayFrame) {
	if err := f.Validate(); err != nil {
		c.fail(f.Ref, api.RelayErrBadFrame)
		c.log.WithError(err).WithField("kind", f.Kind).Debug("Bad frame")
		return
	}

	// 1. До регистрации разрешен только register
	if f.Kind == api.FrameRegister {
		c.register(f)
		return
	}
	if c.ID == "" {
		c.fail(f.Ref, api.RelayErrNotRegistered)
		return
	}

	switch f.Kind {
	case api.FrameListen:
		if err := c.Registry.SetListening(c.ID); err != nil {
			c.fail("", api.RelayErrNotRegistered)
			return
		}
		c.reply(api.RelayFrame{Kind: api.FrameListening, ID: c.ID})
		c.log.WithField("peer", c.ID).Info("Peer is listening")

	case api.FrameConnect:
		c.connect(f)

	case api.FrameData:
		if err := c.Registry.Forward(c.ID, api.RelayFrame{Kind: api.FrameData, Link: f.Link, Data: f.Data}); err != nil {
			c.log.WithError(err).WithField("link", f.Link).Debug("Data not forwarded")
		}

	case api.FrameClose:
		if err := c.Registry.CloseLink(c.ID, f.Link); err != nil {
			c.log.WithError(err).WithField("link", f.Link).Debug("Close for unknown link")
		}
	}
}

func (c *Client) register(f api.RelayFrame) {
	if c.ID != "" {
		c.fail("", api.RelayErrBadFrame)
		return
	}
	id, err := c.Registry.Register(f.ID, c.Send)
	if err != nil {
		c.fail("", api.RelayErrIDTaken)
		c.log.WithField("id", f.ID).Warn("Register rejected: id taken")
		return
	}
	c.ID = id
	c.reply(api.RelayFrame{Kind: api.FrameRegistered, ID: id})
	c.log.WithField("peer", id).Info("Peer registered")
}

// connect: неизвестная цель - кадр отбрасывается, вызывающий ждет до таймаута.
func (c *Client) connect(f api.RelayFrame) {
	link, err := c.Registry.Connect(c.ID, f.Peer)
	switch {
	case errors.Is(err, network.ErrUnknownPeer):
		c.log.WithFields(logrus.Fields{
			"peer":   c.ID,
			"target": f.Peer,
		}).Debug("Connect to unknown peer dropped")
	case errors.Is(err, network.ErrNotListening):
		c.fail(f.Ref, api.RelayErrPeerUnavailable)
	case err != nil:
		c.fail(f.Ref, api.RelayErrBadFrame)
	default:
		c.reply(api.RelayFrame{Kind: api.FrameOpen, Ref: f.Ref, Link: link, Peer: f.Peer})
		c.log.WithFields(logrus.Fields{
			"peer":   c.ID,
			"target": f.Peer,
			"link":   link,
		}).Info("Link opened")
	}
}

func (c *Client) fail(ref, code string) {
	c.reply(api.RelayFrame{Kind: api.FrameError, Ref: ref, Error: code})
}

func (c *Client) reply(f api.RelayFrame) {
	select {
	case c.Send <- f:
	default:
		c.log.WithField("kind", f.Kind).Warn("Client queue full, dropping reply")
	}
}

// writePump отправляет кадры клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(frame); err != nil {
				c.log.WithError(err).Debug("write json frame failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
