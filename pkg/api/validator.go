package api

import "errors"

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (m JoinMessage) Validate() error {
	if m.Player.ID == "" {
		return errors.New("player.id is required")
	}
	return nil
}

func (m PlayerUpdateMessage) Validate() error {
	if m.Player.ID == "" {
		return errors.New("player.id is required")
	}
	return nil
}

func (m PlayerJoinMessage) Validate() error {
	if m.Player.ID == "" {
		return errors.New("player.id is required")
	}
	return nil
}

func (m GameStartMessage) Validate() error {
	if m.Track == "" {
		return errors.New("track is required")
	}
	return nil
}

func (f RelayFrame) Validate() error {
	switch f.Kind {
	case FrameRegister, FrameListen:
		return nil
	case FrameConnect:
		if f.Peer == "" {
			return errors.New("connect requires peer")
		}
	case FrameData, FrameClose:
		if f.Link == "" {
			return errors.New("link is required")
		}
	default:
		return errors.New("unsupported frame kind")
	}
	return nil
}
