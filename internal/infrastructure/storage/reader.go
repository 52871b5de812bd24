package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"go.dedis.ch/protobuf"
	"github.com/khushisaxena01/boomkart/internal/domain"
)

func (s *RecordingService) Load(path string) (*domain.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readBinary(bufio.NewReader(f))
}

func readBinary(r io.Reader) (*domain.Recording, error) {
	// 1. Заголовок
	var header RecordingFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicHeader {
		return nil, fmt.Errorf("invalid magic")
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}
	if header.FrameCount < 0 {
		return nil, fmt.Errorf("invalid frame count: %d", header.FrameCount)
	}

	rec := &domain.Recording{
		Timestamp: header.Timestamp,
		Laps:      int(header.Laps),
		Frames:    make([]domain.RecordingFrame, header.FrameCount),
	}

	// 2. Строки заголовка
	for _, f := range []struct {
		dst *string
		n   uint8
	}{
		{&rec.Track, header.TrackLen},
		{&rec.Racer, header.RacerLen},
		{&rec.RaceID, header.RaceIDLen},
	} {
		buf := make([]byte, f.n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read header strings: %w", err)
		}
		*f.dst = string(buf)
	}

	// 3. Кадры
	for i := range rec.Frames {
		var fh FrameHeader
		if err := binary.Read(r, binary.LittleEndian, &fh); err != nil {
			return nil, fmt.Errorf("failed to read frame %d: %w", i, err)
		}
		body := make([]byte, fh.Len)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("failed to read frame %d: %w", i, err)
		}
		if err := protobuf.Decode(body, &rec.Frames[i]); err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
	}

	return rec, nil
}
