package storage

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.dedis.ch/protobuf"
	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/pkg/track"
)

const (
	MagicHeader string = `BKRC` // 4 байта
	Version1    uint32 = 1
	// FileExt - расширение файлов записи
	FileExt = ".bkrc"
)

// RecordingFileHeader - точное представление заголовка файла.
// Только массивы и числа, поэтому binary.Write пишет его целиком.
type RecordingFileHeader struct {
	Magic      [4]byte // 4 байта
	Version    uint32  // 4 байта
	Timestamp  int64   // 8 байт
	Laps       int32   // 4 байта
	FrameCount int32   // 4 байта
	TrackLen   uint8   // 1
	RacerLen   uint8   // 1
	RaceIDLen  uint8   // 1
}

// FrameHeader - длина тела кадра (protobuf).
type FrameHeader struct {
	Len uint16
}

type RecordingService struct {
	SaveDir string
}

func NewRecordingService(dir string) (*RecordingService, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}
	return &RecordingService{SaveDir: dir}, nil
}

// Save пишет запись в SaveDir и возвращает путь к файлу.
func (s *RecordingService) Save(rec *domain.Recording) (string, error) {
	// 1. Имена попадают в имя файла
	for _, name := range []string{rec.Track, rec.RaceID} {
		if err := track.ValidName(name); err != nil {
			return "", fmt.Errorf("recording: %w", err)
		}
	}

	filename := fmt.Sprintf("race_%s_%s_%d%s", rec.Track, rec.RaceID, rec.Timestamp, FileExt)
	path := filepath.Join(s.SaveDir, filename)
	if err := writeFile(path, rec); err != nil {
		return "", err
	}
	return path, nil
}

// writeFile - ошибка Close тоже ошибка сохранения.
func writeFile(path string, rec *domain.Recording) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := writeBinary(w, rec); err != nil {
		return err
	}
	return w.Flush()
}

func writeBinary(w io.Writer, rec *domain.Recording) error {
	strs := []string{rec.Track, rec.Racer, rec.RaceID}
	for _, str := range strs {
		if len(str) > 255 {
			return fmt.Errorf("header string too long: %d", len(str))
		}
	}

	// 1. Заголовок
	header := RecordingFileHeader{
		Version:    Version1,
		Timestamp:  rec.Timestamp,
		Laps:       int32(rec.Laps),
		FrameCount: int32(len(rec.Frames)),
		TrackLen:   uint8(len(rec.Track)),
		RacerLen:   uint8(len(rec.Racer)),
		RaceIDLen:  uint8(len(rec.RaceID)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, str := range strs {
		if _, err := io.WriteString(w, str); err != nil {
			return err
		}
	}

	// 2. Кадры: длина + protobuf
	for i := range rec.Frames {
		body, err := protobuf.Encode(&rec.Frames[i])
		if err != nil {
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
		if len(body) > 65535 {
			return fmt.Errorf("frame too long: %d", len(body))
		}

		if err := binary.Write(w, binary.LittleEndian, FrameHeader{Len: uint16(len(body))}); err != nil {
			return err
		}
		if _, err := w.Write(body); err != nil {
			return err
		}
	}

	return nil
}
