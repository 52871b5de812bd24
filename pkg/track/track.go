package track

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/khushisaxena01/boomkart/internal/domain"
)

// MapFile - имя файла карты внутри каталога трека.
const MapFile = "map.json"

var (
	ErrBadStart = errors.New("start pose must be [x, y, angle]")
	ErrBadName  = errors.New("track name must be a single path element")
)

// ValidName - имя трека приходит от пира в game_start и попадает в пути.
func ValidName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`+string(filepath.Separator)) {
		return fmt.Errorf("%q: %w", name, ErrBadName)
	}
	return nil
}

// File - формат map.json как он лежит на диске.
type File struct {
	Tiles    [][]int     `json:"tiles"`
	Start    []float64   `json:"start"`
	Powerups []Placement `json:"powerups"`

	// Waypoints - необязательная линия движения для автопилота (координаты сетки).
	Waypoints [][2]float64 `json:"waypoints,omitempty"`
}

// Placement - бонус в координатах сетки.
type Placement struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type string  `json:"type"`
}

// Pose - стартовая позиция в мировых координатах.
type Pose struct {
	X     float64
	Z     float64
	Angle float64
}

// Track - загруженный трек. Карта неизменяема и может разделяться.
type Track struct {
	Name       string
	Map        *domain.TileMap
	Start      Pose
	Placements []Placement
	Waypoints  []domain.Vec3
}

// Parse разбирает map.json.
func Parse(name string, data []byte) (*Track, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("track %s: invalid format: %w", name, err)
	}
	return FromFile(name, f)
}

// FromFile проверяет документ и строит трек.
func FromFile(name string, f File) (*Track, error) {
	// 1. Сетка
	rows := make([][]domain.TileCode, len(f.Tiles))
	for y, row := range f.Tiles {
		rows[y] = make([]domain.TileCode, len(row))
		for x, code := range row {
			rows[y][x] = domain.TileCode(code)
		}
	}
	m, err := domain.NewTileMap(rows)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", name, err)
	}

	// 2. Старт. Угол в файле хранится с обратным знаком.
	if len(f.Start) != 3 {
		return nil, fmt.Errorf("track %s: %w", name, ErrBadStart)
	}

	t := &Track{
		Name: name,
		Map:  m,
		Start: Pose{
			X:     domain.TileToWorldX(f.Start[0]),
			Z:     domain.TileToWorldZ(f.Start[1]),
			Angle: -f.Start[2],
		},
		Placements: append([]Placement(nil), f.Powerups...),
	}

	// 3. Точки маршрута
	for _, wp := range f.Waypoints {
		t.Waypoints = append(t.Waypoints, domain.Vec3{
			X: domain.TileToWorldX(wp[0]),
			Y: domain.VehicleHeight,
			Z: domain.TileToWorldZ(wp[1]),
		})
	}
	return t, nil
}

// Load читает dir/<name>/map.json. Встроенные треки не требуют файлов.
func Load(dir, name string) (*Track, error) {
	if gen, ok := builtins[name]; ok {
		return FromFile(name, gen())
	}
	if err := ValidName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name, MapFile))
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", name, err)
	}
	return Parse(name, data)
}

// SpawnPowerups строит свежий набор бонусов для новой гонки.
func (t *Track) SpawnPowerups() []*domain.Powerup {
	out := make([]*domain.Powerup, 0, len(t.Placements))
	for i, p := range t.Placements {
		out = append(out, &domain.Powerup{
			ID:   i,
			Type: domain.PowerupType(p.Type),
			Position: domain.Vec3{
				X: domain.TileToWorldX(p.X),
				Y: domain.VehicleHeight,
				Z: domain.TileToWorldZ(p.Y),
			},
			Phase: float64(i) * 0.7,
		})
	}
	return out
}
