package domain

import (
	"errors"
	"fmt"
	"math"
)

// Геометрия мира: квадрат со стороной 100 с центром в нуле,
// на который натянута сетка тайлов 128x128.
const (
	WorldSize = 100.0
	WorldHalf = WorldSize / 2
	GridSize  = 128

	// Смещения, с которыми трек размещает объекты внутри тайла.
	PlacementOffsetX = 0.8
	PlacementOffsetZ = -0.39
)

// TileCode - классификация клетки трека.
type TileCode int

const (
	TileRoad TileCode = iota
	TileWall
	TileMud
	TileBoost
	TileFinish
	TileCheckpoint
)

var tileNames = [...]string{"road", "wall", "mud", "boost", "finish", "checkpoint"}

func (t TileCode) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tile(%d)", int(t))
	}
	return tileNames[t]
}

// Valid проверяет, что код входит в диапазон 0..5.
func (t TileCode) Valid() bool {
	return t >= TileRoad && t <= TileCheckpoint
}

// TileCoord - индекс клетки. Y растет вместе с мировой Z.
type TileCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var (
	ErrEmptyMap    = errors.New("tile map is empty")
	ErrRaggedMap   = errors.New("tile map rows have different lengths")
	ErrInvalidTile = errors.New("invalid tile code")
)

// TileMap - неизменяемая после загрузки сетка тайлов.
// Индексация [y][x], как в файле трека.
type TileMap struct {
	tiles  [][]TileCode
	width  int
	height int
}

// NewTileMap копирует сетку и проверяет ее форму и коды.
func NewTileMap(rows [][]TileCode) (*TileMap, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyMap
	}
	width := len(rows[0])
	tiles := make([][]TileCode, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedMap, y, len(row), width)
		}
		for x, code := range row {
			if !code.Valid() {
				return nil, fmt.Errorf("%w %d at [%d,%d]", ErrInvalidTile, int(code), x, y)
			}
		}
		tiles[y] = append([]TileCode(nil), row...)
	}
	return &TileMap{tiles: tiles, width: width, height: len(rows)}, nil
}

func (m *TileMap) Width() int  { return m.width }
func (m *TileMap) Height() int { return m.height }

// At возвращает код клетки. Клетка вне сетки - false, без паники.
func (m *TileMap) At(x, y int) (TileCode, bool) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return TileWall, false
	}
	return m.tiles[y][x], true
}

// Lookup переводит мировые координаты в клетку.
// false означает выход за квадрат ±50 или за пределы сетки.
func (m *TileMap) Lookup(worldX, worldZ float64) (TileCoord, TileCode, bool) {
	if worldX > WorldHalf || worldX < -WorldHalf || worldZ > WorldHalf || worldZ < -WorldHalf {
		return TileCoord{}, TileWall, false
	}
	c := TileCoord{X: WorldToTile(worldX), Y: WorldToTile(worldZ)}
	code, ok := m.At(c.X, c.Y)
	return c, code, ok
}

// Find возвращает все клетки с данным кодом в порядке обхода строк.
func (m *TileMap) Find(code TileCode) []TileCoord {
	var out []TileCoord
	for y, row := range m.tiles {
		for x, c := range row {
			if c == code {
				out = append(out, TileCoord{X: x, Y: y})
			}
		}
	}
	return out
}

// WorldToTile: tile = floor(128/100 * (world + 50)).
func WorldToTile(w float64) int {
	return int(math.Floor(GridSize / WorldSize * (w + WorldHalf)))
}

// TileToWorldX и TileToWorldZ - обратное преобразование для размещения
// объектов из файла трека (старт, бонусы).
func TileToWorldX(t float64) float64 {
	return -WorldHalf + math.Floor(t*WorldSize/GridSize) + PlacementOffsetX
}

func TileToWorldZ(t float64) float64 {
	return -WorldHalf + math.Floor(t*WorldSize/GridSize) + PlacementOffsetZ
}
