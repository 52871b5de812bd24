package track

import "github.com/khushisaxena01/boomkart/internal/domain"

// Встроенный трек "oval": кольцо дороги вокруг внутренней стены.
// Нужен для headless-клиента и тестов, когда каталога с треками нет.
const (
	OvalName = "oval"

	ovalOuter = 16 // отступ внешнего края дороги от границы сетки
	ovalInner = 36 // отступ внутренней стены
	ovalMid   = domain.GridSize / 2
)

var builtins = map[string]func() File{
	OvalName: GenerateOval,
}

// Rect - прямоугольник клеток [X, X+W) x [Y, Y+H).
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

func (r Rect) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

// GenerateOval строит документ трека в том же формате, что и map.json.
func GenerateOval() File {
	size := domain.GridSize
	outer := Rect{X: ovalOuter, Y: ovalOuter, W: size - 2*ovalOuter, H: size - 2*ovalOuter}
	inner := Rect{X: ovalInner, Y: ovalInner, W: size - 2*ovalInner, H: size - 2*ovalInner}

	// 1. Заливаем стенами и вырезаем кольцо дороги
	tiles := make([][]int, size)
	for y := 0; y < size; y++ {
		row := make([]int, size)
		for x := 0; x < size; x++ {
			row[x] = int(domain.TileWall)
			if outer.Contains(x, y) && !inner.Contains(x, y) {
				row[x] = int(domain.TileRoad)
			}
		}
		tiles[y] = row
	}

	// 2. Финиш слева, чекпоинт справа, поперек полотна
	for x := ovalOuter; x < ovalInner; x++ {
		tiles[ovalMid][x] = int(domain.TileFinish)
	}
	for x := size - ovalInner; x < size-ovalOuter; x++ {
		tiles[ovalMid][x] = int(domain.TileCheckpoint)
	}

	// 3. Грязь на верхней прямой, ускорители на нижней
	fill(tiles, Rect{X: 60, Y: ovalOuter + 1, W: 8, H: 5}, domain.TileMud)
	fill(tiles, Rect{X: 62, Y: size - ovalInner + 4, W: 2, H: 12}, domain.TileBoost)

	return File{
		Tiles: tiles,
		Start: []float64{26, 68, 0},
		Powerups: []Placement{
			{X: 26, Y: 40, Type: string(domain.PowerupSpeed)},
			{X: 101, Y: 50, Type: string(domain.PowerupShell)},
			{X: 76, Y: 30, Type: string(domain.PowerupObstacle)},
		},
		// По часовой стрелке, начиная с левой прямой
		Waypoints: [][2]float64{
			{26, 26}, {101, 26}, {101, 101}, {26, 101}, {26, 66},
		},
	}
}

func fill(tiles [][]int, r Rect, code domain.TileCode) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			tiles[y][x] = int(code)
		}
	}
}
