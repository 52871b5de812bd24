package domain

import "time"

// VehicleHeight - фиксированная высота машины над трассой.
const VehicleHeight = 0.5

// Vec3 - точка в мировых координатах. Y на трассе не меняется.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vehicle - единственная локальная машина клиента.
// Angle в градусах, движение вперед идет в сторону (-sin, -cos).
type Vehicle struct {
	Position  Vec3
	Angle     float64
	Speed     float64
	TurnSpeed float64

	// BoostActive поднимает потолок скорости до BoostUntil.
	BoostActive bool
	BoostUntil  time.Time
}

func NewVehicle(x, z, angle float64) *Vehicle {
	return &Vehicle{
		Position: Vec3{X: x, Y: VehicleHeight, Z: z},
		Angle:    angle,
	}
}

// Boosted сообщает, действует ли буст на момент now.
func (v *Vehicle) Boosted(now time.Time) bool {
	return v.BoostActive && now.Before(v.BoostUntil)
}

// Stop - полная остановка (скорость и поворот).
func (v *Vehicle) Stop() {
	v.Speed = 0
	v.TurnSpeed = 0
}

// Input - состояние управления на текущий кадр.
type Input struct {
	Left       bool
	Right      bool
	Accelerate bool
	Brake      bool
}
