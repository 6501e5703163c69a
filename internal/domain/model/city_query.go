package model

import (
	"math"

	"github.com/paulmach/orb"
)

// CityDistance 2都市間の最短距離と経路（単体の都市間照会で使用）
type CityDistance struct {
	From       *City          `json:"from"`
	To         *City          `json:"to"`
	Reachable  bool           `json:"reachable"`
	DistanceKm *float64       `json:"distance_km"` // 到達不能な場合はnull
	Route      orb.LineString `json:"route,omitempty"`
}

// NearestCity 座標から最も近い都市と直線距離
type NearestCity struct {
	City       *City   `json:"city"`
	DistanceKm float64 `json:"distance_km"`
}

// RoundKm 距離を小数第2位で丸める
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
