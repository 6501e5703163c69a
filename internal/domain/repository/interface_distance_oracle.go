package repository

import (
	"context"

	"github.com/paulmach/orb"
)

// DistanceOracle は都市間の最短距離と経路形状を返す外部コラボレーター
type DistanceOracle interface {
	// Distance は2都市間の最短距離(km)を返す。道路で結ばれていない場合は found=false
	Distance(ctx context.Context, fromCityID, toCityID string) (km float64, found bool, err error)
	// RouteCoords は2都市間の経路座標列 [[lon, lat], ...] を返す
	RouteCoords(ctx context.Context, fromCityID, toCityID string) (orb.LineString, error)
	// Close は接続を解放する
	Close(ctx context.Context) error
}
