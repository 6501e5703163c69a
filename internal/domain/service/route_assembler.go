package service

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
)

// RouteAssembler はソルバーの順列からPOIの訪問順と地図用のルートを組み立てる
type RouteAssembler struct {
	oracle repository.DistanceOracle
}

// NewRouteAssembler は新しいRouteAssemblerインスタンスを作成
func NewRouteAssembler(oracle repository.DistanceOracle) *RouteAssembler {
	return &RouteAssembler{oracle: oracle}
}

// Assemble は順列を都市IDに戻し、POI順・区間距離・ルート座標をまとめた旅程を返す
// 周回ルートでは出発都市を末尾に追加して閉じる
func (a *RouteAssembler) Assemble(ctx context.Context, shape model.TravelShape, stops []*model.CityStop, raw *model.DistanceMatrix, tour *model.TourResult) (*model.Itinerary, error) {
	if len(tour.Permutation) != len(stops) {
		return nil, fmt.Errorf("順列の長さ %d が都市数 %d と一致しません", len(tour.Permutation), len(stops))
	}

	visit := append([]int(nil), tour.Permutation...)
	if shape == model.ShapeRoundTrip && len(visit) > 0 {
		visit = append(visit, visit[0])
	}

	itinerary := &model.Itinerary{
		Shape:         shape,
		Order:         make([]string, 0, len(stops)),
		Cities:        make([]string, 0, len(visit)),
		TotalDistance: tour.Cost,
		Legs:          make([]model.Leg, 0, len(visit)),
	}

	// 同じ都市のPOIは都市の位置にまとめて並べる（都市内の順序はリクエスト順のまま）
	for _, idx := range tour.Permutation {
		itinerary.Order = append(itinerary.Order, stops[idx].POIIDs()...)
	}

	for i, idx := range visit {
		itinerary.Cities = append(itinerary.Cities, stops[idx].City.ID)
		if i == 0 {
			continue
		}
		prev := visit[i-1]
		itinerary.Legs = append(itinerary.Legs, model.Leg{
			From:     stops[prev].City.ID,
			To:       stops[idx].City.ID,
			Distance: raw.At(prev, idx),
		})
	}

	route, err := a.buildRoute(ctx, stops, visit)
	if err != nil {
		return nil, err
	}
	itinerary.Route = route
	if len(route) > 0 {
		bound := route.Bound()
		itinerary.Bounds = &model.RouteBounds{Min: bound.Min, Max: bound.Max}
	}

	log.Infof("🗺️ ルートを組み立て: %d都市, %dPOI, %d座標", len(itinerary.Cities), len(itinerary.Order), len(route))
	return itinerary, nil
}

// buildRoute は隣り合う都市間の経路座標を連結する。区間の境目で重複する座標は1つにする
func (a *RouteAssembler) buildRoute(ctx context.Context, stops []*model.CityStop, visit []int) (orb.LineString, error) {
	route := orb.LineString{}
	if len(visit) == 1 {
		return append(route, stops[visit[0]].City.ToPoint()), nil
	}

	for i := 1; i < len(visit); i++ {
		from := stops[visit[i-1]].City
		to := stops[visit[i]].City

		segment, err := a.oracle.RouteCoords(ctx, from.ID, to.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: 経路 %s -> %s: %w", model.ErrDistanceQueryFailed, from.ID, to.ID, err)
		}
		if len(segment) == 0 {
			// 経路形状が得られない場合は都市座標を直線で結ぶ
			segment = orb.LineString{from.ToPoint(), to.ToPoint()}
		}

		if len(route) > 0 && route[len(route)-1].Equal(segment[0]) {
			segment = segment[1:]
		}
		route = append(route, segment...)
	}

	return route, nil
}
