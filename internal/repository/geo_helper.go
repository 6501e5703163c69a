package repository

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"Itinerary-App/internal/domain/model"
)

// parseGeometry PostGIS の GeoJSON 表現を model.Geometry に変換
func parseGeometry(raw []byte) (*model.Geometry, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var g geojson.Geometry
	if err := g.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("location GeoJSONパースエラー: %w", err)
	}

	point, ok := g.Geometry().(orb.Point)
	if !ok {
		return nil, fmt.Errorf("location がPoint型ではありません: %T", g.Geometry())
	}
	return model.NewPointGeometry(point.Lon(), point.Lat()), nil
}

// nearestCity 座標から測地線距離が最小の都市を返す
func nearestCity(cities []*model.City, location model.LatLng) *model.City {
	var nearest *model.City
	best := math.Inf(1)
	target := location.ToPoint()
	for _, city := range cities {
		if city.Location == nil {
			continue
		}
		d := geo.Distance(target, city.ToPoint())
		if d < best {
			best = d
			nearest = city
		}
	}
	return nearest
}
