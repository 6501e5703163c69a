package model

import "github.com/paulmach/orb"

// LatLng 緯度経度を表す基本的な型（最寄り都市検索などで使用）
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ToPoint orb.Point（[経度, 緯度]）に変換
func (l LatLng) ToPoint() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// POI Point of Interest（ユーザーが選択する訪問スポット）を表すモデル
type POI struct {
	ID          string    `json:"id" db:"id"`                     // ユニークなスポットID
	Name        string    `json:"name" db:"name"`                 // 表示名
	CityID      string    `json:"city_id,omitempty" db:"city_id"` // 所属都市ID（NULLABLE）
	Location    *Geometry `json:"location" db:"location"`         // 位置情報（PostGIS GEOMETRY型）
	Description string    `json:"description,omitempty" db:"description"`
	Address     string    `json:"address,omitempty" db:"address"`
}

// ToLatLng POIの位置情報をLatLng型に変換
func (p *POI) ToLatLng() LatLng {
	if p.HasLocation() {
		return LatLng{
			Lat: p.Location.Coordinates[1], // latitude
			Lng: p.Location.Coordinates[0], // longitude
		}
	}
	return LatLng{}
}

// HasLocation 座標が設定されているかチェック
func (p *POI) HasLocation() bool {
	return p.Location != nil && len(p.Location.Coordinates) >= 2
}

// HasCity 所属都市が設定されているかチェック
func (p *POI) HasCity() bool {
	return p.CityID != ""
}

// City 距離計算とルーティングの単位となる都市
type City struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Location *Geometry `json:"location" db:"location"`
}

// ToPoint 都市の座標をorb.Pointに変換
func (c *City) ToPoint() orb.Point {
	if c.Location != nil && len(c.Location.Coordinates) >= 2 {
		return orb.Point{c.Location.Coordinates[0], c.Location.Coordinates[1]}
	}
	return orb.Point{}
}

// CityStop 1つの都市とそこに属するPOI群（リクエスト順）
type CityStop struct {
	City *City
	POIs []*POI
}

// POIIDs 都市内のPOI IDをリクエスト順で返す
func (s *CityStop) POIIDs() []string {
	ids := make([]string, 0, len(s.POIs))
	for _, poi := range s.POIs {
		ids = append(ids, poi.ID)
	}
	return ids
}

// HasPOI 指定したPOIがこの都市に含まれるかチェック
func (s *CityStop) HasPOI(poiID string) bool {
	for _, poi := range s.POIs {
		if poi.ID == poiID {
			return true
		}
	}
	return false
}

// Road 都市間の道路（道路グラフの辺）
type Road struct {
	FromCityID string  `json:"from_city_id" db:"from_city"`
	ToCityID   string  `json:"to_city_id" db:"to_city"`
	Km         float64 `json:"km" db:"km"`
}

// Geometry PostGIS GEOMETRY型に対応する構造体
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [longitude, latitude]
}

// NewPointGeometry 経度・緯度からPoint型のGeometryを作成
func NewPointGeometry(lng, lat float64) *Geometry {
	return &Geometry{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}
