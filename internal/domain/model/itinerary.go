package model

import (
	"time"

	"github.com/paulmach/orb"
)

// TourResult ソルバーの出力。Permutation は 0..N の添字をちょうど1回ずつ含む
type TourResult struct {
	Permutation []int
	Cost        float64
}

// ItineraryRequest 3種類の旅程計画に共通する入力
type ItineraryRequest struct {
	POIIDs []string `json:"poi_ids"`
	Start  string   `json:"start,omitempty"`
	End    string   `json:"end,omitempty"`
}

// Leg 都市間の1区間
type Leg struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Distance float64 `json:"distance"`
}

// Itinerary 計画済みの旅程
type Itinerary struct {
	ID            string         `json:"itinerary_id,omitempty"`
	Shape         TravelShape    `json:"shape"`
	Order         []string       `json:"order"`          // 訪問順のPOI ID（都市ごとにまとまる）
	Cities        []string       `json:"cities"`         // 訪問順の都市ID（周回の場合は出発都市で閉じる）
	TotalDistance float64        `json:"total_distance"` // km
	Route         orb.LineString `json:"route"`          // [[lon, lat], ...]
	Legs          []Leg          `json:"legs"`
	Bounds        *RouteBounds   `json:"bounds,omitempty"`
}

// RouteBounds 地図表示用のルート境界ボックス
type RouteBounds struct {
	Min orb.Point `json:"min"`
	Max orb.Point `json:"max"`
}

// FirestoreItinerary Firestore保存用の旅程
type FirestoreItinerary struct {
	Shape         string    `firestore:"shape"`
	Order         []string  `firestore:"order"`
	Cities        []string  `firestore:"cities"`
	TotalDistance float64   `firestore:"total_distance"`
	Route         []float64 `firestore:"route"` // [lon0, lat0, lon1, lat1, ...]（Firestoreは入れ子配列を保存できない）
	Legs          []Leg     `firestore:"legs"`
	Bounds        []float64 `firestore:"bounds,omitempty"`
	ExpireAt      time.Time `firestore:"expireAt"`
}

// ToFirestoreItinerary Firestore保存用の構造体に変換
func (it *Itinerary) ToFirestoreItinerary(ttlHours int) *FirestoreItinerary {
	route := make([]float64, 0, len(it.Route)*2)
	for _, p := range it.Route {
		route = append(route, p.Lon(), p.Lat())
	}

	var bounds []float64
	if it.Bounds != nil {
		bounds = []float64{it.Bounds.Min.Lon(), it.Bounds.Min.Lat(), it.Bounds.Max.Lon(), it.Bounds.Max.Lat()}
	}

	return &FirestoreItinerary{
		Shape:         string(it.Shape),
		Order:         it.Order,
		Cities:        it.Cities,
		TotalDistance: it.TotalDistance,
		Route:         route,
		Legs:          it.Legs,
		Bounds:        bounds,
		ExpireAt:      time.Now().Add(time.Duration(ttlHours) * time.Hour),
	}
}

// ToItinerary Firestoreのデータを旅程に戻す
func (f *FirestoreItinerary) ToItinerary(id string) *Itinerary {
	route := make(orb.LineString, 0, len(f.Route)/2)
	for i := 0; i+1 < len(f.Route); i += 2 {
		route = append(route, orb.Point{f.Route[i], f.Route[i+1]})
	}

	var bounds *RouteBounds
	if len(f.Bounds) == 4 {
		bounds = &RouteBounds{
			Min: orb.Point{f.Bounds[0], f.Bounds[1]},
			Max: orb.Point{f.Bounds[2], f.Bounds[3]},
		}
	}

	return &Itinerary{
		ID:            id,
		Shape:         TravelShape(f.Shape),
		Order:         f.Order,
		Cities:        f.Cities,
		TotalDistance: f.TotalDistance,
		Route:         route,
		Legs:          f.Legs,
		Bounds:        bounds,
	}
}
