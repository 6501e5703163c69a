package model

// TravelShape 旅程の形（周回・片道・始点終点固定）
type TravelShape string

const (
	// ShapeRoundTrip すべての都市を巡って出発地に戻る
	ShapeRoundTrip TravelShape = "round_trip"
	// ShapeFixedStart 出発地を固定し、終点は自由
	ShapeFixedStart TravelShape = "one_way"
	// ShapeFixedStartEnd 出発地と終点の両方を固定
	ShapeFixedStartEnd TravelShape = "one_way_fixed_end"
)

// ShapeNameMap 旅程の形から日本語名へのマッピング
var ShapeNameMap = map[TravelShape]string{
	ShapeRoundTrip:     "周回ルート",
	ShapeFixedStart:    "片道ルート（出発地固定）",
	ShapeFixedStartEnd: "片道ルート（出発地・目的地固定）",
}

// GetShapeJapaneseName 旅程の形の日本語名を返す
func GetShapeJapaneseName(shape TravelShape) string {
	if name, ok := ShapeNameMap[shape]; ok {
		return name
	}
	return string(shape)
}

const (
	// MinStops 旅程として意味を持つ最小の都市数
	MinStops = 3
	// DefaultMaxStops 厳密解法で扱う都市数の既定上限
	DefaultMaxStops = 18
	// SolverHardLimit ソルバー自身が拒否する都市数の上限（2^N のメモリを確保するため）
	SolverHardLimit = 20
)
