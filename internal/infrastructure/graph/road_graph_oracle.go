package graph

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
)

// RoadGraphOracle は道路テーブルをメモリ上の重み付き無向グラフに載せ、Dijkstraで距離を求める距離オラクル
type RoadGraphOracle struct {
	graph  *simple.WeightedUndirectedGraph
	ids    map[string]int64
	cities []*model.City

	mu    sync.Mutex
	trees map[int64]path.Shortest
}

// NewRoadGraphOracle は都市と道路を読み込んでグラフを構築する
func NewRoadGraphOracle(ctx context.Context, cityRepo repository.CitiesRepository, roadsRepo repository.RoadsRepository) (*RoadGraphOracle, error) {
	cities, err := cityRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("都市一覧の読み込みに失敗: %w", err)
	}
	roads, err := roadsRepo.ListRoads(ctx)
	if err != nil {
		return nil, fmt.Errorf("道路データの読み込みに失敗: %w", err)
	}
	return NewRoadGraphOracleFrom(cities, roads)
}

// NewRoadGraphOracleFrom は与えられた都市と道路からグラフを構築する
// 同じ都市の組に複数の道路がある場合は最短のものを採用する
func NewRoadGraphOracleFrom(cities []*model.City, roads []model.Road) (*RoadGraphOracle, error) {
	o := &RoadGraphOracle{
		graph:  simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		ids:    make(map[string]int64, len(cities)),
		cities: cities,
		trees:  make(map[int64]path.Shortest),
	}

	for i, city := range cities {
		if _, dup := o.ids[city.ID]; dup {
			return nil, fmt.Errorf("都市ID %s が重複しています", city.ID)
		}
		id := int64(i)
		o.ids[city.ID] = id
		o.graph.AddNode(simple.Node(id))
	}

	for _, road := range roads {
		from, okFrom := o.ids[road.FromCityID]
		to, okTo := o.ids[road.ToCityID]
		if !okFrom || !okTo {
			return nil, fmt.Errorf("道路 %s - %s が未登録の都市を参照しています: %w", road.FromCityID, road.ToCityID, model.ErrCityNotFound)
		}
		if road.Km < 0 {
			return nil, fmt.Errorf("道路 %s - %s の距離が負です: %f", road.FromCityID, road.ToCityID, road.Km)
		}
		if from == to {
			continue
		}
		if w, ok := o.graph.Weight(from, to); ok && w <= road.Km {
			continue
		}
		o.graph.SetWeightedEdge(o.graph.NewWeightedEdge(simple.Node(from), simple.Node(to), road.Km))
	}

	log.Infof("✅ 道路グラフを構築: 都市 %d 件, 道路 %d 件", len(cities), o.graph.WeightedEdges().Len())
	return o, nil
}

func (o *RoadGraphOracle) Distance(ctx context.Context, fromCityID, toCityID string) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	from, to, err := o.nodeIDs(fromCityID, toCityID)
	if err != nil {
		return 0, false, err
	}

	_, km := o.shortestFrom(from).To(to)
	if math.IsInf(km, 1) {
		return 0, false, nil
	}
	return km, true, nil
}

// RouteCoords は最短経路上の都市座標を返す
func (o *RoadGraphOracle) RouteCoords(ctx context.Context, fromCityID, toCityID string) (orb.LineString, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, to, err := o.nodeIDs(fromCityID, toCityID)
	if err != nil {
		return nil, err
	}

	nodes, _ := o.shortestFrom(from).To(to)
	if len(nodes) == 0 {
		return nil, nil
	}

	line := make(orb.LineString, 0, len(nodes))
	for _, n := range nodes {
		line = append(line, o.cities[n.ID()].ToPoint())
	}
	return line, nil
}

func (o *RoadGraphOracle) Close(ctx context.Context) error {
	return nil
}

func (o *RoadGraphOracle) nodeIDs(fromCityID, toCityID string) (int64, int64, error) {
	from, ok := o.ids[fromCityID]
	if !ok {
		return 0, 0, fmt.Errorf("都市ID %s: %w", fromCityID, model.ErrCityNotFound)
	}
	to, ok := o.ids[toCityID]
	if !ok {
		return 0, 0, fmt.Errorf("都市ID %s: %w", toCityID, model.ErrCityNotFound)
	}
	return from, to, nil
}

// shortestFrom は出発都市ごとの最短経路木をキャッシュして返す
func (o *RoadGraphOracle) shortestFrom(from int64) path.Shortest {
	o.mu.Lock()
	defer o.mu.Unlock()

	tree, ok := o.trees[from]
	if !ok {
		tree = path.DijkstraFrom(simple.Node(from), o.graph)
		o.trees[from] = tree
	}
	return tree
}
