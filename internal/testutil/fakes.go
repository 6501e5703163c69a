package testutil

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"Itinerary-App/internal/domain/model"
)

// NewPOI はテスト用のPOIを作成する
func NewPOI(id, cityID string, lat, lng float64) *model.POI {
	return &model.POI{
		ID:       id,
		Name:     "POI " + id,
		CityID:   cityID,
		Location: model.NewPointGeometry(lng, lat),
	}
}

// NewCity はテスト用の都市を作成する
func NewCity(id string, lat, lng float64) *model.City {
	return &model.City{
		ID:       id,
		Name:     "City " + id,
		Location: model.NewPointGeometry(lng, lat),
	}
}

// FakePOIsRepository はメモリ上のPOIリポジトリ
type FakePOIsRepository struct {
	POIs map[string]*model.POI
}

// NewFakePOIsRepository はPOIを登録したリポジトリを作成する
func NewFakePOIsRepository(pois ...*model.POI) *FakePOIsRepository {
	repo := &FakePOIsRepository{POIs: make(map[string]*model.POI)}
	for _, poi := range pois {
		repo.POIs[poi.ID] = poi
	}
	return repo
}

func (r *FakePOIsRepository) GetByID(ctx context.Context, id string) (*model.POI, error) {
	poi, ok := r.POIs[id]
	if !ok {
		return nil, fmt.Errorf("POI ID %s: %w", id, model.ErrPOINotFound)
	}
	return poi, nil
}

// FakeCitiesRepository はメモリ上の都市リポジトリ
type FakeCitiesRepository struct {
	Cities map[string]*model.City
}

// NewFakeCitiesRepository は都市を登録したリポジトリを作成する
func NewFakeCitiesRepository(cities ...*model.City) *FakeCitiesRepository {
	repo := &FakeCitiesRepository{Cities: make(map[string]*model.City)}
	for _, city := range cities {
		repo.Cities[city.ID] = city
	}
	return repo
}

func (r *FakeCitiesRepository) GetByID(ctx context.Context, id string) (*model.City, error) {
	city, ok := r.Cities[id]
	if !ok {
		return nil, fmt.Errorf("都市ID %s: %w", id, model.ErrCityNotFound)
	}
	return city, nil
}

func (r *FakeCitiesRepository) FindNearest(ctx context.Context, location model.LatLng) (*model.City, error) {
	var nearest *model.City
	best := math.Inf(1)
	for _, city := range r.sorted() {
		d := geo.Distance(location.ToPoint(), city.ToPoint())
		if d < best {
			best = d
			nearest = city
		}
	}
	if nearest == nil {
		return nil, model.ErrCityNotFound
	}
	return nearest, nil
}

func (r *FakeCitiesRepository) ListAll(ctx context.Context) ([]*model.City, error) {
	return r.sorted(), nil
}

func (r *FakeCitiesRepository) sorted() []*model.City {
	cities := make([]*model.City, 0, len(r.Cities))
	for _, city := range r.Cities {
		cities = append(cities, city)
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i].ID < cities[j].ID })
	return cities
}

// FakeOracle は呼び出し回数を記録する距離オラクル
// 距離は無向として扱い、未登録の組は到達不能とみなす
type FakeOracle struct {
	mu         sync.Mutex
	distances  map[string]float64
	routes     map[string]orb.LineString
	errs       map[string]error
	points     map[string]orb.Point
	distCalls  int
	routeCalls int
}

// NewFakeOracle は空のオラクルを作成する
func NewFakeOracle() *FakeOracle {
	return &FakeOracle{
		distances: make(map[string]float64),
		routes:    make(map[string]orb.LineString),
		errs:      make(map[string]error),
		points:    make(map[string]orb.Point),
	}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// SetDistance は無向の距離を登録する
func (o *FakeOracle) SetDistance(a, b string, km float64) *FakeOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.distances[pairKey(a, b)] = km
	return o
}

// SetError は指定した組の問い合わせでエラーを返すようにする
func (o *FakeOracle) SetError(a, b string, err error) *FakeOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs[pairKey(a, b)] = err
	return o
}

// SetRoute は a→b の経路座標を登録する
func (o *FakeOracle) SetRoute(a, b string, line orb.LineString) *FakeOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes[a+"->"+b] = line
	return o
}

// SetCityPoint は未登録経路のフォールバック（直線）に使う都市座標を登録する
func (o *FakeOracle) SetCityPoint(cityID string, p orb.Point) *FakeOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.points[cityID] = p
	return o
}

func (o *FakeOracle) Distance(ctx context.Context, fromCityID, toCityID string) (float64, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.distCalls++

	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if err, ok := o.errs[pairKey(fromCityID, toCityID)]; ok {
		return 0, false, err
	}
	km, ok := o.distances[pairKey(fromCityID, toCityID)]
	return km, ok, nil
}

func (o *FakeOracle) RouteCoords(ctx context.Context, fromCityID, toCityID string) (orb.LineString, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routeCalls++

	if line, ok := o.routes[fromCityID+"->"+toCityID]; ok {
		return append(orb.LineString(nil), line...), nil
	}
	from, okFrom := o.points[fromCityID]
	to, okTo := o.points[toCityID]
	if okFrom && okTo {
		return orb.LineString{from, to}, nil
	}
	return nil, nil
}

func (o *FakeOracle) Close(ctx context.Context) error {
	return nil
}

// DistanceCalls はDistanceの呼び出し回数
func (o *FakeOracle) DistanceCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.distCalls
}

// RouteCalls はRouteCoordsの呼び出し回数
func (o *FakeOracle) RouteCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.routeCalls
}
