package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
)

// DefaultRoadGraphName GDSに射影済みの道路グラフ名
const DefaultRoadGraphName = "city-road-graph"

const distanceQuery = `
	MATCH (s:City {cityId: $from})
	MATCH (t:City {cityId: $to})
	CALL gds.shortestPath.dijkstra.stream($graph, {
		sourceNode: s,
		targetNode: t,
		relationshipWeightProperty: 'km'
	})
	YIELD totalCost
	RETURN totalCost
`

const routeQuery = `
	MATCH (s:City {cityId: $from})
	MATCH (t:City {cityId: $to})
	CALL gds.shortestPath.dijkstra.stream($graph, {
		sourceNode: s,
		targetNode: t,
		relationshipWeightProperty: 'km'
	})
	YIELD nodeIds
	RETURN [nodeId IN nodeIds | [
		gds.util.asNode(nodeId).longitude,
		gds.util.asNode(nodeId).latitude
	]] AS coords
`

// Neo4jOracle はNeo4j GDSのDijkstraで都市間距離を求める距離オラクル
type Neo4jOracle struct {
	driver    neo4j.DriverWithContext
	database  string
	graphName string
}

// NewNeo4jOracle はドライバーを生成し、接続を確認する
func NewNeo4jOracle(ctx context.Context, uri, user, password, database, graphName string) (*Neo4jOracle, error) {
	if graphName == "" {
		graphName = DefaultRoadGraphName
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("Neo4jドライバーの作成に失敗: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("Neo4jへの接続確認に失敗: %w", err)
	}

	log.Infof("✅ Neo4jに接続しました: %s", uri)
	return &Neo4jOracle{driver: driver, database: database, graphName: graphName}, nil
}

// Distance はGDS Dijkstraの totalCost(km) を返す。経路がなければ結果行が0件になる
func (o *Neo4jOracle) Distance(ctx context.Context, fromCityID, toCityID string) (float64, bool, error) {
	result, err := o.query(ctx, distanceQuery, fromCityID, toCityID)
	if err != nil {
		return 0, false, fmt.Errorf("距離クエリに失敗: %w", err)
	}
	if len(result.Records) == 0 {
		return 0, false, nil
	}

	raw, ok := result.Records[0].Get("totalCost")
	if !ok {
		return 0, false, fmt.Errorf("totalCost が結果に含まれていません")
	}
	km, err := toFloat(raw)
	if err != nil {
		return 0, false, fmt.Errorf("totalCost: %w", err)
	}
	return km, true, nil
}

// RouteCoords は最短経路上の都市座標を [[lon, lat], ...] で返す
func (o *Neo4jOracle) RouteCoords(ctx context.Context, fromCityID, toCityID string) (orb.LineString, error) {
	result, err := o.query(ctx, routeQuery, fromCityID, toCityID)
	if err != nil {
		return nil, fmt.Errorf("経路クエリに失敗: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, nil
	}

	raw, ok := result.Records[0].Get("coords")
	if !ok {
		return nil, fmt.Errorf("coords が結果に含まれていません")
	}
	return toLineString(raw)
}

func (o *Neo4jOracle) Close(ctx context.Context) error {
	return o.driver.Close(ctx)
}

func (o *Neo4jOracle) query(ctx context.Context, cypher, fromCityID, toCityID string) (*neo4j.EagerResult, error) {
	params := map[string]any{
		"from":  fromCityID,
		"to":    toCityID,
		"graph": o.graphName,
	}
	return neo4j.ExecuteQuery(ctx, o.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(o.database),
		neo4j.ExecuteQueryWithReadersRouting())
}

// toLineString Cypherのリスト [[lon, lat], ...] をorb.LineStringに変換
func toLineString(raw any) (orb.LineString, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("coords の型が不正です: %T", raw)
	}

	line := make(orb.LineString, 0, len(items))
	for i, item := range items {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("coords[%d] の形式が不正です: %v", i, item)
		}
		lon, err := toFloat(pair[0])
		if err != nil {
			return nil, fmt.Errorf("coords[%d] 経度: %w", i, err)
		}
		lat, err := toFloat(pair[1])
		if err != nil {
			return nil, fmt.Errorf("coords[%d] 緯度: %w", i, err)
		}
		line = append(line, orb.Point{lon, lat})
	}
	return line, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("数値ではありません: %T", v)
	}
}
