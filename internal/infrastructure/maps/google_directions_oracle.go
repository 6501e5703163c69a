package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
	"github.com/twpayne/go-polyline"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
)

const defaultDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

// GoogleDirectionsOracle はGoogle Maps Directions APIを使用した距離オラクルの実装
type GoogleDirectionsOracle struct {
	apiKey     string
	baseURL    string
	cityRepo   repository.CitiesRepository
	httpClient *http.Client
}

// NewGoogleDirectionsOracle は新しいオラクルを生成する。baseURL が空なら本番のエンドポイントを使う
func NewGoogleDirectionsOracle(apiKey, baseURL string, cityRepo repository.CitiesRepository) *GoogleDirectionsOracle {
	if baseURL == "" {
		baseURL = defaultDirectionsURL
	}
	return &GoogleDirectionsOracle{
		apiKey:     apiKey,
		baseURL:    baseURL,
		cityRepo:   cityRepo,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Distance は車での最短経路距離(km)を返す。ZERO_RESULTS は到達不能として扱う
func (g *GoogleDirectionsOracle) Distance(ctx context.Context, fromCityID, toCityID string) (float64, bool, error) {
	resp, err := g.directions(ctx, fromCityID, toCityID)
	if err != nil {
		return 0, false, err
	}
	if resp == nil {
		return 0, false, nil
	}

	var meters int
	for _, l := range resp.Routes[0].Legs {
		meters += l.Distance.Value
	}
	return float64(meters) / 1000, true, nil
}

// RouteCoords は overview_polyline を復号した道路形状を返す
// ポリラインがない、または復号できない場合は各ステップの始点・終点をつなぐ
func (g *GoogleDirectionsOracle) RouteCoords(ctx context.Context, fromCityID, toCityID string) (orb.LineString, error) {
	resp, err := g.directions(ctx, fromCityID, toCityID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	r := resp.Routes[0]
	if r.OverviewPolyline.Points != "" {
		line, err := decodePolyline(r.OverviewPolyline.Points)
		if err == nil && len(line) > 0 {
			return line, nil
		}
		log.Warnf("⚠️ ポリラインの復号に失敗、ステップ座標を使用: %s - %s: %v", fromCityID, toCityID, err)
	}
	return stepLine(r), nil
}

// decodePolyline はエンコード済みポリライン（[緯度, 経度]）を orb.LineString に変換
func decodePolyline(encoded string) (orb.LineString, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("ポリラインの復号に失敗: %w", err)
	}
	line := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		line = append(line, orb.Point{c[1], c[0]})
	}
	return line, nil
}

func stepLine(r route) orb.LineString {
	var line orb.LineString
	for _, l := range r.Legs {
		for _, s := range l.Steps {
			start := s.StartLocation.toPoint()
			if len(line) == 0 || !line[len(line)-1].Equal(start) {
				line = append(line, start)
			}
			line = append(line, s.EndLocation.toPoint())
		}
	}
	return line
}

func (g *GoogleDirectionsOracle) Close(ctx context.Context) error {
	g.httpClient.CloseIdleConnections()
	return nil
}

// directions はAPIを呼び出す。経路が存在しない場合は nil, nil を返す
func (g *GoogleDirectionsOracle) directions(ctx context.Context, fromCityID, toCityID string) (*googleRouteResponse, error) {
	// 1. 都市IDを座標に変換
	from, err := g.cityRepo.GetByID(ctx, fromCityID)
	if err != nil {
		return nil, fmt.Errorf("出発都市の取得に失敗: %w", err)
	}
	to, err := g.cityRepo.GetByID(ctx, toCityID)
	if err != nil {
		return nil, fmt.Errorf("到着都市の取得に失敗: %w", err)
	}

	// 2. HTTPリクエストを作成・実行
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.buildURL(from, to), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("APIリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("APIからエラーステータスが返されました: %s", resp.Status)
	}

	// 3. JSONレスポンスをパース
	var apiResp googleRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("JSONのパースに失敗: %w", err)
	}

	switch apiResp.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		log.Debugf("⚠️ 経路なし: %s - %s (%s)", fromCityID, toCityID, apiResp.Status)
		return nil, nil
	default:
		return nil, fmt.Errorf("Directions APIエラー: %s %s", apiResp.Status, apiResp.ErrorMessage)
	}

	if len(apiResp.Routes) == 0 {
		return nil, nil
	}
	return &apiResp, nil
}

func (g *GoogleDirectionsOracle) buildURL(from, to *model.City) string {
	origin := from.ToPoint()
	destination := to.ToPoint()

	params := url.Values{}
	params.Set("origin", fmt.Sprintf("%f,%f", origin.Lat(), origin.Lon()))
	params.Set("destination", fmt.Sprintf("%f,%f", destination.Lat(), destination.Lon()))
	params.Set("mode", "driving")
	params.Set("language", "ja")
	params.Set("key", g.apiKey)

	return fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
}

// --- Google Maps APIのレスポンスをパースするための構造体 ---

type googleRouteResponse struct {
	Routes       []route `json:"routes"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
}
type route struct {
	OverviewPolyline overviewPolyline `json:"overview_polyline"`
	Legs             []leg            `json:"legs"`
}
type overviewPolyline struct {
	Points string `json:"points"`
}
type leg struct {
	Distance valueField `json:"distance"`
	Steps    []step     `json:"steps"`
}
type step struct {
	StartLocation latLng `json:"start_location"`
	EndLocation   latLng `json:"end_location"`
}
type valueField struct {
	Value int `json:"value"` // meters
}
type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l latLng) toPoint() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}
