package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/domain/repository"
	"Itinerary-App/internal/infrastructure/database"
)

// supabaseLocationRow PostgRESTが返す行（location はGeoJSONのまま受け取る）
type supabaseLocationRow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CityID      *string         `json:"city_id"`
	Location    json.RawMessage `json:"location"`
	Description *string         `json:"description"`
	Address     *string         `json:"address"`
}

func (row *supabaseLocationRow) toPOI() (*model.POI, error) {
	location, err := parseGeometry(row.Location)
	if err != nil {
		return nil, err
	}
	return &model.POI{
		ID:          row.ID,
		Name:        row.Name,
		CityID:      derefString(row.CityID),
		Location:    location,
		Description: derefString(row.Description),
		Address:     derefString(row.Address),
	}, nil
}

func (row *supabaseLocationRow) toCity() (*model.City, error) {
	location, err := parseGeometry(row.Location)
	if err != nil {
		return nil, err
	}
	return &model.City{ID: row.ID, Name: row.Name, Location: location}, nil
}

type SupabasePOIsRepository struct {
	client *database.SupabaseClient
}

func NewSupabasePOIsRepository(client *database.SupabaseClient) repository.POIsRepository {
	return &SupabasePOIsRepository{
		client: client,
	}
}

func (r *SupabasePOIsRepository) GetByID(ctx context.Context, id string) (*model.POI, error) {
	var rows []supabaseLocationRow
	data, _, err := r.client.GetClient().From("pois").Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("POIデータの取得失敗: %w", err)
	}

	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("POIデータのJSONアンマーシャル失敗: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("POI ID %s: %w", id, model.ErrPOINotFound)
	}

	return rows[0].toPOI()
}

type SupabaseCitiesRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseCitiesRepository(client *database.SupabaseClient) *SupabaseCitiesRepository {
	return &SupabaseCitiesRepository{
		client: client,
	}
}

func (r *SupabaseCitiesRepository) GetByID(ctx context.Context, id string) (*model.City, error) {
	var rows []supabaseLocationRow
	data, _, err := r.client.GetClient().From("cities").Select("id,name,location", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("都市データの取得失敗: %w", err)
	}

	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("都市データのJSONアンマーシャル失敗: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("都市ID %s: %w", id, model.ErrCityNotFound)
	}

	return rows[0].toCity()
}

// FindNearest PostgRESTでは距離順ソートができないため、全都市を取得してから測地線距離で選ぶ
func (r *SupabaseCitiesRepository) FindNearest(ctx context.Context, location model.LatLng) (*model.City, error) {
	cities, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	nearest := nearestCity(cities, location)
	if nearest == nil {
		return nil, fmt.Errorf("(%f, %f) の最寄り都市: %w", location.Lat, location.Lng, model.ErrCityNotFound)
	}
	return nearest, nil
}

func (r *SupabaseCitiesRepository) ListAll(ctx context.Context) ([]*model.City, error) {
	var rows []supabaseLocationRow
	data, _, err := r.client.GetClient().From("cities").Select("id,name,location", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("都市一覧の取得失敗: %w", err)
	}

	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("都市データのJSONアンマーシャル失敗: %w", err)
	}

	cities := make([]*model.City, 0, len(rows))
	for i := range rows {
		city, err := rows[i].toCity()
		if err != nil {
			return nil, err
		}
		cities = append(cities, city)
	}
	return cities, nil
}

func (r *SupabaseCitiesRepository) ListRoads(ctx context.Context) ([]model.Road, error) {
	var roads []model.Road
	data, _, err := r.client.GetClient().From("city_roads").Select("from_city,to_city,km", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("道路データの取得失敗: %w", err)
	}

	var rows []struct {
		FromCity string  `json:"from_city"`
		ToCity   string  `json:"to_city"`
		Km       float64 `json:"km"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("道路データのJSONアンマーシャル失敗: %w", err)
	}

	for _, row := range rows {
		roads = append(roads, model.Road{FromCityID: row.FromCity, ToCityID: row.ToCity, Km: row.Km})
	}
	return roads, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
