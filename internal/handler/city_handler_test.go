package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Itinerary-App/internal/domain/model"
)

type stubCityUseCase struct {
	distance *model.CityDistance
	nearest  *model.NearestCity
	err      error

	called   string
	from, to string
	location model.LatLng
}

func (s *stubCityUseCase) GetDistance(ctx context.Context, fromCityID, toCityID string) (*model.CityDistance, error) {
	s.called, s.from, s.to = "distance", fromCityID, toCityID
	return s.distance, s.err
}

func (s *stubCityUseCase) GetRoute(ctx context.Context, fromCityID, toCityID string) (*model.CityDistance, error) {
	s.called, s.from, s.to = "route", fromCityID, toCityID
	return s.distance, s.err
}

func (s *stubCityUseCase) FindNearestCity(ctx context.Context, location model.LatLng) (*model.NearestCity, error) {
	s.called, s.location = "nearest", location
	return s.nearest, s.err
}

func setupCityRouter(uc *stubCityUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHealthHandler("Itinerary-App"), NewItineraryHandler(&stubUseCase{}, time.Second), NewCityHandler(uc, time.Second))
}

func sampleCityDistance(reachable bool) *model.CityDistance {
	result := &model.CityDistance{
		From: &model.City{ID: "kyoto", Name: "京都", Location: model.NewPointGeometry(135.77, 35.01)},
		To:   &model.City{ID: "nara", Name: "奈良", Location: model.NewPointGeometry(135.80, 34.68)},
	}
	if reachable {
		km := 42.5
		result.Reachable = true
		result.DistanceKm = &km
		result.Route = orb.LineString{{135.77, 35.01}, {135.80, 34.68}}
	}
	return result
}

func TestCityHandler_GetDistance(t *testing.T) {
	t.Run("2都市間の距離", func(t *testing.T) {
		uc := &stubCityUseCase{distance: sampleCityDistance(true)}
		w := doRequest(t, setupCityRouter(uc), http.MethodGet, "/cities/distance?from=kyoto&to=nara", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "distance", uc.called)
		assert.Equal(t, "kyoto", uc.from)
		assert.Equal(t, "nara", uc.to)

		var body struct {
			Reachable  bool     `json:"reachable"`
			DistanceKm *float64 `json:"distance_km"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Reachable)
		require.NotNil(t, body.DistanceKm)
		assert.Equal(t, 42.5, *body.DistanceKm)
	})

	t.Run("到達不能ならdistance_kmはnull", func(t *testing.T) {
		uc := &stubCityUseCase{distance: sampleCityDistance(false)}
		w := doRequest(t, setupCityRouter(uc), http.MethodGet, "/cities/distance?from=kyoto&to=nara", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"distance_km":null`)
		assert.Contains(t, w.Body.String(), `"reachable":false`)
	})

	t.Run("toがない", func(t *testing.T) {
		uc := &stubCityUseCase{}
		w := doRequest(t, setupCityRouter(uc), http.MethodGet, "/cities/distance?from=kyoto", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "to:")
		assert.Empty(t, uc.called)
	})

	t.Run("未登録の都市", func(t *testing.T) {
		uc := &stubCityUseCase{err: model.ErrCityNotFound}
		w := doRequest(t, setupCityRouter(uc), http.MethodGet, "/cities/distance?from=kyoto&to=atlantis", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "city_not_found")
	})

	t.Run("オラクルの失敗", func(t *testing.T) {
		uc := &stubCityUseCase{err: model.ErrDistanceQueryFailed}
		w := doRequest(t, setupCityRouter(uc), http.MethodGet, "/cities/distance?from=kyoto&to=nara", nil)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestCityHandler_GetRoute(t *testing.T) {
	uc := &stubCityUseCase{distance: sampleCityDistance(true)}
	w := doRequest(t, setupCityRouter(uc), http.MethodGet, "/cities/route?from=kyoto&to=nara", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "route", uc.called)

	var body struct {
		Route [][]float64 `json:"route"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, [][]float64{{135.77, 35.01}, {135.80, 34.68}}, body.Route)
}

func TestCityHandler_GetNearest(t *testing.T) {
	t.Run("座標から最寄り都市", func(t *testing.T) {
		uc := &stubCityUseCase{nearest: &model.NearestCity{City: &model.City{ID: "nara"}, DistanceKm: 1.25}}
		w := doRequest(t, setupCityRouter(uc), http.MethodGet, "/cities/nearest?lat=34.68&lon=135.85", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.LatLng{Lat: 34.68, Lng: 135.85}, uc.location)
		assert.Contains(t, w.Body.String(), `"distance_km":1.25`)
	})

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"緯度がない", "lon=135.85", "lat"},
		{"数値でない経度", "lat=34.68&lon=east", "lon"},
		{"範囲外の緯度", "lat=91&lon=135.85", "lat"},
		{"範囲外の経度", "lat=34.68&lon=-180.5", "lon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubCityUseCase{}
			w := doRequest(t, setupCityRouter(uc), http.MethodGet, "/cities/nearest?"+tt.query, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.field+":")
			assert.Empty(t, uc.called)
		})
	}

	t.Run("都市が1つもない", func(t *testing.T) {
		uc := &stubCityUseCase{err: model.ErrCityNotFound}
		w := doRequest(t, setupCityRouter(uc), http.MethodGet, "/cities/nearest?lat=0&lon=0", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
