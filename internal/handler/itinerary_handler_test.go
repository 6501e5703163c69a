package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Itinerary-App/internal/domain/model"
)

type stubUseCase struct {
	itinerary *model.Itinerary
	err       error

	calledShape model.TravelShape
	poiIDs      []string
	start, end  string
	deadline    bool
}

func (s *stubUseCase) record(ctx context.Context, shape model.TravelShape, poiIDs []string, start, end string) (*model.Itinerary, error) {
	s.calledShape = shape
	s.poiIDs = poiIDs
	s.start, s.end = start, end
	_, s.deadline = ctx.Deadline()
	return s.itinerary, s.err
}

func (s *stubUseCase) PlanRoundTrip(ctx context.Context, poiIDs []string) (*model.Itinerary, error) {
	return s.record(ctx, model.ShapeRoundTrip, poiIDs, "", "")
}

func (s *stubUseCase) PlanFixedStart(ctx context.Context, poiIDs []string, start string) (*model.Itinerary, error) {
	return s.record(ctx, model.ShapeFixedStart, poiIDs, start, "")
}

func (s *stubUseCase) PlanFixedStartEnd(ctx context.Context, poiIDs []string, start, end string) (*model.Itinerary, error) {
	return s.record(ctx, model.ShapeFixedStartEnd, poiIDs, start, end)
}

func (s *stubUseCase) GetItinerary(ctx context.Context, id string) (*model.Itinerary, error) {
	return s.record(ctx, "", []string{id}, "", "")
}

func setupRouter(uc *stubUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHealthHandler("Itinerary-App"), NewItineraryHandler(uc, 5*time.Second), NewCityHandler(&stubCityUseCase{}, 5*time.Second))
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleItinerary() *model.Itinerary {
	return &model.Itinerary{
		ID:            "itin_1",
		Shape:         model.ShapeRoundTrip,
		Order:         []string{"p1", "p2", "p3"},
		Cities:        []string{"a", "b", "c", "a"},
		TotalDistance: 35,
		Route:         orb.LineString{{135.0, 35.0}, {136.0, 35.0}, {136.0, 36.0}, {135.0, 35.0}},
	}
}

func TestItineraryHandler_PostRoundTrip(t *testing.T) {
	uc := &stubUseCase{itinerary: sampleItinerary()}
	r := setupRouter(uc)

	w := doRequest(t, r, http.MethodPost, "/itineraries/round-trip", model.ItineraryRequest{POIIDs: []string{"p1", "p2", "p3"}})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.ShapeRoundTrip, uc.calledShape)
	assert.Equal(t, []string{"p1", "p2", "p3"}, uc.poiIDs)
	assert.True(t, uc.deadline)

	var body struct {
		ID            string      `json:"itinerary_id"`
		Order         []string    `json:"order"`
		TotalDistance float64     `json:"total_distance"`
		Route         [][]float64 `json:"route"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "itin_1", body.ID)
	assert.Equal(t, 35.0, body.TotalDistance)
	assert.Equal(t, []float64{135.0, 35.0}, body.Route[0])
	assert.Len(t, body.Route, 4)
}

func TestItineraryHandler_PostOneWay(t *testing.T) {
	t.Run("出発地を渡す", func(t *testing.T) {
		uc := &stubUseCase{itinerary: sampleItinerary()}
		r := setupRouter(uc)

		w := doRequest(t, r, http.MethodPost, "/itineraries/one-way", model.ItineraryRequest{POIIDs: []string{"p2", "p3"}, Start: "p1"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.ShapeFixedStart, uc.calledShape)
		assert.Equal(t, "p1", uc.start)
	})

	t.Run("出発地がない", func(t *testing.T) {
		uc := &stubUseCase{itinerary: sampleItinerary()}
		r := setupRouter(uc)

		w := doRequest(t, r, http.MethodPost, "/itineraries/one-way", model.ItineraryRequest{POIIDs: []string{"p1", "p2", "p3"}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "validation_error")
		assert.Empty(t, uc.calledShape)
	})
}

func TestItineraryHandler_PostOneWayFixedEnd(t *testing.T) {
	t.Run("出発地と目的地を渡す", func(t *testing.T) {
		uc := &stubUseCase{itinerary: sampleItinerary()}
		r := setupRouter(uc)

		w := doRequest(t, r, http.MethodPost, "/itineraries/one-way/fixed-end", model.ItineraryRequest{POIIDs: []string{"p2"}, Start: "p1", End: "p3"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.ShapeFixedStartEnd, uc.calledShape)
		assert.Equal(t, "p1", uc.start)
		assert.Equal(t, "p3", uc.end)
	})

	t.Run("目的地がない", func(t *testing.T) {
		uc := &stubUseCase{itinerary: sampleItinerary()}
		r := setupRouter(uc)

		w := doRequest(t, r, http.MethodPost, "/itineraries/one-way/fixed-end", model.ItineraryRequest{POIIDs: []string{"p2"}, Start: "p1"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "end")
	})
}

func TestItineraryHandler_InvalidJSON(t *testing.T) {
	uc := &stubUseCase{itinerary: sampleItinerary()}
	r := setupRouter(uc)

	w := doRequest(t, r, http.MethodPost, "/itineraries/round-trip", `{"poi_ids": "oops"`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
}

func TestItineraryHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"POI未検出", model.ErrPOINotFound, http.StatusNotFound, "poi_not_found"},
		{"最寄り都市なしはPOI未検出を優先", fmt.Errorf("%w: %w", model.ErrPOINotFound, model.ErrCityNotFound), http.StatusNotFound, "poi_not_found"},
		{"都市検索の障害", errors.New("connection refused"), http.StatusInternalServerError, "internal_error"},
		{"都市が少なすぎる", model.ErrTooFewStops, http.StatusBadRequest, "too_few_stops"},
		{"都市が多すぎる", model.ErrTooManyStops, http.StatusBadRequest, "too_many_stops"},
		{"不正な出発地・目的地", model.ErrInvalidAnchor, http.StatusBadRequest, "invalid_anchor"},
		{"巡回路なし", model.ErrInfeasibleTour, http.StatusUnprocessableEntity, "infeasible_tour"},
		{"オラクルの失敗", model.ErrDistanceQueryFailed, http.StatusBadGateway, "distance_query_failed"},
		{"タイムアウト", context.DeadlineExceeded, http.StatusBadGateway, "distance_query_failed"},
		{"その他", fmt.Errorf("unexpected"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUseCase{err: fmt.Errorf("wrapped: %w", tt.err)}
			r := setupRouter(uc)

			w := doRequest(t, r, http.MethodPost, "/itineraries/round-trip", model.ItineraryRequest{POIIDs: []string{"p1", "p2", "p3"}})

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestItineraryHandler_GetItinerary(t *testing.T) {
	t.Run("保存済みの旅程", func(t *testing.T) {
		uc := &stubUseCase{itinerary: sampleItinerary()}
		r := setupRouter(uc)

		w := doRequest(t, r, http.MethodGet, "/itineraries/itin_1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"itin_1"}, uc.poiIDs)
	})

	t.Run("存在しない旅程", func(t *testing.T) {
		uc := &stubUseCase{err: model.ErrItineraryNotFound}
		r := setupRouter(uc)

		w := doRequest(t, r, http.MethodGet, "/itineraries/nope", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "itinerary_not_found")
	})
}

func TestHealthHandler_GetHealth(t *testing.T) {
	r := setupRouter(&stubUseCase{})

	w := doRequest(t, r, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy", "service": "Itinerary-App"}`, w.Body.String())
}
