package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/usecase"
)

// CityHandler は都市間の距離・経路・最寄り都市を照会するハンドラー
type CityHandler struct {
	cityUseCase  usecase.CityUseCase
	queryTimeout time.Duration
}

// NewCityHandler は新しいCityHandlerインスタンスを作成
func NewCityHandler(cityUseCase usecase.CityUseCase, queryTimeout time.Duration) *CityHandler {
	return &CityHandler{
		cityUseCase:  cityUseCase,
		queryTimeout: queryTimeout,
	}
}

// RegisterRoutes はルーティングを登録する
func (h *CityHandler) RegisterRoutes(r gin.IRouter) {
	cities := r.Group("/cities")
	cities.GET("/distance", h.GetDistance)
	cities.GET("/route", h.GetRoute)
	cities.GET("/nearest", h.GetNearest)
}

// GetDistance は2都市間の最短距離を返す
// GET /cities/distance?from=&to=
func (h *CityHandler) GetDistance(c *gin.Context) {
	from, to, ok := bindCityPair(c)
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (any, error) {
		return h.cityUseCase.GetDistance(ctx, from, to)
	})
}

// GetRoute は2都市間の最短経路の座標列を返す
// GET /cities/route?from=&to=
func (h *CityHandler) GetRoute(c *gin.Context) {
	from, to, ok := bindCityPair(c)
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (any, error) {
		return h.cityUseCase.GetRoute(ctx, from, to)
	})
}

// GetNearest は座標に最も近い都市を返す
// GET /cities/nearest?lat=&lon=
func (h *CityHandler) GetNearest(c *gin.Context) {
	lat, err := parseCoordinate(c.Query("lat"), 90)
	if err != nil {
		badQuery(c, "lat", err.Message)
		return
	}
	lon, err := parseCoordinate(c.Query("lon"), 180)
	if err != nil {
		badQuery(c, "lon", err.Message)
		return
	}
	h.respond(c, func(ctx context.Context) (any, error) {
		return h.cityUseCase.FindNearestCity(ctx, model.LatLng{Lat: lat, Lng: lon})
	})
}

func (h *CityHandler) respond(c *gin.Context, run func(ctx context.Context) (any, error)) {
	ctx := c.Request.Context()
	if h.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()
	}

	result, err := run(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func bindCityPair(c *gin.Context) (string, string, bool) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" {
		badQuery(c, "from", "出発都市IDは必須です")
		return "", "", false
	}
	if to == "" {
		badQuery(c, "to", "到着都市IDは必須です")
		return "", "", false
	}
	return from, to, true
}

// parseCoordinate は ±limit の範囲の度数を解析する
func parseCoordinate(raw string, limit float64) (float64, *ValidationError) {
	if raw == "" {
		return 0, &ValidationError{Message: "座標は必須です"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValidationError{Message: "数値ではありません: " + raw}
	}
	if v < -limit || v > limit {
		return 0, &ValidationError{Message: "範囲外の座標です: " + raw}
	}
	return v, nil
}

func badQuery(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation_error",
		"message": (&ValidationError{Field: field, Message: message}).Error(),
	})
}
