package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"Itinerary-App/internal/domain/model"
	"Itinerary-App/internal/usecase"
)

// ItineraryHandler は旅程計画APIのハンドラー
type ItineraryHandler struct {
	itineraryUseCase usecase.ItineraryUseCase
	planTimeout      time.Duration
}

// NewItineraryHandler は新しいItineraryHandlerインスタンスを作成
func NewItineraryHandler(itineraryUseCase usecase.ItineraryUseCase, planTimeout time.Duration) *ItineraryHandler {
	return &ItineraryHandler{
		itineraryUseCase: itineraryUseCase,
		planTimeout:      planTimeout,
	}
}

// RegisterRoutes はルーティングを登録する
func (h *ItineraryHandler) RegisterRoutes(r gin.IRouter) {
	itineraries := r.Group("/itineraries")
	itineraries.POST("/round-trip", h.PostRoundTrip)
	itineraries.POST("/one-way", h.PostOneWay)
	itineraries.POST("/one-way/fixed-end", h.PostOneWayFixedEnd)
	itineraries.GET("/:id", h.GetItinerary)
}

// PostRoundTrip は周回ルートを計画するエンドポイント
// POST /itineraries/round-trip
func (h *ItineraryHandler) PostRoundTrip(c *gin.Context) {
	req, ok := h.bindRequest(c, model.ShapeRoundTrip)
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*model.Itinerary, error) {
		return h.itineraryUseCase.PlanRoundTrip(ctx, req.POIIDs)
	})
}

// PostOneWay は出発地固定の片道ルートを計画するエンドポイント
// POST /itineraries/one-way
func (h *ItineraryHandler) PostOneWay(c *gin.Context) {
	req, ok := h.bindRequest(c, model.ShapeFixedStart)
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*model.Itinerary, error) {
		return h.itineraryUseCase.PlanFixedStart(ctx, req.POIIDs, req.Start)
	})
}

// PostOneWayFixedEnd は出発地・目的地固定の片道ルートを計画するエンドポイント
// POST /itineraries/one-way/fixed-end
func (h *ItineraryHandler) PostOneWayFixedEnd(c *gin.Context) {
	req, ok := h.bindRequest(c, model.ShapeFixedStartEnd)
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*model.Itinerary, error) {
		return h.itineraryUseCase.PlanFixedStartEnd(ctx, req.POIIDs, req.Start, req.End)
	})
}

// GetItinerary は保存済みの旅程を取得するエンドポイント
// GET /itineraries/:id
func (h *ItineraryHandler) GetItinerary(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "itinerary_idが指定されていません",
		})
		return
	}
	h.respond(c, func(ctx context.Context) (*model.Itinerary, error) {
		return h.itineraryUseCase.GetItinerary(ctx, id)
	})
}

// bindRequest はリクエストボディを解析してバリデーションする
func (h *ItineraryHandler) bindRequest(c *gin.Context, shape model.TravelShape) (*model.ItineraryRequest, bool) {
	var req model.ItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return nil, false
	}

	if err := validateRequest(&req, shape); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return nil, false
	}
	return &req, true
}

// respond は計画の実行時間を制限し、結果またはエラーをJSONで返す
func (h *ItineraryHandler) respond(c *gin.Context, run func(ctx context.Context) (*model.Itinerary, error)) {
	ctx := c.Request.Context()
	if h.planTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.planTimeout)
		defer cancel()
	}

	itinerary, err := run(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, itinerary)
}

// writeError はエラーを分類してJSONで返す
func writeError(c *gin.Context, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"error":   code,
		"message": err.Error(),
	})
}

// validateRequest はリクエストの詳細バリデーションを行う
func validateRequest(req *model.ItineraryRequest, shape model.TravelShape) error {
	if len(req.POIIDs) == 0 && req.Start == "" && req.End == "" {
		return &ValidationError{Field: "poi_ids", Message: "POIを1件以上指定してください"}
	}
	for _, id := range req.POIIDs {
		if id == "" {
			return &ValidationError{Field: "poi_ids", Message: "空のPOI IDは指定できません"}
		}
	}

	switch shape {
	case model.ShapeFixedStart:
		if req.Start == "" {
			return &ValidationError{Field: "start", Message: "出発地は必須です"}
		}
	case model.ShapeFixedStartEnd:
		if req.Start == "" {
			return &ValidationError{Field: "start", Message: "出発地は必須です"}
		}
		if req.End == "" {
			return &ValidationError{Field: "end", Message: "目的地は必須です"}
		}
	}
	return nil
}

// ValidationError はバリデーションエラーを表す
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// classifyError はドメインエラーをHTTPステータスとエラーコードに変換する
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrPOINotFound):
		return http.StatusNotFound, "poi_not_found"
	case errors.Is(err, model.ErrCityNotFound):
		return http.StatusNotFound, "city_not_found"
	case errors.Is(err, model.ErrItineraryNotFound):
		return http.StatusNotFound, "itinerary_not_found"
	case errors.Is(err, model.ErrTooFewStops):
		return http.StatusBadRequest, "too_few_stops"
	case errors.Is(err, model.ErrTooManyStops):
		return http.StatusBadRequest, "too_many_stops"
	case errors.Is(err, model.ErrInvalidAnchor):
		return http.StatusBadRequest, "invalid_anchor"
	case errors.Is(err, model.ErrInfeasibleTour):
		return http.StatusUnprocessableEntity, "infeasible_tour"
	case errors.Is(err, model.ErrDistanceQueryFailed), errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, "distance_query_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
