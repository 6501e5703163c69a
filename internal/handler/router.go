package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter はミドルウェアとエンドポイントを登録したGinエンジンを返す
func NewRouter(healthHandler *HealthHandler, itineraryHandler *ItineraryHandler, cityHandler *CityHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(config))

	r.GET("/health", healthHandler.GetHealth)
	itineraryHandler.RegisterRoutes(r)
	cityHandler.RegisterRoutes(r)

	return r
}

// requestLogger はリクエストごとにlogrusでアクセスログを出力する
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= 500 {
			entry.Error("❌ リクエスト失敗")
			return
		}
		entry.Info("リクエスト完了")
	}
}
