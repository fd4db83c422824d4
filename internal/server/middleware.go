package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// requestIDKey はリクエストIDを gin.Context に保存するキー
const requestIDKey = "request_id"

// requestID はリクエストごとにIDを割り当てる
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestIDKey, uuid.NewString())
		c.Next()
	}
}

// accessLog はリクエストの処理時間などをデバッグレベルで出力する
func accessLog(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"remote":     c.ClientIP(),
			"status":     c.Writer.Status(),
			"size":       c.Writer.Size(),
			"latency":    time.Since(start),
		}).Debug("リクエスト処理完了")
	}
}
