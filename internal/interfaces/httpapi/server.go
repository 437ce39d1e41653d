package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pulse/internal/application/port"
	"pulse/internal/application/service"
)

// NewRouter exposes the ingestion core over HTTP: a manual trigger for fetch
// cycles and a combined data/scheduler status query.
func NewRouter(scheduler *service.Scheduler, fetcher port.Fetcher) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.POST("/fetch/:type", triggerFetch(scheduler))
	api.GET("/data-status", dataStatus(scheduler, fetcher))

	return router
}

func triggerFetch(scheduler *service.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		dataType := c.Param("type")
		if err := scheduler.Trigger(c.Request.Context(), dataType); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, service.ErrUnknownDataType) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{
				"status":    "error",
				"dataType":  dataType,
				"error":     err.Error(),
				"timestamp": time.Now().UTC(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "success",
			"dataType":  dataType,
			"timestamp": time.Now().UTC(),
		})
	}
}

func dataStatus(scheduler *service.Scheduler, fetcher port.Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := fetcher.Status(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     err.Error(),
				"timestamp": time.Now().UTC(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data":      data,
			"scheduler": scheduler.Status(),
			"timestamp": time.Now().UTC(),
		})
	}
}
