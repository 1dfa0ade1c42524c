// Package http exposes the change processor over HTTP, for deliveries
// that do not come through a function trigger (pipes, webhooks, replays).
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driving/streamevent"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driving"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// MaxBodyBytes caps an ingest request body.
const MaxBodyBytes = 6 << 20

// Server is the HTTP ingest server.
type Server struct {
	processor driving.ChangeProcessor
	router    *gin.Engine
}

// NewServer builds the router.
func NewServer(processor driving.ChangeProcessor) *Server {
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{processor: processor}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET("/health/self", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "true"})
	})

	v1 := router.Group("/api/v1")
	v1.POST("/records", s.postRecords)

	s.router = router
	return s
}

// Router returns the underlying engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) postRecords(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	records, failed, err := streamevent.Decode(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decodeErrors := make([]string, 0, len(failed))
	for _, f := range failed {
		logger.Get().Error().Err(f.Err).Int("index", f.Index).Str("event_id", f.EventID).Msg("Failed to decode record")
		decodeErrors = append(decodeErrors, f.Error())
	}

	report, err := s.processor.Process(c.Request.Context(), records)
	body := gin.H{
		"received":          len(records) + len(failed),
		"decodeErrors":      decodeErrors,
		"translated":        report.Translated,
		"translationErrors": report.TranslationErrors,
		"submitted":         report.Submission.Submitted,
		"failed":            report.Submission.Failed,
	}
	if err != nil {
		body["error"] = err.Error()
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrThrottled) {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// requestLogger logs one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Get().Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
