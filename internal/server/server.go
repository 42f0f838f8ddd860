// Package server exposes the chart payloads over HTTP for the
// charting client.
package server

import (
	"errors"
	"net/http"
	"time"

	"CandleVault/internal/catalog"
	"CandleVault/internal/chart"
	"CandleVault/internal/model"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server wires the payload builder into a gin engine.
type Server struct {
	Builder *chart.Builder
	Catalog *catalog.Catalog
	Engine  *gin.Engine
}

// New creates the HTTP server and registers routes.
func New(builder *chart.Builder, cat *catalog.Catalog) *Server {
	engine := gin.Default()
	engine.SetTrustedProxies(nil)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        24 * time.Hour,
	}))

	s := &Server{Builder: builder, Catalog: cat, Engine: engine}
	engine.GET("/api/datasets", s.listDatasets)
	engine.GET("/api/candles", s.getCandles)
	engine.GET("/api/indicators", s.getIndicators)
	return s
}

// Run serves on addr until the process is stopped.
func (s *Server) Run(addr string) error {
	return s.Engine.Run(addr)
}

func (s *Server) listDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, s.Builder.ListDatasets())
}

// datasetParam resolves the dataset query parameter, defaulting to the
// catalog's default id when absent.
func (s *Server) datasetParam(c *gin.Context) string {
	id := c.Query("dataset")
	if id == "" {
		return s.Catalog.DefaultID()
	}
	return id
}

func (s *Server) getCandles(c *gin.Context) {
	payload, err := s.Builder.Build(s.datasetParam(c), c.DefaultQuery("interval", "1d"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) getIndicators(c *gin.Context) {
	payload, err := s.Builder.BuildIndicators(s.datasetParam(c), c.DefaultQuery("interval", "1d"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// writeError maps error kinds onto HTTP statuses; the error kind is
// the user-facing message and no partial payload is ever returned.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUnsupportedInterval):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrDatasetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
