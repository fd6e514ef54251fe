package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/denysvitali/photowall-server/internal/models"
	"github.com/denysvitali/photowall-server/pkg/telemetry"
)

// handleListFiles returns the files of the asset directory named by the
// dir query parameter as a JSON array.
func (s *Server) handleListFiles(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "handle_list_files")
	defer span.End()

	c.Header("Access-Control-Allow-Origin", "*")

	alias := c.Query("dir")
	if alias == "" {
		alias = s.config.Assets.DefaultDir
	}
	span.SetAttributes(attribute.String("dir", alias))

	files, err := s.library.List(ctx, alias)
	if err != nil {
		span.RecordError(err)
		s.logger.WithError(err).WithField("dir", alias).Error("Failed to list files")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	if s.config.Telemetry.Enabled {
		telemetry.ReportJSON(ctx, s.logger, "file_listing", files)
	}

	// Set before rendering so gin keeps it instead of adding a charset
	c.Header("Content-Type", "application/json")
	c.JSON(http.StatusOK, files)
}

// handleRuntime serves the liveness and runtime info endpoints
func (s *Server) handleRuntime(c *gin.Context) {
	switch strings.TrimPrefix(c.Request.URL.Path, runtimePrefix) {
	case "alive":
		c.JSON(http.StatusOK, models.AliveResponse{Status: "ok"})
	case "info":
		c.JSON(http.StatusOK, s.runtimeInfo())
	default:
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	}
}

func (s *Server) runtimeInfo() models.RuntimeInfo {
	return models.RuntimeInfo{
		StartTime:   s.startTime,
		Uptime:      time.Since(s.startTime).Seconds(),
		Root:        s.config.Server.Root,
		AssetRoot:   s.library.Root(),
		Aliases:     s.config.Assets.Aliases,
		SystemStats: systemStats(s.config.Server.Root, s.logger),
	}
}
