package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/bawanisandunika/wattpad-downloader/pkg/config"
	"github.com/bawanisandunika/wattpad-downloader/pkg/integrations"
	"github.com/bawanisandunika/wattpad-downloader/pkg/services"
	"github.com/gin-gonic/gin"
)

// Server is the thin HTTP layer over the download pipeline: a static landing
// page, a metadata endpoint for the browser UI, and the download route that
// streams the assembled document.
type Server struct {
	engine     *gin.Engine
	source     services.Source
	downloader *services.Downloader
	cfg        config.Config
}

func New(cfg config.Config, source services.Source, downloader *services.Downloader) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		source:     source,
		downloader: downloader,
		cfg:        cfg,
	}

	engine.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))
	engine.Static("/static", cfg.StaticDir)
	engine.GET("/api/story/:id", s.storyInfo)
	engine.GET("/download/:id", s.download)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run() error {
	slog.Info("listening", "port", s.cfg.Port)
	return s.engine.Run(":" + s.cfg.Port)
}

func (s *Server) storyInfo(c *gin.Context) {
	story, err := s.source.GetStory(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       story.ID,
		"title":    story.Title,
		"author":   story.Author,
		"chapters": len(story.Chapters),
	})
}

func (s *Server) download(c *gin.Context) {
	assembler, err := assemblerFor(c.DefaultQuery("format", "pdf"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.DownloadTimeout)
	defer cancel()

	bundle, err := s.downloader.DownloadStory(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	filename := integrations.SanitizeFilename(bundle.Title) + "." + assembler.Extension()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", assembler.ContentType())
	c.Status(http.StatusOK)

	// Headers are already on the wire; an assembly error past this point can
	// only be logged, the partial response cannot be retracted.
	if err := assembler.Assemble(bundle, c.Writer); err != nil {
		slog.Error("assembly failed mid-response", "story", c.Param("id"), "error", err)
	}
}

func assemblerFor(format string) (integrations.Assembler, error) {
	switch format {
	case "pdf":
		return integrations.NewPDFAssembler(), nil
	case "epub":
		return integrations.NewEPubAssembler(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
