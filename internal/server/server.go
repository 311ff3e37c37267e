// Package server exposes the prompt generation and admin APIs over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/usecase/generate"
	"github.com/promptforge/promptforge/internal/usecase/ingest"
)

// Generator runs the prompt generation pipeline.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Response, error)
}

// Ingestor manages the knowledge base contents.
type Ingestor interface {
	Ingest(ctx context.Context, req ingest.Request) (ingest.Result, error)
	List(ctx context.Context, docType string, limit int) ([]domain.DocumentInfo, error)
	Delete(ctx context.Context, docID string) (int, error)
	Stats(ctx context.Context) (ingest.Stats, error)
}

// Logger is the server's structured logging port.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Deps wires the server's collaborators.
type Deps struct {
	Generator Generator
	Ingestor  Ingestor
	Logger    Logger

	// APIKeys is the accepted X-API-Key set. Empty disables auth.
	APIKeys []string

	// MaxBodyBytes bounds request bodies. Zero disables the limit.
	MaxBodyBytes int64

	Version string

	// Debug keeps gin in debug mode and enables verbose request logs.
	Debug bool
}

// Server hosts the HTTP API.
type Server struct {
	engine *gin.Engine
	deps   Deps
}

// New builds a fully routed server.
func New(deps Deps) *Server {
	if !deps.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(deps.Logger))
	if deps.MaxBodyBytes > 0 {
		engine.Use(BodySizeLimit(deps.MaxBodyBytes))
	}
	engine.Use(APIKeyAuth(deps.APIKeys, deps.Logger))

	s := &Server{engine: engine, deps: deps}

	engine.GET("/health", s.handleHealth)
	engine.POST("/generate", s.handleGenerate)

	admin := engine.Group("/admin")
	{
		admin.POST("/ingest", s.handleIngest)
		admin.GET("/documents", s.handleListDocuments)
		admin.DELETE("/documents/:id", s.handleDeleteDocument)
		admin.GET("/stats", s.handleStats)
	}

	return s
}

// Handler exposes the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP on the given address until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
