package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/usecase/generate"
	"github.com/promptforge/promptforge/internal/usecase/ingest"
)

type generateRequest struct {
	UserRequest  string   `json:"user_request" binding:"required"`
	TargetModel  string   `json:"target_model"`
	PromptStyle  string   `json:"prompt_style"`
	Constraints  []string `json:"constraints"`
	Context      string   `json:"context"`
	OutputFormat string   `json:"output_format"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := s.deps.Generator.Generate(c.Request.Context(), generate.Request{
		UserRequest:  req.UserRequest,
		Context:      req.Context,
		Constraints:  req.Constraints,
		TargetModel:  domain.TargetModel(req.TargetModel),
		PromptStyle:  domain.PromptStyle(req.PromptStyle),
		OutputFormat: domain.OutputFormat(req.OutputFormat),
	})
	if err != nil {
		var verr *generate.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "problems": verr.Problems})
			return
		}
		s.deps.Logger.LogWarning(c.Request.Context(), "generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prompt generation failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

type ingestRequest struct {
	Title   string `json:"title" binding:"required"`
	DocType string `json:"doc_type" binding:"required"`
	Content string `json:"content" binding:"required"`
	Version string `json:"version"`
}

type ingestResponse struct {
	Success    bool   `json:"success"`
	DocID      string `json:"doc_id"`
	ChunkCount int    `json:"chunk_count"`
	Message    string `json:"message"`
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.deps.Ingestor.Ingest(c.Request.Context(), ingest.Request{
		Title:   req.Title,
		DocType: req.DocType,
		Content: req.Content,
		Version: req.Version,
	})
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "problems": verr.Problems})
			return
		}
		s.deps.Logger.LogWarning(c.Request.Context(), "ingestion failed", map[string]interface{}{
			"title": req.Title,
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		return
	}

	c.JSON(http.StatusOK, ingestResponse{
		Success:    true,
		DocID:      result.DocID,
		ChunkCount: result.ChunkCount,
		Message:    result.Message,
	})
}

type documentInfo struct {
	DocID      string `json:"doc_id"`
	Title      string `json:"title"`
	DocType    string `json:"doc_type"`
	Version    string `json:"version"`
	CreatedAt  string `json:"created_at"`
	ChunkCount int    `json:"chunk_count"`
}

type listDocumentsResponse struct {
	Documents  []documentInfo `json:"documents"`
	TotalCount int            `json:"total_count"`
}

func (s *Server) handleListDocuments(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	docs, err := s.deps.Ingestor.List(c.Request.Context(), c.Query("doc_type"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}

	out := make([]documentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentInfo{
			DocID:      d.DocID,
			Title:      d.Title,
			DocType:    d.DocType,
			Version:    d.Version,
			CreatedAt:  d.CreatedAt,
			ChunkCount: d.ChunkCount,
		})
	}
	c.JSON(http.StatusOK, listDocumentsResponse{Documents: out, TotalCount: len(out)})
}

type deleteDocumentResponse struct {
	Success       bool   `json:"success"`
	DeletedChunks int    `json:"deleted_chunks"`
	Message       string `json:"message"`
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	docID := c.Param("id")

	deleted, err := s.deps.Ingestor.Delete(c.Request.Context(), docID)
	if err != nil {
		if errors.Is(err, ingest.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found: " + docID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document"})
		return
	}

	c.JSON(http.StatusOK, deleteDocumentResponse{
		Success:       true,
		DeletedChunks: deleted,
		Message:       "deleted document " + docID,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.deps.Ingestor.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_documents": stats.TotalDocuments,
		"total_chunks":    stats.TotalChunks,
		"by_type":         stats.ByType,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	store := "connected"
	if _, err := s.deps.Ingestor.Stats(c.Request.Context()); err != nil {
		store = "disconnected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"version":      s.deps.Version,
		"vector_store": store,
	})
}
