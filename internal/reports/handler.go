package reports

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bloodreport-backend/internal/agents"
	"bloodreport-backend/internal/analyses"
	"bloodreport-backend/internal/shared/server/respond"
	"bloodreport-backend/internal/shared/telemetry"
	"bloodreport-backend/internal/shared/util"
	"bloodreport-backend/internal/tasks"
)

const (
	maxUploadBytes = 10 << 20
	uploadPrefix   = "blood_report_"
)

// Handler serves the analysis endpoints: upload-and-enqueue, synchronous
// analysis, status polling, history and analytics.
type Handler struct {
	Runner    *tasks.Runner
	Analyses  *analyses.Service
	UploadDir string
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.POST("/analyze/sync", h.analyzeSync)
	rg.GET("/status/:task_id", h.status)
	rg.GET("/history/:user_id", h.history)
	rg.GET("/analytics", h.analytics)
}

type analyzeAccepted struct {
	Status       string `json:"status"`
	TaskID       string `json:"task_id"`
	Query        string `json:"query"`
	AnalysisType string `json:"analysis_type"`
	FileName     string `json:"file_name"`
}

type analyzeResult struct {
	Status           string  `json:"status"`
	CreativeAnalysis string  `json:"creative_analysis"`
	AnalysisID       int64   `json:"analysis_id"`
	ProcessingMs     float64 `json:"processing_ms"`
}

type historyItem struct {
	ID           int64   `json:"id"`
	FileName     string  `json:"file_name"`
	Query        string  `json:"query"`
	AnalysisType string  `json:"analysis_type"`
	Status       string  `json:"status"`
	ProcessingMs float64 `json:"processing_ms"`
	CreatedAt    string  `json:"created_at"`
}

// analyzeInput is one validated upload, saved to disk and ready to run.
type analyzeInput struct {
	filePath     string
	fileName     string
	query        string
	analysisType agents.Type
	userID       string
}

func (h *Handler) analyze(c *gin.Context) {
	in, ok := h.bindUpload(c)
	if !ok {
		return
	}

	taskID, err := h.Runner.Enqueue(tasks.Request{
		FilePath:     in.filePath,
		FileName:     in.fileName,
		Query:        in.query,
		AnalysisType: string(in.analysisType),
		UserID:       in.userID,
		RequestID:    c.GetString("requestId"),
	})
	if err != nil {
		removeQuiet(in.filePath)
		if errors.Is(err, tasks.ErrQueueFull) {
			respond.Error(c, http.StatusServiceUnavailable, "queue_full", "analysis queue is full, retry later", nil)
			return
		}
		telemetry.Error("reports.enqueue_failed", map[string]any{
			"err":        err.Error(),
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to enqueue analysis", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, analyzeAccepted{
		Status:       "processing",
		TaskID:       taskID,
		Query:        in.query,
		AnalysisType: string(in.analysisType),
		FileName:     in.fileName,
	})
}

func (h *Handler) analyzeSync(c *gin.Context) {
	in, ok := h.bindUpload(c)
	if !ok {
		return
	}
	defer removeQuiet(in.filePath)

	outcome := h.Analyses.Process(c.Request.Context(), analyses.ProcessRequest{
		FilePath:     in.filePath,
		FileName:     in.fileName,
		Query:        in.query,
		AnalysisType: in.analysisType,
		UserID:       in.userID,
		RequestID:    c.GetString("requestId"),
	})
	if outcome.Err != nil {
		respond.Error(c, http.StatusBadGateway, "analysis_failed", "analysis failed", map[string]any{
			"analysis_id": outcome.AnalysisID,
			"error":       outcome.Result,
		})
		return
	}

	respond.JSON(c, http.StatusOK, analyzeResult{
		Status:           "success",
		CreativeAnalysis: outcome.Result,
		AnalysisID:       outcome.AnalysisID,
		ProcessingMs:     outcome.ProcessingMs,
	})
}

func (h *Handler) status(c *gin.Context) {
	taskID := strings.TrimSpace(c.Param("task_id"))
	if taskID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "task_id is required", nil)
		return
	}
	respond.JSON(c, http.StatusOK, h.Runner.Status(taskID))
}

func (h *Handler) history(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "user_id is required", nil)
		return
	}

	rows, err := h.Analyses.History(c.Request.Context(), userID, analyses.MaxHistoryLimit)
	if err != nil {
		telemetry.Error("reports.history_failed", map[string]any{
			"err":     err.Error(),
			"user_id": userID,
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load history", nil)
		return
	}

	items := make([]historyItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, historyItem{
			ID:           row.ID,
			FileName:     row.FileName,
			Query:        row.Query,
			AnalysisType: row.AnalysisType,
			Status:       row.Status,
			ProcessingMs: row.ProcessingMs,
			CreatedAt:    row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"user_id":  userID,
		"count":    len(items),
		"analyses": items,
	})
}

func (h *Handler) analytics(c *gin.Context) {
	stats, err := h.Analyses.Analytics(c.Request.Context())
	if err != nil {
		telemetry.Error("reports.analytics_failed", map[string]any{"err": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to aggregate analytics", nil)
		return
	}
	respond.JSON(c, http.StatusOK, stats)
}

// bindUpload validates the multipart request and writes the file to the
// upload directory. On any failure it has already written the error response
// and cleaned up after itself.
func (h *Handler) bindUpload(c *gin.Context) (analyzeInput, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "file exceeds the 10MB limit", nil)
			return analyzeInput{}, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return analyzeInput{}, false
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "only PDF files are accepted", nil)
		return analyzeInput{}, false
	}

	analysisType, err := agents.ParseType(c.PostForm("analysis_type"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown analysis_type", map[string]any{
			"allowed": agents.All(),
		})
		return analyzeInput{}, false
	}

	query := util.SanitizeQuery(c.PostForm("query"))
	if query == "" {
		query = agents.ProfileFor(analysisType).DefaultQuery
	}

	fileName, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return analyzeInput{}, false
	}

	dst := filepath.Join(h.UploadDir, fmt.Sprintf("%s%s.pdf", uploadPrefix, uuid.NewString()))
	sum, err := h.saveUpload(fileHeader, dst)
	if err != nil {
		telemetry.Error("reports.save_upload_failed", map[string]any{
			"err":        err.Error(),
			"file_name":  fileName,
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store upload", nil)
		return analyzeInput{}, false
	}

	telemetry.Info("reports.upload_received", map[string]any{
		"file_name":     fileName,
		"size_bytes":    fileHeader.Size,
		"content_hash":  sum,
		"analysis_type": string(analysisType),
		"request_id":    c.GetString("requestId"),
	})

	return analyzeInput{
		filePath:     dst,
		fileName:     fileName,
		query:        query,
		analysisType: analysisType,
		userID:       strings.TrimSpace(c.PostForm("user_id")),
	}, true
}

func (h *Handler) saveUpload(fh *multipart.FileHeader, dst string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", err
	}
	return util.ContentHash(data), nil
}

func removeQuiet(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		telemetry.Warn("reports.cleanup_failed", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}
}
