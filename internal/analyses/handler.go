package analyses

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lexiguide-backend/internal/extract"
	"lexiguide-backend/internal/shared/server/middleware"
	"lexiguide-backend/internal/shared/server/respond"
)

// maxUploadBytes caps uploaded document size at 10MB.
const maxUploadBytes = 10 << 20

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
}

func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "File exceeds the 10MB limit")
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file provided")
		return
	}

	docType := c.PostForm("docType")
	if _, err := ParseDocType(docType); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Unsupported document type")
		return
	}
	language := c.PostForm("language")

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Could not read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Could not read uploaded file")
		return
	}

	result, err := h.Svc.Analyze(c.Request.Context(), AnalyzeRequest{
		FileName:  fileHeader.Filename,
		DocType:   docType,
		Language:  language,
		Data:      data,
		RequestID: middleware.RequestIDFromContext(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDocType), errors.Is(err, ErrFileRequired):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid upload")
		case errors.Is(err, extract.ErrUnsupportedType):
			respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "Only PDF and DOCX files are supported")
		case errors.Is(err, ErrTextTooShort):
			respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "Could not extract enough text from the document. It may be a scanned image.")
		case errors.Is(err, ErrModelReply):
			respond.Error(c, http.StatusBadGateway, "analysis_failed", "The analysis service could not process this document. Please try again.")
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "Failed to analyze document")
		}
		return
	}

	c.Set("analysisId", result.Analysis.ID)
	c.Set("docType", result.Analysis.DocType)

	respond.OK(c, gin.H{
		"analysisId":   result.Analysis.ID,
		"docType":      result.Analysis.DocType,
		"analysis":     result.Analysis.Result,
		"documentText": result.DocumentText,
	})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysisID := c.Param("id")
	if analysisID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Analysis id is required")
		return
	}

	analysis, err := h.Svc.Get(c.Request.Context(), analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Analysis not found")
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "Failed to fetch analysis")
		}
		return
	}

	respond.OK(c, analysis)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	items, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "Failed to list analyses")
		return
	}

	respond.OK(c, gin.H{"analyses": items})
}
