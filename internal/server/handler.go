package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ginjaninja78/trader-config-editor/internal/bulk"
	"github.com/ginjaninja78/trader-config-editor/internal/document"
	"github.com/ginjaninja78/trader-config-editor/internal/pricing"
	"github.com/ginjaninja78/trader-config-editor/internal/record"
	"github.com/ginjaninja78/trader-config-editor/internal/validation"
	"github.com/ginjaninja78/trader-config-editor/internal/xlsxgrid"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	gridFileName    = "trader_grid.xlsx"
)

// Handler serves the document editing API.
type Handler struct {
	sessions       *sessionStore
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewHandler creates a Handler. Uploads larger than maxUploadBytes are
// rejected.
func NewHandler(logger *zap.Logger, maxUploadBytes int64) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions:       newSessionStore(),
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers the document routes on router.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/documents", h.Upload)

	doc := router.Group("/documents/:id")
	doc.GET("", h.GetDocument)
	doc.DELETE("", h.DeleteDocument)
	doc.GET("/categories/:index", h.GetCategory)
	doc.PUT("/categories/:index/products/:row", h.UpdateProduct)
	doc.POST("/global", h.ApplyGlobal)
	doc.POST("/categories", h.ApplyToCategories)
	doc.GET("/issues", h.GetIssues)
	doc.GET("/download", h.Download)
	doc.GET("/grid", h.ExportGrid)
	doc.POST("/grid", h.ImportGrid)
}

// =============================================================================
// REQUEST AND RESPONSE BODIES
// =============================================================================

type categorySummary struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Products int    `json:"products"`
	Records  int    `json:"records"`
}

type documentResponse struct {
	ID         string            `json:"id"`
	FileName   string            `json:"file_name"`
	Overview   document.Overview `json:"overview"`
	Categories []categorySummary `json:"categories"`
}

type categoryResponse struct {
	Index   int            `json:"index"`
	Name    string         `json:"name"`
	Columns []string       `json:"columns"`
	Rows    []document.Row `json:"rows"`
}

// productUpdate holds the fields of a direct edit. Omitted fields keep
// their current value.
type productUpdate struct {
	Name      *string `json:"name"`
	Col2      *string `json:"col2"`
	Col3      *string `json:"col3"`
	Stock     *string `json:"stock"`
	BuyPrice  *string `json:"buy_price"`
	SellPrice *string `json:"sell_price"`
}

// updates returns the submitted fields in record order.
func (u productUpdate) updates() [record.FieldCount]*string {
	return [record.FieldCount]*string{u.Name, u.Col2, u.Col3, u.Stock, u.BuyPrice, u.SellPrice}
}

type categoryRequest struct {
	Categories   []string `json:"categories"`
	PricePercent float64  `json:"price_percent"`
	ApplyToBuy   *bool    `json:"apply_to_buy"`
	ApplyToSell  *bool    `json:"apply_to_sell"`
}

// =============================================================================
// HANDLERS
// =============================================================================

// Upload parses a configuration file and opens a session for it.
// POST /api/documents (multipart field "file")
func (h *Handler) Upload(c *gin.Context) {
	data, name, ok := h.readUpload(c)
	if !ok {
		return
	}

	doc, err := document.Parse(data)
	if err != nil {
		h.logger.Info("rejected upload", zap.String("file", name), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := h.sessions.put(name, doc)
	h.logger.Info("document uploaded",
		zap.String("id", sess.id),
		zap.String("file", name),
		zap.Int("categories", len(doc.Categories())))

	c.JSON(http.StatusCreated, describe(sess))
}

// GetDocument returns the overview and the category list.
// GET /api/documents/:id
func (h *Handler) GetDocument(c *gin.Context) {
	h.withSession(c, func(sess *session) {
		c.JSON(http.StatusOK, describe(sess))
	})
}

// DeleteDocument discards a session.
// DELETE /api/documents/:id
func (h *Handler) DeleteDocument(c *gin.Context) {
	if !h.sessions.delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCategory returns the editable rows of one category.
// GET /api/documents/:id/categories/:index
func (h *Handler) GetCategory(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	h.withSession(c, func(sess *session) {
		cat, err := sess.doc.Category(index)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, categoryResponse{
			Index:   cat.Index(),
			Name:    cat.DisplayName(),
			Columns: record.Titles,
			Rows:    cat.Rows(),
		})
	})
}

// UpdateProduct overwrites one record with the submitted fields. A record
// that does not decode answers 409 unless all six fields are submitted.
// PUT /api/documents/:id/categories/:index/products/:row
func (h *Handler) UpdateProduct(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	row, ok := intParam(c, "row")
	if !ok {
		return
	}

	var req productUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withSession(c, func(sess *session) {
		cat, err := sess.doc.Category(index)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		raw, err := cat.Product(row)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		fields, err := record.Merge(raw, req.updates())
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if cols := fields.SeparatorColumns(); len(cols) > 0 {
			h.logger.Warn("field value contains the record separator",
				zap.String("id", sess.id),
				zap.Int("category", index),
				zap.Int("row", row),
				zap.Strings("columns", cols))
		}
		if err := sess.doc.SetRecord(index, row, fields); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, document.Row{Index: row, Fields: fields})
	})
}

// ApplyGlobal applies a stock override and a price change to all
// categories.
// POST /api/documents/:id/global
func (h *Handler) ApplyGlobal(c *gin.Context) {
	var opts bulk.GlobalOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withSession(c, func(sess *session) {
		rep, err := bulk.ApplyGlobal(sess.doc, opts)
		h.respondReport(c, sess, "global", rep, err)
	})
}

// ApplyToCategories applies a price change to selected categories.
// apply_to_buy and apply_to_sell default to true.
// POST /api/documents/:id/categories
func (h *Handler) ApplyToCategories(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts := bulk.CategoryOptions{
		Categories:   req.Categories,
		PricePercent: req.PricePercent,
		ApplyToBuy:   req.ApplyToBuy == nil || *req.ApplyToBuy,
		ApplyToSell:  req.ApplyToSell == nil || *req.ApplyToSell,
	}

	h.withSession(c, func(sess *session) {
		rep, err := bulk.ApplyToCategories(sess.doc, opts)
		h.respondReport(c, sess, "categories", rep, err)
	})
}

// GetIssues runs the validator.
// GET /api/documents/:id/issues
func (h *Handler) GetIssues(c *gin.Context) {
	h.withSession(c, func(sess *session) {
		c.JSON(http.StatusOK, validation.NewValidator().ValidateAll(sess.doc))
	})
}

// Download returns the serialized document.
// GET /api/documents/:id/download
func (h *Handler) Download(c *gin.Context) {
	h.withSession(c, func(sess *session) {
		data, err := sess.doc.Marshal()
		if err != nil {
			h.logger.Error("failed to encode document", zap.String("id", sess.id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode document"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.DownloadFileName))
		c.Data(http.StatusOK, document.ContentType, data)
	})
}

// ExportGrid returns the category grid as a workbook.
// GET /api/documents/:id/grid
func (h *Handler) ExportGrid(c *gin.Context) {
	h.withSession(c, func(sess *session) {
		var buf bytes.Buffer
		if err := xlsxgrid.WriteTo(&buf, sess.doc); err != nil {
			h.logger.Error("failed to export grid", zap.String("id", sess.id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export grid"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", gridFileName))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	})
}

// ImportGrid applies an edited workbook.
// POST /api/documents/:id/grid (multipart field "file")
func (h *Handler) ImportGrid(c *gin.Context) {
	data, _, ok := h.readUpload(c)
	if !ok {
		return
	}

	h.withSession(c, func(sess *session) {
		rep, err := xlsxgrid.Import(sess.doc, bytes.NewReader(data))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Info("grid imported", zap.String("id", sess.id), zap.Int("changed", rep.Changed))
		c.JSON(http.StatusOK, rep)
	})
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// withSession runs fn with the session of the :id parameter locked.
func (h *Handler) withSession(c *gin.Context, fn func(*session)) {
	sess, ok := h.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
}

func (h *Handler) readUpload(c *gin.Context) ([]byte, string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return nil, "", false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing upload field \"file\""})
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return nil, "", false
	}
	return data, header.Filename, true
}

func (h *Handler) respondReport(c *gin.Context, sess *session, op string, rep bulk.Report, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pricing.ErrPercentOutOfRange) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("bulk operation applied",
		zap.String("id", sess.id),
		zap.String("operation", op),
		zap.Int("updated", rep.Updated),
		zap.Int("price_errors", len(rep.PriceErrors)))
	c.JSON(http.StatusOK, rep)
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s %q", name, c.Param(name))})
		return 0, false
	}
	return v, true
}

func describe(sess *session) documentResponse {
	cats := sess.doc.Categories()
	summaries := make([]categorySummary, len(cats))
	for i, cat := range cats {
		summaries[i] = categorySummary{
			Index:    cat.Index(),
			Name:     cat.DisplayName(),
			Products: cat.Len(),
			Records:  len(cat.Rows()),
		}
	}
	return documentResponse{
		ID:         sess.id,
		FileName:   sess.fileName,
		Overview:   sess.doc.Overview(),
		Categories: summaries,
	}
}
