package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"supplyArchive/internal/archive"
	"supplyArchive/internal/metrics"
	"supplyArchive/internal/model"
)

type readStore interface {
	FindByUID(ctx context.Context, uid uint64) (*model.ArchivedRecord, error)
	List(ctx context.Context, limit, offset int) ([]model.ArchivedRecord, int64, error)
	Search(ctx context.Context, filter model.SearchFilter) ([]model.ArchivedRecord, error)
	Stats(ctx context.Context) (model.ArchiveStats, error)
	ExportAll(ctx context.Context) ([]model.ArchivedRecord, error)
}

type backfiller interface {
	Run(ctx context.Context, uid uint64) (*model.ArchivedRecord, bool, error)
}

// Handler serves the archive read API and the manual archive entry point.
type Handler struct {
	store    readStore
	backfill backfiller
	dbPing   func(context.Context) error
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewHandler(store readStore, backfill backfiller, dbPing func(context.Context) error, logger *zap.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, backfill: backfill, dbPing: dbPing, logger: logger, metrics: m}
}

// Health reports service and database status.
func (h *Handler) Health(c *gin.Context) {
	database := "connected"
	status := http.StatusOK
	if h.dbPing != nil {
		if err := h.dbPing(c.Request.Context()); err != nil {
			database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, gin.H{
		"status":    "running",
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListProducts returns archived products, newest first, paginated.
func (h *Handler) ListProducts(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	page := intQuery(c, "page", 1)
	if limit < 1 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}

	records, total, err := h.store.List(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	respondList(c, records, len(records), total, page, pages)
}

// GetProduct returns one archived product by uid.
func (h *Handler) GetProduct(c *gin.Context) {
	uid, err := parseUID(c.Param("uid"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid uid")
		return
	}

	rec, err := h.store.FindByUID(c.Request.Context(), uid)
	if err != nil {
		h.logger.Error("get product failed", zap.Uint64("uid", uid), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		respondError(c, http.StatusNotFound, "product not found in archive")
		return
	}
	respondData(c, http.StatusOK, rec)
}

// Stats returns archive-wide aggregates.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("stats failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(c, http.StatusOK, stats)
}

// Search filters products by manufacturer, customer, category, or
// completion date range.
func (h *Handler) Search(c *gin.Context) {
	filter := model.SearchFilter{
		Manufacturer: c.Query("manufacturer"),
		Customer:     c.Query("customer"),
		Category:     c.Query("category"),
	}
	if start, ok := timeQuery(c, "startDate"); ok {
		filter.StartDate = &start
	}
	if end, ok := timeQuery(c, "endDate"); ok {
		filter.EndDate = &end
	}

	h.search(c, filter)
}

// ByManufacturer returns all products originated by one manufacturer.
func (h *Handler) ByManufacturer(c *gin.Context) {
	h.search(c, model.SearchFilter{Manufacturer: c.Param("address")})
}

// ByCustomer returns all products received by one customer.
func (h *Handler) ByCustomer(c *gin.Context) {
	h.search(c, model.SearchFilter{Customer: c.Param("address")})
}

func (h *Handler) search(c *gin.Context, filter model.SearchFilter) {
	records, err := h.store.Search(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("search failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	count := len(records)
	c.JSON(http.StatusOK, Envelope{Success: true, Count: &count, Data: records})
}

// Export returns the full archive as a downloadable JSON document.
func (h *Handler) Export(c *gin.Context) {
	records, err := h.store.ExportAll(c.Request.Context())
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Disposition", "attachment; filename=supplychain-archive-backup.json")
	c.JSON(http.StatusOK, gin.H{
		"export_date":   time.Now().UTC(),
		"total_records": len(records),
		"data":          records,
	})
}

// Archive manually archives a completed product whose delivery event was
// missed by the live subscription.
func (h *Handler) Archive(c *gin.Context) {
	uid, err := parseUID(c.Param("uid"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid uid")
		return
	}

	h.metrics.IncBackfillRequests()

	rec, already, err := h.backfill.Run(c.Request.Context(), uid)
	if err != nil {
		var notCompleted *archive.NotCompletedError
		var fetchErr *archive.FetchError

		switch {
		case errors.As(err, &notCompleted):
			respondError(c, http.StatusBadRequest,
				fmt.Sprintf("product not yet completed on blockchain (current state: %d)", notCompleted.State))
		case errors.As(err, &fetchErr):
			h.logger.Error("backfill fetch failed", zap.Uint64("uid", uid), zap.Error(err))
			respondError(c, http.StatusBadGateway, err.Error())
		default:
			h.logger.Error("backfill failed", zap.Uint64("uid", uid), zap.Error(err))
			respondError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if already {
		respondMessage(c, http.StatusOK, "product already archived", rec)
		return
	}
	respondMessage(c, http.StatusOK, "product archived successfully", rec)
}

func parseUID(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}

func timeQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
