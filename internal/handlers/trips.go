package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/KidOfCoding/TripManagement/internal/middleware"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/KidOfCoding/TripManagement/internal/reports"
	"github.com/KidOfCoding/TripManagement/internal/trips"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TripService is the trip lifecycle used by the handlers.
type TripService interface {
	Create(ctx context.Context, accountID string, req *models.TripRequest) (*trips.CreateResult, error)
	List(ctx context.Context, accountID string, status string) ([]models.TripView, error)
	Complete(ctx context.Context, accountID, id string) (*models.TripView, error)
	Reopen(ctx context.Context, accountID, id string) (*models.TripView, error)
	SetPayment(ctx context.Context, accountID, id string, req models.PaymentRequest) (*models.TripView, error)
	Update(ctx context.Context, accountID, id string, req *models.TripRequest) (*models.TripView, error)
	Delete(ctx context.Context, accountID, id string) error
}

// ReportService is the read-side reporting used by the handlers.
type ReportService interface {
	Stats(ctx context.Context, accountID string) (models.TripStats, error)
	Duplicates(ctx context.Context, accountID string) ([]models.DuplicateSet, error)
	People(ctx context.Context, accountID string) (*models.People, error)
	Report(ctx context.Context, accountID, startDate, endDate string) (*models.Report, error)
}

// TripHandler serves /api/trips.
type TripHandler struct {
	trips   TripService
	reports ReportService
	log     logrus.FieldLogger
}

// NewTripHandler creates a trip handler and registers its binding rules.
func NewTripHandler(tripService TripService, reportService ReportService, log logrus.FieldLogger) (*TripHandler, error) {
	if err := RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &TripHandler{
		trips:   tripService,
		reports: reportService,
		log:     log,
	}, nil
}

// RegisterRoutes mounts the trip routes on an authenticated group.
func (h *TripHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/stats", h.Stats)
	rg.GET("/duplicates", h.Duplicates)
	rg.GET("/people", h.People)
	rg.GET("/report", h.Report)
	rg.GET("/report/export", h.ExportReport)
	rg.PATCH("/:id/complete", h.Complete)
	rg.PATCH("/:id/reopen", h.Reopen)
	rg.PATCH("/:id/payment", h.SetPayment)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// Create handles POST /api/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req models.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	result, err := h.trips.Create(c.Request.Context(), middleware.AccountID(c), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if result.Reused {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Existing trip reused", "trip": result.Trip})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Trip created successfully", "trip": result.Trip})
}

// List handles GET /api/trips
func (h *TripHandler) List(c *gin.Context) {
	views, err := h.trips.List(c.Request.Context(), middleware.AccountID(c), c.Query("status"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if views == nil {
		views = []models.TripView{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(views), "trips": views})
}

func (h *TripHandler) Complete(c *gin.Context) {
	view, err := h.trips.Complete(c.Request.Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Trip marked as completed", "trip": view})
}

func (h *TripHandler) Reopen(c *gin.Context) {
	view, err := h.trips.Reopen(c.Request.Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Trip reopened", "trip": view})
}

// SetPayment handles PATCH /api/trips/:id/payment
func (h *TripHandler) SetPayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	view, err := h.trips.SetPayment(c.Request.Context(), middleware.AccountID(c), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Payment status updated", "trip": view})
}

// Update handles PUT /api/trips/:id. A body with trip.status "done" closes the trip.
func (h *TripHandler) Update(c *gin.Context) {
	var req models.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	view, err := h.trips.Update(c.Request.Context(), middleware.AccountID(c), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Trip updated successfully", "trip": view})
}

func (h *TripHandler) Delete(c *gin.Context) {
	if err := h.trips.Delete(c.Request.Context(), middleware.AccountID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Trip deleted successfully"})
}

func (h *TripHandler) Stats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (h *TripHandler) Duplicates(c *gin.Context) {
	sets, err := h.reports.Duplicates(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if sets == nil {
		sets = []models.DuplicateSet{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "duplicates": sets})
}

func (h *TripHandler) People(c *gin.Context) {
	people, err := h.reports.People(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "drivers": people.Drivers, "customers": people.Customers})
}

// Report handles GET /api/trips/report?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *TripHandler) Report(c *gin.Context) {
	report, err := h.reports.Report(c.Request.Context(), middleware.AccountID(c), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// ExportReport renders the ranged report as an xlsx attachment.
func (h *TripHandler) ExportReport(c *gin.Context) {
	report, err := h.reports.Report(c.Request.Context(), middleware.AccountID(c), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteXLSX(&buf, report); err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.ExportFilename(report)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
