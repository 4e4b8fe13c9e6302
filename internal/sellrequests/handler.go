package sellrequests

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"watchvault/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterPublicRoutes exposes the intake form endpoint.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.submit)
}

// RegisterAdminRoutes exposes the back-office queue.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("/:id/status", h.setStatus)
}

type submitReq struct {
	Brand         string          `json:"brand"`
	Model         string          `json:"model"`
	ExpectedPrice string          `json:"expected_price"`
	Condition     string          `json:"condition"`
	BoxAndPapers  bool            `json:"box_and_papers"`
	ImagesURL     string          `json:"images_url"`
	ContactInfo   json.RawMessage `json:"contact_info"`
}

func (h *Handler) submit(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Brand = strings.TrimSpace(req.Brand)
	req.Model = strings.TrimSpace(req.Model)
	if req.Brand == "" || req.Model == "" || len(req.ContactInfo) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand, model, and contact_info are required"})
		return
	}

	condition := strings.TrimSpace(req.Condition)
	if condition == "" {
		condition = "Unknown"
	}

	id, err := h.Repo.Create(c.Request.Context(), &models.SellRequest{
		Brand:         req.Brand,
		Model:         req.Model,
		ExpectedPrice: strings.TrimSpace(req.ExpectedPrice),
		Condition:     condition,
		BoxAndPapers:  req.BoxAndPapers,
		ImagesURL:     strings.TrimSpace(req.ImagesURL),
		ContactInfo:   req.ContactInfo,
	})
	if err != nil {
		log.Printf("[sellrequests] create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "status": "New"})
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Repo.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	if items == nil {
		items = []models.SellRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) setStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	if err := h.Repo.SetStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}
