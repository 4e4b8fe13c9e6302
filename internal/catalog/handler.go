package catalog

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"watchvault/internal/importer"
	"watchvault/internal/notify"
	"watchvault/pkg/models"
)

type Handler struct {
	Repo     *Repo
	Importer *importer.Importer
	Hub      *notify.Hub // optional
}

func NewHandler(repo *Repo, imp *importer.Importer, hub *notify.Hub) *Handler {
	return &Handler{Repo: repo, Importer: imp, Hub: hub}
}

// RegisterPublicRoutes exposes the storefront read surface. Only Public
// records are ever returned here.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.listPublic)           // GET /watches
	rg.GET("/sold", h.listSold)        // GET /watches/sold
	rg.GET("/:slug", h.getBySlug)      // GET /watches/:slug
}

// RegisterAdminRoutes exposes the back-office surface; callers must
// already be behind the admin auth middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.listAdmin)
	rg.POST("", h.create)
	rg.PUT("/:id", h.update)
	rg.POST("/:id/publish", h.setVisibility(models.VisibilityPublic))
	rg.POST("/:id/unpublish", h.setVisibility(models.VisibilityPrivate))
	rg.POST("/:id/status", h.setStatus)
	rg.POST("/import", h.importJSON)
}

func (h *Handler) listPublic(c *gin.Context) {
	h.list(c, ListQuery{
		Visibility: models.VisibilityPublic,
		Status:     c.Query("status"),
		Brand:      c.Query("brand"),
		Q:          c.Query("q"),
		Limit:      parseInt(c.Query("limit"), 20),
		Offset:     parseInt(c.Query("offset"), 0),
	})
}

// listSold is the sold archive: historical sales stay browsable.
func (h *Handler) listSold(c *gin.Context) {
	h.list(c, ListQuery{
		Visibility: models.VisibilityPublic,
		Status:     models.StatusSold,
		Limit:      parseInt(c.Query("limit"), 20),
		Offset:     parseInt(c.Query("offset"), 0),
	})
}

func (h *Handler) listAdmin(c *gin.Context) {
	h.list(c, ListQuery{
		Visibility: c.Query("visibility"),
		Status:     c.Query("status"),
		Brand:      c.Query("brand"),
		Q:          c.Query("q"),
		Limit:      parseInt(c.Query("limit"), 20),
		Offset:     parseInt(c.Query("offset"), 0),
	})
}

func (h *Handler) list(c *gin.Context, q ListQuery) {
	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getBySlug(c *gin.Context) {
	w, err := h.Repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if w == nil || w.Visibility != models.VisibilityPublic {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, w)
}

type watchReq struct {
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Reference    string   `json:"reference"`
	Year         int      `json:"year"`
	Condition    string   `json:"condition"`
	Price        string   `json:"price"`
	Status       string   `json:"status"`
	Visibility   string   `json:"visibility"`
	BoxAndPapers bool     `json:"box_and_papers"`
	Description  string   `json:"description"`
	Images       []string `json:"images"`
	Tags         []string `json:"tags"`
	Featured     bool     `json:"featured"`
	ExternalID   string   `json:"external_id"`
	SourceURL    string   `json:"source_url"`
	Slug         string   `json:"slug"`
}

// create is manual admin creation: looser validation than the importer,
// no text extraction. Required: brand, model, reference, year,
// description, price.
func (h *Handler) create(c *gin.Context) {
	var req watchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Brand = strings.TrimSpace(req.Brand)
	req.Model = strings.TrimSpace(req.Model)
	req.Reference = strings.TrimSpace(req.Reference)
	req.Description = strings.TrimSpace(req.Description)

	if req.Brand == "" || req.Model == "" || req.Reference == "" || req.Description == "" || req.Year == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand, model, reference, year, description, and price are required"})
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	condition := req.Condition
	if strings.TrimSpace(condition) == "" {
		condition = "Excellent"
	}

	slugBase := strings.TrimSpace(req.Slug)
	if slugBase == "" {
		slugBase = importer.ToSlug(req.Brand + "-" + req.Model + "-" + req.Reference)
	}
	slug, err := importer.EnsureUniqueSlug(c.Request.Context(), h.Repo, slugBase, req.ExternalID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	w := &models.Watch{
		ExternalID:   req.ExternalID,
		Slug:         slug,
		Brand:        req.Brand,
		Model:        req.Model,
		Reference:    req.Reference,
		Year:         req.Year,
		Condition:    importer.NormalizeCondition(condition),
		Price:        price,
		Status:       req.Status,
		Visibility:   req.Visibility,
		BoxAndPapers: req.BoxAndPapers,
		Description:  req.Description,
		Images:       req.Images,
		Tags:         req.Tags,
		Featured:     req.Featured,
		SourceURL:    req.SourceURL,
	}

	id, err := h.Repo.Create(c.Request.Context(), w)
	if err != nil {
		if field := UniqueViolationField(err); field != "" {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate value for " + field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	h.broadcast(notify.EventCreated, id, slug)
	c.JSON(http.StatusCreated, gin.H{"id": id, "slug": slug})
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")

	existing, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req watchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Brand = strings.TrimSpace(req.Brand)
	req.Model = strings.TrimSpace(req.Model)
	req.Reference = strings.TrimSpace(req.Reference)
	req.Description = strings.TrimSpace(req.Description)

	if req.Brand == "" || req.Model == "" || req.Reference == "" || req.Description == "" || req.Year == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand, model, reference, year, description, and price are required"})
		return
	}

	// The update writes the record wholesale, so a missing status would
	// wipe a valid stored one.
	switch req.Status {
	case models.StatusAvailable, models.StatusPending, models.StatusSold:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be Available, Pending, or Sold"})
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	slug := existing.Slug
	if s := strings.TrimSpace(req.Slug); s != "" && s != existing.Slug {
		if slug, err = importer.EnsureUniqueSlug(c.Request.Context(), h.Repo, s, existing.ExternalID); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
	}

	w := &models.Watch{
		Slug:         slug,
		Brand:        req.Brand,
		Model:        req.Model,
		Reference:    req.Reference,
		Year:         req.Year,
		Condition:    importer.NormalizeCondition(req.Condition),
		Price:        price,
		Status:       req.Status,
		Visibility:   req.Visibility,
		BoxAndPapers: req.BoxAndPapers,
		Description:  req.Description,
		Images:       req.Images,
		Tags:         req.Tags,
		Featured:     req.Featured,
		SourceURL:    req.SourceURL,
	}

	if err := h.Repo.Replace(c.Request.Context(), id, w); err != nil {
		if field := UniqueViolationField(err); field != "" {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate value for " + field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.broadcast(notify.EventUpdated, id, slug)
	c.JSON(http.StatusOK, gin.H{"id": id, "slug": slug})
}

func (h *Handler) setVisibility(visibility string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := h.Repo.SetVisibility(c.Request.Context(), id, visibility); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.broadcast(notify.EventUpdated, id, "")
		c.JSON(http.StatusOK, gin.H{"id": id, "visibility": visibility})
	}
}

func (h *Handler) setStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	switch req.Status {
	case models.StatusAvailable, models.StatusPending, models.StatusSold:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be Available, Pending, or Sold"})
		return
	}

	id := c.Param("id")
	if err := h.Repo.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.broadcast(notify.EventUpdated, id, "")
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// importJSON ingests an uploaded marketplace export. Overrides come in
// as query params: status, visibility, featured, refresh_images.
func (h *Handler) importJSON(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a JSON file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}

	entries, err := importer.ParseListings(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON file"})
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no listings found in JSON"})
		return
	}

	opts := importer.Options{
		ForceStatus:     c.Query("status"),
		ForceVisibility: c.Query("visibility"),
		RefreshImages:   c.Query("refresh_images") == "true",
	}
	if v := c.Query("featured"); v != "" {
		featured := v == "true"
		opts.ForceFeatured = &featured
	}

	summary, err := h.Importer.Run(c.Request.Context(), entries, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed", "summary": summary})
		return
	}

	if h.Hub != nil {
		h.Hub.BroadcastJSON(notify.CatalogEvent{
			Type:    notify.EventImported,
			Created: summary.Created,
			Updated: summary.Updated,
			Skipped: summary.Skipped,
			At:      time.Now(),
		})
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) broadcast(eventType, id, slug string) {
	if h.Hub == nil {
		return
	}
	h.Hub.BroadcastJSON(notify.CatalogEvent{
		Type:    eventType,
		WatchID: id,
		Slug:    slug,
		At:      time.Now(),
	})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
