package images

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.serve) // GET /api/watch-images/:id
}

// serve streams the stored bytes. Assets are immutable for their
// lifetime, so clients may cache aggressively.
func (h *Handler) serve(c *gin.Context) {
	asset, err := h.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if asset == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, asset.ContentType, asset.Data)
}
