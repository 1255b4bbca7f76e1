package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"asset-registry-api/internal/models"
	"asset-registry-api/internal/registry"
	"asset-registry-api/internal/versioned"

	"github.com/gin-gonic/gin"
)

// RegistryHandler serves registry documents per network.
type RegistryHandler struct {
	reg *registry.Registry
}

func NewRegistryHandler(reg *registry.Registry) *RegistryHandler {
	return &RegistryHandler{reg: reg}
}

// ListNetworks returns the supported networks and data kinds
// GET /api/networks
func (h *RegistryHandler) ListNetworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"networks": models.Networks(),
		"kinds":    models.Kinds(),
	})
}

// GetAssets returns the asset map, optionally filtered by ?ids=a,b
// GET /api/networks/:network/assets
func (h *RegistryHandler) GetAssets(c *gin.Context) {
	network, ok := networkParam(c)
	if !ok {
		return
	}

	var (
		assets models.Assets
		err    error
	)
	if ids := splitIDs(c.Query("ids")); len(ids) > 0 {
		assets, err = h.reg.AssetsByID(c.Request.Context(), network, ids)
	} else {
		assets, err = h.reg.Assets(c.Request.Context(), network)
	}
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusOK, assets)
}

// GetIcons returns the icon map
// GET /api/networks/:network/icons
func (h *RegistryHandler) GetIcons(c *gin.Context) {
	network, ok := networkParam(c)
	if !ok {
		return
	}

	icons, err := h.reg.Icons(c.Request.Context(), network)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusOK, icons)
}

// GetEntry returns the raw document with its revalidation marker
// GET /api/networks/:network/:kind/entry
func (h *RegistryHandler) GetEntry(c *gin.Context) {
	network, ok := networkParam(c)
	if !ok {
		return
	}
	kind, err := models.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.reg.Entry(c.Request.Context(), network, kind)
	if err != nil {
		respondRegistryError(c, err)
		return
	}
	if lm := entry.LastModified(); lm != "" {
		c.Header("Last-Modified", lm)
	}

	c.JSON(http.StatusOK, entry)
}

// Invalidate drops the cached and stored copies of one document
// DELETE /api/networks/:network/:kind/entry
func (h *RegistryHandler) Invalidate(c *gin.Context) {
	network, ok := networkParam(c)
	if !ok {
		return
	}
	kind, err := models.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reg.Invalidate(c.Request.Context(), network, kind); err != nil {
		respondRegistryError(c, err)
		return
	}

	slog.Info("registry entry invalidated", "network", network, "kind", kind, "by", c.GetString("username"))
	c.Status(http.StatusNoContent)
}

// Refresh forces a revalidation of one kind or of every kind
// POST /api/networks/:network/refresh
func (h *RegistryHandler) Refresh(c *gin.Context) {
	network, ok := networkParam(c)
	if !ok {
		return
	}

	var kinds []models.Kind
	if raw := c.Query("kind"); raw != "" {
		kind, err := models.ParseKind(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		kinds = append(kinds, kind)
	}

	outcomes, err := h.reg.Refresh(c.Request.Context(), network, kinds...)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	slog.Info("manual refresh", "network", network, "by", c.GetString("username"))
	c.JSON(http.StatusOK, gin.H{
		"network":  network,
		"outcomes": outcomes,
	})
}

func networkParam(c *gin.Context) (models.Network, bool) {
	network, err := models.ParseNetwork(c.Param("network"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return network, true
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func respondRegistryError(c *gin.Context, err error) {
	var de *versioned.DeserializationError
	switch {
	case errors.As(err, &de):
		slog.Error("registry document unusable", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registry document could not be decoded"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Request cancelled"})
	default:
		slog.Error("registry lookup failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registry lookup failed"})
	}
}
