package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/RavenLB/E-commerce/internal/entity"
)

var errProductNotFound = entity.NotFound("Product")

func (h *Handler) handleListProducts(c *gin.Context) {
	f, err := productFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	products, err := h.catalog.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// productFilter reads the listing query. Pagination applies only when limit
// is given.
func productFilter(c *gin.Context) (entity.ProductFilter, error) {
	errs := entity.FieldErrors{}
	f := entity.ProductFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
		SortBy:   c.Query("sort"),
		MinPrice: floatQuery(c, errs, "min_price"),
		MaxPrice: floatQuery(c, errs, "max_price"),
	}

	switch c.DefaultQuery("order", "asc") {
	case "asc":
	case "desc":
		f.Desc = true
	default:
		errs.Add("order", "Must be one of: asc, desc.")
	}

	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs.Add("limit", "Must be between 1 and 100.")
		}
		f.Limit, f.Page = n, 1
	}
	if raw, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs.Add("page", "Must be greater than or equal to 1.")
		}
		f.Page = n
	}
	return f, errs.Err()
}

func floatQuery(c *gin.Context, errs entity.FieldErrors, name string) *float64 {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs.Add(name, "Not a valid number.")
		return nil
	}
	return &v
}

func (h *Handler) handleGetProduct(c *gin.Context) {
	id, ok := pathID(c, "id", errProductNotFound)
	if !ok {
		return
	}

	p, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) handleCreateProduct(c *gin.Context) {
	var in entity.ProductInput
	if !bindJSON(c, &in) {
		return
	}

	p, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) handleUpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id", errProductNotFound)
	if !ok {
		return
	}
	var patch entity.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}

	p, err := h.catalog.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) handleDeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id", errProductNotFound)
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

func (h *Handler) handleSetStock(c *gin.Context) {
	id, ok := pathID(c, "id", errProductNotFound)
	if !ok {
		return
	}
	var req stockRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Stock == nil {
		errs := entity.FieldErrors{}
		errs.Add("stock", "Missing data for required field.")
		respondError(c, errs.Err())
		return
	}

	p, err := h.catalog.SetStock(c.Request.Context(), id, *req.Stock)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock updated successfully", "product": p})
}
