package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vendora/vendora/store"
)

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	VendorID    int32  `json:"vendor_id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	Stock       int32  `json:"stock"`
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Category    *string `json:"category"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Currency    *string `json:"currency"`
	Stock       *int32  `json:"stock"`
}

// ListProducts lists products. With ?ids=1,2,3 it serves the whole set from
// one batched store lookup instead of a query per id; otherwise the filter
// parameters select a cached listing.
// GET /api/v1/products
func (s *APIV1Service) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := c.QueryParam("ids"); raw != "" {
		ids, err := parseIDList(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid ids parameter")
		}
		byID, err := s.Store.GetProductsByIDs(ctx, ids)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to get products").SetInternal(err)
		}
		list := make([]*store.Product, 0, len(byID))
		for _, id := range ids {
			if product, ok := byID[id]; ok {
				list = append(list, product)
			}
		}
		return c.JSON(http.StatusOK, list)
	}

	find := &store.FindProduct{}
	if category := c.QueryParam("category"); category != "" {
		find.Category = &category
	}
	if vendor := c.QueryParam("vendor"); vendor != "" {
		id, err := parseID(vendor)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid vendor parameter")
		}
		find.VendorID = &id
	}

	list, err := s.Store.ListProducts(ctx, find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list products").SetInternal(err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetProduct returns a product by id.
// GET /api/v1/products/:id
func (s *APIV1Service) GetProduct(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	product, err := s.Store.GetProduct(c.Request().Context(), &store.FindProduct{ID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get product").SetInternal(err)
	}
	if product == nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct creates a product.
// POST /api/v1/products
func (s *APIV1Service) CreateProduct(c echo.Context) error {
	request := &CreateProductRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if request.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if request.VendorID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "vendor_id is required")
	}

	product, err := s.Store.CreateProduct(c.Request().Context(), &store.Product{
		VendorID:    request.VendorID,
		Category:    request.Category,
		Title:       request.Title,
		Description: request.Description,
		PriceCents:  request.PriceCents,
		Currency:    request.Currency,
		Stock:       request.Stock,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create product").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct updates a product.
// PATCH /api/v1/products/:id
func (s *APIV1Service) UpdateProduct(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	request := &UpdateProductRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}

	product, err := s.Store.UpdateProduct(c.Request().Context(), &store.UpdateProduct{
		ID:          id,
		Category:    request.Category,
		Title:       request.Title,
		Description: request.Description,
		PriceCents:  request.PriceCents,
		Currency:    request.Currency,
		Stock:       request.Stock,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update product").SetInternal(err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct deletes a product.
// DELETE /api/v1/products/:id
func (s *APIV1Service) DeleteProduct(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := s.Store.DeleteProduct(c.Request().Context(), &store.DeleteProduct{ID: id}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete product").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseIDList(raw string) ([]int32, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int32, 0, len(parts))
	for _, part := range parts {
		id, err := parseID(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
