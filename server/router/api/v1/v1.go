package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/vendora/vendora/internal/profile"
	"github.com/vendora/vendora/store"
)

// APIV1Service handles the JSON API. Handlers stay thin: bind, delegate to
// the store, map the result to a response.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store) *APIV1Service {
	return &APIV1Service{
		Profile: profile,
		Store:   store,
	}
}

// RegisterRoutes registers all v1 routes with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.GET("/users/:id", s.GetUser)
	g.POST("/users", s.CreateUser)
	g.PATCH("/users/:id", s.UpdateUser)
	g.DELETE("/users/:id", s.DeleteUser)

	g.GET("/products", s.ListProducts)
	g.GET("/products/:id", s.GetProduct)
	g.POST("/products", s.CreateProduct)
	g.PATCH("/products/:id", s.UpdateProduct)
	g.DELETE("/products/:id", s.DeleteProduct)

	g.GET("/cache/stats", s.GetCacheStats)
	g.POST("/cache/clear", s.ClearCache)
}
