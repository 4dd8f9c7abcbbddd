package handler

import (
	"context"

	appprod "github.com/Oscarts/backery2-app-sub003/internal/application/production"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeService creates and reads recipes
type RecipeService interface {
	CreateRecipe(ctx context.Context, tenantID uuid.UUID, req appprod.CreateRecipeRequest) (*appprod.RecipeResponse, error)
	GetRecipe(ctx context.Context, tenantID, recipeID uuid.UUID) (*appprod.RecipeResponse, error)
}

// AvailabilityService checks whether stock covers a recipe
type AvailabilityService interface {
	CheckAvailability(ctx context.Context, tenantID, recipeID uuid.UUID, multiplier decimal.Decimal) (*appprod.AvailabilityResponse, error)
}

// RecipeHandler serves recipe endpoints, including availability checks and
// cost estimates made before a run exists
type RecipeHandler struct {
	BaseHandler
	recipes      RecipeService
	availability AvailabilityService
	costs        CostService
}

// NewRecipeHandler creates a new RecipeHandler
func NewRecipeHandler(recipes RecipeService, availability AvailabilityService, costs CostService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, availability: availability, costs: costs}
}

// Create stores a recipe with its ingredients
func (h *RecipeHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req appprod.CreateRecipeRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, recipe)
}

// Get returns a recipe
func (h *RecipeHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	recipeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), tenantID, recipeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, recipe)
}

// CheckAvailability reports per ingredient whether stock covers the recipe.
// The multiplier defaults to one batch.
func (h *RecipeHandler) CheckAvailability(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	recipeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	req := appprod.CheckAvailabilityRequest{Multiplier: decimal.NewFromInt(1)}
	if !h.bindJSON(c, &req, true) {
		return
	}
	report, err := h.availability.CheckAvailability(c.Request.Context(), tenantID, recipeID, req.Multiplier)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// EstimateCost prices ?multiplier= batches of the recipe, one by default
func (h *RecipeHandler) EstimateCost(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	recipeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	multiplier := decimal.NewFromInt(1)
	if raw := c.Query("multiplier"); raw != "" {
		m, err := decimal.NewFromString(raw)
		if err != nil {
			h.BadRequest(c, "Invalid multiplier: must be a decimal number")
			return
		}
		multiplier = m
	}
	estimate, err := h.costs.EstimateRecipeCost(c.Request.Context(), tenantID, recipeID, multiplier)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, estimate)
}
