package router

import "github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/handler"

// ProductionRoutes builds the /production group: recipes, runs and the
// material ledger.
func ProductionRoutes(runs *handler.ProductionHandler, recipes *handler.RecipeHandler, materials *handler.MaterialHandler) *DomainGroup {
	g := NewDomainGroup("production", "/production")

	rg := g.Group("recipes", "/recipes")
	rg.POST("", recipes.Create)
	rg.GET("/:id", recipes.Get)
	rg.POST("/:id/availability", recipes.CheckAvailability)
	rg.GET("/:id/cost-estimate", recipes.EstimateCost)

	run := g.Group("runs", "/runs")
	run.POST("", runs.CreateRun)
	run.GET("/:id", runs.GetRun)
	run.POST("/:id/allocations", runs.Allocate)
	run.POST("/:id/allocations/consume", runs.Consume)
	run.POST("/:id/allocations/release", runs.Release)
	run.GET("/:id/material-usage", runs.MaterialUsage)
	run.POST("/:id/steps/:stepId/start", runs.StartStep)
	run.POST("/:id/steps/:stepId/complete", runs.CompleteStep)
	run.POST("/:id/steps/:stepId/skip", runs.SkipStep)
	run.POST("/:id/hold", runs.Hold)
	run.POST("/:id/resume", runs.Resume)
	run.GET("/:id/cost", runs.Cost)
	run.POST("/:id/complete", runs.Complete)
	run.POST("/:id/cancel", runs.Cancel)

	mg := g.Group("materials", "/materials")
	mg.POST("/batches", materials.ReceiveBatch)
	mg.GET("/batches/:id", materials.GetBatch)
	mg.POST("/batches/:id/contaminate", materials.Contaminate)

	return g
}

// SystemRoutes builds the /system group
func SystemRoutes(system *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").GET("/info", system.GetSystemInfo)
}
