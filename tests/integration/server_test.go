package integration

import (
	"net/http"
	"testing"

	appprod "github.com/Oscarts/backery2-app-sub003/internal/application/production"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/cache"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/event"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/persistence"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/handler"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/middleware"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/router"
	"github.com/Oscarts/backery2-app-sub003/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// testServer is the production API wired like cmd/server, minus telemetry
type testServer struct {
	db     *TestDB
	engine *gin.Engine
	events *testutil.EventRecorder
	tenant uuid.UUID
	api    *testutil.APIClient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tdb := NewTestDB(t)
	log := zap.NewNop()

	repos := persistence.NewGormRepositories(tdb.DB)
	txScope := persistence.NewGormTransactionScope(tdb.DB)
	settings := appprod.DefaultSettings()

	store := cache.NewInMemoryIdempotencyStore(0)
	t.Cleanup(func() { _ = store.Close() })

	// not started: events are delivered on the publishing goroutine
	bus := event.NewInMemoryEventBus(log, event.Options{})
	events := testutil.NewEventRecorder()
	bus.Subscribe(events)

	costs := appprod.NewCostService(repos, settings, log)
	productionHandler := handler.NewProductionHandler(
		appprod.NewRunService(repos, txScope, log),
		appprod.NewAllocationService(repos, txScope, bus, log),
		appprod.NewCompletionService(repos, txScope, costs, store, bus, settings, log),
		costs,
	)
	recipeHandler := handler.NewRecipeHandler(
		appprod.NewRecipeService(repos, log),
		appprod.NewAvailabilityService(repos, log),
		costs,
	)
	materialHandler := handler.NewMaterialHandler(appprod.NewLedgerService(repos, txScope, bus, log))

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.BodyLimit(1<<20))
	r := router.NewRouter(engine)
	r.Register(router.ProductionRoutes(productionHandler, recipeHandler, materialHandler).
		Use(middleware.Tenant(middleware.DefaultTenantConfig())))
	r.Setup()

	tenant := uuid.New()
	return &testServer{
		db:     tdb,
		engine: engine,
		events: events,
		tenant: tenant,
		api:    testutil.NewAPIClient(engine, tenant),
	}
}

func (s *testServer) receive(t *testing.T, name, qty, unitCost string, expiresInDays *int) appprod.MaterialBatchResponse {
	t.Helper()
	body := map[string]any{
		"material_type": "RAW_MATERIAL",
		"name":          name,
		"quantity":      qty,
		"unit":          "kg",
		"unit_cost":     unitCost,
	}
	if expiresInDays != nil {
		body["expiration_date"] = testutil.Day(*expiresInDays)
	}
	return testutil.RequireData[appprod.MaterialBatchResponse](t,
		s.api.Do(t, http.MethodPost, "/production/materials/batches", body), http.StatusCreated)
}

func (s *testServer) batch(t *testing.T, id uuid.UUID) appprod.MaterialBatchResponse {
	t.Helper()
	return testutil.RequireData[appprod.MaterialBatchResponse](t,
		s.api.Do(t, http.MethodGet, "/production/materials/batches/"+id.String(), nil), http.StatusOK)
}

type ingredient struct {
	id  uuid.UUID
	qty string
}

func (s *testServer) recipe(t *testing.T, name, yield string, ingredients ...ingredient) appprod.RecipeResponse {
	t.Helper()
	lines := make([]map[string]any, 0, len(ingredients))
	for _, ing := range ingredients {
		lines = append(lines, map[string]any{
			"material_type": "RAW_MATERIAL",
			"material_id":   ing.id,
			"quantity":      ing.qty,
			"unit":          "kg",
		})
	}
	return testutil.RequireData[appprod.RecipeResponse](t, s.api.Do(t, http.MethodPost, "/production/recipes", map[string]any{
		"name":           name,
		"yield_quantity": yield,
		"yield_unit":     "loaf",
		"ingredients":    lines,
	}), http.StatusCreated)
}

func (s *testServer) run(t *testing.T, recipeID uuid.UUID, target string) appprod.ProductionRunResponse {
	t.Helper()
	return testutil.RequireData[appprod.ProductionRunResponse](t, s.api.Do(t, http.MethodPost, "/production/runs", map[string]any{
		"recipe_id":       recipeID,
		"target_quantity": target,
	}), http.StatusCreated)
}

func (s *testServer) finishSteps(t *testing.T, run appprod.ProductionRunResponse) {
	t.Helper()
	base := "/production/runs/" + run.ID.String() + "/steps/"
	for i, step := range run.Steps {
		if i == len(run.Steps)-1 {
			testutil.RequireData[appprod.ProductionRunResponse](t,
				s.api.Do(t, http.MethodPost, base+step.ID.String()+"/skip", map[string]any{"notes": "packed at the counter"}), http.StatusOK)
			continue
		}
		testutil.RequireData[appprod.ProductionRunResponse](t,
			s.api.Do(t, http.MethodPost, base+step.ID.String()+"/start", nil), http.StatusOK)
		testutil.RequireData[appprod.ProductionRunResponse](t,
			s.api.Do(t, http.MethodPost, base+step.ID.String()+"/complete", map[string]any{"actual_minutes": step.EstimatedMinutes}), http.StatusOK)
	}
}

func days(n int) *int { return &n }
