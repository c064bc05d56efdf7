package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nbox-app/nbox-backend/internal/notifications"
	"github.com/nbox-app/nbox-backend/internal/orders"
	"github.com/nbox-app/nbox-backend/internal/reviews"
	pkgAuth "github.com/nbox-app/nbox-backend/pkg/auth"
	"github.com/nbox-app/nbox-backend/pkg/config"
	"github.com/nbox-app/nbox-backend/pkg/db/models"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	"github.com/nbox-app/nbox-backend/pkg/logger"
	"github.com/nbox-app/nbox-backend/pkg/metrics"
	"github.com/nbox-app/nbox-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct{}

func (stubOrdersService) Accept(context.Context, orders.TransitionInput) error   { return nil }
func (stubOrdersService) Cancel(context.Context, orders.TransitionInput) error   { return nil }
func (stubOrdersService) Prepare(context.Context, orders.TransitionInput) error  { return nil }
func (stubOrdersService) Ready(context.Context, orders.TransitionInput) error    { return nil }
func (stubOrdersService) Deliver(context.Context, orders.TransitionInput) error  { return nil }
func (stubOrdersService) Complete(context.Context, orders.TransitionInput) error { return nil }

func (stubOrdersService) Reorder(context.Context, uuid.UUID, uuid.UUID) (*models.Cart, error) {
	return &models.Cart{}, nil
}

func (stubOrdersService) GetForBuyer(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (stubOrdersService) GetForMerchant(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDetail, error) {
	return &orders.OrderDetail{}, nil
}

func (stubOrdersService) ListForBuyer(context.Context, uuid.UUID, pagination.Params) (*orders.BuyerOrderList, error) {
	return &orders.BuyerOrderList{}, nil
}

func (stubOrdersService) ListForMerchant(context.Context, uuid.UUID, orders.MerchantOrderFilters) (*orders.MerchantOrderList, error) {
	return &orders.MerchantOrderList{}, nil
}

func (stubOrdersService) ListScheduledForMerchant(context.Context, uuid.UUID) ([]orders.MerchantOrderSummary, error) {
	return nil, nil
}

type stubReviewsService struct{}

func (stubReviewsService) Submit(context.Context, reviews.SubmitInput) (*models.Review, error) {
	return &models.Review{}, nil
}

func (stubReviewsService) GetForOrder(context.Context, uuid.UUID, uuid.UUID) (*models.Review, error) {
	return &models.Review{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "nbox-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	registry := prometheus.NewRegistry()
	return NewRouter(RouterParams{
		Config:        cfg,
		Logger:        logg,
		DB:            stubPinger{},
		Redis:         stubPinger{},
		HTTPMetrics:   metrics.NewHTTPMetrics(registry),
		Registry:      registry,
		Orders:        stubOrdersService{},
		Reviews:       stubReviewsService{},
		Notifications: stubNotificationsService{},
	})
}

func mintRouterToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		Email:  "router@test.dev",
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthEndpoints(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(t, cfg)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, testRouterConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	router := newTestRouter(t, testRouterConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/buyer/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterEnforcesRoles(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(t, cfg)
	token := mintRouterToken(t, cfg, enums.ActorRoleBuyer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRouterBuyerOrdersReachable(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(t, cfg)
	token := mintRouterToken(t, cfg, enums.ActorRoleBuyer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/buyer/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterMerchantOrdersReachable(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(t, cfg)
	token := mintRouterToken(t, cfg, enums.ActorRoleMerchant)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/orders/scheduled", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterNotificationsForAnyRole(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(t, cfg)

	for _, role := range []enums.ActorRole{enums.ActorRoleBuyer, enums.ActorRoleMerchant} {
		token := mintRouterToken(t, cfg, role)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", role, resp.Code, resp.Body.String())
		}
	}
}
