package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"menu-advisor/internal/auth"
	"menu-advisor/internal/confirmation"
	"menu-advisor/internal/database"
	"menu-advisor/internal/handler"
	"menu-advisor/internal/model"
	"menu-advisor/internal/notification"
	"menu-advisor/internal/promo"
	"menu-advisor/internal/repository"
	"menu-advisor/internal/router"
	"menu-advisor/internal/sequence"
	"menu-advisor/internal/service"
	"menu-advisor/internal/testutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "integration-secret"

// outbox records the messages the services queue.
type outbox struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (o *outbox) Notify(msg notification.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
}

func (o *outbox) sentTo(phone string) []notification.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []notification.Message
	for _, m := range o.msgs {
		if m.To == phone {
			out = append(out, m)
		}
	}
	return out
}

// TestServer is the full HTTP stack over a migrated Postgres container.
type TestServer struct {
	Handler http.Handler
	DB      *testutil.PostgresDB
	Counter sequence.Counter
	Outbox  *outbox
	authn   *auth.Authenticator
}

// SetupTestServer starts Postgres and wires every component the way the API
// binary does, with Postgres-backed state stores.
func SetupTestServer(t *testing.T) *TestServer {
	t.Helper()

	db := testutil.StartPostgres(t)
	logger := zerolog.Nop()

	counter := sequence.NewPostgresCounter(db.Pool, logger)
	gate := confirmation.NewGate(confirmation.NewPostgresStore(db.Pool, logger), jwtSecret, logger)
	guard := promo.NewGuard(promo.NewPostgresStore(db.Pool, logger), nil, logger)
	box := &outbox{}

	orderRepo := repository.NewOrderRepository(db.Pool, logger)
	restaurantRepo := repository.NewRestaurantRepository(db.Pool, logger)
	userRepo := repository.NewUserRepository(db.Pool, logger)
	dashboardRepo := repository.NewDashboardRepository(db.Pool, logger)

	authn := auth.NewAuthenticator(jwtSecret)
	h := router.New(
		handler.NewCommandHandler(service.NewOrderService(orderRepo, restaurantRepo, userRepo, counter, gate, box, logger), logger),
		handler.NewPromoHandler(service.NewPromoService(guard, logger), logger),
		handler.NewDashboardHandler(service.NewDashboardService(dashboardRepo, restaurantRepo, time.UTC, logger), logger),
		handler.NewCounterHandler(service.NewCounterService(counter, logger), logger),
		handler.NewReadinessHandler(func(ctx context.Context) error {
			return database.Ready(ctx, db.Pool, 2*time.Second)
		}, logger),
		authn,
		false,
		logger,
	)

	return &TestServer{
		Handler: h,
		DB:      db,
		Counter: counter,
		Outbox:  box,
		authn:   authn,
	}
}

// Token signs an access token for a new principal holding roles.
func (s *TestServer) Token(t *testing.T, id uuid.UUID, roles ...string) string {
	t.Helper()
	token, err := s.authn.Sign(model.Principal{ID: id, Roles: roles}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// SeedRestaurant inserts a restaurant administered by admin.
func (s *TestServer) SeedRestaurant(t *testing.T, admin uuid.UUID, delivery, onSite, takeaway bool) *model.Restaurant {
	t.Helper()

	r := &model.Restaurant{
		ID:          uuid.New(),
		Name:        "Chez Integration",
		PhoneNumber: "+33100000000",
		Delivery:    delivery,
		SurPlace:    onSite,
		AEmporter:   takeaway,
		Admin:       &admin,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repository.NewRestaurantRepository(s.DB.Pool, zerolog.Nop()).Create(context.Background(), r))
	return r
}

// SeedUser inserts a user with the given roles.
func (s *TestServer) SeedUser(t *testing.T, phone string, roles ...string) *model.User {
	t.Helper()

	u := &model.User{ID: uuid.New(), Name: "Integration User", Email: uuid.NewString() + "@example.com", PhoneNumber: phone, Roles: roles}
	require.NoError(t, repository.NewUserRepository(s.DB.Pool, zerolog.Nop()).Create(context.Background(), u))
	return u
}

// CleanupDB empties every table the API writes to.
func (s *TestServer) CleanupDB(t *testing.T) {
	t.Helper()
	s.DB.Truncate(t, "orders", "confirmation_codes", "promo_code_usages", "counters", "restaurants", "users")
}
