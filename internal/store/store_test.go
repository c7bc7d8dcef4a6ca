package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/dbpool"
	"github.com/ghorbari/ghorbari/internal/models"
	"github.com/ghorbari/ghorbari/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// setupTestBase returns a Base backed by the shared test pool.
func setupTestBase(t *testing.T) store.Base {
	t.Helper()

	env := getTestEnv(t)

	return store.Base{Pool: env.pool, Log: env.log}
}

// newTestProperty builds an active rent listing owned by ownerEmail.
// Active so applications can be filed against it without moderation.
func newTestProperty(ownerEmail string) *models.Property {
	return &models.Property{
		ID:           uuid.New().String(),
		Owner:        models.UserRef{Email: ownerEmail, Name: "Test Owner"},
		Title:        "Two bed flat in Dhanmondi",
		Description:  "South facing, near the lake",
		Price:        25000,
		ListingType:  models.ListingRent,
		PropertyType: models.PropertyFlat,
		Location:     models.Location{Address: "House 12, Road 5, Dhanmondi, Dhaka"},
		Status:       models.PropertyActive,
	}
}

// createTestProperty inserts a listing and registers cleanup of the row
// and everything hanging off it (applications cascade via FK, audit does not).
func createTestProperty(t *testing.T, base store.Base, p *models.Property) *models.Property {
	t.Helper()

	ctx := context.Background()
	ps := store.NewPropertyStore(base)

	created, err := ps.CreateProperty(ctx, p)
	if err != nil {
		t.Fatalf("creating test property: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		base.Pool.Exec(cleanCtx, "DELETE FROM applications WHERE property_id = $1", created.ID) //nolint:errcheck // best-effort cleanup
		base.Pool.Exec(cleanCtx, "DELETE FROM properties WHERE id = $1", created.ID)           //nolint:errcheck // best-effort cleanup
	})

	return created
}
