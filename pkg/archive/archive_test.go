package archive

import (
	"context"
	stderrors "errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/series"
)

func sampleTargets() []series.Target {
	return []series.Target{
		{ID: "A", IDOrg: "a", Values: []series.Point{{X: series.NumberX(0), Value: series.Number(1), ID: "A"}}},
		{ID: "B", IDOrg: "b", Values: []series.Point{{X: series.NumberX(0), Value: series.Null(), ID: "B"}}},
	}
}

func TestDocuments(t *testing.T) {
	id := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	docs := Documents(id, sampleTargets(), now)
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != id.String()+":a" || docs[1].ID != id.String()+":b" {
		t.Errorf("document ids = %q, %q", docs[0].ID, docs[1].ID)
	}
	if docs[0].CreatedAt.Location() != time.UTC {
		t.Error("CreatedAt should be stored in UTC")
	}
	if diff := cmp.Diff(sampleTargets()[1], docs[1].Target()); diff != "" {
		t.Errorf("Target() mismatch (-want +got):\n%s", diff)
	}
}

func TestConnectRequiresURI(t *testing.T) {
	_, err := Connect(context.Background(), Config{})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Connect() error = %v, want INVALID_CONFIG", err)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	uri := os.Getenv("TABULA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TABULA_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	a, err := Connect(ctx, Config{URI: uri, Database: "tabula_test", Collection: uuid.NewString()})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer func() {
		_ = a.coll.Drop(ctx)
		_ = a.Close(ctx)
	}()
	if err := a.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	build := uuid.New()
	if err := a.SaveTargets(ctx, build, sampleTargets()); err != nil {
		t.Fatalf("SaveTargets: %v", err)
	}
	got, err := a.LatestTarget(ctx, "a")
	if err != nil {
		t.Fatalf("LatestTarget: %v", err)
	}
	if got.ID != "A" || got.Len() != 1 {
		t.Errorf("LatestTarget = %+v", got)
	}
	all, err := a.BuildTargets(ctx, build)
	if err != nil || len(all) != 2 {
		t.Errorf("BuildTargets = %d targets, %v", len(all), err)
	}
	if _, err := a.LatestTarget(ctx, "missing"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("missing series error = %v, want ErrNotFound", err)
	}
}
