// Package archive persists finished target series in MongoDB.
//
// Every build writes one document per series, keyed by build id and
// original field name, so the latest shape of a series can be reloaded by
// its id_org after the process that built it is gone:
//
//	a, err := archive.Connect(ctx, archive.Config{URI: "mongodb://localhost:27017"})
//	defer a.Close(ctx)
//	err = a.SaveTargets(ctx, result.BuildID, result.Targets)
//	t, err := a.LatestTarget(ctx, "sales")
package archive

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/tabula/pkg/errors"
	"github.com/matzehuels/tabula/pkg/series"
)

// Defaults for [Config].
const (
	DefaultDatabase   = "tabula"
	DefaultCollection = "targets"
)

// ErrNotFound is returned when no archived series matches.
var ErrNotFound = stderrors.New("archived series not found")

// Config selects the MongoDB deployment and collection.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Document is the stored shape of one series of one build.
type Document struct {
	ID        string         `bson:"_id"`
	BuildID   string         `bson:"build_id"`
	SeriesID  string         `bson:"series_id"`
	IDOrg     string         `bson:"id_org"`
	Values    []series.Point `bson:"values"`
	CreatedAt time.Time      `bson:"created_at"`
}

// Target converts d back into a target.
func (d Document) Target() series.Target {
	return series.Target{ID: d.SeriesID, IDOrg: d.IDOrg, Values: d.Values}
}

// Documents converts the targets of one build into documents.
func Documents(buildID uuid.UUID, targets []series.Target, now time.Time) []Document {
	docs := make([]Document, len(targets))
	for i, t := range targets {
		docs[i] = Document{
			ID:        buildID.String() + ":" + t.IDOrg,
			BuildID:   buildID.String(),
			SeriesID:  t.ID,
			IDOrg:     t.IDOrg,
			Values:    t.Values,
			CreatedAt: now.UTC(),
		}
	}
	return docs
}

// Archive stores targets in one MongoDB collection.
type Archive struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials MongoDB and verifies the deployment is reachable.
func Connect(ctx context.Context, cfg Config) (*Archive, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "archive: mongo uri is empty")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "archive: connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "archive: ping %s", cfg.Database)
	}
	return &Archive{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// EnsureIndexes creates the lookup index on id_org and created_at.
func (a *Archive) EnsureIndexes(ctx context.Context) error {
	_, err := a.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "id_org", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// SaveTargets writes the targets of one build. Saving the same build twice
// replaces its documents.
func (a *Archive) SaveTargets(ctx context.Context, buildID uuid.UUID, targets []series.Target) error {
	if len(targets) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(targets))
	for _, d := range Documents(buildID, targets, time.Now()) {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": d.ID}).
			SetReplacement(d).
			SetUpsert(true))
	}
	if _, err := a.coll.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("archive: save build %s: %w", buildID, err)
	}
	return nil
}

// LatestTarget returns the most recently archived series for idOrg.
func (a *Archive) LatestTarget(ctx context.Context, idOrg string) (series.Target, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var d Document
	err := a.coll.FindOne(ctx, bson.M{"id_org": idOrg}, opts).Decode(&d)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return series.Target{}, fmt.Errorf("%w: %s", ErrNotFound, idOrg)
	}
	if err != nil {
		return series.Target{}, fmt.Errorf("archive: load %s: %w", idOrg, err)
	}
	return d.Target(), nil
}

// BuildTargets returns every series archived by one build.
func (a *Archive) BuildTargets(ctx context.Context, buildID uuid.UUID) ([]series.Target, error) {
	cur, err := a.coll.Find(ctx, bson.M{"build_id": buildID.String()})
	if err != nil {
		return nil, fmt.Errorf("archive: find build %s: %w", buildID, err)
	}
	var docs []Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("archive: decode build %s: %w", buildID, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: build %s", ErrNotFound, buildID)
	}
	targets := make([]series.Target, len(docs))
	for i, d := range docs {
		targets[i] = d.Target()
	}
	return targets, nil
}

// Close disconnects from MongoDB.
func (a *Archive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}
