package index

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/repoforge/repoforge/pkg/errors"
	"github.com/repoforge/repoforge/pkg/pkgspec"
)

// MongoStore persists the repository index in a MongoDB collection, for
// deployments where several hosts share one index. Documents are keyed by
// identity, so the unique _id index enforces DUPLICATE_VERSION for free.
type MongoStore struct {
	coll *mongo.Collection
}

// mongoRecord is the stored document shape. Versions are stored as their
// canonical dotted strings so the documents stay queryable by hand.
type mongoRecord struct {
	ID           string            `bson:"_id"`
	Name         string            `bson:"name"`
	Version      string            `bson:"version"`
	Synopsis     string            `bson:"synopsis,omitempty"`
	Category     string            `bson:"category,omitempty"`
	Dependencies []mongoDependency `bson:"dependencies,omitempty"`
	Compiler     mongoCompiler     `bson:"compiler,omitempty"`
}

type mongoDependency struct {
	Name       string `bson:"name"`
	Constraint string `bson:"constraint,omitempty"`
}

type mongoCompiler struct {
	Name string `bson:"name,omitempty"`
	Min  string `bson:"min,omitempty"`
	Max  string `bson:"max,omitempty"`
}

// NewMongoStore connects to the MongoDB deployment at uri and uses the
// given database's "packages" collection as the persisted index.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connecting to mongodb at %s", uri)
	}
	return &MongoStore{coll: client.Database(database).Collection("packages")}, nil
}

// ListAll returns every persisted record.
func (s *MongoStore) ListAll(ctx context.Context) ([]*pkgspec.Record, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "listing packages")
	}
	defer cur.Close(ctx)

	var records []*pkgspec.Record
	for cur.Next(ctx) {
		var doc mongoRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "decoding package document")
		}
		rec, err := doc.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "iterating packages")
	}
	return records, nil
}

// Append inserts the record, relying on the _id uniqueness for the
// duplicate-identity check.
func (s *MongoStore) Append(ctx context.Context, rec *pkgspec.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	_, err := s.coll.InsertOne(ctx, fromRecord(rec))
	if mongo.IsDuplicateKeyError(err) {
		return errors.New(errors.ErrCodeDuplicateVersion, "%s already exists in the index", rec.ID())
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "appending %s", rec.ID())
	}
	return nil
}

// RemoveByIdentity deletes the document keyed by id, if present.
func (s *MongoStore) RemoveByIdentity(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "removing %s", id)
	}
	return nil
}

func fromRecord(rec *pkgspec.Record) mongoRecord {
	doc := mongoRecord{
		ID:       rec.ID(),
		Name:     rec.Name,
		Version:  rec.Version.String(),
		Synopsis: rec.Synopsis,
		Category: rec.Category,
		Compiler: mongoCompiler{Name: rec.Compat.Name},
	}
	if rec.Compat.Min != nil {
		doc.Compiler.Min = rec.Compat.Min.String()
	}
	if rec.Compat.Max != nil {
		doc.Compiler.Max = rec.Compat.Max.String()
	}
	for _, d := range rec.Dependencies {
		doc.Dependencies = append(doc.Dependencies, mongoDependency{Name: d.Name, Constraint: d.Constraint})
	}
	return doc
}

func (d mongoRecord) toRecord() (*pkgspec.Record, error) {
	version, err := pkgspec.ParseVersion(d.Version)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "document %s has invalid version", d.ID)
	}

	rec := &pkgspec.Record{
		Name:     d.Name,
		Version:  version,
		Synopsis: d.Synopsis,
		Category: d.Category,
		Compat:   pkgspec.CompilerRange{Name: d.Compiler.Name},
	}
	if d.Compiler.Min != "" {
		min, err := pkgspec.ParseVersion(d.Compiler.Min)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "document %s has invalid compiler minimum", d.ID)
		}
		rec.Compat.Min = &min
	}
	if d.Compiler.Max != "" {
		max, err := pkgspec.ParseVersion(d.Compiler.Max)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "document %s has invalid compiler maximum", d.ID)
		}
		rec.Compat.Max = &max
	}
	for _, dep := range d.Dependencies {
		rec.Dependencies = append(rec.Dependencies, pkgspec.Dependency{Name: dep.Name, Constraint: dep.Constraint})
	}
	return rec, nil
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
