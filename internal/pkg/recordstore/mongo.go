package recordstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoIDField = "_id"

// MongoStore stores each collection as a MongoDB collection with the record
// id as _id.
type MongoStore struct {
	db      *mongo.Database
	timeout time.Duration
	now     func() time.Time
}

// NewMongoStore creates a store on the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db, timeout: 5 * time.Second, now: time.Now}
}

// EnsureIndexes creates single-field ascending indexes used by Query filters.
func (s *MongoStore) EnsureIndexes(ctx context.Context, collection string, fields ...string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	models := make([]mongo.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
	}
	if len(models) == 0 {
		return nil
	}
	if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
		return unavailable("ensure_indexes", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stored := bson.M(sanitizePatch(doc).Clone())
	id := uuid.NewString()
	stored[mongoIDField] = id
	stored[CreatedAtField] = s.now().UTC()

	if _, err := s.db.Collection(collection).InsertOne(ctx, stored); err != nil {
		return "", unavailable("create", err)
	}
	return id, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{mongoIDField: id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get", err)
	}
	return fromBSON(raw), nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, patch Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{mongoIDField: id},
		bson.M{"$set": bson.M(sanitizePatch(patch))},
	)
	if err != nil {
		return unavailable("update", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateIf applies patch only while field still equals expected.
func (s *MongoStore) UpdateIf(ctx context.Context, collection, id, field string, expected any, patch Document) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coll := s.db.Collection(collection)
	res, err := coll.UpdateOne(ctx,
		bson.M{mongoIDField: id, field: expected},
		bson.M{"$set": bson.M(sanitizePatch(patch))},
	)
	if err != nil {
		return false, unavailable("update_if", err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := coll.CountDocuments(ctx, bson.M{mongoIDField: id})
	if err != nil {
		return false, unavailable("update_if", err)
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: CreatedAtField, Value: 1},
		{Key: mongoIDField, Value: 1},
	})
	cur, err := s.db.Collection(collection).Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, unavailable("query", err)
	}
	defer cur.Close(ctx)

	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, unavailable("query", err)
	}

	out := make([]Document, 0, len(raws))
	for _, raw := range raws {
		out = append(out, fromBSON(raw))
	}
	return out, nil
}

// fromBSON converts driver types into the plain values Document promises.
func fromBSON(raw bson.M) Document {
	doc := Document(plainMap(raw))
	if id, ok := doc[mongoIDField]; ok {
		doc[IDField] = id
		delete(doc, mongoIDField)
	}
	return doc
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case bson.D:
		return plainMap(t.Map())
	case bson.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}
