package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource reads the users collection and completes each user with the
// students document sharing its studentID.
type MongoSource struct {
	client   *mongo.Client
	users    *mongo.Collection
	students *mongo.Collection
}

// ConnectMongo dials uri and selects database db.
func ConnectMongo(ctx context.Context, uri, db string) (*MongoSource, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	if db == "" {
		db = "clova_db"
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	database := client.Database(db)
	slog.Info("profiles: mongo connected", slog.String("db", db))
	return &MongoSource{
		client:   client,
		users:    database.Collection("users"),
		students: database.Collection("students"),
	}, nil
}

func (s *MongoSource) Name() string { return "mongo" }

func (s *MongoSource) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func (s *MongoSource) Load(ctx context.Context) ([]Raw, error) {
	users, err := s.findAll(ctx, s.users, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	// keep the stored values: studentID may be numeric in some deployments
	var ids []any
	for _, u := range users {
		if asString(u["studentID"]) != "" {
			ids = append(ids, u["studentID"])
		}
	}
	byStudent := map[string]Raw{}
	if len(ids) > 0 {
		students, err := s.findAll(ctx, s.students, bson.M{"studentID": bson.M{"$in": ids}})
		if err != nil {
			return nil, fmt.Errorf("load students: %w", err)
		}
		for _, st := range students {
			byStudent[asString(st["studentID"])] = st
		}
	}

	out := make([]Raw, 0, len(users))
	for _, u := range users {
		if st, ok := byStudent[asString(u["studentID"])]; ok {
			u = merge(u, st)
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *MongoSource) findAll(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]Raw, error) {
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Raw
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rec, err := fromBSON(doc)
		if err != nil {
			slog.Warn("profiles: skipping mongo document", slog.Any("error", err))
			continue
		}
		out = append(out, rec)
	}
	return out, cur.Err()
}

// fromBSON flattens driver types (primitive.D, primitive.A, ObjectID) into the
// plain JSON shapes Normalize expects by round-tripping through relaxed extended JSON.
func fromBSON(doc bson.M) (Raw, error) {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, fmt.Errorf("marshal ext json: %w", err)
	}
	var rec Raw
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode ext json: %w", err)
	}
	return rec, nil
}
