package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoSource reads seed movies from a MongoDB collection in natural order.
// A document without an "id" field uses its string _id instead.
type MongoSource struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongo(ctx context.Context, uri, database, collection string) (*MongoSource, error) {
	if database == "" || collection == "" {
		return nil, fmt.Errorf("mongo seed needs a database and collection name")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoSource{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoSource) Load(ctx context.Context) ([]map[string]any, error) {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []map[string]any
	for cursor.Next(ctx) {
		doc, err := fromBSON(cursor.Current)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, cursor.Err()
}

func (s *MongoSource) Close() error {
	return s.client.Disconnect(context.Background())
}

// fromBSON converts a raw document to the shape encoding/json produces,
// going through relaxed Extended JSON so numbers become float64.
func fromBSON(raw bson.Raw) (map[string]any, error) {
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(ext, &doc); err != nil {
		return nil, err
	}
	if _, ok := doc["id"]; !ok {
		if id, ok := doc["_id"].(string); ok {
			doc["id"] = id
		}
	}
	delete(doc, "_id")
	return doc, nil
}
