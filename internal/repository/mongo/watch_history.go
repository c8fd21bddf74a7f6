package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vodstream/internal/domain"
)

type watchPositionDoc struct {
	ID        string  `bson:"_id"`
	Position  float64 `bson:"position"`
	Duration  float64 `bson:"duration"`
	Title     string  `bson:"title"`
	UpdatedAt int64   `bson:"updatedAt"`
}

type WatchHistoryRepository struct {
	collection *mongo.Collection
}

func NewWatchHistoryRepository(client *mongo.Client, dbName, collectionName string) *WatchHistoryRepository {
	return &WatchHistoryRepository{collection: client.Database(dbName).Collection(collectionName)}
}

func (r *WatchHistoryRepository) Upsert(ctx context.Context, wp domain.WatchPosition) error {
	updatedAt := wp.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	update := bson.M{
		"$set": bson.M{
			"position":  wp.Position,
			"duration":  wp.Duration,
			"title":     wp.Title,
			"updatedAt": updatedAt.Unix(),
		},
	}
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": string(wp.VideoID)},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *WatchHistoryRepository) Get(ctx context.Context, id domain.VideoID) (domain.WatchPosition, error) {
	var doc watchPositionDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.WatchPosition{}, domain.ErrNotFound
		}
		return domain.WatchPosition{}, err
	}
	return watchDocToPosition(doc), nil
}

func (r *WatchHistoryRepository) ListRecent(ctx context.Context, limit int) ([]domain.WatchPosition, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []watchPositionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	positions := make([]domain.WatchPosition, 0, len(docs))
	for _, doc := range docs {
		positions = append(positions, watchDocToPosition(doc))
	}
	return positions, nil
}

func (r *WatchHistoryRepository) Delete(ctx context.Context, id domain.VideoID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

func watchDocToPosition(doc watchPositionDoc) domain.WatchPosition {
	return domain.WatchPosition{
		VideoID:   domain.VideoID(doc.ID),
		Position:  doc.Position,
		Duration:  doc.Duration,
		Title:     doc.Title,
		UpdatedAt: time.Unix(doc.UpdatedAt, 0).UTC(),
	}
}
