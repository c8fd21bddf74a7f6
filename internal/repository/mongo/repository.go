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

type Repository struct {
	collection *mongo.Collection
}

type videoDoc struct {
	ID          string  `bson:"_id"`
	Title       string  `bson:"title"`
	Description string  `bson:"description,omitempty"`
	FilePath    string  `bson:"filePath"`
	FileSize    int64   `bson:"fileSize"`
	Width       int     `bson:"width"`
	Height      int     `bson:"height"`
	Duration    float64 `bson:"duration"`
	Status      string  `bson:"status"`
	ViewCount   int64   `bson:"viewCount"`
	CreatedAt   int64   `bson:"createdAt"`
	UpdatedAt   int64   `bson:"updatedAt"`
}

func NewRepository(client *mongo.Client, dbName, collectionName string) *Repository {
	return &Repository{collection: client.Database(dbName).Collection(collectionName)}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: "text"}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *Repository) Create(ctx context.Context, v domain.VideoRecord) error {
	doc := toDoc(v)
	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
	}
	return err
}

func (r *Repository) Get(ctx context.Context, id domain.VideoID) (domain.VideoRecord, error) {
	var doc videoDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.VideoRecord{}, domain.ErrNotFound
		}
		return domain.VideoRecord{}, err
	}
	return fromDoc(doc), nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]domain.VideoRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []videoDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	records := make([]domain.VideoRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromDoc(doc))
	}
	return records, nil
}

func (r *Repository) Delete(ctx context.Context, id domain.VideoID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) IncrementViewCount(ctx context.Context, id domain.VideoID) error {
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": string(id)},
		bson.M{
			"$inc": bson.M{"viewCount": 1},
			"$set": bson.M{"updatedAt": time.Now().UTC().Unix()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toDoc(v domain.VideoRecord) videoDoc {
	return videoDoc{
		ID:          string(v.ID),
		Title:       v.Title,
		Description: v.Description,
		FilePath:    v.FilePath,
		FileSize:    v.FileSize,
		Width:       v.Width,
		Height:      v.Height,
		Duration:    v.Duration,
		Status:      string(v.Status),
		ViewCount:   v.ViewCount,
		CreatedAt:   v.CreatedAt.Unix(),
		UpdatedAt:   v.UpdatedAt.Unix(),
	}
}

func fromDoc(doc videoDoc) domain.VideoRecord {
	return domain.VideoRecord{
		ID:          domain.VideoID(doc.ID),
		Title:       doc.Title,
		Description: doc.Description,
		FilePath:    doc.FilePath,
		FileSize:    doc.FileSize,
		Width:       doc.Width,
		Height:      doc.Height,
		Duration:    doc.Duration,
		Status:      domain.VideoStatus(doc.Status),
		ViewCount:   doc.ViewCount,
		CreatedAt:   timeFromUnix(doc.CreatedAt),
		UpdatedAt:   timeFromUnix(doc.UpdatedAt),
	}
}

func timeFromUnix(value int64) time.Time {
	return time.Unix(value, 0).UTC()
}
