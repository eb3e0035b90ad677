package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ButyrinIA/mindspace/internal/models"
	"github.com/ButyrinIA/mindspace/internal/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	colUsers     = "users"
	colPosts     = "posts"
	colResources = "resources"
	colOTP       = "otp_codes"
)

// MongoStorage keeps posts as documents with embedded comments.
type MongoStorage struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, uri, dbName string) (*MongoStorage, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &MongoStorage{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	log.Println("Connected to MongoDB:", dbName)
	return s, nil
}

func (s *MongoStorage) ensureIndexes(ctx context.Context) error {
	if _, err := s.db.Collection(colUsers).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
	}); err != nil {
		return err
	}
	if _, err := s.db.Collection(colPosts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("created_desc"),
	}); err != nil {
		return err
	}
	_, err := s.db.Collection(colOTP).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires"),
	})
	return err
}

// OTPStore returns an OTP store in the same database.
func (s *MongoStorage) OTPStore() *OTPStore {
	return &OTPStore{col: s.db.Collection(colOTP)}
}

func (s *MongoStorage) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.Collection(colUsers).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (s *MongoStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStorage) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.db.Collection(colUsers).FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStorage) GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	cur, err := s.db.Collection(colUsers).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []*models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoStorage) CreatePost(ctx context.Context, post *models.Post) error {
	_, err := s.db.Collection(colPosts).InsertOne(ctx, post)
	return err
}

func (s *MongoStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := s.db.Collection(colPosts).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	normalize(&p)
	return &p, nil
}

func (s *MongoStorage) ListPosts(ctx context.Context, limit int, cursor *string) (*models.PaginatedPosts, error) {
	col := s.db.Collection(colPosts)

	filter := bson.M{}
	if cursor != nil {
		before, err := storage.DecodeCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		filter["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$lt": before.CreatedAt}},
			bson.M{"createdAt": before.CreatedAt, "_id": bson.M{"$lt": before.ID}},
		}
	}

	total, err := col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var posts []*models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	for _, p := range posts {
		normalize(p)
	}

	var nextCursor *string
	if len(posts) > limit {
		posts = posts[:limit]
		if limit > 0 {
			c := storage.EncodeCursor(posts[limit-1])
			nextCursor = &c
		}
	}

	return &models.PaginatedPosts{
		Posts:      posts,
		TotalCount: int(total),
		NextCursor: nextCursor,
	}, nil
}

func (s *MongoStorage) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	res, err := s.db.Collection(colPosts).UpdateOne(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": comment}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *MongoStorage) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.Collection(colPosts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *MongoStorage) CreateResource(ctx context.Context, resource *models.Resource) error {
	_, err := s.db.Collection(colResources).InsertOne(ctx, resource)
	return err
}

func (s *MongoStorage) ListResources(ctx context.Context) ([]models.Resource, error) {
	cur, err := s.db.Collection(colResources).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var resources []models.Resource
	if err := cur.All(ctx, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (s *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// normalize makes decoded documents match freshly created ones.
func normalize(p *models.Post) {
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	if p.SentimentCategory == "" {
		p.SentimentCategory = models.EmotionNeutral
	}
}
