package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ButyrinIA/mindspace/internal/otp"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type otpDoc struct {
	Email     string    `bson:"_id"`
	Code      string    `bson:"code"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// OTPStore keeps pending codes in a collection with a TTL index on
// expiresAt, so the server drops stale codes on its own.
type OTPStore struct {
	col *mongo.Collection
}

func (s *OTPStore) Put(ctx context.Context, email string, entry otp.Entry) error {
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": email},
		otpDoc{Email: email, Code: entry.Code, ExpiresAt: entry.ExpiresAt},
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *OTPStore) Get(ctx context.Context, email string) (otp.Entry, error) {
	var doc otpDoc
	err := s.col.FindOne(ctx, bson.M{"_id": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return otp.Entry{}, otp.ErrNotFound
	}
	if err != nil {
		return otp.Entry{}, err
	}
	return otp.Entry{Code: doc.Code, ExpiresAt: doc.ExpiresAt}, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": email})
	return err
}
