package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reviewCollection = "reviews"

type reviewDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	model.Review `bson:",inline"`
}

func (d reviewDocument) toModel() model.Review {
	rv := d.Review
	rv.ID = d.ID.Hex()
	return rv
}

type mongoReviewRepository struct {
	coll *mongo.Collection
}

func NewMongoReviewRepository(mdb *mongo.Database) ReviewRepository {
	return &mongoReviewRepository{coll: mdb.Collection(reviewCollection)}
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	doc := reviewDocument{ID: primitive.NewObjectID(), Review: *review}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		logger.Error("Failed to insert review document", err, map[string]interface{}{
			"product_id": review.ProductID,
		})
		return err
	}
	review.ID = doc.ID.Hex()
	return nil
}

func (r *mongoReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc reviewDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rv := doc.toModel()
	return &rv, nil
}

func (r *mongoReviewRepository) FindByProduct(ctx context.Context, productID string, limit, offset int) ([]model.Review, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		logger.Error("Failed to query review documents", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []reviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	reviews := make([]model.Review, len(docs))
	for i, d := range docs {
		reviews[i] = d.toModel()
	}
	return reviews, nil
}

func (r *mongoReviewRepository) IncrementVote(ctx context.Context, id string, vote model.ReviewVote) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.coll.UpdateByID(ctx, oid, voteUpdateDocument(vote))
	if err != nil {
		logger.Error("Failed to record review vote", err, map[string]interface{}{
			"review_id": id,
		})
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReviewRepository) RatingSummary(ctx context.Context, productID string) (float64, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"total":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		logger.Error("Failed to summarize product ratings", err, map[string]interface{}{
			"product_id": productID,
		})
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Average float64 `bson:"average"`
		Total   int     `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Average, rows[0].Total, nil
}

func voteUpdateDocument(vote model.ReviewVote) bson.M {
	field := "helpful"
	if vote == model.VoteNotHelpful {
		field = "notHelpful"
	}
	return bson.M{"$inc": bson.M{field: 1}}
}
