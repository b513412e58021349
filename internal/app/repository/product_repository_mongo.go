package repository

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productCollection = "products"

type productDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	model.Product `bson:",inline"`
}

func (d productDocument) toModel() model.Product {
	p := d.Product
	p.ID = d.ID.Hex()
	return p
}

type mongoProductRepository struct {
	coll *mongo.Collection
}

// NewMongoProductRepository returns a ProductRepository backed by the
// products collection of mdb.
func NewMongoProductRepository(mdb *mongo.Database) ProductRepository {
	return &mongoProductRepository{coll: mdb.Collection(productCollection)}
}

func (r *mongoProductRepository) Create(ctx context.Context, product *model.Product) error {
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	doc := productDocument{ID: primitive.NewObjectID(), Product: *product}
	if doc.Slug == "" {
		doc.Slug = doc.ID.Hex()
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		logger.Error("Failed to insert product document", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}
	product.ID = doc.ID.Hex()
	product.Slug = doc.Slug
	return nil
}

func (r *mongoProductRepository) FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding product documents with filter", map[string]interface{}{
		"category": filter.Category,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
	return r.find(ctx, productFilterDocument(filter), productFindOptions(filter))
}

func (r *mongoProductRepository) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, productFilterDocument(filter))
	if err != nil {
		logger.Error("Failed to count product documents", err, nil)
		return 0, err
	}
	return total, nil
}

func (r *mongoProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc productDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		logger.Error("Failed to find product document", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	p := doc.toModel()
	return &p, nil
}

func (r *mongoProductRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []model.Product{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

func (r *mongoProductRepository) SearchCandidates(ctx context.Context, query string, limit int) ([]model.Product, error) {
	logger.Debug("Fetching search candidate documents", map[string]interface{}{
		"query": query,
		"limit": limit,
	})
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, searchFilterDocument(query), opts)
}

func (r *mongoProductRepository) Search(ctx context.Context, query string, limit, offset int) ([]model.Product, int64, error) {
	filter := searchFilterDocument(query)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		logger.Error("Failed to count search results", err, map[string]interface{}{
			"query": query,
		})
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *mongoProductRepository) ListCategories(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "category", bson.M{"category": bson.M{"$ne": ""}})
	if err != nil {
		logger.Error("Failed to list categories", err, nil)
		return nil, err
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *mongoProductRepository) UpdateRating(ctx context.Context, id string, rating float64, reviewCount int) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"rating":      rating,
		"reviewCount": reviewCount,
		"updatedAt":   time.Now().UTC(),
	}})
	if err != nil {
		logger.Error("Failed to update product rating", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Product, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		logger.Error("Failed to query product documents", err, nil)
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		logger.Error("Failed to decode product documents", err, nil)
		return nil, err
	}

	products := make([]model.Product, len(docs))
	for i, d := range docs {
		products[i] = d.toModel()
	}
	return products, nil
}

// productFilterDocument translates filter into a MongoDB query document.
func productFilterDocument(filter ProductFilter) bson.M {
	doc := bson.M{}
	if filter.Category != "" {
		doc["category"] = filter.Category
	}
	if filter.Material != "" {
		doc["material"] = filter.Material
	}
	if filter.MinPrice != nil || filter.MaxPrice != nil {
		price := bson.M{}
		if filter.MinPrice != nil {
			price["$gte"] = *filter.MinPrice
		}
		if filter.MaxPrice != nil {
			price["$lte"] = *filter.MaxPrice
		}
		doc["price"] = price
	}
	if filter.InStock != nil {
		doc["inStock"] = *filter.InStock
	}
	if filter.Exclusive != nil {
		doc["exclusive"] = *filter.Exclusive
	}
	return doc
}

func productFindOptions(filter ProductFilter) *options.FindOptions {
	direction := -1
	if filter.SortAscending {
		direction = 1
	}

	field := "createdAt"
	switch filter.SortBy {
	case ProductSortPrice:
		field = "price"
	case ProductSortRating:
		field = "rating"
	}

	opts := options.Find().SetSort(bson.D{{Key: field, Value: direction}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	return opts
}

// searchFilterDocument matches products whose name or category contains
// query, case-insensitively. query is matched literally.
func searchFilterDocument(query string) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(strings.ToLower(query)), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"category": pattern},
	}}
}

func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}
