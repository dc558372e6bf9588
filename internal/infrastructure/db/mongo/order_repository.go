package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront-labs/storefront-api/internal/core/domain"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
)

const collectionOrders = "orders"

// OrderRepository implements ports.OrderRepository using MongoDB.
type OrderRepository struct {
	col *mongo.Collection
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders)}
}

type mongoLineItem struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Category  string               `bson:"category,omitempty"`
	UnitPrice primitive.Decimal128 `bson:"unit_price"`
	Image     string               `bson:"image,omitempty"`
	Quantity  int                  `bson:"quantity"`
}

type mongoStatusChange struct {
	Status    string    `bson:"status"`
	ChangedAt time.Time `bson:"changed_at"`
	ChangedBy string    `bson:"changed_by,omitempty"`
}

type mongoOrder struct {
	ID            string               `bson:"_id"`
	UserID        string               `bson:"user_id"`
	CustomerName  string               `bson:"customer_name"`
	Status        string               `bson:"status"`
	Items         []mongoLineItem      `bson:"items"`
	Subtotal      primitive.Decimal128 `bson:"subtotal"`
	Shipping      primitive.Decimal128 `bson:"shipping"`
	Taxes         primitive.Decimal128 `bson:"taxes"`
	Total         primitive.Decimal128 `bson:"total"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
	StatusHistory []mongoStatusChange  `bson:"status_history"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode amount %s: %w", v, err)
	}
	return d, nil
}

func toMongoOrder(o *domain.Order) (mongoOrder, error) {
	doc := mongoOrder{
		ID:           o.ID,
		UserID:       o.UserID,
		CustomerName: o.CustomerName,
		Status:       string(o.Status),
		Items:        make([]mongoLineItem, 0, len(o.Items)),
		CreatedAt:    o.CreatedAt.UTC(),
		UpdatedAt:    o.UpdatedAt.UTC(),
	}

	for _, li := range o.Items {
		price, err := toDecimal128(li.UnitPrice)
		if err != nil {
			return mongoOrder{}, err
		}
		doc.Items = append(doc.Items, mongoLineItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			Category:  li.Category,
			UnitPrice: price,
			Image:     li.Image,
			Quantity:  li.Quantity,
		})
	}

	amounts := []struct {
		src decimal.Decimal
		dst *primitive.Decimal128
	}{
		{o.Subtotal, &doc.Subtotal},
		{o.Shipping, &doc.Shipping},
		{o.Taxes, &doc.Taxes},
		{o.Total, &doc.Total},
	}
	for _, a := range amounts {
		v, err := toDecimal128(a.src)
		if err != nil {
			return mongoOrder{}, err
		}
		*a.dst = v
	}

	for _, h := range o.StatusHistory {
		doc.StatusHistory = append(doc.StatusHistory, toMongoStatusChange(h))
	}
	return doc, nil
}

func toMongoStatusChange(h domain.StatusChange) mongoStatusChange {
	return mongoStatusChange{
		Status:    string(h.Status),
		ChangedAt: h.ChangedAt.UTC(),
		ChangedBy: h.ChangedBy,
	}
}

func (mo mongoOrder) toDomain() (*domain.Order, error) {
	o := &domain.Order{
		ID:           mo.ID,
		UserID:       mo.UserID,
		CustomerName: mo.CustomerName,
		Status:       domain.OrderStatus(mo.Status),
		Items:        make([]domain.LineItem, 0, len(mo.Items)),
		CreatedAt:    mo.CreatedAt.UTC(),
		UpdatedAt:    mo.UpdatedAt.UTC(),
	}

	for _, li := range mo.Items {
		price, err := fromDecimal128(li.UnitPrice)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, domain.LineItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			Category:  li.Category,
			UnitPrice: price,
			Image:     li.Image,
			Quantity:  li.Quantity,
		})
	}

	amounts := []struct {
		src primitive.Decimal128
		dst *decimal.Decimal
	}{
		{mo.Subtotal, &o.Subtotal},
		{mo.Shipping, &o.Shipping},
		{mo.Taxes, &o.Taxes},
		{mo.Total, &o.Total},
	}
	for _, a := range amounts {
		v, err := fromDecimal128(a.src)
		if err != nil {
			return nil, err
		}
		*a.dst = v
	}

	for _, h := range mo.StatusHistory {
		o.StatusHistory = append(o.StatusHistory, domain.StatusChange{
			Status:    domain.OrderStatus(h.Status),
			ChangedAt: h.ChangedAt.UTC(),
			ChangedBy: h.ChangedBy,
		})
	}
	return o, nil
}

// Create inserts a new order document.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	doc, err := toMongoOrder(o)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoOrder
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return doc.toDomain()
}

// List returns the orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, f ports.ListOrdersFilter) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoOrder
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateStatus atomically sets the order status and appends a history entry,
// but only while the stored status is one of from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from []domain.OrderStatus, change domain.StatusChange, at time.Time) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sources := make([]string, 0, len(from))
	for _, st := range from {
		sources = append(sources, string(st))
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": sources}}
	update := bson.M{
		"$set":  bson.M{"status": string(change.Status), "updated_at": at.UTC()},
		"$push": bson.M{"status_history": toMongoStatusChange(change)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoOrder
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return nil, nil
}

// EnsureIndexes creates the listing indexes on the orders collection.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
