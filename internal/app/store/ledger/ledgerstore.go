// Package ledgerstore persists an audit ledger of failed API requests so
// operators can diagnose storefront integration problems after the fact.
package ledgerstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Entry represents a single failed request in the ledger.
type Entry struct {
	ID primitive.ObjectID `bson:"_id"`

	RequestID       string `bson:"request_id"`
	ClientRequestID string `bson:"client_request_id,omitempty"` // From X-Request-ID header

	// HTTP request metadata
	Method   string `bson:"method"`
	Path     string `bson:"path"`
	Query    string `bson:"query,omitempty"`
	RemoteIP string `bson:"remote_ip"`

	// Catalog context
	Shop   string `bson:"shop,omitempty"`
	Action string `bson:"action,omitempty"`
	Actor  string `bson:"actor,omitempty"` // role list presented by the caller

	// Request body handling
	RequestBodySize    int64  `bson:"request_body_size"`
	RequestBodyPreview string `bson:"request_body_preview,omitempty"`
	RequestContentType string `bson:"request_content_type,omitempty"`

	// Response metadata
	StatusCode   int    `bson:"status_code"`
	ResponseSize int64  `bson:"response_size"`
	ErrorMessage string `bson:"error_message,omitempty"`

	DurationMs float64 `bson:"duration_ms"`

	StartedAt   time.Time `bson:"started_at"`
	CompletedAt time.Time `bson:"completed_at"`
}

// Store provides ledger entry persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new ledger store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ledger_entries")}
}

// Create inserts a new ledger entry.
func (s *Store) Create(ctx context.Context, entry Entry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// GetByRequestID retrieves a ledger entry by request ID.
func (s *Store) GetByRequestID(ctx context.Context, requestID string) (*Entry, error) {
	var entry Entry
	if err := s.c.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListFilter specifies criteria for listing ledger entries.
type ListFilter struct {
	StartTime *time.Time
	EndTime   *time.Time

	Shop   string
	Action string
	Method string

	StatusCodeMin *int
	StatusCodeMax *int
}

// ListResult contains a page of ledger entries with pagination info.
type ListResult struct {
	Entries    []Entry
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}

// List returns ledger entries matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter, page, pageSize int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	query := s.buildQuery(filter)

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return ListResult{}, err
	}

	skip := (page - 1) * pageSize
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(pageSize))

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return ListResult{}, err
	}
	defer cur.Close(ctx)

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Entries:    entries,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *Store) buildQuery(filter ListFilter) bson.M {
	query := bson.M{}

	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["started_at"] = timeQuery
	}

	if filter.Shop != "" {
		query["shop"] = filter.Shop
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.Method != "" {
		query["method"] = filter.Method
	}

	if filter.StatusCodeMin != nil || filter.StatusCodeMax != nil {
		statusQuery := bson.M{}
		if filter.StatusCodeMin != nil {
			statusQuery["$gte"] = *filter.StatusCodeMin
		}
		if filter.StatusCodeMax != nil {
			statusQuery["$lte"] = *filter.StatusCodeMax
		}
		query["status_code"] = statusQuery
	}

	return query
}

// DeleteOlderThan deletes entries older than the cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{
		"started_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// RecentErrors returns the most recent entries, newest first.
func (s *Store) RecentErrors(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
