// Package mongodb provides a ReportStore backed by a MongoDB collection.
//
// Documents follow the health.Sources layout (user, file_name, file_type,
// raw_text, parsed_data, symptoms), one document per report. Seq comes from a counter
// document updated with $inc, and a unique index on (user, content_hash)
// rejects duplicate reports.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

var _ driven.ReportStore = (*Store)(nil)

const (
	countersCollection = "counters"
	reportSeqCounter   = "report_seq"
	connectTimeout     = 10 * time.Second
)

// Config holds MongoDB connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// reportDoc is the stored shape of a report record.
type reportDoc struct {
	ID          string             `bson:"_id"`
	Seq         int64              `bson:"seq"`
	User        string             `bson:"user"`
	FileName    string             `bson:"file_name"`
	FileType    string             `bson:"file_type"`
	ContentHash string             `bson:"content_hash"`
	RawText     string             `bson:"raw_text"`
	ParsedData  *domain.ParsedData `bson:"parsed_data,omitempty"`
	Symptoms    string             `bson:"symptoms"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d reportDoc) record() domain.ReportRecord {
	return domain.ReportRecord{
		ID:          d.ID,
		Seq:         d.Seq,
		User:        d.User,
		FileName:    d.FileName,
		FileType:    d.FileType,
		ContentHash: d.ContentHash,
		RawText:     d.RawText,
		ParsedData:  d.ParsedData,
		Symptoms:    d.Symptoms,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Store persists report records as MongoDB documents.
type Store struct {
	client   *mongo.Client
	reports  *mongo.Collection
	counters *mongo.Collection
}

// Open connects to MongoDB and ensures the unique index exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongo uri is required", domain.ErrInvalidInput)
	}
	if cfg.Database == "" {
		cfg.Database = domain.DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultMongoCollection
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:   client,
		reports:  db.Collection(cfg.Collection),
		counters: db.Collection(countersCollection),
	}

	_, err = s.reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "content_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_content_hash"),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "seq", Value: -1}},
			Options: options.Index().SetName("user_seq"),
		},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating report indexes: %w", err)
	}
	return s, nil
}

// Insert appends a record with the next counter value as Seq.
func (s *Store) Insert(ctx context.Context, record *domain.ReportRecord) error {
	if record == nil || record.User == "" {
		return fmt.Errorf("%w: record requires a user", domain.ErrInvalidInput)
	}

	seq, err := s.nextSeq(ctx)
	if err != nil {
		return err
	}

	inserted := *record
	if inserted.ID == "" {
		inserted.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inserted.CreatedAt.IsZero() {
		inserted.CreatedAt = now
	}
	inserted.UpdatedAt = now
	inserted.Seq = seq

	doc := reportDoc{
		ID:          inserted.ID,
		Seq:         inserted.Seq,
		User:        inserted.User,
		FileName:    inserted.FileName,
		FileType:    inserted.FileType,
		ContentHash: inserted.ContentHash,
		RawText:     inserted.RawText,
		ParsedData:  inserted.ParsedData,
		Symptoms:    inserted.Symptoms,
		CreatedAt:   inserted.CreatedAt,
		UpdatedAt:   inserted.UpdatedAt,
	}
	if _, err := s.reports.InsertOne(ctx, doc); err != nil {
		// A burned counter value leaves a gap; Seq stays strictly increasing.
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, inserted.FileName)
		}
		return fmt.Errorf("inserting report: %w", err)
	}

	*record = inserted
	return nil
}

func (s *Store) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": reportSeqCounter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocating report seq: %w", err)
	}
	return counter.Seq, nil
}

// UpdateSymptoms overwrites symptoms on the user's highest-seq record.
func (s *Store) UpdateSymptoms(ctx context.Context, user, symptoms string) error {
	res := s.reports.FindOneAndUpdate(ctx,
		bson.M{"user": user},
		bson.M{"$set": bson.M{"symptoms": symptoms, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetSort(bson.D{{Key: "seq", Value: -1}}),
	)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("updating symptoms: %w", err)
	}
	return nil
}

// ListByUser returns the user's records ordered by seq.
func (s *Store) ListByUser(ctx context.Context, user string) ([]domain.ReportRecord, error) {
	cursor, err := s.reports.Find(ctx, bson.M{"user": user},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reportDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding reports: %w", err)
	}

	records := make([]domain.ReportRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.record())
	}
	return records, nil
}

// Latest returns the user's most recent record.
func (s *Store) Latest(ctx context.Context, user string) (*domain.ReportRecord, error) {
	return s.findOne(ctx, bson.M{"user": user},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}))
}

// Get returns one of the user's records by ID.
func (s *Store) Get(ctx context.Context, user, id string) (*domain.ReportRecord, error) {
	return s.findOne(ctx, bson.M{"_id": id, "user": user})
}

// FindByHash returns the user's record with the given content hash.
func (s *Store) FindByHash(ctx context.Context, user, hash string) (*domain.ReportRecord, error) {
	return s.findOne(ctx, bson.M{"user": user, "content_hash": hash})
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.ReportRecord, error) {
	var doc reportDoc
	if err := s.reports.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding report: %w", err)
	}
	r := doc.record()
	return &r, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
