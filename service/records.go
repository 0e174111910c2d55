package service

import (
	"context"
	"strings"
	"time"

	"github.com/flickvault/flickvault/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RecordRepo is the persistence surface for title requests. *store.RecordStore
// satisfies it.
type RecordRepo interface {
	Insert(ctx context.Context, r *models.Record) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Record, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Record, error)
	ListAll(ctx context.Context) ([]models.Record, error)
}

// TitleMetadataFetcher enriches a request with catalog details from the
// external movie API. Always best-effort: failures never fail the workflow.
type TitleMetadataFetcher interface {
	FetchTitleMetadata(ctx context.Context, name string, year int) (*TitleMetadata, error)
}

// RecordService creates, edits and deletes title-request records. Mutations
// by id re-fetch the record and require the caller to be the owner or an
// Admin; nothing is ever trusted from a client-supplied record body.
type RecordService struct {
	records  RecordRepo
	metadata TitleMetadataFetcher // nil disables enrichment
	log      *zap.SugaredLogger
}

func NewRecordService(records RecordRepo, metadata TitleMetadataFetcher, log *zap.SugaredLogger) *RecordService {
	return &RecordService{records: records, metadata: metadata, log: log}
}

func validateRecord(name string, year int, rtype string) error {
	verrs := ValidationErrors{}
	if strings.TrimSpace(name) == "" {
		verrs["name"] = "title name is required"
	}
	if year < 1888 || year > time.Now().Year()+1 {
		verrs["year"] = "release year is out of range"
	}
	if rtype != models.TypeMovie && rtype != models.TypeSeries {
		verrs["type"] = "type must be movie or series"
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// Create persists a new request owned by userID.
func (s *RecordService) Create(ctx context.Context, name string, year int, rtype string, userID primitive.ObjectID) (*models.Record, error) {
	rtype = strings.ToLower(strings.TrimSpace(rtype))
	if err := validateRecord(name, year, rtype); err != nil {
		return nil, err
	}
	record := &models.Record{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Year:      year,
		Type:      rtype,
		CreatedAt: time.Now(),
	}
	if s.metadata != nil {
		if meta, err := s.metadata.FetchTitleMetadata(ctx, record.Name, year); err == nil && meta != nil {
			if meta.Title != "" {
				record.Name = meta.Title
			}
			record.PosterURL = meta.PosterURL
			record.Overview = meta.Overview
		} else if err != nil {
			s.log.Debugw("title metadata lookup failed", "name", record.Name, "err", err)
		}
	}
	id, err := s.records.Insert(ctx, record)
	if err != nil {
		return nil, err
	}
	record.ID = id
	return record, nil
}

// caller identity for ownership checks.
type Caller struct {
	UserID primitive.ObjectID
	Admin  bool
}

func (s *RecordService) fetchOwned(ctx context.Context, id primitive.ObjectID, caller Caller) (*models.Record, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	if record.UserID != caller.UserID && !caller.Admin {
		return nil, ErrForbidden
	}
	return record, nil
}

// Edit updates a record's fields. Ownership is never reassigned: the record
// keeps its original owner no matter who edits it.
func (s *RecordService) Edit(ctx context.Context, id primitive.ObjectID, name string, year int, rtype string, caller Caller) error {
	rtype = strings.ToLower(strings.TrimSpace(rtype))
	if err := validateRecord(name, year, rtype); err != nil {
		return err
	}
	if _, err := s.fetchOwned(ctx, id, caller); err != nil {
		return err
	}
	return s.records.UpdateByID(ctx, id, bson.M{
		"name": strings.TrimSpace(name),
		"year": year,
		"type": rtype,
	})
}

// Delete removes a record by id after re-fetching it server-side and
// checking ownership.
func (s *RecordService) Delete(ctx context.Context, id primitive.ObjectID, caller Caller) error {
	if _, err := s.fetchOwned(ctx, id, caller); err != nil {
		return err
	}
	return s.records.DeleteByID(ctx, id)
}

// Get returns a record the caller may see.
func (s *RecordService) Get(ctx context.Context, id primitive.ObjectID, caller Caller) (*models.Record, error) {
	return s.fetchOwned(ctx, id, caller)
}

func (s *RecordService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Record, error) {
	return s.records.ListByUser(ctx, userID)
}

// ListAll is the Admin view over every user's requests.
func (s *RecordService) ListAll(ctx context.Context) ([]models.Record, error) {
	return s.records.ListAll(ctx)
}
