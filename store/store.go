package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"seo_article_studio/model"
)

// ErrNotFound is returned by Get for an unknown draft id.
var ErrNotFound = errors.New("draft not found")

// Store is the cross-session persistence boundary. Writes are last-write-wins
// at whole-draft granularity; Upsert is idempotent on content equality.
type Store interface {
	Get(ctx context.Context, id string) (*model.Draft, error)
	Upsert(ctx context.Context, draft model.Draft) error
	List(ctx context.Context) ([]model.ArticleMetadata, error)
}

// draftRecord is the persisted row. The aggregate is stored as one JSON
// payload; the projection columns exist only for the dashboard list.
type draftRecord struct {
	ID        string `gorm:"primaryKey"`
	Title     string
	Score     int
	Status    string
	Payload   []byte
	UpdatedAt time.Time `gorm:"index"`
}

func (draftRecord) TableName() string { return "drafts" }

// DB is the sqlite-backed Store.
type DB struct {
	db *gorm.DB
}

// Open opens (and migrates) the draft database at path.
func Open(path string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open draft database")
	}
	if err := db.AutoMigrate(&draftRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate draft database")
	}
	return &DB{db: db}, nil
}

// Upsert writes the whole draft keyed by its id, stamping UpdatedAt.
func (s *DB) Upsert(ctx context.Context, draft model.Draft) error {
	if draft.ID == "" {
		return errors.New("draft has no id")
	}
	draft.UpdatedAt = time.Now()

	payload, err := json.Marshal(draft)
	if err != nil {
		return errors.Wrap(err, "encode draft")
	}
	score := 0
	if draft.Analysis != nil {
		score = draft.Analysis.Score
	}
	rec := draftRecord{
		ID:        draft.ID,
		Title:     draft.Title(),
		Score:     score,
		Status:    string(draft.State),
		Payload:   payload,
		UpdatedAt: draft.UpdatedAt,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rec).Error
	return errors.Wrap(err, "upsert draft")
}

func (s *DB) Get(ctx context.Context, id string) (*model.Draft, error) {
	var rec draftRecord
	err := s.db.WithContext(ctx).Take(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load draft")
	}
	var draft model.Draft
	if err := json.Unmarshal(rec.Payload, &draft); err != nil {
		return nil, errors.Wrap(err, "decode draft")
	}
	draft.UpdatedAt = rec.UpdatedAt
	return &draft, nil
}

func (s *DB) List(ctx context.Context) ([]model.ArticleMetadata, error) {
	var recs []draftRecord
	err := s.db.WithContext(ctx).
		Select("id", "title", "score", "status", "updated_at").
		Order("updated_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list drafts")
	}
	metas := make([]model.ArticleMetadata, len(recs))
	for i, rec := range recs {
		metas[i] = model.ArticleMetadata{
			ID:        rec.ID,
			Title:     rec.Title,
			Score:     rec.Score,
			Status:    model.DraftState(rec.Status),
			UpdatedAt: rec.UpdatedAt,
		}
	}
	return metas, nil
}
