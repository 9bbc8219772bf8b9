package store

import (
	"context"
	"errors"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// feedbackRow is the GORM mapping of the feedback table. Indexed and
// defaulted columns carry a size so the same mapping migrates on MySQL.
type feedbackRow struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	SerialNumber       string    `gorm:"not null;size:50"`
	Severity           string    `gorm:"not null;size:16"`
	TestingDevice      string    `gorm:"not null;size:16"`
	DefectDescription  string    `gorm:"not null;type:text"`
	Precondition       string    `gorm:"not null;type:text"`
	StepsToRecreate    string    `gorm:"not null;type:text"`
	ExpectedResult     string    `gorm:"not null;type:text"`
	ActualResult       string    `gorm:"not null;type:text"`
	Name               string    `gorm:"not null;size:200;default:''"`
	Email              string    `gorm:"not null;size:255;default:''"`
	PhoneNumber        string    `gorm:"not null;size:50;default:''"`
	Profession         string    `gorm:"not null;size:200;default:''"`
	Location           string    `gorm:"not null;size:200;default:''"`
	MostUsefulFeature  string    `gorm:"not null;type:text"`
	ChatbotRating      int       `gorm:"not null;default:0"`
	ScreenshotURL      *string   `gorm:"type:text"`
	ParentSerialNumber *string   `gorm:"size:50;index"`
	Status             string    `gorm:"not null;size:16;default:open;index"`
	RefixCount         int       `gorm:"not null;default:0"`
	CreatedAt          time.Time `gorm:"not null;index;autoCreateTime:false"`
	CreatedBy          *string   `gorm:"size:191;index"`
}

// TableName pins the table name shared with the postgres migrations.
func (feedbackRow) TableName() string { return "feedback" }

func rowFromRecord(id string, r *models.FeedbackRecord) feedbackRow {
	return feedbackRow{
		ID:                 id,
		SerialNumber:       r.SerialNumber,
		Severity:           string(r.Severity),
		TestingDevice:      string(r.TestingDevice),
		DefectDescription:  r.DefectDescription,
		Precondition:       r.Precondition,
		StepsToRecreate:    r.StepsToRecreate,
		ExpectedResult:     r.ExpectedResult,
		ActualResult:       r.ActualResult,
		Name:               r.Name,
		Email:              r.Email,
		PhoneNumber:        r.PhoneNumber,
		Profession:         r.Profession,
		Location:           r.Location,
		MostUsefulFeature:  r.MostUsefulFeature,
		ChatbotRating:      r.ChatbotRating,
		ScreenshotURL:      r.ScreenshotURL,
		ParentSerialNumber: r.ParentSerialNumber,
		Status:             string(r.Status),
		RefixCount:         r.RefixCount,
		CreatedAt:          r.CreatedAt.UTC(),
		CreatedBy:          r.CreatedBy,
	}
}

func (row feedbackRow) record() models.FeedbackRecord {
	return models.FeedbackRecord{
		ID:                 row.ID,
		SerialNumber:       row.SerialNumber,
		Severity:           models.Severity(row.Severity),
		TestingDevice:      models.TestingDevice(row.TestingDevice),
		DefectDescription:  row.DefectDescription,
		Precondition:       row.Precondition,
		StepsToRecreate:    row.StepsToRecreate,
		ExpectedResult:     row.ExpectedResult,
		ActualResult:       row.ActualResult,
		Name:               row.Name,
		Email:              row.Email,
		PhoneNumber:        row.PhoneNumber,
		Profession:         row.Profession,
		Location:           row.Location,
		MostUsefulFeature:  row.MostUsefulFeature,
		ChatbotRating:      row.ChatbotRating,
		ScreenshotURL:      row.ScreenshotURL,
		ParentSerialNumber: row.ParentSerialNumber,
		Status:             models.Status(row.Status),
		RefixCount:         row.RefixCount,
		CreatedAt:          row.CreatedAt,
		CreatedBy:          row.CreatedBy,
	}
}

// GormStore implements RecordStore on GORM. It backs the embedded SQLite mode.
type GormStore struct {
	db     *gorm.DB
	logger *observability.Logger
	now    func() time.Time
}

// NewGormStore creates the store and migrates the feedback table.
func NewGormStore(db *gorm.DB, logger *observability.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&feedbackRow{}); err != nil {
		return nil, contextutils.WrapError(err, "failed to migrate feedback table")
	}
	return &GormStore{db: db, logger: logger, now: time.Now}, nil
}

// Insert persists record with a fresh UUID.
func (s *GormStore) Insert(ctx context.Context, record *models.FeedbackRecord) (result0 string, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "insert", observability.AttributeSerial(record.SerialNumber))
	defer observability.FinishSpan(span, &err)

	id := uuid.NewString()
	row := rowFromRecord(id, record)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = s.now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", contextutils.WrapError(err, "failed to insert feedback")
	}
	record.ID = id
	record.CreatedAt = row.CreatedAt
	return id, nil
}

// Update sets status and/or refix_count on one record.
func (s *GormStore) Update(ctx context.Context, id string, patch Patch) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "update", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}
	if patch.IncrementRefix {
		updates["refix_count"] = gorm.Expr("refix_count + ?", 1)
	}

	q := s.db.WithContext(ctx).Model(&feedbackRow{}).Where("id = ?", id)
	if len(updates) == 0 {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return contextutils.WrapError(err, "failed to update feedback")
		}
		if n == 0 {
			return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %s not found", id)
		}
		return nil
	}

	result := q.Updates(updates)
	if result.Error != nil {
		return contextutils.WrapError(result.Error, "failed to update feedback")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports only changed rows, so an update that rewrites the same
	// values still needs a lookup before it counts as missing.
	var n int64
	if err := s.db.WithContext(ctx).Model(&feedbackRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return contextutils.WrapError(err, "failed to update feedback")
	}
	if n == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %s not found", id)
	}
	return nil
}

// List returns records matching filter, newest first.
func (s *GormStore) List(ctx context.Context, filter ListFilter) (result0 []models.FeedbackRecord, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "list", observability.AttributeLimit(filter.Limit))
	defer observability.FinishSpan(span, &err)

	q := s.db.WithContext(ctx).Model(&feedbackRow{})
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.CreatedSince != nil {
		// SQLite compares timestamps as text; both sides stay in UTC.
		q = q.Where("created_at >= ?", filter.CreatedSince.UTC())
	}
	if filter.ParentSerial != nil {
		q = q.Where("parent_serial_number = ?", *filter.ParentSerial)
	}
	if filter.RequireCreator {
		q = q.Where("created_by IS NOT NULL")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []feedbackRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, contextutils.WrapError(err, "failed to query feedback list")
	}

	list := make([]models.FeedbackRecord, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.record())
	}
	return list, nil
}

// GetByID fetches a single record, nil when absent.
func (s *GormStore) GetByID(ctx context.Context, id string) (result0 *models.FeedbackRecord, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "get_by_id", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	var row feedbackRow
	err = s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load feedback")
	}
	rec := row.record()
	return &rec, nil
}

// LatestSerial returns the newest record's serial number.
func (s *GormStore) LatestSerial(ctx context.Context) (result0 *string, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "latest_serial")
	defer observability.FinishSpan(span, &err)

	var row feedbackRow
	err = s.db.WithContext(ctx).Select("serial_number").Order("created_at DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to read latest serial")
	}
	return &row.SerialNumber, nil
}
