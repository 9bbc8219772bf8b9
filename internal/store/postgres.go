package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/models"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/google/uuid"
)

const feedbackColumns = `id, serial_number, severity, testing_device, defect_description, precondition,
steps_to_recreate, expected_result, actual_result, name, email, phone_number, profession, location,
most_useful_feature, chatbot_rating, screenshot_url, parent_serial_number, status, refix_count,
created_at, created_by`

// PostgresStore implements RecordStore on database/sql with the lib/pq driver.
type PostgresStore struct {
	db     *sql.DB
	logger *observability.Logger
	now    func() time.Time
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB, logger *observability.Logger) *PostgresStore {
	if db == nil {
		panic("NewPostgresStore: db is nil")
	}
	if logger == nil {
		panic("NewPostgresStore: logger is nil")
	}
	return &PostgresStore{db: db, logger: logger, now: time.Now}
}

// Insert persists record with a fresh UUID. CreatedAt is filled in when zero.
func (s *PostgresStore) Insert(ctx context.Context, record *models.FeedbackRecord) (result0 string, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "insert", observability.AttributeSerial(record.SerialNumber))
	defer observability.FinishSpan(span, &err)

	id := uuid.NewString()
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	query := `INSERT INTO feedback (` + feedbackColumns + `)
              VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`
	_, err = s.db.ExecContext(ctx, query,
		id, record.SerialNumber, string(record.Severity), string(record.TestingDevice),
		record.DefectDescription, record.Precondition, record.StepsToRecreate, record.ExpectedResult, record.ActualResult,
		record.Name, record.Email, record.PhoneNumber, record.Profession, record.Location,
		record.MostUsefulFeature, record.ChatbotRating,
		models.PointerToNullString(record.ScreenshotURL), models.PointerToNullString(record.ParentSerialNumber),
		string(record.Status), record.RefixCount, createdAt, models.PointerToNullString(record.CreatedBy),
	)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to insert feedback")
	}

	record.ID = id
	record.CreatedAt = createdAt
	return id, nil
}

// Update sets status and/or refix_count on one record.
func (s *PostgresStore) Update(ctx context.Context, id string, patch Patch) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "update", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %s not found", id)
	}
	if patch.IsEmpty() {
		return nil
	}

	var sets []string
	var args []interface{}
	idx := 1
	if patch.Status != nil {
		sets = append(sets, fmt.Sprintf("status=$%d", idx))
		args = append(args, string(*patch.Status))
		idx++
	}
	if patch.IncrementRefix {
		sets = append(sets, "refix_count=refix_count+1")
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE feedback SET %s WHERE id=$%d", strings.Join(sets, ","), idx)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return contextutils.WrapError(err, "failed to update feedback")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "feedback with ID %s not found", id)
	}
	return nil
}

// List returns records matching filter, newest first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) (result0 []models.FeedbackRecord, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "list", observability.AttributeLimit(filter.Limit))
	defer observability.FinishSpan(span, &err)

	var conditions []string
	var args []interface{}
	idx := 1
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status=$%d", idx))
		args = append(args, string(*filter.Status))
		idx++
	}
	if filter.CreatedSince != nil {
		conditions = append(conditions, fmt.Sprintf("created_at>=$%d", idx))
		args = append(args, *filter.CreatedSince)
		idx++
	}
	if filter.ParentSerial != nil {
		conditions = append(conditions, fmt.Sprintf("parent_serial_number=$%d", idx))
		args = append(args, *filter.ParentSerial)
		idx++
	}
	if filter.RequireCreator {
		conditions = append(conditions, "created_by IS NOT NULL")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	query := "SELECT " + feedbackColumns + " FROM feedback" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query feedback list")
	}
	defer func() {
		_ = rows.Close()
	}()

	list := []models.FeedbackRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, contextutils.WrapError(err, "scan feedback list")
		}
		list = append(list, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "iterate feedback list")
	}
	return list, nil
}

// GetByID fetches a single record, nil when absent.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (result0 *models.FeedbackRecord, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "get_by_id", observability.AttributeFeedbackID(id))
	defer observability.FinishSpan(span, &err)

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		// not a UUID, so it cannot name a row; avoid a driver-level cast error
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+feedbackColumns+" FROM feedback WHERE id=$1", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to scan feedback")
	}
	return rec, nil
}

// LatestSerial returns the newest record's serial number.
func (s *PostgresStore) LatestSerial(ctx context.Context) (result0 *string, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "latest_serial")
	defer observability.FinishSpan(span, &err)

	var serial string
	err = s.db.QueryRowContext(ctx, `SELECT serial_number FROM feedback ORDER BY created_at DESC LIMIT 1`).Scan(&serial)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to read latest serial")
	}
	return &serial, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.FeedbackRecord, error) {
	var rec models.FeedbackRecord
	var severity, device, status string
	var screenshot, parent, createdBy sql.NullString
	err := row.Scan(
		&rec.ID, &rec.SerialNumber, &severity, &device,
		&rec.DefectDescription, &rec.Precondition, &rec.StepsToRecreate, &rec.ExpectedResult, &rec.ActualResult,
		&rec.Name, &rec.Email, &rec.PhoneNumber, &rec.Profession, &rec.Location,
		&rec.MostUsefulFeature, &rec.ChatbotRating,
		&screenshot, &parent, &status, &rec.RefixCount, &rec.CreatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}
	rec.Severity = models.Severity(severity)
	rec.TestingDevice = models.TestingDevice(device)
	rec.Status = models.Status(status)
	rec.ScreenshotURL = models.NullStringToPointer(screenshot)
	rec.ParentSerialNumber = models.NullStringToPointer(parent)
	rec.CreatedBy = models.NullStringToPointer(createdBy)
	return &rec, nil
}
