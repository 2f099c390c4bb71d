package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jmagsino/shs-registrar-api/internal/models"
)

// ScheduleRepository handles persistence of schedule slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const slotDetailSelect = `SELECT sl.id, sl.subject_id, sl.faculty_id, sl.section_id, sl.school_year_id, sl.day_of_week, sl.start_time, sl.end_time, sl.semester, sl.room, sl.active, sl.created_at, sl.updated_at,
        sub.code AS subject_code, sub.name AS subject_name, sec.name AS section_name, u.full_name AS faculty_name
        FROM schedule_slots sl
        JOIN subjects sub ON sub.id = sl.subject_id
        JOIN sections sec ON sec.id = sl.section_id
        LEFT JOIN users u ON u.id = sl.faculty_id`

// FindByID returns a schedule slot by identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	const query = `SELECT id, subject_id, faculty_id, section_id, school_year_id, day_of_week, start_time, end_time, semester, room, active, created_at, updated_at FROM schedule_slots WHERE id = $1 LIMIT 1`
	var slot models.ScheduleSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule slot: %w", err)
	}
	return &slot, nil
}

// FindFacultyConflict returns an active slot of the same faculty overlapping
// the given day/time within the school year, excluding the slot itself.
// Time values are zero-padded HH:MM so lexicographic comparison is safe.
func (r *ScheduleRepository) FindFacultyConflict(ctx context.Context, facultyID, schoolYearID, dayOfWeek, startTime, endTime, excludeID string) (*models.ScheduleConflict, error) {
	query := `SELECT id AS slot_id, subject_id, section_id, faculty_id, day_of_week, start_time, end_time
        FROM schedule_slots
        WHERE faculty_id = $1 AND school_year_id = $2 AND day_of_week = $3 AND active = TRUE
          AND start_time < $4 AND end_time > $5`
	args := []interface{}{facultyID, schoolYearID, dayOfWeek, endTime, startTime}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var conflict models.ScheduleConflict
	if err := r.db.GetContext(ctx, &conflict, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("check faculty conflict: %w", err)
	}
	return &conflict, nil
}

// List returns schedule slots filtered by the provided criteria.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleSlotFilter) ([]models.ScheduleSlotDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("sl.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("sl.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("sl.faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.SchoolYearID != "" {
		conditions = append(conditions, fmt.Sprintf("sl.school_year_id = $%d", len(args)+1))
		args = append(args, filter.SchoolYearID)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("sl.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("sl.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"day_of_week":  "sl.day_of_week",
		"start_time":   "sl.start_time",
		"subject_code": "sub.code",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "sl.day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`%s %s ORDER BY %s %s, sl.start_time ASC LIMIT %d OFFSET %d`, slotDetailSelect, clause, orderBy, order, size, offset)
	var slots []models.ScheduleSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule slots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM schedule_slots sl%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule slots: %w", err)
	}
	return slots, total, nil
}

// Create persists a new schedule slot.
func (r *ScheduleRepository) Create(ctx context.Context, slot *models.ScheduleSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	const query = `INSERT INTO schedule_slots (id, subject_id, faculty_id, section_id, school_year_id, day_of_week, start_time, end_time, semester, room, active, created_at, updated_at)
        VALUES (:id, :subject_id, :faculty_id, :section_id, :school_year_id, :day_of_week, :start_time, :end_time, :semester, :room, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create schedule slot: %w", err)
	}
	return nil
}

// Update updates mutable slot fields.
func (r *ScheduleRepository) Update(ctx context.Context, slot *models.ScheduleSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_slots SET faculty_id = :faculty_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, room = :room, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update schedule slot: %w", err)
	}
	return nil
}

// ListCORLines projects the printable registration lines of an enrollment
// from its roster rows joined with slots and subjects.
func (r *ScheduleRepository) ListCORLines(ctx context.Context, enrollmentID string) ([]models.CORLine, error) {
	const query = `SELECT sub.code AS subject_code, sub.name AS subject_name, sub.units,
        sl.semester, sl.day_of_week, sl.start_time, sl.end_time, sl.room, u.full_name AS faculty_name
        FROM registration_lines rl
        JOIN schedule_slots sl ON sl.id = rl.slot_id
        JOIN subjects sub ON sub.id = sl.subject_id
        LEFT JOIN users u ON u.id = sl.faculty_id
        WHERE rl.enrollment_id = $1 AND rl.is_enrolled = TRUE
        ORDER BY sl.semester ASC, sub.code ASC`
	var lines []models.CORLine
	if err := r.db.SelectContext(ctx, &lines, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list cor lines: %w", err)
	}
	return lines, nil
}
