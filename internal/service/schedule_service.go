package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type scheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
	FindFacultyConflict(ctx context.Context, facultyID, schoolYearID, dayOfWeek, startTime, endTime, excludeID string) (*models.ScheduleConflict, error)
	List(ctx context.Context, filter models.ScheduleSlotFilter) ([]models.ScheduleSlotDetail, int, error)
	Create(ctx context.Context, slot *models.ScheduleSlot) error
	Update(ctx context.Context, slot *models.ScheduleSlot) error
}

// ScheduleSlotRequest creates or replaces one weekly meeting of a subject.
type ScheduleSlotRequest struct {
	SubjectID    string  `json:"subject_id" validate:"required"`
	FacultyID    *string `json:"faculty_id"`
	SectionID    string  `json:"section_id" validate:"required"`
	SchoolYearID string  `json:"school_year_id" validate:"required"`
	DayOfWeek    string  `json:"day_of_week" validate:"required,oneof=Mon Tue Wed Thu Fri Sat"`
	StartTime    string  `json:"start_time" validate:"required,len=5"`
	EndTime      string  `json:"end_time" validate:"required,len=5"`
	Semester     string  `json:"semester" validate:"required,oneof=1st 2nd"`
	Room         string  `json:"room"`
}

// ScheduleService manages schedule slots with faculty conflict detection.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger}
}

// List returns slots matching the filter.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleSlotFilter) ([]models.ScheduleSlotDetail, *models.Pagination, error) {
	slots, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return slots, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one slot.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slot")
	}
	return slot, nil
}

// Create adds a slot after checking the assigned faculty is free on that day
// and time window within the school year.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleSlotRequest) (*models.ScheduleSlot, error) {
	if err := s.validateSlot(req); err != nil {
		return nil, err
	}
	if err := s.checkFacultyConflict(ctx, req, ""); err != nil {
		return nil, err
	}

	slot := &models.ScheduleSlot{
		SubjectID:    req.SubjectID,
		FacultyID:    req.FacultyID,
		SectionID:    req.SectionID,
		SchoolYearID: req.SchoolYearID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Semester:     req.Semester,
		Room:         req.Room,
		Active:       true,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule slot")
	}
	return slot, nil
}

// Update replaces a slot's meeting details, re-running the conflict check
// against everything except the slot itself.
func (s *ScheduleService) Update(ctx context.Context, id string, req ScheduleSlotRequest) (*models.ScheduleSlot, error) {
	if err := s.validateSlot(req); err != nil {
		return nil, err
	}

	slot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkFacultyConflict(ctx, req, id); err != nil {
		return nil, err
	}

	slot.SubjectID = req.SubjectID
	slot.FacultyID = req.FacultyID
	slot.SectionID = req.SectionID
	slot.SchoolYearID = req.SchoolYearID
	slot.DayOfWeek = req.DayOfWeek
	slot.StartTime = req.StartTime
	slot.EndTime = req.EndTime
	slot.Semester = req.Semester
	slot.Room = req.Room
	slot.Active = true
	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule slot")
	}
	return slot, nil
}

func (s *ScheduleService) validateSlot(req ScheduleSlotRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid schedule slot payload")
	}
	// Times are zero-padded HH:MM, so string order is time order.
	if req.StartTime >= req.EndTime {
		return appErrors.Clone(appErrors.ErrValidation, "start time must be before end time").
			WithDetails(map[string]string{"start_time": "must be before end_time"})
	}
	return nil
}

func (s *ScheduleService) checkFacultyConflict(ctx context.Context, req ScheduleSlotRequest, excludeID string) error {
	if req.FacultyID == nil || *req.FacultyID == "" {
		return nil
	}
	conflict, err := s.repo.FindFacultyConflict(ctx, *req.FacultyID, req.SchoolYearID, req.DayOfWeek, req.StartTime, req.EndTime, excludeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check faculty schedule")
	}
	return &models.ScheduleConflictError{
		Message:  fmt.Sprintf("faculty already teaches %s %s-%s", conflict.DayOfWeek, conflict.StartTime, conflict.EndTime),
		Conflict: *conflict,
	}
}
