package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagsino/shs-registrar-api/internal/models"
	appErrors "github.com/jmagsino/shs-registrar-api/pkg/errors"
)

type mockScheduleRepo struct {
	slots    map[string]models.ScheduleSlot
	conflict *models.ScheduleConflict
	created  *models.ScheduleSlot
	updated  *models.ScheduleSlot
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	if slot, ok := m.slots[id]; ok {
		return &slot, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) FindFacultyConflict(ctx context.Context, facultyID, schoolYearID, dayOfWeek, startTime, endTime, excludeID string) (*models.ScheduleConflict, error) {
	if m.conflict == nil {
		return nil, sql.ErrNoRows
	}
	return m.conflict, nil
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.ScheduleSlotFilter) ([]models.ScheduleSlotDetail, int, error) {
	return nil, 0, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, slot *models.ScheduleSlot) error {
	if slot.ID == "" {
		slot.ID = "slot-new"
	}
	m.created = slot
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, slot *models.ScheduleSlot) error {
	m.updated = slot
	return nil
}

func facultyID(id string) *string { return &id }

func validSlotRequest() ScheduleSlotRequest {
	return ScheduleSlotRequest{
		SubjectID:    "subj-1",
		FacultyID:    facultyID("fac-1"),
		SectionID:    "sec-1",
		SchoolYearID: "sy-1",
		DayOfWeek:    "Mon",
		StartTime:    "07:30",
		EndTime:      "08:30",
		Semester:     "1st",
		Room:         "Rm 204",
	}
}

func TestCreateSlot(t *testing.T) {
	repo := &mockScheduleRepo{}
	service := NewScheduleService(repo, nil, nil)

	slot, err := service.Create(context.Background(), validSlotRequest())
	require.NoError(t, err)
	assert.Equal(t, "Mon", slot.DayOfWeek)
	assert.True(t, slot.Active)
	require.NotNil(t, repo.created)
}

func TestCreateSlotRejectsInvertedTimes(t *testing.T) {
	repo := &mockScheduleRepo{}
	service := NewScheduleService(repo, nil, nil)

	req := validSlotRequest()
	req.StartTime = "09:00"
	req.EndTime = "08:00"

	_, err := service.Create(context.Background(), req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "start_time")
	assert.Nil(t, repo.created)
}

func TestCreateSlotRejectsZeroLengthWindow(t *testing.T) {
	repo := &mockScheduleRepo{}
	service := NewScheduleService(repo, nil, nil)

	req := validSlotRequest()
	req.StartTime = "08:00"
	req.EndTime = "08:00"

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
}

func TestCreateSlotReportsFacultyConflict(t *testing.T) {
	repo := &mockScheduleRepo{conflict: &models.ScheduleConflict{
		SlotID:    "slot-9",
		DayOfWeek: "Mon",
		StartTime: "07:00",
		EndTime:   "08:00",
	}}
	service := NewScheduleService(repo, nil, nil)

	_, err := service.Create(context.Background(), validSlotRequest())
	var conflictErr *models.ScheduleConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "slot-9", conflictErr.Conflict.SlotID)
	assert.Contains(t, conflictErr.Message, "07:00-08:00")
}

func TestCreateSlotSkipsConflictCheckWithoutFaculty(t *testing.T) {
	repo := &mockScheduleRepo{conflict: &models.ScheduleConflict{SlotID: "slot-9"}}
	service := NewScheduleService(repo, nil, nil)

	req := validSlotRequest()
	req.FacultyID = nil

	_, err := service.Create(context.Background(), req)
	require.NoError(t, err, "unassigned slots cannot conflict on faculty")
}

func TestUpdateSlotExcludesItselfFromConflictCheck(t *testing.T) {
	repo := &mockScheduleRepo{slots: map[string]models.ScheduleSlot{
		"slot-1": {ID: "slot-1", SubjectID: "subj-1", SectionID: "sec-1", SchoolYearID: "sy-1", DayOfWeek: "Mon", StartTime: "07:30", EndTime: "08:30", Semester: "1st"},
	}}
	service := NewScheduleService(repo, nil, nil)

	req := validSlotRequest()
	req.Room = "Rm 301"

	slot, err := service.Update(context.Background(), "slot-1", req)
	require.NoError(t, err)
	assert.Equal(t, "Rm 301", slot.Room)
	require.NotNil(t, repo.updated)
	assert.Equal(t, "slot-1", repo.updated.ID)
}

func TestUpdateMissingSlot(t *testing.T) {
	service := NewScheduleService(&mockScheduleRepo{}, nil, nil)

	_, err := service.Update(context.Background(), "slot-ghost", validSlotRequest())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.False(t, errors.Is(err, sql.ErrNoRows))
}
