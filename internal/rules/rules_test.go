package rules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, id uint, day, start, end string, course, teacher uint, room string) Slot {
	t.Helper()
	slot, err := NewSlot(id, day, start, end, course, teacher, room, true)
	require.NoError(t, err)
	return slot
}

func TestParseClock(t *testing.T) {
	clock, err := ParseClock("09:30")
	require.NoError(t, err)
	require.Equal(t, Clock(570), clock)
	require.Equal(t, "09:30", clock.String())

	for _, bad := range []string{"9:30", "24:00", "12:60", "ab:cd", "12-30", ""} {
		_, err := ParseClock(bad)
		require.Error(t, err, bad)
	}
}

func TestNewSlotValidation(t *testing.T) {
	_, err := NewSlot(0, "funday", "09:00", "10:00", 1, 1, "101", true)
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "day", invalid.Field)

	_, err = NewSlot(0, "Mon", "10:00", "10:00", 1, 1, "101", true)
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "end_time", invalid.Field)

	slot, err := NewSlot(0, "Mon", "08:00", "09:00", 1, 1, " 101 ", true)
	require.NoError(t, err)
	require.Equal(t, "monday", slot.Day)
	require.Equal(t, "101", slot.Room)
}

func TestTimetableOverlapTouchingBoundaries(t *testing.T) {
	first := mustSlot(t, 1, "monday", "09:00", "10:00", 1, 7, "101")
	existing := []Slot{first}

	sameTeacher := mustSlot(t, 0, "monday", "09:30", "10:30", 2, 7, "101")
	err := CheckTimetableOverlap(sameTeacher, existing)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, RuleTimetableOverlap, conflict.Rule)
	require.Equal(t, uint(1), conflict.ConflictingID)

	touching := mustSlot(t, 0, "monday", "10:00", "11:00", 1, 7, "101")
	require.NoError(t, CheckTimetableOverlap(touching, existing))
}

func TestTimetableOverlapCourseAndRoom(t *testing.T) {
	existing := []Slot{mustSlot(t, 1, "tuesday", "13:00", "15:00", 4, 1, "Lab A")}

	require.Error(t, CheckTimetableOverlap(mustSlot(t, 0, "tuesday", "14:00", "16:00", 4, 2, "lab a"), existing))
	require.NoError(t, CheckTimetableOverlap(mustSlot(t, 0, "tuesday", "14:00", "16:00", 4, 2, "Lab B"), existing))
	require.NoError(t, CheckTimetableOverlap(mustSlot(t, 0, "tuesday", "14:00", "16:00", 5, 2, "Lab A"), existing))
	require.NoError(t, CheckTimetableOverlap(mustSlot(t, 0, "wednesday", "14:00", "16:00", 4, 1, "Lab A"), existing))
}

func TestTimetableOverlapSkipsSelfAndInactive(t *testing.T) {
	entry := mustSlot(t, 3, "friday", "08:00", "09:00", 1, 1, "1")
	inactive := mustSlot(t, 4, "friday", "08:00", "09:00", 1, 1, "1")
	inactive.Active = false

	moved := entry
	moved.Start, moved.End = 510, 570
	require.NoError(t, CheckTimetableOverlap(moved, []Slot{entry, inactive}))
}

// Accepted writes never leave two clashing active slots behind.
func TestTimetableAcceptedWritesNeverClash(t *testing.T) {
	var accepted []Slot
	id := uint(1)
	for teacher := uint(1); teacher <= 3; teacher++ {
		for start := 8 * 60; start < 14*60; start += 45 {
			candidate := Slot{ID: id, Day: "monday", Start: Clock(start), End: Clock(start + 60), CourseID: uint(start % 3), TeacherID: teacher, Room: "R1", Active: true}
			id++
			if CheckTimetableOverlap(candidate, accepted) == nil {
				accepted = append(accepted, candidate)
			}
		}
	}

	require.NotEmpty(t, accepted)
	for i := range accepted {
		for j := range accepted {
			if i != j {
				require.False(t, accepted[i].Clashes(accepted[j]), "%v clashes with %v", accepted[i], accepted[j])
			}
		}
	}
}

func TestCheckSemesterNumber(t *testing.T) {
	taken := map[int]uint{1: 10, 2: 11}
	require.NoError(t, CheckSemesterNumber(3, 0, taken))
	require.NoError(t, CheckSemesterNumber(1, 10, taken))

	var conflict *ConflictError
	require.ErrorAs(t, CheckSemesterNumber(2, 0, taken), &conflict)
	require.Equal(t, RuleSemesterNumber, conflict.Rule)

	var invalid *ValidationError
	require.ErrorAs(t, CheckSemesterNumber(9, 0, taken), &invalid)
	require.ErrorAs(t, CheckSemesterNumber(0, 0, taken), &invalid)
}

func TestCheckCourseCodeUnique(t *testing.T) {
	existing := []CourseKey{{ID: 1, Code: "CS101", SemesterID: 1}}

	require.Error(t, CheckCourseCodeUnique(CourseKey{Code: "cs101", SemesterID: 1}, existing))
	require.NoError(t, CheckCourseCodeUnique(CourseKey{Code: "CS101", SemesterID: 2}, existing))
	require.NoError(t, CheckCourseCodeUnique(CourseKey{ID: 1, Code: "CS101", SemesterID: 1}, existing))
	require.Equal(t, "CS101", NormalizeCourseCode(" cs101 "))
}

func TestCheckEnrollment(t *testing.T) {
	require.NoError(t, CheckEnrollment(false, 2, 3))

	var conflict *ConflictError
	require.ErrorAs(t, CheckEnrollment(true, 0, 3), &conflict)
	require.Equal(t, RuleAlreadyEnrolled, conflict.Rule)
	require.ErrorAs(t, CheckEnrollment(false, 3, 3), &conflict)
	require.Equal(t, RuleEnrollmentCapacity, conflict.Rule)
}

func TestCheckSingleSubmission(t *testing.T) {
	require.NoError(t, CheckSingleSubmission(5, []uint{1, 2}))
	var conflict *ConflictError
	require.ErrorAs(t, CheckSingleSubmission(2, []uint{1, 2}), &conflict)
	require.Equal(t, RuleSingleSubmission, conflict.Rule)
}

func TestCheckGradeRange(t *testing.T) {
	require.NoError(t, CheckGradeRange(0, 100))
	require.NoError(t, CheckGradeRange(100, 100))
	require.Error(t, CheckGradeRange(-0.5, 100))
	require.Error(t, CheckGradeRange(100.5, 100))
	require.Error(t, CheckGradeRange(math.NaN(), 100))
	require.Equal(t, "B", LetterGrade(85))
	require.Equal(t, "F", LetterGrade(12))
}

func TestCheckMaxPoints(t *testing.T) {
	highest := 90.0
	require.NoError(t, CheckMaxPoints(10, nil))
	require.NoError(t, CheckMaxPoints(90, &highest))

	var invalid *ValidationError
	require.ErrorAs(t, CheckMaxPoints(10, &highest), &invalid)
	require.Equal(t, "max_points", invalid.Field)
	require.ErrorAs(t, CheckMaxPoints(0, nil), &invalid)
}
