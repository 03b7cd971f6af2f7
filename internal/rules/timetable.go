package rules

import (
	"fmt"
	"strings"
)

// Days lists the accepted timetable days in week order.
var Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// NormalizeDay lower-cases a day name and reports whether it is valid.
// Three-letter abbreviations are accepted.
func NormalizeDay(day string) (string, bool) {
	day = strings.ToLower(strings.TrimSpace(day))
	for _, valid := range Days {
		if day == valid || (len(day) == 3 && strings.HasPrefix(valid, day)) {
			return valid, true
		}
	}
	return "", false
}

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses a strict HH:MM value.
func ParseClock(value string) (Clock, error) {
	value = strings.TrimSpace(value)
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("time %q must use HH:MM", value)
	}
	for i, ch := range value {
		if i == 2 {
			continue
		}
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("time %q must use HH:MM", value)
		}
	}
	hours := int(value[0]-'0')*10 + int(value[1]-'0')
	minutes := int(value[3]-'0')*10 + int(value[4]-'0')
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("time %q is out of range", value)
	}
	return Clock(hours*60 + minutes), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Slot is the part of a timetable entry the overlap rule looks at.
type Slot struct {
	ID        uint
	Day       string
	Start     Clock
	End       Clock
	CourseID  uint
	TeacherID uint
	Room      string
	Active    bool
}

// NewSlot validates raw timetable fields and builds a Slot.
func NewSlot(id uint, day, start, end string, courseID, teacherID uint, room string, active bool) (Slot, error) {
	normalizedDay, ok := NormalizeDay(day)
	if !ok {
		return Slot{}, Invalid("day", "unknown day %q", day)
	}
	startClock, err := ParseClock(start)
	if err != nil {
		return Slot{}, Invalid("start_time", "%s", err.Error())
	}
	endClock, err := ParseClock(end)
	if err != nil {
		return Slot{}, Invalid("end_time", "%s", err.Error())
	}
	if startClock >= endClock {
		return Slot{}, Invalid("end_time", "end time %s must be after start time %s", endClock, startClock)
	}
	if courseID == 0 {
		return Slot{}, Invalid("course_id", "course is required")
	}
	if teacherID == 0 {
		return Slot{}, Invalid("teacher_id", "teacher is required")
	}
	return Slot{
		ID:        id,
		Day:       normalizedDay,
		Start:     startClock,
		End:       endClock,
		CourseID:  courseID,
		TeacherID: teacherID,
		Room:      strings.TrimSpace(room),
		Active:    active,
	}, nil
}

// Overlaps reports whether two slots share time on the same day. Intervals are
// half-open, so touching boundaries do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	return s.Day == other.Day && s.Start < other.End && s.End > other.Start
}

// Clashes reports whether two overlapping slots share a teacher, or share both
// course and room.
func (s Slot) Clashes(other Slot) bool {
	if !s.Overlaps(other) {
		return false
	}
	if s.TeacherID == other.TeacherID {
		return true
	}
	return s.CourseID == other.CourseID && strings.EqualFold(s.Room, other.Room)
}

// CheckTimetableOverlap rejects a candidate that clashes with any other active slot.
// The candidate's own ID is skipped so updates do not conflict with themselves.
func CheckTimetableOverlap(candidate Slot, existing []Slot) error {
	if !candidate.Active {
		return nil
	}
	for _, other := range existing {
		if !other.Active {
			continue
		}
		if candidate.ID != 0 && other.ID == candidate.ID {
			continue
		}
		if !candidate.Clashes(other) {
			continue
		}

		reason := "course and room"
		if candidate.TeacherID == other.TeacherID {
			reason = "teacher"
		}
		conflict := Conflict(RuleTimetableOverlap, "%s %s-%s overlaps entry %d (%s-%s) on the same %s",
			candidate.Day, candidate.Start, candidate.End, other.ID, other.Start, other.End, reason)
		conflict.ConflictingID = other.ID
		return conflict
	}
	return nil
}
