package rules

import (
	"math"
	"strings"
)

// SemesterNumberMin and SemesterNumberMax bound semester numbers.
const (
	SemesterNumberMin = 1
	SemesterNumberMax = 8
)

// CheckSemesterNumber validates the range of a semester number and that no
// other semester (by id) already carries it.
func CheckSemesterNumber(number int, selfID uint, taken map[int]uint) error {
	if number < SemesterNumberMin || number > SemesterNumberMax {
		return Invalid("number", "semester number must be between %d and %d", SemesterNumberMin, SemesterNumberMax)
	}
	if owner, ok := taken[number]; ok && owner != selfID {
		conflict := Conflict(RuleSemesterNumber, "semester number %d already exists", number)
		conflict.ConflictingID = owner
		return conflict
	}
	return nil
}

// CourseKey identifies a course for the code uniqueness rule.
type CourseKey struct {
	ID         uint
	Code       string
	SemesterID uint
}

// NormalizeCourseCode trims and upper-cases a course code.
func NormalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckCourseCodeUnique rejects a candidate sharing (code, semester) with another course.
func CheckCourseCodeUnique(candidate CourseKey, existing []CourseKey) error {
	for _, other := range existing {
		if other.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if other.SemesterID == candidate.SemesterID && strings.EqualFold(other.Code, candidate.Code) {
			conflict := Conflict(RuleCourseCodeUnique, "course code %s already exists in this semester", NormalizeCourseCode(candidate.Code))
			conflict.ConflictingID = other.ID
			return conflict
		}
	}
	return nil
}

// CheckEnrollment validates a student joining a course.
func CheckEnrollment(alreadyEnrolled bool, enrolled, maxEnrollment int) error {
	if alreadyEnrolled {
		return Conflict(RuleAlreadyEnrolled, "student is already enrolled in this course")
	}
	if maxEnrollment > 0 && enrolled >= maxEnrollment {
		return Conflict(RuleEnrollmentCapacity, "course is full (%d/%d)", enrolled, maxEnrollment)
	}
	return nil
}

// CheckSingleSubmission rejects a second submission by the same student.
// submitted lists the students who already submitted the assignment.
func CheckSingleSubmission(studentID uint, submitted []uint) error {
	for _, id := range submitted {
		if id == studentID {
			return Conflict(RuleSingleSubmission, "a submission for this assignment already exists")
		}
	}
	return nil
}

// CheckGradeRange validates 0 <= grade <= maxPoints.
func CheckGradeRange(grade float64, maxPoints int) error {
	if math.IsNaN(grade) || math.IsInf(grade, 0) {
		return Invalid("grade", "grade must be a number")
	}
	if grade < 0 || grade > float64(maxPoints) {
		return Invalid("grade", "grade must be between 0 and %d", maxPoints)
	}
	return nil
}

// CheckMaxPoints validates a new point ceiling against the highest grade
// already stored for the assignment. A nil highest means nothing is graded yet.
func CheckMaxPoints(maxPoints int, highest *float64) error {
	if maxPoints < 1 {
		return Invalid("max_points", "max points must be at least 1")
	}
	if highest != nil && *highest > float64(maxPoints) {
		return Invalid("max_points", "max points cannot drop below the highest stored grade (%g)", *highest)
	}
	return nil
}

// LetterGrade maps a 0..100 course score to a letter.
func LetterGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
