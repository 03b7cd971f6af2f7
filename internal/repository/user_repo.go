package repository

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// Relations carries the relational ids the visibility policy needs for one user.
type Relations struct {
	EnrolledCourseIDs   []uint
	TeachingCourseIDs   []uint
	EnrolledSemesterIDs []uint
	TeachingSemesterIDs []uint
}

// UserRepository persists users and resolves their course relations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Relations(ctx context.Context, userID uint) (Relations, error)
	SelectSemester(ctx context.Context, userID, semesterID uint) (bool, error)
	SetActive(ctx context.Context, userID uint, active bool) error
	SetCurrentSemester(ctx context.Context, userID uint, semesterID *uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) Relations(ctx context.Context, userID uint) (Relations, error) {
	var rel Relations
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Enrollment{}).
		Where("student_id = ?", userID).
		Order("course_id").
		Pluck("course_id", &rel.EnrolledCourseIDs).Error; err != nil {
		return Relations{}, err
	}

	var assigned, owned []uint
	if err := db.Model(&models.TeachingAssignment{}).
		Where("teacher_id = ?", userID).
		Pluck("course_id", &assigned).Error; err != nil {
		return Relations{}, err
	}
	// Courses whose teacher_id points at the user count as taught even
	// without an explicit teaching row.
	if err := db.Model(&models.Course{}).
		Where("teacher_id = ?", userID).
		Pluck("id", &owned).Error; err != nil {
		return Relations{}, err
	}
	rel.TeachingCourseIDs = mergeIDs(assigned, owned)

	var err error
	if rel.EnrolledSemesterIDs, err = r.semestersOf(ctx, rel.EnrolledCourseIDs); err != nil {
		return Relations{}, err
	}
	if rel.TeachingSemesterIDs, err = r.semestersOf(ctx, rel.TeachingCourseIDs); err != nil {
		return Relations{}, err
	}
	return rel, nil
}

func (r *userRepository) semestersOf(ctx context.Context, courseIDs []uint) ([]uint, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Distinct("semester_id").
		Where("id IN ?", courseIDs).
		Order("semester_id").
		Pluck("semester_id", &ids).Error
	return ids, err
}

// SelectSemester sets the user's current semester only when none is set yet.
// The returned flag reports whether the row was updated.
func (r *userRepository) SelectSemester(ctx context.Context, userID, semesterID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND current_semester_id IS NULL", userID).
		Update("current_semester_id", semesterID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetCurrentSemester overwrites the user's current semester regardless of an
// earlier selection. A nil semesterID clears it.
func (r *userRepository) SetCurrentSemester(ctx context.Context, userID uint, semesterID *uint) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("current_semester_id", semesterID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetActive toggles the account status. Inactive users fail identity resolution.
func (r *userRepository) SetActive(ctx context.Context, userID uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func mergeIDs(sets ...[]uint) []uint {
	seen := make(map[uint]struct{})
	var out []uint
	for _, set := range sets {
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
