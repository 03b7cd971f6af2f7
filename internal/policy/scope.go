package policy

import (
	"fmt"
	"strings"
	"time"
)

// Field names a record attribute a scope condition can constrain. Values match
// the storage column names.
type Field string

const (
	FieldActive     Field = "active"
	FieldPublished  Field = "published"
	FieldCourseID   Field = "course_id"
	FieldSemesterID Field = "semester_id"
	FieldTeacherID  Field = "teacher_id"
	FieldAuthorID   Field = "author_id"
	FieldStudentID  Field = "student_id"
	FieldGradedBy   Field = "graded_by"
	FieldExpiryDate Field = "expiry_date"
)

// Record is implemented by entities that can be checked against a Scope in memory.
type Record interface {
	ScopeValue(field Field) (interface{}, bool)
}

// Condition is a single predicate of a Scope.
type Condition interface {
	// SQL renders the condition as a parameterised WHERE fragment.
	SQL() (string, []interface{})
	// Eval evaluates the condition against a record.
	Eval(record Record) bool
}

// Scope is the predicate restricting which records of a kind an identity may see.
// A zero Scope is unrestricted.
type Scope struct {
	Kind       EntityKind
	Empty      bool
	Conditions []Condition
}

// Unrestricted reports whether the scope lets every record through.
func (s Scope) Unrestricted() bool {
	return !s.Empty && len(s.Conditions) == 0
}

// Clause renders the scope as a single WHERE expression. An empty expression
// means no restriction.
func (s Scope) Clause() (string, []interface{}) {
	if s.Empty {
		return "1 = 0", nil
	}

	parts := make([]string, 0, len(s.Conditions))
	args := make([]interface{}, 0, len(s.Conditions))
	for _, condition := range s.Conditions {
		expr, condArgs := condition.SQL()
		parts = append(parts, "("+expr+")")
		args = append(args, condArgs...)
	}

	return strings.Join(parts, " AND "), args
}

// Matches reports whether the record falls inside the scope.
func (s Scope) Matches(record Record) bool {
	if s.Empty {
		return false
	}
	for _, condition := range s.Conditions {
		if !condition.Eval(record) {
			return false
		}
	}
	return true
}

func (s Scope) String() string {
	if s.Empty {
		return fmt.Sprintf("%s:empty", s.Kind)
	}
	expr, _ := s.Clause()
	if expr == "" {
		expr = "*"
	}
	return fmt.Sprintf("%s:%s", s.Kind, expr)
}

type eqCondition struct {
	field Field
	value interface{}
}

// Eq constrains a field to a single value.
func Eq(field Field, value interface{}) Condition {
	return eqCondition{field: field, value: value}
}

func (c eqCondition) SQL() (string, []interface{}) {
	return fmt.Sprintf("%s = ?", c.field), []interface{}{c.value}
}

func (c eqCondition) Eval(record Record) bool {
	actual, ok := record.ScopeValue(c.field)
	if !ok {
		return false
	}
	return sameValue(actual, c.value)
}

type inCondition struct {
	field  Field
	values []uint
}

// In constrains an identifier field to a set. An empty set matches nothing.
func In(field Field, values []uint) Condition {
	return inCondition{field: field, values: append([]uint(nil), values...)}
}

func (c inCondition) SQL() (string, []interface{}) {
	if len(c.values) == 0 {
		return "1 = 0", nil
	}
	return fmt.Sprintf("%s IN ?", c.field), []interface{}{c.values}
}

func (c inCondition) Eval(record Record) bool {
	actual, ok := record.ScopeValue(c.field)
	if !ok {
		return false
	}
	for _, value := range c.values {
		if sameValue(actual, value) {
			return true
		}
	}
	return false
}

type orCondition struct {
	conditions []Condition
}

// Or matches when any of its conditions match.
func Or(conditions ...Condition) Condition {
	return orCondition{conditions: conditions}
}

func (c orCondition) SQL() (string, []interface{}) {
	if len(c.conditions) == 0 {
		return "1 = 0", nil
	}
	parts := make([]string, 0, len(c.conditions))
	var args []interface{}
	for _, condition := range c.conditions {
		expr, condArgs := condition.SQL()
		parts = append(parts, "("+expr+")")
		args = append(args, condArgs...)
	}
	return strings.Join(parts, " OR "), args
}

func (c orCondition) Eval(record Record) bool {
	for _, condition := range c.conditions {
		if condition.Eval(record) {
			return true
		}
	}
	return false
}

type unexpiredCondition struct {
	field Field
	at    time.Time
}

// Unexpired matches records whose expiry field is unset or later than at.
func Unexpired(field Field, at time.Time) Condition {
	return unexpiredCondition{field: field, at: at}
}

func (c unexpiredCondition) SQL() (string, []interface{}) {
	return fmt.Sprintf("%s IS NULL OR %s > ?", c.field, c.field), []interface{}{c.at}
}

func (c unexpiredCondition) Eval(record Record) bool {
	actual, ok := record.ScopeValue(c.field)
	if !ok {
		return false
	}
	switch v := actual.(type) {
	case nil:
		return true
	case *time.Time:
		return v == nil || v.After(c.at)
	case time.Time:
		return v.IsZero() || v.After(c.at)
	default:
		return false
	}
}

func sameValue(actual, expected interface{}) bool {
	if a, ok := toUint(actual); ok {
		b, ok := toUint(expected)
		return ok && a == b
	}
	switch a := actual.(type) {
	case bool:
		b, ok := expected.(bool)
		return ok && a == b
	case string:
		b, ok := expected.(string)
		return ok && a == b
	}
	return false
}

func toUint(value interface{}) (uint, bool) {
	switch v := value.(type) {
	case uint:
		return v, true
	case *uint:
		if v == nil {
			return 0, false
		}
		return *v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	}
	return 0, false
}
