package handler_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/policy"
)

const listEnvelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["success", "message", "data", "meta"],
  "properties": {
    "success": {"const": true},
    "message": {"type": "string"},
    "data": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "number", "name", "academic_year", "active", "is_current"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "number": {"type": "integer", "minimum": 1, "maximum": 8},
          "name": {"type": "string"},
          "academic_year": {"type": "string"},
          "active": {"type": "boolean"},
          "is_current": {"type": "boolean"}
        }
      }
    },
    "meta": {
      "type": "object",
      "required": ["page", "page_size", "total_items", "total_pages"],
      "properties": {
        "page": {"type": "integer", "minimum": 1},
        "page_size": {"type": "integer", "minimum": 1},
        "total_items": {"type": "integer", "minimum": 0},
        "total_pages": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

const conflictEnvelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["success", "message", "details"],
  "properties": {
    "success": {"const": false},
    "message": {"type": "string", "minLength": 1},
    "data": false,
    "details": {
      "type": "object",
      "required": ["rule", "message"],
      "properties": {
        "rule": {"type": "string", "minLength": 1},
        "message": {"type": "string"},
        "conflicting_id": {"type": "integer"}
      }
    }
  }
}`

func compileSchema(t *testing.T, name, source string) *jsonschema.Schema {
	t.Helper()
	compiler := jsonschema.NewCompiler()
	url := "mem://" + name
	require.NoError(t, compiler.AddResource(url, strings.NewReader(source)))
	schema, err := compiler.Compile(url)
	require.NoError(t, err)
	return schema
}

func envelopeDocument(t *testing.T, env envelope) interface{} {
	t.Helper()
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	for key, value := range doc {
		if value == nil {
			delete(doc, key)
		}
	}
	return doc
}

func TestSemesterListContract(t *testing.T) {
	a := newTestApp(t)
	a.semester(1)
	a.semester(2)
	_, token := a.account(policy.RoleStudent, "Sam")

	status, env := a.do(http.MethodGet, "/api/v1/semesters?page_size=1", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, compileSchema(t, "semester_list.json", listEnvelopeSchema).Validate(envelopeDocument(t, env)))

	var meta dto.PaginationMeta
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	require.Equal(t, 2, meta.TotalPages)
}

func TestConflictContract(t *testing.T) {
	a := newTestApp(t)
	_, token := a.account(policy.RoleAdmin, "Root")
	req := dto.SemesterCreateRequest{Number: 3, Name: "Semester 3", AcademicYear: "2025/2026"}

	status, _ := a.do(http.MethodPost, "/api/v1/semesters", token, req)
	require.Equal(t, fiber.StatusCreated, status)

	status, env := a.do(http.MethodPost, "/api/v1/semesters", token, req)
	require.Equal(t, fiber.StatusConflict, status)
	require.NoError(t, compileSchema(t, "conflict.json", conflictEnvelopeSchema).Validate(envelopeDocument(t, env)))
}
