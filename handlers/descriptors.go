package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"studyhub/models"
	"studyhub/store"
)

// Descriptors bind the generic store to each resource table. Scan order must
// match Columns.

var documentDescriptor = store.Descriptor[models.Document]{
	Table:   "documents",
	Columns: []string{"id", "owner", "title", "content", "created_at", "last_modified"},
	Scan: func(row store.Scanner) (models.Document, error) {
		var d models.Document
		// content is nullable jsonb; scan through []byte, which accepts NULL.
		var content []byte
		err := row.Scan(&d.ID, &d.Owner, &d.Title, &content, &d.CreatedAt, &d.LastModified)
		d.Content = content
		return d, err
	},
}

var noteDescriptor = store.Descriptor[models.Note]{
	Table:   "notes",
	Columns: []string{"id", "owner", "title", "content", "created_at"},
	Scan: func(row store.Scanner) (models.Note, error) {
		var n models.Note
		err := row.Scan(&n.ID, &n.Owner, &n.Title, &n.Content, &n.CreatedAt)
		return n, err
	},
}

var subjectDescriptor = store.Descriptor[models.Subject]{
	Table:   "subjects",
	Columns: []string{"id", "owner", "name", "class", "active", "google_classroom_id"},
	Scan: func(row store.Scanner) (models.Subject, error) {
		var s models.Subject
		err := row.Scan(&s.ID, &s.Owner, &s.Name, &s.Class, &s.Active, &s.GoogleClassroomID)
		return s, err
	},
}

var todoDescriptor = store.Descriptor[models.Todo]{
	Table:   "todos",
	Columns: []string{"id", "owner", "title", "completed", "due", "archived", "subject", "parent"},
	Scan: func(row store.Scanner) (models.Todo, error) {
		var t models.Todo
		err := row.Scan(&t.ID, &t.Owner, &t.Title, &t.Completed, &t.Due, &t.Archived, &t.Subject, &t.Parent)
		return t, err
	},
}

var assessmentDescriptor = store.Descriptor[models.Assessment]{
	Table:   "assessments",
	Columns: []string{"id", "owner", "subject", "title", "status", "due", "due_period"},
	Scan: func(row store.Scanner) (models.Assessment, error) {
		var a models.Assessment
		var status int
		var period sql.NullInt32
		err := row.Scan(&a.ID, &a.Owner, &a.Subject, &a.Title, &status, &a.Due, &period)
		if err != nil {
			return a, err
		}
		if a.Status, err = models.AssessmentStatusFromInt(status); err != nil {
			return a, err
		}
		if period.Valid {
			p, err := models.DuePeriodFromInt(int(period.Int32))
			if err != nil {
				return a, err
			}
			a.DuePeriod = &p
		}
		return a, nil
	},
}

// Create payloads. Optional fields fall back to the schema defaults when
// absent; owner is never read from the payload.

func decodeDocumentCreate(r *http.Request) ([]string, []any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, nil, err
	}
	cols, vals := []string{}, []any{}
	for name, raw := range fields {
		switch name {
		case "title":
			title, err := decodeString(raw, "title", 255, true)
			if err != nil {
				return nil, nil, err
			}
			cols, vals = append(cols, "title"), append(vals, title)
		case "content":
			cols, vals = append(cols, "content"), append(vals, nullableJSON(raw))
		default:
			return nil, nil, fmt.Errorf("unknown field %q", name)
		}
	}
	return cols, vals, nil
}

func decodeDocumentPatch(r *http.Request) (map[string]any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	for name, raw := range fields {
		switch name {
		case "title":
			title, err := decodeString(raw, "title", 255, true)
			if err != nil {
				return nil, err
			}
			changes["title"] = title
		case "content":
			changes["content"] = nullableJSON(raw)
		default:
			return nil, fmt.Errorf("unknown field %q", name)
		}
	}
	if len(changes) > 0 {
		changes["last_modified"] = time.Now()
	}
	return changes, nil
}

func decodeNoteCreate(r *http.Request) ([]string, []any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, nil, err
	}
	cols, vals := []string{}, []any{}
	sawTitle := false
	for name, raw := range fields {
		switch name {
		case "title":
			title, err := decodeString(raw, "title", 255, false)
			if err != nil {
				return nil, nil, err
			}
			sawTitle = true
			cols, vals = append(cols, "title"), append(vals, title)
		case "content":
			content, err := decodeString(raw, "content", 1<<20, true)
			if err != nil {
				return nil, nil, err
			}
			cols, vals = append(cols, "content"), append(vals, content)
		default:
			return nil, nil, fmt.Errorf("unknown field %q", name)
		}
	}
	if !sawTitle {
		return nil, nil, fmt.Errorf("title is required")
	}
	return cols, vals, nil
}

func decodeNotePatch(r *http.Request) (map[string]any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	for name, raw := range fields {
		switch name {
		case "title":
			title, err := decodeString(raw, "title", 255, false)
			if err != nil {
				return nil, err
			}
			changes["title"] = title
		case "content":
			content, err := decodeString(raw, "content", 1<<20, true)
			if err != nil {
				return nil, err
			}
			changes["content"] = content
		default:
			return nil, fmt.Errorf("unknown field %q", name)
		}
	}
	return changes, nil
}

func decodeSubjectCreate(r *http.Request) ([]string, []any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, nil, err
	}
	cols, vals := []string{}, []any{}
	sawName := false
	for name, raw := range fields {
		switch name {
		case "name":
			v, err := decodeString(raw, "name", 255, false)
			if err != nil {
				return nil, nil, err
			}
			sawName = true
			cols, vals = append(cols, "name"), append(vals, v)
		case "class":
			v, err := decodeString(raw, "class", 16, true)
			if err != nil {
				return nil, nil, err
			}
			cols, vals = append(cols, "class"), append(vals, v)
		case "active":
			v, err := decodeBool(raw, "active")
			if err != nil {
				return nil, nil, err
			}
			cols, vals = append(cols, "active"), append(vals, v)
		case "google_classroom_id":
			if isNull(raw) {
				cols, vals = append(cols, "google_classroom_id"), append(vals, nil)
				break
			}
			v, err := decodeString(raw, "google_classroom_id", 16, false)
			if err != nil {
				return nil, nil, err
			}
			cols, vals = append(cols, "google_classroom_id"), append(vals, v)
		default:
			return nil, nil, fmt.Errorf("unknown field %q", name)
		}
	}
	if !sawName {
		return nil, nil, fmt.Errorf("name is required")
	}
	return cols, vals, nil
}

func decodeSubjectPatch(r *http.Request) (map[string]any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	for name, raw := range fields {
		switch name {
		case "name":
			v, err := decodeString(raw, "name", 255, false)
			if err != nil {
				return nil, err
			}
			changes["name"] = v
		case "class":
			v, err := decodeString(raw, "class", 16, true)
			if err != nil {
				return nil, err
			}
			changes["class"] = v
		case "active":
			v, err := decodeBool(raw, "active")
			if err != nil {
				return nil, err
			}
			changes["active"] = v
		case "google_classroom_id":
			if isNull(raw) {
				changes["google_classroom_id"] = nil
				break
			}
			v, err := decodeString(raw, "google_classroom_id", 16, false)
			if err != nil {
				return nil, err
			}
			changes["google_classroom_id"] = v
		default:
			return nil, fmt.Errorf("unknown field %q", name)
		}
	}
	return changes, nil
}

func decodeTodoCreate(r *http.Request) ([]string, []any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, nil, err
	}
	cols, vals := []string{}, []any{}
	sawTitle := false
	for name, raw := range fields {
		v, err := decodeTodoField(name, raw)
		if err != nil {
			return nil, nil, err
		}
		if name == "title" {
			sawTitle = true
		}
		cols, vals = append(cols, name), append(vals, v)
	}
	if !sawTitle {
		return nil, nil, fmt.Errorf("title is required")
	}
	return cols, vals, nil
}

func decodeTodoPatch(r *http.Request) (map[string]any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	for name, raw := range fields {
		v, err := decodeTodoField(name, raw)
		if err != nil {
			return nil, err
		}
		changes[name] = v
	}
	return changes, nil
}

// decodeTodoField validates one todo payload field; the field names double as
// column names.
func decodeTodoField(name string, raw json.RawMessage) (any, error) {
	switch name {
	case "title":
		return decodeString(raw, "title", 255, false)
	case "completed":
		return decodeBool(raw, "completed")
	case "archived":
		return decodeBool(raw, "archived")
	case "due":
		if isNull(raw) {
			return nil, nil
		}
		return decodeDate(raw, "due")
	case "subject":
		if isNull(raw) {
			return nil, nil
		}
		return decodeInt(raw, "subject")
	case "parent":
		if isNull(raw) {
			return nil, nil
		}
		return decodeInt(raw, "parent")
	default:
		return nil, fmt.Errorf("unknown field %q", name)
	}
}

func decodeAssessmentCreate(r *http.Request) ([]string, []any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, nil, err
	}
	cols, vals := []string{}, []any{}
	sawTitle := false
	for name, raw := range fields {
		v, err := decodeAssessmentField(name, raw)
		if err != nil {
			return nil, nil, err
		}
		if name == "title" {
			sawTitle = true
		}
		cols, vals = append(cols, name), append(vals, v)
	}
	if !sawTitle {
		return nil, nil, fmt.Errorf("title is required")
	}
	return cols, vals, nil
}

func decodeAssessmentPatch(r *http.Request) (map[string]any, error) {
	fields, err := patchFields(r)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	for name, raw := range fields {
		v, err := decodeAssessmentField(name, raw)
		if err != nil {
			return nil, err
		}
		changes[name] = v
	}
	return changes, nil
}

func decodeAssessmentField(name string, raw json.RawMessage) (any, error) {
	switch name {
	case "title":
		return decodeString(raw, "title", 255, false)
	case "subject":
		if isNull(raw) {
			return nil, nil
		}
		return decodeInt(raw, "subject")
	case "status":
		v, err := decodeInt(raw, "status")
		if err != nil {
			return nil, err
		}
		status, err := models.AssessmentStatusFromInt(v)
		if err != nil {
			return nil, err
		}
		return int(status), nil
	case "due":
		if isNull(raw) {
			return nil, nil
		}
		return decodeDate(raw, "due")
	case "due_period":
		if isNull(raw) {
			return nil, nil
		}
		v, err := decodeInt(raw, "due_period")
		if err != nil {
			return nil, err
		}
		period, err := models.DuePeriodFromInt(v)
		if err != nil {
			return nil, err
		}
		return int(period), nil
	default:
		return nil, fmt.Errorf("unknown field %q", name)
	}
}

// nullableJSON passes raw JSON through to a jsonb column, mapping an explicit
// null to SQL NULL.
func nullableJSON(raw json.RawMessage) any {
	if isNull(raw) {
		return nil
	}
	return []byte(raw)
}
