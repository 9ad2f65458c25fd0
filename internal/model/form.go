package model

// Field names one input of the create form.
type Field int

const (
	FieldName Field = iota
	FieldDescription
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldDescription:
		return "description"
	}
	return "unknown"
}

// FieldUpdate sets a single form field.
type FieldUpdate struct {
	Field Field
	Value string
}

// FormState is the transient create form. It is never persisted.
type FormState struct {
	Name        string
	Description string
}

// With returns a copy of f with u applied. Unknown fields leave f unchanged.
func (f FormState) With(u FieldUpdate) FormState {
	switch u.Field {
	case FieldName:
		f.Name = u.Value
	case FieldDescription:
		f.Description = u.Value
	}
	return f
}

// Complete reports whether both fields are non-empty.
func (f FormState) Complete() bool {
	return f.Name != "" && f.Description != ""
}
