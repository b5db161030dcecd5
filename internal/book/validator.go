package book

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinISBNLength is the shortest identifier accepted by the facade. No checksum
// is computed; an ISBN is an opaque key.
const MinISBNLength = 10

var validate = validator.New()

// CreateRequest is the input for adding a book by hand.
type CreateRequest struct {
	Title  string `json:"title" validate:"required,min=1"`
	Author string `json:"author" validate:"required,min=1"`
	ISBN   string `json:"isbn" validate:"required,min=10"`
}

// UpdateRequest carries a partial update. Absent fields keep their value.
type UpdateRequest struct {
	Title  *string `json:"title,omitempty" validate:"omitnil,min=1"`
	Author *string `json:"author,omitempty" validate:"omitnil,min=1"`
}

type isbnRequest struct {
	ISBN string `validate:"required,min=10"`
}

// FieldError describes one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violated constraint of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func (r *CreateRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.ISBN = strings.TrimSpace(r.ISBN)
}

func (r *UpdateRequest) normalize() {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
	if r.Author != nil {
		a := strings.TrimSpace(*r.Author)
		r.Author = &a
	}
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", name)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		default:
			message = fmt.Sprintf("%s is invalid", name)
		}
		fields = append(fields, FieldError{Field: name, Message: message})
	}
	return &ValidationError{Fields: fields}
}
