package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/validation"
)

type testForm struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"notblank,max=20"`
	RollNo string `json:"rollNo" validate:"omitempty,rollno"`
	Year   int    `json:"currentYear" validate:"omitempty,min=1,max=6"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testForm{Email: "ann@example.edu", Name: "Ann", RollNo: "CS-21/004", Year: 3})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		form      testForm
		wantField string
		wantMsg   string
	}{
		{
			name:      "blank name",
			form:      testForm{Email: "ann@example.edu", Name: "   "},
			wantField: "name",
			wantMsg:   "name is required",
		},
		{
			name:      "invalid email",
			form:      testForm{Email: "not-an-email", Name: "Ann"},
			wantField: "email",
			wantMsg:   "email must be a valid email address",
		},
		{
			name:      "name too long",
			form:      testForm{Email: "ann@example.edu", Name: "Annabelle Maximiliana Long"},
			wantField: "name",
			wantMsg:   "name must not exceed 20 characters",
		},
		{
			name:      "bad roll number",
			form:      testForm{Email: "ann@example.edu", Name: "Ann", RollNo: "S 1"},
			wantField: "rollNo",
			wantMsg:   "rollNo must contain only letters, digits, dashes or slashes",
		},
		{
			name:      "year out of range",
			form:      testForm{Email: "ann@example.edu", Name: "Ann", Year: 9},
			wantField: "currentYear",
			wantMsg:   "currentYear must be at most 6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.form)
			require.Error(t, err)

			assert.ErrorIs(t, err, errors.ErrValidation)
			assert.Equal(t, errors.KindValidation, errors.KindOf(err))
			assert.Equal(t, tt.wantMsg, errors.Message(err))
			assert.Contains(t, validation.FieldErrors(err), tt.wantField)
		})
	}
}

func TestValidator_MultipleFieldsListed(t *testing.T) {
	v := validation.New()

	err := v.Validate(testForm{})
	require.Error(t, err)

	fields := validation.FieldErrors(err)
	assert.Len(t, fields, 2)
	assert.Equal(t, "email is required (also check: name)", errors.Message(err))
}

func TestFieldErrors_ForeignError(t *testing.T) {
	assert.Nil(t, validation.FieldErrors(assert.AnError))
}

func TestValidator_AcceptsServiceStudyValues(t *testing.T) {
	v := validation.New()

	reg := domain.Registration{
		Firstname:   "Ann",
		Email:       "ann@example.edu",
		Password:    "secret1",
		Role:        domain.RoleStudent,
		RollNo:      "S1",
		CurrentYear: "1st Year",
		Semester:    "1st Semester",
	}
	assert.NoError(t, v.Validate(reg))

	student := domain.StudentInput{
		Name:        "Ann",
		Email:       "ann@example.edu",
		RollNo:      "S1",
		CurrentYear: "2nd Year",
		Semester:    "3rd Semester",
	}
	assert.NoError(t, v.Validate(student))
}
