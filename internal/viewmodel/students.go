package viewmodel

import (
	"context"
	"strings"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/validation"
)

// StudentAPI is the part of the library service the students page uses.
type StudentAPI interface {
	ListStudents(ctx context.Context) ([]domain.Student, error)
	CreateStudent(ctx context.Context, in domain.StudentInput) (domain.Student, error)
	UpdateStudent(ctx context.Context, id int64, in domain.StudentInput) (domain.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
}

// Students is the students page state for one session.
type Students struct {
	*List[domain.Student]

	api       StudentAPI
	validator *validation.Validator
	session   *session.Session
}

// NewStudents creates the students view model for s.
func NewStudents(api StudentAPI, v *validation.Validator, s *session.Session) *Students {
	return &Students{
		List:      newList(func(st domain.Student) int64 { return st.ID }),
		api:       api,
		validator: v,
		session:   s,
	}
}

// Load fetches every student.
func (s *Students) Load(ctx context.Context) error {
	return s.load(session.WithSession(ctx, s.session), s.api.ListStudents)
}

// Reload is Load.
func (s *Students) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Create validates in and adds the student.
func (s *Students) Create(ctx context.Context, in domain.StudentInput) (domain.Student, error) {
	in = trimStudent(in)
	if err := s.validator.Validate(in); err != nil {
		return domain.Student{}, err
	}

	done, err := s.begin(0, actionCreate)
	if err != nil {
		return domain.Student{}, err
	}
	defer done()

	student, err := s.api.CreateStudent(session.WithSession(ctx, s.session), in)
	if err != nil {
		s.fail(err)
		return domain.Student{}, err
	}

	if student.ID == 0 {
		_ = s.Reload(ctx)
		return student, nil
	}
	s.prepend(student)
	return student, nil
}

// Update edits student id and patches the local row once accepted.
func (s *Students) Update(ctx context.Context, id int64, in domain.StudentInput) error {
	in = trimStudent(in)
	if err := s.validator.Validate(in); err != nil {
		return err
	}

	done, err := s.begin(id, actionUpdate)
	if err != nil {
		return err
	}
	defer done()

	echoed, err := s.api.UpdateStudent(session.WithSession(ctx, s.session), id, in)
	if err != nil {
		s.fail(err)
		return err
	}

	s.replace(id, func(cur domain.Student) domain.Student {
		if echoed.ID == id {
			return echoed
		}
		return in.Apply(cur)
	})
	return nil
}

// Delete removes student id once the service confirms. confirmed must be true.
func (s *Students) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return errors.ErrConfirmationRequired
	}

	done, err := s.begin(id, actionDelete)
	if err != nil {
		return err
	}
	defer done()

	if err := s.api.DeleteStudent(session.WithSession(ctx, s.session), id); err != nil {
		s.fail(err)
		return err
	}
	s.remove(id)
	return nil
}

func trimStudent(in domain.StudentInput) domain.StudentInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Department = strings.TrimSpace(in.Department)
	in.RollNo = strings.TrimSpace(in.RollNo)
	return in
}
