package web

import (
	"net/http"
	"strconv"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/nav"
	"github.com/libraryhub/libraryhub-web/internal/viewmodel"
)

// studentsContent is the data of the students page.
type studentsContent struct {
	Cards  []StudentCard
	Loaded bool
	Form   domain.StudentInput
}

// studentForm reads the add/edit student form.
func studentForm(r *http.Request) domain.StudentInput {
	return domain.StudentInput{
		Name:        r.PostFormValue("name"),
		Email:       r.PostFormValue("email"),
		Department:  r.PostFormValue("department"),
		RollNo:      r.PostFormValue("rollNo"),
		CurrentYear: r.PostFormValue("currentYear"),
		Semester:    r.PostFormValue("semester"),
	}
}

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)

	err := ws.Students.Load(r.Context())
	if s.expired(w, r, err, nav.PathStudents) {
		return
	}
	s.logFailure(r, "load students", err)

	editing, _ := strconv.ParseInt(r.URL.Query().Get("edit"), 10, 64)
	s.renderStudents(w, r, http.StatusOK, ws, domain.StudentInput{}, rowEdit[domain.StudentInput]{ID: editing}, err)
}

func (s *Server) renderStudents(w http.ResponseWriter, r *http.Request, status int, ws *viewmodel.Workspace, form domain.StudentInput, edit rowEdit[domain.StudentInput], err error) {
	p := s.newPage(w, r, "Students", nav.PathStudents)
	p.setError(err)

	state := ws.Students.State()
	cards := make([]StudentCard, 0, len(state.Items))
	for _, st := range state.Items {
		if st.ID == edit.ID && edit.Draft != nil {
			st = edit.Draft.Apply(st)
		}
		c := NewStudentCard(st, p.Role, RowState{
			Submitting: ws.Students.Busy(st.ID),
			Editing:    st.ID == edit.ID,
		})
		c.CSRF = p.CSRF
		cards = append(cards, c)
	}

	p.Content = studentsContent{Cards: cards, Loaded: state.Loaded, Form: form}
	s.render(w, r, status, "students", p)
}

func (s *Server) studentFailed(w http.ResponseWriter, r *http.Request, ws *viewmodel.Workspace, op string, form domain.StudentInput, edit rowEdit[domain.StudentInput], err error) {
	if s.expired(w, r, err, nav.PathStudents) {
		return
	}
	s.logFailure(r, op, err)
	if errors.Is(err, errors.ErrConfirmationRequired) {
		err = errors.Validation(msgConfirm)
	}
	s.renderStudents(w, r, statusFor(err), ws, form, edit, err)
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	form := studentForm(r)

	st, err := ws.Students.Create(r.Context(), form)
	if err != nil {
		s.studentFailed(w, r, ws, "create student", form, rowEdit[domain.StudentInput]{}, err)
		return
	}

	s.logger.InfoContext(r.Context(), "student created", "student_id", st.ID)
	s.notify(r, "students")
	s.redirect(w, r, nav.PathStudents, "Student added.")
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, errors.Message(err))
		return
	}

	form := studentForm(r)

	if err := ws.Students.Update(r.Context(), id, form); err != nil {
		s.studentFailed(w, r, ws, "update student", domain.StudentInput{}, rowEdit[domain.StudentInput]{ID: id, Draft: &form}, err)
		return
	}

	s.logger.InfoContext(r.Context(), "student updated", "student_id", id)
	s.notify(r, "students")
	s.redirect(w, r, nav.PathStudents, "Student updated.")
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, errors.Message(err))
		return
	}

	if err := ws.Students.Delete(r.Context(), id, confirmed(r)); err != nil {
		s.studentFailed(w, r, ws, "delete student", domain.StudentInput{}, rowEdit[domain.StudentInput]{}, err)
		return
	}

	s.logger.InfoContext(r.Context(), "student deleted", "student_id", id)
	s.notify(r, "students")
	s.redirect(w, r, nav.PathStudents, "Student deleted.")
}
