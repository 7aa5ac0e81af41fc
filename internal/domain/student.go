package domain

// Student is a registered borrower.
type Student struct {
	ID          int64  `json:"id,omitzero"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Department  string `json:"department,omitempty"`
	RollNo      string `json:"rollNo"`
	CurrentYear string `json:"currentYear,omitempty"`
	Semester    string `json:"semester,omitempty"`
	JoinedDate  Date   `json:"joinedDate,omitzero"`
}

// StudentInput is the add/edit student form.
type StudentInput struct {
	Name        string `json:"name" validate:"notblank,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Department  string `json:"department,omitempty" validate:"max=80"`
	RollNo      string `json:"rollNo" validate:"notblank,rollno,max=40"`
	CurrentYear string `json:"currentYear,omitempty" validate:"max=40"`
	Semester    string `json:"semester,omitempty" validate:"max=40"`
}

// Apply returns s with the editable fields replaced by in.
func (in StudentInput) Apply(s Student) Student {
	s.Name = in.Name
	s.Email = in.Email
	s.Department = in.Department
	s.RollNo = in.RollNo
	s.CurrentYear = in.CurrentYear
	s.Semester = in.Semester
	return s
}

// StudyYears and Semesters are the values the registration form offers.
// Stored records may hold anything the service accepted.
var (
	StudyYears = []string{"1st Year", "2nd Year", "3rd Year", "4th Year"}
	Semesters  = []string{
		"1st Semester", "2nd Semester", "3rd Semester", "4th Semester",
		"5th Semester", "6th Semester", "7th Semester", "8th Semester",
	}
)
