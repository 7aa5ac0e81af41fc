package domain

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up form. RollNo is required for students.
type Registration struct {
	Firstname   string `json:"firstname" validate:"notblank,max=60"`
	Lastname    string `json:"lastname" validate:"max=60"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=128"`
	Role        Role   `json:"role" validate:"oneof=STUDENT LIBRARIAN"`
	CurrentYear string `json:"currentYear,omitempty" validate:"max=40"`
	Semester    string `json:"semester,omitempty" validate:"max=40"`
	Department  string `json:"department,omitempty" validate:"max=80"`
	RollNo      string `json:"rollNo,omitempty" validate:"required_if=Role STUDENT,max=40"`
}

// AuthResponse is what the service returns from /login and /register.
type AuthResponse struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	RollNo string `json:"rollNo,omitempty"`
}
