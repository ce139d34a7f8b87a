package school

import (
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/kavinkishorej-ui/academia/core"
)

type Department struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"` // UTC
}

type Teacher struct {
	ID           int         `json:"id" db:"id"`
	UserID       int         `json:"-" db:"user_id"`
	TeacherID    string      `json:"teacherId" db:"teacher_id"`
	Name         string      `json:"fullName" db:"name"`
	Email        string      `json:"email" db:"email"`
	Phone        null.String `json:"phone" db:"phone"`
	DepartmentID int         `json:"departmentId" db:"department_id"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"` // UTC
}

type Student struct {
	ID           int         `json:"id" db:"id"`
	UserID       int         `json:"-" db:"user_id"`
	StudentID    string      `json:"studentId" db:"student_id"`
	Name         string      `json:"fullName" db:"name"`
	Email        string      `json:"email" db:"email"`
	Phone        null.String `json:"phone" db:"phone"`
	Semester     int         `json:"semester" db:"semester"`
	Year         int         `json:"year" db:"year"`
	Batch        string      `json:"batch" db:"batch"`
	DepartmentID int         `json:"departmentId" db:"department_id"`
	CreatedBy    int         `json:"-" db:"created_by"`         // teacher id
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"` // UTC
}

type Subject struct {
	ID   int    `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

type Mark struct {
	ID            int    `json:"id" db:"id"`
	StudentID     int    `json:"studentId" db:"student_id"`
	SubjectID     int    `json:"subjectId" db:"subject_id"`
	ExamName      string `json:"examName" db:"exam_name"`
	MarksObtained int    `json:"marks" db:"marks_obtained"`
	MaxMarks      int    `json:"maxMarks" db:"max_marks"`

	// populated on reads, kept nil on writes
	Subject *Subject `json:"subject,omitempty" db:"-"`
}

// Percentage is the single source of the per-mark figure; consumers (grade
// bands, exports) must reuse it instead of re-deriving to avoid rounding drift.
func (m Mark) Percentage() float64 {
	return round2(m.MarksObtained, m.MaxMarks)
}

// Stats

type AdminStats struct {
	Teachers    int `json:"teachers"`
	Students    int `json:"students"`
	Departments int `json:"departments"`
}

type TeacherStats struct {
	TotalStudents int `json:"totalStudents"`
	TotalSubjects int `json:"totalSubjects"`
}

// TeacherCredentials is the one-time handout of a generated teacher login.
// The plaintext password exists only in this value; the store keeps the hash.
type TeacherCredentials struct {
	TeacherID       string `json:"teacherId"`
	InitialPassword string `json:"initialPassword"`
}

type StudentCredentials struct {
	StudentID string `json:"studentId"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Inputs

// FlexInt unmarshals from both JSON numbers and numeric strings; HTML forms
// post numbers as strings.
type FlexInt int

func (fi *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*fi = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*fi = FlexInt(n)
	return nil
}

func (fi FlexInt) Int() int { return int(fi) }

type NewDepartment struct {
	Name string `json:"name" validate:"required"`
}

func (nd *NewDepartment) Validate() error {
	nd.Name = core.CleanString(nd.Name)
	return core.Validate.Struct(nd)
}

type NewTeacher struct {
	TeacherID    string      `json:"teacherId" validate:"required,alphanum_"`
	Name         string      `json:"fullName" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Phone        null.String `json:"phone"`
	DepartmentID FlexInt     `json:"departmentId" validate:"required"`
}

func (nt *NewTeacher) Validate() error {
	nt.TeacherID = core.CleanString(nt.TeacherID, true /* lower */)
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	return core.Validate.Struct(nt)
}

type UpdateTeacher struct {
	Name         string      `json:"fullName"`
	Email        string      `json:"email" validate:"omitempty,email"`
	Phone        null.String `json:"phone"`
	DepartmentID FlexInt     `json:"departmentId"`
}

func (ut *UpdateTeacher) Validate() error {
	ut.Name = core.CleanString(ut.Name)
	ut.Email = core.CleanString(ut.Email, true /* lower */)
	return core.Validate.Struct(ut)
}

type NewStudent struct {
	StudentID    string      `json:"studentId" validate:"required,alphanum_"`
	Name         string      `json:"fullName" validate:"required"`
	Email        string      `json:"email" validate:"required,email"`
	Phone        null.String `json:"phone"`
	Semester     FlexInt     `json:"semester" validate:"required,min=1,max=12"`
	Year         FlexInt     `json:"year" validate:"required"`
	Batch        string      `json:"batch" validate:"required"`
	DepartmentID FlexInt     `json:"departmentId"`
	// Password is optional; a random one is generated when empty.
	Password string `json:"password"`
}

func (ns *NewStudent) Validate() error {
	ns.StudentID = core.CleanString(ns.StudentID, true /* lower */)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Batch = core.CleanString(ns.Batch)
	return core.Validate.Struct(ns)
}

const (
	PasswordModeRandom = "random"
	PasswordModeSame   = "same"
)

// GenerateStudents creates a contiguous range of student identities in one
// go: IDs <prefix><startId>..<prefix><endId>, emails derived from the ID.
type GenerateStudents struct {
	NamePrefix   string  `json:"namePrefix"`
	IDPrefix     string  `json:"idPrefix"`
	StartID      string  `json:"startId" validate:"required,numeric"`
	EndID        string  `json:"endId" validate:"required,numeric"`
	PasswordMode string  `json:"passwordMode" validate:"required,oneof=random same"`
	SamePassword string  `json:"samePassword"`
	Semester     FlexInt `json:"semester" validate:"required,min=1,max=12"`
	Year         FlexInt `json:"year" validate:"required"`
	Batch        string  `json:"batch" validate:"required"`
}

func (gs *GenerateStudents) Validate() error {
	gs.NamePrefix = core.CleanString(gs.NamePrefix)
	gs.IDPrefix = core.CleanString(gs.IDPrefix, true /* lower */)
	gs.StartID = core.CleanString(gs.StartID)
	gs.EndID = core.CleanString(gs.EndID)
	gs.Batch = core.CleanString(gs.Batch)
	if err := core.Validate.Struct(gs); err != nil {
		return err
	}

	start, err1 := strconv.Atoi(gs.StartID)
	end, err2 := strconv.Atoi(gs.EndID)
	if err1 != nil || err2 != nil || start > end {
		return core.NewValidationError(nil, core.FieldError{Field: "startId", Error: "invalid ID range"})
	}
	if end-start+1 > MaxGeneratedStudents {
		return core.NewValidationError(nil, core.FieldError{Field: "endId", Error: "ID range too large"})
	}
	if gs.PasswordMode == PasswordModeSame && gs.SamePassword == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "samePassword", Error: "this field is required"})
	}
	return nil
}

// MaxGeneratedStudents bounds a single generate request.
const MaxGeneratedStudents = 500

type UpdateStudent struct {
	Name         string      `json:"fullName"`
	Email        string      `json:"email" validate:"omitempty,email"`
	Phone        null.String `json:"phone"`
	Semester     FlexInt     `json:"semester" validate:"omitempty,min=1,max=12"`
	Year         FlexInt     `json:"year"`
	Batch        string      `json:"batch"`
	DepartmentID FlexInt     `json:"departmentId"`
}

func (us *UpdateStudent) Validate() error {
	us.Name = core.CleanString(us.Name)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.Batch = core.CleanString(us.Batch)
	return core.Validate.Struct(us)
}

// UpdateProfile is the student self-service subset: contact fields only.
type UpdateProfile struct {
	Email string      `json:"email" validate:"omitempty,email"`
	Phone null.String `json:"phone"`
}

func (up *UpdateProfile) Validate() error {
	up.Email = core.CleanString(up.Email, true /* lower */)
	return core.Validate.Struct(up)
}

type NewSubject struct {
	Code string `json:"code" validate:"required,alphanum_"`
	Name string `json:"name" validate:"required"`
}

func (ns *NewSubject) Validate() error {
	ns.Code = core.CleanString(ns.Code, true /* lower */)
	ns.Name = core.CleanString(ns.Name)
	return core.Validate.Struct(ns)
}

type NewMark struct {
	StudentID     FlexInt `json:"studentId" validate:"required"`
	SubjectID     FlexInt `json:"subjectId" validate:"required"`
	ExamName      string  `json:"examName" validate:"required"`
	MarksObtained FlexInt `json:"marks" validate:"min=0"`
	MaxMarks      FlexInt `json:"maxMarks" validate:"required,min=1"`
}

func (nm *NewMark) Validate() error {
	nm.ExamName = core.CleanString(nm.ExamName)
	if err := core.Validate.Struct(nm); err != nil {
		return err
	}
	if nm.MarksObtained > nm.MaxMarks {
		return core.NewValidationError(nil, core.FieldError{Field: "marks", Error: "marks cannot exceed max marks"})
	}
	return nil
}
