package school

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("record not found")
)

type (
	Repository interface {
		// departments
		CreateDepartment(ctx context.Context, dep Department) (Department, error)
		QueryDepartments(ctx context.Context) ([]Department, error)
		GetDepartmentByID(ctx context.Context, id int) (Department, error)
		// DeleteDepartment fails with a conflict while teachers or students
		// still reference the department.
		DeleteDepartment(ctx context.Context, id int) error

		// teachers
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		QueryTeachers(ctx context.Context) ([]Teacher, error)
		GetTeacherByID(ctx context.Context, id int) (Teacher, error)
		GetTeacherByUserID(ctx context.Context, userID int) (Teacher, error)
		UpdateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, id int) error

		// students
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id int) (Student, error)
		GetStudentByUserID(ctx context.Context, userID int) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// DeleteStudent cascades the student's marks.
		DeleteStudent(ctx context.Context, id int) error

		// subjects
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id int) (Subject, error)

		// marks
		CreateMark(ctx context.Context, m Mark) (Mark, error)
		// QueryMarksByStudent returns marks with Subject populated,
		// optionally filtered by exact exam name.
		QueryMarksByStudent(ctx context.Context, studentID int, examName string) ([]Mark, error)

		// stats
		CountDepartments(ctx context.Context) (int, error)
		CountTeachers(ctx context.Context) (int, error)
		CountStudents(ctx context.Context) (int, error)
		CountSubjects(ctx context.Context) (int, error)
	}

	// BulkError reports a single failed row of a bulk operation.
	BulkError struct {
		Row   int    `json:"row"`
		Error string `json:"error"`
	}

	Service interface {
		// admin surface
		Departments(ctx context.Context) ([]Department, error)
		CreateDepartment(ctx context.Context, nd NewDepartment) (Department, error)
		DeleteDepartment(ctx context.Context, id int) error
		Teachers(ctx context.Context) ([]Teacher, error)
		// CreateTeacher surfaces the generated initial password exactly once.
		CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, TeacherCredentials, error)
		UpdateTeacher(ctx context.Context, id int, ut UpdateTeacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, id int) error
		AdminStats(ctx context.Context) (AdminStats, error)

		// teacher surface
		TeacherByUserID(ctx context.Context, userID int) (Teacher, error)
		Students(ctx context.Context) ([]Student, error)
		CreateStudent(ctx context.Context, creator Teacher, ns NewStudent) (Student, StudentCredentials, error)
		GenerateStudents(ctx context.Context, creator Teacher, gs GenerateStudents) ([]StudentCredentials, []BulkError, error)
		BulkCreateStudents(ctx context.Context, creator Teacher, rows []NewStudent) ([]StudentCredentials, []BulkError, error)
		UpdateStudent(ctx context.Context, id int, us UpdateStudent) (Student, error)
		DeleteStudent(ctx context.Context, id int) error
		Subjects(ctx context.Context) ([]Subject, error)
		CreateSubject(ctx context.Context, nsub NewSubject) (Subject, error)
		AddMark(ctx context.Context, nm NewMark) (Mark, error)
		AddMarks(ctx context.Context, nms []NewMark) (int, []BulkError, error)
		TeacherStats(ctx context.Context) (TeacherStats, error)

		// student surface
		StudentByUserID(ctx context.Context, userID int) (Student, error)
		UpdateProfile(ctx context.Context, studentID int, up UpdateProfile) (Student, error)
		StudentMarks(ctx context.Context, studentID int, examName string) ([]Mark, error)
		StudentSummary(ctx context.Context, studentID int) (Summary, error)
	}

	service struct {
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{repo: repo, usrSvc: usrSvc, mailSvc: mailSvc}
}

// Departments

func (svc *service) Departments(ctx context.Context) ([]Department, error) {
	return svc.repo.QueryDepartments(ctx)
}

func (svc *service) CreateDepartment(ctx context.Context, nd NewDepartment) (Department, error) {
	return svc.repo.CreateDepartment(ctx, Department{Name: nd.Name, CreatedAt: user.NowFunc().UTC()})
}

func (svc *service) DeleteDepartment(ctx context.Context, id int) error {
	return svc.repo.DeleteDepartment(ctx, id)
}

// Teachers

func (svc *service) Teachers(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx)
}

func (svc *service) TeacherByUserID(ctx context.Context, userID int) (Teacher, error) {
	return svc.repo.GetTeacherByUserID(ctx, userID)
}

func (svc *service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, TeacherCredentials, error) {
	if _, err := svc.repo.GetDepartmentByID(ctx, nt.DepartmentID.Int()); err != nil {
		if err == ErrNotFound {
			return Teacher{}, TeacherCredentials{}, core.NewValidationError(nil,
				core.FieldError{Field: "departmentId", Error: "unknown department"})
		}
		return Teacher{}, TeacherCredentials{}, err
	}

	pwd, err := user.GeneratePassword()
	if err != nil {
		return Teacher{}, TeacherCredentials{}, err
	}
	usr, err := svc.usrSvc.Create(ctx, user.NewIdentity{
		Role:     user.RoleTeacher,
		Username: nt.TeacherID,
		Name:     nt.Name,
		Email:    nt.Email,
		Phone:    nt.Phone,
		Password: pwd,
	})
	if err != nil {
		return Teacher{}, TeacherCredentials{}, err
	}

	now := user.NowFunc().UTC()
	t, err := svc.repo.CreateTeacher(ctx, Teacher{
		UserID:       usr.ID,
		TeacherID:    nt.TeacherID,
		Name:         nt.Name,
		Email:        nt.Email,
		Phone:        nt.Phone,
		DepartmentID: nt.DepartmentID.Int(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// roll back the orphan identity; creation is not transactional
		// across the two repos.
		_ = svc.usrSvc.Delete(ctx, usr.ID)
		return Teacher{}, TeacherCredentials{}, err
	}

	user.SendCredentialsMail(svc.mailSvc, usr, pwd)
	return t, TeacherCredentials{TeacherID: t.TeacherID, InitialPassword: pwd}, nil
}

func (svc *service) UpdateTeacher(ctx context.Context, id int, ut UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	if ut.Name != "" {
		t.Name = ut.Name
	}
	if ut.Email != "" {
		t.Email = ut.Email
	}
	if ut.Phone.Valid {
		t.Phone = ut.Phone
	}
	if ut.DepartmentID != 0 {
		if _, err = svc.repo.GetDepartmentByID(ctx, ut.DepartmentID.Int()); err != nil {
			if err == ErrNotFound {
				return Teacher{}, core.NewValidationError(nil,
					core.FieldError{Field: "departmentId", Error: "unknown department"})
			}
			return Teacher{}, err
		}
		t.DepartmentID = ut.DepartmentID.Int()
	}
	t.UpdatedAt = user.NowFunc().UTC()

	if t, err = svc.repo.UpdateTeacher(ctx, t); err != nil {
		return Teacher{}, err
	}
	// keep the login identity's contact info in sync
	if _, err = svc.usrSvc.Update(ctx, t.UserID, user.UpdateIdentity{Name: t.Name, Email: t.Email, Phone: t.Phone}); err != nil {
		return Teacher{}, err
	}
	return t, nil
}

func (svc *service) DeleteTeacher(ctx context.Context, id int) error {
	t, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteTeacher(ctx, id); err != nil {
		return err
	}
	return svc.usrSvc.Delete(ctx, t.UserID)
}

func (svc *service) AdminStats(ctx context.Context) (AdminStats, error) {
	var stats AdminStats
	var err error
	if stats.Teachers, err = svc.repo.CountTeachers(ctx); err != nil {
		return AdminStats{}, err
	}
	if stats.Students, err = svc.repo.CountStudents(ctx); err != nil {
		return AdminStats{}, err
	}
	if stats.Departments, err = svc.repo.CountDepartments(ctx); err != nil {
		return AdminStats{}, err
	}
	return stats, nil
}

// Students

func (svc *service) Students(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

func (svc *service) StudentByUserID(ctx context.Context, userID int) (Student, error) {
	return svc.repo.GetStudentByUserID(ctx, userID)
}

func (svc *service) CreateStudent(ctx context.Context, creator Teacher, ns NewStudent) (Student, StudentCredentials, error) {
	pwd := ns.Password
	if pwd == "" {
		var err error
		if pwd, err = user.GeneratePassword(); err != nil {
			return Student{}, StudentCredentials{}, err
		}
	}

	depID := ns.DepartmentID.Int()
	if depID == 0 {
		depID = creator.DepartmentID
	}

	usr, err := svc.usrSvc.Create(ctx, user.NewIdentity{
		Role:     user.RoleStudent,
		Username: ns.StudentID,
		Name:     ns.Name,
		Email:    ns.Email,
		Phone:    ns.Phone,
		Password: pwd,
	})
	if err != nil {
		return Student{}, StudentCredentials{}, err
	}

	now := user.NowFunc().UTC()
	s, err := svc.repo.CreateStudent(ctx, Student{
		UserID:       usr.ID,
		StudentID:    ns.StudentID,
		Name:         ns.Name,
		Email:        ns.Email,
		Phone:        ns.Phone,
		Semester:     ns.Semester.Int(),
		Year:         ns.Year.Int(),
		Batch:        ns.Batch,
		DepartmentID: depID,
		CreatedBy:    creator.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		_ = svc.usrSvc.Delete(ctx, usr.ID)
		return Student{}, StudentCredentials{}, err
	}

	user.SendCredentialsMail(svc.mailSvc, usr, pwd)
	creds := StudentCredentials{StudentID: s.StudentID, FullName: s.Name, Email: s.Email, Password: pwd}
	return s, creds, nil
}

func (svc *service) GenerateStudents(ctx context.Context, creator Teacher, gs GenerateStudents) ([]StudentCredentials, []BulkError, error) {
	start, _ := strconv.Atoi(gs.StartID)
	end, _ := strconv.Atoi(gs.EndID)
	width := len(gs.StartID) // zero padding is preserved from the start ID

	namePrefix := gs.NamePrefix
	if namePrefix == "" {
		namePrefix = "Student"
	}

	creds := make([]StudentCredentials, 0, end-start+1)
	var bulkErrs []BulkError
	for n := start; n <= end; n++ {
		suffix := fmt.Sprintf("%0*d", width, n)
		studentID := gs.IDPrefix + suffix

		pwd := gs.SamePassword
		if gs.PasswordMode == PasswordModeRandom {
			pwd = "" // CreateStudent generates one per student
		}
		ns := NewStudent{
			StudentID: studentID,
			Name:      namePrefix + " " + suffix,
			Email:     studentID + "@" + core.Conf.StudentEmailDomain,
			Semester:  gs.Semester,
			Year:      gs.Year,
			Batch:     gs.Batch,
			Password:  pwd,
		}
		if err := ns.Validate(); err != nil {
			bulkErrs = append(bulkErrs, BulkError{Row: n, Error: err.Error()})
			continue
		}
		_, c, err := svc.CreateStudent(ctx, creator, ns)
		if err != nil {
			bulkErrs = append(bulkErrs, BulkError{Row: n, Error: err.Error()})
			continue
		}
		creds = append(creds, c)
	}
	return creds, bulkErrs, nil
}

func (svc *service) BulkCreateStudents(ctx context.Context, creator Teacher, rows []NewStudent) ([]StudentCredentials, []BulkError, error) {
	creds := make([]StudentCredentials, 0, len(rows))
	var bulkErrs []BulkError
	for i := range rows {
		ns := rows[i]
		if err := ns.Validate(); err != nil {
			bulkErrs = append(bulkErrs, BulkError{Row: i + 1, Error: err.Error()})
			continue
		}
		_, c, err := svc.CreateStudent(ctx, creator, ns)
		if err != nil {
			bulkErrs = append(bulkErrs, BulkError{Row: i + 1, Error: err.Error()})
			continue
		}
		creds = append(creds, c)
	}
	return creds, bulkErrs, nil
}

func (svc *service) UpdateStudent(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	s, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if us.Name != "" {
		s.Name = us.Name
	}
	if us.Email != "" {
		s.Email = us.Email
	}
	if us.Phone.Valid {
		s.Phone = us.Phone
	}
	if us.Semester != 0 {
		s.Semester = us.Semester.Int()
	}
	if us.Year != 0 {
		s.Year = us.Year.Int()
	}
	if us.Batch != "" {
		s.Batch = us.Batch
	}
	if us.DepartmentID != 0 {
		if _, err = svc.repo.GetDepartmentByID(ctx, us.DepartmentID.Int()); err != nil {
			if err == ErrNotFound {
				return Student{}, core.NewValidationError(nil,
					core.FieldError{Field: "departmentId", Error: "unknown department"})
			}
			return Student{}, err
		}
		s.DepartmentID = us.DepartmentID.Int()
	}
	s.UpdatedAt = user.NowFunc().UTC()

	if s, err = svc.repo.UpdateStudent(ctx, s); err != nil {
		return Student{}, err
	}
	if _, err = svc.usrSvc.Update(ctx, s.UserID, user.UpdateIdentity{Name: s.Name, Email: s.Email, Phone: s.Phone}); err != nil {
		return Student{}, err
	}
	return s, nil
}

func (svc *service) DeleteStudent(ctx context.Context, id int) error {
	s, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteStudent(ctx, id); err != nil {
		return err
	}
	return svc.usrSvc.Delete(ctx, s.UserID)
}

func (svc *service) UpdateProfile(ctx context.Context, studentID int, up UpdateProfile) (Student, error) {
	s, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return Student{}, err
	}
	if up.Email != "" {
		s.Email = up.Email
	}
	if up.Phone.Valid {
		s.Phone = up.Phone
	}
	s.UpdatedAt = user.NowFunc().UTC()

	if s, err = svc.repo.UpdateStudent(ctx, s); err != nil {
		return Student{}, err
	}
	if _, err = svc.usrSvc.Update(ctx, s.UserID, user.UpdateIdentity{Email: s.Email, Phone: s.Phone}); err != nil {
		return Student{}, err
	}
	return s, nil
}

// Subjects

func (svc *service) Subjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *service) CreateSubject(ctx context.Context, nsub NewSubject) (Subject, error) {
	return svc.repo.CreateSubject(ctx, Subject{Code: nsub.Code, Name: nsub.Name})
}

// Marks

func (svc *service) AddMark(ctx context.Context, nm NewMark) (Mark, error) {
	if _, err := svc.repo.GetStudentByID(ctx, nm.StudentID.Int()); err != nil {
		return Mark{}, err
	}
	if _, err := svc.repo.GetSubjectByID(ctx, nm.SubjectID.Int()); err != nil {
		return Mark{}, err
	}
	return svc.repo.CreateMark(ctx, Mark{
		StudentID:     nm.StudentID.Int(),
		SubjectID:     nm.SubjectID.Int(),
		ExamName:      nm.ExamName,
		MarksObtained: nm.MarksObtained.Int(),
		MaxMarks:      nm.MaxMarks.Int(),
	})
}

func (svc *service) AddMarks(ctx context.Context, nms []NewMark) (int, []BulkError, error) {
	var created int
	var bulkErrs []BulkError
	for i := range nms {
		nm := nms[i]
		if err := nm.Validate(); err != nil {
			bulkErrs = append(bulkErrs, BulkError{Row: i + 1, Error: err.Error()})
			continue
		}
		if _, err := svc.AddMark(ctx, nm); err != nil {
			bulkErrs = append(bulkErrs, BulkError{Row: i + 1, Error: err.Error()})
			continue
		}
		created++
	}
	return created, bulkErrs, nil
}

func (svc *service) TeacherStats(ctx context.Context) (TeacherStats, error) {
	var stats TeacherStats
	var err error
	if stats.TotalStudents, err = svc.repo.CountStudents(ctx); err != nil {
		return TeacherStats{}, err
	}
	if stats.TotalSubjects, err = svc.repo.CountSubjects(ctx); err != nil {
		return TeacherStats{}, err
	}
	return stats, nil
}

func (svc *service) StudentMarks(ctx context.Context, studentID int, examName string) ([]Mark, error) {
	return svc.repo.QueryMarksByStudent(ctx, studentID, core.CleanString(examName))
}

func (svc *service) StudentSummary(ctx context.Context, studentID int) (Summary, error) {
	marks, err := svc.repo.QueryMarksByStudent(ctx, studentID, "")
	if err != nil {
		return Summary{}, err
	}
	return Summarize(marks), nil
}
