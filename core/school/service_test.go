package school_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/school"
	"github.com/kavinkishorej-ui/academia/core/user"
	emailsvc "github.com/kavinkishorej-ui/academia/services/email"
	dummydb "github.com/kavinkishorej-ui/academia/storage/database/dummy"
)

type fixture struct {
	svc    school.Service
	usrSvc user.Service
	repo   school.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	emailsvc.ClearSentMessages()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewServiceMock(dummydb.NewUserRepository(db), mailSvc)
	repo := dummydb.NewSchoolRepository(db)
	return &fixture{
		svc:    school.NewService(repo, usrSvc, mailSvc),
		usrSvc: usrSvc,
		repo:   repo,
	}
}

func createDepartment(t *testing.T, f *fixture, name string) school.Department {
	t.Helper()
	dep, err := f.svc.CreateDepartment(context.Background(), school.NewDepartment{Name: name})
	if err != nil {
		t.Fatalf("CreateDepartment(%q) failed: %v", name, err)
	}
	return dep
}

func createTeacher(t *testing.T, f *fixture, id string, depID int) (school.Teacher, school.TeacherCredentials) {
	t.Helper()
	tch, creds, err := f.svc.CreateTeacher(context.Background(), school.NewTeacher{
		TeacherID:    id,
		Name:         "Prof Plum",
		Email:        id + "@test.test",
		DepartmentID: school.FlexInt(depID),
	})
	if err != nil {
		t.Fatalf("CreateTeacher(%q) failed: %v", id, err)
	}
	return tch, creds
}

func Test_service_Departments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dep := createDepartment(t, f, "Computer Science")

	// duplicate name conflicts and leaves the first row intact
	_, err := f.svc.CreateDepartment(ctx, school.NewDepartment{Name: "Computer Science"})
	assert.True(t, core.IsConflict(err), "duplicate department error = %v, want conflict", err)

	deps, err := f.svc.Departments(ctx)
	assert.NoError(t, err)
	if assert.Len(t, deps, 1) {
		assert.Equal(t, dep.ID, deps[0].ID)
		assert.Equal(t, "Computer Science", deps[0].Name)
	}

	// a referenced department cannot be deleted
	createTeacher(t, f, "t100", dep.ID)
	err = f.svc.DeleteDepartment(ctx, dep.ID)
	assert.True(t, core.IsConflict(err), "delete referenced department error = %v, want conflict", err)

	// unknown department
	assert.Equal(t, school.ErrNotFound, f.svc.DeleteDepartment(ctx, 999))
}

func Test_service_CreateTeacher(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dep := createDepartment(t, f, "Mathematics")

	// unknown department is a field error, not a 500
	_, _, err := f.svc.CreateTeacher(ctx, school.NewTeacher{
		TeacherID:    "t200",
		Name:         "Prof Plum",
		Email:        "t200@test.test",
		DepartmentID: 999,
	})
	vErr, ok := err.(*core.ValidationError)
	if assert.True(t, ok, "want *core.ValidationError, got %v", err) {
		assert.Equal(t, "departmentId", vErr.Fields[0].Field)
	}

	tch, creds, err := f.svc.CreateTeacher(ctx, school.NewTeacher{
		TeacherID:    "t200",
		Name:         "Prof Plum",
		Email:        "t200@test.test",
		DepartmentID: school.FlexInt(dep.ID),
	})
	assert.NoError(t, err)
	assert.Equal(t, "t200", creds.TeacherID)
	assert.NotEmpty(t, creds.InitialPassword)

	// the credentials mail went out with the plaintext
	msgs := emailsvc.GetSentMessages()
	if assert.Len(t, msgs, 1) {
		assert.Contains(t, msgs[0].TextContent, creds.InitialPassword)
	}

	// the login identity exists, is role-scoped and must rotate on first login
	usr, err := f.usrSvc.Authenticate(ctx, user.RoleTeacher, "t200", creds.InitialPassword)
	assert.NoError(t, err)
	assert.True(t, usr.MustChangePassword)
	assert.Equal(t, tch.UserID, usr.ID)

	// duplicate teacher ID conflicts and rolls the orphan identity back
	_, _, err = f.svc.CreateTeacher(ctx, school.NewTeacher{
		TeacherID:    "t200",
		Name:         "Prof Peach",
		Email:        "other@test.test",
		DepartmentID: school.FlexInt(dep.ID),
	})
	assert.True(t, core.IsConflict(err), "duplicate teacher error = %v, want conflict", err)
}

func Test_service_CreateStudent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dep := createDepartment(t, f, "Physics")
	tch, _ := createTeacher(t, f, "t300", dep.ID)

	s, creds, err := f.svc.CreateStudent(ctx, tch, school.NewStudent{
		StudentID: "cs2021001",
		Name:      "John Doe",
		Email:     "john@test.test",
		Semester:  3,
		Year:      2021,
		Batch:     "2021-2025",
	})
	assert.NoError(t, err)
	assert.Equal(t, "cs2021001", creds.StudentID)
	assert.NotEmpty(t, creds.Password)

	// department defaults to the creator's, creator is recorded
	assert.Equal(t, dep.ID, s.DepartmentID)
	assert.Equal(t, tch.ID, s.CreatedBy)

	// the generated password authenticates
	_, err = f.usrSvc.Authenticate(ctx, user.RoleStudent, "cs2021001", creds.Password)
	assert.NoError(t, err)

	// duplicate student ID conflicts
	_, _, err = f.svc.CreateStudent(ctx, tch, school.NewStudent{
		StudentID: "cs2021001",
		Name:      "Jane Doe",
		Email:     "jane@test.test",
		Semester:  3,
		Year:      2021,
		Batch:     "2021-2025",
	})
	assert.True(t, core.IsConflict(err), "duplicate student error = %v, want conflict", err)
}

func Test_service_GenerateStudents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dep := createDepartment(t, f, "Chemistry")
	tch, _ := createTeacher(t, f, "t400", dep.ID)

	gs := school.GenerateStudents{
		NamePrefix:   "Chem Student",
		IDPrefix:     "ch",
		StartID:      "001",
		EndID:        "005",
		PasswordMode: school.PasswordModeRandom,
		Semester:     1,
		Year:         2024,
		Batch:        "2024-2028",
	}
	if err := gs.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	creds, bulkErrs, err := f.svc.GenerateStudents(ctx, tch, gs)
	assert.NoError(t, err)
	assert.Empty(t, bulkErrs)
	if assert.Len(t, creds, 5) {
		// zero padding is preserved from the start ID
		assert.Equal(t, "ch001", creds[0].StudentID)
		assert.Equal(t, "ch005", creds[4].StudentID)
		assert.Equal(t, "Chem Student 001", creds[0].FullName)
		assert.Equal(t, "ch001@"+core.Conf.StudentEmailDomain, creds[0].Email)
		// random mode: every student gets their own password
		assert.NotEqual(t, creds[0].Password, creds[1].Password)
	}

	students, err := f.svc.Students(ctx)
	assert.NoError(t, err)
	assert.Len(t, students, 5)

	// regenerating the same range reports per-row conflicts
	creds, bulkErrs, err = f.svc.GenerateStudents(ctx, tch, gs)
	assert.NoError(t, err)
	assert.Empty(t, creds)
	assert.Len(t, bulkErrs, 5)
}

func Test_service_GenerateStudents_samePassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dep := createDepartment(t, f, "Biology")
	tch, _ := createTeacher(t, f, "t500", dep.ID)

	gs := school.GenerateStudents{
		IDPrefix:     "bio",
		StartID:      "10",
		EndID:        "12",
		PasswordMode: school.PasswordModeSame,
		SamePassword: "Shared!Pass9",
		Semester:     2,
		Year:         2024,
		Batch:        "2024-2028",
	}
	creds, bulkErrs, err := f.svc.GenerateStudents(ctx, tch, gs)
	assert.NoError(t, err)
	assert.Empty(t, bulkErrs)
	if assert.Len(t, creds, 3) {
		for _, c := range creds {
			assert.Equal(t, "Shared!Pass9", c.Password)
		}
		// default name prefix kicks in
		assert.True(t, strings.HasPrefix(creds[0].FullName, "Student "))
	}
}

func Test_service_Marks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dep := createDepartment(t, f, "Computer Science")
	tch, _ := createTeacher(t, f, "t600", dep.ID)
	stu, _, err := f.svc.CreateStudent(ctx, tch, school.NewStudent{
		StudentID: "cs600",
		Name:      "John Doe",
		Email:     "cs600@test.test",
		Semester:  1,
		Year:      2024,
		Batch:     "2024-2028",
	})
	assert.NoError(t, err)
	sub, err := f.svc.CreateSubject(ctx, school.NewSubject{Code: "cs101", Name: "Programming"})
	assert.NoError(t, err)

	// duplicate subject code conflicts
	_, err = f.svc.CreateSubject(ctx, school.NewSubject{Code: "cs101", Name: "Other"})
	assert.True(t, core.IsConflict(err), "duplicate subject error = %v, want conflict", err)

	// unknown student / subject
	_, err = f.svc.AddMark(ctx, school.NewMark{StudentID: 999, SubjectID: school.FlexInt(sub.ID), ExamName: "Midterm", MarksObtained: 20, MaxMarks: 30})
	assert.Equal(t, school.ErrNotFound, err)
	_, err = f.svc.AddMark(ctx, school.NewMark{StudentID: school.FlexInt(stu.ID), SubjectID: 999, ExamName: "Midterm", MarksObtained: 20, MaxMarks: 30})
	assert.Equal(t, school.ErrNotFound, err)

	m, err := f.svc.AddMark(ctx, school.NewMark{StudentID: school.FlexInt(stu.ID), SubjectID: school.FlexInt(sub.ID), ExamName: "Midterm", MarksObtained: 26, MaxMarks: 30})
	assert.NoError(t, err)
	assert.Equal(t, 26, m.MarksObtained)

	// one row per (student, subject, exam)
	_, err = f.svc.AddMark(ctx, school.NewMark{StudentID: school.FlexInt(stu.ID), SubjectID: school.FlexInt(sub.ID), ExamName: "Midterm", MarksObtained: 28, MaxMarks: 30})
	assert.True(t, core.IsConflict(err), "duplicate mark error = %v, want conflict", err)

	// reads populate the subject
	marks, err := f.svc.StudentMarks(ctx, stu.ID, "")
	assert.NoError(t, err)
	if assert.Len(t, marks, 1) && assert.NotNil(t, marks[0].Subject) {
		assert.Equal(t, "cs101", marks[0].Subject.Code)
	}

	// exam filter is exact
	marks, err = f.svc.StudentMarks(ctx, stu.ID, "Final")
	assert.NoError(t, err)
	assert.Empty(t, marks)

	summary, err := f.svc.StudentSummary(ctx, stu.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.TotalExams)
	assert.Equal(t, 86.67, summary.OverallPercentage)
}

func Test_service_Stats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dep := createDepartment(t, f, "Arts")
	tch, _ := createTeacher(t, f, "t700", dep.ID)
	_, _, err := f.svc.CreateStudent(ctx, tch, school.NewStudent{
		StudentID: "a700",
		Name:      "John Doe",
		Email:     "a700@test.test",
		Semester:  1,
		Year:      2024,
		Batch:     "2024-2028",
	})
	assert.NoError(t, err)
	_, err = f.svc.CreateSubject(ctx, school.NewSubject{Code: "art101", Name: "Drawing"})
	assert.NoError(t, err)

	adminStats, err := f.svc.AdminStats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, school.AdminStats{Teachers: 1, Students: 1, Departments: 1}, adminStats)

	teacherStats, err := f.svc.TeacherStats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, school.TeacherStats{TotalStudents: 1, TotalSubjects: 1}, teacherStats)
}

func Test_service_DeleteStudent_cascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dep := createDepartment(t, f, "History")
	tch, _ := createTeacher(t, f, "t800", dep.ID)
	stu, _, err := f.svc.CreateStudent(ctx, tch, school.NewStudent{
		StudentID: "h800",
		Name:      "John Doe",
		Email:     "h800@test.test",
		Semester:  1,
		Year:      2024,
		Batch:     "2024-2028",
	})
	assert.NoError(t, err)
	sub, err := f.svc.CreateSubject(ctx, school.NewSubject{Code: "his101", Name: "Ancient History"})
	assert.NoError(t, err)
	_, err = f.svc.AddMark(ctx, school.NewMark{StudentID: school.FlexInt(stu.ID), SubjectID: school.FlexInt(sub.ID), ExamName: "Midterm", MarksObtained: 20, MaxMarks: 30})
	assert.NoError(t, err)

	assert.NoError(t, f.svc.DeleteStudent(ctx, stu.ID))

	// marks and the login identity are gone with the student
	marks, err := f.repo.QueryMarksByStudent(ctx, stu.ID, "")
	assert.NoError(t, err)
	assert.Empty(t, marks)
	_, err = f.usrSvc.GetByRoleAndUsername(ctx, user.RoleStudent, "h800")
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_studentPasswordPolicy(t *testing.T) {
	ns := school.NewStudent{
		StudentID: "s100",
		Name:      "Pat Doe",
		Email:     "s100@test.test",
		Semester:  1,
		Year:      2021,
		Batch:     "2021-2025",
		Password:  "abc",
	}
	err := ns.Validate()
	vErrs, ok := err.(validator.ValidationErrors)
	if assert.True(t, ok, "want validator.ValidationErrors, got %v", err) {
		assert.Equal(t, "password", vErrs[0].Field())
	}

	ns.Password = "S0und!pass"
	assert.NoError(t, ns.Validate())

	gs := school.GenerateStudents{
		StartID:      "001",
		EndID:        "003",
		PasswordMode: school.PasswordModeSame,
		SamePassword: "12345678",
		Semester:     1,
		Year:         2021,
		Batch:        "2021-2025",
	}
	err = gs.Validate()
	vErrs, ok = err.(validator.ValidationErrors)
	if assert.True(t, ok, "want validator.ValidationErrors, got %v", err) {
		assert.Equal(t, "samePassword", vErrs[0].Field())
	}

	gs.SamePassword = "Sh4red!pass"
	assert.NoError(t, gs.Validate())
}
