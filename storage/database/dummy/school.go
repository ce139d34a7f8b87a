package dummydb

import (
	"context"
	"sort"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/school"
)

type schoolRepository struct {
	department *departmentTable
	teacher    *teacherTable
	student    *studentTable
	subject    *subjectTable
	mark       *markTable
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{
		department: db.department,
		teacher:    db.teacher,
		student:    db.student,
		subject:    db.subject,
		mark:       db.mark,
	}
}

// Departments

func (repo *schoolRepository) CreateDepartment(ctx context.Context, dep school.Department) (school.Department, error) {
	repo.department.Lock()
	defer repo.department.Unlock()

	for _, d := range repo.department.table {
		if d.Name == dep.Name {
			return school.Department{}, core.NewConflictError("a department with this name already exists")
		}
	}

	repo.department.pk++
	dep.ID = repo.department.pk
	repo.department.table[dep.ID] = &dep
	return dep, nil
}

func (repo *schoolRepository) QueryDepartments(ctx context.Context) ([]school.Department, error) {
	repo.department.RLock()
	defer repo.department.RUnlock()

	deps := make([]school.Department, 0, len(repo.department.table))
	for _, d := range repo.department.table {
		deps = append(deps, *d)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].ID < deps[j].ID })
	return deps, nil
}

func (repo *schoolRepository) GetDepartmentByID(ctx context.Context, id int) (school.Department, error) {
	repo.department.RLock()
	defer repo.department.RUnlock()

	if d, ok := repo.department.table[id]; ok {
		return *d, nil
	}
	return school.Department{}, school.ErrNotFound
}

func (repo *schoolRepository) DeleteDepartment(ctx context.Context, id int) error {
	repo.department.Lock()
	defer repo.department.Unlock()

	if _, ok := repo.department.table[id]; !ok {
		return school.ErrNotFound
	}

	repo.teacher.RLock()
	for _, t := range repo.teacher.table {
		if t.DepartmentID == id {
			repo.teacher.RUnlock()
			return core.NewConflictError("department still has teachers")
		}
	}
	repo.teacher.RUnlock()

	repo.student.RLock()
	for _, s := range repo.student.table {
		if s.DepartmentID == id {
			repo.student.RUnlock()
			return core.NewConflictError("department still has students")
		}
	}
	repo.student.RUnlock()

	delete(repo.department.table, id)
	return nil
}

// Teachers

func (repo *schoolRepository) CreateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	repo.teacher.Lock()
	defer repo.teacher.Unlock()

	for _, existing := range repo.teacher.table {
		if existing.TeacherID == t.TeacherID {
			return school.Teacher{}, core.NewConflictError("a teacher with this ID already exists")
		}
	}

	repo.teacher.pk++
	t.ID = repo.teacher.pk
	repo.teacher.table[t.ID] = &t
	return t, nil
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context) ([]school.Teacher, error) {
	repo.teacher.RLock()
	defer repo.teacher.RUnlock()

	teachers := make([]school.Teacher, 0, len(repo.teacher.table))
	for _, t := range repo.teacher.table {
		teachers = append(teachers, *t)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })
	return teachers, nil
}

func (repo *schoolRepository) GetTeacherByID(ctx context.Context, id int) (school.Teacher, error) {
	repo.teacher.RLock()
	defer repo.teacher.RUnlock()

	if t, ok := repo.teacher.table[id]; ok {
		return *t, nil
	}
	return school.Teacher{}, school.ErrNotFound
}

func (repo *schoolRepository) GetTeacherByUserID(ctx context.Context, userID int) (school.Teacher, error) {
	repo.teacher.RLock()
	defer repo.teacher.RUnlock()

	for _, t := range repo.teacher.table {
		if t.UserID == userID {
			return *t, nil
		}
	}
	return school.Teacher{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	repo.teacher.Lock()
	defer repo.teacher.Unlock()

	if _, ok := repo.teacher.table[t.ID]; !ok {
		return school.Teacher{}, school.ErrNotFound
	}
	repo.teacher.table[t.ID] = &t
	return t, nil
}

func (repo *schoolRepository) DeleteTeacher(ctx context.Context, id int) error {
	repo.teacher.Lock()
	defer repo.teacher.Unlock()

	if _, ok := repo.teacher.table[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.teacher.table, id)
	return nil
}

// Students

func (repo *schoolRepository) CreateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	repo.student.Lock()
	defer repo.student.Unlock()

	for _, existing := range repo.student.table {
		if existing.StudentID == s.StudentID {
			return school.Student{}, core.NewConflictError("a student with this ID already exists")
		}
	}

	repo.student.pk++
	s.ID = repo.student.pk
	repo.student.table[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context) ([]school.Student, error) {
	repo.student.RLock()
	defer repo.student.RUnlock()

	students := make([]school.Student, 0, len(repo.student.table))
	for _, s := range repo.student.table {
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *schoolRepository) GetStudentByID(ctx context.Context, id int) (school.Student, error) {
	repo.student.RLock()
	defer repo.student.RUnlock()

	if s, ok := repo.student.table[id]; ok {
		return *s, nil
	}
	return school.Student{}, school.ErrNotFound
}

func (repo *schoolRepository) GetStudentByUserID(ctx context.Context, userID int) (school.Student, error) {
	repo.student.RLock()
	defer repo.student.RUnlock()

	for _, s := range repo.student.table {
		if s.UserID == userID {
			return *s, nil
		}
	}
	return school.Student{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	repo.student.Lock()
	defer repo.student.Unlock()

	if _, ok := repo.student.table[s.ID]; !ok {
		return school.Student{}, school.ErrNotFound
	}
	repo.student.table[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) DeleteStudent(ctx context.Context, id int) error {
	repo.student.Lock()
	defer repo.student.Unlock()

	if _, ok := repo.student.table[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.student.table, id)

	// cascade marks
	repo.mark.Lock()
	defer repo.mark.Unlock()
	for mid, m := range repo.mark.table {
		if m.StudentID == id {
			delete(repo.mark.table, mid)
		}
	}
	return nil
}

// Subjects

func (repo *schoolRepository) CreateSubject(ctx context.Context, sub school.Subject) (school.Subject, error) {
	repo.subject.Lock()
	defer repo.subject.Unlock()

	for _, existing := range repo.subject.table {
		if existing.Code == sub.Code {
			return school.Subject{}, core.NewConflictError("a subject with this code already exists")
		}
	}

	repo.subject.pk++
	sub.ID = repo.subject.pk
	repo.subject.table[sub.ID] = &sub
	return sub, nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	repo.subject.RLock()
	defer repo.subject.RUnlock()

	subs := make([]school.Subject, 0, len(repo.subject.table))
	for _, s := range repo.subject.table {
		subs = append(subs, *s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (repo *schoolRepository) GetSubjectByID(ctx context.Context, id int) (school.Subject, error) {
	repo.subject.RLock()
	defer repo.subject.RUnlock()

	if s, ok := repo.subject.table[id]; ok {
		return *s, nil
	}
	return school.Subject{}, school.ErrNotFound
}

// Marks

func (repo *schoolRepository) CreateMark(ctx context.Context, m school.Mark) (school.Mark, error) {
	repo.mark.Lock()
	defer repo.mark.Unlock()

	for _, existing := range repo.mark.table {
		if existing.StudentID == m.StudentID && existing.SubjectID == m.SubjectID && existing.ExamName == m.ExamName {
			return school.Mark{}, core.NewConflictError("marks already recorded for this student, subject and exam")
		}
	}

	repo.mark.pk++
	m.ID = repo.mark.pk
	m.Subject = nil
	repo.mark.table[m.ID] = &m
	return m, nil
}

func (repo *schoolRepository) QueryMarksByStudent(ctx context.Context, studentID int, examName string) ([]school.Mark, error) {
	repo.mark.RLock()
	defer repo.mark.RUnlock()

	marks := make([]school.Mark, 0)
	for _, m := range repo.mark.table {
		if m.StudentID != studentID {
			continue
		}
		if examName != "" && m.ExamName != examName {
			continue
		}
		mark := *m
		if sub, err := repo.GetSubjectByID(ctx, m.SubjectID); err == nil {
			mark.Subject = &sub
		}
		marks = append(marks, mark)
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].ID < marks[j].ID })
	return marks, nil
}

// Stats

func (repo *schoolRepository) CountDepartments(ctx context.Context) (int, error) {
	repo.department.RLock()
	defer repo.department.RUnlock()
	return len(repo.department.table), nil
}

func (repo *schoolRepository) CountTeachers(ctx context.Context) (int, error) {
	repo.teacher.RLock()
	defer repo.teacher.RUnlock()
	return len(repo.teacher.table), nil
}

func (repo *schoolRepository) CountStudents(ctx context.Context) (int, error) {
	repo.student.RLock()
	defer repo.student.RUnlock()
	return len(repo.student.table), nil
}

func (repo *schoolRepository) CountSubjects(ctx context.Context) (int, error) {
	repo.subject.RLock()
	defer repo.subject.RUnlock()
	return len(repo.subject.table), nil
}
