package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kavinkishorej-ui/academia/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) insertReturningID(ctx context.Context, query string, arg interface{}, id *int) error {
	rows, err := sqlx.NamedQueryContext(ctx, repo.db, query, arg)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		if err = rows.Scan(id); err != nil {
			return errors.Wrap(err, "scanning id")
		}
	}
	return rows.Err()
}

// Departments

func (repo *schoolRepository) CreateDepartment(ctx context.Context, dep school.Department) (school.Department, error) {
	query := `INSERT INTO department (name, created_at) VALUES (:name, :created_at) RETURNING id`
	if err := repo.insertReturningID(ctx, query, dep, &dep.ID); err != nil {
		return school.Department{}, translateError(err, "a department with this name already exists")
	}
	return dep, nil
}

func (repo *schoolRepository) QueryDepartments(ctx context.Context) ([]school.Department, error) {
	deps := make([]school.Department, 0)
	err := repo.db.SelectContext(ctx, &deps, `SELECT * FROM department ORDER BY id`)
	return deps, err
}

func (repo *schoolRepository) GetDepartmentByID(ctx context.Context, id int) (school.Department, error) {
	var dep school.Department
	err := repo.db.GetContext(ctx, &dep, `SELECT * FROM department WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return school.Department{}, school.ErrNotFound
	}
	return dep, err
}

func (repo *schoolRepository) DeleteDepartment(ctx context.Context, id int) error {
	// teacher/student FKs RESTRICT; a referenced department surfaces as a conflict
	res, err := repo.db.ExecContext(ctx, `DELETE FROM department WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "department still has teachers or students")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// Teachers

func (repo *schoolRepository) CreateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	query := `
		INSERT INTO teacher (user_id, teacher_id, name, email, phone, department_id, created_at, updated_at)
		VALUES (:user_id, :teacher_id, :name, :email, :phone, :department_id, :created_at, :updated_at)
		RETURNING id`
	if err := repo.insertReturningID(ctx, query, t, &t.ID); err != nil {
		return school.Teacher{}, translateError(err, "a teacher with this ID already exists")
	}
	return t, nil
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context) ([]school.Teacher, error) {
	teachers := make([]school.Teacher, 0)
	err := repo.db.SelectContext(ctx, &teachers, `SELECT * FROM teacher ORDER BY id`)
	return teachers, err
}

func (repo *schoolRepository) GetTeacherByID(ctx context.Context, id int) (school.Teacher, error) {
	var t school.Teacher
	err := repo.db.GetContext(ctx, &t, `SELECT * FROM teacher WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return school.Teacher{}, school.ErrNotFound
	}
	return t, err
}

func (repo *schoolRepository) GetTeacherByUserID(ctx context.Context, userID int) (school.Teacher, error) {
	var t school.Teacher
	err := repo.db.GetContext(ctx, &t, `SELECT * FROM teacher WHERE user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return school.Teacher{}, school.ErrNotFound
	}
	return t, err
}

func (repo *schoolRepository) UpdateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	query := `
		UPDATE teacher
		SET name          = :name,
		    email         = :email,
		    phone         = :phone,
		    department_id = :department_id,
		    updated_at    = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, query, t)
	if err != nil {
		return school.Teacher{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.Teacher{}, school.ErrNotFound
	}
	return t, nil
}

func (repo *schoolRepository) DeleteTeacher(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM teacher WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// Students

func (repo *schoolRepository) CreateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	query := `
		INSERT INTO student (user_id, student_id, name, email, phone, semester, year, batch,
		                     department_id, created_by, created_at, updated_at)
		VALUES (:user_id, :student_id, :name, :email, :phone, :semester, :year, :batch,
		        :department_id, :created_by, :created_at, :updated_at)
		RETURNING id`
	if err := repo.insertReturningID(ctx, query, s, &s.ID); err != nil {
		return school.Student{}, translateError(err, "a student with this ID already exists")
	}
	return s, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context) ([]school.Student, error) {
	students := make([]school.Student, 0)
	err := repo.db.SelectContext(ctx, &students, `SELECT * FROM student ORDER BY id`)
	return students, err
}

func (repo *schoolRepository) GetStudentByID(ctx context.Context, id int) (school.Student, error) {
	var s school.Student
	err := repo.db.GetContext(ctx, &s, `SELECT * FROM student WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return school.Student{}, school.ErrNotFound
	}
	return s, err
}

func (repo *schoolRepository) GetStudentByUserID(ctx context.Context, userID int) (school.Student, error) {
	var s school.Student
	err := repo.db.GetContext(ctx, &s, `SELECT * FROM student WHERE user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return school.Student{}, school.ErrNotFound
	}
	return s, err
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	query := `
		UPDATE student
		SET name          = :name,
		    email         = :email,
		    phone         = :phone,
		    semester      = :semester,
		    year          = :year,
		    batch         = :batch,
		    department_id = :department_id,
		    updated_at    = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, query, s)
	if err != nil {
		return school.Student{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.Student{}, school.ErrNotFound
	}
	return s, nil
}

func (repo *schoolRepository) DeleteStudent(ctx context.Context, id int) error {
	// marks cascade via FK
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

// Subjects

func (repo *schoolRepository) CreateSubject(ctx context.Context, sub school.Subject) (school.Subject, error) {
	query := `INSERT INTO subject (code, name) VALUES (:code, :name) RETURNING id`
	if err := repo.insertReturningID(ctx, query, sub, &sub.ID); err != nil {
		return school.Subject{}, translateError(err, "a subject with this code already exists")
	}
	return sub, nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	subs := make([]school.Subject, 0)
	err := repo.db.SelectContext(ctx, &subs, `SELECT * FROM subject ORDER BY id`)
	return subs, err
}

func (repo *schoolRepository) GetSubjectByID(ctx context.Context, id int) (school.Subject, error) {
	var sub school.Subject
	err := repo.db.GetContext(ctx, &sub, `SELECT * FROM subject WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return school.Subject{}, school.ErrNotFound
	}
	return sub, err
}

// Marks

func (repo *schoolRepository) CreateMark(ctx context.Context, m school.Mark) (school.Mark, error) {
	query := `
		INSERT INTO mark (student_id, subject_id, exam_name, marks_obtained, max_marks)
		VALUES (:student_id, :subject_id, :exam_name, :marks_obtained, :max_marks)
		RETURNING id`
	if err := repo.insertReturningID(ctx, query, m, &m.ID); err != nil {
		return school.Mark{}, translateError(err, "marks already recorded for this student, subject and exam")
	}
	m.Subject = nil
	return m, nil
}

type markRow struct {
	school.Mark
	SubjectCode string `db:"subject_code"`
	SubjectName string `db:"subject_name"`
}

func (repo *schoolRepository) QueryMarksByStudent(ctx context.Context, studentID int, examName string) ([]school.Mark, error) {
	query := `
		SELECT m.id, m.student_id, m.subject_id, m.exam_name, m.marks_obtained, m.max_marks,
		       s.code AS subject_code, s.name AS subject_name
		FROM mark m
		JOIN subject s ON s.id = m.subject_id
		WHERE m.student_id = $1`
	args := []interface{}{studentID}
	if examName != "" {
		query += ` AND m.exam_name = $2`
		args = append(args, examName)
	}
	query += ` ORDER BY m.id`

	rows := make([]markRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	marks := make([]school.Mark, 0, len(rows))
	for _, r := range rows {
		m := r.Mark
		m.Subject = &school.Subject{ID: m.SubjectID, Code: r.SubjectCode, Name: r.SubjectName}
		marks = append(marks, m)
	}
	return marks, nil
}

// Stats

func (repo *schoolRepository) count(ctx context.Context, table string) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table)
	return n, err
}

func (repo *schoolRepository) CountDepartments(ctx context.Context) (int, error) {
	return repo.count(ctx, "department")
}

func (repo *schoolRepository) CountTeachers(ctx context.Context) (int, error) {
	return repo.count(ctx, "teacher")
}

func (repo *schoolRepository) CountStudents(ctx context.Context) (int, error) {
	return repo.count(ctx, "student")
}

func (repo *schoolRepository) CountSubjects(ctx context.Context) (int, error) {
	return repo.count(ctx, "subject")
}
