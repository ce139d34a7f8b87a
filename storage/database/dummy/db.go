// Package dummydb provides in-memory repositories backed by mutex-guarded
// maps. It mirrors the store's constraint behavior (uniqueness, reference
// protection, cascades) so services and handlers can be exercised without
// Postgres.
package dummydb

import (
	"sync"

	"github.com/kavinkishorej-ui/academia/core/school"
	"github.com/kavinkishorej-ui/academia/core/session"
	"github.com/kavinkishorej-ui/academia/core/user"
)

type (
	DB struct {
		user       *userTable
		session    *sessionTable
		department *departmentTable
		teacher    *teacherTable
		student    *studentTable
		subject    *subjectTable
		mark       *markTable
	}

	userTable struct {
		sync.RWMutex
		pk    int
		table map[int]*user.User
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session
	}

	departmentTable struct {
		sync.RWMutex
		pk    int
		table map[int]*school.Department
	}

	teacherTable struct {
		sync.RWMutex
		pk    int
		table map[int]*school.Teacher
	}

	studentTable struct {
		sync.RWMutex
		pk    int
		table map[int]*school.Student
	}

	subjectTable struct {
		sync.RWMutex
		pk    int
		table map[int]*school.Subject
	}

	markTable struct {
		sync.RWMutex
		pk    int
		table map[int]*school.Mark
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[int]*user.User)},
		session:    &sessionTable{table: make(map[string]*session.Session)},
		department: &departmentTable{table: make(map[int]*school.Department)},
		teacher:    &teacherTable{table: make(map[int]*school.Teacher)},
		student:    &studentTable{table: make(map[int]*school.Student)},
		subject:    &subjectTable{table: make(map[int]*school.Subject)},
		mark:       &markTable{table: make(map[int]*school.Mark)},
	}
	return db, nil
}
