// Package inmemdb implements the core repositories in memory.
// It enforces the same unique and reference constraints as the SQL schema.
package inmemdb

import (
	"context"
	"sync"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/attendance"
	"github.com/shulehub/shule/core/grading"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

type (
	DB struct {
		sync.RWMutex
		txMu sync.Mutex
		data *tables
	}

	tables struct {
		pkCount     int
		users       map[string]user.User
		departments map[int]school.Department
		teachers    map[int]school.Teacher
		courses     map[int]school.Course
		students    map[int]school.Student
		enrollments map[int]map[int]bool // student ID -> course IDs
		attendance  map[int]attendance.Attendance
		exams       map[int]grading.Exam
		grades      map[int]grading.Grade
	}
)

func Open() *DB {
	return &DB{data: newTables()}
}

func newTables() *tables {
	return &tables{
		users:       make(map[string]user.User),
		departments: make(map[int]school.Department),
		teachers:    make(map[int]school.Teacher),
		courses:     make(map[int]school.Course),
		students:    make(map[int]school.Student),
		enrollments: make(map[int]map[int]bool),
		attendance:  make(map[int]attendance.Attendance),
		exams:       make(map[int]grading.Exam),
		grades:      make(map[int]grading.Grade),
	}
}

func (t *tables) nextPK() int {
	t.pkCount++
	return t.pkCount
}

func (t *tables) clone() *tables {
	c := newTables()
	c.pkCount = t.pkCount
	for k, v := range t.users {
		v.Roles = append([]string(nil), v.Roles...)
		c.users[k] = v
	}
	for k, v := range t.departments {
		c.departments[k] = v
	}
	for k, v := range t.teachers {
		c.teachers[k] = v
	}
	for k, v := range t.courses {
		c.courses[k] = v
	}
	for k, v := range t.students {
		c.students[k] = v
	}
	for k, v := range t.enrollments {
		set := make(map[int]bool, len(v))
		for id := range v {
			set[id] = true
		}
		c.enrollments[k] = set
	}
	for k, v := range t.attendance {
		c.attendance[k] = v
	}
	for k, v := range t.exams {
		c.exams[k] = v
	}
	for k, v := range t.grades {
		c.grades[k] = v
	}
	return c
}

// Reset drops every record.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	db.data = newTables()
}

type transactor struct {
	db *DB
}

var _ core.Transactor = (*transactor)(nil) // interface compliance check

// NewTransactor returns a Transactor that restores the whole DB when fn fails.
// Transactions are serialized, and writes made without the executor handed to fn wait for the
// running transaction to end, so a rollback never discards them.
func NewTransactor(db *DB) core.Transactor {
	return &transactor{db: db}
}

func (t *transactor) InTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	t.db.RLock()
	snapshot := t.db.data.clone()
	t.db.RUnlock()

	if err := fn(txExecutor{}); err != nil {
		t.db.Lock()
		t.db.data = snapshot
		t.db.Unlock()
		return err
	}
	return nil
}

// txExecutor marks the repository calls made inside a transaction. It runs no SQL.
type txExecutor struct {
	core.DBExecutor
}

func inTx(exec []core.DBExecutor) bool {
	for _, e := range exec {
		if _, ok := e.(txExecutor); ok {
			return true
		}
	}
	return false
}

// lockWrite locks db for a write and returns its unlock func.
// Outside a transaction it first waits for the running one, if any.
func (db *DB) lockWrite(exec []core.DBExecutor) func() {
	if inTx(exec) {
		db.Lock()
		return db.Unlock
	}
	db.txMu.Lock()
	db.Lock()
	return func() {
		db.Unlock()
		db.txMu.Unlock()
	}
}
