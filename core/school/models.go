package school

import (
	"strings"

	"github.com/shulehub/shule/core"
)

type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Teacher struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	UserID *string `json:"user_id"`
}

type Course struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	Credits      int    `json:"credits"`
	DepartmentID int    `json:"department_id"`
	TeacherID    *int   `json:"teacher_id"`
}

// OwnedBy reports whether teacherID teaches the course.
func (c Course) OwnedBy(teacherID int) bool {
	return c.TeacherID != nil && *c.TeacherID == teacherID
}

type Student struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Age          int     `json:"age"`
	Grade        string  `json:"grade"`
	Email        string  `json:"email"`
	DepartmentID *int    `json:"department_id"`
	UserID       *string `json:"user_id"`
}

// StudentDetail is a Student along with its department and enrolled courses.
type StudentDetail struct {
	Student
	Department *Department `json:"department"`
	Courses    []Course    `json:"courses"`
}

// NewDepartment contains information needed to create or update a Department.
type NewDepartment struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (nd *NewDepartment) Clean() {
	nd.Name = core.CleanString(nd.Name)
}

// NewCourse contains information needed to create or update a Course.
type NewCourse struct {
	Name         string `json:"name" validate:"required,max=100"`
	Code         string `json:"code" validate:"required,max=10"`
	Credits      int    `json:"credits" validate:"min=0"`
	DepartmentID int    `json:"department_id" validate:"required"`
	TeacherID    *int   `json:"teacher_id"`
}

func (nc *NewCourse) Clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
}

// NewTeacher contains information needed to create or update a Teacher.
type NewTeacher struct {
	Name   string  `json:"name" validate:"required,max=100"`
	UserID *string `json:"user_id" validate:"omitempty,uuid"`
}

func (nt *NewTeacher) Clean() {
	nt.Name = core.CleanString(nt.Name)
}

// NewStudent contains information needed to create or update a Student.
type NewStudent struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Age          int     `json:"age" validate:"min=0,max=150"`
	Grade        string  `json:"grade" validate:"required,max=10"`
	Email        string  `json:"email" validate:"required,email"`
	DepartmentID *int    `json:"department_id"`
	UserID       *string `json:"user_id" validate:"omitempty,uuid"`
}

func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Grade = core.CleanString(ns.Grade)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
}

// Enrollment replaces the set of courses a Student is enrolled in.
type Enrollment struct {
	CourseIDs []int `json:"course_ids"`
}

// StudentFilter filters the Student list.
// Search does a case-insensitive match on the student name, department name or any enrolled course name.
type StudentFilter struct {
	Search string `query:"q"`
}

func (sf *StudentFilter) Clean() {
	sf.Search = core.CleanString(sf.Search)
}

// StudentPage is a page of the Student list.
type StudentPage struct {
	Count    int       `json:"count"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Results  []Student `json:"results"`
}

// CourseFilter filters the Course list; nil fields are ignored.
type CourseFilter struct {
	TeacherID    *int
	DepartmentID *int
	IDs          []int
}

// StudentGetFilter selects a single Student. The first non-empty field wins.
type StudentGetFilter struct {
	ID     int
	UserID string
}

// TeacherGetFilter selects a single Teacher. The first non-empty field wins.
type TeacherGetFilter struct {
	ID     int
	UserID string
}
