package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/attendance"
)

type attendanceRow struct {
	ID          int       `db:"id"`
	StudentID   int       `db:"student_id"`
	CourseID    int       `db:"course_id"`
	Date        time.Time `db:"date"`
	Status      string    `db:"status"`
	StudentName string    `db:"student_name"`
	CourseName  string    `db:"course_name"`
}

func (row attendanceRow) record() attendance.Record {
	return attendance.Record{
		Attendance: attendance.Attendance{
			ID:        row.ID,
			StudentID: row.StudentID,
			CourseID:  row.CourseID,
			Date:      row.Date.UTC(),
			Status:    row.Status,
		},
		StudentName: row.StudentName,
		CourseName:  row.CourseName,
	}
}

type attendanceRepository struct {
	repo
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{repo{db: db}}
}

func (r attendanceRepository) CreateAttendance(ctx context.Context, att attendance.Attendance, exec ...core.DBExecutor) (attendance.Attendance, error) {
	b := psql.Insert("attendance").
		Columns("student_id", "course_id", "date", "status").
		Values(att.StudentID, att.CourseID, att.Date.Format("2006-01-02"), att.Status)
	id, err := r.insert(ctx, exec, b)
	if err != nil {
		return attendance.Attendance{}, translateErr(err, nil, "inserting attendance")
	}
	att.ID = id
	return att, nil
}

func (r attendanceRepository) QueryAttendance(ctx context.Context, filter attendance.Filter, exec ...core.DBExecutor) ([]attendance.Record, error) {
	b := psql.Select(
		"a.id", "a.student_id", "a.course_id", "a.date", "a.status",
		"s.name AS student_name", "c.name AS course_name",
	).
		From("attendance a").
		Join("student s ON s.id = a.student_id").
		Join("course c ON c.id = a.course_id")
	if filter.StudentID != 0 {
		b = b.Where(sq.Eq{"a.student_id": filter.StudentID})
	}
	if filter.CourseIDs != nil {
		b = b.Where(sq.Eq{"a.course_id": filter.CourseIDs})
	}
	b = b.OrderBy("a.date DESC", "c.name ASC", "s.name ASC", "a.id ASC")

	var rows []attendanceRow
	if err := r.selectAll(ctx, exec, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}
