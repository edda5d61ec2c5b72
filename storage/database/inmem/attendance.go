package inmemdb

import (
	"context"
	"sort"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateAttendance(_ context.Context, att attendance.Attendance, exec ...core.DBExecutor) (attendance.Attendance, error) {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.students[att.StudentID]; !ok {
		return attendance.Attendance{}, core.ErrReference
	}
	if _, ok := repo.db.data.courses[att.CourseID]; !ok {
		return attendance.Attendance{}, core.ErrReference
	}
	att.Date = att.Date.UTC().Truncate(dayDuration)
	for _, a := range repo.db.data.attendance {
		if a.StudentID == att.StudentID && a.CourseID == att.CourseID && a.Date.Equal(att.Date) {
			return attendance.Attendance{}, core.ErrDuplicate
		}
	}

	att.ID = repo.db.data.nextPK()
	repo.db.data.attendance[att.ID] = att
	return att, nil
}

func (repo *attendanceRepository) QueryAttendance(_ context.Context, filter attendance.Filter, _ ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var courseIDs map[int]bool
	if filter.CourseIDs != nil {
		courseIDs = make(map[int]bool, len(filter.CourseIDs))
		for _, id := range filter.CourseIDs {
			courseIDs[id] = true
		}
	}

	records := make([]attendance.Record, 0)
	for _, att := range repo.db.data.attendance {
		if filter.StudentID != 0 && att.StudentID != filter.StudentID {
			continue
		}
		if courseIDs != nil && !courseIDs[att.CourseID] {
			continue
		}
		records = append(records, attendance.Record{
			Attendance:  att,
			StudentName: repo.db.data.students[att.StudentID].Name,
			CourseName:  repo.db.data.courses[att.CourseID].Name,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case !a.Date.Equal(b.Date):
			return a.Date.After(b.Date)
		case a.CourseName != b.CourseName:
			return a.CourseName < b.CourseName
		case a.StudentName != b.StudentName:
			return a.StudentName < b.StudentName
		}
		return a.ID < b.ID
	})
	return records, nil
}
