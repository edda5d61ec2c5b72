package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/grading"
)

const dayDuration = 24 * time.Hour

type gradingRepository struct {
	db *DB
}

var _ grading.Repository = (*gradingRepository)(nil) // interface compliance check

func NewGradingRepository(db *DB) grading.Repository {
	return &gradingRepository{db: db}
}

func (repo *gradingRepository) CreateExam(_ context.Context, exam grading.Exam, exec ...core.DBExecutor) (grading.Exam, error) {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.courses[exam.CourseID]; !ok {
		return grading.Exam{}, core.ErrReference
	}
	exam.Date = exam.Date.UTC().Truncate(dayDuration)
	exam.ID = repo.db.data.nextPK()
	repo.db.data.exams[exam.ID] = exam
	return exam, nil
}

func (repo *gradingRepository) GetExam(_ context.Context, id int, _ ...core.DBExecutor) (grading.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if exam, ok := repo.db.data.exams[id]; ok {
		return exam, nil
	}
	return grading.Exam{}, grading.ErrExamNotFound
}

func (repo *gradingRepository) QueryExams(_ context.Context, courseIDs []int, _ ...core.DBExecutor) ([]grading.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make(map[int]bool, len(courseIDs))
	for _, id := range courseIDs {
		ids[id] = true
	}
	exams := make([]grading.Exam, 0)
	for _, exam := range repo.db.data.exams {
		if ids[exam.CourseID] {
			exams = append(exams, exam)
		}
	}
	sort.Slice(exams, func(i, j int) bool {
		if !exams[i].Date.Equal(exams[j].Date) {
			return exams[i].Date.Before(exams[j].Date)
		}
		return exams[i].ID < exams[j].ID
	})
	return exams, nil
}

func (repo *gradingRepository) CreateGrade(_ context.Context, grade grading.Grade, exec ...core.DBExecutor) (grading.Grade, error) {
	defer repo.db.lockWrite(exec)()

	if _, ok := repo.db.data.students[grade.StudentID]; !ok {
		return grading.Grade{}, core.ErrReference
	}
	if _, ok := repo.db.data.exams[grade.ExamID]; !ok {
		return grading.Grade{}, core.ErrReference
	}
	if _, ok := repo.db.data.courses[grade.CourseID]; !ok {
		return grading.Grade{}, core.ErrReference
	}
	for _, g := range repo.db.data.grades {
		if g.StudentID == grade.StudentID && g.ExamID == grade.ExamID && g.CourseID == grade.CourseID {
			return grading.Grade{}, core.ErrDuplicate
		}
	}

	grade.ID = repo.db.data.nextPK()
	repo.db.data.grades[grade.ID] = grade
	return grade, nil
}

func (repo *gradingRepository) QueryGradeRows(_ context.Context, filter grading.RowFilter, _ ...core.DBExecutor) ([]grading.Row, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var courseIDs map[int]bool
	if filter.CourseIDs != nil {
		courseIDs = make(map[int]bool, len(filter.CourseIDs))
		for _, id := range filter.CourseIDs {
			courseIDs[id] = true
		}
	}

	grades := make([]grading.Grade, 0)
	for _, g := range repo.db.data.grades {
		if filter.StudentID != 0 && g.StudentID != filter.StudentID {
			continue
		}
		if courseIDs != nil && !courseIDs[g.CourseID] {
			continue
		}
		grades = append(grades, g)
	}
	sort.Slice(grades, func(i, j int) bool {
		di, dj := repo.db.data.exams[grades[i].ExamID].Date, repo.db.data.exams[grades[j].ExamID].Date
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return grades[i].ID < grades[j].ID
	})

	rows := make([]grading.Row, 0, len(grades))
	for _, g := range grades {
		rows = append(rows, grading.Row{
			StudentID:   g.StudentID,
			StudentName: repo.db.data.students[g.StudentID].Name,
			CourseID:    g.CourseID,
			CourseName:  repo.db.data.courses[g.CourseID].Name,
			ExamName:    repo.db.data.exams[g.ExamID].Name,
			Score:       g.Score,
		})
	}
	return rows, nil
}
