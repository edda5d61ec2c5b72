// Package boiledrepos implements the grading repository on PostgreSQL with sqlboiler raw queries.
package boiledrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/grading"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type (
	examRow struct {
		ID       int       `boil:"id"`
		Name     string    `boil:"name"`
		CourseID int       `boil:"course_id"`
		Date     time.Time `boil:"date"`
	}

	gradeRow struct {
		ID        int     `boil:"id"`
		StudentID int     `boil:"student_id"`
		ExamID    int     `boil:"exam_id"`
		CourseID  int     `boil:"course_id"`
		Score     float64 `boil:"score"`
	}
)

func (row examRow) exam() grading.Exam {
	return grading.Exam{ID: row.ID, Name: row.Name, CourseID: row.CourseID, Date: row.Date.UTC()}
}

type gradingRepository struct {
	exec core.DBExecutor
}

var _ grading.Repository = (*gradingRepository)(nil) // interface compliance check

func NewGradingRepository(exec core.DBExecutor) *gradingRepository {
	return &gradingRepository{exec: exec}
}

func (repo gradingRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// translateErr maps "no rows" to notFound and constraint violations to core.ErrDuplicate or core.ErrReference.
func (repo gradingRepository) translateErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return errors.Wrap(core.ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return errors.Wrap(core.ErrReference, pqErr.Constraint)
		}
	}
	return errors.Wrap(err, msg)
}

func (repo gradingRepository) CreateExam(ctx context.Context, exam grading.Exam, exec ...core.DBExecutor) (grading.Exam, error) {
	var row examRow
	err := queries.Raw(
		`INSERT INTO exam (name, course_id, date) VALUES ($1, $2, $3) RETURNING id, name, course_id, date`,
		exam.Name, exam.CourseID, exam.Date.Format("2006-01-02"),
	).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return grading.Exam{}, repo.translateErr(err, nil, "inserting exam")
	}
	return row.exam(), nil
}

func (repo gradingRepository) GetExam(ctx context.Context, id int, exec ...core.DBExecutor) (grading.Exam, error) {
	var row examRow
	err := queries.Raw(`SELECT id, name, course_id, date FROM exam WHERE id = $1`, id).
		Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return grading.Exam{}, repo.translateErr(err, grading.ErrExamNotFound, "getting exam")
	}
	return row.exam(), nil
}

func (repo gradingRepository) QueryExams(ctx context.Context, courseIDs []int, exec ...core.DBExecutor) ([]grading.Exam, error) {
	var rows []examRow
	err := queries.Raw(
		`SELECT id, name, course_id, date FROM exam WHERE course_id = ANY($1) ORDER BY date ASC, id ASC`,
		pq.Array(courseIDs),
	).Bind(ctx, repo.getExec(exec), &rows)
	if err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	exams := make([]grading.Exam, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, row.exam())
	}
	return exams, nil
}

func (repo gradingRepository) CreateGrade(ctx context.Context, grade grading.Grade, exec ...core.DBExecutor) (grading.Grade, error) {
	var row gradeRow
	err := queries.Raw(
		`INSERT INTO grade (student_id, exam_id, course_id, score) VALUES ($1, $2, $3, $4)
		RETURNING id, student_id, exam_id, course_id, score`,
		grade.StudentID, grade.ExamID, grade.CourseID, grade.Score,
	).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return grading.Grade{}, repo.translateErr(err, nil, "inserting grade")
	}
	return grading.Grade(row), nil
}

func (repo gradingRepository) QueryGradeRows(ctx context.Context, filter grading.RowFilter, exec ...core.DBExecutor) ([]grading.Row, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.StudentID != 0 {
		args = append(args, filter.StudentID)
		where = append(where, "g.student_id = $1")
	}
	if filter.CourseIDs != nil {
		args = append(args, pq.Array(filter.CourseIDs))
		where = append(where, "g.course_id = ANY($"+strconv.Itoa(len(args))+")")
	}

	q := `SELECT s.id AS student_id, s.name AS student_name, c.id AS course_id, c.name AS course_name,
		e.name AS exam_name, g.score
	FROM grade g
	JOIN student s ON s.id = g.student_id
	JOIN course c ON c.id = g.course_id
	JOIN exam e ON e.id = g.exam_id`
	if len(where) > 0 {
		q += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	q += "\n\tORDER BY e.date ASC, g.id ASC"

	rows := []grading.Row{}
	if err := queries.Raw(q, args...).Bind(ctx, repo.getExec(exec), &rows); err != nil {
		return nil, errors.Wrap(err, "querying grade rows")
	}
	return rows, nil
}
