// Package reportsvc renders grade summaries as PDF documents.
package reportsvc

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/grading"
	"github.com/shulehub/shule/core/school"
)

var reportCardColumns = []struct {
	title string
	width float64
}{
	{"COURSE", 50},
	{"QUIZ", 18},
	{"TEST", 18},
	{"MIDTERM", 20},
	{"FINAL", 18},
	{"OTHER", 18},
	{"SUM", 18},
	{"%", 20},
}

type ReportCardWriter struct {
	conf    *core.Config
	nowFunc func() time.Time // mockable
}

func NewReportCardWriter(conf *core.Config) *ReportCardWriter {
	return &ReportCardWriter{conf: conf, nowFunc: time.Now}
}

// Write renders the per-course grade summaries of std as a one page A4 report card.
func (rw *ReportCardWriter) Write(w io.Writer, std school.Student, summaries []grading.CourseSummary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(rw.conf.AppName+" report card", true)
	pdf.SetCreator(rw.conf.AppName, true)
	pdf.SetCreationDate(rw.nowFunc().UTC())
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 8, tr(rw.conf.AppName))
	pdf.Ln(10)
	pdf.SetDrawColor(40, 145, 108)
	pdf.SetLineWidth(0.5)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "REPORT CARD")
	pdf.Ln(12)

	// Student information
	info := [][2]string{
		{"Name:", std.Name},
		{"Email:", std.Email},
		{"Grade:", std.Grade},
		{"Issued:", rw.nowFunc().UTC().Format("2006-01-02")},
	}
	for _, line := range info {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(30, 6, line[0])
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, tr(line[1]))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	// Grades table
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(40, 145, 108)
	pdf.SetTextColor(255, 255, 255)
	for i, col := range reportCardColumns {
		ln := 0
		if i == len(reportCardColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, 8, col.title, "1", ln, "C", true, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(245, 245, 245)
	if len(summaries) == 0 {
		pdf.CellFormat(totalWidth(), 8, "No grades recorded yet", "1", 1, "C", false, 0, "")
	}
	for row, cs := range summaries {
		fill := row%2 == 0
		cells := []string{
			tr(cs.CourseName),
			formatSlot(cs.Quiz),
			formatSlot(cs.Test),
			formatSlot(cs.Midterm),
			formatSlot(cs.Final),
			formatScore(cs.Other),
			formatScore(cs.Sum),
			formatScore(cs.Percentage),
		}
		for i, cell := range cells {
			align, ln := "C", 0
			if i == 0 {
				align = "L"
			}
			if i == len(cells)-1 {
				ln = 1
			}
			pdf.CellFormat(reportCardColumns[i].width, 7, cell, "1", ln, align, fill, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing report card")
	}
	return nil
}

func totalWidth() float64 {
	var total float64
	for _, col := range reportCardColumns {
		total += col.width
	}
	return total
}

func formatSlot(score *float64) string {
	if score == nil {
		return "-"
	}
	return formatScore(*score)
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}
