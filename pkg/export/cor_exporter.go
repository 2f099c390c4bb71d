package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/jmagsino/shs-registrar-api/internal/models"
)

// CORExporter renders a certificate of registration as a printable PDF.
type CORExporter struct {
	schoolName string
}

// NewCORExporter constructs a COR exporter stamped with the school name.
func NewCORExporter(schoolName string) *CORExporter {
	if schoolName == "" {
		schoolName = "Senior High School Registrar"
	}
	return &CORExporter{schoolName: schoolName}
}

// Render produces the COR PDF for one enrollment.
func (e *CORExporter) Render(cor models.COR) ([]byte, error) {
	if cor.RegistrationNumber == "" {
		return nil, fmt.Errorf("cor requires a registration number")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 15, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, e.schoolName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, "CERTIFICATE OF REGISTRATION", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	left := [][2]string{
		{"Registration No.", cor.RegistrationNumber},
		{"Student", cor.StudentName},
		{"LRN", cor.StudentLRN},
	}
	right := [][2]string{
		{"School Year", cor.SchoolYear},
		{"Grade / Strand", fmt.Sprintf("Grade %d - %s", cor.GradeLevel, cor.StrandCode)},
		{"Section", cor.SectionName},
	}
	for i := range left {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, left[i][0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(60, 6, left[i][1], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, right[i][0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, right[i][1], "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	headers := []string{"Code", "Subject", "Units", "Sem", "Day", "Time", "Room", "Faculty"}
	widths := []float64{20, 56, 12, 12, 18, 30, 16, 22}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, line := range cor.Lines {
		faculty := ""
		if line.FacultyName != nil {
			faculty = *line.FacultyName
		}
		timeRange := ""
		if line.StartTime != "" {
			timeRange = line.StartTime + "-" + line.EndTime
		}
		cells := []string{
			line.SubjectCode,
			line.SubjectName,
			fmt.Sprintf("%d", line.Units),
			line.Semester,
			line.DayOfWeek,
			timeRange,
			line.Room,
			faculty,
		}
		for i, v := range cells {
			pdf.CellFormat(widths[i], 6, v, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Date Enrolled: %s", cor.EnrolledAt.Format("January 2, 2006")), "", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render cor pdf: %w", err)
	}
	return buf.Bytes(), nil
}
