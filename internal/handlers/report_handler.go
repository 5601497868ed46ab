package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/divan/num2words"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bogdanmosica/montessori-app-sub002/config"
	"github.com/bogdanmosica/montessori-app-sub002/internal/fees"
	"github.com/bogdanmosica/montessori-app-sub002/models"
)

// amountInWords spells out a minor-unit amount for billing statements,
// e.g. "one thousand five hundred lei".
func amountInWords(amountMinor int64) string {
	lei := int(amountMinor / 100)
	bani := int(amountMinor % 100)
	words := num2words.Convert(lei)
	if bani == 0 {
		return fmt.Sprintf("%s lei", words)
	}
	return fmt.Sprintf("%s lei %d bani", words, bani)
}

// applyDiscountFormula runs the school's billing adjustment expression over
// one resolved fee. Parameters available to the formula: amount (RON, as a
// number) and siblings (active enrollments sharing the child's parent
// contact). The formula only adjusts what the report bills; the stored fees
// and the resolver's contract are untouched.
func applyDiscountFormula(formula string, amountMinor int64, siblings int) (int64, error) {
	if formula == "" || amountMinor == 0 {
		return amountMinor, nil
	}

	expression, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return 0, fmt.Errorf("invalid discount formula: %w", err)
	}

	amountMajor, _ := fees.ToMajorUnits(amountMinor).Float64()
	result, err := expression.Evaluate(map[string]interface{}{
		"amount":   amountMajor,
		"siblings": siblings,
	})
	if err != nil {
		return 0, fmt.Errorf("discount formula evaluation failed: %w", err)
	}

	billed, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("discount formula did not produce a number")
	}
	// Round to whole bani; formulas like amount*0.9 can produce sub-cent values.
	return decimal.NewFromFloat(billed).Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

type billingLine struct {
	ChildName   string
	GroupName   string
	Fee         fees.EffectiveFee
	Siblings    int
	BilledMinor int64
}

// ExportBillingReportHandler streams the month's billing register as an XLSX
// file: one line per active enrollment with its resolved fee, provenance and
// the billed amount after the school's discount formula.
func ExportBillingReportHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)

	month := c.Query("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Month must be YYYY-MM"})
		return
	}

	var school models.School
	if err := config.DB.First(&school, schoolID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load school"})
		return
	}

	var enrollments []models.Enrollment
	err := config.DB.Preload("Child").Preload("Group").
		Where("school_id = ? AND status = ?", schoolID, models.EnrollmentActive).
		Order("id asc").
		Find(&enrollments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch enrollments"})
		return
	}

	// Sibling counts keyed by parent contact; children without one count alone.
	siblingsByParent := make(map[string]int)
	for _, enrollment := range enrollments {
		if enrollment.Child != nil && enrollment.Child.ParentEmail != "" {
			siblingsByParent[enrollment.Child.ParentEmail]++
		}
	}

	lines := make([]billingLine, 0, len(enrollments))
	var totalMinor int64
	for _, enrollment := range enrollments {
		if enrollment.Child == nil {
			continue
		}
		resolved := fees.Resolve(enrollment.Child.MonthlyFeeMinor, enrollment.MonthlyFeeOverrideMinor)

		siblings := 1
		if enrollment.Child.ParentEmail != "" {
			siblings = siblingsByParent[enrollment.Child.ParentEmail]
		}

		billedMinor, err := applyDiscountFormula(school.DiscountFormula, resolved.AmountMinor, siblings)
		if err != nil {
			slog.Error("Billing formula failed", "error", err, "school_id", schoolID)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		groupName := ""
		if enrollment.Group != nil {
			groupName = enrollment.Group.Name
		}
		lines = append(lines, billingLine{
			ChildName:   enrollment.Child.LastName + " " + enrollment.Child.FirstName,
			GroupName:   groupName,
			Fee:         resolved,
			Siblings:    siblings,
			BilledMinor: billedMinor,
		})
		totalMinor += billedMinor
	}

	f := excelize.NewFile()
	sheetName := "Billing " + month
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Child", "Group", "Fee source", "Effective fee", "Siblings", "Billed (RON)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, line := range lines {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), line.ChildName)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), line.GroupName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), string(line.Fee.Source))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), line.Fee.Display)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), line.Siblings)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), fees.ToMajorUnits(line.BilledMinor).InexactFloat64())
	}

	totalRow := len(lines) + 3
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", totalRow), "Total")
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", totalRow), fees.ToMajorUnits(totalMinor).InexactFloat64())
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", totalRow+1), "In words")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", totalRow+1), amountInWords(totalMinor))

	fileName := fmt.Sprintf("billing_%s_%s.xlsx", month, time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
	}
}

// ExportAttendanceReportHandler streams a month's attendance register as an
// XLSX file: one row per child, one column per day.
func ExportAttendanceReportHandler(c *gin.Context) {
	schoolID := currentSchoolID(c)

	month := c.Query("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	monthStart, err := time.Parse("2006-01", month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Month must be YYYY-MM"})
		return
	}
	monthEnd := monthStart.AddDate(0, 1, 0)
	days := monthEnd.Add(-24 * time.Hour).Day()

	var entries []models.Attendance
	err = config.DB.Preload("Child").
		Where("school_id = ? AND date >= ? AND date < ?", schoolID, monthStart, monthEnd).
		Order("child_id asc, date asc").
		Find(&entries).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch attendance"})
		return
	}

	type childRow struct {
		name  string
		byDay map[int]string
	}
	rowsByChild := make(map[uint]*childRow)
	var order []uint
	for _, entry := range entries {
		row, ok := rowsByChild[entry.ChildID]
		if !ok {
			name := fmt.Sprintf("#%d", entry.ChildID)
			if entry.Child != nil {
				name = entry.Child.LastName + " " + entry.Child.FirstName
			}
			row = &childRow{name: name, byDay: make(map[int]string)}
			rowsByChild[entry.ChildID] = row
			order = append(order, entry.ChildID)
		}
		row.byDay[entry.Date.Day()] = entry.Status
	}

	f := excelize.NewFile()
	sheetName := "Attendance " + month
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheetName, "A1", "Child")
	for day := 1; day <= days; day++ {
		cell, _ := excelize.CoordinatesToCellName(day+1, 1)
		f.SetCellValue(sheetName, cell, day)
	}

	marks := map[string]string{
		models.AttendancePresent: "P",
		models.AttendanceAbsent:  "A",
		models.AttendanceExcused: "E",
	}
	for i, childID := range order {
		row := rowsByChild[childID]
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+2), row.name)
		for day, status := range row.byDay {
			cell, _ := excelize.CoordinatesToCellName(day+1, i+2)
			f.SetCellValue(sheetName, cell, marks[status])
		}
	}

	fileName := fmt.Sprintf("attendance_%s.xlsx", month)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
	}
}
