package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"projectdesk/internal/models"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateTaskSheet(detail *models.TaskDetail) (string, error)
}

// TaskSheetGenerator renders a printable A4 sheet of a task.
type TaskSheetGenerator struct {
	RootDir  string // корень хранения, например "./files"
	FontPath string // путь до TTF; пусто = встроенный Helvetica
	fontName string
}

func NewTaskSheetGenerator(rootDir, fontPath string) *TaskSheetGenerator {
	g := &TaskSheetGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "Helvetica",
	}
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err == nil {
			g.fontName = "DejaVu"
		}
	}
	return g
}

// GenerateTaskSheet writes the sheet under RootDir and returns its absolute path.
func (g *TaskSheetGenerator) GenerateTaskSheet(detail *models.TaskDetail) (string, error) {
	if detail == nil || detail.Task == nil {
		return "", fmt.Errorf("task sheet: empty task")
	}
	task := detail.Task
	absPath, err := g.ensureTarget(fmt.Sprintf("task_%d_%d.pdf", task.SAccountID, task.ID))
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Task #%d", task.ID), true)
	pdf.SetAuthor("projectdesk", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	g.addUTF8Font(pdf)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// ===== Заголовок
	if detail.Parent != nil {
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Sub task of #%d %s", detail.Parent.ID, detail.Parent.Name), "", 1, "L", false, 0, "")
	}
	pdf.SetFont(g.fontName, "B", 16)
	pdf.MultiCell(0, 8, fmt.Sprintf("#%d %s", task.ID, task.Name), "", "L", false)
	pdf.SetFont(g.fontName, "", 11)
	status := string(task.Status)
	if detail.IsOverdue {
		status += " (overdue)"
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("%s | %s | %.0f%%", status, task.Priority, task.PercentageComplete), "", 1, "L", false, 0, "")
	g.hr(pdf)

	if task.Description != "" {
		g.sectionTitle(pdf, "Description")
		pdf.MultiCell(0, 6, task.Description, "", "L", false)
		g.hr(pdf)
	}

	g.sectionTitle(pdf, "People")
	g.kvLine(pdf, "Created by", displayName(detail.People.LogByFullName, detail.People.LogBy))
	g.kvLine(pdf, "Assignee", displayName(detail.People.AssignUserFullName, detail.People.AssignUser))
	g.hr(pdf)

	g.sectionTitle(pdf, "Dates")
	g.kvLine(pdf, "Start", formatDate(task.StartDate))
	g.kvLine(pdf, "End", formatDate(task.EndDate))
	g.kvLine(pdf, "Due", formatDate(task.DueDate))
	g.kvLine(pdf, "Created", task.CreatedAt.Format("02.01.2006 15:04"))
	g.hr(pdf)

	g.sectionTitle(pdf, "Followers")
	names := make([]string, 0, len(detail.Followers))
	for _, f := range detail.Followers {
		names = append(names, displayName(f.DisplayName, f.Username))
	}
	g.kvLine(pdf, "Following", orDash(strings.Join(names, ", ")))
	g.kvLine(pdf, "Tags", orDash(strings.Join(detail.Tags, ", ")))
	g.kvLine(pdf, "Logged", fmt.Sprintf("%.2f h", detail.LoggedHours))
	g.kvLine(pdf, "Open sub tasks", fmt.Sprintf("%d", detail.OpenSubTasks))

	if len(detail.Activities) > 0 {
		g.hr(pdf)
		g.sectionTitle(pdf, "Activity")
		pdf.SetFont(g.fontName, "", 10)
		for _, a := range detail.Activities {
			line := fmt.Sprintf("%s  %s  %s", a.CreatedAt.Format("02.01.2006 15:04"), a.CreatedBy, a.Action)
			if a.Detail != "" {
				line += ": " + a.Detail
			}
			pdf.MultiCell(0, 5, line, "", "L", false)
		}
	}

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// ===== helpers =====

func (g *TaskSheetGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *TaskSheetGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.MultiCell(0, 6, val, "", "L", false)
}

func (g *TaskSheetGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *TaskSheetGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename) // безопасность
	return filepath.Join(g.RootDir, filename), nil
}

func (g *TaskSheetGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if g.fontName == "Helvetica" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}

func displayName(full, username string) string {
	if full != "" {
		return full
	}
	return orDash(username)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02.01.2006")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
