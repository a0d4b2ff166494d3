package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"

	"github.com/lingoleap/api/internal/apperror"
	"github.com/lingoleap/api/internal/language"
	"github.com/lingoleap/api/internal/middleware"
	"github.com/lingoleap/api/internal/model"
	"github.com/lingoleap/api/internal/progress"
)

// exportResultLimit caps the history rows in one export.
const exportResultLimit = 1000

type ExportHandler struct {
	db      *gorm.DB
	tracker *progress.Tracker
}

func NewExportHandler(db *gorm.DB, tracker *progress.Tracker) *ExportHandler {
	return &ExportHandler{db: db, tracker: tracker}
}

type progressReport struct {
	Profile     *progress.Profile `json:"profile"`
	Results     []model.Result    `json:"results"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// Export downloads the caller's progress as json, csv or pdf.
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" && format != "pdf" {
		_ = c.Error(apperror.BadRequest("invalid format, use json, csv or pdf"))
		return
	}

	userID := middleware.UserID(c)
	profile, err := h.tracker.Snapshot(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(progressError(err))
		return
	}

	var results []model.Result
	err = h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(exportResultLimit).
		Find(&results).Error
	if err != nil {
		_ = c.Error(apperror.Internal(err))
		return
	}

	report := &progressReport{Profile: profile, Results: results, GeneratedAt: time.Now().UTC()}
	filename := fmt.Sprintf("lingoleap-%s-%s", profile.User.Username, report.GeneratedAt.Format("20060102"))

	switch format {
	case "json":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", filename))
		c.JSON(http.StatusOK, report)
	case "csv":
		data, err := renderCSV(report)
		if err != nil {
			_ = c.Error(apperror.Internal(err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := renderPDF(report)
		if err != nil {
			_ = c.Error(apperror.Internal(err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", data)
	}
}

func renderCSV(r *progressReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Date", "Language", "Source", "Exp"}); err != nil {
		return nil, err
	}
	for _, res := range r.Results {
		row := []string{
			res.CreatedAt.UTC().Format(time.RFC3339),
			res.Language,
			res.Source,
			strconv.Itoa(res.Exp),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderPDF(r *progressReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	p := r.Profile

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, tr("LingoLeap progress report"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	lines := []string{
		fmt.Sprintf("Learner: %s", p.User.Username),
		fmt.Sprintf("Level %d (%d exp, %.1f%% to level %d)", p.Level.Level, p.Level.Exp, p.Level.ProgressPct, p.Level.Level+1),
		fmt.Sprintf("Streak: %d days (best %d)", p.Streak, p.MaxStreak),
		fmt.Sprintf("Lessons: %d, perfect: %d, chats: %d", p.Stats.Lessons, p.Stats.Perfect, p.Stats.Chats),
		fmt.Sprintf("Generated: %s", r.GeneratedAt.Format("2006-01-02 15:04 MST")),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 9, "Languages")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	for _, l := range p.Languages {
		pdf.Cell(60, 7, tr(language.Name(l.Code)))
		pdf.Cell(40, 7, fmt.Sprintf("rank %d", l.Rank))
		pdf.Cell(40, 7, fmt.Sprintf("%d exp", l.Exp))
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 9, "Achievements")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	for _, a := range p.Achievements {
		pdf.Cell(80, 7, tr(a.Title))
		pdf.Cell(40, 7, fmt.Sprintf("tier %d/%d", a.Tier, a.MaxTier))
		pdf.Cell(40, 7, fmt.Sprintf("progress %d", a.Progress))
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 9, "Recent activity")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	for i, res := range r.Results {
		if i == 50 {
			break
		}
		pdf.Cell(50, 6, res.CreatedAt.UTC().Format("2006-01-02 15:04"))
		pdf.Cell(40, 6, tr(language.Name(res.Language)))
		pdf.Cell(30, 6, res.Source)
		pdf.Cell(30, 6, fmt.Sprintf("+%d exp", res.Exp))
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
