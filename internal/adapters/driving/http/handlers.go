package http

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// HeaderUserID carries the authenticated user identity.
const HeaderUserID = "X-User-ID"

const userKey = "user"

// requireUser rejects requests without a user identity.
func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
		if user == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing "+HeaderUserID+" header")
		}
		c.Set(userKey, user)
		return next(c)
	}
}

func userOf(c echo.Context) string {
	user, _ := c.Get(userKey).(string)
	return user
}

// ReportJSON is the API representation of a stored report.
type ReportJSON struct {
	ID            string             `json:"id"`
	Seq           int64              `json:"seq"`
	FileName      string             `json:"file_name"`
	FileType      string             `json:"file_type"`
	MedicalParams *domain.ParsedData `json:"medical_params"`
	Symptoms      string             `json:"symptoms"`
	CreatedAt     time.Time          `json:"created_at"`
	Text          string             `json:"text,omitempty"`
}

func reportJSON(r *domain.ReportRecord, withText bool) ReportJSON {
	out := ReportJSON{
		ID:            r.ID,
		Seq:           r.Seq,
		FileName:      r.FileName,
		FileType:      r.FileType,
		MedicalParams: r.ParsedData,
		Symptoms:      r.Symptoms,
		CreatedAt:     r.CreatedAt,
	}
	if withText {
		out.Text = r.RawText
	}
	return out
}

// UploadResponse is returned by POST /api/v1/reports.
type UploadResponse struct {
	Report    ReportJSON `json:"report"`
	Chunks    int        `json:"chunks"`
	Duplicate bool       `json:"duplicate"`
}

// QueryRequest is the body of POST /api/v1/query.
type QueryRequest struct {
	Symptoms string `json:"symptoms"`
}

// SourceJSON is one report excerpt used to answer a query.
type SourceJSON struct {
	FileName string  `json:"file_name"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// QueryResponse is returned by POST /api/v1/query.
type QueryResponse struct {
	Answer  string       `json:"answer"`
	Sources []SourceJSON `json:"sources"`
}

// SuggestionResponse is returned by POST /api/v1/suggestions.
type SuggestionResponse struct {
	Suggestion string `json:"suggestion"`
	ReportID   string `json:"report_id"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrInvalidInput)
	}

	name := filepath.Base(fh.Filename)
	if !domain.IsSupportedExtension(filepath.Ext(name)) {
		return fmt.Errorf("%w: %s (accepted: %s)",
			domain.ErrUnsupportedFormat, name, strings.Join(domain.SupportedExtensions(), ", "))
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(content) > MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	result, err := s.ports.Ingestion.Ingest(c.Request().Context(), domain.NewUpload(userOf(c), name, content))
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	return c.JSON(status, UploadResponse{
		Report:    reportJSON(result.Record, false),
		Chunks:    result.Chunks,
		Duplicate: result.Duplicate,
	})
}

func (s *Server) handleListReports(c echo.Context) error {
	records, err := s.ports.Reports.List(c.Request().Context(), userOf(c))
	if err != nil {
		return err
	}
	out := make([]ReportJSON, len(records))
	for i := range records {
		out[i] = reportJSON(&records[i], false)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetReport(c echo.Context) error {
	record, err := s.ports.Reports.Get(c.Request().Context(), userOf(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reportJSON(record, true))
}

func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid json", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		return fmt.Errorf("%w: symptoms are required", domain.ErrInvalidInput)
	}

	answer, err := s.ports.Query.Ask(c.Request().Context(), userOf(c), req.Symptoms)
	if err != nil {
		return err
	}

	out := QueryResponse{Answer: answer.Text, Sources: make([]SourceJSON, len(answer.Sources))}
	for i, hit := range answer.Sources {
		out.Sources[i] = SourceJSON{FileName: hit.Chunk.Source(), Score: hit.Score, Content: hit.Chunk.Content}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleSuggest(c echo.Context) error {
	suggestion, err := s.ports.Suggestion.Suggest(c.Request().Context(), userOf(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SuggestionResponse{Suggestion: suggestion.Text, ReportID: suggestion.Record.ID})
}
