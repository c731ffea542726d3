package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/xls2ass/internal/convert"
	"github.com/mgpai22/xls2ass/internal/notify"
	"github.com/mgpai22/xls2ass/internal/sheet"
	"github.com/mgpai22/xls2ass/internal/subtitle"
)

const previewRows = 5

type sheetInfo struct {
	Name      string     `json:"name"`
	Rows      int        `json:"rows"`
	Width     int        `json:"width"`
	Labels    []string   `json:"labels"`
	Preview   [][]string `json:"preview"`
	Suggested columns    `json:"suggested"`
}

type columns struct {
	Start    string `json:"start_col"`
	End      string `json:"end_col"`
	Dialogue string `json:"dialogue_col"`
	Actor    string `json:"actor_col"`
	Track    string `json:"track_col"`
	Italics  string `json:"italics_col"`
	Timecode bool   `json:"timecode"`
}

type sheetsResponse struct {
	File   string      `json:"file"`
	Format string      `json:"format"`
	Sheets []sheetInfo `json:"sheets"`
}

// POST /api/v1/sheets
func (s *Server) listSheets(w http.ResponseWriter, r *http.Request) {
	wb, err := s.loadUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	hasHeader := formBool(r, "headers", true)

	resp := sheetsResponse{File: wb.Name, Format: string(wb.Format)}
	for i := range wb.Sheets {
		ws := &wb.Sheets[i]
		p := ws.Preview(previewRows, hasHeader)
		cfg := convert.Suggest(ws, hasHeader, 0).Config()
		resp.Sheets = append(resp.Sheets, sheetInfo{
			Name:    ws.Name,
			Rows:    len(ws.Rows),
			Width:   ws.Width(),
			Labels:  p.Labels,
			Preview: p.Rows,
			Suggested: columns{
				Start:    cfg.StartCol,
				End:      cfg.EndCol,
				Dialogue: cfg.DialogueCol,
				Actor:    cfg.ActorCol,
				Track:    cfg.TrackCol,
				Italics:  cfg.ItalicsCol,
				Timecode: cfg.Timecode,
			},
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/v1/convert
func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	wb, err := s.loadUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	cfg := configFromForm(r)
	format, err := subtitle.ParseFormat(formValue(r, "format", string(subtitle.FormatASS)))
	if err != nil {
		s.writeError(w, &convert.ConfigurationError{Field: "format", Value: r.FormValue("format"), Err: err})
		return
	}
	enc, err := subtitle.ParseEncoding(r.FormValue("encoding"))
	if err != nil {
		s.writeError(w, &convert.ConfigurationError{Field: "encoding", Value: r.FormValue("encoding"), Err: err})
		return
	}

	opts, err := cfg.Options()
	if err != nil {
		s.writeError(w, err)
		return
	}

	id := uuid.NewString()
	skipped := 0
	opts.OnSkip = func(e *convert.RowError) {
		skipped++
		s.logger.Warnw("skipped row", "conversion_id", id, "sheet", e.Sheet, "row", e.Row, "error", e.Err)
	}

	names := formList(r, "sheet")
	doc, err := convert.ConvertWorkbook(wb, names, opts, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if title := strings.TrimSpace(r.FormValue("title")); title != "" {
		doc.Info.Set("Title", title)
	}
	if language := strings.TrimSpace(r.FormValue("language")); language != "" {
		doc.Info.Set("Language", language)
	}

	body, err := render(doc, format, enc)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if len(names) == 0 && len(wb.Sheets) > 0 {
		names = []string{wb.Sheets[0].Name}
	}
	stats := doc.Stats()
	perStyle := make(map[string]int, len(stats.PerStyle))
	for _, c := range stats.PerStyle {
		perStyle[c.Style] = c.Events
	}
	event := notify.ConversionCompleted{
		ID:        id,
		Source:    wb.Name,
		Sheets:    names,
		Events:    stats.Events,
		Styles:    doc.Styles.Len(),
		Format:    string(format),
		PerStyle:  perStyle,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(r.Context(), event); err != nil {
		s.logger.Warnw("failed to publish conversion event", "conversion_id", id, "error", err)
	}

	s.logger.Infow("conversion complete",
		"conversion_id", id,
		"source", wb.Name,
		"events", stats.Events,
		"styles", doc.Styles.Len(),
		"skipped", skipped,
	)

	base := strings.TrimSuffix(wb.Name, filepath.Ext(wb.Name))
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", base+subtitle.GetExtensionForFormat(format)))
	w.Header().Set("X-Conversion-ID", id)
	w.Header().Set("X-Skipped-Rows", strconv.Itoa(skipped))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// loadUpload stores the multipart "file" field in a temp file that keeps
// the original extension, so format detection sees the real name.
func (s *Server) loadUpload(w http.ResponseWriter, r *http.Request) (*sheet.Workbook, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, err: fmt.Errorf("invalid upload: %w", err)}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, err: errors.New(`missing "file" field`)}
	}
	defer func() {
		_ = file.Close()
	}()

	path, cleanup, err := saveTemp(file, header)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	wb, err := sheet.Open(path)
	if err != nil {
		return nil, err
	}
	wb.Name = filepath.Base(header.Filename)
	if wb.Format == sheet.FormatCSV && len(wb.Sheets) == 1 {
		// text sources are named after the file, which here is the temp file
		wb.Sheets[0].Name = strings.TrimSuffix(wb.Name, filepath.Ext(wb.Name))
	}
	return wb, nil
}

func saveTemp(file multipart.File, header *multipart.FileHeader) (string, func(), error) {
	tmp, err := os.CreateTemp("", "xls2ass-upload-*"+strings.ToLower(filepath.Ext(header.Filename)))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() {
		_ = os.Remove(tmp.Name())
	}
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to store upload: %w", err)
	}
	return tmp.Name(), cleanup, nil
}

func render(doc *subtitle.Document, format subtitle.Format, enc subtitle.Encoding) ([]byte, error) {
	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	encoded, err := subtitle.NewEncodingWriter(&buf, enc)
	if err != nil {
		return nil, err
	}
	if err := writer.Write(doc, encoded); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", format, err)
	}
	if err := encoded.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func configFromForm(r *http.Request) convert.Config {
	cfg := convert.DefaultConfig()
	cfg.StartCol = r.FormValue("start_col")
	cfg.EndCol = r.FormValue("end_col")
	cfg.DialogueCol = r.FormValue("dialogue_col")
	cfg.ActorCol = r.FormValue("actor_col")
	cfg.TrackCol = r.FormValue("track_col")
	cfg.ItalicsCol = r.FormValue("italics_col")
	cfg.HasHeaders = formBool(r, "headers", cfg.HasHeaders)
	cfg.Timecode = formBool(r, "timecode", cfg.Timecode)
	cfg.Framerate = r.FormValue("framerate")
	cfg.Shift = r.FormValue("shift")
	cfg.Scale = r.FormValue("scale")
	cfg.TopTracks = formList(r, "top_tracks")
	cfg.SkipBlankRows = formBool(r, "skip_blank_rows", false)
	cfg.SkipInvalidRows = formBool(r, "skip_invalid_rows", false)
	return cfg
}

func formValue(r *http.Request, key, fallback string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return fallback
}

func formBool(r *http.Request, key string, fallback bool) bool {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// repeated fields and comma separated values both count
func formList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.Form[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func contentType(format subtitle.Format) string {
	switch format {
	case subtitle.FormatSRT:
		return "application/x-subrip; charset=utf-8"
	case subtitle.FormatVTT:
		return "text/vtt; charset=utf-8"
	default:
		return "text/x-ssa; charset=utf-8"
	}
}

type uploadError struct {
	status int
	err    error
}

func (e *uploadError) Error() string { return e.err.Error() }
func (e *uploadError) Unwrap() error { return e.err }

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		upErr  *uploadError
		cfgErr *convert.ConfigurationError
		rowErr *convert.RowError
	)
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &upErr):
		status = upErr.status
	case errors.As(err, &cfgErr):
		status = http.StatusBadRequest
		resp.Field = cfgErr.Field
	case errors.As(err, &rowErr):
		status = http.StatusUnprocessableEntity
		resp.Sheet = rowErr.Sheet
		resp.Row = rowErr.Row
	case errors.Is(err, sheet.ErrSheetNotFound):
		status = http.StatusBadRequest
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, sheet.ErrNoSheets):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.Errorw("request failed", "error", err)
	}
	writeJSON(w, status, resp)
}
