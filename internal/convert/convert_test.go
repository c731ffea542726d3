package convert

import (
	"errors"
	"testing"
	"time"

	"github.com/mgpai22/xls2ass/internal/sheet"
	"github.com/mgpai22/xls2ass/internal/subtitle"
	"github.com/mgpai22/xls2ass/internal/timestamp"
)

func spottingList() [][]string {
	return [][]string{
		{"In", "Out", "Text", "Track"},
		{"00:00:01:00", "00:00:02:12", "First", "A"},
		{"00:00:03:00", "00:00:04:00", "Second", "A"},
		{"00:00:05:06", "00:00:06:00", "Third", "B"},
	}
}

func TestConvertEndToEnd(t *testing.T) {
	opts := Options{
		Columns: ColumnMapping{
			Start:    Col(0),
			End:      Col(1),
			Dialogue: Col(2),
			Track:    Col(3),
		},
		HasHeader: true,
		Timestamp: timestamp.DefaultOptions(),
	}

	doc, err := Convert(spottingList(), opts, nil)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}

	if len(doc.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(doc.Events))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if doc.Events[i].Text != want {
			t.Errorf("event %d: text %q, want %q", i, doc.Events[i].Text, want)
		}
	}
	if doc.Events[0].End != 2500*time.Millisecond {
		t.Errorf("event 0: end %v, want 2.5s", doc.Events[0].End)
	}
	if doc.Events[2].Start != 5250*time.Millisecond {
		t.Errorf("event 2: start %v, want 5.25s", doc.Events[2].Start)
	}

	styles := doc.Styles.All()
	if len(styles) != 3 {
		t.Fatalf("expected Default plus 2 track styles, got %d", len(styles))
	}
	if styles[1].Name != "A" || styles[2].Name != "B" {
		t.Errorf("unexpected track styles: %s, %s", styles[1].Name, styles[2].Name)
	}
}

func TestConvertHeaderIsAlwaysDropped(t *testing.T) {
	rows := [][]string{{"looks like data"}, {"real"}}
	opts := Options{Columns: ColumnMapping{Dialogue: Col(0)}, HasHeader: true}

	doc, err := Convert(rows, opts, nil)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if len(doc.Events) != 1 || doc.Events[0].Text != "real" {
		t.Errorf("unexpected events: %+v", doc.Events)
	}

	opts.HasHeader = false
	doc, err = Convert(rows, opts, nil)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if len(doc.Events) != 2 {
		t.Errorf("expected 2 events without header, got %d", len(doc.Events))
	}
}

func TestConvertRejectsInvalidMapping(t *testing.T) {
	_, err := Convert(spottingList(), Options{Columns: ColumnMapping{End: Col(1)}}, nil)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %v", err)
	}

	badRate := Options{
		Columns:   ColumnMapping{Dialogue: Col(0)},
		Timestamp: timestamp.Options{Framerate: -1},
	}
	if _, err := Convert(nil, badRate, nil); !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError for framerate, got %v", err)
	}
	if cfgErr.Field != "framerate" {
		t.Errorf("field = %q, want framerate", cfgErr.Field)
	}
}

func TestConvertAbortsOnBadTimestamp(t *testing.T) {
	rows := spottingList()
	rows[2][0] = "soon"
	opts := Options{
		Columns:   ColumnMapping{Start: Col(0), Dialogue: Col(2)},
		HasHeader: true,
		Timestamp: timestamp.DefaultOptions(),
	}

	_, err := Convert(rows, opts, nil)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected *RowError, got %v", err)
	}
	if rowErr.Row != 3 {
		t.Errorf("row = %d, want 3", rowErr.Row)
	}
	if rowErr.Role != RoleStart {
		t.Errorf("role = %q, want start", rowErr.Role)
	}
}

func TestConvertSkipsRows(t *testing.T) {
	rows := spottingList()
	rows[2][0] = "soon"
	rows = append(rows, []string{"", " ", "", ""})

	var skipped []*RowError
	opts := Options{
		Columns:         ColumnMapping{Start: Col(0), Dialogue: Col(2)},
		HasHeader:       true,
		Timestamp:       timestamp.DefaultOptions(),
		SkipBlankRows:   true,
		SkipInvalidRows: true,
		OnSkip:          func(e *RowError) { skipped = append(skipped, e) },
	}

	doc, err := Convert(rows, opts, nil)
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if len(doc.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(doc.Events))
	}
	if len(skipped) != 1 || skipped[0].Row != 3 {
		t.Errorf("unexpected skip reports: %v", skipped)
	}
}

func TestConvertAccumulates(t *testing.T) {
	opts := Options{
		Columns:   ColumnMapping{Dialogue: Col(0), Track: Col(1)},
		TopTracks: []string{"Sign"},
	}

	doc := subtitle.NewDocument()
	if _, err := Convert([][]string{{"a", "Main"}}, opts, doc); err != nil {
		t.Fatalf("first Convert failed: %v", err)
	}
	got, err := Convert([][]string{{"b", "Main"}, {"c", "Sign"}}, opts, doc)
	if err != nil {
		t.Fatalf("second Convert failed: %v", err)
	}
	if got != doc {
		t.Error("expected the supplied document to be returned")
	}
	if len(doc.Events) != 3 {
		t.Errorf("expected 3 events, got %d", len(doc.Events))
	}
	if doc.Styles.Len() != 3 {
		t.Errorf("expected Default, Main, Sign; got %d styles", doc.Styles.Len())
	}
	if s, _ := doc.Styles.Find("Sign"); s.Alignment != 8 {
		t.Errorf("expected Sign to be top aligned, got %d", s.Alignment)
	}
}

func TestConvertWorkbook(t *testing.T) {
	wb := &sheet.Workbook{
		Name: "list.xlsx",
		Sheets: []sheet.Worksheet{
			{Name: "Reel 1", Rows: [][]string{{"Text"}, {"one"}, {"two"}}},
			{Name: "Reel 2", Rows: [][]string{{"Text"}, {"three"}}},
			{Name: "Notes", Rows: [][]string{{"skip me"}}},
		},
	}
	opts := Options{Columns: ColumnMapping{Dialogue: Col(0)}, HasHeader: true}

	doc, err := ConvertWorkbook(wb, []string{"Reel 1", "Reel 2"}, opts, nil)
	if err != nil {
		t.Fatalf("ConvertWorkbook failed: %v", err)
	}
	if len(doc.Events) != 3 || doc.Events[2].Text != "three" {
		t.Errorf("unexpected events: %+v", doc.Events)
	}

	doc, err = ConvertWorkbook(wb, nil, opts, nil)
	if err != nil {
		t.Fatalf("ConvertWorkbook failed: %v", err)
	}
	if len(doc.Events) != 2 {
		t.Errorf("expected first sheet only, got %d events", len(doc.Events))
	}

	if _, err := ConvertWorkbook(wb, []string{"Missing"}, opts, nil); !errors.Is(err, sheet.ErrSheetNotFound) {
		t.Errorf("expected ErrSheetNotFound, got %v", err)
	}
}

func TestConvertWorkbookNamesSheetInRowError(t *testing.T) {
	wb := &sheet.Workbook{
		Sheets: []sheet.Worksheet{
			{Name: "Reel 1", Rows: [][]string{{"0:00:01.00"}, {"bad"}}},
		},
	}
	opts := Options{Columns: ColumnMapping{Start: Col(0)}}

	_, err := ConvertWorkbook(wb, nil, opts, nil)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected *RowError, got %v", err)
	}
	if rowErr.Sheet != "Reel 1" || rowErr.Row != 2 {
		t.Errorf("unexpected location: sheet %q row %d", rowErr.Sheet, rowErr.Row)
	}
}
