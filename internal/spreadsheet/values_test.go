package spreadsheet

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	ggoogleapi "google.golang.org/api/googleapi"

	"github.com/steipete/quotesheet/internal/spreadsheet/spreadsheettest"
)

func TestAppendThenColumn(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddWorksheet("Ids", []string{"last scraped id"})
	ctx := context.Background()

	if err := c.Append(ctx, "Ids!A:A", [][]string{{"41"}, {"42"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.Append(ctx, "Ids!A:A", [][]string{{"43"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := c.Column(ctx, "Ids!A2:A")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if diff := cmp.Diff([]string{"41", "42", "43"}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	for _, w := range srv.Writes() {
		if w.InputOption != "USER_ENTERED" {
			t.Fatalf("expected USER_ENTERED, got %q", w.InputOption)
		}
	}
}

func TestUpdateThenColumn(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddWorksheet("Ids", []string{"old"}, []string{"older"})
	ctx := context.Background()

	rows := [][]string{{"a"}, {"b"}, {"c"}}
	if err := c.Update(ctx, "Ids!A1:A3", rows); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := c.Column(ctx, "Ids!A1:A3")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	writes := srv.Writes()
	if len(writes) != 1 || writes[0].Op != spreadsheettest.OpUpdate || writes[0].InputOption != "USER_ENTERED" {
		t.Fatalf("unexpected writes: %#v", writes)
	}
}

func TestValues_Empty(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddWorksheet("Quotes", []string{"Author", "Phrase", "Url"})

	n := 0
	for _, err := range c.Values(context.Background(), "Quotes!A2:A") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n++
	}
	if n != 0 {
		t.Fatalf("expected empty sequence, got %d values", n)
	}
}

func TestValues_MultiCellRow(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddWorksheet("Quotes",
		[]string{"Alice"},
		[]string{"Bob", "Hi"},
		[]string{"Carol"},
	)

	var got []string
	var shapeErr *RowShapeError
	for v, err := range c.Values(context.Background(), "Quotes!A1:B3") {
		if err != nil {
			if !errors.As(err, &shapeErr) {
				t.Fatalf("expected RowShapeError, got %v", err)
			}
			break
		}
		got = append(got, v)
	}

	if shapeErr == nil {
		t.Fatalf("expected failure on the two-cell row")
	}
	if shapeErr.Row != 2 || shapeErr.Cells != 2 || shapeErr.Range != "Quotes!A1:B3" {
		t.Fatalf("unexpected error: %#v", shapeErr)
	}
	if diff := cmp.Diff([]string{"Alice"}, got); diff != "" {
		t.Fatalf("values before failure mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Column(context.Background(), "Quotes!A1:B3"); !errors.As(err, &shapeErr) {
		t.Fatalf("Column must not truncate, got %v", err)
	}
}

func TestValues_EmptyRowInside(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddWorksheet("Ids", []string{"1"}, []string{""}, []string{"3"})

	_, err := c.Column(context.Background(), "Ids!A1:A3")

	var shapeErr *RowShapeError
	if !errors.As(err, &shapeErr) || shapeErr.Cells != 0 || shapeErr.Row != 2 {
		t.Fatalf("expected zero-cell RowShapeError, got %v", err)
	}
}

func TestValues_RefetchesOnEachRange(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddWorksheet("Ids", []string{"1"})
	ctx := context.Background()

	seq := c.Values(ctx, "Ids!A:A")

	count := func() int {
		n := 0
		for _, err := range seq {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			n++
		}
		return n
	}

	if n := count(); n != 1 {
		t.Fatalf("expected 1 value, got %d", n)
	}
	if err := c.Append(ctx, "Ids!A:A", [][]string{{"2"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n := count(); n != 2 {
		t.Fatalf("expected fresh fetch with 2 values, got %d", n)
	}
}

func TestValues_EarlyBreak(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddWorksheet("Ids", []string{"1"}, []string{"2"}, []string{"3"})

	var got []string
	for v, err := range c.Values(context.Background(), "Ids!A:A") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]string{"1", "2"}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestValues_RemoteError(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddWorksheet("Ids")
	srv.FailOn(spreadsheettest.OpGet, http.StatusForbidden)

	_, err := c.Column(context.Background(), "Ids!A:A")

	var gerr *ggoogleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusForbidden {
		t.Fatalf("expected remote 403, got %v", err)
	}
}

func TestAppend_RemoteError(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddWorksheet("Ids")
	srv.FailOn(spreadsheettest.OpAppend, http.StatusBadRequest)

	err := c.Append(context.Background(), "Ids!A:A", [][]string{{"1"}})

	var gerr *ggoogleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusBadRequest {
		t.Fatalf("expected remote 400, got %v", err)
	}
}

func TestEndToEndQuotes(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := c.CreateWorksheet(ctx, "Quotes"); err != nil {
		t.Fatalf("CreateWorksheet: %v", err)
	}
	if err := c.Append(ctx, "Quotes!A:C", [][]string{{"Alice", "Hello world", "http://a"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := c.Column(ctx, "Quotes!A2:A2")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if diff := cmp.Diff([]string{"Alice"}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}
