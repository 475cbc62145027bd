package spreadsheet

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/sheets/v4"
)

const (
	newSheetRows    = 100
	newSheetColumns = 4

	fontFamily = "Calibri"
	fontSize   = 10
)

// header is written to row 1 of every created worksheet. The fourth column
// is sized for a last-scraped-id marker but has no label.
var header = []string{"Author", "Phrase", "Url"}

type columnWidth struct {
	start, end int64 // end 0 means open-ended
	pixels     int64
}

var columnWidths = []columnWidth{
	{start: 0, end: 1, pixels: 270}, // Author
	{start: 1, end: 2, pixels: 850}, // Phrase
	{start: 2, end: 3, pixels: 370}, // Url
	{start: 3, end: 0, pixels: 200}, // last scraped id
}

// Header returns the header row applied by CreateWorksheet.
func Header() []string {
	return append([]string(nil), header...)
}

// CreateWorksheet adds a worksheet, formats it and writes the header row.
// These are three separate remote calls. If the first one fails its error is
// returned as is; a later failure returns a *CreateError describing which
// steps completed.
func (c *Client) CreateWorksheet(ctx context.Context, name string) (Worksheet, error) {
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: name,
						GridProperties: &sheets.GridProperties{
							RowCount:    newSheetRows,
							ColumnCount: newSheetColumns,
						},
					},
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return Worksheet{}, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return Worksheet{}, fmt.Errorf("add worksheet %q: empty reply", name)
	}

	ws := worksheetFromProperties(resp.Replies[0].AddSheet.Properties)
	slog.Debug("worksheet added", "title", ws.Title, "id", ws.ID)

	completed := []CreateStep{StepAddSheet}
	fail := func(step CreateStep, err error) (Worksheet, error) {
		return ws, &CreateError{Worksheet: ws, Completed: completed, Failed: step, Err: err}
	}

	if _, err := c.svc.Spreadsheets.BatchUpdate(c.id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: formatRequests(ws.ID),
	}).Context(ctx).Do(); err != nil {
		return fail(StepFormat, err)
	}
	completed = append(completed, StepFormat)

	if err := c.Append(ctx, QuoteSheetName(ws.Title), [][]string{Header()}); err != nil {
		return fail(StepHeader, err)
	}

	return ws, nil
}

func formatRequests(sheetID int64) []*sheets.Request {
	reqs := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							FontFamily: fontFamily,
							FontSize:   fontSize,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:         sheetID,
					GridProperties:  &sheets.GridProperties{FrozenRowCount: 1},
					ForceSendFields: []string{"SheetId"},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	for _, w := range columnWidths {
		r := &sheets.DimensionRange{
			SheetId:         sheetID,
			Dimension:       "COLUMNS",
			StartIndex:      w.start,
			EndIndex:        w.end,
			ForceSendFields: []string{"SheetId"},
		}
		reqs = append(reqs, &sheets.Request{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range:      r,
				Properties: &sheets.DimensionProperties{PixelSize: w.pixels},
				Fields:     "pixelSize",
			},
		})
	}
	return reqs
}

// gridRange covers a whole worksheet. SheetId is forced because the first
// worksheet of a spreadsheet usually has id 0.
func gridRange(sheetID int64) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:         sheetID,
		ForceSendFields: []string{"SheetId"},
	}
}
