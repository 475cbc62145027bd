package spreadsheet

import (
	"context"
	"log/slog"

	"google.golang.org/api/sheets/v4"
)

// SortOrder is passed through to the API unchecked.
type SortOrder string

const (
	Ascending  SortOrder = "ASCENDING"
	Descending SortOrder = "DESCENDING"
)

// Sort orders the rows of the named worksheet by a zero-based column. Row 1
// is treated as a header and stays in place.
func (c *Client) Sort(ctx context.Context, worksheet string, column int64, order SortOrder) error {
	ws, err := c.Worksheet(ctx, worksheet)
	if err != nil {
		return err
	}

	rng := gridRange(ws.ID)
	rng.StartRowIndex = 1

	slog.Debug("sorting worksheet", "title", ws.Title, "column", column, "order", order)
	_, err = c.svc.Spreadsheets.BatchUpdate(c.id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				SortRange: &sheets.SortRangeRequest{
					Range: rng,
					SortSpecs: []*sheets.SortSpec{
						{
							DimensionIndex:  column,
							SortOrder:       string(order),
							ForceSendFields: []string{"DimensionIndex"},
						},
					},
				},
			},
		},
	}).Context(ctx).Do()
	return err
}

// SortDefault sorts the named worksheet by its first column, ascending.
func (c *Client) SortDefault(ctx context.Context, worksheet string) error {
	return c.Sort(ctx, worksheet, 0, Ascending)
}
