package spreadsheet

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/api/sheets/v4"
)

// Values returns the single-column values of a range. The range is fetched
// when the sequence is ranged over, and again on every new range loop.
//
// Every fetched row must hold exactly one cell. A row that does not yields a
// *RowShapeError and ends the sequence; a range with no data yields nothing.
func (c *Client) Values(ctx context.Context, rng string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.svc.Spreadsheets.Values.Get(c.id, rng).Context(ctx).Do()
		if err != nil {
			yield("", err)
			return
		}

		for i, row := range resp.Values {
			if len(row) != 1 {
				yield("", &RowShapeError{Range: rng, Row: i + 1, Cells: len(row)})
				return
			}
			if !yield(fmt.Sprintf("%v", row[0]), nil) {
				return
			}
		}
	}
}

// Column collects Values into a slice.
func (c *Client) Column(ctx context.Context, rng string) ([]string, error) {
	out := make([]string, 0)
	for v, err := range c.Values(ctx, rng) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Append adds rows after the last row with data in rng.
func (c *Client) Append(ctx context.Context, rng string, rows [][]string) error {
	_, err := c.svc.Spreadsheets.Values.Append(c.id, rng, valueRange(rows)).
		ValueInputOption(ValueInputOption).
		Context(ctx).
		Do()
	return err
}

// Update overwrites rng with rows.
func (c *Client) Update(ctx context.Context, rng string, rows [][]string) error {
	_, err := c.svc.Spreadsheets.Values.Update(c.id, rng, valueRange(rows)).
		ValueInputOption(ValueInputOption).
		Context(ctx).
		Do()
	return err
}

func valueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return &sheets.ValueRange{Values: values}
}
