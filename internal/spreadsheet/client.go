// Package spreadsheet is a thin wrapper over the Sheets v4 API for a single
// spreadsheet: worksheet listing and creation, range reads and writes, and
// row sorting. Nothing is cached; every call goes to the remote service.
package spreadsheet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/steipete/quotesheet/internal/googleapi"
	"github.com/steipete/quotesheet/internal/googleauth"
)

// ValueInputOption makes the API parse written cells as if typed by a user.
const ValueInputOption = "USER_ENTERED"

type Client struct {
	svc   *sheets.Service
	id    string
	title string
}

type Worksheet struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Index       int64  `json:"index"`
	RowCount    int64  `json:"rowCount"`
	ColumnCount int64  `json:"columnCount"`
}

var newSheetsService = googleapi.NewSheets

// Open authorizes the service account and opens the spreadsheet with the
// given id. It fails if the spreadsheet is not shared with the account.
func Open(ctx context.Context, sa googleauth.ServiceAccount, spreadsheetID string) (*Client, error) {
	svc, err := newSheetsService(ctx, sa)
	if err != nil {
		return nil, err
	}
	return New(ctx, svc, spreadsheetID)
}

// New opens the spreadsheet through an already configured service.
func New(ctx context.Context, svc *sheets.Service, spreadsheetID string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("missing spreadsheet id")
	}

	resp, err := svc.Spreadsheets.Get(spreadsheetID).
		Fields("spreadsheetId", "properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	c := &Client{svc: svc, id: spreadsheetID}
	if resp.Properties != nil {
		c.title = resp.Properties.Title
	}
	slog.Debug("opened spreadsheet", "id", spreadsheetID, "title", c.title)
	return c, nil
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Title() string {
	return c.title
}

// Worksheets returns the spreadsheet's worksheets in tab order.
func (c *Client) Worksheets(ctx context.Context) ([]Worksheet, error) {
	resp, err := c.svc.Spreadsheets.Get(c.id).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	out := make([]Worksheet, 0, len(resp.Sheets))
	for _, sheet := range resp.Sheets {
		if sheet.Properties == nil {
			continue
		}
		out = append(out, worksheetFromProperties(sheet.Properties))
	}
	return out, nil
}

// Worksheet looks up a worksheet by its exact title.
func (c *Client) Worksheet(ctx context.Context, name string) (Worksheet, error) {
	all, err := c.Worksheets(ctx)
	if err != nil {
		return Worksheet{}, err
	}
	for _, ws := range all {
		if ws.Title == name {
			return ws, nil
		}
	}
	return Worksheet{}, &WorksheetNotFoundError{Name: name}
}

func worksheetFromProperties(p *sheets.SheetProperties) Worksheet {
	ws := Worksheet{
		ID:    p.SheetId,
		Title: p.Title,
		Index: p.Index,
	}
	if p.GridProperties != nil {
		ws.RowCount = p.GridProperties.RowCount
		ws.ColumnCount = p.GridProperties.ColumnCount
	}
	return ws
}
