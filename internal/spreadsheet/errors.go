package spreadsheet

import (
	"fmt"
	"strings"
)

// RowShapeError reports a fetched row that is not exactly one cell wide.
// Row is 1-based within the fetched range.
type RowShapeError struct {
	Range string
	Row   int
	Cells int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("range %s: row %d has %d cells, expected exactly 1", e.Range, e.Row, e.Cells)
}

type WorksheetNotFoundError struct {
	Name string
}

func (e *WorksheetNotFoundError) Error() string {
	return fmt.Sprintf("worksheet %q not found", e.Name)
}

// CreateStep names one remote mutation of CreateWorksheet.
type CreateStep string

const (
	StepAddSheet CreateStep = "add-sheet"
	StepFormat   CreateStep = "format"
	StepHeader   CreateStep = "header"
)

// CreateError is returned when CreateWorksheet fails after the worksheet
// itself was created. The worksheet is left in place; nothing is rolled back.
type CreateError struct {
	Worksheet Worksheet
	Completed []CreateStep
	Failed    CreateStep
	Err       error
}

func (e *CreateError) Error() string {
	done := make([]string, 0, len(e.Completed))
	for _, s := range e.Completed {
		done = append(done, string(s))
	}
	return fmt.Sprintf("create worksheet %q: %s failed after [%s]: %v",
		e.Worksheet.Title, e.Failed, strings.Join(done, ", "), e.Err)
}

func (e *CreateError) Unwrap() error {
	return e.Err
}
