package errfmt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
	ggoogleapi "google.golang.org/api/googleapi"

	"github.com/steipete/quotesheet/internal/googleauth"
	"github.com/steipete/quotesheet/internal/spreadsheet"
)

func Format(err error) string {
	if err == nil {
		return ""
	}

	var credErr *googleauth.CredentialsMissingError
	if errors.As(err, &credErr) {
		if credErr.Path == "" {
			return "Service account credentials missing. Pass --credentials <key.json> or run: quotesheet auth credentials <key.json>"
		}
		return fmt.Sprintf("Service account key not found at %s. Pass --credentials <key.json> or run: quotesheet auth credentials <key.json>", credErr.Path)
	}

	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "Secret not found in keyring. Run: quotesheet auth credentials <key.json>"
	}

	var createErr *spreadsheet.CreateError
	if errors.As(err, &createErr) {
		done := make([]string, 0, len(createErr.Completed))
		for _, s := range createErr.Completed {
			done = append(done, string(s))
		}
		return fmt.Sprintf("Worksheet %q (id %d) was created but %s failed (completed: %s): %s",
			createErr.Worksheet.Title, createErr.Worksheet.ID, createErr.Failed, strings.Join(done, ", "), Format(createErr.Err))
	}

	var shapeErr *spreadsheet.RowShapeError
	if errors.As(err, &shapeErr) {
		return fmt.Sprintf("%s\nRestrict the range to a single column, e.g. Sheet1!A2:A", shapeErr.Error())
	}

	var nf *spreadsheet.WorksheetNotFoundError
	if errors.As(err, &nf) {
		return fmt.Sprintf("%s. Run: quotesheet worksheets", nf.Error())
	}

	if errors.Is(err, os.ErrNotExist) {
		return err.Error()
	}

	var gerr *ggoogleapi.Error
	if errors.As(err, &gerr) {
		reason := ""
		if len(gerr.Errors) > 0 && gerr.Errors[0].Reason != "" {
			reason = gerr.Errors[0].Reason
		}

		if reason != "" {
			return fmt.Sprintf("Google API error (%d %s): %s", gerr.Code, reason, gerr.Message)
		}

		return fmt.Sprintf("Google API error (%d): %s", gerr.Code, gerr.Message)
	}

	return err.Error()
}
