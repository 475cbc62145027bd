package googleapi

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/steipete/quotesheet/internal/googleauth"
)

// NewSheets authorizes the service account with the JWT flow and returns a
// Sheets client. Token refresh is left to the oauth2 transport.
func NewSheets(ctx context.Context, sa googleauth.ServiceAccount) (*sheets.Service, error) {
	slog.Debug("creating sheets service", "client_email", sa.ClientEmail)

	cfg, err := google.JWTConfigFromJSON(sa.Raw, googleauth.Scopes()...)
	if err != nil {
		return nil, fmt.Errorf("service account config: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		slog.Error("failed to create sheets service", "client_email", sa.ClientEmail, "error", err)
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.Debug("sheets service created successfully", "client_email", sa.ClientEmail)
	return svc, nil
}
