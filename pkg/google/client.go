// Package google adapts the Sheets, Docs and Gmail APIs to the workflow
// collaborator contracts.
package google

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/taskdispatch/pkg/auth"
)

// Services bundles the API services sharing one authenticated client.
type Services struct {
	Sheets *sheets.Service
	Docs   *docs.Service
	Gmail  *gmail.Service
}

// NewClient authenticates with opts and creates every service.
func NewClient(ctx context.Context, opts auth.Options) (*Services, error) {
	client, err := auth.GetClient(ctx, opts, auth.Scopes)
	if err != nil {
		return nil, err
	}
	return NewServices(ctx, option.WithHTTPClient(client))
}

// NewServices creates every service with the given client options.
func NewServices(ctx context.Context, opts ...option.ClientOption) (*Services, error) {
	sheetsSrv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}
	docsSrv, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Docs client: %w", err)
	}
	gmailSrv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Gmail client: %w", err)
	}
	return &Services{Sheets: sheetsSrv, Docs: docsSrv, Gmail: gmailSrv}, nil
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
