package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/clients/sheetsclient"
	"github.com/ssds/seat-allocation/pkg/db"
	"github.com/ssds/seat-allocation/pkg/metrics"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Database db.RunStore
	Registry *prometheus.Registry
	Recorder metrics.Recorder
	Logger   *zap.Logger
	Ctx      context.Context

	sheetsClient *sheetsclient.Client
	closers      []func()
}

// SheetsClient returns the Google Sheets client, authenticating on first use.
// Commands that never touch a spreadsheet do not need OAuth credentials.
func (a *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if a.sheetsClient != nil {
		return a.sheetsClient, nil
	}

	a.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	a.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(a.Ctx, oauthCfg, a.Env, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	a.Logger.Debug("Sheets client initialized successfully")

	a.sheetsClient = client
	return client, nil
}

// OnClose registers cleanup to run when the process exits
func (a *AppContext) OnClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close runs registered cleanup in reverse order
func (a *AppContext) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
