// Package notify implements the optional ops failure notifier
// (SPEC_FULL.md §3.3): a one-line Slack ping on fatal run termination.
// Grounded on the teacher's pkg/slack.Notifier, trimmed to the single
// PostFailure use case — no blocks, threads, DMs, or modals.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"
)

// Notifier posts a failure summary to a configured Slack channel.
type Notifier struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// New creates a Notifier. If botToken or channel is empty, IsEnabled
// reports false and PostFailure is a no-op.
func New(botToken, channel string, logger *slog.Logger) *Notifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &Notifier{client: client, channel: channel, logger: logger}
}

// IsEnabled reports whether the notifier has a usable client and channel.
func (n *Notifier) IsEnabled() bool {
	return n.client != nil && n.channel != ""
}

// PostFailure posts a one-line failure summary: run id, error kind, exit
// code. Never returns an error that should abort the run — notification
// failure is logged and swallowed (SPEC_FULL.md §3.3).
func (n *Notifier) PostFailure(ctx context.Context, runID, errorKind string, exitCode int) {
	if !n.IsEnabled() {
		n.logger.Debug("slack notifier disabled, skipping failure post", "run_id", runID, "error_kind", errorKind)
		return
	}

	text := fmt.Sprintf("ingestor run %s failed: %s (exit %d)", runID, errorKind, exitCode)
	_, _, err := n.client.PostMessageContext(ctx, n.channel, goslack.MsgOptionText(text, false))
	if err != nil {
		n.logger.Error("posting failure notification to slack", "error", err, "run_id", runID)
		return
	}
	n.logger.Info("posted failure notification to slack", "run_id", runID, "channel", n.channel)
}
