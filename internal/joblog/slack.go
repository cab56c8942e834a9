package joblog

import (
	"context"
	"fmt"
	"strings"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/qbsync/internal/domain"
)

// SlackAPI abstracts the subset of the Slack client used by SlackSink.
type SlackAPI interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackSink posts alerting entries (abandoned jobs, connection errors) to a
// channel. Other entries are ignored.
type SlackSink struct {
	api     SlackAPI
	channel string
}

// NewSlackSink creates a sink posting to channel.
func NewSlackSink(api SlackAPI, channel string) *SlackSink {
	return &SlackSink{api: api, channel: channel}
}

// Record posts entry if it is alerting.
func (s *SlackSink) Record(_ context.Context, entry domain.JobLogEntry) error {
	if !Alerting(entry) {
		return nil
	}

	summary := alertSummary(entry)
	_, _, err := s.api.PostMessage(s.channel,
		slacklib.MsgOptionText(summary, false),
		slacklib.MsgOptionBlocks(BuildAlertBlocks(entry)...),
	)
	if err != nil {
		return fmt.Errorf("joblog.SlackSink.Record: %w", err)
	}
	return nil
}

func alertSummary(entry domain.JobLogEntry) string {
	if entry.Kind == domain.CategoryConnection {
		return "QuickBooks connection error: " + entry.Message
	}
	return fmt.Sprintf("QuickBooks sync gave up on %s %s", entry.Kind, entry.JobID)
}

// BuildAlertBlocks builds the Block Kit body of an alert.
func BuildAlertBlocks(entry domain.JobLogEntry) []slacklib.Block {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", alertSummary(entry))
	fmt.Fprintf(&b, "*Status:* `%s`\n*Ticket:* `%s`", entry.Status, entry.Ticket)
	if entry.RequestID != "" {
		fmt.Fprintf(&b, "\n*Request:* `%s`", entry.RequestID)
	}

	blocks := []slacklib.Block{
		slacklib.NewSectionBlock(
			slacklib.NewTextBlockObject(slacklib.MarkdownType, b.String(), false, false),
			nil,
			nil,
		),
	}

	if entry.Message != "" && entry.Kind != domain.CategoryConnection {
		blocks = append(blocks, slacklib.NewContextBlock("",
			slacklib.NewTextBlockObject(slacklib.PlainTextType, entry.Message, false, false),
		))
	}
	return blocks
}
