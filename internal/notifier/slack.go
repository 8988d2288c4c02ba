package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/amishk599/themecat/internal/report"
	"github.com/amishk599/themecat/internal/retry"
)

// Ensure SlackNotifier implements Notifier.
var _ Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts run summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	sleep      retry.Sleeper
}

// NewSlackNotifier returns a notifier that posts each report to webhookURL.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		sleep:      retry.SleepContext,
	}
}

// Notify posts r as a Block Kit message. A 429 response is retried once after
// the Retry-After delay.
func (s *SlackNotifier) Notify(ctx context.Context, r report.Report) error {
	msg := buildMessage(r)

	err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, msg)
	var rateLimited *slack.RateLimitedError
	if errors.As(err, &rateLimited) {
		wait := rateLimited.RetryAfter
		if wait <= 0 {
			wait = time.Second
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after", wait)
		if err := s.sleep(ctx, wait); err != nil {
			return fmt.Errorf("post to slack: %w", err)
		}
		if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, msg); err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		s.logger.Info("slack message sent", "run_id", r.RunID, "retried", true)
		return nil
	}
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}

	s.logger.Info("slack message sent", "run_id", r.RunID)
	return nil
}

func buildMessage(r report.Report) *slack.WebhookMessage {
	mrkdwn := func(s string) *slack.TextBlockObject {
		return slack.NewTextBlockObject(slack.MarkdownType, s, false, false)
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Theme extraction run complete", false, false)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			mrkdwn(fmt.Sprintf("*Reviews:*\n%d", r.Run.TotalReviews)),
			mrkdwn(fmt.Sprintf("*With themes:*\n%d (%.1f%%)", r.Run.SuccessfulExtractions, r.Run.SuccessRate*100)),
			mrkdwn(fmt.Sprintf("*Failed:*\n%d", r.Run.FailedExtractions)),
			mrkdwn(fmt.Sprintf("*Themes extracted:*\n%d", r.Run.TotalThemesExtracted)),
		}, nil),
	}

	if r.Eval != nil {
		blocks = append(blocks, slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			mrkdwn(fmt.Sprintf("*Identification rate:*\n%.1f%%", r.Eval.ThemeIdentificationRate)),
			mrkdwn(fmt.Sprintf("*Novel themes:*\n%.1f%%", r.Eval.NovelThemesPercentage)),
			mrkdwn(fmt.Sprintf("*Ground truth themes:*\n%d", r.Eval.TotalGroundTruthThemes)),
			mrkdwn(fmt.Sprintf("*Identified:*\n%d", r.Eval.TotalIdentified)),
		}, nil))
	}

	blocks = append(blocks,
		slack.NewContextBlock("",
			mrkdwn(fmt.Sprintf("run `%s` · model `%s` · %s · %s", r.RunID, r.Model, r.Source, r.Duration.Round(time.Second))),
		),
		slack.NewDividerBlock(),
	)

	return &slack.WebhookMessage{
		Text:   r.Summary(),
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}
