package webhook

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/fareview/pkg/application"
	"github.com/felixgeelhaar/fareview/pkg/domain"
)

// slackPayload renders an event as a Slack incoming-webhook message.
func slackPayload(event application.AnalysisEvent) ([]byte, error) {
	text := formatSlackMessage(event)
	payload := map[string]interface{}{
		"text": text,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": text,
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal slack payload: %w", err)
	}
	return body, nil
}

func formatSlackMessage(event application.AnalysisEvent) string {
	name := filepath.Base(event.InputPath)
	switch event.Type {
	case domain.ActionAnalysisCompleted:
		msg := fmt.Sprintf(":white_check_mark: *%s* scored %.1f, grade %s", name, event.TotalScore, event.Grade)
		for _, w := range event.Warnings {
			msg += "\n:warning: " + w
		}
		return msg
	case domain.ActionAnalysisFailed:
		return fmt.Sprintf(":x: *%s* failed at the %s stage: %s", name, event.Stage, event.Error)
	default:
		return fmt.Sprintf("Fareview event: %s", event.Type)
	}
}
