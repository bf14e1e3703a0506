package integrations

import (
	"context"
	"fmt"
	"strings"

	integration_models "promptdesk-backend/internal/models/integrations"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Ensure SlackIntegration implements the Integration interface.
var _ Integration = (*SlackIntegration)(nil)

// SlackIntegration verifies bot tokens used for item notifications.
type SlackIntegration struct {
	apiURL string
	logger *zap.Logger
}

// NewSlackIntegration creates a new Slack integration handler. An empty
// apiURL uses slack.com.
func NewSlackIntegration(apiURL string, logger *zap.Logger) *SlackIntegration {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlackIntegration{apiURL: apiURL, logger: logger}
}

func (s *SlackIntegration) ValidateCredentials(creds integration_models.DecryptedCredentials) error {
	if err := requireFields(creds, "bot_token"); err != nil {
		return err
	}
	if !strings.HasPrefix(creds["bot_token"], "xoxb-") {
		return fmt.Errorf("bot_token must be a bot token (xoxb-...)")
	}
	return nil
}

// TestConnection tests the connection to Slack using the bot token.
func (s *SlackIntegration) TestConnection(ctx context.Context, creds integration_models.DecryptedCredentials) (*integration_models.TestConnectionResult, error) {
	botToken := creds["bot_token"]
	if botToken == "" {
		return &integration_models.TestConnectionResult{
			Success: false,
			Message: "Missing or empty 'bot_token' in Slack credentials",
		}, nil
	}

	var opts []slack.Option
	if s.apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(s.apiURL))
	}
	client := slack.New(botToken, opts...)

	authTestResponse, err := client.AuthTestContext(ctx)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "invalid_auth") {
			return &integration_models.TestConnectionResult{
				Success: false,
				Message: "Slack API Error: Invalid authentication token (bot_token).",
			}, nil
		} else if strings.Contains(errStr, "not_authed") {
			return &integration_models.TestConnectionResult{
				Success: false,
				Message: "Slack API Error: Not authenticated (check token scopes?).",
			}, nil
		}

		s.logger.Error("Unhandled Slack error during auth.test", zap.Error(err))
		return nil, fmt.Errorf("failed during Slack connection test (AuthTest): %w", err)
	}

	details := map[string]interface{}{
		"bot_name":    authTestResponse.User,
		"bot_user_id": authTestResponse.UserID,
		"team_id":     authTestResponse.TeamID,
	}
	if ch := creds["channel_id"]; ch != "" {
		details["channel_id"] = ch
	}

	return &integration_models.TestConnectionResult{
		Success: true,
		Message: fmt.Sprintf("Connected to Slack workspace '%s' as bot '%s' (ID: %s)", authTestResponse.Team, authTestResponse.User, authTestResponse.UserID),
		Details: details,
	}, nil
}

// GetCredentialSchema returns an empty SlackCredentials struct to define the expected credential keys.
func (s *SlackIntegration) GetCredentialSchema() interface{} {
	return integration_models.SlackCredentials{}
}
