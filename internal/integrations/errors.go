package integrations

import (
	"errors"
	"fmt"
	"strings"

	integration_models "promptdesk-backend/internal/models/integrations"
)

var (
	ErrUnknownService   = errors.New("no integration registered for service type")
	ErrMissingCredField = errors.New("missing credential field")
)

// requireFields reports every key of names that is absent or blank in creds.
func requireFields(creds integration_models.DecryptedCredentials, names ...string) error {
	var missing []string
	for _, n := range names {
		if strings.TrimSpace(creds[n]) == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredField, strings.Join(missing, ", "))
	}
	return nil
}
