package backend

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// clientOptions resolves the credentials for a backend session. An
// explicit credentialsFile always wins; otherwise ambient application
// default credentials are resolved eagerly with
// golang.org/x/oauth2/google.FindDefaultCredentials so a missing or
// malformed environment fails at session-dial time with a clear error,
// rather than surfacing later as an opaque transport-level Unauthenticated
// status from the first query.
func clientOptions(ctx context.Context, credentialsFile string) ([]option.ClientOption, error) {
	if credentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}, nil
	}
	creds, err := google.FindDefaultCredentials(ctx, spannerScope, bigqueryScope)
	if err != nil {
		return nil, fmt.Errorf("resolve application default credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

const (
	spannerScope  = "https://www.googleapis.com/auth/spanner.data"
	bigqueryScope = "https://www.googleapis.com/auth/bigquery"
)
