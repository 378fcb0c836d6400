// ABOUTME: Google People API client construction
// ABOUTME: Builds an authenticated People service from an OAuth token source
package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

// NewPeopleService creates a People API service. Extra options are passed
// through, which tests use to point the service at a fake endpoint.
func NewPeopleService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*people.Service, error) {
	if ts == nil {
		return nil, fmt.Errorf("token source cannot be nil")
	}

	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	service, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return service, nil
}
