package store

import (
	"context"
	"net/http"

	"github.com/cinaverse/go-client/pkg/apiclient"
	"github.com/cinaverse/go-client/pkg/session"
)

// ChildProfiles fetches the account's sub-profiles and refreshes the
// session's cached list.
func (s *Store) ChildProfiles(ctx context.Context) ([]session.ChildProfile, error) {
	var profiles []session.ChildProfile
	if err := s.client.Do(ctx, http.MethodGet, apiclient.PathChildProfiles, nil, &profiles); err != nil {
		return nil, err
	}
	s.session.SetChildProfiles(profiles)
	return profiles, nil
}

// ChildProfileInput are the inputs to create or update a sub-profile.
type ChildProfileInput struct {
	Name     string `json:"name"`
	AgeLimit int    `json:"ageLimit,omitempty"`
}

// CreateChildProfile creates a sub-profile and reloads the list.
func (s *Store) CreateChildProfile(ctx context.Context, input ChildProfileInput) (session.ChildProfile, error) {
	var created session.ChildProfile
	if err := s.client.Do(ctx, http.MethodPost, apiclient.PathChildProfiles, input, &created); err != nil {
		return session.ChildProfile{}, err
	}
	if _, err := s.ChildProfiles(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// UpdateChildProfile updates a sub-profile and reloads the list.
func (s *Store) UpdateChildProfile(ctx context.Context, id string, input ChildProfileInput) (session.ChildProfile, error) {
	var updated session.ChildProfile
	if err := s.client.Do(ctx, http.MethodPut, apiclient.ChildProfilePath(id), input, &updated); err != nil {
		return session.ChildProfile{}, err
	}
	if _, err := s.ChildProfiles(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// DeleteChildProfile removes a sub-profile and reloads the list. The active
// selection is cleared when it pointed at the removed profile.
func (s *Store) DeleteChildProfile(ctx context.Context, id string) error {
	res, err := s.client.DoRaw(ctx, http.MethodDelete, apiclient.ChildProfilePath(id), nil)
	if err != nil {
		return err
	}
	_ = res.Body.Close()

	if s.session.ActiveChildID() == id {
		s.session.ClearChildProfile(ctx)
	}
	_, err = s.ChildProfiles(ctx)
	return err
}
