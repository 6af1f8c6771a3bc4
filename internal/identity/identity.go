// Package identity resolves the author shown for a thread or post. It is a
// pure function of already-fetched data; fetching belongs to the aggregation
// layer.
package identity

import "github.com/loopinhq/loopin/internal/models"

// AnonymousName is the display name shown whenever a thread or post was
// created anonymously, regardless of the real profile.
const AnonymousName = "Anonymous"

// UnknownName is shown when a non-anonymous author has neither a display
// name nor an email on record.
const UnknownName = "Unknown"

// Author is the resolved display identity for one entity.
type Author struct {
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Resolve produces the author identity for an entity. When isAnonymous is
// set the real profile is never consulted. profile may be nil (the profile
// row failed to load or the author is gone); display falls back through
// display_name, email, then UnknownName.
func Resolve(isAnonymous bool, profile *models.Profile) Author {
	if isAnonymous {
		return Author{DisplayName: AnonymousName}
	}
	if profile == nil {
		return Author{DisplayName: UnknownName}
	}
	name := UnknownName
	if profile.DisplayName != nil && *profile.DisplayName != "" {
		name = *profile.DisplayName
	} else if profile.Email != "" {
		name = profile.Email
	}
	return Author{DisplayName: name, AvatarURL: profile.AvatarURL}
}

// Session is the authenticated caller as seen by the identity layer.
type Session struct {
	UserID string
	Email  string
}

// Composer carries the caller's composing state: who they are and whether
// the anonymous-mode toggle is on. It is passed explicitly down to creation
// calls; there is no ambient global.
type Composer struct {
	Session   Session
	Profile   *models.Profile
	Anonymous bool
}

// PostingAs returns the identity the composer's next thread or post will be
// attributed to. When the profile row has not loaded yet it degrades to the
// session email rather than blocking.
func (c Composer) PostingAs() Author {
	if c.Anonymous {
		return Author{DisplayName: AnonymousName}
	}
	if c.Profile == nil {
		if c.Session.Email != "" {
			return Author{DisplayName: c.Session.Email}
		}
		return Author{DisplayName: UnknownName}
	}
	return Resolve(false, c.Profile)
}
