package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-pkgz/lgr"
)

// Client fetches a secondary document, e.g. the latest comment of a
// notification subject. Secondary fetches never revalidate.
type Client interface {
	Fetch(ctx context.Context, url string, st *State) (Result, error)
}

// AvatarStore resolves a user id and avatar URL to a local image path.
type AvatarStore interface {
	GetOrFetch(ctx context.Context, id int64, url string) (string, bool)
}

// Decoder converts the raw notifications document into Notification records.
// Each malformed element is skipped on its own; one bad entry or one flaky
// secondary fetch never suppresses the rest of the batch. Only an unparseable
// document fails the whole cycle.
type Decoder struct {
	client  Client
	avatars AvatarStore // nil when avatar fetching is disabled
}

// NewDecoder creates a decoder; avatars may be nil to disable icon lookups
func NewDecoder(client Client, avatars AvatarStore) *Decoder {
	return &Decoder{client: client, avatars: avatars}
}

// wire shapes, pointer fields to tell absent from empty
type rawEntry struct {
	Reason  *string `json:"reason"`
	Subject *struct {
		Type             *string `json:"type"`
		Title            *string `json:"title"`
		LatestCommentURL *string `json:"latest_comment_url"`
	} `json:"subject"`
	Repository *struct {
		Name    *string `json:"name"`
		HTMLURL *string `json:"html_url"`
	} `json:"repository"`
}

type rawComment struct {
	User *struct {
		Login     *string `json:"login"`
		ID        *int64  `json:"id"`
		AvatarURL *string `json:"avatar_url"`
	} `json:"user"`
}

// Decode parses the notifications document. The returned error covers
// batch-level failures only (document not a JSON array); per-element failures
// are logged and skipped.
func (d *Decoder) Decode(ctx context.Context, raw []byte) ([]Notification, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode notifications document: %w", err)
	}

	res := make([]Notification, 0, len(entries))
	for i, e := range entries {
		n, err := d.decodeEntry(ctx, e)
		if err != nil {
			lgr.Printf("[INFO] skip notification %d: %v", i, err)
			continue
		}
		res = append(res, n)
	}
	return res, nil
}

// decodeEntry extracts one notification, failing on the first missing or
// wrong-typed required field.
func (d *Decoder) decodeEntry(ctx context.Context, raw json.RawMessage) (Notification, error) {
	var entry rawEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Notification{}, fmt.Errorf("malformed entry: %w", err)
	}

	var n Notification
	var err error

	if n.Reason, err = required(entry.Reason, "reason"); err != nil {
		return Notification{}, err
	}

	if entry.Subject == nil {
		return Notification{}, errors.New(`missing object "subject"`)
	}
	if n.Type, err = required(entry.Subject.Type, "subject.type"); err != nil {
		return Notification{}, err
	}
	if n.Title, err = required(entry.Subject.Title, "subject.title"); err != nil {
		return Notification{}, err
	}

	if entry.Repository == nil {
		return Notification{}, errors.New(`missing object "repository"`)
	}
	if n.Repository, err = required(entry.Repository.Name, "repository.name"); err != nil {
		return Notification{}, err
	}
	if n.RepositoryURL, err = required(entry.Repository.HTMLURL, "repository.html_url"); err != nil {
		return Notification{}, err
	}

	commentURL, err := required(entry.Subject.LatestCommentURL, "subject.latest_comment_url")
	if err != nil {
		return Notification{}, err
	}

	// the comment detail carries user login, id and avatar
	res, err := d.client.Fetch(ctx, commentURL, nil)
	if err != nil {
		return Notification{}, fmt.Errorf("fetch comment: %w", err)
	}
	var comment rawComment
	if err := json.Unmarshal(res.Body, &comment); err != nil {
		return Notification{}, fmt.Errorf("malformed comment: %w", err)
	}
	if comment.User == nil {
		return Notification{}, errors.New(`missing object "user"`)
	}
	if n.User, err = required(comment.User.Login, "user.login"); err != nil {
		return Notification{}, err
	}
	if comment.User.ID == nil {
		return Notification{}, errors.New(`missing field "user.id"`)
	}

	if d.avatars != nil {
		avatarURL, err := required(comment.User.AvatarURL, "user.avatar_url")
		if err != nil {
			return Notification{}, err
		}
		// best-effort, a notification without an icon is still valid
		if path, ok := d.avatars.GetOrFetch(ctx, *comment.User.ID, avatarURL); ok {
			n.AvatarPath = path
		}
	}

	lgr.Printf("[INFO] new notification: repository=%s type=%s reason=%s", n.Repository, n.Type, n.Reason)
	return n, nil
}

// required unwraps a mandatory string field, rejecting empty values
func required(s *string, name string) (string, error) {
	if s == nil || *s == "" {
		return "", fmt.Errorf("missing field %q", name)
	}
	return *s, nil
}
