package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
)

// capability tokens per the freedesktop.org notification spec
const (
	tokenBody        = "body"
	tokenHyperlinks  = "body-hyperlinks"
	tokenMarkup      = "body-markup"
	tokenPersistence = "persistence"
)

// Capabilities are the rendering features the notification server supports
type Capabilities struct {
	Body        bool
	Hyperlinks  bool
	Markup      bool
	Persistence bool
}

// Registry is the one-time snapshot of the notification server: its
// capability flags and its identity. Populated once at startup and read-only
// afterwards; there is no re-negotiation.
type Registry struct {
	Caps     Capabilities
	Identity Identity
}

// Target is the handshake surface of a notification server
type Target interface {
	Capabilities() ([]string, error)
	Info() (Identity, error)
}

// Negotiate queries the target for its capability tokens and identity. It
// retries briefly because the notification server may still be coming up with
// the session; failure after that is fatal to startup, the daemon cannot
// decide how to render without a registry.
func Negotiate(ctx context.Context, target Target) (Registry, error) {
	var reg Registry
	retrier := repeater.NewBackoff(3, 500*time.Millisecond, repeater.WithMaxDelay(5*time.Second))
	err := retrier.Do(ctx, func() error {
		tokens, err := target.Capabilities()
		if err != nil {
			return fmt.Errorf("query capabilities: %w", err)
		}
		id, err := target.Info()
		if err != nil {
			return fmt.Errorf("query server info: %w", err)
		}
		reg = Registry{Caps: mapTokens(tokens), Identity: id}
		return nil
	})
	if err != nil {
		return Registry{}, fmt.Errorf("notification server handshake: %w", err)
	}

	lgr.Printf("[INFO] notification server: name=%s vendor=%s version=%s spec_version=%s",
		reg.Identity.Name, reg.Identity.Vendor, reg.Identity.Version, reg.Identity.SpecVersion)
	return reg, nil
}

// mapTokens folds advertised tokens into capability flags, ignoring unknown ones
func mapTokens(tokens []string) Capabilities {
	var caps Capabilities
	for _, t := range tokens {
		switch t {
		case tokenBody:
			caps.Body = true
		case tokenHyperlinks:
			caps.Hyperlinks = true
		case tokenMarkup:
			caps.Markup = true
		case tokenPersistence:
			caps.Persistence = true
		}
	}
	return caps
}
