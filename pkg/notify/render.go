package notify

import (
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"

	"github.com/lskalski/github-notifyd/pkg/feed"
)

const summary = "You have received a new GitHub Notification"

// Quirk corrects a known rendering defect of a specific notification server.
// An empty Version matches any version of the (name, vendor) pair.
type Quirk struct {
	Name              string
	Vendor            string
	Version           string
	Newline           string // replaces "\n" as the body line separator when set
	DisableHyperlinks bool
}

// builtinQuirks is the override table for servers with known defects.
// Deployments can extend it through the config file instead of patching code.
var builtinQuirks = []Quirk{
	// Plasma 1.0 does not render raw newlines in notification bodies
	{Name: "Plasma", Vendor: "KDE", Version: "1.0", Newline: "<br/>"},
	// xfce4-notifyd renders hyperlinks broken regardless of advertised support
	{Name: "Xfce Notify Daemon", Vendor: "Xfce", DisableHyperlinks: true},
}

// Renderer converts notifications into presentation payloads, honoring the
// negotiated registry and the quirk table. Render is a pure function of its
// inputs apart from the degraded-persistence log notice.
type Renderer struct {
	registry   Registry
	quirks     []Quirk
	persistent bool
	stripper   *bluemonday.Policy
}

// NewRenderer creates a renderer; extra quirks are applied after built-in ones
func NewRenderer(registry Registry, extra []Quirk, persistent bool) *Renderer {
	quirks := make([]Quirk, 0, len(builtinQuirks)+len(extra))
	quirks = append(quirks, builtinQuirks...)
	quirks = append(quirks, extra...)
	return &Renderer{
		registry:   registry,
		quirks:     quirks,
		persistent: persistent,
		stripper:   bluemonday.StrictPolicy(),
	}
}

// Render produces the payload for one notification
func (r *Renderer) Render(n feed.Notification) Payload {
	caps := r.registry.Caps
	newline := "\n"

	for _, q := range r.quirks {
		if q.Name != r.registry.Identity.Name || q.Vendor != r.registry.Identity.Vendor {
			continue
		}
		if q.Version != "" && q.Version != r.registry.Identity.Version {
			continue
		}
		if q.Newline != "" {
			newline = q.Newline
		}
		if q.DisableHyperlinks {
			caps.Hyperlinks = false
		}
	}

	bold, boldEnd := "<b>", "</b>"
	if !caps.Markup {
		bold, boldEnd = "", ""
	}

	// some servers only show the summary; append body text only when supported
	var body strings.Builder
	if caps.Body {
		fmt.Fprintf(&body, "%sRepository:%s\t %s%s", bold, boldEnd, n.Repository, newline)
		fmt.Fprintf(&body, "%sType:%s\t\t %s%s", bold, boldEnd, n.Type, newline)
		fmt.Fprintf(&body, "%sTitle:%s\t\t %s%s", bold, boldEnd, n.Title, newline)
		fmt.Fprintf(&body, "%sUser:%s\t\t %s", bold, boldEnd, n.User)
		if caps.Hyperlinks {
			fmt.Fprintf(&body, "%s%sLink:%s\t\t <a href=%q>Link to Repository</a>",
				newline, bold, boldEnd, n.RepositoryURL)
		}
	}

	text := body.String()
	if !caps.Markup {
		// servers without markup support are supposed to filter tags out
		// themselves, but strip whatever came in with the source text anyway
		text = r.stripper.Sanitize(text)
	}

	transient := !r.persistent
	if r.persistent && !caps.Persistence {
		lgr.Printf("[INFO] notification server doesn't support persistent notifications")
		transient = true
	}

	return Payload{
		Summary:   summary,
		Body:      text,
		IconPath:  n.AvatarPath,
		Transient: transient,
		Urgency:   UrgencyNormal,
	}
}

// AuthErrorPayload is the single per-cycle notification for a rejected token
func AuthErrorPayload() Payload {
	return Payload{
		Summary: "'github-notifyd' authorization error - please check access token value",
		Urgency: UrgencyCritical,
	}
}

// ErrorPayload is the single per-cycle notification for any other cycle failure
func ErrorPayload() Payload {
	return Payload{
		Summary: "'github-notifyd' undefined error - please check the logs for more information",
		Urgency: UrgencyCritical,
	}
}
