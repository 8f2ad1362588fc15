package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lskalski/github-notifyd/pkg/feed"
)

func testNotification() feed.Notification {
	return feed.Notification{
		Repository:    "demo",
		RepositoryURL: "https://github.com/alice/demo",
		Type:          "Issue",
		Title:         "Bug report",
		User:          "alice",
		AvatarPath:    "/tmp/42.png",
		Reason:        "mention",
	}
}

func TestRenderer_Render(t *testing.T) {
	allCaps := Capabilities{Body: true, Hyperlinks: true, Markup: true, Persistence: true}

	t.Run("full capability server", func(t *testing.T) {
		reg := Registry{Caps: allCaps, Identity: Identity{Name: "gnome-shell", Vendor: "GNOME", Version: "48.1"}}
		p := NewRenderer(reg, nil, false).Render(testNotification())

		assert.Equal(t, summary, p.Summary)
		assert.Contains(t, p.Body, "<b>Repository:</b>\t demo\n")
		assert.Contains(t, p.Body, "<b>Title:</b>\t\t Bug report\n")
		assert.Contains(t, p.Body, "alice")
		assert.Contains(t, p.Body, `<a href="https://github.com/alice/demo">Link to Repository</a>`)
		assert.Equal(t, "/tmp/42.png", p.IconPath)
		assert.True(t, p.Transient)
		assert.Equal(t, UrgencyNormal, p.Urgency)
	})

	t.Run("no markup support strips all tags", func(t *testing.T) {
		reg := Registry{Caps: Capabilities{Body: true, Hyperlinks: true}}
		n := testNotification()
		n.Title = "Bug <b>bold</b> report"
		p := NewRenderer(reg, nil, false).Render(n)

		assert.NotContains(t, p.Body, "<")
		assert.NotContains(t, p.Body, ">")
		assert.Contains(t, p.Body, "Repository:")
		assert.Contains(t, p.Body, "demo")
	})

	t.Run("no body support yields summary only", func(t *testing.T) {
		reg := Registry{Caps: Capabilities{Markup: true, Hyperlinks: true}}
		p := NewRenderer(reg, nil, false).Render(testNotification())

		assert.Equal(t, summary, p.Summary)
		assert.Empty(t, p.Body)
	})

	t.Run("no hyperlink support drops the link segment", func(t *testing.T) {
		reg := Registry{Caps: Capabilities{Body: true, Markup: true}}
		p := NewRenderer(reg, nil, false).Render(testNotification())

		assert.NotContains(t, p.Body, "<a href")
		assert.Contains(t, p.Body, "User:")
	})

	t.Run("plasma 1.0 quirk replaces newlines", func(t *testing.T) {
		reg := Registry{Caps: allCaps, Identity: Identity{Name: "Plasma", Vendor: "KDE", Version: "1.0"}}
		p := NewRenderer(reg, nil, false).Render(testNotification())

		assert.NotContains(t, p.Body, "\n")
		assert.Contains(t, p.Body, "<br/>")
	})

	t.Run("plasma other version keeps newlines", func(t *testing.T) {
		reg := Registry{Caps: allCaps, Identity: Identity{Name: "Plasma", Vendor: "KDE", Version: "5.27"}}
		p := NewRenderer(reg, nil, false).Render(testNotification())

		assert.Contains(t, p.Body, "\n")
		assert.NotContains(t, p.Body, "<br/>")
	})

	t.Run("xfce quirk disables hyperlinks for any version", func(t *testing.T) {
		reg := Registry{Caps: allCaps, Identity: Identity{Name: "Xfce Notify Daemon", Vendor: "Xfce", Version: "0.9.7"}}
		p := NewRenderer(reg, nil, false).Render(testNotification())

		assert.NotContains(t, p.Body, "<a href")
	})

	t.Run("extra quirk from config", func(t *testing.T) {
		reg := Registry{Caps: allCaps, Identity: Identity{Name: "dunst", Vendor: "knopwob", Version: "1.9"}}
		extra := []Quirk{{Name: "dunst", Vendor: "knopwob", DisableHyperlinks: true}}
		p := NewRenderer(reg, extra, false).Render(testNotification())

		assert.NotContains(t, p.Body, "<a href")
	})

	t.Run("persistent supported", func(t *testing.T) {
		reg := Registry{Caps: allCaps}
		p := NewRenderer(reg, nil, true).Render(testNotification())
		assert.False(t, p.Transient)
	})

	t.Run("persistent degraded to transient when unsupported", func(t *testing.T) {
		reg := Registry{Caps: Capabilities{Body: true, Hyperlinks: true, Markup: true}}
		p := NewRenderer(reg, nil, true).Render(testNotification())
		assert.True(t, p.Transient)
	})
}

func TestErrorPayloads(t *testing.T) {
	auth := AuthErrorPayload()
	generic := ErrorPayload()

	assert.Contains(t, auth.Summary, "authorization")
	assert.Contains(t, generic.Summary, "check the logs")
	assert.NotEqual(t, auth.Summary, generic.Summary)
	assert.Equal(t, UrgencyCritical, auth.Urgency)
	assert.Equal(t, UrgencyCritical, generic.Urgency)
	assert.Empty(t, auth.Body)
	assert.Empty(t, generic.Body)
}

func TestRenderer_BodyLayout(t *testing.T) {
	// the body lists the four fields in a fixed order
	reg := Registry{Caps: Capabilities{Body: true}}
	p := NewRenderer(reg, nil, false).Render(testNotification())

	lines := strings.Split(p.Body, "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Repository:"))
	assert.True(t, strings.HasPrefix(lines[1], "Type:"))
	assert.True(t, strings.HasPrefix(lines[2], "Title:"))
	assert.True(t, strings.HasPrefix(lines[3], "User:"))
}
