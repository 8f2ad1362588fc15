package feed

// Notification is one decoded GitHub notification, ready for rendering.
// All fields except AvatarPath are guaranteed non-empty; a feed entry that
// cannot fill them is dropped whole during decoding.
type Notification struct {
	Repository    string
	RepositoryURL string
	Type          string
	Title         string
	User          string
	AvatarPath    string // empty when avatar fetching is disabled or failed
	Reason        string
}
