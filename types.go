package duosite

import (
	"fmt"
	"time"
)

// ContentKind names one of the two likeable/commentable content tables.
type ContentKind string

const (
	KindBlog   ContentKind = "blog"
	KindLyrics ContentKind = "lyrics"
)

// ParseContentKind validates a kind taken from a URL or form.
func ParseContentKind(s string) (ContentKind, error) {
	switch ContentKind(s) {
	case KindBlog, KindLyrics:
		return ContentKind(s), nil
	}
	return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown content kind %q", s)}
}

// table returns the backing table of the kind.
func (k ContentKind) table() string {
	if k == KindLyrics {
		return "lyrics_quotes"
	}
	return "blog_posts"
}

// column returns the foreign key column used by comments and likes.
func (k ContentKind) column() string {
	if k == KindLyrics {
		return "lyrics_quote_id"
	}
	return "blog_post_id"
}

// ContentRef points at exactly one content item.
type ContentRef struct {
	Kind ContentKind
	ID   string
}

func (r ContentRef) String() string { return string(r.Kind) + "/" + r.ID }

// Path is the public URL path of the referenced item.
func (r ContentRef) Path() string { return "/" + string(r.Kind) + "/" + r.ID + "/" }

// BlogPost is a blog entry written by an admin.
type BlogPost struct {
	ID          string
	Title       string
	Excerpt     string
	Content     string
	Author      string
	ImageURL    string
	Published   bool
	AdminUserID string
	ViewsCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p BlogPost) Ref() ContentRef { return ContentRef{Kind: KindBlog, ID: p.ID} }

// LyricsQuote is a highlighted lyric with its meaning and backstory.
type LyricsQuote struct {
	ID          string
	Lyrics      string
	Song        string
	Artist      string
	Meaning     string
	Story       string
	ImageURL    string
	AdminUserID string
	ViewsCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q LyricsQuote) Ref() ContentRef { return ContentRef{Kind: KindLyrics, ID: q.ID} }

// Counts are the live engagement numbers joined onto a content item.
type Counts struct {
	Likes            int
	Comments         int
	ApprovedComments int
}

// PostRow is the read-only aggregate projection of a blog post.
type PostRow struct {
	BlogPost
	Counts
	AdminEmail string
	Liked      bool
}

// QuoteRow is the read-only aggregate projection of a lyrics quote.
type QuoteRow struct {
	LyricsQuote
	Counts
	AdminEmail string
	Liked      bool
}

// ModerationState is the review status of a comment.
type ModerationState string

const (
	StatePending  ModerationState = "pending"
	StateApproved ModerationState = "approved"
	StateRejected ModerationState = "rejected"
)

// Comment is a visitor comment on a content item.
type Comment struct {
	ID          string
	Parent      ContentRef
	Content     string
	UserID      string // empty for guests
	DisplayName string
	DeviceKey   string
	State       ModerationState
	ReviewedBy  string
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Guest reports whether the comment was written without an account.
func (c Comment) Guest() bool { return c.UserID == "" }

// ModerationItem is a comment as listed in the admin moderation queue.
type ModerationItem struct {
	Comment
	AccountEmail string
	ParentTitle  string
}

// Like records one actor liking one content item.
type Like struct {
	ID        string
	Parent    ContentRef
	ActorKey  string
	UserID    string
	DeviceKey string
	CreatedAt time.Time
}

// LikeResult is returned by ToggleLike so callers can update their view
// without re-querying.
type LikeResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Account is a session identity record.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminAccount marks an account as an administrator.
type AdminAccount struct {
	ID           string
	Email        string
	IsSuperAdmin bool
	CreatedAt    time.Time
}

// Profile holds the editable public details of an account.
type Profile struct {
	ID        string
	Username  string
	FullName  string
	Bio       string
	AvatarURL string
	UpdatedAt time.Time
}

// Identity is the caller of an operation: a signed-in account, an anonymous
// visitor identified by a client-network key, or both.
type Identity struct {
	UserID    string
	Email     string
	DeviceKey string
}

// Authenticated reports whether the identity carries a session account.
func (id Identity) Authenticated() bool { return id.UserID != "" }

// ActorKey is the de-duplication key used for likes.
func (id Identity) ActorKey() string {
	switch {
	case id.UserID != "":
		return "user:" + id.UserID
	case id.DeviceKey != "":
		return "device:" + id.DeviceKey
	}
	return ""
}

// Image is an uploaded media file usable as a content item's image.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// URL is the public path of the image.
func (i Image) URL() string { return "/public/" + uploadsSubdir + "/" + i.Filename }

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
