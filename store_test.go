package duosite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestAdmin signs up email and grants it admin rights.
func newTestAdmin(t *testing.T, s *Store, email string) Identity {
	t.Helper()
	ctx := context.Background()
	acc, err := s.SignUp(ctx, email, "password123")
	if err != nil {
		t.Fatalf("SignUp(%s): %v", email, err)
	}
	if _, err := s.GrantAdmin(ctx, email); err != nil {
		t.Fatalf("GrantAdmin(%s): %v", email, err)
	}
	return Identity{UserID: acc.ID, Email: acc.Email}
}

func newTestPost(t *testing.T, s *Store, admin Identity, title string, published bool) BlogPost {
	t.Helper()
	p, err := s.CreatePost(context.Background(), admin, BlogPost{
		Title:     title,
		Excerpt:   "Excerpt of " + title,
		Content:   "# " + title + "\n\nBody.",
		Author:    "ThxtDuo",
		Published: published,
	})
	if err != nil {
		t.Fatalf("CreatePost(%s): %v", title, err)
	}
	return p
}

func newTestQuote(t *testing.T, s *Store, admin Identity) LyricsQuote {
	t.Helper()
	q, err := s.CreateQuote(context.Background(), admin, LyricsQuote{
		Lyrics:  "We keep rising\nnever falling",
		Song:    "Take Off",
		Artist:  "ThxtDuo",
		Meaning: "Perseverance",
	})
	if err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}
	return q
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	// Running the migrations again must be harmless.
	if err := s.ensureSchema(); err != nil {
		t.Fatalf("ensureSchema twice: %v", err)
	}
}

func TestSettings(t *testing.T) {
	s := setupTestStore(t)

	v, err := s.GetSetting("missing")
	if err != nil || v != "" {
		t.Fatalf("GetSetting(missing) = %q, %v; want empty, nil", v, err)
	}
	if err := s.SetSetting("k", "one"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting("k", "two"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	if v, _ := s.GetSetting("k"); v != "two" {
		t.Errorf("GetSetting(k) = %q, want %q", v, "two")
	}
}

func TestCreatePostRequiresAdmin(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	acc, err := s.SignUp(ctx, "fan@example.com", "password123")
	if err != nil {
		t.Fatal(err)
	}
	post := BlogPost{Title: "T", Excerpt: "E", Content: "C", Author: "A"}

	tests := []struct {
		name string
		id   Identity
		want error
	}{
		{"anonymous", Identity{DeviceKey: "abc"}, ErrUnauthenticated},
		{"non-admin", Identity{UserID: acc.ID, Email: acc.Email}, ErrForbidden},
	}
	for _, tt := range tests {
		if _, err := s.CreatePost(ctx, tt.id, post); !errors.Is(err, tt.want) {
			t.Errorf("%s: CreatePost error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestCreatePostValidation(t *testing.T) {
	s := setupTestStore(t)
	admin := newTestAdmin(t, s, "admin@example.com")

	tests := []struct {
		name  string
		post  BlogPost
		field string
	}{
		{"no title", BlogPost{Excerpt: "E", Content: "C", Author: "A"}, "title"},
		{"blank excerpt", BlogPost{Title: "T", Excerpt: "  ", Content: "C", Author: "A"}, "excerpt"},
		{"no content", BlogPost{Title: "T", Excerpt: "E", Author: "A"}, "content"},
		{"no author", BlogPost{Title: "T", Excerpt: "E", Content: "C"}, "author"},
	}
	for _, tt := range tests {
		_, err := s.CreatePost(context.Background(), admin, tt.post)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != tt.field {
			t.Errorf("%s: error = %v, want validation error on %q", tt.name, err, tt.field)
		}
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")

	published := newTestPost(t, s, admin, "Studio Sessions", true)
	draft := newTestPost(t, s, admin, "Unreleased", false)

	got, err := s.GetPost(ctx, published.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Title != "Studio Sessions" || got.AdminUserID != admin.UserID || !got.Published {
		t.Errorf("GetPost = %+v", got)
	}
	if got.CreatedAt.IsZero() || got.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want UTC timestamp", got.CreatedAt)
	}

	if _, err := s.GetPost(ctx, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost(draft) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetPostAny(ctx, draft.ID); err != nil {
		t.Errorf("GetPostAny(draft): %v", err)
	}

	public, err := s.ListPostRows(ctx, "", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(public) != 1 || public[0].ID != published.ID {
		t.Errorf("published rows = %+v, want only %s", public, published.ID)
	}
	all, err := s.ListPostRows(ctx, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all rows = %d, want 2", len(all))
	}
	if all[0].AdminEmail != "admin@example.com" {
		t.Errorf("AdminEmail = %q", all[0].AdminEmail)
	}
}

func TestAggregateRows(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	post := newTestPost(t, s, admin, "Counts", true)
	ref := post.Ref()

	fan := Identity{DeviceKey: "device-1"}
	if _, err := s.ToggleLike(ctx, fan, ref); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleLike(ctx, admin, ref); err != nil {
		t.Fatal(err)
	}
	cm, err := s.SubmitComment(ctx, fan, ref, "Love it", "Jordan")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SubmitComment(ctx, fan, ref, "Again", "Jordan"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetApproval(ctx, admin, cm.ID, true); err != nil {
		t.Fatal(err)
	}

	row, err := s.GetPostRow(ctx, post.ID, fan.ActorKey())
	if err != nil {
		t.Fatalf("GetPostRow: %v", err)
	}
	if row.Likes != 2 || row.Comments != 2 || row.ApprovedComments != 1 {
		t.Errorf("counts = %+v, want 2 likes, 2 comments, 1 approved", row.Counts)
	}
	if !row.Liked {
		t.Error("row should be marked liked by the fan")
	}

	other, err := s.GetPostRow(ctx, post.ID, "device:someone-else")
	if err != nil {
		t.Fatal(err)
	}
	if other.Liked {
		t.Error("row should not be liked by an unrelated actor")
	}
}

func TestQuoteRows(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	q := newTestQuote(t, s, admin)

	if _, err := s.ToggleLike(ctx, Identity{DeviceKey: "d"}, q.Ref()); err != nil {
		t.Fatal(err)
	}
	rows, err := s.ListQuoteRows(ctx, "device:d")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Likes != 1 || !rows[0].Liked {
		t.Fatalf("ListQuoteRows = %+v", rows)
	}
	if rows[0].Song != "Take Off" || rows[0].Meaning != "Perseverance" {
		t.Errorf("quote fields = %+v", rows[0].LyricsQuote)
	}
	if _, err := s.GetQuoteRow(ctx, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetQuoteRow(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteContentCascades(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	post := newTestPost(t, s, admin, "Doomed", true)
	ref := post.Ref()

	if _, err := s.ToggleLike(ctx, admin, ref); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SubmitComment(ctx, admin, ref, "bye", "Admin"); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteContent(ctx, admin, ref); err != nil {
		t.Fatalf("DeleteContent: %v", err)
	}
	if err := s.DeleteContent(ctx, admin, ref); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteContent error = %v, want ErrNotFound", err)
	}

	likes, _ := s.ListLikes(ctx, ref)
	comments, _ := s.ListComments(ctx, ref, false)
	if len(likes) != 0 || len(comments) != 0 {
		t.Errorf("after delete: %d likes, %d comments; want none", len(likes), len(comments))
	}
}

func TestIncrementViews(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	post := newTestPost(t, s, admin, "Popular", true)

	for i := 0; i < 3; i++ {
		if err := s.IncrementViews(ctx, post.Ref()); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := s.GetPost(ctx, post.ID)
	if got.ViewsCount != 3 {
		t.Errorf("ViewsCount = %d, want 3", got.ViewsCount)
	}
	if err := s.IncrementViews(ctx, ContentRef{Kind: "video", ID: post.ID}); !IsValidation(err) {
		t.Errorf("unknown kind error = %v, want validation error", err)
	}
}

func TestImages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	img := Image{Filename: "cover.jpg", OriginalName: "Cover.PNG", Width: 800, Height: 600, Size: 1234, UploadedAt: "2024-01-01T00:00:00Z"}

	if err := s.SaveImage(ctx, img); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	exists, err := s.ImageExists(ctx, "cover.jpg")
	if err != nil || !exists {
		t.Fatalf("ImageExists = %v, %v", exists, err)
	}
	list, err := s.ListImages(ctx)
	if err != nil || len(list) != 1 || list[0] != img {
		t.Fatalf("ListImages = %+v, %v", list, err)
	}
	if err := s.DeleteImage(ctx, "cover.jpg"); err != nil {
		t.Fatal(err)
	}
	if exists, _ := s.ImageExists(ctx, "cover.jpg"); exists {
		t.Error("image should be gone")
	}
}

func TestEngagementTotalsAndEvents(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	post := newTestPost(t, s, admin, "A", true)
	q := newTestQuote(t, s, admin)

	if _, err := s.ToggleLike(ctx, admin, post.Ref()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleLike(ctx, admin, q.Ref()); err != nil {
		t.Fatal(err)
	}
	c1, _ := s.SubmitComment(ctx, admin, post.Ref(), "one", "A")
	c2, _ := s.SubmitComment(ctx, admin, q.Ref(), "two", "A")
	if _, err := s.SubmitComment(ctx, admin, q.Ref(), "three", "A"); err != nil {
		t.Fatal(err)
	}
	s.SetApproval(ctx, admin, c1.ID, true)
	s.SetApproval(ctx, admin, c2.ID, false)

	totals, err := s.EngagementTotals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if totals.Posts != 1 || totals.Quotes != 1 || totals.Likes != 2 ||
		totals.Comments != 3 || totals.Pending != 1 || totals.Approved != 1 || totals.Rejected != 1 {
		t.Errorf("totals = %+v", totals)
	}

	comments, likes, err := s.EngagementEvents(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 3 || len(likes) != 2 {
		t.Errorf("events = %d comments, %d likes; want 3, 2", len(comments), len(likes))
	}
	comments, likes, _ = s.EngagementEvents(ctx, time.Now().Add(time.Hour))
	if len(comments) != 0 || len(likes) != 0 {
		t.Errorf("future window should be empty, got %d/%d", len(comments), len(likes))
	}
}
