package views

// Platform is a streaming service the duo publishes on.
type Platform struct {
	Name     string
	Link     string
	EmbedURL string
	Color    string
}

// Artist is one member of the duo.
type Artist struct {
	Name        string
	Role        string
	Description string
	Image       string
}

// SocialLink is a profile on a social network.
type SocialLink struct {
	Name string
	Link string
}

// Platforms are shown in the music section, with an embedded player each.
var Platforms = []Platform{
	{
		Name:     "Spotify",
		Link:     "https://open.spotify.com/artist/0JscCO1qtw0Hul9WkxQlVk",
		EmbedURL: "https://open.spotify.com/embed/artist/0JscCO1qtw0Hul9WkxQlVk?utm_source=generator",
		Color:    "bg-green-500",
	},
	{
		Name:     "Apple Music",
		Link:     "https://music.apple.com/us/artist/thxt-duo/1582268484",
		EmbedURL: "https://embed.music.apple.com/us/album/the-take-off/1713124967",
		Color:    "bg-red-500",
	},
	{
		Name:     "YouTube",
		Link:     "https://www.youtube.com/@thxtduo4028",
		EmbedURL: "https://www.youtube.com/embed/b--cUrkN7Lk",
		Color:    "bg-red-600",
	},
}

var Artists = []Artist{
	{
		Name:        "Telvin Moore",
		Role:        "Singer",
		Description: "A classically trained vocalist with a modern R&B twist, Telvin brings soulful melodies and powerful vocals to ThxtDuo.",
		Image:       "/public/images/telvin.jpg",
	},
	{
		Name:        "JYC9_JR",
		Role:        "Rapper",
		Description: "With sharp lyrics and dynamic flow, JYC9_JR adds the perfect hip-hop edge to complete ThxtDuo's unique sound.",
		Image:       "/public/images/jyce.jpg",
	},
}

const (
	ContactEmail = "contact@txtduo.com"
	ListenURL    = "https://open.spotify.com/artist/0JscCO1qtw0Hul9WkxQlVk"
	Tagline      = "Singer & Rapper Duo | Hip-Hop & R&B"
)

var SocialLinks = []SocialLink{
	{Name: "Instagram", Link: "https://instagram.com/txtduo"},
	{Name: "Twitter", Link: "https://twitter.com/txtduo"},
}

// memberNames lists the artists for structured data.
func memberNames() []string {
	names := make([]string, len(Artists))
	for i, a := range Artists {
		names[i] = a.Name
	}
	return names
}
