package validation

import (
	"net/url"
	"strings"
)

// EmbedHosts may be stored as video or tour assets. Subdomains of each entry
// are accepted too.
var EmbedHosts = []string{
	"youtube.com", "www.youtube.com", "youtu.be",
	"vimeo.com", "player.vimeo.com",
	"matterport.com", "my.matterport.com",
}

func AllowedEmbed(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, h := range EmbedHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Embed is a player URL suitable for an iframe.
type Embed struct {
	Src      string `json:"src"`
	Provider string `json:"provider"`
}

// EmbedFor converts a watch or share link into a player URL. It reports false
// for links it does not recognise.
func EmbedFor(raw string) (Embed, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return Embed{}, false
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case host == "youtu.be":
		if id := strings.TrimPrefix(u.Path, "/"); id != "" {
			return Embed{Src: "https://www.youtube.com/embed/" + id, Provider: "YouTube"}, true
		}
	case strings.HasSuffix(host, "youtube.com"):
		if id := u.Query().Get("v"); id != "" {
			return Embed{Src: "https://www.youtube.com/embed/" + id, Provider: "YouTube"}, true
		}
		if strings.HasPrefix(u.Path, "/embed/") {
			return Embed{Src: raw, Provider: "YouTube"}, true
		}
	case strings.HasSuffix(host, "vimeo.com"):
		if id := lastSegment(u.Path); id != "" {
			return Embed{Src: "https://player.vimeo.com/video/" + id, Provider: "Vimeo"}, true
		}
	case strings.HasSuffix(host, "matterport.com"):
		return Embed{Src: raw, Provider: "Matterport"}, true
	}
	return Embed{}, false
}

func lastSegment(p string) string {
	parts := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
