package domain

import (
	"regexp"
	"strings"
)

var (
	// t.me/name, telegram.me/name, t.me/s/name (public preview)
	linkUsernameRe = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?(?:t\.me|telegram\.me|telegram\.dog)/(?:s/)?([a-z0-9_]{3,})/?(?:[?#].*)?$`)
	usernameRe     = regexp.MustCompile(`(?i)^[a-z0-9_]{3,}$`)
)

// UsernameFromLink extracts the channel username from a Telegram link.
// Invite links (t.me/+xyz, t.me/joinchat/xyz) have no username and return "".
func UsernameFromLink(link string) string {
	link = strings.TrimSpace(link)
	m := linkUsernameRe.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	if strings.EqualFold(m[1], "joinchat") {
		return ""
	}
	return m[1]
}

// NormalizeHandle computes the canonical handle for a channel.
//
// The explicit channel field wins; it may be "@name", "name" or a link.
// Otherwise the username is extracted from the link. Handles are lowercase
// with a leading "@". When no username can be found the trimmed link itself
// is the handle, so private invite links still deduplicate.
func NormalizeHandle(channel, link string) string {
	channel = strings.TrimSpace(channel)
	if channel != "" {
		name := strings.TrimPrefix(channel, "@")
		if u := UsernameFromLink(name); u != "" {
			name = u
		}
		if usernameRe.MatchString(name) {
			return "@" + strings.ToLower(name)
		}
	}

	if u := UsernameFromLink(link); u != "" {
		return "@" + strings.ToLower(u)
	}

	if channel != "" {
		return strings.ToLower(channel)
	}
	return strings.TrimRight(strings.TrimSpace(link), "/")
}

// NormalizeLink returns an https URL for the channel. An empty link is built
// from the handle.
func NormalizeLink(link, handle string) string {
	link = strings.TrimSpace(link)
	switch {
	case link == "" && strings.HasPrefix(handle, "@"):
		return "https://t.me/" + strings.TrimPrefix(handle, "@")
	case link == "":
		return ""
	case strings.HasPrefix(link, "@"):
		return "https://t.me/" + strings.TrimPrefix(link, "@")
	case strings.HasPrefix(link, "https://"):
		return link
	case strings.HasPrefix(link, "http://"):
		return "https://" + strings.TrimPrefix(link, "http://")
	case usernameRe.MatchString(link):
		return "https://t.me/" + link
	default:
		return "https://" + link
	}
}
