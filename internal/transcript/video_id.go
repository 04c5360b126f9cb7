package transcript

import (
	"net/url"
	"regexp"
	"strings"

	"gopherai-ytchat/internal/pkg/apperr"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID accepts watch, youtu.be, embed, shorts and live URLs as
// well as a bare 11-character id.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.New(apperr.KindInvalidInput, "youtube url is empty")
	}
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInvalidInput, "youtube url is malformed", err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtu.be":
		id = segments[0]
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		switch {
		case segments[0] == "watch":
			id = u.Query().Get("v")
		case len(segments) >= 2 && (segments[0] == "embed" || segments[0] == "shorts" || segments[0] == "live" || segments[0] == "v"):
			id = segments[1]
		}
	default:
		return "", apperr.Newf(apperr.KindInvalidInput, "%q is not a youtube url", u.Host)
	}

	if !videoIDPattern.MatchString(id) {
		return "", apperr.New(apperr.KindInvalidInput, "could not find a video id in the url")
	}
	return id, nil
}
