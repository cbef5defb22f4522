package services

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ResolveDownloadURL turns the href found on the index page into an absolute
// URL on the publisher's origin. Absolute hrefs are returned as-is.
func ResolveDownloadURL(baseURL string, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", errors.New("link is empty")
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}
	if parsed.IsAbs() {
		return parsed.String(), nil
	}
	if baseURL == "" {
		return "", errors.New("base url is empty")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if base.Path == "" {
		base.Path = "/"
	}

	return base.ResolveReference(parsed).String(), nil
}

// FilenameFromLink returns the last path segment of link, without query or
// fragment.
func FilenameFromLink(link string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("link %q has no filename", link)
	}

	return name, nil
}
