package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"soldera/internal/config"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
)

type DiscoveryService struct {
	client    *resty.Client
	indexURL  string
	baseURL   string
	linkTitle string
}

// NewDiscoveryService builds a client for the publisher's index page. A nil
// client gets a fresh resty client bounded by the configured timeout.
func NewDiscoveryService(cfg config.DiscoveryConfig, client *resty.Client) (*DiscoveryService, error) {
	if cfg.IndexURL == "" {
		return nil, errors.New("index url is empty")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is empty")
	}
	if cfg.LinkTitle == "" {
		return nil, errors.New("link title is empty")
	}
	if client == nil {
		client = resty.New()
		client.SetTimeout(cfg.Timeout())
	}

	return &DiscoveryService{
		client:    client,
		indexURL:  cfg.IndexURL,
		baseURL:   cfg.BaseURL,
		linkTitle: cfg.LinkTitle,
	}, nil
}

// FindLatestLink returns the href of the first anchor titled with the
// configured link title. The href is returned as found on the page.
func (s *DiscoveryService) FindLatestLink(ctx context.Context) (string, error) {
	if s == nil {
		return "", errors.New("discovery service is nil")
	}
	if s.client == nil {
		return "", errors.New("http client is nil")
	}

	body, _, err := s.get(ctx, s.indexURL)
	if err != nil {
		return "", err
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse index page: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	var link string
	doc.Find("a").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		if !s.titleMatches(anchor) {
			return true
		}
		href, ok := anchor.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		link = strings.TrimSpace(href)
		return false
	})
	if link == "" {
		return "", fmt.Errorf("%w: no anchor titled %q on %s", ErrDiscoveryNotFound, s.linkTitle, s.indexURL)
	}

	return link, nil
}

func (s *DiscoveryService) titleMatches(anchor *goquery.Selection) bool {
	for _, attr := range []string{"title", "aria-label"} {
		if value, ok := anchor.Attr(attr); ok && strings.TrimSpace(value) == s.linkTitle {
			return true
		}
	}
	return false
}

// Download fetches the file behind link, resolving relative links against
// the configured base URL.
func (s *DiscoveryService) Download(ctx context.Context, link string) (DownloadResult, error) {
	if s == nil {
		return DownloadResult{}, errors.New("discovery service is nil")
	}
	if s.client == nil {
		return DownloadResult{}, errors.New("http client is nil")
	}

	fileURL, err := ResolveDownloadURL(s.baseURL, link)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("resolve download url: %w", err)
	}

	body, status, err := s.get(ctx, fileURL)
	if err != nil {
		return DownloadResult{URL: fileURL, StatusCode: status}, err
	}

	return DownloadResult{URL: fileURL, StatusCode: status, Bytes: body}, nil
}

func (s *DiscoveryService) get(ctx context.Context, url string) ([]byte, int, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, 0, &FetchError{URL: url, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, resp.StatusCode(), &FetchError{URL: url, StatusCode: resp.StatusCode()}
	}

	return resp.Body(), resp.StatusCode(), nil
}
