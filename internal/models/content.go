package models

import (
	"strings"
	"time"
)

// ElementKind identifies the HTML element an extracted text unit came from.
// The set is closed; tags outside it are never stored.
type ElementKind string

const (
	ElementParagraph ElementKind = "paragraph"
	ElementHeading1  ElementKind = "heading-1"
	ElementHeading2  ElementKind = "heading-2"
	ElementHeading3  ElementKind = "heading-3"
	ElementHeading4  ElementKind = "heading-4"
	ElementHeading5  ElementKind = "heading-5"
	ElementHeading6  ElementKind = "heading-6"
	ElementListItem  ElementKind = "list-item"
	ElementArticle   ElementKind = "article"
)

// elementTags maps lower-case HTML tag names to their ElementKind
var elementTags = map[string]ElementKind{
	"p":       ElementParagraph,
	"h1":      ElementHeading1,
	"h2":      ElementHeading2,
	"h3":      ElementHeading3,
	"h4":      ElementHeading4,
	"h5":      ElementHeading5,
	"h6":      ElementHeading6,
	"li":      ElementListItem,
	"article": ElementArticle,
}

// ContentSelector is the CSS selector group matching every extractable element
const ContentSelector = "p, h1, h2, h3, h4, h5, h6, li, article"

// ParseElementKind maps an HTML tag name to an ElementKind.
// Returns false for tags that are not extractable.
func ParseElementKind(tag string) (ElementKind, bool) {
	kind, ok := elementTags[strings.ToLower(strings.TrimSpace(tag))]
	return kind, ok
}

// IsValid reports whether k is one of the known kinds
func (k ElementKind) IsValid() bool {
	for _, known := range elementTags {
		if known == k {
			return true
		}
	}
	return false
}

// ContentItem is one extracted text unit tagged with its source element kind
type ContentItem struct {
	Kind ElementKind `json:"kind"`
	Text string      `json:"text"`
}

// NewContentItem trims text and returns false when nothing is left
func NewContentItem(kind ElementKind, text string) (ContentItem, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !kind.IsValid() {
		return ContentItem{}, false
	}
	return ContentItem{Kind: kind, Text: trimmed}, true
}

// WebsiteSnapshot is the latest normalized text content of a tenant's website.
// Items are kept in document order.
type WebsiteSnapshot struct {
	TenantID  string        `json:"tenant_id"`
	SourceURL string        `json:"source_url"`
	Items     []ContentItem `json:"items"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// ItemCount returns the number of stored items
func (s *WebsiteSnapshot) ItemCount() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}
