package crawler

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/sitechat/internal/models"
)

// hiddenSelector matches subtrees whose text is never shown to a visitor
const hiddenSelector = "script, style, noscript, template"

// ParseContentItems scans rendered HTML for extractable elements in document order.
// Nested matches are reported individually, so an article's text also contains
// the text of the paragraphs inside it.
func ParseContentItems(html string) ([]models.ContentItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find(hiddenSelector).Remove()

	items := []models.ContentItem{}
	doc.Find(models.ContentSelector).Each(func(_ int, s *goquery.Selection) {
		kind, ok := models.ParseElementKind(goquery.NodeName(s))
		if !ok {
			return
		}
		if item, ok := models.NewContentItem(kind, s.Text()); ok {
			items = append(items, item)
		}
	})

	return items, nil
}
