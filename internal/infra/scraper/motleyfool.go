package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MotleyFoolArticle is the structured content of a fool.com article page
// reached through a Yahoo read-more link.
type MotleyFoolArticle struct {
	Title        string
	CompanyName  string
	TickerSymbol string
	TodayChange  string
	CurrentPrice string
	Content      string
}

// ParseMotleyFool pulls the article content and the company card out of a
// fool.com page. Missing blocks leave their fields empty; only a document
// that fails to parse at all is an error.
func ParseMotleyFool(html string) (MotleyFoolArticle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return MotleyFoolArticle{}, ErrParsingHTMLDocument
	}

	article := MotleyFoolArticle{
		Title: strings.TrimSpace(doc.Find("h2.font-light").First().Text()),
	}

	if card := doc.Find("div.company-card-vue-component").First(); card.Length() > 0 {
		article.CompanyName = strings.TrimSpace(card.Find("div.font-medium").First().Text())
		article.TickerSymbol = strings.TrimSpace(card.Find("a.text-gray-1100").First().Text())
	}

	if price := doc.Find(`div[class="w-5/6 h-full py-10"]`).First(); price.Length() > 0 {
		article.TodayChange = strings.TrimSpace(price.Find("div.text-green-900").First().Text())
		article.CurrentPrice = strings.TrimSpace(price.Find("div.text-gray-1100").First().Text())
	}

	paragraphs := []string{}
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	article.Content = strings.Join(paragraphs, " ")

	return article, nil
}
