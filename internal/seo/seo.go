// Package seo builds the storefront's pretty-URL facet routing and page
// metadata. A catalog listing is addressed by up to three facets (brand,
// season, tire size) mounted under /tyres; the canonical path always lists
// them in brand, season, size order so every facet combination has exactly
// one URL.
package seo

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tireshop-service/internal/models"
)

// BasePath is where the faceted catalog is mounted.
const BasePath = "/tyres"

// Facets is a parsed facet selection. Zero size values mean no size facet.
type Facets struct {
	BrandSlug  string
	SeasonSlug string
	Width      int
	Profile    int
	Diameter   int
}

// HasSize reports whether a full size facet is selected.
func (f Facets) HasSize() bool {
	return f.Width > 0 && f.Profile > 0 && f.Diameter > 0
}

// IsZero reports whether no facet at all is selected.
func (f Facets) IsZero() bool {
	return f.BrandSlug == "" && f.SeasonSlug == "" && !f.HasSize()
}

// Season resolves the slug to a catalog season, "" when no season facet.
func (f Facets) Season() models.Season {
	return seasonBySlug[f.SeasonSlug]
}

// seasonBySlug maps URL slugs to catalog seasons and back.
var seasonBySlug = map[string]models.Season{
	"zymovi":     models.SeasonWinter,
	"litni":      models.SeasonSummer,
	"vsesezonni": models.SeasonAllSeason,
}

var slugBySeason = map[models.Season]string{
	models.SeasonWinter:    "zymovi",
	models.SeasonSummer:    "litni",
	models.SeasonAllSeason: "vsesezonni",
}

// SeasonSlug returns the URL slug for a season, "" for unknown values.
func SeasonSlug(s models.Season) string {
	return slugBySeason[s]
}

var sizeSegmentPattern = regexp.MustCompile(`^(\d{2,3})-(\d{1,3})-r(\d{1,3})$`)

// BrandResolver answers whether a path segment is a known brand slug.
// The catalog repository implements it; tests use a map.
type BrandResolver interface {
	BrandSlugExists(slug string) bool
}

// BrandSet is a map-backed BrandResolver.
type BrandSet map[string]bool

func (s BrandSet) BrandSlugExists(slug string) bool { return s[slug] }

// ParsePath interprets the wildcard segments after /tyres. Each segment is
// classified independently: a season slug, a size like 205-55-r16, or a brand
// slug. Order in the request does not matter, but duplicates or unknown
// segments make the path invalid.
func ParsePath(segments []string, brands BrandResolver) (Facets, bool) {
	var f Facets
	for _, seg := range segments {
		seg = strings.ToLower(strings.TrimSpace(seg))
		if seg == "" {
			continue
		}
		switch {
		case seasonBySlug[seg] != "":
			if f.SeasonSlug != "" {
				return Facets{}, false
			}
			f.SeasonSlug = seg
		case sizeSegmentPattern.MatchString(seg):
			if f.HasSize() {
				return Facets{}, false
			}
			m := sizeSegmentPattern.FindStringSubmatch(seg)
			f.Width, _ = strconv.Atoi(m[1])
			f.Profile, _ = strconv.Atoi(m[2])
			f.Diameter, _ = strconv.Atoi(m[3])
		case brands.BrandSlugExists(seg):
			if f.BrandSlug != "" {
				return Facets{}, false
			}
			f.BrandSlug = seg
		default:
			return Facets{}, false
		}
	}
	return f, true
}

// CanonicalPath renders the one true URL for a facet selection: brand first,
// then season, then size.
func CanonicalPath(f Facets) string {
	var parts []string
	if f.BrandSlug != "" {
		parts = append(parts, f.BrandSlug)
	}
	if f.SeasonSlug != "" {
		parts = append(parts, f.SeasonSlug)
	}
	if f.HasSize() {
		parts = append(parts, fmt.Sprintf("%d-%d-r%d", f.Width, f.Profile, f.Diameter))
	}
	if len(parts) == 0 {
		return BasePath
	}
	return BasePath + "/" + strings.Join(parts, "/")
}

var compactSizePattern = regexp.MustCompile(`^\d{6,7}$`)

// ParseSizeQuery splits a bare digit query like "2055516" into a size:
// 3-digit width, 2-digit profile, the rest (1-2 digits) diameter. Shoppers
// type these straight off the sidewall.
func ParseSizeQuery(q string) (width, profile, diameter int, ok bool) {
	q = strings.TrimSpace(q)
	if !compactSizePattern.MatchString(q) {
		return 0, 0, 0, false
	}
	width, _ = strconv.Atoi(q[:3])
	profile, _ = strconv.Atoi(q[3:5])
	diameter, _ = strconv.Atoi(q[5:])
	if width == 0 || diameter == 0 {
		return 0, 0, 0, false
	}
	return width, profile, diameter, true
}

// Meta is the rendered page metadata for a facet listing.
type Meta struct {
	Title       string `json:"title"`
	H1          string `json:"h1"`
	H2          string `json:"h2"`
	Description string `json:"description"`
}

var seasonLabel = map[models.Season]string{
	models.SeasonWinter:    "winter",
	models.SeasonSummer:    "summer",
	models.SeasonAllSeason: "all-season",
}

// BuildMeta renders title/h1/h2/description for a facet selection. brandName
// is the display name for the selected brand ("" when none); minPrice is the
// cheapest in-stock price for the selection, 0 when the selection is empty.
func BuildMeta(f Facets, brandName string, minPrice int64) Meta {
	subject := "Tires"
	if season, ok := seasonLabel[f.Season()]; ok {
		subject = strings.ToUpper(season[:1]) + season[1:] + " tires"
	}
	if brandName != "" {
		subject += " " + brandName
	}
	if f.HasSize() {
		subject += fmt.Sprintf(" %d/%d R%d", f.Width, f.Profile, f.Diameter)
	}

	m := Meta{
		Title: subject + " — buy in Ukraine with delivery",
		H1:    subject,
		H2:    "Large selection of " + strings.ToLower(subject) + " in stock",
	}
	if minPrice > 0 {
		m.Title = fmt.Sprintf("%s, prices from %d UAH", m.Title, minPrice)
		m.Description = fmt.Sprintf("%s at prices from %d UAH. In stock, fast shipping across Ukraine, fitting advice.", subject, minPrice)
	} else {
		m.Description = subject + ". In stock, fast shipping across Ukraine, fitting advice."
	}
	return m
}

// faqEntry is one question/answer pair in the FAQ block.
type faqEntry struct {
	Question string
	Answer   string
}

// FAQSchema renders a schema.org FAQPage JSON-LD document for a facet page.
func FAQSchema(f Facets, brandName string, minPrice int64) ([]byte, error) {
	subject := "tires"
	if season, ok := seasonLabel[f.Season()]; ok {
		subject = season + " tires"
	}
	if brandName != "" {
		subject = brandName + " " + subject
	}
	if f.HasSize() {
		subject += fmt.Sprintf(" %d/%d R%d", f.Width, f.Profile, f.Diameter)
	}

	entries := []faqEntry{
		{
			Question: fmt.Sprintf("How much do %s cost?", subject),
			Answer:   fmt.Sprintf("Prices for %s start from %d UAH depending on model and size.", subject, minPrice),
		},
		{
			Question: fmt.Sprintf("Do you deliver %s across Ukraine?", subject),
			Answer:   "Yes, we ship nationwide by Nova Poshta, usually within 1-2 business days.",
		},
		{
			Question: "Can I pick up my order in person?",
			Answer:   "Yes, free pickup is available from our warehouse.",
		},
	}
	if minPrice <= 0 {
		entries[0].Answer = fmt.Sprintf("Contact us for current prices on %s.", subject)
	}

	type answer struct {
		Type string `json:"@type"`
		Text string `json:"text"`
	}
	type question struct {
		Type           string `json:"@type"`
		Name           string `json:"name"`
		AcceptedAnswer answer `json:"acceptedAnswer"`
	}
	doc := struct {
		Context  string     `json:"@context"`
		Type     string     `json:"@type"`
		Entities []question `json:"mainEntity"`
	}{
		Context: "https://schema.org",
		Type:    "FAQPage",
	}
	for _, e := range entries {
		doc.Entities = append(doc.Entities, question{
			Type:           "Question",
			Name:           e.Question,
			AcceptedAnswer: answer{Type: "Answer", Text: e.Answer},
		})
	}
	return json.Marshal(doc)
}

// popularSizes is the fallback cross-link list shown when no size facet is
// selected. These are the best-selling passenger sizes on the Ukrainian
// market.
var popularSizes = [][3]int{
	{175, 70, 13},
	{185, 65, 14},
	{185, 65, 15},
	{195, 65, 15},
	{205, 55, 16},
	{215, 60, 16},
	{225, 45, 17},
	{225, 50, 17},
	{235, 55, 18},
}

// CrossLink is one internal link on a facet page.
type CrossLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// CrossLinks builds the internal-link block for a facet page. With no size
// selected it links the popular sizes within the current brand/season scope;
// with a size selected it links the sibling seasons for that size.
func CrossLinks(f Facets) []CrossLink {
	var links []CrossLink
	if !f.HasSize() {
		for _, size := range popularSizes {
			target := f
			target.Width, target.Profile, target.Diameter = size[0], size[1], size[2]
			links = append(links, CrossLink{
				Label: fmt.Sprintf("%d/%d R%d", size[0], size[1], size[2]),
				Path:  CanonicalPath(target),
			})
		}
		return links
	}
	for _, slug := range []string{"zymovi", "litni", "vsesezonni"} {
		if slug == f.SeasonSlug {
			continue
		}
		target := f
		target.SeasonSlug = slug
		links = append(links, CrossLink{
			Label: fmt.Sprintf("%s %d/%d R%d", seasonLabel[seasonBySlug[slug]], f.Width, f.Profile, f.Diameter),
			Path:  CanonicalPath(target),
		})
	}
	return links
}
