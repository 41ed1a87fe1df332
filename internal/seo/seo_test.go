package seo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBrands = BrandSet{"michelin": true, "rosava": true}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     Facets
		ok       bool
	}{
		{"empty", nil, Facets{}, true},
		{"season only", []string{"zymovi"}, Facets{SeasonSlug: "zymovi"}, true},
		{"brand only", []string{"michelin"}, Facets{BrandSlug: "michelin"}, true},
		{"size only", []string{"205-55-r16"}, Facets{Width: 205, Profile: 55, Diameter: 16}, true},
		{"narrow width and small diameter", []string{"95-65-r9"}, Facets{Width: 95, Profile: 65, Diameter: 9}, true},
		{"off-road size", []string{"31-10-r15"}, Facets{Width: 31, Profile: 10, Diameter: 15}, true},
		{
			"all three in canonical order",
			[]string{"michelin", "zymovi", "205-55-r16"},
			Facets{BrandSlug: "michelin", SeasonSlug: "zymovi", Width: 205, Profile: 55, Diameter: 16},
			true,
		},
		{
			"order does not matter for parsing",
			[]string{"205-55-r16", "michelin"},
			Facets{BrandSlug: "michelin", Width: 205, Profile: 55, Diameter: 16},
			true,
		},
		{"unknown segment", []string{"nosuchbrand"}, Facets{}, false},
		{"duplicate season", []string{"zymovi", "litni"}, Facets{}, false},
		{"duplicate size", []string{"205-55-r16", "185-65-r15"}, Facets{}, false},
		{"uppercase normalized", []string{"MICHELIN"}, Facets{BrandSlug: "michelin"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePath(tt.segments, testBrands)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCanonicalPath(t *testing.T) {
	assert.Equal(t, "/tyres", CanonicalPath(Facets{}))
	assert.Equal(t, "/tyres/zymovi", CanonicalPath(Facets{SeasonSlug: "zymovi"}))
	assert.Equal(t, "/tyres/michelin/zymovi/205-55-r16", CanonicalPath(Facets{
		BrandSlug: "michelin", SeasonSlug: "zymovi", Width: 205, Profile: 55, Diameter: 16,
	}))
	assert.Equal(t, "/tyres/michelin/205-55-r16", CanonicalPath(Facets{
		BrandSlug: "michelin", Width: 205, Profile: 55, Diameter: 16,
	}))
}

func TestParsePathRoundTripsThroughCanonicalPath(t *testing.T) {
	f := Facets{BrandSlug: "rosava", SeasonSlug: "litni", Width: 185, Profile: 65, Diameter: 15}

	path := CanonicalPath(f)
	assert.Equal(t, "/tyres/rosava/litni/185-65-r15", path)

	segments := []string{"rosava", "litni", "185-65-r15"}
	parsed, ok := ParsePath(segments, testBrands)
	require.True(t, ok)
	assert.Equal(t, f, parsed)
}

func TestParseSizeQuery(t *testing.T) {
	w, p, d, ok := ParseSizeQuery("2055516")
	require.True(t, ok)
	assert.Equal(t, 205, w)
	assert.Equal(t, 55, p)
	assert.Equal(t, 16, d)

	w, p, d, ok = ParseSizeQuery("185659")
	require.True(t, ok)
	assert.Equal(t, 185, w)
	assert.Equal(t, 65, p)
	assert.Equal(t, 9, d)

	for _, bad := range []string{"", "205/55R16", "12345", "12345678", "abc5516"} {
		_, _, _, ok := ParseSizeQuery(bad)
		assert.False(t, ok, "query %q should not parse", bad)
	}
}

func TestBuildMeta(t *testing.T) {
	f := Facets{SeasonSlug: "zymovi", BrandSlug: "michelin", Width: 205, Profile: 55, Diameter: 16}

	m := BuildMeta(f, "Michelin", 2499)

	assert.Contains(t, m.Title, "Winter tires Michelin 205/55 R16")
	assert.Contains(t, m.Title, "2499")
	assert.Equal(t, "Winter tires Michelin 205/55 R16", m.H1)
	assert.Contains(t, m.Description, "2499 UAH")

	noPrice := BuildMeta(Facets{}, "", 0)
	assert.Equal(t, "Tires", noPrice.H1)
	assert.NotContains(t, noPrice.Title, "from 0")
}

func TestFAQSchema(t *testing.T) {
	data, err := FAQSchema(Facets{SeasonSlug: "litni"}, "", 1100)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "https://schema.org", doc["@context"])
	assert.Equal(t, "FAQPage", doc["@type"])
	entities, ok := doc["mainEntity"].([]interface{})
	require.True(t, ok)
	assert.Len(t, entities, 3)

	first := entities[0].(map[string]interface{})
	assert.Equal(t, "Question", first["@type"])
	assert.Contains(t, first["name"], "summer tires")
}

func TestCrossLinksPopularSizesFallback(t *testing.T) {
	links := CrossLinks(Facets{SeasonSlug: "zymovi"})

	require.Len(t, links, len(popularSizes))
	assert.Equal(t, "205/55 R16", links[4].Label)
	assert.Equal(t, "/tyres/zymovi/205-55-r16", links[4].Path)
}

func TestCrossLinksSiblingSeasons(t *testing.T) {
	links := CrossLinks(Facets{SeasonSlug: "zymovi", Width: 205, Profile: 55, Diameter: 16})

	require.Len(t, links, 2)
	assert.Equal(t, "/tyres/litni/205-55-r16", links[0].Path)
	assert.Equal(t, "/tyres/vsesezonni/205-55-r16", links[1].Path)
}

func TestSeasonSlugMapping(t *testing.T) {
	for slug, season := range seasonBySlug {
		assert.Equal(t, slug, SeasonSlug(season))
	}
}
