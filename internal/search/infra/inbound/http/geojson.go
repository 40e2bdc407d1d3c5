package http

import (
	"net/url"
	"strconv"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/davicafu/stacsearch/internal/search/application"
	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
)

type featureResponse struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Collection string             `json:"collection"`
	BBox       geojson.BBox       `json:"bbox,omitempty"`
	Geometry   *geojson.Geometry  `json:"geometry"`
	Properties geojson.Properties `json:"properties"`
}

type link struct {
	Rel  string `json:"rel"`
	Type string `json:"type"`
	Href string `json:"href"`
}

type searchContext struct {
	Model    string `json:"model"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
	Matched  int    `json:"matched"`
	Returned int    `json:"returned"`
}

type featureCollectionResponse struct {
	Type           string            `json:"type"`
	ID             string            `json:"id"`
	Features       []featureResponse `json:"features"`
	NumberMatched  int               `json:"numberMatched"`
	NumberReturned int               `json:"numberReturned"`
	Context        searchContext     `json:"context"`
	Links          []link            `json:"links,omitempty"`
}

// toFeature convierte un registro en un Feature GeoJSON. Una geometría
// ilegible se devuelve como null.
func toFeature(f *searchDomain.Feature) featureResponse {
	props := geojson.Properties{
		"title":             f.Title,
		"productIdentifier": f.ProductIdentifier,
		"created":           f.Created,
		"likes":             f.Likes,
		"owner":             f.Owner,
		"visibility":        f.Visibility,
		"hashtags":          f.Hashtags,
	}
	if f.StartDate != nil {
		props["startDate"] = *f.StartDate
	}
	if f.CompletionDate != nil {
		props["completionDate"] = *f.CompletionDate
	}

	out := featureResponse{
		Type:       "Feature",
		ID:         f.ID.String(),
		Collection: f.Collection,
		Properties: props,
	}
	if f.GeometryWKT != "" {
		if g, err := wkt.Unmarshal(f.GeometryWKT); err == nil && g != nil {
			out.Geometry = geojson.NewGeometry(g)
			out.BBox = geojson.NewBBox(g.Bound())
		}
	}
	return out
}

func toFeatureCollection(result *application.SearchResult, self *url.URL) featureCollectionResponse {
	features := make([]featureResponse, 0, len(result.Features))
	for _, f := range result.Features {
		features = append(features, toFeature(f))
	}

	fc := featureCollectionResponse{
		Type:           "FeatureCollection",
		ID:             result.ID.String(),
		Features:       features,
		NumberMatched:  result.TotalCount,
		NumberReturned: len(features),
		Context: searchContext{
			Model:    result.Model,
			Limit:    result.Page.Limit,
			Offset:   result.Page.Offset,
			Matched:  result.TotalCount,
			Returned: len(features),
		},
	}

	if self != nil {
		fc.Links = append(fc.Links, link{Rel: "self", Type: "application/geo+json", Href: self.String()})
		if next := result.Page.Offset + len(features); len(features) > 0 && next < result.TotalCount {
			fc.Links = append(fc.Links, link{Rel: "next", Type: "application/geo+json", Href: withStartIndex(self, next+1)})
		}
		if result.Page.Offset > 0 {
			prev := result.Page.Offset - result.Page.Limit
			if prev < 0 {
				prev = 0
			}
			fc.Links = append(fc.Links, link{Rel: "previous", Type: "application/geo+json", Href: withStartIndex(self, prev+1)})
		}
	}
	return fc
}

func withStartIndex(u *url.URL, startIndex int) string {
	cp := *u
	q := cp.Query()
	q.Del("page")
	q.Set("startIndex", strconv.Itoa(startIndex))
	cp.RawQuery = q.Encode()
	return cp.String()
}
