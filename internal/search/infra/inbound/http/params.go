package http

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/davicafu/stacsearch/internal/search/application"
	searchDomain "github.com/davicafu/stacsearch/internal/search/domain"
	sharedQuery "github.com/davicafu/stacsearch/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/stacsearch/internal/shared/infra/utils"
)

// Limits acota el tamaño de página.
type Limits struct {
	Default int
	Max     int
}

// Parámetros STAC -> nombre de filtro OpenSearch.
var stacToFilter = map[string]string{
	"q":               searchDomain.FilterSearchTerms,
	"bbox":            searchDomain.FilterBox,
	"intersects":      searchDomain.FilterGeometry,
	"lon":             searchDomain.FilterLon,
	"lat":             searchDomain.FilterLat,
	"radius":          searchDomain.FilterRadius,
	"name":            searchDomain.FilterName,
	"start":           searchDomain.FilterStart,
	"end":             searchDomain.FilterEnd,
	"created":         searchDomain.FilterCreated,
	"prev":            searchDomain.FilterGreaterThan,
	"next":            searchDomain.FilterLowerThan,
	"pid":             "eo:productIdentifier",
	"owner":           searchDomain.FilterOwner,
	"likes":           "resto:likes",
	"liked":           searchDomain.FilterLiked,
	"status":          "resto:status",
	"ids":             "resto:id",
	"collections":     "resto:collection",
	"lineage":         searchDomain.FilterModel,
	"productType":     "eo:productType",
	"processingLevel": "eo:processingLevel",
	"platform":        "eo:platform",
	"instrument":      "eo:instrument",
	"sensorType":      "eo:sensorType",
	"cloudCover":      "eo:cloudCover",
	"snowCover":       "eo:snowCover",
	"lang":            "language",
}

func init() {
	for _, k := range searchDomain.LandCoverKeys {
		stacToFilter[k] = "landcover:" + k
	}
}

// Claves de ordenación públicas -> columna indexada.
var sortKeys = map[string]string{
	"startDate": "startdate_idx",
	"created":   "created_idx",
}

const defaultSortKey = "startdate_idx"

// parseSearchQuery traduce los parámetros STAC a una SearchRequest.
// Los parámetros desconocidos se ignoran.
func parseSearchQuery(values url.Values, limits Limits) (application.SearchRequest, error) {
	req := application.SearchRequest{Params: make(map[string]string)}

	// Sólo uno de intersects o bbox
	if values.Get("intersects") != "" && values.Get("bbox") != "" {
		return req, searchDomain.InvalidParameter("intersects", "only one of either intersects or bbox should be specified")
	}

	for name, filter := range stacToFilter {
		if v := strings.TrimSpace(values.Get(name)); v != "" {
			req.Params[filter] = v
		}
	}

	if dt := strings.TrimSpace(values.Get("datetime")); dt != "" {
		start, end := splitDatetime(dt)
		if start != "" {
			req.Params[searchDomain.FilterStart] = start
		}
		if end != "" {
			req.Params[searchDomain.FilterEnd] = end
		}
	}

	req.Model = values.Get("model")
	req.NoGeo, _ = strconv.ParseBool(values.Get("_heatmapNoGeo"))

	sort, err := parseSort(values.Get("sort"))
	if err != nil {
		return req, err
	}
	req.Sort = sort

	page, err := parsePage(values, limits)
	if err != nil {
		return req, err
	}
	req.Page = page

	return req, nil
}

// splitDatetime separa un intervalo STAC "a/b"; ".." o vacío es un extremo abierto.
// Un instante único se usa en ambos extremos.
func splitDatetime(dt string) (string, string) {
	parts := strings.SplitN(dt, "/", 2)
	if len(parts) == 1 {
		return dt, dt
	}
	open := func(s string) string {
		s = strings.TrimSpace(s)
		return sharedUtils.Ternary(s == "..", "", s)
	}
	return open(parts[0]), open(parts[1])
}

// parseSort acepta "startDate" (descendente) o "-startDate" (ascendente).
func parseSort(raw string) (sharedQuery.Sort, error) {
	if raw == "" {
		return sharedQuery.Sort{Field: defaultSortKey, Desc: true}, nil
	}
	asc := strings.HasPrefix(raw, "-")
	key, ok := sortKeys[strings.TrimPrefix(raw, "-")]
	if !ok {
		return sharedQuery.Sort{}, searchDomain.InvalidParameter("sort", "unsupported sort key %q", raw)
	}
	return sharedQuery.Sort{Field: key, Desc: !asc}, nil
}

func parsePage(values url.Values, limits Limits) (sharedQuery.OffsetPagination, error) {
	limit := limits.Default
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return sharedQuery.OffsetPagination{}, searchDomain.InvalidParameter("limit", "limit must be a positive integer")
		}
		limit = sharedUtils.Clamp(n, 1, limits.Max)
	}

	for _, name := range []string{"startIndex", "page"} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err != nil || n < 1 {
			return sharedQuery.OffsetPagination{}, searchDomain.InvalidParameter(name, "%s must be a positive integer", name)
		}
	}

	if raw := values.Get("startIndex"); raw != "" {
		return sharedQuery.FromStartIndex(sharedUtils.AtoiDefault(raw, 1), limit), nil
	}
	return sharedQuery.FromPage(sharedUtils.AtoiDefault(values.Get("page"), 1), limit), nil
}

// searchBody es el cuerpo de POST /search.
type searchBody struct {
	BBox        []float64         `json:"bbox"`
	Intersects  json.RawMessage   `json:"intersects"`
	Datetime    string            `json:"datetime"`
	Collections []string          `json:"collections"`
	IDs         []string          `json:"ids"`
	Q           string            `json:"q"`
	Limit       int               `json:"limit"`
	StartIndex  int               `json:"startIndex"`
	Model       string            `json:"model"`
	Sort        string            `json:"sort"`
	Query       map[string]string `json:"query"` // resto de parámetros STAC por nombre
}

// values convierte el cuerpo en los mismos parámetros que la búsqueda GET.
func (b searchBody) values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	for k, val := range b.Query {
		set(k, val)
	}
	if len(b.BBox) > 0 {
		coords := make([]string, len(b.BBox))
		for i, c := range b.BBox {
			coords[i] = strconv.FormatFloat(c, 'f', -1, 64)
		}
		v.Set("bbox", strings.Join(coords, ","))
	}
	if len(b.Intersects) > 0 && string(b.Intersects) != "null" {
		v.Set("intersects", string(b.Intersects))
	}
	set("datetime", b.Datetime)
	set("collections", strings.Join(b.Collections, ","))
	set("ids", strings.Join(b.IDs, ","))
	set("q", b.Q)
	set("model", b.Model)
	set("sort", b.Sort)
	if b.Limit != 0 {
		v.Set("limit", strconv.Itoa(b.Limit))
	}
	if b.StartIndex != 0 {
		v.Set("startIndex", strconv.Itoa(b.StartIndex))
	}
	return v
}
