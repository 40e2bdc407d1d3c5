package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/davicafu/stacsearch/internal/search/domain"
)

// DefaultRadius es el radio en metros cuando geo:radius no viene en la petición.
const DefaultRadius = 10000.0

// BBox es una caja lon/lat en 2D.
type BBox struct {
	West, South, East, North float64
}

// CrossesAntimeridian indica que la caja cruza la línea de ±180°.
func (b BBox) CrossesAntimeridian() bool {
	return b.West > b.East
}

// Bounds devuelve una o dos cajas orb; dos si cruza el antimeridiano.
func (b BBox) Bounds() []orb.Bound {
	if !b.CrossesAntimeridian() {
		return []orb.Bound{{Min: orb.Point{b.West, b.South}, Max: orb.Point{b.East, b.North}}}
	}
	return []orb.Bound{
		{Min: orb.Point{b.West, b.South}, Max: orb.Point{180, b.North}},
		{Min: orb.Point{-180, b.South}, Max: orb.Point{b.East, b.North}},
	}
}

// ParseBBox acepta 4 o 6 números separados por comas; en 3D se descartan las z.
func ParseBBox(filter, raw string) (BBox, error) {
	parts := splitTrim(raw, ",")
	switch len(parts) {
	case 4:
	case 6:
		parts = []string{parts[0], parts[1], parts[3], parts[4]}
	default:
		return BBox{}, domain.InvalidParameter(filter, "bbox must have 4 or 6 coordinates")
	}

	var c [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return BBox{}, domain.InvalidParameter(filter, "invalid bbox coordinate %q", p)
		}
		c[i] = f
	}
	return BBox{West: c[0], South: c[1], East: c[2], North: c[3]}, nil
}

// Geometry es una geometría de entrada en WKT.
type Geometry struct {
	WKT        string
	Collection bool
}

// ParseGeometry valida WKT o GeoJSON con orb. El WKT del usuario se conserva
// tal cual; el GeoJSON se convierte a WKT.
func ParseGeometry(filter, raw string) (Geometry, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Geometry{}, domain.InvalidParameter(filter, "empty geometry")
	}

	if strings.HasPrefix(s, "{") {
		g, err := geojson.UnmarshalGeometry([]byte(s))
		if err != nil || g.Geometry() == nil {
			return Geometry{}, domain.InvalidParameter(filter, "invalid GeoJSON geometry")
		}
		geom := g.Geometry()
		_, isCollection := geom.(orb.Collection)
		return Geometry{WKT: wkt.MarshalString(geom), Collection: isCollection}, nil
	}

	if _, err := wkt.Unmarshal(s); err != nil {
		return Geometry{}, domain.InvalidParameter(filter, "invalid WKT geometry: %v", err)
	}
	return Geometry{
		WKT:        s,
		Collection: strings.HasPrefix(strings.ToUpper(s), "GEOMETRYCOLLECTION"),
	}, nil
}

// Expr devuelve ST_GeomFromText(...), con un buffer cero para las colecciones
// que puedan auto-intersectarse.
func (g Geometry) Expr() domain.Expr {
	e := geomFromText(g.WKT)
	if g.Collection {
		return domain.Call{Name: "ST_Buffer", Args: []domain.Expr{e, domain.Number{Value: "0"}}}
	}
	return e
}

// PointRadius es una búsqueda por punto y radio en metros.
type PointRadius struct {
	Lon, Lat float64
	Radius   float64
}

// ParsePointRadius lee geo:lon, geo:lat y geo:radius. ok es false si falta
// lon o lat, en cuyo caso no se produce ningún predicado.
func ParsePointRadius(params map[string]string) (pr PointRadius, ok bool, err error) {
	rawLon, hasLon := params[domain.FilterLon]
	rawLat, hasLat := params[domain.FilterLat]
	if !hasLon || !hasLat || rawLon == "" || rawLat == "" {
		return PointRadius{}, false, nil
	}

	if pr.Lon, err = parseCoordinate(domain.FilterLon, rawLon, 180); err != nil {
		return PointRadius{}, false, err
	}
	if pr.Lat, err = parseCoordinate(domain.FilterLat, rawLat, 90); err != nil {
		return PointRadius{}, false, err
	}

	pr.Radius = DefaultRadius
	if rawRadius := strings.TrimSpace(params[domain.FilterRadius]); rawRadius != "" {
		r, perr := strconv.ParseFloat(rawRadius, 64)
		if perr != nil || math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return PointRadius{}, false, domain.InvalidParameter(domain.FilterRadius, "radius must be a positive number of meters")
		}
		pr.Radius = r
	}
	return pr, true, nil
}

func parseCoordinate(filter, raw string, limit float64) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || f < -limit || f > limit {
		return 0, domain.InvalidParameter(filter, "coordinate must be a number between -%s and %s", formatFloat(limit), formatFloat(limit))
	}
	return f, nil
}

// Center devuelve el punto orb (lon, lat).
func (pr PointRadius) Center() orb.Point {
	return orb.Point{pr.Lon, pr.Lat}
}

// Bound es la caja alrededor del punto que cubre el radio.
func (pr PointRadius) Bound() orb.Bound {
	return geo.NewBoundAroundPoint(pr.Center(), pr.Radius)
}

// BBox es la caja alrededor del punto. Cerca de ±180° orb devuelve
// Min[0] > Max[0], que aquí queda como caja que cruza el antimeridiano.
func (pr PointRadius) BBox() BBox {
	b := pr.Bound()
	if math.IsNaN(b.Min[0]) || math.IsNaN(b.Max[0]) {
		return BBox{West: -180, South: b.Min[1], East: 180, North: b.Max[1]}
	}
	return BBox{West: b.Min[0], South: b.Min[1], East: b.Max[0], North: b.Max[1]}
}

// RadiusDegrees aproxima el radio en grados de longitud a la latitud del
// punto; crece con 1/cos(lat) y se satura en 180.
func (pr PointRadius) RadiusDegrees() float64 {
	b := pr.Bound()
	width := b.Max[0] - b.Min[0]
	if width < 0 {
		width += 360
	}
	d := width / 2
	if math.IsNaN(d) || d <= 0 || d > 180 {
		return 180
	}
	return d
}

// ---------------- Expresiones PostGIS ----------------

func geomFromText(wktText string) domain.Expr {
	return domain.Call{
		Name: "ST_GeomFromText",
		Args: []domain.Expr{domain.Text{Value: wktText}, domain.Number{Value: domain.SRID}},
	}
}

func stIntersects(col domain.Column, geom domain.Expr) domain.Expr {
	return domain.Call{Name: "ST_intersects", Args: []domain.Expr{col, geom}}
}

func stDWithin(col domain.Column, geom domain.Expr, degrees float64) domain.Expr {
	return domain.Call{Name: "ST_dwithin", Args: []domain.Expr{col, geom, domain.Number{Value: formatFloat(degrees)}}}
}

func boundWKT(b orb.Bound) string {
	return wkt.MarshalString(b.ToPolygon())
}

// bboxPredicate devuelve un ST_intersects o, si la caja cruza el
// antimeridiano, dos unidos por OR entre paréntesis.
func bboxPredicate(col domain.Column, box BBox) domain.Expr {
	bounds := box.Bounds()
	items := make([]domain.Expr, len(bounds))
	for i, b := range bounds {
		items[i] = stIntersects(col, geomFromText(boundWKT(b)))
	}
	return domain.Or(items...)
}

// distancePredicate usa ST_dwithin en grados (aprovecha el índice espacial);
// con useDistance=false intersecta con la caja que rodea al punto.
func distancePredicate(col domain.Column, pr PointRadius, useDistance bool) domain.Expr {
	if useDistance {
		return stDWithin(col, geomFromText(wkt.MarshalString(pr.Center())), pr.RadiusDegrees())
	}
	return bboxPredicate(col, pr.BBox())
}
