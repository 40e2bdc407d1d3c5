package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRadiusDegrees_GrowsWithLatitude(t *testing.T) {
	// Arrange
	equator := PointRadius{Lon: 0, Lat: 0, Radius: DefaultRadius}
	north := PointRadius{Lon: 0, Lat: 60, Radius: DefaultRadius}

	// Act / Assert
	assert.InDelta(t, 0.0898, equator.RadiusDegrees(), 1e-3)
	assert.InDelta(t, 0.1797, north.RadiusDegrees(), 5e-3)
	assert.Greater(t, north.RadiusDegrees(), equator.RadiusDegrees())
}

func TestRadiusDegrees_SaturatesNearThePole(t *testing.T) {
	pr := PointRadius{Lon: 0, Lat: 89.99, Radius: 100000}
	assert.LessOrEqual(t, pr.RadiusDegrees(), 180.0)
	assert.Greater(t, pr.RadiusDegrees(), 0.0)
}

func TestRadiusDegrees_NearTheAntimeridian(t *testing.T) {
	for _, lon := range []float64{179.99, -179.99, 180, -180} {
		pr := PointRadius{Lon: lon, Lat: 0, Radius: DefaultRadius}
		assert.InDelta(t, 0.0898, pr.RadiusDegrees(), 1e-3, "lon=%v", lon)
	}
}

func TestPointRadiusBBox_SplitsAtTheAntimeridian(t *testing.T) {
	// Arrange
	pr := PointRadius{Lon: 179.99, Lat: 0, Radius: DefaultRadius}

	// Act
	box := pr.BBox()
	bounds := box.Bounds()

	// Assert
	assert.True(t, box.CrossesAntimeridian())
	assert.InDelta(t, 179.9002, box.West, 1e-3)
	assert.InDelta(t, -179.9202, box.East, 1e-3)
	require.Len(t, bounds, 2)
	assert.Equal(t, 180.0, bounds[0].Max[0])
	assert.Equal(t, -180.0, bounds[1].Min[0])
}

func TestPointRadiusBBox_AwayFromTheAntimeridian(t *testing.T) {
	box := PointRadius{Lon: 2.35, Lat: 48.85, Radius: 5000}.BBox()

	assert.False(t, box.CrossesAntimeridian())
	assert.Less(t, box.West, 2.35)
	assert.Greater(t, box.East, 2.35)
}

func TestParsePointRadius_DefaultRadius(t *testing.T) {
	pr, ok, err := ParsePointRadius(map[string]string{"geo:lon": "2.35", "geo:lat": "48.85"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DefaultRadius, pr.Radius)
	assert.Equal(t, 2.35, pr.Lon)
	assert.Equal(t, 48.85, pr.Lat)
}

func TestBBox_Bounds(t *testing.T) {
	box, err := ParseBBox("geo:box", " 170, -10 , -170, 10")
	require.NoError(t, err)

	bounds := box.Bounds()
	require.Len(t, bounds, 2)
	assert.True(t, box.CrossesAntimeridian())
	assert.Equal(t, 180.0, bounds[0].Max[0])
	assert.Equal(t, -180.0, bounds[1].Min[0])
	assert.Equal(t, -170.0, bounds[1].Max[0])
}

func TestParseGeometry_GeoJSONPolygon(t *testing.T) {
	g, err := ParseGeometry("geo:geometry", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)
	require.NoError(t, err)
	assert.Equal(t, "POLYGON((0 0,1 0,1 1,0 0))", g.WKT)
	assert.False(t, g.Collection)
}

func TestSplitTerms(t *testing.T) {
	assert.Equal(t, []string{"a", "new york", "#b"}, splitTerms(`a  "new york"   #b`))
	assert.Nil(t, splitTerms("   "))
}
