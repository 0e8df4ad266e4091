package geo

import (
	"encoding/json"
	"testing"

	"realty_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(lat, lng float64) model.Property {
	return model.Property{ID: 1, Title: "p", Latitude: &lat, Longitude: &lng}
}

func TestAreaBoundAndContains(t *testing.T) {
	a, err := NewArea(25.2, 55.27, 5)
	require.NoError(t, err)

	b := a.Bound()
	assert.True(t, b.Min.Lat() < 25.2 && b.Max.Lat() > 25.2)
	assert.True(t, b.Min.Lon() < 55.27 && b.Max.Lon() > 55.27)
	assert.InDelta(t, 0.045, b.Max.Lat()-25.2, 0.005)

	assert.True(t, a.Contains(at(25.21, 55.28)))
	assert.False(t, a.Contains(at(25.5, 55.27)))
	assert.False(t, a.Contains(model.Property{}))
	assert.InDelta(t, 0, a.DistanceKm(at(25.2, 55.27)), 0.001)
}

func TestNewAreaValidation(t *testing.T) {
	_, err := NewArea(91, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidPoint)

	a, err := NewArea(0, 0, 10000)
	require.NoError(t, err)
	assert.Equal(t, float64(MaxRadiusKm), a.RadiusKm)
}

func TestFeatureCollection(t *testing.T) {
	withCoords := at(51.5, -0.12)
	withCoords.Slug = "london-flat"
	fc := FeatureCollection([]model.Property{withCoords, {ID: 2, Title: "no coords"}})
	require.Len(t, fc.Features, 1)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"FeatureCollection"`)
	assert.Contains(t, string(data), `"coordinates":[-0.12,51.5]`)
	assert.Contains(t, string(data), `"slug":"london-flat"`)
}
