package raster

import (
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeNames(t *testing.T) {
	for name, dt := range dataTypes {
		assert.Equal(t, name, dataTypeName(dt))
		got, err := gdalDataType(name)
		require.NoError(t, err)
		assert.Equal(t, dt, got)
		assert.Equal(t, dt.Size(), name.Size(), name)
	}

	assert.Equal(t, DataType("Int8"), dataTypeName(godal.Int8))
	assert.Equal(t, DataType("Unknown"), dataTypeName(godal.Unknown))

	_, err := gdalDataType("Unknown")
	assert.Error(t, err)
}

func TestDataTypeSizeMatchesWritableTypes(t *testing.T) {
	for _, name := range []DataType{"Unknown", "UInt64", "Int64", ""} {
		assert.Zero(t, name.Size(), name)
		_, ok := dataTypes[name]
		assert.False(t, ok, name)
	}
}

func TestBandBytes(t *testing.T) {
	m := Metadata{Width: 100, Height: 80, DataType: "Float32"}
	assert.Equal(t, int64(32000), m.BandBytes())
	m.DataType = "Unknown"
	assert.Zero(t, m.BandBytes())
}
