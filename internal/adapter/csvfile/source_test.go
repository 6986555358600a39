package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montreal-tree-map/internal/config"
)

const sampleCSV = `Arrond,Essence_en,Date_Plantation,Latitude,Longitude,DHP
Rosemont,Norway Maple,2010-05-14T00:00:00,45.5123,-73.5567,22
Ville-Marie,American Elm,1998-06-01T00:00:00,45.5088,-73.5542,35
short-row,Oak
Outremont,,205,45.52,-73.60,11
`

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arbres-part-1.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestSource_Read(t *testing.T) {
	src := New(writeCSV(t, sampleCSV), config.DefaultColumns())

	rows, short, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, 1, short)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "arbres-part-1.csv", first.Source)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "Norway Maple", first.Species)
	assert.Equal(t, "2010-05-14T00:00:00", first.PlantedDate)
	assert.Equal(t, "45.5123", first.Lat)
	assert.Equal(t, "-73.5567", first.Lon)
	assert.Equal(t, map[string]string{"Arrond": "Rosemont", "DHP": "22"}, first.Extra)
	assert.Empty(t, first.ID)

	// The sentinel-year row still extracts; validation rejects it later.
	assert.Equal(t, "205", rows[2].PlantedDate)
	assert.Equal(t, 5, rows[2].Line)
}

func TestSource_Read_MappedID(t *testing.T) {
	csv := "EMP_NO,Essence_en,Date_Plantation,Latitude,Longitude\n" +
		"A-17,Silver Maple,1975,45.52,-73.58\n"
	mapping := config.DefaultColumns()
	mapping.ID = "EMP_NO"
	src := New(writeCSV(t, csv), mapping)

	rows, short, err := src.Read()
	require.NoError(t, err)
	assert.Zero(t, short)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-17", rows[0].ID)
	assert.NotContains(t, rows[0].Extra, "EMP_NO")
}

func TestSource_Read_MissingFile(t *testing.T) {
	src := New(filepath.Join(t.TempDir(), "absent.csv"), config.DefaultColumns())
	_, _, err := src.Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open source")
}

func TestSource_Read_MissingMappedColumn(t *testing.T) {
	src := New(writeCSV(t, "Essence_en,Latitude,Longitude\nElm,45.5,-73.5\n"), config.DefaultColumns())
	_, _, err := src.Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no column "Date_Plantation"`)
}

func TestSource_Name(t *testing.T) {
	src := New("/data/extracts/arbres-part-3.csv", config.DefaultColumns())
	assert.Equal(t, "arbres-part-3.csv", src.Name())
}
