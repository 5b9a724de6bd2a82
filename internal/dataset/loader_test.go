package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEmbedded(t *testing.T) {
	ds, err := Open(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 98, ds.Len())
	assert.Equal(t, []string{"Africa", "Americas", "Asia", "Europe", "Oceania"}, ds.Continents())
	assert.Equal(t, []int{1952, 2007}, ds.Years())
	assert.Empty(t, ds.NullColumns())

	first := ds.At(0)
	assert.Equal(t, "Afghanistan", first.Country)
	assert.Equal(t, 1952, first.Year)
	assert.Equal(t, int64(8425333), first.Population)
	assert.Equal(t, "AFG", first.ISO3)
}

func TestLoadRenamesAndNormalizesYear(t *testing.T) {
	src := "country,continent,year,lifeExp,pop,gdpPercap,iso_alpha,iso_num\n" +
		"Norway,Europe,1952.0,72.67,3327728,10095.42172,NOR,578\n"
	ds, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())

	r := ds.At(0)
	assert.Equal(t, 1952, r.Year)
	assert.Equal(t, 72.67, r.LifeExpectancy)
	assert.Equal(t, 578, r.ISONumeric)
	assert.Equal(t, []string{"Norway", "Europe", "1952", "72.67", "3327728", "10095.42172", "NOR", "578"}, ds.Cells(r))
}

func TestLoadMissingColumnSubstitutesNulls(t *testing.T) {
	// The plotly five-year CSV has no ISO columns.
	src := "country,year,pop,continent,lifeExp,gdpPercap\n" +
		"Afghanistan,1952,8425333,Asia,28.801,779.4453145\n" +
		"Albania,1952,1282697,Europe,55.23,1601.056136\n"
	ds, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{ColISO3, ColISONumeric}, ds.NullColumns())
	assert.True(t, ds.IsNull(ColISO3))
	assert.False(t, ds.At(0).HasISO3())

	cells := ds.Cells(ds.At(1))
	assert.Equal(t, "", cells[6])
	assert.Equal(t, "", cells[7])
}

func TestLoadCanonicalHeaders(t *testing.T) {
	src := "Country,Continent,Year,Life Expectancy,Population,GDP per Capita,ISO-3\n" +
		"Japan,Asia,2007,82.603,127467972,31656.06806,JPN\n"
	ds, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{ColISONumeric}, ds.NullColumns())
	assert.Equal(t, "JPN", ds.At(0).ISO3)
}

func TestLoadMalformedCellsAreNull(t *testing.T) {
	src := "country,continent,year,lifeExp,pop,gdpPercap\n" +
		"Chad,Africa,1952,n/a,2682462,1178.665927\n"
	ds, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 0.0, ds.At(0).LifeExpectancy)
	assert.Equal(t, int64(2682462), ds.At(0).Population)
}

func TestLoadNonFiniteCellsAreNull(t *testing.T) {
	src := "country,continent,year,lifeExp,pop,gdpPercap\n" +
		"Chad,Africa,1952,inf,2682462,-Inf\n" +
		"Mali,Africa,1952,+Inf,NaN,1e400\n"
	ds, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		assert.Equal(t, 0.0, r.LifeExpectancy, r.Country)
		assert.Equal(t, 0.0, r.GDPPerCapita, r.Country)
	}
	assert.Equal(t, int64(2682462), ds.At(0).Population)
	assert.Equal(t, int64(0), ds.At(1).Population)
}

func TestLoadOutOfRangeIntegersAreNull(t *testing.T) {
	src := "country,continent,year,lifeExp,pop,gdpPercap\n" +
		"Chad,Africa,1952,38.1,1e30,1178.66\n" +
		"Mali,Africa,1e19,37.0,-9.3e18,452.3\n" +
		"Niger,Africa,1952.0,37.4,3379468.0,761.9\n"
	ds, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, int64(0), ds.At(0).Population)
	assert.Equal(t, 0, ds.At(1).Year)
	assert.Equal(t, int64(0), ds.At(1).Population)
	assert.Equal(t, 1952, ds.At(2).Year)
	assert.Equal(t, int64(3379468), ds.At(2).Population)
}

func TestParseIntBounds(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"", 0, true},
		{"1952", 1952, true},
		{"2007.0", 2007, true},
		{"9223372036854775807", 9223372036854775807, true},
		{"9.3e18", 0, false},
		{"-1e30", 0, false},
		{"inf", 0, false},
		{"x", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseInt(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoadEmptyInput(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrNoHeader))

	_, err = Load(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.True(t, errors.Is(err, ErrNoHeader))
}

func TestOpenFileAndHTTP(t *testing.T) {
	src := "country,continent,year,lifeExp,pop,gdpPercap\nPeru,Americas,2007,71.421,28674757,7408.905561\n"

	path := filepath.Join(t.TempDir(), "gap.csv")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	ds, err := Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Peru", ds.At(0).Country)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gap.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(src))
	}))
	defer srv.Close()

	ds, err = Open(context.Background(), srv.URL+"/gap.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	_, err = Open(context.Background(), srv.URL+"/missing.csv")
	assert.Error(t, err)
}

func TestDatasetIsImmutable(t *testing.T) {
	ds, err := Open(context.Background(), EmbeddedSource)
	require.NoError(t, err)

	recs := ds.Records()
	recs[0].Country = "Mutated"
	years := ds.Years()
	years[0] = 1

	assert.Equal(t, "Afghanistan", ds.At(0).Country)
	assert.Equal(t, 1952, ds.Years()[0])
	assert.True(t, ds.HasYear(2007))
	assert.False(t, ds.HasYear(1960))
	assert.True(t, ds.HasContinent("Oceania"))
	assert.False(t, ds.HasContinent("Antarctica"))
}
