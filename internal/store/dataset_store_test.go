package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gapdash/internal/dataset"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseSource(t *testing.T) {
	p, ok := ParseSource("sqlite:///tmp/gap.db")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/gap.db", p)

	_, ok = ParseSource("/tmp/gap.csv")
	assert.False(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	ds, err := dataset.Open(ctx, dataset.EmbeddedSource)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "gap.db")
	require.NoError(t, SaveDataset(ctx, path, ds))

	got, err := LoadDataset(ctx, path)
	require.NoError(t, err)
	if diff := cmp.Diff(ds.Records(), got.Records()); diff != "" {
		t.Fatalf("records differ (-saved +loaded):\n%s", diff)
	}
	assert.Equal(t, ds.Continents(), got.Continents())
	assert.Empty(t, got.NullColumns())
}

func TestSaveKeepsNullColumns(t *testing.T) {
	ctx := context.Background()
	src := "country,continent,year,lifeExp,pop,gdpPercap\n" +
		"Chad,Africa,1952,38.092,2682462,1178.665927\n"
	ds, err := dataset.Load(strings.NewReader(src))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "gap.db")
	require.NoError(t, SaveDataset(ctx, path, ds))

	got, err := LoadDataset(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{dataset.ColISO3, dataset.ColISONumeric}, got.NullColumns())
	assert.Equal(t, "", got.Cells(got.At(0))[7])
}

func TestSaveReplacesPreviousDataset(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "gap.db"))
	require.NoError(t, err)
	defer s.Close()

	full, err := dataset.Open(ctx, dataset.EmbeddedSource)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, full))

	small := dataset.New([]dataset.Record{{Country: "Chad", Continent: "Africa", Year: 1952}})
	require.NoError(t, s.Save(ctx, small))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestLoadEmptyStore(t *testing.T) {
	_, err := LoadDataset(context.Background(), filepath.Join(t.TempDir(), "empty.db"))
	assert.True(t, errors.Is(err, ErrEmpty))
}
