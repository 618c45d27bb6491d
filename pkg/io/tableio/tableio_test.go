package tableio

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/mice/pkg/synth"
	tb "github.com/wdm0006/mice/pkg/table"
)

func TestDetect(t *testing.T) {
	cases := map[string]Format{
		"a.csv": CSV, "a.csv.gz": CSV, "-": CSV, "b.TSV": TSV,
		"c.jsonl": JSONL, "c.ndjson.gz": JSONL, "d.parquet": Parquet, "e.xlsx": XLSX,
	}
	for path, want := range cases {
		got, err := Detect(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := Detect("f.xls")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = Read("x.csv", Options{Format: "avro"})
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestRoundTripAllFormats(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	in := synth.Ablate(rng, synth.Generate(rng, synth.Options{Rows: 40, Numeric: 2, Ints: 1, Categorical: 2}), 0.1)
	dir := t.TempDir()

	for _, name := range []string{"t.csv", "t.tsv.gz", "t.jsonl", "t.parquet", "t.xlsx"} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name)
			require.NoError(t, Write(p, in, Options{}))
			out, err := Read(p, Options{})
			require.NoError(t, err)
			require.Equal(t, in.Rows(), out.Rows())
			assert.Equal(t, tb.CountMissing(in), tb.CountMissing(out))
			for c, name := range in.Schema().Names() {
				j, err := out.ColumnIndex(name)
				require.NoError(t, err)
				for r := 0; r < in.Rows(); r++ {
					assert.Equal(t, in.Value(r, c), out.Value(r, j), "%s row %d", name, r)
				}
			}
		})
	}
}
