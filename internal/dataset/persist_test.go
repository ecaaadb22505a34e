package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drakos74/wndchrm/internal/model"
	"github.com/drakos74/wndchrm/internal/storage"
	"github.com/drakos74/wndchrm/internal/storage/file/pack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingSet_SaveLoad(t *testing.T) {
	ts := newSet(t, []string{"0.5", "1.5"},
		[]float64{1, 0, 1.23456789, -3},
		[]float64{1, 2, 2.5e-7, 4},
		[]float64{2, 10, 123456.7, model.Infinity},
	)
	path := filepath.Join(t.TempDir(), "set.fit")
	require.NoError(t, ts.Save(path))

	loaded := New(nil)
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, ts.ClassCount(), loaded.ClassCount())
	assert.Equal(t, ts.FeatureCount(), loaded.FeatureCount())
	assert.Equal(t, ts.Count(), loaded.Count())
	assert.Equal(t, ts.FeatureNames(), loaded.FeatureNames())
	assert.Equal(t, ts.Labels(), loaded.Labels())
	for i, s := range ts.Samples() {
		l := loaded.Samples()[i]
		assert.Equal(t, s.Class, l.Class)
		assert.Equal(t, s.Source, l.Source)
		for f, v := range s.Values {
			assert.InEpsilon(t, v+1, l.Values[f]+1, 1e-5)
		}
	}
}

func TestTrainingSet_Encode(t *testing.T) {
	ts := newSet(t, []string{"a", "b"},
		[]float64{2, 3, 0.5, -1},
	)
	var buf bytes.Buffer
	require.NoError(t, ts.Encode(&buf))
	expected := strings.Join([]string{
		"2", "3", "1",
		"f1", "f2", "f3",
		"", "a", "b",
		"3 5.00000e-01 -1 2",
		"sample-0.tif",
		"",
	}, "\n")
	assert.Equal(t, expected, buf.String())
}

func TestTrainingSet_Load_Malformed(t *testing.T) {

	type test struct {
		content string
		err     error
	}

	tests := map[string]test{
		"missing-feature-names": {
			content: "2\n5\n1\nf1\nf2\nf3\n",
			err:     storage.CouldNotLoadErr,
		},
		"bad-header": {
			content: "two\n",
			err:     storage.CouldNotLoadErr,
		},
		"short-sample": {
			content: "1\n2\n1\nf1\nf2\n\na\n1 1\nx.tif\n",
			err:     storage.CouldNotLoadErr,
		},
		"bad-value": {
			content: "1\n2\n1\nf1\nf2\n\na\n1 x 1\nx.tif\n",
			err:     storage.CouldNotLoadErr,
		},
		"invalid-class": {
			content: "1\n2\n1\nf1\nf2\n\na\n1 2 3\nx.tif\n",
			err:     model.ErrInvalidClass,
		},
		"missing-source": {
			content: "1\n2\n1\nf1\nf2\n\na\n1 2 1\n",
			err:     storage.CouldNotLoadErr,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "set.fit")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			ts := clusters(t)
			err := ts.Load(path)
			assert.ErrorIs(t, err, tt.err)
			// previous contents are kept
			assert.Equal(t, 4, ts.Count())
			assert.Equal(t, 2, ts.ClassCount())
			assert.Equal(t, names, ts.FeatureNames())
		})
	}
}

func TestTrainingSet_Load_Missing(t *testing.T) {
	ts := New(nil)
	err := ts.Load(filepath.Join(t.TempDir(), "nothing.fit"))
	assert.ErrorIs(t, err, storage.NotFoundErr)
	assert.Equal(t, 0, ts.Count())
}

func TestSnapshot(t *testing.T) {
	ts := clusters(t)
	require.NoError(t, ts.Normalize())
	require.NoError(t, ts.ComputeFeatureWeights(1))

	store := pack.NewPackBlob(storage.SetsDir).WithPath(t.TempDir())
	k := storage.Key{Name: "clusters"}
	require.NoError(t, store.Store(k, ts.Snapshot()))

	var snap Snapshot
	require.NoError(t, store.Load(k, &snap))
	loaded, err := FromSnapshot(snap)
	require.NoError(t, err)

	assert.Equal(t, ts.Labels(), loaded.Labels())
	assert.Equal(t, ts.Weights(), loaded.Weights())
	assert.Equal(t, ts.Mins(), loaded.Mins())
	assert.Equal(t, ts.Maxes(), loaded.Maxes())
	assert.True(t, loaded.Weighted())
	assert.True(t, loaded.Bounded())
	require.Equal(t, ts.Count(), loaded.Count())
	for i, s := range ts.Samples() {
		assert.Equal(t, s.Values, loaded.Samples()[i].Values)
		assert.Equal(t, s.Class, loaded.Samples()[i].Class)
	}

	snap.Classes[0] = 7
	_, err = FromSnapshot(snap)
	assert.ErrorIs(t, err, model.ErrInvalidClass)
}

func TestTrainingSet_Load_Unlabeled(t *testing.T) {
	ts := New([]string{"a", "b"}, Unlabeled())
	ts.SetFeatureNames(names)
	require.NoError(t, ts.AddSample(&model.Signature{Values: []float64{1, 2, 3}, Source: "query.tif"}))
	path := filepath.Join(t.TempDir(), "queries.fit")
	require.NoError(t, ts.Save(path))

	queries := New(nil, Unlabeled())
	require.NoError(t, queries.Load(path))
	require.Equal(t, 1, queries.Count())
	assert.Equal(t, 0, queries.Samples()[0].Class)

	assert.ErrorIs(t, New(nil).Load(path), model.ErrInvalidClass)
}

func TestTrainingSet_Save_Errors(t *testing.T) {
	ts := clusters(t)
	require.NoError(t, ts.ComputeFeatureWeights(1))
	dir := t.TempDir()
	assert.Error(t, ts.Save(dir))
	assert.Error(t, ts.SaveWeights(dir))
	assert.Error(t, ts.Save(filepath.Join(dir, "missing", "set.fit")))

	var buf bytes.Buffer
	require.NoError(t, ts.encodeWeights(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], " f1"))
}
