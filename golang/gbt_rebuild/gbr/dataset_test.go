package gbr

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestReadDataset(t *testing.T) {
	dir := t.TempDir()
	featuresFile := filepath.Join(dir, "features.npy")
	targetFile := filepath.Join(dir, "target.npy")

	features := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, WriteNpy(featuresFile, features))
	require.NoError(t, WriteNpy(targetFile, mat.NewDense(3, 1, []float64{0, 1, 0})))

	ds, err := ReadDataset(featuresFile, targetFile)
	require.NoError(t, err)
	require.True(t, mat.Equal(features, ds.Features))
	require.Equal(t, 3, Height(ds.Target))

	ds, err = ReadDataset(featuresFile, "")
	require.NoError(t, err)
	require.Nil(t, ds.Target)

	require.NoError(t, WriteNpy(targetFile, mat.NewDense(2, 1, []float64{0, 1})))
	_, err = ReadDataset(featuresFile, targetFile)
	require.EqualError(t, err, "the target height 2 is not equal to the features height 3")
}

func TestErrorMetrics(t *testing.T) {
	target := mat.NewDense(4, 1, []float64{0, 1, 2, 1})
	nErrors, err := ClassificationErrors([]int{0, 1, 1, 1}, target)
	require.NoError(t, err)
	require.Equal(t, 1, nErrors)

	_, err = ClassificationErrors([]int{0}, target)
	require.EqualError(t, err, "1 predictions for 4 targets")

	prediction := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	rmse, err := Rmse(target, prediction)
	require.NoError(t, err)
	require.InDelta(t, 1.0, rmse, 1e-12)

	_, err = Rmse(target, mat.NewDense(2, 1, nil))
	require.EqualError(t, err, "2 predictions for 4 targets")
	_, err = Rmse(&mat.Dense{}, &mat.Dense{})
	require.EqualError(t, err, "no rows to evaluate")
}
