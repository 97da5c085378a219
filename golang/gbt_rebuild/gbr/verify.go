package gbr

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

//RebuildEnsemble captures every tree of the source ensemble and rebuilds them into a new one.
func RebuildEnsemble(ctx context.Context, source *Ensemble, opts ...CaptureOption) (*Ensemble, error) {
	treesPerGroup, err := source.TreesPerGroup()
	if err != nil {
		return nil, err
	}
	trees, err := CaptureModel(ctx, source, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "capturing trees")
	}
	builder := NewEnsembleBuilder(source.NGroups)
	builder.SetBaseScore(source.BaseScore)
	rebuilt, err := RebuildModel[*Ensemble](trees, treesPerGroup, builder)
	if err != nil {
		return nil, errors.Wrap(err, "rebuilding trees")
	}
	return rebuilt, nil
}

//ComparePredictions counts the rows on which the raw scores of two ensembles differ.
func ComparePredictions(expected, actual *Ensemble, features *mat.Dense) (mismatches int, err error) {
	if expected.NGroups != actual.NGroups {
		return 0, errors.Newf("ensembles have %d and %d groups", expected.NGroups, actual.NGroups)
	}
	expectedRaw, err := expected.PredictRaw(features)
	if err != nil {
		return 0, errors.Wrap(err, "predicting with the source model")
	}
	actualRaw, err := actual.PredictRaw(features)
	if err != nil {
		return 0, errors.Wrap(err, "predicting with the rebuilt model")
	}
	h, w := expectedRaw.Dims()
	for p := 0; p < h; p++ {
		for q := 0; q < w; q++ {
			if expectedRaw.At(p, q) != actualRaw.At(p, q) {
				mismatches++
				break
			}
		}
	}
	return mismatches, nil
}

//ClassificationErrors counts rows whose predicted class is not the target class.
func ClassificationErrors(predicted []int, target *mat.Dense) (int, error) {
	if h := Height(target); h != len(predicted) {
		return 0, errors.Newf("%d predictions for %d targets", len(predicted), h)
	}
	nErrors := 0
	for p, class := range predicted {
		if float64(class) != target.At(p, 0) {
			nErrors++
		}
	}
	return nErrors, nil
}

//Rmse calculates the root mean squared error between the first column of the prediction
//and the target.
func Rmse(target, prediction *mat.Dense) (float64, error) {
	h := Height(target)
	if h == 0 {
		return 0, errors.New("no rows to evaluate")
	}
	if ph := Height(prediction); ph != h {
		return 0, errors.Newf("%d predictions for %d targets", ph, h)
	}
	s := 0.0
	for p := 0; p < h; p++ {
		d := prediction.At(p, 0) - target.At(p, 0)
		s += d * d
	}
	return math.Sqrt(s / float64(h)), nil
}
