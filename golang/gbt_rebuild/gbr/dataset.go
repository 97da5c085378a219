package gbr

import (
	"log"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

//Dataset contains features of samples and, optionally, their targets.
type Dataset struct {
	Features *mat.Dense
	Target   *mat.Dense
}

//ReadDataset reads the features and the target of a data set. An empty target file name
//leaves Target nil.
func ReadDataset(fileNameFeatures, fileNameTarget string) (ds Dataset, err error) {
	log.Print("\ttry to load features <", fileNameFeatures, ">")
	if ds.Features, err = ReadNpy(fileNameFeatures); err != nil {
		return ds, err
	}
	if fileNameTarget == "" {
		return ds, nil
	}
	log.Print("\ttry to load target <", fileNameTarget, ">")
	if ds.Target, err = ReadNpy(fileNameTarget); err != nil {
		return ds, err
	}
	if Height(ds.Target) != Height(ds.Features) {
		return ds, errors.Newf("the target height %d is not equal to the features height %d",
			Height(ds.Target), Height(ds.Features))
	}
	return ds, nil
}

//ReadNpy reads the content of npy file
func ReadNpy(fileName string) (*mat.Dense, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading npy header of %s", fileName)
	}

	denseMat := &mat.Dense{}
	if err := r.Read(denseMat); err != nil {
		return nil, errors.Wrapf(err, "reading npy data of %s", fileName)
	}
	return denseMat, nil
}

//WriteNpy writes a matrix into a npy file
func WriteNpy(fileName string, m mat.Matrix) (err error) {
	dst, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer func() { err = errors.CombineErrors(err, dst.Close()) }()
	return npyio.Write(dst, m)
}

//Height returns the number of rows of a matrix.
func Height(m mat.Matrix) int {
	h, _ := m.Dims()
	return h
}
