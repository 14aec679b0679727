package preprocess

import (
	"encoding/xml"
	"os"
	"strconv"
	"strings"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

type calibrationMat struct {
	Rows int    `xml:"rows"`
	Cols int    `xml:"cols"`
	Data string `xml:"data"`
}

type calibrationFile struct {
	CameraMatrix calibrationMat `xml:"cameraMatrix"`
	DistCoeffs   calibrationMat `xml:"dist_coeffs"`
}

// LoadCalibrationXML reads a camera calibration file (the XML matrix
// container most calibration tools write) and returns the 3x3 camera
// matrix and the 5 distortion coefficients. Any failure raises
// LoadUndistort.
func LoadCalibrationXML(path string) (*[9]float64, *[5]float64, error) {
	fail := func() (*[9]float64, *[5]float64, error) {
		return nil, nil, scanerr.New(scanerr.LoadUndistort,
			"failed to load parameters for undistortion from \"{file_name}\"",
			map[string]any{"file_name": path})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail()
	}

	var parsed calibrationFile
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return fail()
	}

	cam, err := matValues(parsed.CameraMatrix, 9)
	if err != nil {
		return fail()
	}
	dist, err := matValues(parsed.DistCoeffs, 5)
	if err != nil {
		return fail()
	}

	var cameraMatrix [9]float64
	copy(cameraMatrix[:], cam)
	var distCoeffs [5]float64
	copy(distCoeffs[:], dist)
	return &cameraMatrix, &distCoeffs, nil
}

func matValues(m calibrationMat, want int) ([]float64, error) {
	fields := strings.Fields(m.Data)
	if len(fields) != want {
		return nil, strconv.ErrSyntax
	}
	values := make([]float64, want)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
