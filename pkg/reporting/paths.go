package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

// BatchDirName names the output directory of one weight batch:
// rd{density}z{zone}et{extreme}-{generations}i{population}p. The extreme trip
// weight is written as a penalty magnitude.
func BatchDirName(w optimization.Weights, generations, population int) string {
	return fmt.Sprintf("rd%sz%set%s-%di%dp",
		trimFloat(w.RidershipDensity), trimFloat(w.Zone), trimFloat(-w.ExtremeTrips), generations, population)
}

// BatchOutputDir joins root with the batch directory name
func BatchOutputDir(root string, w optimization.Weights, generations, population int) string {
	return filepath.Join(root, BatchDirName(w, generations, population))
}

// EnsureDirectoryExists creates the parent directory of path if it doesn't exist
func EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func trimFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
