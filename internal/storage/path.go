package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildDatasetObjectKey returns the canonical key for a dataset file, the one
// the API resolves when a dataset source is given as s3://bucket/datasets/....
func BuildDatasetObjectKey(datasetName, fileName string) (string, error) {
	if err := validatePathComponent(datasetName, "dataset name"); err != nil {
		return "", err
	}
	if err := validatePathComponent(fileName, "file name"); err != nil {
		return "", err
	}
	return path.Join("datasets", datasetName, fileName), nil
}

// BuildDatasetSnapshotKey returns a date-partitioned key so repeated uploads
// of the same dataset never overwrite each other.
func BuildDatasetSnapshotKey(datasetName, fileName string, uploadedAt time.Time) (string, error) {
	if err := validatePathComponent(datasetName, "dataset name"); err != nil {
		return "", err
	}
	if err := validatePathComponent(fileName, "file name"); err != nil {
		return "", err
	}

	ts := uploadedAt.UTC()
	return path.Join(
		"datasets",
		datasetName,
		"snapshots",
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("%02d%02d%02d-%s", ts.Hour(), ts.Minute(), ts.Second(), fileName),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
