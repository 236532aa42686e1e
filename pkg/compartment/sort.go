package compartment

import (
	"fmt"
	"strconv"
	"strings"
)

// AccelerationOrder is the display order of acceleration thresholds, from
// peak ground acceleration to the longest spectral period.
var AccelerationOrder = []string{
	"PGA",
	"SA(0.03)",
	"SA(0.05)",
	"SA(0.1)",
	"SA(0.15)",
	"SA(0.2)",
	"SA(0.25)",
	"SA(0.3)",
	"SA(0.4)",
	"SA(0.5)",
	"SA(0.75)",
	"SA(1.0)",
	"SA(1.5)",
	"SA(2.0)",
	"SA(3.0)",
}

// SortByAcceleration orders PSHA filenames by their acceleration threshold
// following AccelerationOrder. Files without a threshold, or with one not in
// AccelerationOrder, are left out. Duplicate filenames are an error.
func SortByAcceleration(filenames []string) ([]string, error) {
	rank := make(map[string]int, len(AccelerationOrder))
	for i, acc := range AccelerationOrder {
		rank[acc] = i
	}

	buckets := make([][]string, len(AccelerationOrder))
	seen := make(map[string]struct{}, len(filenames))
	for _, filename := range filenames {
		if _, dup := seen[filename]; dup {
			return nil, fmt.Errorf("sort by acceleration: duplicate filename %q", filename)
		}
		seen[filename] = struct{}{}

		rec, err := Parse(filename)
		if err != nil {
			return nil, err
		}
		i, ok := rank[rec.Acc()]
		if !rec.HasTypeAcc() || !ok {
			continue
		}
		buckets[i] = append(buckets[i], filename)
	}

	sorted := make([]string, 0, len(filenames))
	for _, bucket := range buckets {
		sorted = append(sorted, bucket...)
	}
	return sorted, nil
}

// SeedOf returns the seed carried by the first name of a directory listing
func SeedOf(listing []string) (int, error) {
	if len(listing) == 0 {
		return 0, fmt.Errorf("seed of listing: no files")
	}

	stem := strings.TrimSuffix(listing[0], csvExtension)
	segment := stem[strings.LastIndex(stem, segmentSep)+1:]
	seed, err := strconv.Atoi(segment)
	if err != nil {
		return 0, fmt.Errorf("seed of listing: %q: %w", listing[0], err)
	}
	return seed, nil
}
