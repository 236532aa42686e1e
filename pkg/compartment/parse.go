// Package compartment sorts hazard engine output files into compartments:
// it decodes the calculation metadata carried by PSHA filenames and filters
// output listings against metadata queries.
package compartment

import (
	"slices"
	"strconv"
	"strings"

	"github.com/beam-cloud/hazardkit/pkg/types"
)

const (
	csvExtension = ".csv"
	segmentSep   = "_"
	tokenSep     = "-"

	uhsToken = "uhs"
	rlzToken = "rlz"
)

// Parse decodes {startname}_{type tokens}_{seed}.csv into a FilenameRecord.
//
// The type tokens are read with a fixed sequence of rules:
//   - without a "uhs" token the last token is the acceleration threshold
//   - with a "rlz" token the data variant is every token after the first
//     ("rlz-001"), otherwise it is the last remaining token
//   - the file type is the first remaining token
func Parse(filename string) (types.FilenameRecord, error) {
	stem := strings.TrimSuffix(filename, csvExtension)

	segments := strings.Split(stem, segmentSep)
	if len(segments) != 3 {
		return types.FilenameRecord{}, &types.StructureError{
			Filename: filename,
			Reason:   "expected {startname}_{types}_{seed}.csv",
		}
	}
	startname, typesSegment, seedSegment := segments[0], segments[1], segments[2]

	tokens := strings.Split(typesSegment, tokenSep)

	var typeAcc *string
	if !slices.Contains(tokens, uhsToken) {
		acc := tokens[len(tokens)-1]
		typeAcc = &acc
		tokens = tokens[:len(tokens)-1]
	}

	if len(tokens) == 0 {
		return types.FilenameRecord{}, &types.StructureError{
			Filename: filename,
			Reason:   "no file type left after removing the acceleration threshold",
		}
	}

	var typeData string
	if slices.Contains(tokens, rlzToken) {
		typeData = strings.Join(tokens[1:], tokenSep)
	} else {
		typeData = tokens[len(tokens)-1]
	}

	seed, err := strconv.Atoi(seedSegment)
	if err != nil {
		return types.FilenameRecord{}, &types.ParseError{
			Filename: filename,
			Segment:  seedSegment,
			Err:      err,
		}
	}

	return types.FilenameRecord{
		Startname:    startname,
		TypeFilename: tokens[0],
		TypeData:     typeData,
		TypeAcc:      typeAcc,
		Seed:         seed,
	}, nil
}

// ParseAll parses every filename, stopping at the first malformed one
func ParseAll(filenames []string) ([]types.FilenameRecord, error) {
	records := make([]types.FilenameRecord, 0, len(filenames))
	for _, filename := range filenames {
		rec, err := Parse(filename)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Build renders the canonical filename of a record. The acceleration
// threshold is never written for uhs files.
func Build(rec types.FilenameRecord) string {
	tokens := []string{rec.TypeFilename}
	if rec.TypeData != "" {
		tokens = append(tokens, rec.TypeData)
	}
	if rec.TypeFilename != uhsToken && rec.TypeAcc != nil {
		tokens = append(tokens, *rec.TypeAcc)
	}
	return rec.Startname + segmentSep + strings.Join(tokens, tokenSep) + segmentSep + strconv.Itoa(rec.Seed) + csvExtension
}
