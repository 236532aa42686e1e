package compartment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/hazardkit/pkg/types"
)

func strPtr(s string) *string { return &s }

// generateFilename mirrors the engine's naming: uhs files carry no threshold
func generateFilename(startname, typeFilename, typeData, typeAcc string, seed int) (string, types.FilenameRecord) {
	rec := types.FilenameRecord{
		Startname:    startname,
		TypeFilename: typeFilename,
		TypeData:     typeData,
		Seed:         seed,
	}
	name := fmt.Sprintf("%s_%s-%s", startname, typeFilename, typeData)
	if typeFilename != "uhs" {
		rec.TypeAcc = strPtr(typeAcc)
		name += "-" + typeAcc
	}
	return fmt.Sprintf("%s_%d.csv", name, seed), rec
}

type filenameGrid struct {
	startnames    []string
	typeFilenames []string
	typeDatas     map[string][]string
	typeAccs      []string
	seeds         []int
}

var defaultGrid = filenameGrid{
	startnames:    []string{"hazard", "quantile"},
	typeFilenames: []string{"uhs", "curve"},
	typeDatas: map[string][]string{
		"hazard":   {"mean", "rlz-001", "rlz-002"},
		"quantile": {"0.5", "0.05", "0.95"},
	},
	typeAccs: []string{"PGA", "SA(0.1)", "SA(0.2)"},
	seeds:    []int{0, 14, 42},
}

func (g filenameGrid) generate() ([]string, []types.FilenameRecord) {
	var filenames []string
	var records []types.FilenameRecord
	for _, startname := range g.startnames {
		for _, typeFilename := range g.typeFilenames {
			for _, typeData := range g.typeDatas[startname] {
				for _, seed := range g.seeds {
					for _, typeAcc := range g.typeAccs {
						name, rec := generateFilename(startname, typeFilename, typeData, typeAcc, seed)
						filenames = append(filenames, name)
						records = append(records, rec)
					}
				}
			}
		}
	}
	return filenames, records
}

func TestParse_Grid(t *testing.T) {
	filenames, expected := defaultGrid.generate()
	require.Len(t, filenames, 108)

	for i, filename := range filenames {
		rec, err := Parse(filename)
		require.NoError(t, err, filename)
		assert.Equal(t, expected[i], rec, filename)
	}
}

func TestParse_Realization(t *testing.T) {
	rec, err := Parse("hazard_curve-rlz-001-PGA_14.csv")
	require.NoError(t, err)

	assert.Equal(t, types.FilenameRecord{
		Startname:    "hazard",
		TypeFilename: "curve",
		TypeData:     "rlz-001",
		TypeAcc:      strPtr("PGA"),
		Seed:         14,
	}, rec)
}

func TestParse_UHSHasNoThreshold(t *testing.T) {
	rec, err := Parse("quantile_uhs-0.95_42.csv")
	require.NoError(t, err)

	assert.Equal(t, "uhs", rec.TypeFilename)
	assert.Equal(t, "0.95", rec.TypeData)
	assert.False(t, rec.HasTypeAcc())
	assert.Equal(t, "", rec.Acc())
	assert.Equal(t, 42, rec.Seed)
}

func TestParse_SpectralThreshold(t *testing.T) {
	rec, err := Parse("quantile_curve-0.05-SA(0.2)_0.csv")
	require.NoError(t, err)

	assert.Equal(t, "0.05", rec.TypeData)
	assert.Equal(t, "SA(0.2)", rec.Acc())
	assert.Equal(t, 0, rec.Seed)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		structure bool
		parse     bool
	}{
		{name: "two segments", filename: "hazard_curve.csv", structure: true},
		{name: "four segments", filename: "Mag_Dist-0_14_2.csv", structure: true},
		{name: "disaggregation name", filename: "Mag_Dist_Eps-0_14.csv", structure: true},
		{name: "only a threshold", filename: "hazard_PGA_14.csv", structure: true},
		{name: "non numeric seed", filename: "hazard_curve-mean-PGA_abc.csv", parse: true},
		{name: "empty seed", filename: "hazard_uhs-mean_.csv", parse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.filename)
			require.Error(t, err)
			assert.Equal(t, tt.structure, types.IsStructureError(err), err.Error())
			assert.Equal(t, tt.parse, types.IsParseError(err), err.Error())
		})
	}
}

func TestParse_RealizationContainingUHS(t *testing.T) {
	// "uhs" must be a whole token to suppress the threshold
	rec, err := Parse("hazard_curve-rlz-uhsx-PGA_3.csv")
	require.NoError(t, err)
	assert.Equal(t, "rlz-uhsx", rec.TypeData)
	assert.Equal(t, "PGA", rec.Acc())
}

func TestBuild_RoundTrip(t *testing.T) {
	_, records := defaultGrid.generate()
	for _, rec := range records {
		name := Build(rec)
		parsed, err := Parse(name)
		require.NoError(t, err, name)
		assert.Equal(t, rec, parsed, name)
	}
}

func TestBuild_DropsThresholdForUHS(t *testing.T) {
	name := Build(types.FilenameRecord{
		Startname:    "hazard",
		TypeFilename: "uhs",
		TypeData:     "mean",
		TypeAcc:      strPtr("PGA"),
		Seed:         0,
	})
	assert.Equal(t, "hazard_uhs-mean_0.csv", name)
}

func TestParseAll(t *testing.T) {
	records, err := ParseAll([]string{"hazard_uhs-mean_0.csv", "hazard_curve-mean-PGA_0.csv"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "uhs", records[0].TypeFilename)
	assert.Equal(t, "PGA", records[1].Acc())

	_, err = ParseAll([]string{"hazard_uhs-mean_0.csv", "TRT-0_14.csv"})
	assert.True(t, types.IsStructureError(err))
}
