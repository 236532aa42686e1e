package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/hazardkit/pkg/hazard"
	"github.com/beam-cloud/hazardkit/pkg/plots"
	"github.com/beam-cloud/hazardkit/pkg/sources"
	"github.com/beam-cloud/hazardkit/pkg/types"
)

const jobIni = `[general]
calculation_mode = classical

[geometry]
sites = 6.0 45.2

[site_params]
reference_vs30_value = 800.0

[calculation]
investigation_time = 50.0
intensity_measure_types_and_levels = {"PGA": [0.005, 0.05, 0.5], "SA(0.1)": [0.005, 0.05, 0.5]}
maximum_distance = 200.0
pointsource_distance = 50
minimum_magnitude = 4.5

[disaggregation]
poes_disagg = 0.1 0.02
mag_bin_width = 1.0
distance_bin_width = 20.0
coordinate_bin_width = 0.2
num_epsilon_bins = 1

[output]
poes = 0.1 0.02
quantile_hazard_curves = 0.05 0.95
`

const curveCSV = `#,,,,"investigation_time=50.0, imt='PGA'"
lon,lat,depth,poe-0.0050000,poe-0.0500000,poe-0.5000000
6.0,45.2,0.0,0.9,0.1,0.001
`

const uhsCSV = `#,,,,"investigation_time=50.0"
lon,lat,0.1~PGA,0.1~SA(0.1),0.02~PGA,0.02~SA(0.1)
6.0,45.2,0.10,0.25,0.20,0.50
`

const disaggCSV = `#,,,,,"investigation_time=50.0, lon=6.0, lat=45.2"
imt,mag,dist,eps,poe,rlz0
PGA,5.0,10.0,0.0,0.1,0.02
PGA,5.0,30.0,0.0,0.1,0.01
PGA,6.0,10.0,0.0,0.1,0.05
PGA,6.0,30.0,0.0,0.1,0.02
SA(0.1),5.0,10.0,0.0,0.1,0.04
`

func outputsDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range map[string]string{
		"hazard_curve-mean-PGA_14.csv":     curveCSV,
		"hazard_curve-mean-SA(0.1)_14.csv": curveCSV,
		"quantile_curve-0.05-PGA_14.csv":   curveCSV,
		"hazard_curve-rlz-001-PGA_14.csv":  curveCSV,
		"hazard_uhs-mean_14.csv":           uhsCSV,
		"quantile_uhs-0.05_14.csv":         uhsCSV,
		"Mag_Dist-0_14.csv":                disaggCSV,
		"job.ini":                          jobIni,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

// run executes the CLI with args and returns what it wrote to stdout and
// stderr
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	stdout, stderr = &out, &errOut
	t.Cleanup(func() {
		stdout, stderr = os.Stdout, os.Stderr
		SetJSONOutput(false)
	})
	t.Setenv("HAZARDKIT_CONFIG_PATH", "")

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestParseCommand(t *testing.T) {
	out, _, err := run(t, "parse", "--json", "hazard_curve-rlz-001-PGA_14.csv", "hazard_uhs-mean_3.csv")
	require.NoError(t, err)

	records := decode[[]types.FilenameRecord](t, out)
	require.Len(t, records, 2)
	assert.Equal(t, "rlz-001", records[0].TypeData)
	assert.Equal(t, "PGA", records[0].Acc())
	assert.False(t, records[1].HasTypeAcc())
	assert.Equal(t, 3, records[1].Seed)

	out, _, err = run(t, "parse", "quantile_curve-0.05-SA(0.1)_14.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "TYPE_ACC")
	assert.Contains(t, out, "SA(0.1)")

	_, _, err = run(t, "parse", "hazard_curve_PGA.csv")
	assert.True(t, types.IsParseError(err))

	_, _, err = run(t, "parse", "job.ini")
	assert.True(t, types.IsStructureError(err))
}

func TestFilterCommand_Arguments(t *testing.T) {
	out, _, err := run(t, "filter", "--mode", "psha", "--type-acc", "PGA",
		"hazard_curve-mean-PGA_14.csv", "Mag_Dist-0_14.csv", "hazard_curve-mean-SA(0.1)_14.csv")
	require.NoError(t, err)
	assert.Equal(t, "hazard_curve-mean-PGA_14.csv\n", out)

	out, errOut, err := run(t, "filter", "--mode", "psha", "--seed", "3", "hazard_uhs-mean_14.csv")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "No output matched")
}

func TestFilterCommand_Source(t *testing.T) {
	dir := outputsDir(t)

	out, _, err := run(t, "filter", "--json", "--dir", dir, "--mode", "psha", "--type-filename", "curve", "--type-data", "mean")
	require.NoError(t, err)
	result := decode[FilterResult](t, out)
	assert.Equal(t, dir, result.Source)
	assert.Equal(t, []string{"hazard_curve-mean-PGA_14.csv", "hazard_curve-mean-SA(0.1)_14.csv"}, result.Filenames)
	assert.Equal(t, 2, result.Count)

	out, _, err = run(t, "filter", "--json", "--dir", dir, "--mode", "disaggregation", "--pattern", "Mag,Dist")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mag_Dist-0_14.csv"}, decode[FilterResult](t, out).Filenames)
}

func TestFilterCommand_Sort(t *testing.T) {
	out, _, err := run(t, "filter", "--mode", "psha", "--sort",
		"hazard_curve-mean-SA(0.1)_14.csv", "hazard_uhs-mean_14.csv", "hazard_curve-mean-PGA_14.csv")
	require.NoError(t, err)
	assert.Equal(t, "hazard_curve-mean-PGA_14.csv\nhazard_curve-mean-SA(0.1)_14.csv\n", out)
}

func TestFilterCommand_Errors(t *testing.T) {
	_, _, err := run(t, "filter", "hazard_uhs-mean_14.csv")
	assert.ErrorContains(t, err, "mode")

	_, _, err = run(t, "filter", "--mode", "classical", "hazard_uhs-mean_14.csv")
	assert.True(t, types.IsConfigurationError(err))

	_, _, err = run(t, "filter", "--mode", "disaggregation", "--sort", "Mag_Dist-0_14.csv")
	assert.True(t, types.IsConfigurationError(err))

	_, _, err = run(t, "filter", "--mode", "psha", "hazard_map_x.csv")
	assert.True(t, types.IsParseError(err))
}

func TestMetadataCommand(t *testing.T) {
	dir := outputsDir(t)

	out, _, err := run(t, "metadata", "--json", filepath.Join(dir, "job.ini"))
	require.NoError(t, err)
	meta := decode[types.JobMetadata](t, out)
	assert.Equal(t, []string{"6.0", "45.2"}, meta.Geometry.Sites)
	assert.Equal(t, []string{"PGA", "SA(0.1)"}, meta.Calculation.IMTs)
	assert.Equal(t, []string{"0.1", "0.02"}, meta.Disaggregation.Poes)

	// job.ini is not in the working directory, so it is read from the source
	out, _, err = run(t, "metadata", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Job metadata")
	assert.Contains(t, out, "800")

	_, _, err = run(t, "metadata", "--dir", t.TempDir())
	assert.ErrorIs(t, err, sources.ErrNotFound)
}

func TestPlotAllCommand(t *testing.T) {
	dir := outputsDir(t)
	outDir := filepath.Join(t.TempDir(), "figures")

	out, _, err := run(t, "plot", "all", "--json", "--dir", dir, "--out", outDir)
	require.NoError(t, err)

	manifest := decode[plots.Manifest](t, out)
	assert.NotEmpty(t, manifest.RunID)
	assert.Equal(t, dir, manifest.Source)
	assert.Equal(t, "job.ini", manifest.JobFile)
	assert.Equal(t, []string{
		"Mag_Dist-0_14.csv",
		"hazard_curve-mean-PGA_14.csv",
		"hazard_curve-mean-SA(0.1)_14.csv",
		"hazard_uhs-mean_14.csv",
		"quantile_uhs-0.05_14.csv",
	}, manifest.Inputs)

	var names []string
	for _, figure := range manifest.Figures {
		assert.FileExists(t, figure)
		names = append(names, filepath.Base(figure))
	}
	assert.ElementsMatch(t, []string{
		"hazard_curve_all_type_acc_plot.png",
		"hazard_uhs_10_plot.png",
		"hazard_uhs_50_plot.png",
		"disagg_Mag_Dist_hist3Dplot_0.1_PGA.png",
		"disagg_Mag_Dist_hist3Dplot_0.1_SA(0.1).png",
	}, names)

	written, err := plots.ReadManifest(filepath.Join(outDir, plots.ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, manifest.RunID, written.RunID)
}

func TestPlotCurvesCommand(t *testing.T) {
	dir := outputsDir(t)
	outDir := t.TempDir()

	out, _, err := run(t, "plot", "curves", "--dir", dir, "--out", outDir, "--kind", "all_type_data", "--type-acc", "PGA")
	require.NoError(t, err)
	assert.Contains(t, out, "Rendered 1 figures from 2 files")
	assert.FileExists(t, filepath.Join(outDir, "hazard_curve_all_type_data_PGA_plot.png"))

	_, _, err = run(t, "plot", "curves", "--dir", dir, "--out", outDir, "--kind", "all_type_data")
	assert.True(t, types.IsConfigurationError(err))

	_, _, err = run(t, "plot", "curves", "--dir", dir, "--out", outDir, "--seed", "7")
	assert.ErrorIs(t, err, sources.ErrNotFound)
}

func TestDisaggSummaryCommand(t *testing.T) {
	dir := outputsDir(t)

	out, _, err := run(t, "disagg", "summary", "--json", "--dir", dir, "--imt", "PGA", "--poe", "0.1", "Mag_Dist-0_14.csv")
	require.NoError(t, err)
	summaries := decode[[]hazard.Summary](t, out)
	require.Len(t, summaries, 1)
	assert.Equal(t, hazard.Scenario{Mag: 6, Dist: 10}, summaries[0].Mode)

	out, _, err = run(t, "disagg", "summary", "--dir", dir, "Mag_Dist-0_14.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "MODE M")
	assert.Contains(t, out, "SA(0.1)")

	_, _, err = run(t, "disagg", "summary", "--dir", dir, "--poe", "often", "Mag_Dist-0_14.csv")
	assert.True(t, types.IsConfigurationError(err))

	_, _, err = run(t, "disagg", "summary", "--dir", dir, "Mag_Dist-0_99.csv")
	assert.ErrorIs(t, err, sources.ErrNotFound)
}

func TestSourceOverrides(t *testing.T) {
	t.Setenv("HAZARDKIT_CONFIG_PATH", "")

	opts := &globalOptions{dir: "outputs"}
	require.NoError(t, opts.load())
	assert.Equal(t, types.SourceLocal, opts.config.Source.Kind)
	assert.Equal(t, "outputs", opts.config.Source.Dir)

	opts = &globalOptions{dir: "outputs", s3Bucket: "runs", s3Prefix: "job-14"}
	require.NoError(t, opts.load())
	assert.Equal(t, types.SourceS3, opts.config.Source.Kind)
	assert.Equal(t, "runs", opts.config.Source.S3.Bucket)
	assert.Equal(t, "job-14", opts.config.Source.S3.Prefix)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err         error
		title       string
		suggestions bool
	}{
		{err: &types.StructureError{Filename: "job.ini", Reason: "expected 3 segments"}, title: "Malformed output filename", suggestions: true},
		{err: &types.ParseError{Filename: "hazard_uhs-mean_x.csv", Segment: "x"}, title: "Invalid seed", suggestions: true},
		{err: &types.ConfigurationError{Setting: "calculation_mode", Value: "classical"}, title: "Unsupported setting", suggestions: true},
		{err: &types.ConfigurationError{Setting: "colour", Value: "red"}, title: "Unsupported setting"},
		{err: &types.MetadataError{Section: "output", Key: "poes"}, title: "Incomplete job file", suggestions: true},
		{err: fmt.Errorf("open x.csv: %w", sources.ErrNotFound), title: "Output not found", suggestions: true},
		{err: context.Canceled, title: "Interrupted"},
		{err: errors.New("disk full"), title: "Command failed"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.title, ErrorTitle(tt.err))
			assert.Equal(t, tt.suggestions, len(GetErrorSuggestions(tt.err)) > 0)
		})
	}

	assert.Equal(t, "a: d", FormatError(errors.New("error: a: b: c: d")))
	assert.Equal(t, "", FormatError(nil))
}

func TestPrintFormattedError(t *testing.T) {
	var errOut bytes.Buffer
	stderr = &errOut
	t.Cleanup(func() { stderr = os.Stderr })

	PrintFormattedError("Invalid seed", &types.ParseError{Filename: "hazard_uhs-mean_x.csv", Segment: "x"})
	assert.Contains(t, errOut.String(), "Invalid seed")
	assert.Contains(t, errOut.String(), "Suggestions:")
}
