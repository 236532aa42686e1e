package types

// JobMetadata is the subset of an engine job.ini the plots need
type JobMetadata struct {
	Geometry       GeometryMetadata       `json:"geometry" yaml:"geometry"`
	SiteParams     SiteParamsMetadata     `json:"site_params" yaml:"site_params"`
	Calculation    CalculationMetadata    `json:"calculation" yaml:"calculation"`
	Disaggregation DisaggregationMetadata `json:"disaggregation" yaml:"disaggregation"`
	Output         OutputMetadata         `json:"output" yaml:"output"`
}

type GeometryMetadata struct {
	Sites []string `json:"sites" yaml:"sites"`
}

type SiteParamsMetadata struct {
	Vs30 float64 `json:"vs30" yaml:"vs30"`
}

type CalculationMetadata struct {
	InvestigationTime float64 `json:"inv_t" yaml:"inv_t"`
	// IMTs keeps the declaration order of intensity_measure_types_and_levels
	IMTs                []string             `json:"imts" yaml:"imts"`
	IMTLevels           map[string][]float64 `json:"im_types_levels" yaml:"im_types_levels"`
	MaximumDistance     float64              `json:"maximum_distance" yaml:"maximum_distance"`
	PointsourceDistance float64              `json:"pointsource_distance" yaml:"pointsource_distance"`
	MinimumMagnitude    float64              `json:"minimum_magnitude" yaml:"minimum_magnitude"`
}

type DisaggregationMetadata struct {
	Poes        []string `json:"disag_poes" yaml:"disag_poes"`
	MagBin      float64  `json:"magbin" yaml:"magbin"`
	DistBin     float64  `json:"distbin" yaml:"distbin"`
	CoordBin    float64  `json:"coordbin" yaml:"coordbin"`
	EpsilonBins int      `json:"eps" yaml:"eps"`
}

type OutputMetadata struct {
	Poes      []string `json:"poes" yaml:"poes"`
	Quantiles []string `json:"type_data" yaml:"type_data"`
}
