package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type GeneState struct {
	Name       string  `json:"name"`
	Expression float64 `json:"expression"`
}

type IndividualState struct {
	Genes   []GeneState `json:"genes"`
	Fitness float64     `json:"fitness"`
}

// PopulationSnapshot is the persisted state of one simulation instance at the
// end of a generation.
type PopulationSnapshot struct {
	VersionedRecord
	RunID       string            `json:"run_id"`
	Generation  int               `json:"generation"`
	Individuals []IndividualState `json:"individuals"`
}

// GenerationSummary is the per-generation diagnostics record collected by the
// run platform after each step.
type GenerationSummary struct {
	Generation     int     `json:"generation"`
	BestFitness    float64 `json:"best_fitness"`
	MeanFitness    float64 `json:"mean_fitness"`
	MinFitness     float64 `json:"min_fitness"`
	FitnessStdDev  float64 `json:"fitness_std_dev"`
	MeanExpression float64 `json:"mean_expression"`
}
