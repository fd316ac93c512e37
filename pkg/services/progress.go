package services

// Pipeline stages
const (
	StageIndex    = "index"
	StageMirror   = "mirror"
	StageAssemble = "assemble"
	StagePackage  = "package"
)

// Progress represents the progress of a pipeline run
type Progress struct {
	Stage   string
	URL     string
	Current int
	Total   int
	Status  string // "downloading", "processing", "complete", "error"
	Error   error
}
