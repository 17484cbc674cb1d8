package types

// ConversionOptions are the global settings applied to every job.
type ConversionOptions struct {
	Width   int    // 0 keeps the source width
	Format  string // "" keeps the source extension
	Quality int
}

// ImageJob is one discovered file with the options in effect.
type ImageJob struct {
	Id         string
	SourcePath string
	DestDir    string
	Options    ConversionOptions
}

type Outcome int

const (
	Converted Outcome = iota
	SkippedUnsupported
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Converted:
		return "converted"
	case SkippedUnsupported:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobResult records how a single job settled.
type JobResult struct {
	Job        ImageJob
	Outcome    Outcome
	OutputPath string
	Reason     string
}
