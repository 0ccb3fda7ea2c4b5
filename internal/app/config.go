package app

import "errors"

// Mode selects which operation a single invocation performs. Every mode
// runs the same scan -> registry -> graph pipeline first.
type Mode string

const (
	ModeCompose   Mode = "compose"
	ModeCheck     Mode = "check"
	ModeCheckAll  Mode = "check-all"
	ModeDumpAll   Mode = "dump-dependencies"
	ModeDumpGroup Mode = "dump-group-dependencies"
	ModeStat      Mode = "stat"
)

// Config holds all the configuration an App instance needs to run once.
type Config struct {
	Mode Mode

	// Compose.
	InPath       string
	OutPath      string
	SparePaths   []string
	ManifestPath string

	// Gatekeeper.
	StudentRepo          string
	OriginalRepo         string
	CIBranchName         string
	UserID               string
	NoPrerequisitesCheck bool
	DryRun               bool
	HistoryPath          string
	BranchPrefix         string

	// Export.
	Group string

	LogFormat string
	LogLevel  string
}

// NewConfig validates the per-mode required fields.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Mode {
	case ModeCompose:
		if cfg.InPath == "" || cfg.OutPath == "" {
			return nil, errors.New("compose requires both --in-path and --out-path")
		}
	case ModeCheck:
		if cfg.StudentRepo == "" || cfg.OriginalRepo == "" {
			return nil, errors.New("check requires --student-repo and --original-repo")
		}
		if cfg.CIBranchName == "" {
			return nil, errors.New("check requires --ci-branch-name")
		}
		if cfg.UserID == "" {
			return nil, errors.New("check requires --user-id")
		}
	case ModeCheckAll:
		if cfg.StudentRepo == "" || cfg.OriginalRepo == "" {
			return nil, errors.New("check requires --student-repo and --original-repo")
		}
		if cfg.UserID == "" {
			return nil, errors.New("check requires --user-id")
		}
	case ModeDumpAll, ModeStat:
		if cfg.InPath == "" {
			return nil, errors.New("--in-path is required")
		}
	case ModeDumpGroup:
		if cfg.InPath == "" {
			return nil, errors.New("--in-path is required")
		}
		if cfg.Group == "" {
			return nil, errors.New("--dump-group-dependencies requires a lab slug")
		}
	default:
		return nil, errors.New("no operation selected")
	}
	return &cfg, nil
}

// ScanRoot returns the tree the pipeline scans for this mode.
func (c *Config) ScanRoot() string {
	switch c.Mode {
	case ModeCheck, ModeCheckAll:
		return c.OriginalRepo
	default:
		return c.InPath
	}
}
