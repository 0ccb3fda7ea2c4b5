// Package cli parses command-line arguments, validates user input, and
// owns process-level concerns like exit codes. It translates flags into
// the application's internal configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/labgate/internal/app"
	"github.com/vk/labgate/internal/config"
)

// ExitError is an error with a specific process exit code attached.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// Parse processes command-line arguments. It returns a populated
// app.Config, a boolean indicating the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, false, &ExitError{Code: CodeUsage, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("labgate", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
labgate - course content composer, submission gatekeeper, and task graph tools.

Modes (choose one):
  --in-path with --out-path     compose the public view of a course tree
  --student-repo ...            check a submission branch (gatekeeper)
  --dump-dependencies           print the full task graph in DOT
  --dump-group-dependencies LAB print one lab's induced subgraph in DOT
  --stat                        print task/lab/span counts

Options:
`)
		flagSet.PrintDefaults()
	}

	inPath := flagSet.String("in-path", "", "Path to the solution course tree.")
	outPath := flagSet.String("out-path", "", "Destination for the composed public view.")
	manifestPath := flagSet.String("manifest-path", "", "Where to write the task manifest (default: <out-path>.manifest.yaml).")
	var spare stringList
	flagSet.Var(&spare, "spare", "Relative path copied verbatim and never scanned. Repeatable.")

	studentRepo := flagSet.String("student-repo", "", "Path to the student's checked-out repository.")
	originalRepo := flagSet.String("original-repo", "", "Path to the original (solution) repository.")
	branchName := flagSet.String("ci-branch-name", "", "Submission branch name; the part after the last '/' names the task.")
	userID := flagSet.String("user-id", "", "User the submission belongs to.")
	noPrereq := flagSet.Bool("no-prerequisites-check", false, "Skip the curriculum-order eligibility check.")
	dryRun := flagSet.Bool("dry-run", false, "Run all checks without recording acceptance.")
	checkAll := flagSet.Bool("check-all-tasks", false, "Check every task's submission branch for the user, in curriculum order.")
	historyPath := flagSet.String("history-path", env.HistoryPath, "Submission history database path.")
	branchPrefix := flagSet.String("branch-prefix", env.BranchPrefix, "Submission branch prefix.")

	dumpAll := flagSet.Bool("dump-dependencies", false, "Print the full dependency graph in DOT format.")
	dumpGroup := flagSet.String("dump-group-dependencies", "", "Print the induced subgraph for one lab in DOT format.")
	stat := flagSet.Bool("stat", false, "Print summary counts without writing output.")

	logFormat := flagSet.String("log-format", env.LogFormat, "Log output format: 'text' or 'json'.")
	logLevel := flagSet.String("log-level", env.LogLevel, "Logging level: 'debug', 'info', 'warn', or 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: CodeUsage, Message: err.Error()}
	}

	format := strings.ToLower(*logFormat)
	if format != "text" && format != "json" {
		return nil, false, &ExitError{Code: CodeUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	level := strings.ToLower(*logLevel)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: CodeUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	mode, err := resolveMode(*inPath, *outPath, *studentRepo, *dumpAll, *dumpGroup, *stat, *checkAll)
	if err != nil {
		flagSet.Usage()
		return nil, false, &ExitError{Code: CodeUsage, Message: err.Error()}
	}
	if mode == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	cfg, err := app.NewConfig(app.Config{
		Mode:                 mode,
		InPath:               *inPath,
		OutPath:              *outPath,
		SparePaths:           spare,
		ManifestPath:         *manifestPath,
		StudentRepo:          *studentRepo,
		OriginalRepo:         *originalRepo,
		CIBranchName:         *branchName,
		UserID:               *userID,
		NoPrerequisitesCheck: *noPrereq,
		DryRun:               *dryRun,
		HistoryPath:          *historyPath,
		BranchPrefix:         *branchPrefix,
		Group:                *dumpGroup,
		LogFormat:            format,
		LogLevel:             level,
	})
	if err != nil {
		return nil, false, &ExitError{Code: CodeUsage, Message: err.Error()}
	}
	return cfg, false, nil
}

// resolveMode picks the single operation implied by the flag combination.
// An empty mode with a nil error means nothing was requested.
func resolveMode(inPath, outPath, studentRepo string, dumpAll bool, dumpGroup string, stat, checkAll bool) (app.Mode, error) {
	var modes []app.Mode
	if stat {
		modes = append(modes, app.ModeStat)
	}
	if dumpAll {
		modes = append(modes, app.ModeDumpAll)
	}
	if dumpGroup != "" {
		modes = append(modes, app.ModeDumpGroup)
	}
	if outPath != "" {
		modes = append(modes, app.ModeCompose)
	}
	if studentRepo != "" {
		if checkAll {
			modes = append(modes, app.ModeCheckAll)
		} else {
			modes = append(modes, app.ModeCheck)
		}
	}
	switch len(modes) {
	case 0:
		return "", nil
	case 1:
		return modes[0], nil
	default:
		return "", fmt.Errorf("conflicting flags: more than one operation selected")
	}
}
