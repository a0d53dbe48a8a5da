package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackaudit/pkg/audit"
	"github.com/matzehuels/stackaudit/pkg/cache"
	"github.com/matzehuels/stackaudit/pkg/config"
	"github.com/matzehuels/stackaudit/pkg/deps"
	"github.com/matzehuels/stackaudit/pkg/deps/java"
	"github.com/matzehuels/stackaudit/pkg/errors"
)

// ErrThreshold is returned when a finding reaches the --fail-on score.
var ErrThreshold = stderrors.New("vulnerabilities at or above the failure threshold")

// auditOpts holds the command-line flags for the audit command.
type auditOpts struct {
	exclude []string // group:artifact keys dropped from every root
	json    bool     // emit JSON instead of a table
	output  string   // output file path (stdout if empty)
	failOn  float64  // CVSS score that fails the run (0 disables)
}

// versionLookup finds the newest release of an artifact.
type versionLookup interface {
	LatestVersion(ctx context.Context, group, artifact string, refresh bool) (string, error)
}

// auditResult is the JSON document written by --json.
type auditResult struct {
	ID         string          `json:"id"`
	Roots      []string        `json:"roots"`
	Packages   int             `json:"packages"`
	Vulnerable int             `json:"vulnerable"`
	Reports    []*audit.Report `json:"reports"`
	Failed     []failedRoot    `json:"failed"`
}

type failedRoot struct {
	Coordinate string `json:"coordinate"`
	Error      string `json:"error"`
}

// auditCommand creates the audit command.
func (c *CLI) auditCommand() *cobra.Command {
	var opts auditOpts

	cmd := &cobra.Command{
		Use:   "audit <group:artifact[:version]|pom.xml>...",
		Short: "Audit Maven artifacts and their dependencies for known vulnerabilities",
		Long: `Audit resolves every root and its compile and runtime dependencies, registers
each distinct package once and checks them all against OSS Index in one batch.

Roots are Maven coordinates or pom.xml files. A coordinate without a version
is audited at its latest release.

Examples:
  stackaudit audit com.fasterxml.jackson.core:jackson-databind:2.9.8
  stackaudit audit org.apache.logging.log4j:log4j-core --fail-on 7
  stackaudit audit pom.xml --exclude junit:junit --json -o report.json`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeManifests,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAudit(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.exclude, "exclude", "x", nil, "skip group:artifact in every tree (repeatable)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "write the full report as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().Float64Var(&opts.failOn, "fail-on", 0, "exit with status 1 when a finding has a CVSS score >= this value")

	return cmd
}

func (c *CLI) runAudit(ctx context.Context, args []string, opts auditOpts) error {
	logger := loggerFromContext(ctx)

	p, err := c.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.cache.Close()

	roots, err := c.collectRoots(ctx, p.maven, args)
	if err != nil {
		return err
	}

	batch := audit.NewRequest(p.service, cache.NoClose(p.cache), c.requestOptions(logger)...)
	col := audit.NewCollector(c.auditResolver(p, logger), batch, c.collectorOptions(logger)...)
	defer col.Close()

	result := auditResult{ID: uuid.NewString(), Failed: []failedRoot{}}
	prog := newProgress(logger)

	spin := newSpinner(ctx, fmt.Sprintf("Resolving %d roots", len(roots)))
	spin.Start()
	for _, root := range roots {
		excl := audit.NewExclusions(slices.Concat(opts.exclude, root.Exclusions)...)
		coord := root.Coordinate
		res := col.Add(ctx, coord.Group, coord.Artifact, coord.Version, excl)
		result.Roots = append(result.Roots, res.Root.String())
		if res.Failed() {
			result.Failed = append(result.Failed, failedRoot{Coordinate: res.Root.String(), Error: res.Err().Error()})
			logger.Warn("resolution failed", "root", res.Root, "err", errors.UserMessage(res.Err()))
			continue
		}
		logger.Debug("resolved", "root", res.Root, "artifacts", len(res.Artifacts()), "new", len(res.Registered()))
	}
	spin.Stop()

	spin = newSpinner(ctx, fmt.Sprintf("Auditing %d packages", len(col.Packages())))
	spin.Start()
	reports, err := col.Run(ctx)
	spin.Stop()
	if err != nil {
		if hint := auditHint(err); hint != "" {
			printWarning("%s", hint)
		}
		return err
	}

	result.Reports = reports
	result.Packages = len(reports)
	result.Vulnerable = audit.CountVulnerable(reports)
	prog.done(fmt.Sprintf("Audited %d packages from %d roots", result.Packages, len(roots)))

	if err := writeResult(result, opts); err != nil {
		return err
	}

	if opts.failOn > 0 && exceeds(reports, opts.failOn) {
		return ErrThreshold
	}
	return nil
}

// collectRoots turns command-line arguments into roots. Arguments naming a
// pom.xml contribute one root per declared dependency; coordinates without a
// version are completed with the latest release.
func (c *CLI) collectRoots(ctx context.Context, lookup versionLookup, args []string) ([]deps.Root, error) {
	logger := loggerFromContext(ctx)
	var roots []deps.Root

	for _, arg := range args {
		if looksLikeFile(arg) {
			if err := errors.ValidateManifestFilename(filepath.Base(arg)); err != nil {
				return nil, err
			}
			var source java.ModelSource
			if ms, ok := lookup.(java.ModelSource); ok {
				source = ms
			}
			parser, err := deps.DetectManifest(arg, java.NewPOMParser(source))
			if err != nil {
				return nil, err
			}
			logger.Infof("Parsing %s (%s)", arg, parser.Type())
			found, err := parser.Parse(arg, deps.Options{Refresh: c.refresh, Logger: logger})
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				logger.Warnf("No auditable dependencies in %s", arg)
			}
			roots = append(roots, found...)
			continue
		}

		coord, err := deps.ParseCoordinate(java.NormalizeCoordinate(arg))
		if err != nil {
			return nil, err
		}
		if coord.Version == "" {
			v, err := lookup.LatestVersion(ctx, coord.Group, coord.Artifact, c.refresh)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeArtifactNotFound, err, "latest version of %s", coord.Key())
			}
			logger.Infof("Using %s:%s", coord.Key(), v)
			coord.Version = v
		}
		roots = append(roots, deps.Root{Coordinate: coord})
	}
	return roots, nil
}

// looksLikeFile returns true if arg appears to be a manifest path rather
// than a coordinate.
func looksLikeFile(arg string) bool {
	if strings.HasSuffix(strings.ToLower(arg), ".xml") {
		return true
	}
	if strings.Contains(arg, ":") {
		return false
	}
	info, err := os.Stat(arg)
	return err == nil && !info.IsDir()
}

// auditHint suggests a remedy for audit failures the user can act on.
func auditHint(err error) string {
	switch errors.Cause(err) {
	case errors.ErrCodeUnauthorized:
		return "OSS Index rejected the credentials; check " + config.EnvOSSIndexUsername + " and " + config.EnvOSSIndexToken
	case errors.ErrCodeRateLimited:
		return "OSS Index rate limit reached; set credentials or lower ossindex.rate_limit"
	case errors.ErrCodeTimeout, errors.ErrCodeNetwork:
		return "OSS Index could not be reached; retry later or check ossindex.url"
	}
	return ""
}

// exceeds reports whether any finding scores at least threshold.
func exceeds(reports []*audit.Report, threshold float64) bool {
	for _, r := range reports {
		if r.Vulnerable() && r.MaxCVSS() >= threshold {
			return true
		}
	}
	return false
}

func writeResult(result auditResult, opts auditOpts) error {
	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printReport(out, result, opts.output == "")
	}

	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}

// finding is one row of the report table.
type finding struct {
	pkg   audit.Identity
	via   string
	vuln  audit.Vulnerability
	score float64
}

// findings flattens vulnerable reports into rows ordered by descending score,
// then package.
func findings(reports []*audit.Report) []finding {
	var rows []finding
	for _, r := range reports {
		via := "(root)"
		if r.Parent != nil {
			via = r.Parent.String()
		}
		for _, v := range r.Vulnerabilities {
			rows = append(rows, finding{pkg: r.Identity, via: via, vuln: v, score: v.CVSSScore})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].pkg.String() < rows[j].pkg.String()
	})
	return rows
}

// printReport writes the findings table and a summary to w.
func printReport(w io.Writer, result auditResult, styled bool) {
	rows := findings(result.Reports)
	if len(rows) > 0 {
		fmt.Fprintln(w, renderFindings(rows, styled))
	}

	summary := fmt.Sprintf("%d packages audited, %d vulnerable, %d findings", result.Packages, result.Vulnerable, len(rows))
	switch {
	case !styled:
		fmt.Fprintln(w, summary)
	case len(rows) == 0:
		printSuccess("%s", summary)
	default:
		printWarning("%s", summary)
	}
	for _, f := range result.Failed {
		if styled {
			printError("%s: %s", f.Coordinate, f.Error)
		} else {
			fmt.Fprintf(w, "unresolved %s: %s\n", f.Coordinate, f.Error)
		}
	}
	if styled {
		printDetail("Run %s", result.ID)
	}
}
