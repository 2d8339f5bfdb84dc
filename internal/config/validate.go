package config

import (
	"fmt"
	"strings"

	"tsvload/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is the dotted config key.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks over cfg without mutating it. Storage
// kinds are checked against the registered backends, so callers should
// import tsvload/internal/storage/all first.
func Validate(cfg *Config) []Issue {
	var issues []Issue
	issues = append(issues, validateStorage(cfg.Storage)...)
	issues = append(issues, validateLoad(cfg.Load)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	issues = append(issues, validateFetch(cfg.Fetch)...)
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	kinds := storage.ListKinds()
	switch {
	case s.Kind == "":
		issues = append(issues, Issue{SeverityError, "storage.kind", "storage.kind must not be empty"})
	case !contains(kinds, s.Kind):
		issues = append(issues, Issue{
			SeverityError, "storage.kind",
			fmt.Sprintf("unsupported storage kind %q; known kinds: %s", s.Kind, strings.Join(kinds, ", ")),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.dsn", "storage.dsn must not be empty"})
	}
	return issues
}

func validateLoad(l LoadConfig) []Issue {
	var issues []Issue
	if l.BatchSize <= 0 {
		issues = append(issues, Issue{SeverityError, "load.batch_size", "batch_size must be > 0"})
	}
	if l.CommitEvery <= 0 {
		issues = append(issues, Issue{SeverityError, "load.commit_every", "commit_every must be > 0"})
	}
	if l.BatchSize > 0 && l.CommitEvery > 0 && int64(l.BatchSize) > l.CommitEvery {
		issues = append(issues, Issue{
			SeverityWarning, "load.batch_size",
			fmt.Sprintf("batch_size %d exceeds commit_every %d; every batch will commit", l.BatchSize, l.CommitEvery),
		})
	}
	if len(l.Files) == 0 {
		issues = append(issues, Issue{SeverityWarning, "load.files", "no files configured; load needs file=table arguments"})
	}
	seen := map[string]bool{}
	for i, f := range l.Files {
		path := fmt.Sprintf("load.files[%d]", i)
		if strings.TrimSpace(f.File) == "" {
			issues = append(issues, Issue{SeverityError, path + ".file", "file must not be empty"})
		}
		if strings.TrimSpace(f.Table) == "" {
			issues = append(issues, Issue{SeverityError, path + ".table", "table must not be empty"})
		}
		if f.File != "" && seen[f.File] {
			issues = append(issues, Issue{SeverityWarning, path + ".file", fmt.Sprintf("file %q is listed more than once", f.File)})
		}
		seen[f.File] = true
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			return []Issue{{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires a URL"}}
		}
		return nil
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			return []Issue{{SeverityError, "metrics.statsd_addr", "datadog backend requires a DogStatsD address"}}
		}
		return nil
	default:
		return []Issue{{SeverityError, "metrics.backend", fmt.Sprintf("unknown metrics backend %q", m.Backend)}}
	}
}

func validateFetch(f Fetch) []Issue {
	var issues []Issue
	if f.Delay < 0 {
		issues = append(issues, Issue{SeverityError, "fetch.delay", "delay must be >= 0"})
	}
	if f.Retries < 0 {
		issues = append(issues, Issue{SeverityError, "fetch.retries", "retries must be >= 0"})
	}
	if _, err := f.CookieMap(); err != nil {
		issues = append(issues, Issue{SeverityError, "fetch.cookies", err.Error()})
	}
	return issues
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
