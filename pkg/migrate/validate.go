package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	upMarker        = "-- +goose Up"
	downMarker      = "-- +goose Down"
	statementBegin  = "-- +goose StatementBegin"
	statementEnd    = "-- +goose StatementEnd"
	migrationSuffix = ".sql"
)

// ValidateDir checks every migration in dir and reports all problems at once:
// filename format, duplicate versions, goose Up/Down markers and balanced
// StatementBegin/StatementEnd blocks.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, migrationSuffix) {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
		}
		seen[m[1]] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, validateBody(name, string(b)))
	}
	return errs
}

func validateBody(name, txt string) error {
	var errs error
	up := strings.Index(txt, upMarker)
	down := strings.Index(txt, downMarker)
	if up < 0 {
		errs = multierr.Append(errs, fmt.Errorf("migration %q missing %q", name, upMarker))
	}
	if down < 0 {
		errs = multierr.Append(errs, fmt.Errorf("migration %q missing %q", name, downMarker))
	}
	if up >= 0 && down >= 0 && down < up {
		errs = multierr.Append(errs, fmt.Errorf("migration %q has Down before Up", name))
	}

	depth := 0
	for _, line := range strings.Split(txt, "\n") {
		switch strings.TrimSpace(line) {
		case statementBegin:
			depth++
			if depth > 1 {
				return multierr.Append(errs, fmt.Errorf("migration %q nests StatementBegin", name))
			}
		case statementEnd:
			depth--
			if depth < 0 {
				return multierr.Append(errs, fmt.Errorf("migration %q has StatementEnd without StatementBegin", name))
			}
		}
	}
	if depth != 0 {
		errs = multierr.Append(errs, fmt.Errorf("migration %q has an unterminated StatementBegin", name))
	}
	return errs
}
