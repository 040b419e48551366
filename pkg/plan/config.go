package plan

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"migrator/internal/logging"
	"migrator/pkg/snapshot"
)

// RestorePlan classifies backup config files against the current ones.
// Configs whose checksum still matches appear in neither list.
type RestorePlan struct {
	Restorable  []snapshot.ConfigFile   `json:"restorable" yaml:"restorable"`
	Problematic []snapshot.ConfigChange `json:"problematic" yaml:"problematic"`
	Commands    []string                `json:"commands" yaml:"commands"`
}

// NewRestorePlan returns an empty plan with non-nil lists.
func NewRestorePlan() *RestorePlan {
	return &RestorePlan{
		Restorable:  []snapshot.ConfigFile{},
		Problematic: []snapshot.ConfigChange{},
		Commands:    []string{},
	}
}

// IsEmpty returns true if nothing needs restoring.
func (p *RestorePlan) IsEmpty() bool {
	return len(p.Restorable) == 0 && len(p.Problematic) == 0
}

// PlanConfigRestoration compares backup configs with the current ones.
// A backup path that no longer exists is restorable; one whose checksum
// differs is problematic with status "modified". Restoration is advisory: the
// commands create the parent directory and note that the content must be
// restored by hand, because snapshots only carry checksums.
func PlanConfigRestoration(backup, current []snapshot.ConfigFile) *RestorePlan {
	currentByPath := make(map[string]snapshot.ConfigFile, len(current))
	for _, c := range current {
		currentByPath[c.Path] = c
	}

	plan := NewRestorePlan()
	for _, c := range backup {
		cur, ok := currentByPath[c.Path]
		switch {
		case !ok:
			plan.Restorable = append(plan.Restorable, c)
		case cur.Checksum != c.Checksum:
			plan.Problematic = append(plan.Problematic, snapshot.ConfigChange{ConfigFile: c, Status: snapshot.StatusModified})
		}
	}

	sort.SliceStable(plan.Restorable, func(i, j int) bool {
		return plan.Restorable[i].Path < plan.Restorable[j].Path
	})

	for _, c := range plan.Restorable {
		plan.Commands = append(plan.Commands,
			"mkdir -p "+shellQuote(filepath.Dir(c.Path)),
			fmt.Sprintf("# Config file '%s' needs to be restored manually", c.Path),
		)
	}

	return plan
}

// PlanConfigRestorationFromFile plans from a backup file. A missing, unreadable
// or malformed file is logged and yields an empty plan.
func PlanConfigRestorationFromFile(path string, current []snapshot.ConfigFile) *RestorePlan {
	snap, err := snapshot.Load(path)
	if err != nil {
		logger := logging.GetLogger("plan")
		logger.Error().Err(err).Str("path", path).Msg("Cannot read backup")
		return NewRestorePlan()
	}
	return PlanConfigRestoration(snap.ConfigFiles, current)
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
