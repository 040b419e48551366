package repository

import (
	"context"
	"fmt"
	"sort"

	"migrator/internal/logging"
	"migrator/pkg/manager/detector"
)

// Issue types reported by a restore.
const (
	IssueCompatibility = "compatibility"
	IssueUnsupported   = "unsupported"
	IssueSystem        = "system"
	IssueError         = "error"
	IssueWarning       = "warning"
)

// Issue is a problem met while restoring repositories.
type Issue struct {
	Type     string `json:"type" yaml:"type"`
	Message  string `json:"message" yaml:"message"`
	RepoName string `json:"repo_name,omitempty" yaml:"repo_name,omitempty"`
}

// Handler restores the repositories of one type on the running system.
// A failing repository is reported as an issue; the rest are still attempted.
type Handler interface {
	Restore(ctx context.Context, repos []Repository) (successes []string, issues []Issue)
}

// typeOrder is the order repository groups are dispatched in. Types not
// listed follow in alphabetical order.
var typeOrder = []string{TypeAPT, TypePPA, TypeDNF, TypeYUM, TypePacman, TypeFlatpak, TypeSnap}

// Restorer dispatches compatible repositories to per-type handlers.
type Restorer struct {
	handlers map[string]Handler
}

// NewRestorer creates a Restorer with no handlers.
func NewRestorer() *Restorer {
	return &Restorer{handlers: make(map[string]Handler)}
}

// Register installs the handler for a repository type, replacing any previous one.
func (r *Restorer) Register(repoType string, h Handler) {
	r.handlers[repoType] = h
}

// Handles reports whether a handler is registered for the repository type.
func (r *Restorer) Handles(repoType string) bool {
	_, ok := r.handlers[repoType]
	return ok
}

// NeedsRoot reports whether restoring repos on target writes system files,
// that is whether any repository that would reach a handler is of a type
// restored by writing under /etc.
func (r *Restorer) NeedsRoot(repos []Repository, target *detector.DistroInfo) bool {
	for _, repo := range repos {
		if !repo.IsCompatibleWith(target) || repo.IsReserved() || !r.Handles(repo.RepoType) {
			continue
		}
		if WritesSystemFiles(repo.RepoType) {
			return true
		}
	}
	return false
}

// RestoreRepositories restores the repositories usable on target.
//
// Incompatible repositories become compatibility issues and are never handed
// to a handler, and reserved pacman sections are reported as unsupported in
// both modes. The rest are grouped by type. In dry-run mode no handler runs
// and each repository with a handler is reported as "Would restore"; types
// without a handler are reported as unsupported in both modes, so the two
// modes agree on which repositories succeed.
func (r *Restorer) RestoreRepositories(ctx context.Context, repos []Repository, target *detector.DistroInfo, dryRun bool) ([]string, []Issue) {
	logger := logging.GetLogger("repository")
	successes := []string{}
	issues := []Issue{}

	groups := make(map[string][]Repository)
	for _, repo := range repos {
		if msg := repo.CompatibilityIssue(target); msg != "" {
			issues = append(issues, Issue{Type: IssueCompatibility, Message: msg, RepoName: repo.Name})
			continue
		}
		if repo.IsReserved() {
			issues = append(issues, Issue{
				Type:     IssueUnsupported,
				Message:  fmt.Sprintf("Pacman section [%s] holds settings and is not restored", repo.pacmanSection()),
				RepoName: repo.Name,
			})
			continue
		}
		groups[repo.RepoType] = append(groups[repo.RepoType], repo)
	}

	for _, repoType := range orderedTypes(groups) {
		group := groups[repoType]
		handler, ok := r.handlers[repoType]
		if !ok {
			for _, repo := range group {
				issues = append(issues, Issue{
					Type:     IssueUnsupported,
					Message:  fmt.Sprintf("No restore handler for %s repositories", repoType),
					RepoName: repo.Name,
				})
			}
			continue
		}

		if dryRun {
			for _, repo := range group {
				successes = append(successes, fmt.Sprintf("Would restore %s repository: %s", repoType, repo.Name))
			}
			continue
		}

		if err := ctx.Err(); err != nil {
			issues = append(issues, Issue{Type: IssueError, Message: fmt.Sprintf("Restore of %s repositories cancelled: %v", repoType, err)})
			continue
		}

		logger.Info().Str("type", repoType).Int("count", len(group)).Msg("Restoring repositories")
		s, i := handler.Restore(ctx, group)
		successes = append(successes, s...)
		issues = append(issues, i...)
	}

	return successes, issues
}

func orderedTypes(groups map[string][]Repository) []string {
	var ordered []string
	seen := make(map[string]bool)
	for _, t := range typeOrder {
		if _, ok := groups[t]; ok {
			ordered = append(ordered, t)
			seen[t] = true
		}
	}

	var rest []string
	for t := range groups {
		if !seen[t] {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}
