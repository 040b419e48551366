package repository

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"migrator/internal/executor"
)

// Default locations written by the handlers.
const (
	DefaultAPTSourcesDir = "/etc/apt/sources.list.d"
	DefaultYumReposDir   = "/etc/yum.repos.d"
	DefaultPacmanConf    = "/etc/pacman.conf"
)

// RegisterDefaults installs the handlers for every repository type the
// running system can restore.
func RegisterDefaults(r *Restorer, runner executor.Runner) {
	r.Register(TypeAPT, NewAPTHandler(runner))
	r.Register(TypePPA, NewPPAHandler(runner))
	r.Register(TypeDNF, NewDNFHandler(runner))
	r.Register(TypeYUM, NewDNFHandler(runner))
	r.Register(TypePacman, NewPacmanHandler(runner))
	r.Register(TypeFlatpak, NewFlatpakHandler(runner))
	r.Register(TypeSnap, SnapHandler{})
}

// APTHandler writes each repository's source line to its own list file.
type APTHandler struct {
	runner     executor.Runner
	SourcesDir string
}

// NewAPTHandler creates an APTHandler writing to /etc/apt/sources.list.d.
func NewAPTHandler(runner executor.Runner) *APTHandler {
	return &APTHandler{runner: runner, SourcesDir: DefaultAPTSourcesDir}
}

// Restore writes migrator-<id>.list files and refreshes the package index.
func (h *APTHandler) Restore(ctx context.Context, repos []Repository) ([]string, []Issue) {
	var successes []string
	var issues []Issue

	if !h.runner.LookPath("apt") {
		return nil, []Issue{{Type: IssueSystem, Message: "APT package manager not available on this system"}}
	}
	if err := os.MkdirAll(h.SourcesDir, 0755); err != nil {
		return nil, []Issue{{Type: IssueError, Message: fmt.Sprintf("Failed to create %s: %v", h.SourcesDir, err)}}
	}

	for _, repo := range repos {
		id := strings.TrimPrefix(repo.RepoID, "apt:")
		path := filepath.Join(h.SourcesDir, "migrator-"+fileSafe(id)+".list")
		if err := os.WriteFile(path, []byte(repo.URL+"\n"), 0644); err != nil {
			issues = append(issues, Issue{
				Type:     IssueError,
				Message:  fmt.Sprintf("Failed to add APT repository %s: %v", repo.Name, err),
				RepoName: repo.Name,
			})
			continue
		}
		successes = append(successes, "Added APT repository: "+repo.Name)
	}

	if len(successes) > 0 {
		if err := h.runner.RunSudo(ctx, "apt", "update"); err != nil {
			issues = append(issues, Issue{Type: IssueWarning, Message: fmt.Sprintf("APT update failed after adding repositories: %v", err)})
		}
	}
	return successes, issues
}

// PPAHandler adds Launchpad PPAs with add-apt-repository.
type PPAHandler struct {
	runner executor.Runner
}

// NewPPAHandler creates a PPAHandler.
func NewPPAHandler(runner executor.Runner) *PPAHandler {
	return &PPAHandler{runner: runner}
}

var ppaPattern = regexp.MustCompile(`ppa:[^/\s]+/[^/\s]+`)

// PPAName extracts "ppa:user/name" from a PPA reference or a Launchpad deb line.
// It returns "" when no PPA can be recognized.
func PPAName(source string) string {
	if m := ppaPattern.FindString(source); m != "" {
		return m
	}
	for _, field := range strings.Fields(source) {
		if user, name, ok := launchpadPPA(field); ok {
			return "ppa:" + user + "/" + name
		}
	}
	return ""
}

// Restore adds each PPA.
func (h *PPAHandler) Restore(ctx context.Context, repos []Repository) ([]string, []Issue) {
	if !h.runner.LookPath("add-apt-repository") {
		return nil, []Issue{{Type: IssueSystem, Message: "add-apt-repository command not available on this system"}}
	}

	var successes []string
	var issues []Issue
	for _, repo := range repos {
		ppa := PPAName(repo.URL)
		if ppa == "" {
			issues = append(issues, Issue{Type: IssueError, Message: "Invalid PPA format: " + repo.URL, RepoName: repo.Name})
			continue
		}
		if err := h.runner.RunSudo(ctx, "add-apt-repository", "-y", ppa); err != nil {
			issues = append(issues, Issue{Type: IssueError, Message: fmt.Sprintf("Failed to add PPA %s: %v", ppa, err), RepoName: repo.Name})
			continue
		}
		successes = append(successes, "Added PPA: "+ppa)
	}
	return successes, issues
}

// DNFHandler writes each repository to its own .repo file.
type DNFHandler struct {
	runner   executor.Runner
	ReposDir string
}

// NewDNFHandler creates a DNFHandler writing to /etc/yum.repos.d.
func NewDNFHandler(runner executor.Runner) *DNFHandler {
	return &DNFHandler{runner: runner, ReposDir: DefaultYumReposDir}
}

// Restore writes migrator-<id>.repo files and cleans the dnf cache.
func (h *DNFHandler) Restore(ctx context.Context, repos []Repository) ([]string, []Issue) {
	if !h.runner.LookPath("dnf") {
		return nil, []Issue{{Type: IssueSystem, Message: "DNF package manager not available on this system"}}
	}
	if err := os.MkdirAll(h.ReposDir, 0755); err != nil {
		return nil, []Issue{{Type: IssueError, Message: fmt.Sprintf("Failed to create %s: %v", h.ReposDir, err)}}
	}

	var successes []string
	var issues []Issue
	for _, repo := range repos {
		id := fileSafe(strings.TrimPrefix(strings.TrimPrefix(repo.RepoID, "dnf:"), "yum:"))
		enabled := "0"
		if repo.Enabled {
			enabled = "1"
		}
		content := fmt.Sprintf("[%s]\nname=%s\nbaseurl=%s\nenabled=%s\ngpgcheck=0\n", id, repo.Name, repo.URL, enabled)

		path := filepath.Join(h.ReposDir, "migrator-"+id+".repo")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			issues = append(issues, Issue{
				Type:     IssueError,
				Message:  fmt.Sprintf("Failed to add DNF repository %s: %v", repo.Name, err),
				RepoName: repo.Name,
			})
			continue
		}
		successes = append(successes, "Added DNF repository: "+repo.Name)
	}

	if len(successes) > 0 {
		if err := h.runner.RunSudo(ctx, "dnf", "clean", "all"); err != nil {
			issues = append(issues, Issue{Type: IssueWarning, Message: fmt.Sprintf("Failed to clean DNF cache: %v", err)})
		}
	}
	return successes, issues
}

// PacmanHandler appends repository sections to pacman.conf.
type PacmanHandler struct {
	runner   executor.Runner
	ConfPath string
}

// NewPacmanHandler creates a PacmanHandler editing /etc/pacman.conf.
func NewPacmanHandler(runner executor.Runner) *PacmanHandler {
	return &PacmanHandler{runner: runner, ConfPath: DefaultPacmanConf}
}

// Restore appends sections missing from pacman.conf, after copying the file to
// "<conf>.migrator.bak", then syncs the package databases. Sections already
// present are left untouched.
func (h *PacmanHandler) Restore(ctx context.Context, repos []Repository) ([]string, []Issue) {
	if !h.runner.LookPath("pacman") {
		return nil, []Issue{{Type: IssueSystem, Message: "Pacman package manager not available on this system"}}
	}

	existing, err := pacmanSections(h.ConfPath)
	if err != nil {
		return nil, []Issue{{Type: IssueError, Message: fmt.Sprintf("Pacman configuration file not readable: %v", err)}}
	}

	var successes []string
	var issues []Issue
	var toAdd []Repository
	for _, repo := range repos {
		section := repo.pacmanSection()
		switch {
		case reservedPacmanSections[section]:
			issues = append(issues, Issue{
				Type:     IssueUnsupported,
				Message:  fmt.Sprintf("Pacman section [%s] holds settings and is not restored", section),
				RepoName: repo.Name,
			})
		case existing[section]:
			successes = append(successes, "Pacman repository already configured: "+repo.Name)
		default:
			toAdd = append(toAdd, repo)
		}
	}
	if len(toAdd) == 0 {
		return successes, issues
	}

	if err := copyFile(h.ConfPath, h.ConfPath+".migrator.bak"); err != nil {
		return successes, append(issues, Issue{Type: IssueError, Message: fmt.Sprintf("Failed to back up %s: %v", h.ConfPath, err)})
	}

	f, err := os.OpenFile(h.ConfPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return successes, append(issues, Issue{Type: IssueError, Message: fmt.Sprintf("Failed to update Pacman configuration: %v", err)})
	}
	for _, repo := range toAdd {
		section := repo.pacmanSection()
		if _, err := fmt.Fprintf(f, "\n[%s]\nServer = %s\n", section, repo.URL); err != nil {
			issues = append(issues, Issue{Type: IssueError, Message: fmt.Sprintf("Failed to add Pacman repository %s: %v", repo.Name, err), RepoName: repo.Name})
			continue
		}
		successes = append(successes, "Added Pacman repository: "+repo.Name)
	}
	if err := f.Close(); err != nil {
		issues = append(issues, Issue{Type: IssueError, Message: fmt.Sprintf("Failed to update Pacman configuration: %v", err)})
	}

	if err := h.runner.RunSudo(ctx, "pacman", "-Sy"); err != nil {
		issues = append(issues, Issue{Type: IssueWarning, Message: fmt.Sprintf("Failed to update Pacman database: %v", err)})
	}
	return successes, issues
}

// FlatpakHandler adds Flatpak remotes.
type FlatpakHandler struct {
	runner executor.Runner
}

// NewFlatpakHandler creates a FlatpakHandler.
func NewFlatpakHandler(runner executor.Runner) *FlatpakHandler {
	return &FlatpakHandler{runner: runner}
}

// Restore adds remotes that are not configured yet. User remotes are added
// with --user, the rest system-wide with elevated privileges.
func (h *FlatpakHandler) Restore(ctx context.Context, repos []Repository) ([]string, []Issue) {
	if !h.runner.LookPath("flatpak") {
		return nil, []Issue{{Type: IssueSystem, Message: "Flatpak not available on this system"}}
	}

	existing := make(map[string]bool)
	if out, err := h.runner.Output(ctx, "flatpak", "remotes", "--columns=name"); err == nil {
		for _, line := range strings.Split(out, "\n") {
			if name := strings.TrimSpace(line); name != "" {
				existing[name] = true
			}
		}
	}

	var successes []string
	var issues []Issue
	for _, repo := range repos {
		remote, scope := flatpakRemote(repo)
		if existing[remote] {
			successes = append(successes, "Flatpak remote already configured: "+remote)
			continue
		}

		var err error
		if scope == "user" {
			err = h.runner.Run(ctx, "flatpak", "remote-add", "--if-not-exists", "--user", remote, repo.URL)
		} else {
			err = h.runner.RunSudo(ctx, "flatpak", "remote-add", "--if-not-exists", "--system", remote, repo.URL)
		}
		if err != nil {
			issues = append(issues, Issue{Type: IssueError, Message: fmt.Sprintf("Failed to add Flatpak remote %s: %v", remote, err), RepoName: repo.Name})
			continue
		}
		successes = append(successes, "Added Flatpak remote: "+remote)
	}
	return successes, issues
}

// SnapHandler reports how to follow a non-default snap channel; channels are
// chosen per install, so nothing is changed on the system.
type SnapHandler struct{}

// Restore returns one informational success per channel.
func (SnapHandler) Restore(_ context.Context, repos []Repository) ([]string, []Issue) {
	var successes []string
	for _, repo := range repos {
		channel := strings.TrimPrefix(repo.URL, "snap:")
		successes = append(successes, fmt.Sprintf("Snap channel info: To use %s, install with 'snap install --channel=%s'", repo.Name, channel))
	}
	return successes, nil
}

// flatpakRemote returns the remote name and scope encoded in a repo ID of the
// form "flatpak:<name>:<scope>".
func flatpakRemote(repo Repository) (name, scope string) {
	parts := strings.Split(repo.RepoID, ":")
	if len(parts) >= 3 {
		return parts[1], parts[2]
	}
	if len(parts) == 2 {
		return parts[1], "system"
	}
	return strings.TrimPrefix(repo.Name, "Flatpak remote: "), "system"
}

// pacmanSections returns the section names of a pacman.conf.
func pacmanSections(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sections := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sections[line[1:len(line)-1]] = true
		}
	}
	return sections, scanner.Err()
}

// fileSafe maps characters apt and dnf reject in file names to '_'.
func fileSafe(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
