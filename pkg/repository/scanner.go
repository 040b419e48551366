package repository

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"migrator/internal/executor"
	"migrator/internal/logging"
	"migrator/pkg/manager/detector"
)

// stockMirrors are distribution archives every install already has.
var stockMirrors = map[string]bool{
	"archive.ubuntu.com/ubuntu":           true,
	"security.ubuntu.com/ubuntu":          true,
	"deb.debian.org/debian":               true,
	"security.debian.org/debian-security": true,
	"deb.debian.org/debian-security":      true,
	"ports.ubuntu.com/ubuntu-ports":       true,
	"packages.linuxmint.com":              true,
	"apt.pop-os.org/release":              true,
	"apt.pop-os.org/ubuntu":               true,
	"packages.elementary.io/appcenter":    true,
}

// Scanner collects the custom repositories configured on the running system.
type Scanner struct {
	runner executor.Runner
	distro *detector.DistroInfo

	APTSources []string
	YumRepos   []string
	PacmanConf string
}

// NewScanner creates a Scanner reading the standard locations.
func NewScanner(runner executor.Runner, distro *detector.DistroInfo) *Scanner {
	return &Scanner{
		runner:     runner,
		distro:     distro,
		APTSources: []string{"/etc/apt/sources.list", "/etc/apt/sources.list.d/*.list"},
		YumRepos:   []string{"/etc/yum.repos.d/*.repo"},
		PacmanConf: DefaultPacmanConf,
	}
}

// Scan returns the repositories of the native package manager of the
// distribution's family, followed by Flatpak remotes and non-default snap
// channels. Unreadable sources are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) []Repository {
	logger := logging.GetLogger("repository")
	done := logging.LogOperationStart(logger, "scan-repositories")
	defer done()

	var found []Repository
	switch s.distro.Family() {
	case detector.FamilyDebian:
		found = append(found, s.scanAPT()...)
	case detector.FamilyRedHat:
		found = append(found, s.scanDNF(ctx)...)
	case detector.FamilyArch:
		found = append(found, s.scanPacman()...)
	default:
		logger.Warn().Str("distro", s.distro.ID).Msg("No known repository locations for distribution")
	}
	found = append(found, s.scanFlatpak(ctx)...)
	found = append(found, s.scanSnap(ctx)...)

	return dedupe(found)
}

func (s *Scanner) distroType() string {
	return strings.ToLower(s.distro.ID)
}

func (s *Scanner) scanAPT() []Repository {
	var repos []Repository
	for _, path := range expandGlobs(s.APTSources) {
		lines, err := readLines(path)
		if err != nil {
			logger := logging.GetLogger("repository")
			logger.Error().Err(err).Str("path", path).Msg("Error scanning APT source file")
			continue
		}
		for _, line := range lines {
			if repo, ok := ParseDebLine(line, s.distroType()); ok {
				repos = append(repos, repo)
			}
		}
	}
	return repos
}

// ParseDebLine parses a one-line apt source. Stock distribution archives,
// comments and malformed lines are rejected. Launchpad sources become PPAs.
func ParseDebLine(line, distroType string) (Repository, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "deb ") && !strings.HasPrefix(line, "deb-src ") {
		return Repository{}, false
	}

	fields := strings.Fields(line)[1:]
	if len(fields) > 0 && strings.HasPrefix(fields[0], "[") {
		for len(fields) > 0 {
			opt := fields[0]
			fields = fields[1:]
			if strings.HasSuffix(opt, "]") {
				break
			}
		}
	}
	if len(fields) < 2 {
		return Repository{}, false
	}

	url := fields[0]
	components := strings.Join(fields[1:], " ")
	if stockMirrors[stripScheme(url)] {
		return Repository{}, false
	}

	repo := Repository{
		RepoID:     "apt:" + strings.ReplaceAll(url, "/", "_") + ":" + components,
		Name:       url,
		Enabled:    true,
		URL:        line,
		DistroType: distroType,
		RepoType:   TypeAPT,
	}
	if user, name, ok := launchpadPPA(url); ok {
		repo.RepoType = TypePPA
		repo.Name = "PPA: " + user + "/" + name
	}
	return repo, true
}

// launchpadPPA recognizes http(s)://ppa.launchpad(content).net/<user>/<name>/...
func launchpadPPA(url string) (user, name string, ok bool) {
	parts := strings.Split(stripScheme(url), "/")
	if len(parts) < 3 {
		return "", "", false
	}
	switch parts[0] {
	case "ppa.launchpad.net", "ppa.launchpadcontent.net":
		return parts[1], parts[2], parts[1] != "" && parts[2] != ""
	}
	return "", "", false
}

func (s *Scanner) scanDNF(ctx context.Context) []Repository {
	var repos []Repository
	for _, path := range expandGlobs(s.YumRepos) {
		f, err := os.Open(path)
		if err != nil {
			logger := logging.GetLogger("repository")
			logger.Error().Err(err).Str("path", path).Msg("Error scanning DNF repository file")
			continue
		}
		repos = append(repos, ParseRepoFile(f, s.distroType())...)
		f.Close()
	}

	if !s.runner.LookPath("dnf") {
		return repos
	}
	out, err := s.runner.Output(ctx, "dnf", "repolist", "--enabled", "-q")
	if err != nil {
		logger := logging.GetLogger("repository")
		logger.Debug().Err(err).Msg("dnf repolist failed")
		return repos
	}

	known := make(map[string]bool)
	for _, r := range repos {
		known[r.RepoID] = true
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || (fields[0] == "repo" && len(fields) > 1 && fields[1] == "id") {
			continue
		}
		id := "dnf:" + fields[0]
		if known[id] {
			continue
		}
		known[id] = true
		repos = append(repos, Repository{
			RepoID:     id,
			Name:       fields[0],
			Enabled:    true,
			URL:        "repo:" + fields[0],
			DistroType: s.distroType(),
			RepoType:   TypeDNF,
		})
	}
	return repos
}

// ParseRepoFile parses the INI sections of a yum/dnf .repo file. Sections
// without a baseurl are skipped.
func ParseRepoFile(r io.Reader, distroType string) []Repository {
	var repos []Repository
	var cur *Repository

	flush := func() {
		if cur != nil && cur.URL != "" {
			repos = append(repos, *cur)
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()
			id := line[1 : len(line)-1]
			cur = &Repository{RepoID: "dnf:" + id, Name: id, DistroType: distroType, RepoType: TypeDNF}
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || cur == nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			cur.Name = strings.TrimSpace(value)
		case "enabled":
			cur.Enabled = strings.TrimSpace(value) == "1"
		case "baseurl":
			cur.URL = strings.TrimSpace(value)
		}
	}
	flush()
	return repos
}

func (s *Scanner) scanPacman() []Repository {
	lines, err := readLines(s.PacmanConf)
	if err != nil {
		logger := logging.GetLogger("repository")
		logger.Error().Err(err).Str("path", s.PacmanConf).Msg("Error scanning Pacman config")
		return nil
	}

	var repos []Repository
	var section, server string
	flush := func() {
		if section != "" && server != "" && section != "options" && section != "custom-options" {
			repos = append(repos, Repository{
				RepoID:     "pacman:" + section,
				Name:       section,
				Enabled:    true,
				URL:        server,
				DistroType: s.distroType(),
				RepoType:   TypePacman,
			})
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()
			section, server = line[1:len(line)-1], ""
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok && strings.EqualFold(strings.TrimSpace(key), "server") {
			server = strings.TrimSpace(value)
		}
	}
	flush()
	return repos
}

func (s *Scanner) scanFlatpak(ctx context.Context) []Repository {
	if !s.runner.LookPath("flatpak") {
		return nil
	}

	var repos []Repository
	for _, scope := range []string{"system", "user"} {
		out, err := s.runner.Output(ctx, "flatpak", "remotes", "--"+scope, "--columns=name,url")
		if err != nil {
			continue
		}
		for _, line := range strings.Split(out, "\n") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			name, url := fields[0], fields[1]
			if strings.EqualFold(name, "flathub") && strings.Contains(url, "flathub.org") {
				continue
			}
			repos = append(repos, Repository{
				RepoID:     "flatpak:" + name + ":" + scope,
				Name:       "Flatpak remote: " + name,
				Enabled:    true,
				URL:        url,
				DistroType: DistroCommon,
				RepoType:   TypeFlatpak,
			})
		}
	}
	return repos
}

func (s *Scanner) scanSnap(ctx context.Context) []Repository {
	if !s.runner.LookPath("snap") {
		return nil
	}
	out, err := s.runner.Output(ctx, "snap", "list")
	if err != nil {
		return nil
	}

	var repos []Repository
	lines := strings.Split(out, "\n")
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		name, channel := fields[0], fields[3]
		if channel == "stable" || channel == "latest/stable" || channel == "-" {
			continue
		}
		repos = append(repos, Repository{
			RepoID:     "snap:" + name + ":" + channel,
			Name:       "Snap channel: " + name + " (" + channel + ")",
			Enabled:    true,
			URL:        "snap:" + channel,
			DistroType: DistroCommon,
			RepoType:   TypeSnap,
		})
	}
	return repos
}

// dedupe keeps one repository per ID; a later definition replaces an earlier one in place.
func dedupe(repos []Repository) []Repository {
	out := make([]Repository, 0, len(repos))
	index := make(map[string]int, len(repos))
	for _, r := range repos {
		if i, ok := index[r.RepoID]; ok {
			out[i] = r
			continue
		}
		index[r.RepoID] = len(out)
		out = append(out, r)
	}
	return out
}

func stripScheme(url string) string {
	if _, rest, ok := strings.Cut(url, "://"); ok {
		url = rest
	}
	return strings.TrimSuffix(url, "/")
}

func expandGlobs(patterns []string) []string {
	var paths []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			continue
		}
		paths = append(paths, matches...)
	}
	return paths
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}
