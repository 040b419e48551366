package snapshot

import (
	"path/filepath"
	"strings"
)

// Config file categories.
const (
	CategoryNetwork        = "network"
	CategoryPackageManager = "package_manager"
	CategoryService        = "service"
	CategoryDisplay        = "display"
	CategoryScheduledTask  = "scheduled_task"
	CategorySecurity       = "security"
	CategoryShell          = "shell"
	CategorySystem         = "system"
	CategoryUser           = "user"
	CategoryDesktop        = "desktop"
)

// rule assigns a category when any marker is a substring of the path
// or the path ends with one of the suffixes.
type rule struct {
	category string
	markers  []string
	suffixes []string
}

// systemRules are checked in order after the network check; the first match wins.
var systemRules = []rule{
	{CategoryPackageManager, []string{"apt", "yum", "pacman"}, nil},
	{CategoryService, []string{"systemd"}, []string{".service"}},
	{CategoryDisplay, []string{"X11", "xorg"}, nil},
	{CategoryScheduledTask, []string{"cron"}, nil},
	{CategorySecurity, []string{"sudoers", "group", "passwd", "shadow"}, nil},
	{CategoryShell, []string{"profile", "bash", "environment"}, nil},
}

var userRules = []rule{
	{CategoryDesktop, []string{".config/kde", "kdeglobals", "plasma", "gnome", "xfce4", "dconf", "cinnamon", "gtk-"}, nil},
	{CategoryShell, []string{"bash", "zsh", "profile", "tmux", "inputrc"}, nil},
}

// Categorize assigns a category to a config path from substrings of the path.
func Categorize(path string, isSystem bool) string {
	if isSystem {
		// "network" matches case-insensitively, the other markers exactly.
		if strings.Contains(strings.ToLower(path), "network") {
			return CategoryNetwork
		}
		for _, r := range systemRules {
			if r.matches(path) {
				return r.category
			}
		}
		return CategorySystem
	}

	for _, r := range userRules {
		if r.matches(path) {
			return r.category
		}
	}
	return CategoryUser
}

// Describe returns the default description of a tracked config file.
func Describe(path string, isSystem bool) string {
	if isSystem {
		return "System configuration file: " + filepath.Base(path)
	}
	return "User configuration file: " + filepath.Base(path)
}

func (r rule) matches(path string) bool {
	for _, m := range r.markers {
		if strings.Contains(path, m) {
			return true
		}
	}
	for _, suf := range r.suffixes {
		if strings.HasSuffix(path, suf) {
			return true
		}
	}
	return false
}
