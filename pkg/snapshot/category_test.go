package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		path     string
		isSystem bool
		want     string
	}{
		{"/etc/NetworkManager/NetworkManager.conf", true, CategoryNetwork},
		{"/etc/network/interfaces", true, CategoryNetwork},
		{"/etc/apt/sources.list", true, CategoryPackageManager},
		{"/etc/yum.repos.d/fedora.repo", true, CategoryPackageManager},
		{"/etc/pacman.conf", true, CategoryPackageManager},
		{"/etc/systemd/system/backup.service", true, CategoryService},
		{"/lib/custom/foo.service", true, CategoryService},
		{"/etc/X11/xorg.conf", true, CategoryDisplay},
		{"/etc/crontab", true, CategoryScheduledTask},
		{"/etc/sudoers", true, CategorySecurity},
		{"/etc/passwd", true, CategorySecurity},
		{"/etc/profile", true, CategoryShell},
		{"/etc/bash.bashrc", true, CategoryShell},
		{"/etc/environment", true, CategoryShell},
		{"/etc/hosts", true, CategorySystem},
		{"/home/u/.config/kdeglobals", false, CategoryDesktop},
		{"/home/u/.config/xfce4/xfconf/panel.xml", false, CategoryDesktop},
		{"/home/u/.bashrc", false, CategoryShell},
		{"/home/u/.zshrc", false, CategoryShell},
		{"/home/u/.gitconfig", false, CategoryUser},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.path, tt.isSystem))
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "System configuration file: hosts", Describe("/etc/hosts", true))
	assert.Equal(t, "User configuration file: .bashrc", Describe("/home/u/.bashrc", false))
}
