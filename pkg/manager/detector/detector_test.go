package detector

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ubuntuOSRelease = `PRETTY_NAME="Ubuntu 22.04.3 LTS"
NAME="Ubuntu"
VERSION_ID="22.04"
VERSION="22.04.3 LTS (Jammy Jellyfish)"
ID=ubuntu
ID_LIKE=debian
HOME_URL="https://www.ubuntu.com/"
`

func TestParseOSRelease(t *testing.T) {
	info, err := ParseOSRelease(strings.NewReader(ubuntuOSRelease))
	require.NoError(t, err)

	assert.Equal(t, "ubuntu", info.ID)
	assert.Equal(t, "Ubuntu", info.Name)
	assert.Equal(t, "22.04", info.Version)
	assert.Equal(t, "Ubuntu 22.04.3 LTS", info.PrettyName)
	assert.Equal(t, []string{"debian"}, info.IDLike)
}

func TestDetectFrom(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "os-release")
	require.NoError(t, os.WriteFile(path, []byte("NAME=\"Fedora Linux\"\nID=fedora\nVERSION_ID=39\n"), 0644))

	info, err := DetectFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "fedora", info.ID)
	assert.Equal(t, "39", info.Version)
	assert.Equal(t, FamilyRedHat, info.Family())

	_, err = DetectFrom(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("NAME=Nothing\n"), 0644))
	_, err = DetectFrom(empty)
	assert.Error(t, err, "ID is required")
}

func TestDetect(t *testing.T) {
	info, err := Detect()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.NotEmpty(t, info.ID)
}

func TestDistroInfo_MatchesDistro(t *testing.T) {
	info := &DistroInfo{ID: "ubuntu", IDLike: []string{"debian"}}

	tests := []struct {
		distros  []string
		expected bool
	}{
		{[]string{"ubuntu"}, true},
		{[]string{"debian"}, true},
		{[]string{"fedora"}, false},
		{[]string{"arch", "ubuntu"}, true},
		{[]string{"fedora", "rhel"}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, info.MatchesDistro(tt.distros...), "%v", tt.distros)
	}
}

func TestDistroInfo_DisplayName(t *testing.T) {
	assert.Equal(t, "Fedora Linux", (&DistroInfo{ID: "fedora", Name: "Fedora Linux"}).DisplayName())
	assert.Equal(t, "Fedora", (&DistroInfo{ID: "fedora"}).DisplayName())
}

func TestDistroInfo_IsUbuntuDerivative(t *testing.T) {
	tests := []struct {
		name     string
		info     DistroInfo
		expected bool
	}{
		{"ubuntu", DistroInfo{ID: "ubuntu"}, true},
		{"mint", DistroInfo{ID: "linuxmint", IDLike: []string{"ubuntu", "debian"}}, true},
		{"derivative via ID_LIKE", DistroInfo{ID: "tuxedo", IDLike: []string{"ubuntu"}}, true},
		{"debian", DistroInfo{ID: "debian"}, false},
		{"fedora", DistroInfo{ID: "fedora"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.IsUbuntuDerivative())
		})
	}
}
