package ui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"migrator/pkg/snapshot"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prevOut, prevNoColor, prevUseColors := Out, color.NoColor, UseColors
	Out = &buf
	color.NoColor = true
	UseColors = false
	t.Cleanup(func() {
		Out = prevOut
		color.NoColor = prevNoColor
		UseColors = prevUseColors
	})
	return &buf
}

func TestEmitJSON(t *testing.T) {
	var buf bytes.Buffer
	r := &snapshot.Reconciliation{
		AddedPackages: []snapshot.Package{{Name: "vim", Source: "apt"}},
	}

	require.NoError(t, EmitTo(&buf, "json", r))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "added_packages")
	assert.Contains(t, decoded, "changed_configs")
}

func TestEmitYAML(t *testing.T) {
	var buf bytes.Buffer
	meta := snapshot.BackupMetadata{Filename: "migrator_backup_20240101_000000.json", PackageCount: 3}

	require.NoError(t, EmitTo(&buf, "YAML", meta))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "migrator_backup_20240101_000000.json", decoded["filename"])
	assert.Equal(t, 3, decoded["package_count"])
}

func TestEmitUnknownFormat(t *testing.T) {
	assert.Error(t, EmitTo(&bytes.Buffer{}, "table", struct{}{}))
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"table", "json", "yaml", "JSON"} {
		assert.True(t, ValidFormat(f), f)
	}
	assert.False(t, ValidFormat("xml"))
	assert.True(t, IsStructured("json"))
	assert.False(t, IsStructured("table"))
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.in))
	}
}

func TestTable(t *testing.T) {
	captureOutput(t)
	var buf bytes.Buffer

	tbl := NewTableWriter(&buf, []string{"name", "source"})
	tbl.AddRow("vim", "apt")
	tbl.AddRow("spotify", "snap")
	tbl.Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[2], "spotify")
}

func TestPrintReconciliation(t *testing.T) {
	buf := captureOutput(t)

	PrintReconciliation(&snapshot.Reconciliation{
		AddedPackages:   []snapshot.Package{{Name: "htop", Source: "apt"}},
		RemovedPackages: []snapshot.Package{{Name: "nano", Source: "apt"}},
		ChangedConfigs: []snapshot.ConfigChange{{
			ConfigFile: snapshot.ConfigFile{Path: "/etc/hosts", Category: "network"},
			Status:     snapshot.StatusChanged,
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "Added packages (1)")
	assert.Contains(t, out, "+ htop [apt]")
	assert.Contains(t, out, "- nano [apt]")
	assert.Contains(t, out, "~ /etc/hosts [network]")
}

func TestPrintReconciliationEmpty(t *testing.T) {
	buf := captureOutput(t)
	PrintReconciliation(&snapshot.Reconciliation{})
	assert.Contains(t, buf.String(), "No changes")
}

func TestBox(t *testing.T) {
	captureOutput(t)
	prev := UseUnicode
	UseUnicode = false
	t.Cleanup(func() { UseUnicode = prev })

	out := Box("Install plan", LevelSuccess, "3 available", "1 unavailable")
	assert.Contains(t, out, "Install plan")
	assert.Contains(t, out, "1 unavailable")
	assert.Contains(t, out, "+")
}
