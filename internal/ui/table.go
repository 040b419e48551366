package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"migrator/internal/history"
	"migrator/pkg/fstab"
	"migrator/pkg/plan"
	"migrator/pkg/repository"
	"migrator/pkg/snapshot"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
}

// NewTable creates a new table that writes to Out.
func NewTable(header []string) *Table {
	return NewTableWriter(Out, header)
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header []string) *Table {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	t := &Table{writer: tw, headers: header}
	if len(header) > 0 {
		row := make([]string, len(header))
		for i, h := range header {
			row[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row ...string) {
	fmt.Fprintln(t.writer, strings.Join(row, "\t"))
}

// Render flushes the table.
func (t *Table) Render() {
	t.writer.Flush()
}

// PrintPackages prints packages grouped by source.
func PrintPackages(packages []snapshot.Package) {
	if len(packages) == 0 {
		MutedMsg("No packages found")
		return
	}

	t := NewTable([]string{"source", "name", "version", "manual"})
	for _, pkg := range packages {
		manual := ""
		if pkg.ManuallyInstalled {
			manual = SymbolSuccess
		}
		t.AddRow(SourceLabel(pkg.Source), PackageName.Sprint(pkg.Name), pkg.Version, manual)
	}
	t.Render()
}

// PrintSnapshotInfo prints the header fields of a snapshot.
func PrintSnapshotInfo(title string, snap *snapshot.Snapshot) {
	HeaderMsg("%s", title)
	printField("Distribution", strings.TrimSpace(snap.SystemInfo.DistroName+" "+snap.SystemInfo.DistroVersion))
	printField("Captured", snap.FormatTime())
	if snap.Backup != nil && snap.Backup.Hostname != "" {
		printField("Host", snap.Backup.Hostname)
	}
	printField("Packages", fmt.Sprintf("%d (%d manual)", len(snap.Packages), snap.ManualCount()))
	printField("Sources", strings.Join(snap.Sources(), ", "))
	printField("Config files", fmt.Sprintf("%d", len(snap.ConfigFiles)))
}

// PrintReconciliation prints the differences between two snapshots.
func PrintReconciliation(r *snapshot.Reconciliation) {
	if r.IsEmpty() {
		SuccessMsg("No changes")
		return
	}

	if len(r.AddedPackages) > 0 {
		HeaderMsg("Added packages (%d)", len(r.AddedPackages))
		for _, p := range r.AddedPackages {
			Added.Fprintf(Out, "  + %s %s\n", p.Name, Muted.Sprint("["+p.Source+"]"))
		}
	}
	if len(r.RemovedPackages) > 0 {
		HeaderMsg("Removed packages (%d)", len(r.RemovedPackages))
		for _, p := range r.RemovedPackages {
			Removed.Fprintf(Out, "  - %s %s\n", p.Name, Muted.Sprint("["+p.Source+"]"))
		}
	}
	if len(r.ChangedConfigs) > 0 {
		HeaderMsg("Changed configs (%d)", len(r.ChangedConfigs))
		for _, c := range r.ChangedConfigs {
			Changed.Fprintf(Out, "  %s\n", c.String())
		}
	}
	if len(r.AddedConfigs) > 0 {
		HeaderMsg("Newly tracked configs (%d)", len(r.AddedConfigs))
		for _, c := range r.AddedConfigs {
			Added.Fprintf(Out, "  + %s [%s]\n", c.Path, c.Category)
		}
	}
}

// PrintInstallPlan prints the classified packages and the commands to run.
func PrintInstallPlan(p *plan.InstallPlan) {
	if len(p.Available) > 0 {
		HeaderMsg("Available (%d)", len(p.Available))
		t := NewTable([]string{"source", "name", "version"})
		for _, pkg := range p.Available {
			t.AddRow(pkg.Source, pkg.Name, pkg.Version)
		}
		t.Render()
	}
	if len(p.Upgradable) > 0 {
		HeaderMsg("Upgradable (%d)", len(p.Upgradable))
		t := NewTable([]string{"source", "name", "backup", "latest"})
		for _, pkg := range p.Upgradable {
			t.AddRow(pkg.Source, pkg.Name, pkg.Version, Green(pkg.LatestVersion))
		}
		t.Render()
	}
	if len(p.Unavailable) > 0 {
		HeaderMsg("Unavailable (%d)", len(p.Unavailable))
		t := NewTable([]string{"source", "name", "reason", "alternatives"})
		for _, pkg := range p.Unavailable {
			t.AddRow(pkg.Source, pkg.Name, Yellow(pkg.Reason), strings.Join(pkg.Alternatives, ", "))
		}
		t.Render()
	}
	printCommands(p.InstallationCommands)
}

// PrintRestorePlan prints restorable and problematic configs.
func PrintRestorePlan(p *plan.RestorePlan) {
	if p.IsEmpty() {
		SuccessMsg("All backed-up config files match the current system")
		return
	}
	if len(p.Restorable) > 0 {
		HeaderMsg("Missing on this system (%d)", len(p.Restorable))
		for _, c := range p.Restorable {
			Println("  %s %s %s", SymbolBullet, c.Path, Muted.Sprint("["+c.Category+"]"))
		}
	}
	if len(p.Problematic) > 0 {
		HeaderMsg("Modified since backup (%d)", len(p.Problematic))
		for _, c := range p.Problematic {
			Changed.Fprintf(Out, "  %s\n", c.String())
		}
	}
	printCommands(p.Commands)
}

// PrintRepositories prints repositories with their compatibility for target.
func PrintRepositories(repos []repository.Repository, issues []repository.CompatibilityIssue) {
	if len(repos) == 0 {
		MutedMsg("No repositories found")
		return
	}

	incompatible := make(map[string]string, len(issues))
	for _, is := range issues {
		incompatible[is.RepoID] = is.Issue
	}

	t := NewTable([]string{"type", "id", "name", "status"})
	for _, r := range repos {
		status := Green(SymbolSuccess)
		if msg, bad := incompatible[r.RepoID]; bad {
			status = Red(SymbolError) + " " + msg
		} else if !r.Enabled {
			status = Muted.Sprint("disabled")
		}
		t.AddRow(r.RepoType, r.RepoID, r.Name, status)
	}
	t.Render()
}

// PrintRestoreResult prints the outcome of a repository restore.
func PrintRestoreResult(restored []string, issues []repository.Issue) {
	for _, msg := range restored {
		SuccessMsg("%s", msg)
	}
	for _, is := range issues {
		switch is.Type {
		case repository.IssueWarning, repository.IssueUnsupported:
			WarningMsg("%s", is.Message)
		default:
			ErrorMsg("%s", is.Message)
		}
	}
}

// PrintFstab prints mount table entries.
func PrintFstab(entries []fstab.Entry) {
	if len(entries) == 0 {
		MutedMsg("No fstab entries")
		return
	}

	t := NewTable([]string{"spec", "mount point", "type", "options", "portable"})
	for _, e := range entries {
		if !e.Valid {
			t.AddRow(Muted.Sprint(e.Raw), "", "", "", Yellow("invalid"))
			continue
		}
		portable := ""
		if e.Portable {
			portable = Green(SymbolSuccess)
		}
		t.AddRow(e.FsSpec, e.MountPoint, e.FsType, e.Options, portable)
	}
	t.Render()
}

// PrintBackups prints discovered backups.
func PrintBackups(backups []snapshot.BackupMetadata) {
	if len(backups) == 0 {
		MutedMsg("No backups found")
		return
	}

	t := NewTable([]string{"file", "host", "distro", "packages", "configs", "size"})
	for _, b := range backups {
		name := b.Filename
		if b.Encrypted {
			name += " " + Muted.Sprint("(encrypted)")
		}
		t.AddRow(name, b.Hostname, strings.TrimSpace(b.DistroName+" "+b.DistroVersion),
			fmt.Sprintf("%d", b.PackageCount), fmt.Sprintf("%d", b.ConfigCount), FormatSize(b.FileSize))
	}
	t.Render()
}

// PrintHistory prints recorded runs, newest first.
func PrintHistory(entries []history.Entry) {
	if len(entries) == 0 {
		MutedMsg("No history")
		return
	}

	t := NewTable([]string{"id", "time", "operation", "details", "status"})
	for _, e := range entries {
		status := Green("success")
		if !e.Success {
			status = Red("failed")
		}
		details := e.FormatCounts()
		if e.DryRun {
			details = strings.TrimSpace("[dry-run] " + details)
		}
		t.AddRow(e.ID, e.FormatTime(), string(e.Operation), details, status)
	}
	t.Render()
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func printCommands(commands []string) {
	if len(commands) == 0 {
		return
	}
	HeaderMsg("Commands")
	for _, c := range commands {
		if strings.HasPrefix(c, "#") {
			MutedMsg("  %s", c)
			continue
		}
		Println("  %s", Cyan(c))
	}
}

func printField(label, value string) {
	Println("  %s: %s", Cyan(label), value)
}
