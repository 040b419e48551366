package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"migrator/pkg/snapshot"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrNotInteractive is returned by prompts when stdin or stdout is not a terminal.
var ErrNotInteractive = errors.New("not running in an interactive terminal")

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Confirm prompts the user for yes/no confirmation.
// Without a terminal the default answer is returned.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	if !IsInteractive() {
		return defaultYes, nil
	}

	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, err
		}
		return defaultYes, nil
	}

	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}

	return result == "y" || result == "yes", nil
}

// SelectBackup lets the user pick one of several discovered backups.
func SelectBackup(backups []snapshot.BackupMetadata, prompt string) (*snapshot.BackupMetadata, error) {
	if len(backups) == 0 {
		return nil, fmt.Errorf("no backups to select from")
	}
	if len(backups) == 1 {
		return &backups[0], nil
	}
	if !IsInteractive() {
		return nil, ErrNotInteractive
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Filename | cyan }} {{ .Hostname | magenta }}",
		Inactive: "  {{ .Filename }} {{ .Hostname | faint }}",
		Selected: "✓ {{ .Filename | cyan }}",
		Details: `
--------- Backup ----------
{{ "Path:" | faint }}	{{ .Path }}
{{ "Distro:" | faint }}	{{ .DistroName }} {{ .DistroVersion }}
{{ "Packages:" | faint }}	{{ .PackageCount }}
{{ "Configs:" | faint }}	{{ .ConfigCount }}`,
	}

	searcher := func(input string, index int) bool {
		b := backups[index]
		input = strings.ToLower(input)
		return strings.Contains(strings.ToLower(b.Filename), input) ||
			strings.Contains(strings.ToLower(b.Hostname), input)
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     backups,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, err
	}
	return &backups[index], nil
}

// Passphrase reads a masked passphrase from the terminal.
func Passphrase(label string) (string, error) {
	if !IsInteractive() {
		return "", ErrNotInteractive
	}

	p := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(s string) error {
			if s == "" {
				return errors.New("passphrase must not be empty")
			}
			return nil
		},
	}
	return p.Run()
}
