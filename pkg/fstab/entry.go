// Package fstab parses mount tables and picks out the network mounts that can
// be carried over to another host.
package fstab

import (
	"strings"
)

// networkTypes are filesystem types served over the network.
var networkTypes = map[string]bool{
	"nfs":   true,
	"nfs4":  true,
	"cifs":  true,
	"smb":   true,
	"smb3":  true,
	"sshfs": true,
}

// devicePrefixes identify local block devices.
var devicePrefixes = []string{"/dev/", "UUID=", "LABEL=", "PARTUUID=", "PARTLABEL="}

// Entry is one mount table line. Valid and Portable are computed by ParseEntry
// and not recomputed afterwards.
type Entry struct {
	Raw        string `json:"raw_line" yaml:"raw_line"`
	FsSpec     string `json:"fs_spec" yaml:"fs_spec"`
	MountPoint string `json:"mount_point" yaml:"mount_point"`
	FsType     string `json:"fs_type" yaml:"fs_type"`
	Options    string `json:"options" yaml:"options"`
	Dump       string `json:"dump" yaml:"dump"`
	Pass       string `json:"pass" yaml:"pass"`
	Valid      bool   `json:"is_valid" yaml:"is_valid"`
	Portable   bool   `json:"is_portable" yaml:"is_portable"`
}

// ParseEntry parses a non-comment, non-blank mount table line.
//
// A line needs spec, mount point, type and options; dump and pass default to
// "0". Lines with fewer than four or more than six fields are kept but invalid,
// and an invalid entry is never portable.
func ParseEntry(line string) Entry {
	e := Entry{Raw: strings.TrimSpace(line), Dump: "0", Pass: "0"}

	fields := strings.Fields(e.Raw)
	if len(fields) >= 1 {
		e.FsSpec = fields[0]
	}
	if len(fields) >= 2 {
		e.MountPoint = fields[1]
	}
	if len(fields) >= 3 {
		e.FsType = fields[2]
	}
	if len(fields) >= 4 {
		e.Options = fields[3]
	}
	if len(fields) >= 5 {
		e.Dump = fields[4]
	}
	if len(fields) >= 6 {
		e.Pass = fields[5]
	}

	e.Valid = len(fields) >= 4 && len(fields) <= 6
	e.Portable = e.Valid && IsPortable(e.FsSpec, e.FsType)
	return e
}

// IsPortable reports whether a mount describes a network filesystem. Local
// device specs are never portable, even when they contain a colon.
func IsPortable(fsSpec, fsType string) bool {
	for _, prefix := range devicePrefixes {
		if strings.HasPrefix(fsSpec, prefix) {
			return false
		}
	}
	if networkTypes[strings.ToLower(fsType)] {
		return true
	}
	return strings.HasPrefix(fsSpec, "//") || strings.Contains(fsSpec, ":")
}

// Line renders the entry as a tab separated mount table line.
func (e Entry) Line() string {
	return strings.Join([]string{e.FsSpec, e.MountPoint, e.FsType, e.Options, e.Dump, e.Pass}, "\t")
}

// String returns a short description of the entry.
func (e Entry) String() string {
	if !e.Valid {
		return "invalid: " + e.Raw
	}
	return e.FsSpec + " -> " + e.MountPoint + " (" + e.FsType + ")"
}
