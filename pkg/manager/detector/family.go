package detector

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Family groups distributions that share a package repository format.
type Family string

const (
	FamilyDebian  Family = "debian"
	FamilyRedHat  Family = "redhat"
	FamilyArch    Family = "arch"
	FamilySUSE    Family = "suse"
	FamilyUnknown Family = "unknown"
)

// families maps distribution IDs to their compatibility family.
var families = map[string]Family{
	// Debian family
	"debian":     FamilyDebian,
	"ubuntu":     FamilyDebian,
	"linuxmint":  FamilyDebian,
	"pop":        FamilyDebian,
	"elementary": FamilyDebian,
	"zorin":      FamilyDebian,
	"kali":       FamilyDebian,
	"parrot":     FamilyDebian,
	"mx":         FamilyDebian,
	"raspbian":   FamilyDebian,
	"kubuntu":    FamilyDebian,
	"xubuntu":    FamilyDebian,
	"lubuntu":    FamilyDebian,
	"neon":       FamilyDebian,

	// Red Hat family
	"fedora":    FamilyRedHat,
	"rhel":      FamilyRedHat,
	"centos":    FamilyRedHat,
	"rocky":     FamilyRedHat,
	"almalinux": FamilyRedHat,
	"oracle":    FamilyRedHat,
	"ol":        FamilyRedHat,
	"nobara":    FamilyRedHat,

	// Arch family
	"arch":        FamilyArch,
	"manjaro":     FamilyArch,
	"endeavouros": FamilyArch,
	"garuda":      FamilyArch,
	"arcolinux":   FamilyArch,
	"artix":       FamilyArch,
	"cachyos":     FamilyArch,

	// SUSE family
	"opensuse":            FamilySUSE,
	"opensuse-leap":       FamilySUSE,
	"opensuse-tumbleweed": FamilySUSE,
	"sles":                FamilySUSE,
	"suse":                FamilySUSE,
}

// ubuntuDerivatives can consume Launchpad PPAs.
var ubuntuDerivatives = map[string]bool{
	"ubuntu":     true,
	"linuxmint":  true,
	"pop":        true,
	"elementary": true,
	"zorin":      true,
	"kubuntu":    true,
	"xubuntu":    true,
	"lubuntu":    true,
	"neon":       true,
}

// nativeManagers maps a family to the backend that manages its native packages.
var nativeManagers = map[Family]string{
	FamilyDebian: "apt",
	FamilyRedHat: "dnf",
	FamilyArch:   "pacman",
	FamilySUSE:   "zypper",
}

// FamilyOf returns the family of a distribution ID.
func FamilyOf(distroID string) Family {
	if f, ok := families[strings.ToLower(distroID)]; ok {
		return f
	}
	return FamilyUnknown
}

// FamilyOfWithLike returns the family of a distribution ID, consulting its
// ID_LIKE list when the ID itself is not in the table.
func FamilyOfWithLike(distroID string, idLike []string) Family {
	if f := FamilyOf(distroID); f != FamilyUnknown {
		return f
	}
	for _, like := range idLike {
		if f := FamilyOf(like); f != FamilyUnknown {
			return f
		}
	}
	return FamilyUnknown
}

// IsUbuntuDerivative reports whether the distribution can use Ubuntu PPAs.
func IsUbuntuDerivative(distroID string) bool {
	return ubuntuDerivatives[strings.ToLower(distroID)]
}

// NativeManager returns the native backend name for a family, or "" if none is supported.
func NativeManager(f Family) string {
	return nativeManagers[f]
}

// DisplayName title-cases a distribution ID ("fedora" -> "Fedora").
func DisplayName(distroID string) string {
	if distroID == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(distroID)
}
