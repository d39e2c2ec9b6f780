package backend

import "github.com/declarch-sh/declarch/internal/platform"

// HostSummary is a user-facing snapshot of the current machine, used by
// the doctor/info surfaces to explain why a backend was or wasn't
// auto-selected.
type HostSummary struct {
	OS              string
	Distro          string
	Architecture    string
	SystemPackager  string
	SystemAvailable bool
}

// DetectHost reports the host's OS/distro and its native system package
// manager, independent of any declared config.
func DetectHost() (HostSummary, error) {
	p, err := platform.Detect()
	if err != nil {
		return HostSummary{}, err
	}
	return HostSummary{
		OS:              p.OS,
		Distro:          p.Distro,
		Architecture:    p.Architecture,
		SystemPackager:  p.PackageManager,
		SystemAvailable: p.SupportsPackageManager(),
	}, nil
}

// SuggestedSystemBackend maps the host's detected native package manager
// to one of the built-in backend names. ok is false when the host's
// package manager has no corresponding built-in (e.g. zypper, apk,
// winget).
func SuggestedSystemBackend(h HostSummary) (name string, ok bool) {
	switch h.SystemPackager {
	case "apt", "dnf", "pacman", "brew":
		return h.SystemPackager, true
	case "yum":
		return "dnf", true
	default:
		return "", false
	}
}
