package backend

import "github.com/declarch-sh/declarch/internal/config"

// Builtins returns declarch's built-in backend definitions (§4.3), the
// set available without any user-authored "backend" block. Their shapes
// are grounded on the package manager invocations declarch's predecessor
// wired directly into Go code; here they are declarative data instead.
func Builtins() []config.BackendDef {
	return []config.BackendDef{
		{
			Name:           "apt",
			Binaries:       []string{"apt-get", "apt"},
			Install:        "sudo DEBIAN_FRONTEND=noninteractive apt-get install -y {packages}",
			Remove:         "sudo DEBIAN_FRONTEND=noninteractive apt-get remove -y {packages}",
			List:           "dpkg-query -W -f='${Package}\\t${Version}\\n'",
			Search:         "apt-cache search {query}",
			NeedsPrivilege: true,
			SupportedOS:    []string{"linux"},
			ListFormat:     config.OutputFormat{Kind: config.FormatTabSeparated, NameCol: 0, VersionCol: 1},
			SearchFormat:   config.OutputFormat{Kind: config.FormatRegex, Pattern: `^(\S+)\s+-\s+.*$`, NameGroup: 1},
		},
		{
			Name:           "dnf",
			Binaries:       []string{"dnf"},
			Install:        "sudo dnf install -y {packages}",
			Remove:         "sudo dnf remove -y {packages}",
			List:           "dnf list --installed",
			Search:         "dnf search {query}",
			NeedsPrivilege: true,
			SupportedOS:    []string{"linux"},
			ListFormat:     config.OutputFormat{Kind: config.FormatRegex, Pattern: `^(\S+)\.\S+\s+(\S+)\s+\S+$`, NameGroup: 1, VersionGroup: 2},
			SearchFormat:   config.OutputFormat{Kind: config.FormatRegex, Pattern: `^(\S+)\.\S+\s+:\s+.*$`, NameGroup: 1},
		},
		{
			Name:           "pacman",
			Binaries:       []string{"pacman"},
			Install:        "sudo pacman -S --noconfirm {packages}",
			Remove:         "sudo pacman -R --noconfirm {packages}",
			List:           "pacman -Q",
			Search:         "pacman -Ss {query}",
			NoConfirmFlag:  "--noconfirm",
			NeedsPrivilege: true,
			SupportedOS:    []string{"linux"},
			ListFormat:     config.OutputFormat{Kind: config.FormatWhitespace, NameCol: 0, VersionCol: 1},
			SearchFormat:   config.OutputFormat{Kind: config.FormatRegex, Pattern: `^\S+/(\S+)\s+(\S+)`, NameGroup: 1, VersionGroup: 2},
		},
		{
			Name:            "aur",
			Binaries:        []string{"paru", "yay"},
			Fallback:        "pacman",
			Install:         "{binary} -S --noconfirm {packages}",
			Remove:          "{binary} -R --noconfirm {packages}",
			List:            "pacman -Qm",
			Search:          "{binary} -Ss {query}",
			NoConfirmFlag:   "--noconfirm",
			SupportedOS:     []string{"linux"},
			ListFormat:      config.OutputFormat{Kind: config.FormatWhitespace, NameCol: 0, VersionCol: 1},
			SearchFormat:    config.OutputFormat{Kind: config.FormatRegex, Pattern: `^\S+/(\S+)\s+(\S+)`, NameGroup: 1, VersionGroup: 2},
			ListDelegatesTo: "",
		},
		{
			Name:         "brew",
			Binaries:     []string{"brew"},
			Install:      "brew install {packages}",
			Remove:       "brew uninstall {packages}",
			List:         "brew list --versions",
			Search:       "brew search {query}",
			SupportedOS:  []string{"linux", "darwin"},
			ListFormat:   config.OutputFormat{Kind: config.FormatWhitespace, NameCol: 0, VersionCol: 1},
			SearchFormat: config.OutputFormat{Kind: config.FormatWhitespace, NameCol: 0},
		},
		{
			Name:         "flatpak",
			Binaries:     []string{"flatpak"},
			Install:      "flatpak install -y flathub {packages}",
			Remove:       "flatpak uninstall -y {packages}",
			List:         "flatpak list --app --columns=application,version",
			Search:       "flatpak search {query} --columns=application",
			SupportedOS:  []string{"linux"},
			ListFormat:   config.OutputFormat{Kind: config.FormatTabSeparated, NameCol: 0, VersionCol: 1},
			SearchFormat: config.OutputFormat{Kind: config.FormatWhitespace, NameCol: 0},
		},
		{
			Name:         "npm",
			Binaries:     []string{"npm"},
			Install:      "npm install -g {packages}",
			Remove:       "npm uninstall -g {packages}",
			List:         "npm list -g --depth=0 --json",
			Search:       "npm search {query} --json",
			SupportedOS:  []string{"linux", "darwin", "windows"},
			ListFormat:   config.OutputFormat{Kind: config.FormatJSON, JSONPath: "dependencies", NameKey: "name", VersionKey: "version"},
			SearchFormat: config.OutputFormat{Kind: config.FormatJSON, NameKey: "name", VersionKey: "version"},
		},
		{
			Name:         "pip",
			Binaries:     []string{"pip3", "pip"},
			Install:      "pip install --user {packages}",
			Remove:       "pip uninstall -y {packages}",
			List:         "pip list --format=json",
			Search:       "",
			SupportedOS:  []string{"linux", "darwin", "windows"},
			ListFormat:   config.OutputFormat{Kind: config.FormatJSON, NameKey: "name", VersionKey: "version"},
		},
		{
			Name:         "cargo",
			Binaries:     []string{"cargo"},
			Install:      "cargo install {packages_args}",
			Remove:       "cargo uninstall {packages_args}",
			List:         "cargo install --list",
			SupportedOS:  []string{"linux", "darwin", "windows"},
			ListFormat:   config.OutputFormat{Kind: config.FormatRegex, Pattern: `^(\S+) v(\S+):$`, NameGroup: 1, VersionGroup: 2},
		},
		{
			Name:         "soar",
			Binaries:     []string{"soar"},
			Install:      "soar install {packages}",
			Remove:       "soar remove {packages}",
			List:         "soar list --installed",
			Search:       "soar search {query}",
			SupportedOS:  []string{"linux"},
			ListFormat:   config.OutputFormat{Kind: config.FormatWhitespace, NameCol: 0, VersionCol: 1},
			SearchFormat: config.OutputFormat{Kind: config.FormatWhitespace, NameCol: 0},
		},
	}
}
