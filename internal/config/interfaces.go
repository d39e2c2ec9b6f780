package config

// ConfigLoader defines the interface for loading and merging declarch.kdl
// configuration. This interface allows executor/planner tests to supply a
// fixed MergedConfig without touching the filesystem.
type ConfigLoader interface {
	// Load reads and merges declarch.kdl at the given path.
	Load(path string, sel Selectors) (*MergedConfig, error)

	// Discover searches standard locations for declarch.kdl and returns its path.
	Discover() (string, error)
}

// DefaultConfigLoader is the production implementation of ConfigLoader.
type DefaultConfigLoader struct{}

func (l *DefaultConfigLoader) Load(path string, sel Selectors) (*MergedConfig, error) {
	return Load(path, sel)
}

func (l *DefaultConfigLoader) Discover() (string, error) {
	return findConfigFile()
}

// NewConfigLoader creates a new DefaultConfigLoader.
func NewConfigLoader() ConfigLoader {
	return &DefaultConfigLoader{}
}
