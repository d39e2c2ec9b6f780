package state

// Manager defines the interface for managing declarch's durable state.
// This interface allows planner/executor tests to substitute an in-memory
// store without touching the filesystem or the advisory lock.
type Manager interface {
	// Load reads state from disk in sanitizing mode. Returns an empty State
	// if none exists yet, and any recovery/sanitization warnings produced
	// along the way.
	Load() (*State, []string, error)

	// Save writes the given state to disk.
	Save(s *State) error

	// Delete removes the state file.
	Delete() error

	// Exists reports whether a state file exists.
	Exists() bool
}

// storeManager adapts a *Store to the Manager interface; Store already
// implements every method with the right signature, so this is a thin
// named type for documentation and interface satisfaction.
type storeManager struct{ *Store }

// NewManager builds the production Manager backed by the standard
// XDG-derived state file location.
func NewManager() (Manager, error) {
	st, err := NewStore()
	if err != nil {
		return nil, err
	}
	return storeManager{st}, nil
}

// NewManagerAt builds a Manager rooted at an explicit state file path.
func NewManagerAt(path string) Manager {
	return storeManager{NewStoreAt(path)}
}
