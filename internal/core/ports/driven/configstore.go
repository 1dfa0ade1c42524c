package driven

// ConfigStore persists configuration keys set from the command line.
type ConfigStore interface {
	// Get retrieves a value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// Set stores a value. The value is persisted immediately.
	Set(key string, value any) error

	// Unset removes a key. The change is persisted immediately.
	Unset(key string) error

	// Keys returns the stored keys in sorted order.
	Keys() []string

	// Path returns the configuration file path.
	Path() string
}
