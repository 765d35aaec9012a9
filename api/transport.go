package api

// Value is a JSON-compatible mapping. Its values are strings, numbers, bools,
// nil, nested map[string]interface{} or []interface{}.
type Value map[string]interface{}

// Transport moves (id, band, value) records.
type Transport interface {
	// List reports every id, existing and new.
	List(handler func(ListItem)) (Subscription, error)
	// Get sends one Record on the channel, then closes it.
	Get(id, band string) (<-chan Record, error)
	// Update replaces the band of a thing.
	Update(id, band string, value Value) error
	// Updated reports changes within the scope.
	Updated(scope Scope, handler func(Record)) (Subscription, error)
	// Remove deletes a band, or the whole thing when band is empty.
	Remove(id, band string) error
	Errors() <-chan error
	Close() error
}

type ListItem struct {
	ID string `json:"id"`
}

type Record struct {
	ID    string `json:"id"`
	Band  string `json:"band"`
	Value Value  `json:"value,omitempty"`
	// Deep is set when something below the band changed. Value is nil.
	Deep bool `json:"deep,omitempty"`
}

// Scope narrows Updated. Empty fields match everything.
type Scope struct {
	ID   string
	Band string
}
