package dispatch

// Options is the per-invocation option container. Parser builders bind
// flags to pointers obtained from it; actions read the parsed values back
// by key. Reading a key that was never bound yields the zero value.
type Options struct {
	values map[string]any
}

// NewOptions returns an empty container.
func NewOptions() *Options {
	return &Options{values: make(map[string]any)}
}

func bind[T any](o *Options, key string) *T {
	if p, ok := o.values[key].(*T); ok {
		return p
	}
	p := new(T)
	o.values[key] = p
	return p
}

func lookup[T any](o *Options, key string) T {
	var zero T
	if o == nil {
		return zero
	}
	if p, ok := o.values[key].(*T); ok {
		return *p
	}
	return zero
}

// StringVar returns the storage for a string option.
func (o *Options) StringVar(key string) *string { return bind[string](o, key) }

// BoolVar returns the storage for a boolean option.
func (o *Options) BoolVar(key string) *bool { return bind[bool](o, key) }

// IntVar returns the storage for an integer option.
func (o *Options) IntVar(key string) *int { return bind[int](o, key) }

// StringsVar returns the storage for a repeatable or comma-separated option.
func (o *Options) StringsVar(key string) *[]string { return bind[[]string](o, key) }

func (o *Options) String(key string) string    { return lookup[string](o, key) }
func (o *Options) Bool(key string) bool        { return lookup[bool](o, key) }
func (o *Options) Int(key string) int          { return lookup[int](o, key) }
func (o *Options) Strings(key string) []string { return lookup[[]string](o, key) }

// Has reports whether key has been bound.
func (o *Options) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.values[key]
	return ok
}
