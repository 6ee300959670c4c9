package engine

// DeviceClass groups profiles by form factor.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
)

// Throttling names a network emulation preset applied to a profile's session.
type Throttling string

const (
	ThrottleNone   Throttling = "none"
	ThrottleFast3G Throttling = "fast3g"
	ThrottleSlow3G Throttling = "slow3g"
)

// Viewport is a profile's emulated screen size in CSS pixels.
type Viewport struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Profile is a named configuration under which the same analysis is repeated:
// viewport, device class, network throttling, and a user-agent hint. Profiles
// are immutable and identified by a unique Key.
type Profile struct {
	Key           string      `json:"key" yaml:"key"`
	Label         string      `json:"label" yaml:"label"`
	Viewport      Viewport    `json:"viewport" yaml:"viewport"`
	DeviceClass   DeviceClass `json:"device_class" yaml:"device_class"`
	Throttling    Throttling  `json:"throttling,omitempty" yaml:"throttling"`
	UserAgentHint string      `json:"user_agent_hint,omitempty" yaml:"user_agent"`
}

// Registry is a static table of profiles, fixed at construction. Lookup is by
// key; iteration order is the order profiles were registered, so reports and
// reference-pair selection are deterministic.
type Registry struct {
	profiles map[string]Profile
	order    []string
	defaults []string
}

// NewRegistry builds a registry from a profile list. Duplicate keys keep the
// first definition. defaultKeys is the subset used when a request names no
// profiles; keys not present in profiles are dropped.
func NewRegistry(profiles []Profile, defaultKeys ...string) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if _, dup := r.profiles[p.Key]; dup || p.Key == "" {
			continue
		}
		r.profiles[p.Key] = p
		r.order = append(r.order, p.Key)
	}
	for _, k := range defaultKeys {
		if _, ok := r.profiles[k]; ok {
			r.defaults = append(r.defaults, k)
		}
	}
	return r
}

// BuiltinRegistry returns the standard device table: two desktop sizes, a
// tablet, and two phone sizes. Defaults are desktop and mobile, the pair the
// comparator uses as its reference profiles.
func BuiltinRegistry() *Registry {
	return NewRegistry([]Profile{
		{
			Key:           "desktop",
			Label:         "Desktop 1080p",
			Viewport:      Viewport{Width: 1920, Height: 1080},
			DeviceClass:   DeviceDesktop,
			Throttling:    ThrottleNone,
			UserAgentHint: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		{
			Key:           "laptop",
			Label:         "Laptop 13\"",
			Viewport:      Viewport{Width: 1366, Height: 768},
			DeviceClass:   DeviceDesktop,
			Throttling:    ThrottleNone,
			UserAgentHint: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		{
			Key:           "tablet",
			Label:         "Tablet portrait",
			Viewport:      Viewport{Width: 768, Height: 1024},
			DeviceClass:   DeviceTablet,
			Throttling:    ThrottleFast3G,
			UserAgentHint: "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		},
		{
			Key:           "mobile",
			Label:         "Phone 6.1\"",
			Viewport:      Viewport{Width: 390, Height: 844},
			DeviceClass:   DeviceMobile,
			Throttling:    ThrottleFast3G,
			UserAgentHint: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		},
		{
			Key:           "mobile-small",
			Label:         "Phone 5\" slow network",
			Viewport:      Viewport{Width: 320, Height: 568},
			DeviceClass:   DeviceMobile,
			Throttling:    ThrottleSlow3G,
			UserAgentHint: "Mozilla/5.0 (Linux; Android 11; SM-A115F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
		},
	}, "desktop", "mobile")
}

// Get returns the profile registered under key.
func (r *Registry) Get(key string) (Profile, bool) {
	p, ok := r.profiles[key]
	return p, ok
}

// Keys returns all registered keys in registration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// DefaultKeys returns the subset of keys analyzed when a request names none.
func (r *Registry) DefaultKeys() []string {
	out := make([]string, len(r.defaults))
	copy(out, r.defaults)
	return out
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int { return len(r.order) }
