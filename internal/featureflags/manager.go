package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flag names a server behavior that can be switched off or rolled out to a
// share of users.
type Flag string

const (
	// RealtimeFanout pushes tweet_created events to the author's followers.
	// Rollout buckets are keyed on the author.
	RealtimeFanout Flag = "realtime_fanout"
)

// defaults apply when FEATURE_FLAGS does not mention a flag.
var defaults = map[Flag]int{
	RealtimeFanout: 100,
}

// Manager answers flag checks from FEATURE_FLAGS, e.g. "realtime_fanout=25%".
// A nil Manager reports every flag at its default.
type Manager struct {
	rollout map[Flag]int
}

// NewManager parses a comma-separated list of flag=value pairs. Values are
// on, off or a percentage. Unknown flags and malformed values are errors so a
// typo fails at startup instead of silently falling back.
func NewManager(raw string) (*Manager, error) {
	rollout := make(map[Flag]int, len(defaults))
	for flag, pct := range defaults {
		rollout[flag] = pct
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("feature flag %q: expected name=value", pair)
		}
		flag := Flag(normalize(name))
		if _, known := defaults[flag]; !known {
			return nil, fmt.Errorf("unknown feature flag %q", name)
		}
		pct, err := parsePercent(normalize(value))
		if err != nil {
			return nil, fmt.Errorf("feature flag %q: %w", name, err)
		}
		rollout[flag] = pct
	}

	return &Manager{rollout: rollout}, nil
}

// Enabled reports whether flag is on for userID. Partial rollouts put each
// user in a stable bucket, and never include the zero id.
func (m *Manager) Enabled(flag Flag, userID uint) bool {
	pct := defaults[flag]
	if m != nil {
		if v, ok := m.rollout[flag]; ok {
			pct = v
		}
	}
	switch {
	case pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(flag, userID) < pct
}

// Rollout returns the configured percentage per flag.
func (m *Manager) Rollout() map[string]string {
	out := make(map[string]string, len(defaults))
	for _, flag := range Flags() {
		pct := defaults[flag]
		if m != nil {
			pct = m.rollout[flag]
		}
		out[string(flag)] = strconv.Itoa(pct) + "%"
	}
	return out
}

// Snapshot returns every flag's state for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(defaults))
	for _, flag := range Flags() {
		out[string(flag)] = m.Enabled(flag, userID)
	}
	return out
}

// Flags lists the known flags in name order.
func Flags() []Flag {
	out := make([]Flag, 0, len(defaults))
	for flag := range defaults {
		out = append(out, flag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func parsePercent(value string) (int, error) {
	switch value {
	case "on", "true", "1":
		return 100, nil
	case "off", "false", "0":
		return 0, nil
	}
	digits, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, fmt.Errorf("invalid value %q", value)
	}
	pct, err := strconv.Atoi(digits)
	if err != nil || pct < 0 || pct > 100 {
		return 0, fmt.Errorf("invalid percentage %q", value)
	}
	return pct, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(flag Flag, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", flag, userID)
	return int(h.Sum32() % 100)
}
