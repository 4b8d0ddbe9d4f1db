// Package featureflags evaluates runtime feature toggles from the FEATURE_FLAGS setting.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags understood by the service.
const (
	// NotificationRearm lets a like or got-it notification fire again after the
	// action was undone and redone. Off means one notification per (recipient, post, actor, type).
	NotificationRearm = "notification_rearm"
	// PostCache serves anonymous post reads through the Redis cache.
	PostCache = "post_cache"
)

// Known lists the flags the service reads, so snapshots show them even when unset.
var Known = []string{NotificationRearm, PostCache}

type ruleKind int

const (
	ruleOff ruleKind = iota
	ruleOn
	rulePercent
)

type rule struct {
	raw  string
	kind ruleKind
	pct  int
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "notification_rearm=on,post_cache=25%"
type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma-separated flag list. Malformed entries are skipped.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			rules[key] = r
		}
	}

	return &Manager{rules: rules}
}

// parseRule accepts on/true/1, off/false/0 and N% for a deterministic per-user rollout.
func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{raw: value, kind: ruleOn}, true
	case "off", "false", "0":
		return rule{raw: value, kind: ruleOff}, true
	}
	if pctRaw, ok := strings.CutSuffix(value, "%"); ok {
		pct, err := strconv.Atoi(pctRaw)
		if err != nil {
			return rule{}, false
		}
		switch {
		case pct <= 0:
			return rule{raw: value, kind: ruleOff}, true
		case pct >= 100:
			return rule{raw: value, kind: ruleOn}, true
		}
		return rule{raw: value, kind: rulePercent, pct: pct}, true
	}
	return rule{}, false
}

// Enabled returns whether a flag is enabled for a given user. Percentage rollouts
// are never enabled for anonymous callers (userID 0).
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	if !ok {
		return false
	}
	switch r.kind {
	case ruleOn:
		return true
	case rulePercent:
		return userID != 0 && rolloutBucket(name, userID) < r.pct
	default:
		return false
	}
}

// Raw returns the configured value of every parsed flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Snapshot evaluates every configured and known flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules)+len(Known))
	for _, name := range Known {
		out[name] = m.Enabled(name, userID)
	}
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

// Names returns the configured flag names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.rules))
	for name := range m.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
