package memory

import (
	"strconv"
	"strings"

	"github.com/copilotx/copilotx-server/internal/model"
)

// Sub-items of the memory document are addressed by prefixed handles, the
// same handles the item listing hands to clients:
//
//	pref_<key>      communicationStyle entry
//	topic_<sel>     topicInterests entry
//	context_<sel>   recentContext.activeTopics entry
//	lang_<sel>      behavioralPatterns.preferredLanguages entry
//	peak_time       behavioralPatterns.peakUsageTime
//
// <sel> is the durable item ID assigned at creation. A bare numeric <sel> is
// also accepted as a positional index for legacy handles; indexes are
// resolved against the current list at deletion time, not a cached snapshot,
// so they are unsafe under concurrent modification. Durable IDs are the
// supported handle.

// deleteItem removes the addressed entry from the document in place.
// Returns model.ErrNotFound when the handle resolves to nothing.
func deleteItem(m *model.UserMemory, memoryID string) error {
	switch {
	case strings.HasPrefix(memoryID, "pref_"):
		key := strings.TrimPrefix(memoryID, "pref_")
		if _, ok := m.Preferences.CommunicationStyle[key]; !ok {
			return model.ErrNotFound
		}
		delete(m.Preferences.CommunicationStyle, key)
		return nil

	case strings.HasPrefix(memoryID, "topic_"):
		sel := strings.TrimPrefix(memoryID, "topic_")
		i := resolveIndex(sel, len(m.Preferences.TopicInterests), func(i int) string {
			return m.Preferences.TopicInterests[i].ID
		})
		if i < 0 {
			return model.ErrNotFound
		}
		m.Preferences.TopicInterests = append(
			m.Preferences.TopicInterests[:i], m.Preferences.TopicInterests[i+1:]...)
		return nil

	case strings.HasPrefix(memoryID, "context_"):
		sel := strings.TrimPrefix(memoryID, "context_")
		i := resolveIndex(sel, len(m.RecentContext.ActiveTopics), func(i int) string {
			return m.RecentContext.ActiveTopics[i].ID
		})
		if i < 0 {
			return model.ErrNotFound
		}
		m.RecentContext.ActiveTopics = append(
			m.RecentContext.ActiveTopics[:i], m.RecentContext.ActiveTopics[i+1:]...)
		return nil

	case strings.HasPrefix(memoryID, "lang_"):
		sel := strings.TrimPrefix(memoryID, "lang_")
		langs := m.BehavioralPatterns.PreferredLanguages
		i := resolveIndex(sel, len(langs), func(i int) string { return langs[i] })
		if i < 0 {
			return model.ErrNotFound
		}
		m.BehavioralPatterns.PreferredLanguages = append(langs[:i], langs[i+1:]...)
		return nil

	case memoryID == "peak_time":
		if m.BehavioralPatterns.PeakUsageTime == nil {
			return model.ErrNotFound
		}
		m.BehavioralPatterns.PeakUsageTime = nil
		return nil
	}
	return model.ErrNotFound
}

// resolveIndex resolves a selector against a list: first as a durable ID via
// idAt, then as a positional index. Returns -1 when nothing matches.
func resolveIndex(sel string, n int, idAt func(int) string) int {
	for i := 0; i < n; i++ {
		if idAt(i) == sel {
			return i
		}
	}
	if i, err := strconv.Atoi(sel); err == nil && i >= 0 && i < n {
		return i
	}
	return -1
}
