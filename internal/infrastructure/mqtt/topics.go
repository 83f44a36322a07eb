package mqtt

import (
	"fmt"
	"strings"
)

// BridgeStatusTopic returns the retained status topic for a bridge instance.
//
// Example: /bridges/homa-fibaro/status
func BridgeStatusTopic(systemID string) string {
	return fmt.Sprintf("/bridges/%s/status", systemID)
}

// TopicMatches reports whether topic matches the subscription filter,
// honouring the + and # wildcards.
func TopicMatches(filter, topic string) bool {
	if filter == topic {
		return true
	}

	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")

	for i, part := range f {
		if part == "#" {
			return i == len(f)-1
		}
		if i >= len(t) {
			return false
		}
		if part != "+" && part != t[i] {
			return false
		}
	}

	return len(f) == len(t)
}

// LastSegment returns the final level of a topic.
func LastSegment(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
