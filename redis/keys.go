package redis

import "fmt"

// Version keys shared between services. Writers bump them, readers fold
// them into cache keys so stale entries are never served.

func PublicVersionKey(propertyID string) string {
	return fmt.Sprintf("property:%s:pub:version", propertyID)
}

const PropertiesVersionKey = "properties:version"
