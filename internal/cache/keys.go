package cache

import (
	"fmt"
	"time"
)

const (
	GroupTTL     = 5 * time.Minute
	GroupListTTL = 30 * time.Second
)

// GroupKey generates the Redis key for a single events group.
func GroupKey(id string) string {
	return fmt.Sprintf("calparse:group:%s", id)
}

// GroupListKey generates the Redis key for the group listing.
func GroupListKey(limit int) string {
	return fmt.Sprintf("calparse:groups:list:%d", limit)
}
