/*
Package game
File: ids.go
Description: Instance id generation for sessions and entities.
*/

package game

import (
	"strings"

	"github.com/google/uuid"
)

// newInstanceID builds a readable unique id such as "tower_3f9c21ab". The
// prefix keeps server logs and client payloads self-describing.
func newInstanceID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
