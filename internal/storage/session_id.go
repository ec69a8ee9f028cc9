package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSessionID 生成新的会话 ID / Generates a new session ID
func NewSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("sess_%d_%s", time.Now().UTC().Unix(), suffix)
}

// NewTurnID 生成轮次 ID / Generates a turn ID
func NewTurnID() string {
	return uuid.NewString()
}
