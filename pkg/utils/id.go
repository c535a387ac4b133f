package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 无连字符 uuid，短一些，列宽 32
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
