package utils

import (
	"github.com/segmentio/ksuid"
)

// GenerateID создает уникальный сортируемый по времени ID (гонки, линки релея).
func GenerateID() string {
	return ksuid.New().String()
}

// GeneratePrefixedID - то же самое, но с префиксом ("peer_", "link_").
func GeneratePrefixedID(prefix string) string {
	return prefix + ksuid.New().String()
}
