package provider

import (
	"fmt"
	"strings"
)

// flagComments — флаг провайдера с поддержкой комментариев.
const flagComments = "comments"

// ParseBridgeConfig разбирает описание провайдера вида
//
//	identifier[:comments][:plug1|plug2]
//
// Например "x:comments:autoRepostPost|autoPlugPost" или "linkedin".
func ParseBridgeConfig(entry, baseURL string) (BridgeConfig, error) {
	parts := strings.Split(strings.TrimSpace(entry), ":")
	if len(parts) > 3 || parts[0] == "" {
		return BridgeConfig{}, fmt.Errorf("%w: %q", ErrInvalidBridgeConfig, entry)
	}

	cfg := BridgeConfig{Identifier: parts[0], BaseURL: baseURL}
	rest := parts[1:]

	if len(rest) > 0 && rest[0] == flagComments {
		cfg.Commentable = true
		rest = rest[1:]
	}
	if len(rest) > 1 {
		return BridgeConfig{}, fmt.Errorf("%w: %q", ErrInvalidBridgeConfig, entry)
	}

	if len(rest) == 1 {
		for _, fn := range strings.Split(rest[0], "|") {
			if fn = strings.TrimSpace(fn); fn != "" {
				cfg.InternalPlugs = append(cfg.InternalPlugs, fn)
			}
		}
		if len(cfg.InternalPlugs) == 0 {
			return BridgeConfig{}, fmt.Errorf("%w: %q", ErrInvalidBridgeConfig, entry)
		}
	}

	return cfg, nil
}

// NewBridgeRegistry создаёт Registry из описаний провайдеров,
// обслуживаемых одним bridge-сервисом.
func NewBridgeRegistry(entries []string, baseURL string) (*Registry, error) {
	reg := NewRegistry()
	for _, entry := range entries {
		cfg, err := ParseBridgeConfig(entry, baseURL)
		if err != nil {
			return nil, err
		}
		reg.Register(NewBridge(cfg))
	}
	return reg, nil
}
