package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TopicRouting maps a chat type to the AI application id sent in the routing header.
type TopicRouting struct {
	Topics map[string]string `yaml:"topics"`
}

// LoadTopicRouting parses the topics file. An empty path yields the default routing.
func LoadTopicRouting(path string) (*TopicRouting, error) {
	routing := &TopicRouting{Topics: map[string]string{}}
	if path == "" {
		return routing, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, routing); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	normalized := make(map[string]string, len(routing.Topics))
	for chatType, appID := range routing.Topics {
		appID = strings.TrimSpace(appID)
		if appID == "" {
			return nil, fmt.Errorf("topic %q has an empty application id", chatType)
		}
		normalized[strings.ToUpper(strings.TrimSpace(chatType))] = appID
	}
	routing.Topics = normalized
	return routing, nil
}

// AppID returns the application id for chatType, defaulting to the lower-cased chat type.
func (t *TopicRouting) AppID(chatType string) string {
	if t != nil {
		if appID, ok := t.Topics[strings.ToUpper(chatType)]; ok {
			return appID
		}
	}
	return strings.ToLower(chatType)
}
