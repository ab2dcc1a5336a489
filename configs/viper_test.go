// Package configs provides configuration structures and utilities for
// the cache engine. This file contains tests for the Viper-based
// configuration functionality.
//
// Package configs 提供缓存引擎的配置结构和工具。
// 本文件包含基于Viper的配置功能的测试。
package configs

import (
	"strings"
	"testing"
	"time"
)

// TestLoadFromReaderYAML tests configuration loading through LoadFromReader
// instead of actual files to avoid filesystem dependencies; it does not go
// through Viper. It verifies that configuration values are correctly parsed
// from YAML content.
//
// TestLoadFromReaderYAML 通过LoadFromReader而不是实际文件测试配置加载，
// 以避免文件系统依赖（不经过Viper）。它验证配置值是否正确地从YAML内容解析。
func TestLoadFromReaderYAML(t *testing.T) {
	// Create a YAML config as a string
	// 创建一个YAML配置字符串
	yamlConfig := `
cache:
  enable: true
  name: "test-cache"
  max_weighted_size: 1000
  default_ttl: 60s
storage:
  shard_count: 64
housekeeping:
  max_events_per_pass: 64
  interval: 5s
`

	// Load config from reader
	// 从读取器加载配置
	reader := strings.NewReader(yamlConfig)
	config, err := LoadFromReader(reader, "yaml")
	if err != nil {
		t.Fatalf("Failed to load config from reader: %v", err)
	}

	// Verify config values
	// 验证配置值
	if config.Cache.MaxWeightedSize != 1000 {
		t.Errorf("Expected Cache.MaxWeightedSize to be 1000, got %d", config.Cache.MaxWeightedSize)
	}
	if config.Cache.Name != "test-cache" {
		t.Errorf("Expected Cache.Name to be 'test-cache', got '%s'", config.Cache.Name)
	}
	if config.Storage.ShardCount != 64 {
		t.Errorf("Expected Storage.ShardCount to be 64, got %d", config.Storage.ShardCount)
	}
	if config.Housekeeping.MaxEventsPerPass != 64 {
		t.Errorf("Expected Housekeeping.MaxEventsPerPass to be 64, got %d", config.Housekeeping.MaxEventsPerPass)
	}
	if config.Cache.DefaultTTL != 60*time.Second {
		t.Errorf("Expected Cache.DefaultTTL to be 60s, got %s", config.Cache.DefaultTTL)
	}
}

// TestConfigsEqual tests the configsEqual helper function to ensure it correctly
// identifies when two configurations are equal or different.
//
// TestConfigsEqual 测试configsEqual辅助函数，确保它能正确识别
// 两个配置何时相等或不同。
func TestConfigsEqual(t *testing.T) {
	config1 := DefaultConfig()
	config2 := DefaultConfig()

	// Same configs should be equal
	// 相同的配置应该相等
	if !configsEqual(config1, config2) {
		t.Error("configsEqual() returned false for identical configs")
	}

	// Different configs should not be equal
	// 不同的配置不应该相等
	config2.Cache.MaxWeightedSize = 1000
	if configsEqual(config1, config2) {
		t.Error("configsEqual() returned true for different configs")
	}
}
