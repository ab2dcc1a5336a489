// Package configs provides configuration structures and utilities for
// the cache engine. It offers mechanisms for loading, validating, and
// saving configuration from various sources including JSON and YAML
// files. The package defines a comprehensive configuration structure
// that controls all aspects of the cache system.
//
// Package configs 提供缓存引擎的配置结构和工具。
// 它提供从各种来源（包括JSON和YAML文件）加载、验证和保存配置的机制。
// 该包定义了一个全面的配置结构，用于控制缓存系统的所有方面。
package configs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"encoding/json"

	"gopkg.in/yaml.v3"
)

// The spec's "TTL/TTI must be ≤ 1000 years" ceiling (§4.6) is not a
// reachable case: time.Duration is an int64 count of nanoseconds whose
// largest representable value is ~292 years, so every duration a caller
// can actually construct already satisfies it. Validate only needs to
// reject negative values, matching pkg/cache.Builder.Build's own note.

// Config represents the complete configuration for the cache engine.
// It contains all settings needed to configure the cache system,
// organized into logical sections for different components.
//
// Config 表示缓存引擎的完整配置。
// 它包含配置缓存系统所需的所有设置，
// 按不同组件的逻辑部分进行组织。
type Config struct {
	// Cache contains core cache settings like capacity and TTL/TTI
	// Cache 包含核心缓存设置，如容量和TTL/TTI
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Storage defines how cache items are stored and managed
	// Storage 定义缓存项如何存储和管理
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Admission controls sizing of the TinyLFU frequency sketch
	// Admission 控制TinyLFU频率草图的规模
	Admission AdmissionConfig `json:"admission" yaml:"admission"`

	// Housekeeping configures the background maintenance pass that
	// applies eviction, expiration, and policy updates.
	// Housekeeping 配置应用淘汰、过期和策略更新的后台维护过程
	Housekeeping HousekeepingConfig `json:"housekeeping" yaml:"housekeeping"`

	// Metrics configures performance monitoring and statistics
	// Metrics 配置性能监控和统计
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log configures the logging behavior
	// Log 配置日志行为
	Log LogConfig `json:"log" yaml:"log"`

	// Extensions configures optional features like hot reloading
	// Extensions 配置可选功能，如热重载
	Extensions ExtensionsConfig `json:"extensions" yaml:"extensions"`

	// Extra allows for custom configuration options
	// Extra 允许自定义配置选项
	Extra map[string]interface{} `json:"extra" yaml:"extra"`
}

// CacheConfig contains settings for the cache itself.
// These settings control the core behavior of the cache,
// such as capacity limits and expiration policies.
//
// CacheConfig 包含缓存本身的设置。
// 这些设置控制缓存的核心行为，
// 如容量限制和过期策略。
type CacheConfig struct {
	// Enable determines whether the cache is active
	// Enable 确定缓存是否处于活动状态
	Enable bool `json:"enable" yaml:"enable"`

	// Name is the identifier for this cache instance
	// Name 是此缓存实例的标识符
	Name string `json:"name" yaml:"name"`

	// MaxWeightedSize is the maximum total weight the cache may hold
	// (0 = unbounded). With the default weigher this equals entry count.
	// MaxWeightedSize 是缓存可以容纳的最大总权重（0 = 无限制）
	MaxWeightedSize int64 `json:"max_weighted_size" yaml:"max_weighted_size"`

	// InitialCapacity is a sizing hint for the Map Store's shard maps.
	// InitialCapacity 是Map Store分片映射的初始容量提示
	InitialCapacity int `json:"initial_capacity" yaml:"initial_capacity"`

	// DefaultTTL is the time-to-live applied to entries that don't
	// override it (0 = disabled).
	// DefaultTTL 是条目的默认生存时间（0 = 禁用）
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`

	// DefaultTTI is the time-to-idle (sliding expiration) applied to
	// entries that don't override it (0 = disabled).
	// DefaultTTI 是条目的默认空闲时间（滑动过期）（0 = 禁用）
	DefaultTTI time.Duration `json:"default_tti" yaml:"default_tti"`
}

// StorageConfig contains settings for the Map Store's shard layout.
//
// StorageConfig 包含Map Store分片布局的设置。
type StorageConfig struct {
	// ShardCount is the number of shards for reducing lock contention;
	// Validate rejects values that are not a power of 2.
	// ShardCount 是用于减少锁竞争的分片数量（必须为2的幂）
	ShardCount int `json:"shard_count" yaml:"shard_count"`
}

// AdmissionConfig sizes the TinyLFU frequency sketch that backs
// admission decisions into the main region.
//
// AdmissionConfig 确定支持主区域准入决策的TinyLFU频率草图的规模。
type AdmissionConfig struct {
	// EstimatedEntries is roughly the expected number of distinct keys
	// seen. pkg/cache does not read it: the policy sizes its count-min
	// sketch and doorkeeper from the cache's capacity.
	// EstimatedEntries 是预计出现的不同键的大致数量（pkg/cache不读取此值）
	EstimatedEntries int64 `json:"estimated_entries" yaml:"estimated_entries"`
}

// HousekeepingConfig controls the background maintenance pass: how
// much work one pass may perform and how often it runs on a timer
// (spec §4.5's periodic-tick condition, in addition to the
// channel-full trigger that always applies).
//
// HousekeepingConfig 控制后台维护过程：单次过程可执行的工作量，
// 以及其定时运行的频率。
type HousekeepingConfig struct {
	// MaxEventsPerPass bounds how many queued events one pass drains.
	// MaxEventsPerPass 限制单次过程处理的事件数量
	MaxEventsPerPass int `json:"max_events_per_pass" yaml:"max_events_per_pass"`

	// MaxEvictionsPerPass bounds how many expirations/evictions one
	// pass performs.
	// MaxEvictionsPerPass 限制单次过程执行的过期/淘汰数量
	MaxEvictionsPerPass int `json:"max_evictions_per_pass" yaml:"max_evictions_per_pass"`

	// Interval is how often the periodic tick fires a pass (0 disables
	// the ticker; the event-driven triggers still apply).
	// Interval 是定时触发过程的频率（0禁用计时器）
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// MetricsConfig contains settings for metrics collection.
//
// MetricsConfig 包含指标收集的设置。
type MetricsConfig struct {
	// Enable determines whether Prometheus instrumentation is active
	// Enable 确定是否启用Prometheus插桩
	Enable bool `json:"enable" yaml:"enable"`

	// Namespace and Subsystem label every exported metric.
	// Namespace 和 Subsystem 标注每个导出的指标
	Namespace string `json:"namespace" yaml:"namespace"`
	Subsystem string `json:"subsystem" yaml:"subsystem"`

	// PrometheusPort is the port the metrics HTTP handler listens on,
	// when run standalone (see cmd/tesseraecho).
	// PrometheusPort 是指标HTTP处理器监听的端口
	PrometheusPort int `json:"prometheus_port" yaml:"prometheus_port"`
}

// LogConfig contains settings for logging.
// These settings control the logging behavior, including
// log level, format, and output destination.
//
// LogConfig 包含日志记录的设置。
// 这些设置控制日志行为，包括日志级别、格式和输出目的地。
type LogConfig struct {
	// Level sets the minimum log level ("debug", "info", "warn", "error")
	// Level 设置最低日志级别（"debug"、"info"、"warn"、"error"）
	Level string `json:"level" yaml:"level"`

	// Format specifies the log format ("text", "json")
	// Format 指定日志格式（"text"、"json"）
	Format string `json:"format" yaml:"format"`

	// Output determines where logs are written ("stdout", "stderr", "file")
	// Output 确定日志写入的位置（"stdout"、"stderr"、"file"）
	Output string `json:"output" yaml:"output"`

	// FilePath is the path to the log file when Output is "file"
	// FilePath 是当Output为"file"时的日志文件路径
	FilePath string `json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation
	// MaxSizeMB 是轮换前的最大日志文件大小（MB）
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated log files to keep
	// MaxBackups 是要保留的轮换日志文件数量
	MaxBackups int `json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of log files in days
	// MaxAgeDays 是日志文件的最大保留天数
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// ExtensionsConfig contains settings for extensions.
//
// ExtensionsConfig 包含扩展的设置。
type ExtensionsConfig struct {
	// HotReload contains settings for dynamic configuration reloading
	// HotReload 包含动态配置重新加载的设置
	HotReload HotReloadConfig `json:"hot_reload" yaml:"hot_reload"`
}

// HotReloadConfig contains settings for hot reloading.
//
// HotReloadConfig 包含热重载的设置。
type HotReloadConfig struct {
	// Enable determines whether hot reloading is active
	// Enable 确定是否启用热重载
	Enable bool `json:"enable" yaml:"enable"`

	// WatchInterval is how often to check for configuration changes
	// WatchInterval 是检查配置更改的频率
	WatchInterval time.Duration `json:"watch_interval" yaml:"watch_interval"`
}

// DefaultConfig returns a new Config with default values.
//
// DefaultConfig 返回具有默认值的新Config。
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Enable:          true,
			Name:            "tessera",
			MaxWeightedSize: 500000,
			InitialCapacity: 1024,
			DefaultTTL:      0,
			DefaultTTI:      0,
		},
		Storage: StorageConfig{
			ShardCount: 256,
		},
		Admission: AdmissionConfig{
			EstimatedEntries: 500000,
		},
		Housekeeping: HousekeepingConfig{
			MaxEventsPerPass:    1024,
			MaxEvictionsPerPass: 256,
			Interval:            time.Second,
		},
		Metrics: MetricsConfig{
			Enable:         true,
			Namespace:      "tessera",
			Subsystem:      "cache",
			PrometheusPort: 2112,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			FilePath:   "/var/log/tessera.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Extensions: ExtensionsConfig{
			HotReload: HotReloadConfig{
				Enable:        false,
				WatchInterval: 30 * time.Second,
			},
		},
		Extra: make(map[string]interface{}),
	}
}

// LoadFromFile loads configuration from a file.
// It supports both YAML and JSON formats, automatically
// detecting the format based on the file extension.
//
// LoadFromFile 从文件加载配置。
// 它支持YAML和JSON格式，根据文件扩展名自动检测格式。
func LoadFromFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer file.Close()

	config := DefaultConfig()
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(file).Decode(config)
	case ".json":
		err = json.NewDecoder(file).Decode(config)
	default:
		return nil, fmt.Errorf("unsupported configuration file format: %s", ext)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return config, nil
}

// LoadFromReader loads configuration from an io.Reader.
//
// LoadFromReader 从io.Reader加载配置。
func LoadFromReader(r io.Reader, format string) (*Config, error) {
	config := DefaultConfig()
	var err error

	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.NewDecoder(r).Decode(config)
	case "json":
		err = json.NewDecoder(r).Decode(config)
	default:
		return nil, fmt.Errorf("unsupported configuration format: %s", format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
// It supports both YAML and JSON formats, automatically
// selecting the format based on the file extension.
//
// SaveToFile 将配置保存到文件。
func (c *Config) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".yaml", ".yml":
		encoder := yaml.NewEncoder(file)
		defer encoder.Close()
		err = encoder.Encode(c)
	case ".json":
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(c)
	default:
		return fmt.Errorf("unsupported configuration file format: %s", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	return nil
}

// Validate validates the configuration.
// It checks that all settings have valid values and
// that there are no conflicts or inconsistencies.
//
// Validate 验证配置。
func (c *Config) Validate() error {
	// Validate cache settings
	// 验证缓存设置
	if c.Cache.MaxWeightedSize < 0 {
		return fmt.Errorf("cache.max_weighted_size must be non-negative")
	}
	if c.Cache.InitialCapacity < 0 {
		return fmt.Errorf("cache.initial_capacity must be non-negative")
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache.default_ttl must be non-negative")
	}
	if c.Cache.DefaultTTI < 0 {
		return fmt.Errorf("cache.default_tti must be non-negative")
	}

	// Validate storage settings
	// 验证存储设置
	if c.Storage.ShardCount <= 0 {
		return fmt.Errorf("storage.shard_count must be positive")
	}
	if !isPowerOfTwo(c.Storage.ShardCount) {
		return fmt.Errorf("storage.shard_count must be a power of 2")
	}

	// Validate admission settings
	// 验证准入设置
	if c.Admission.EstimatedEntries <= 0 {
		return fmt.Errorf("admission.estimated_entries must be positive")
	}

	// Validate housekeeping settings
	// 验证维护设置
	if c.Housekeeping.MaxEventsPerPass <= 0 {
		return fmt.Errorf("housekeeping.max_events_per_pass must be positive")
	}
	if c.Housekeeping.MaxEvictionsPerPass <= 0 {
		return fmt.Errorf("housekeeping.max_evictions_per_pass must be positive")
	}
	if c.Housekeeping.Interval < 0 {
		return fmt.Errorf("housekeeping.interval must be non-negative")
	}

	// Validate metrics settings
	// 验证指标设置
	if c.Metrics.Enable {
		if c.Metrics.PrometheusPort <= 0 || c.Metrics.PrometheusPort > 65535 {
			return fmt.Errorf("metrics.prometheus_port must be between 1 and 65535")
		}
		if c.Metrics.Namespace == "" {
			return fmt.Errorf("metrics.namespace must not be empty when metrics are enabled")
		}
	}

	// Validate log settings
	// 验证日志设置
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
		// 有效级别
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
		// Valid formats
		// 有效格式
	default:
		return fmt.Errorf("log.format must be one of: text, json")
	}
	switch c.Log.Output {
	case "stdout", "stderr", "file":
		// Valid outputs
		// 有效输出
	default:
		return fmt.Errorf("log.output must be one of: stdout, stderr, file")
	}
	if c.Log.Output == "file" && c.Log.FilePath == "" {
		return fmt.Errorf("log.file_path must be specified when log.output is 'file'")
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be positive")
	}
	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_backups must be non-negative")
	}
	if c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log.max_age_days must be non-negative")
	}

	// Validate extensions settings
	// 验证扩展设置
	if c.Extensions.HotReload.Enable && c.Extensions.HotReload.WatchInterval < time.Second {
		return fmt.Errorf("extensions.hot_reload.watch_interval must be at least 1 second")
	}

	return nil
}

// isPowerOfTwo checks if n is a power of 2.
//
// isPowerOfTwo 检查n是否为2的幂。
func isPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
