package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DirName is the name of both the global (~/.guang) and repo-local (.guang) config directories.
const DirName = ".guang"

// Config holds application configuration.
type Config struct {
	// DefaultEncoding is used when saving plain text that has no detected encoding
	// (a document that was never opened from disk).
	DefaultEncoding string `json:"default_encoding"`

	// FallbackEncoding is returned by encoding detection when the detector is
	// inconclusive or the file cannot be read.
	FallbackEncoding string `json:"fallback_encoding"`

	// DetectChunkSize is the number of bytes fed to the charset detector per step.
	DetectChunkSize int `json:"detect_chunk_size"`

	// DetectMaxBytes bounds the prefix examined during detection.
	DetectMaxBytes int `json:"detect_max_bytes"`

	// DetectConfidence is the detector confidence (0-100) at which detection stops
	// early and below which a result is treated as inconclusive.
	DetectConfidence int `json:"detect_confidence"`

	// MaxFileBytes rejects files larger than this on open. 0 disables the check.
	MaxFileBytes int64 `json:"max_file_bytes"`

	// RecentLimit is the default number of recent documents listed.
	RecentLimit int `json:"recent_limit"`

	// AllowedPaths is an allowlist of directories for MCP read/write operations.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for MCP read/write.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "document". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultEncoding:  "UTF-8",
		FallbackEncoding: "CP1251",
		DetectChunkSize:  4096,
		DetectMaxBytes:   64 * 1024,
		DetectConfidence: 50,
		MaxFileBytes:     16 << 20,
		RecentLimit:      20,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global directory and the nearest
// repo-level .guang/config.json found by walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .guang/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		DefaultEncoding:  firstString(overlay.DefaultEncoding, base.DefaultEncoding),
		FallbackEncoding: firstString(overlay.FallbackEncoding, base.FallbackEncoding),
		DetectChunkSize:  firstInt(overlay.DetectChunkSize, base.DetectChunkSize),
		DetectMaxBytes:   firstInt(overlay.DetectMaxBytes, base.DetectMaxBytes),
		DetectConfidence: firstInt(overlay.DetectConfidence, base.DetectConfidence),
		RecentLimit:      firstInt(overlay.RecentLimit, base.RecentLimit),
		DBMaxOpenConns:   firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:   firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
	}

	result.MaxFileBytes = overlay.MaxFileBytes
	if result.MaxFileBytes == 0 {
		result.MaxFileBytes = base.MaxFileBytes
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
