package credentials

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// FileStore is the local key/value store for API keys and user preferences.
// Keys are base64-obfuscated, not encrypted; this keeps casual eyes off the
// file without pretending to be secure storage. The store is loaded once and
// written only by an explicit Save call, never by the pipeline itself.
type FileStore struct {
	path string
	cfg  fileConfig
}

type fileConfig struct {
	APIKeys    map[string]string `json:"api_keys,omitempty"`
	FrameCount int               `json:"frame_count,omitempty"`
	Model      string            `json:"model,omitempty"`
	ProxyRoot  string            `json:"proxy_path,omitempty"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return filepath.Join(appdata, "Metafootage", "config.json"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".metafootage", "config.json"), nil
}

// Open loads the store at path. A missing or corrupt file yields an empty
// store rather than an error, so a damaged config never blocks a run.
func Open(path string) *FileStore {
	s := &FileStore{path: path}
	b, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	_ = json.Unmarshal(b, &s.cfg)
	return s
}

// APIKey returns the decoded key for provider, if present.
func (s *FileStore) APIKey(provider string) (string, bool) {
	enc, ok := s.cfg.APIKeys[provider]
	if !ok || enc == "" {
		return "", false
	}
	dec, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", false
	}
	return string(dec), true
}

// SaveAPIKey stores an obfuscated key for provider and writes the file.
func (s *FileStore) SaveAPIKey(provider, key string) error {
	if s.cfg.APIKeys == nil {
		s.cfg.APIKeys = map[string]string{}
	}
	s.cfg.APIKeys[provider] = base64.StdEncoding.EncodeToString([]byte(key))
	return s.write()
}

// FrameCount returns the saved frame count preference, 0 if unset.
func (s *FileStore) FrameCount() int { return s.cfg.FrameCount }

// Model returns the saved model preference, empty if unset.
func (s *FileStore) Model() string { return s.cfg.Model }

// ProxyRoot returns the saved custom proxy location, empty if unset.
func (s *FileStore) ProxyRoot() string { return s.cfg.ProxyRoot }

// SavePreferences persists the run settings a user last chose. Zero/empty
// values leave the stored preference untouched.
func (s *FileStore) SavePreferences(frameCount int, model, proxyRoot string) error {
	if frameCount != 0 {
		s.cfg.FrameCount = frameCount
	}
	if model != "" {
		s.cfg.Model = model
	}
	if proxyRoot != "" {
		s.cfg.ProxyRoot = proxyRoot
	}
	return s.write()
}

func (s *FileStore) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	b, err := json.MarshalIndent(s.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

var _ KeyReader = (*FileStore)(nil)
