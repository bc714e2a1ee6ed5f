package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ConfigSuite is a test suite for config operations.
type ConfigSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func (s *ConfigSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
	s.origDir = os.Getenv("SNAPVAULT_DATA_DIR")
	os.Setenv("SNAPVAULT_DATA_DIR", s.tempDir)
}

func (s *ConfigSuite) TearDownTest() {
	os.Setenv("SNAPVAULT_DATA_DIR", s.origDir)
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

// TestDefault tests default configuration values.
func (s *ConfigSuite) TestDefault() {
	cfg := Default()

	s.Equal(DefaultRetentionDays, cfg.RetentionDays)
	s.Equal(int64(DefaultMaxItems), cfg.MaxItems)
	s.Equal(DefaultMaxBytes, cfg.MaxBytes)
	s.True(cfg.StorePreviews)
	s.True(cfg.StoreOriginals)
	s.True(cfg.AutoOCR)
	s.True(cfg.SemanticSearch)
	s.Equal(DefaultThumbMaxSide, cfg.ThumbMaxSide)
	s.Equal(DefaultPreviewMaxSide, cfg.PreviewMaxSide)
	s.Equal(DefaultJPEGQuality, cfg.JPEGQuality)
	s.Equal(DefaultMaxConns, cfg.MaxConns)
	s.Equal(DefaultEmbedModel, cfg.EmbedModel)
	s.Equal(DefaultEmbedDim, cfg.EmbedDim)
}

// TestPaths tests derived data directory paths.
func (s *ConfigSuite) TestPaths() {
	s.Equal(s.tempDir, DataDir())
	s.Equal(filepath.Join(s.tempDir, "snapvault.db"), DBPath())
	s.Equal(filepath.Join(s.tempDir, "settings.yaml"), SettingsPath())
}

// TestDataDirFallback tests the home-relative default.
func (s *ConfigSuite) TestDataDirFallback() {
	os.Unsetenv("SNAPVAULT_DATA_DIR")
	s.Contains(DataDir(), ".snapvault")
}

// TestEnsureAll tests data directory creation.
func (s *ConfigSuite) TestEnsureAll() {
	s.NoError(EnsureAll())

	info, err := os.Stat(DataDir())
	s.NoError(err)
	s.True(info.IsDir())

	// Second call is a no-op.
	s.NoError(EnsureAll())
}

// TestLoad_TableDriven tests settings loading with various scenarios.
func (s *ConfigSuite) TestLoad_TableDriven() {
	tests := []struct {
		name          string
		settingsYAML  string
		wantErr       bool
		wantRetention int
		wantMaxItems  int64
		wantPreviews  bool
	}{
		{
			name:          "no settings file",
			settingsYAML:  "",
			wantRetention: DefaultRetentionDays,
			wantMaxItems:  DefaultMaxItems,
			wantPreviews:  true,
		},
		{
			name:          "custom retention",
			settingsYAML:  "retention_days: 90",
			wantRetention: 90,
			wantMaxItems:  DefaultMaxItems,
			wantPreviews:  true,
		},
		{
			name:          "previews disabled",
			settingsYAML:  "store_previews: false\nmax_items: 100",
			wantRetention: DefaultRetentionDays,
			wantMaxItems:  100,
			wantPreviews:  false,
		},
		{
			name:          "negative budgets clamped to disabled",
			settingsYAML:  "retention_days: -1\nmax_items: -5\nmax_bytes: -100",
			wantRetention: 0,
			wantMaxItems:  0,
			wantPreviews:  true,
		},
		{
			name:          "unknown keys ignored",
			settingsYAML:  "future_flag: true\nretention_days: 7",
			wantRetention: 7,
			wantMaxItems:  DefaultMaxItems,
			wantPreviews:  true,
		},
		{
			name:         "malformed yaml",
			settingsYAML: "retention_days: [nope",
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			dir := s.T().TempDir()
			os.Setenv("SNAPVAULT_DATA_DIR", dir)

			if tt.settingsYAML != "" {
				s.Require().NoError(os.WriteFile(
					filepath.Join(dir, "settings.yaml"),
					[]byte(tt.settingsYAML),
					0o600,
				))
			}

			cfg, err := Load()
			if tt.wantErr {
				s.Error(err)
				return
			}
			s.Require().NoError(err)
			s.Equal(tt.wantRetention, cfg.RetentionDays)
			s.Equal(tt.wantMaxItems, cfg.MaxItems)
			s.Equal(tt.wantPreviews, cfg.StorePreviews)
		})
	}
}

// TestSaveLoadRoundTrip tests settings persistence.
func (s *ConfigSuite) TestSaveLoadRoundTrip() {
	s.Require().NoError(EnsureAll())

	cfg := Default()
	cfg.RetentionDays = 14
	cfg.MaxBytes = 1 << 20
	cfg.SemanticSearch = false
	s.Require().NoError(cfg.Save())

	got, err := Load()
	s.Require().NoError(err)
	s.Equal(14, got.RetentionDays)
	s.Equal(int64(1<<20), got.MaxBytes)
	s.False(got.SemanticSearch)
}

// TestPolicy tests the eviction policy projection.
func (s *ConfigSuite) TestPolicy() {
	cfg := Default()
	cfg.RetentionDays = 7
	cfg.MaxItems = 42
	cfg.MaxBytes = 1000

	p := cfg.Policy()
	s.Equal(7, p.RetentionDays)
	s.Equal(int64(42), p.MaxItems)
	s.Equal(int64(1000), p.MaxBytes)
}
