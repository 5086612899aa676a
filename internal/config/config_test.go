package config

import (
	"os"
	"path/filepath"
	"testing"

	"cellcount/internal/imageio"
	"cellcount/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "python3", cfg.Model.Python)
	assert.Equal(t, "cyto", cfg.Model.Variant)
	assert.Equal(t, imageio.FormatPNG, cfg.Output.MaskFormat)
	assert.Equal(t, CodecStd, cfg.Codec)
	assert.False(t, cfg.Output.KeepMask)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Model.Python, cfg.Model.Python)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Model.Python = "/opt/cellpose/bin/python"
	cfg.Model.UseGPU = true
	cfg.Model.Variant = "nuclei"
	cfg.Output.Folder = "/data/out"
	cfg.Output.MaskFormat = "tiff"
	cfg.Codec = "OpenCV"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/cellpose/bin/python", loaded.Model.Python)
	assert.True(t, loaded.Model.UseGPU)
	assert.Equal(t, "nuclei", loaded.Model.Variant)
	assert.Equal(t, "/data/out", loaded.Output.Folder)
	assert.Equal(t, imageio.FormatTIFF, loaded.Output.MaskFormat)
	assert.Equal(t, CodecOpenCV, loaded.Codec)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.MaskFormat = "jpeg"
	assert.True(t, models.IsValidation(cfg.Validate()))

	cfg = DefaultConfig()
	cfg.Codec = "magick"
	assert.True(t, models.IsValidation(cfg.Validate()))

	cfg = DefaultConfig()
	cfg.Model.Python = " "
	assert.True(t, models.IsValidation(cfg.Validate()))
}

func TestEnvironmentOverrides(t *testing.T) {
	env := map[string]string{
		"CELLCOUNT_PYTHON":    "/usr/bin/python3.11",
		"CELLCOUNT_USE_GPU":   "true",
		"CELLCOUNT_KEEP_MASK": "1",
		"CELLCOUNT_LOG_LEVEL": "debug",
		"CELLCOUNT_VARIANT":   "",
	}
	lookup := func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, "/usr/bin/python3.11", cfg.Model.Python)
	assert.True(t, cfg.Model.UseGPU)
	assert.True(t, cfg.Output.KeepMask)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "cyto", cfg.Model.Variant)
}

func TestEnvironmentOverrideRejectsBadBool(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(func(key string) (string, bool) {
		if key == "CELLCOUNT_USE_GPU" {
			return "sometimes", true
		}
		return "", false
	})

	assert.True(t, models.IsValidation(err))
}

func TestLoadAppliesEnvironment(t *testing.T) {
	t.Setenv("CELLCOUNT_MASK_FORMAT", "tif")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, imageio.FormatTIFF, cfg.Output.MaskFormat)
}
