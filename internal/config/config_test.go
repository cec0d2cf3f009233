package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, 100, cfg.PreviewRows)
	assert.True(t, cfg.WordCloud.Enabled)
	assert.Empty(t, cfg.S3.Endpoint)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_port: "9000"
upload_dir: /srv/uploads
preview_rows: 20
s3:
  endpoint: minio:9000
  access_key: key
  use_ssl: true
wordcloud:
  enabled: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.APIPort)
	assert.Equal(t, "/srv/uploads", cfg.UploadDir)
	assert.Equal(t, 20, cfg.PreviewRows)
	assert.Equal(t, "minio:9000", cfg.S3.Endpoint)
	assert.True(t, cfg.S3.UseSSL)
	assert.False(t, cfg.WordCloud.Enabled)
	// Не указано в файле — остаётся по умолчанию
	assert.Equal(t, "8082", cfg.WorkerPort)
}

func TestLoad_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("amqp_url: amqp://x/\n"), 0o644))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "amqp://x/", cfg.AMQPURL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preview_rows: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, env(map[string]string{
		"API_PORT":          "8181",
		"UPLOAD_DIR":        "/tmp/up",
		"S3_ENDPOINT":       "s3.local",
		"S3_SECRET_KEY":     "secret",
		"S3_USE_SSL":        "true",
		"WORDCLOUD_ENABLED": "false",
		"WORDCLOUD_FONT":    "/fonts/a.ttf",
		"PREVIEW_ROWS":      "25",
		"AMQP_URL":          "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.APIPort)
	assert.Equal(t, "/tmp/up", cfg.UploadDir)
	assert.Equal(t, "s3.local", cfg.S3.Endpoint)
	assert.Equal(t, "secret", cfg.S3.SecretKey)
	assert.True(t, cfg.S3.UseSSL)
	assert.False(t, cfg.WordCloud.Enabled)
	assert.Equal(t, "/fonts/a.ttf", cfg.WordCloud.Font)
	assert.Equal(t, 25, cfg.PreviewRows)
	// Пустая переменная не затирает значение
	assert.Equal(t, Default().AMQPURL, cfg.AMQPURL)
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"S3_USE_SSL":        "maybe",
		"WORDCLOUD_ENABLED": "yes please",
		"PREVIEW_ROWS":      "-3",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := applyEnv(&cfg, env(map[string]string{key: value}))
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr("8080"))
	assert.Equal(t, ":9000", Addr(":9000"))
}
