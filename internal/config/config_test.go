package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "无法写入临时配置文件")
	return path
}

// TestLoadConfigWithMaps 验证 map 字段和嵌套结构能被正确加载
func TestLoadConfigWithMaps(t *testing.T) {
	path := writeConfig(t, `
llm:
  model: "qwen-plus"
  qpm_limits:
    qwen-plus: 600
  task_models:
    cover_letter: "qwen-max"
redis:
  address: "redis:6379"
`)
	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err, "加载配置不应返回错误")

	assert.Equal(t, "qwen-plus", cfg.LLM.Model)
	assert.Equal(t, 600, cfg.LLM.QPMLimits["qwen-plus"])
	assert.Equal(t, "qwen-max", cfg.GetModelForTask("cover_letter"))
	assert.Equal(t, "qwen-plus", cfg.GetModelForTask("industry"), "未配置的任务应返回默认模型")
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	// 未在文件中出现的字段保留默认值
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 0.7, cfg.Matching.TechWeight)
}

// TestLoadConfigWithIncorrectMapSyntax 缩进错误的 map 应当导致解析失败
func TestLoadConfigWithIncorrectMapSyntax(t *testing.T) {
	path := writeConfig(t, `
llm:
  qpm_limits:
  qwen-plus: 600
    qwen-max: 100
`)
	_, err := LoadConfigFromFileOnly(path)
	assert.Error(t, err, "错误缩进的 YAML 应返回错误")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "llm:\n  api_key: from-file\n")
	t.Setenv("LLM_API_KEY", "from-env")
	t.Setenv("CV_AGENT_API_KEY", "secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "from-env", cfg.Embedding.APIKey, "embedding key 为空时复用 LLM key")
	assert.Equal(t, "secret", cfg.Auth.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFromFileOnly(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfigFromFileOnly("")
	assert.Error(t, err)
}

func TestDefaultsAndHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 30, cfg.LLM.DefaultQPM)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())
	assert.Equal(t, "X-Owner-ID", cfg.Auth.OwnerHeader)

	assert.Equal(t, 3*time.Second, GetDuration("3s", time.Second))
	assert.Equal(t, time.Second, GetDuration("bogus", time.Second))
	assert.Equal(t, time.Second, GetDuration("", time.Second))
}

func TestCreateSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Qdrant.Collection, cfg.Qdrant.Collection)

	assert.Error(t, CreateSampleConfig(path), "已存在的文件不应被覆盖")
}
