package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Kafka.APIKey = "SY367CYSVPCVDNXJ"
	cfg.Kafka.APISecret = "secret"
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "all", cfg.Kafka.Acks)
	assert.Equal(t, 3, cfg.Kafka.Retries)
	assert.Equal(t, int64(16384), cfg.Kafka.BatchSize)
	assert.Equal(t, 33554432, cfg.Kafka.BufferMemory)
	assert.Equal(t, "10ms", cfg.Kafka.Linger.String())
	assert.Equal(t, "10s", cfg.Kafka.PublishTimeout.String())
	assert.Equal(t, "gcp.pss.groupfl.mypbmcaa.dev.groupdetails", cfg.Topics.Dev)
	assert.Equal(t, "gcp.pss.groupfl.mypbmcaa.qa.groupdetails", cfg.Topics.QA)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GRPLOAD_KAFKA_API_KEY", "from-env")
	t.Setenv("GRPLOAD_TOPICS_QA", "qa.override")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Kafka.APIKey)
	assert.Equal(t, "qa.override", cfg.Topics.QA)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: qa\nstreamer:\n  workers: 4\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qa", cfg.Environment)
	assert.Equal(t, 4, cfg.Streamer.Workers)
	assert.Equal(t, "all", cfg.Kafka.Acks, "defaults still apply")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestKafkaConfig_Brokers(t *testing.T) {
	k := KafkaConfig{BootstrapServers: " a:9092, ,b:9092 "}
	assert.Equal(t, []string{"a:9092", "b:9092"}, k.Brokers())
}

func TestParseEnvironment(t *testing.T) {
	env, err := ParseEnvironment(" QA ")
	require.NoError(t, err)
	assert.Equal(t, EnvQA, env)

	for _, bad := range []string{"", "prod", "staging"} {
		_, err := ParseEnvironment(bad)
		assert.ErrorIs(t, err, ErrUnknownEnvironment, bad)
	}
}

func TestNewProvider_TopicPerEnvironment(t *testing.T) {
	cfg := testConfig(t)

	dev, err := NewProvider(cfg, EnvDev)
	require.NoError(t, err)
	assert.Equal(t, cfg.Topics.Dev, dev.Topic())
	assert.Equal(t, EnvDev, dev.Environment())

	qa, err := NewProvider(cfg, EnvQA)
	require.NoError(t, err)
	assert.Equal(t, cfg.Topics.QA, qa.Topic())

	_, err = NewProvider(cfg, Environment("prod"))
	assert.ErrorIs(t, err, ErrUnknownEnvironment)
}

func TestNewProvider_Security(t *testing.T) {
	cfg := testConfig(t)
	p, err := NewProvider(cfg, EnvDev)
	require.NoError(t, err)
	assert.True(t, p.UseSASL())
	assert.True(t, p.UseTLS())
	assert.Equal(t, "PLAIN", p.Kafka().SASLMechanism)
	assert.Equal(t, "SY367CYS...", p.MaskedAPIKey())

	cfg.Kafka.APISecret = ""
	_, err = NewProvider(cfg, EnvDev)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	cfg.Kafka.SecurityProtocol = "plaintext"
	p, err = NewProvider(cfg, EnvDev)
	require.NoError(t, err)
	assert.False(t, p.UseSASL())
	assert.False(t, p.UseTLS())

	cfg.Kafka.SecurityProtocol = "SSL"
	_, err = NewProvider(cfg, EnvDev)
	assert.ErrorIs(t, err, ErrUnsupportedAuth)

	cfg = testConfig(t)
	cfg.Kafka.SASLMechanism = "SCRAM-SHA-512"
	_, err = NewProvider(cfg, EnvDev)
	assert.ErrorIs(t, err, ErrUnsupportedAuth)
}

func TestNewProvider_MissingBrokersAndTopic(t *testing.T) {
	cfg := testConfig(t)
	cfg.Kafka.BootstrapServers = " , "
	_, err := NewProvider(cfg, EnvDev)
	assert.ErrorIs(t, err, ErrMissingBrokers)

	cfg = testConfig(t)
	cfg.Topics.QA = ""
	_, err = NewProvider(cfg, EnvQA)
	assert.ErrorIs(t, err, ErrMissingTopic)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "Not set", MaskKey(""))
	assert.Equal(t, "abc...", MaskKey("abc"))
	assert.Equal(t, "12345678...", MaskKey("1234567890"))
}
