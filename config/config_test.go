package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := unmarshal(v)
	require.NoError(t, err)

	p := cfg.Policy()
	assert.Equal(t, 48*time.Hour, p.ResponseWindow)
	assert.Equal(t, 4, p.PenaltyWindowDays)
	assert.Equal(t, 3, p.PenaltyRollingMonths)
	assert.Equal(t, 3, p.FreezeThreshold)
	assert.Equal(t, 3, p.MaxRebookingAttempts)
	assert.Equal(t, time.Minute, p.CountdownRefresh)
	assert.Equal(t, time.UTC, p.Loc())
	assert.Equal(t, "mongo", cfg.StorageDriver)
	assert.Equal(t, time.Minute, cfg.ExpirySweepInterval)
}

func TestPolicyFromEnvironment(t *testing.T) {
	t.Setenv("BOOKING_RESPONSE_WINDOW", "24h")
	t.Setenv("FREEZE_THRESHOLD", "5")
	t.Setenv("POLICY_TIMEZONE", "Africa/Nairobi")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg, err := unmarshal(v)
	require.NoError(t, err)

	p := cfg.Policy()
	assert.Equal(t, 24*time.Hour, p.ResponseWindow)
	assert.Equal(t, 5, p.FreezeThreshold)
	assert.Equal(t, 4, p.PenaltyWindowDays)
	assert.Equal(t, "Africa/Nairobi", p.Loc().String())
}

func TestPolicyIgnoresInvalidValues(t *testing.T) {
	p := Config{BookingResponseWindow: -time.Hour, PolicyTimezone: "Nowhere/Atlantis"}.Policy()

	assert.Equal(t, 48*time.Hour, p.ResponseWindow)
	assert.Equal(t, 3, p.MaxRebookingAttempts)
	assert.Equal(t, time.UTC, p.Loc())
}
