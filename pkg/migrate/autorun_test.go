package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jatinilogsolution/vendor-portal-sub000/pkg/config"
)

func TestMaybeRunDevGates(t *testing.T) {
	ctx := context.Background()

	// Outside dev, and in dev without the flag, the hook never touches the
	// client. A nil client panics if the gate is wrong.
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}}
	cfg.FeatureFlags.AutoMigrate = true
	require.NoError(t, MaybeRunDev(ctx, cfg, nil, nil))

	cfg = &config.Config{App: config.AppConfig{Env: config.AppEnvDev}}
	cfg.FeatureFlags.AutoMigrate = false
	require.NoError(t, MaybeRunDev(ctx, cfg, nil, nil))
}
