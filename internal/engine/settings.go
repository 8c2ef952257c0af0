package engine

import (
	"context"
	"sort"

	"novelreel/internal/config"
	"novelreel/internal/events"
)

const secretKey = "server.jwt_secret"

// EffectiveConfig returns the configuration with stored overrides applied.
func (e Engine) EffectiveConfig(ctx context.Context) (*config.Config, error) {
	base := e.Config
	if base == nil {
		base = config.Default()
	}
	overrides, err := e.Repo.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return base, nil
	}
	return config.WithOverrides(base, overrides)
}

// AdminConfig returns the effective configuration as dotted keys. The JWT
// secret is masked.
func (e Engine) AdminConfig(ctx context.Context) (map[string]any, error) {
	cfg, err := e.EffectiveConfig(ctx)
	if err != nil {
		return nil, err
	}
	flat, err := config.Flatten(cfg)
	if err != nil {
		return nil, err
	}
	if s, _ := flat[secretKey].(string); s != "" {
		flat[secretKey] = "******"
	}
	return flat, nil
}

// UpdateConfig validates and stores dotted-key overrides. Stored values
// take effect for readers of EffectiveConfig at once; the running server
// picks them up on restart.
func (e Engine) UpdateConfig(ctx context.Context, updates map[string]any, actorID string) ([]string, error) {
	if len(updates) == 0 {
		return nil, failf("缺少必要参数")
	}
	current, err := e.Repo.Settings(ctx)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(current)+len(updates))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	base := e.Config
	if base == nil {
		base = config.Default()
	}
	if _, err := config.WithOverrides(base, merged); err != nil {
		return nil, failf("配置无效: %v", err)
	}
	if err := e.Repo.PutSettings(ctx, updates, e.stamp()); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err := e.Events.Append(ctx, nil, "config.update", "", "config", "", actorID, events.Payload{"keys": keys}); err != nil {
		return nil, err
	}
	e.logger().Info("config updated", "keys", keys)
	return keys, nil
}
