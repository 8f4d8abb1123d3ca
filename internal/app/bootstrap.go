package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/relabs-tech/tilt_estimator/internal/config"
	"github.com/relabs-tech/tilt_estimator/internal/logging"
)

// Bootstrap loads the global configuration from configPath and builds the
// logger it asks for.
func Bootstrap(configPath string) (*config.Config, *zap.SugaredLogger, error) {
	if err := config.InitGlobal(configPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	cfg := config.Get()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
