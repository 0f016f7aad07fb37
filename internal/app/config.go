package app

import (
	"time"

	"github.com/linguaflow/linguaflow-backend/internal/generation"
	"github.com/linguaflow/linguaflow-backend/internal/platform/envutil"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

type Config struct {
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	Generation     generation.Config
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := envutil.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	return Config{
		JWTSecretKey:   jwtSecretKey,
		AccessTokenTTL: time.Duration(accessTokenTTLSeconds) * time.Second,
		Generation:     generation.LoadConfig(log),
	}
}
