package config

import "os"

// Config is built once at startup and handed to the constructors that
// need it. Nothing reads the environment after Load returns.
type Config struct {
	Port           string
	DatabaseURL    string
	RedisAddress   string
	RedisPassword  string
	JWTSecret      []byte
	AllowedOrigins []string
}

func Load() *Config {
	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}

	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	origins := []string{"*"}
	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = []string{clientURL}
	}

	return &Config{
		Port:           port,
		DatabaseURL:    dbURL,
		RedisAddress:   redisAddr,
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      []byte(secret),
		AllowedOrigins: origins,
	}
}
