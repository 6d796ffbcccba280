package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	InventoryPath      string
	InventoryDelimiter rune
	JournalPath        string

	AlegraBaseURL   string
	AlegraAPIKey    string
	WarehouseID     string
	RemoteTimeoutMs int

	SearchLimit        int
	MinorDeltaMax      int
	SessionHistorySize int

	ListenAddr string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		InventoryPath:      getEnv("INVENTORY_PATH", filepath.Join(cwd, "data", "inventory.csv")),
		InventoryDelimiter: getEnvDelimiter("INVENTORY_DELIMITER", ';'),
		JournalPath:        getEnv("JOURNAL_PATH", filepath.Join(cwd, "data", "adjustments.csv")),

		AlegraBaseURL:   getEnv("ALEGRA_API_BASE_URL", "https://api.alegra.com/api/v1"),
		AlegraAPIKey:    getEnv("ALEGRA_API_KEY", ""),
		WarehouseID:     getEnv("ALEGRA_WAREHOUSE_ID", "1"),
		RemoteTimeoutMs: getEnvInt("ALEGRA_TIMEOUT_MS", 30000),

		SearchLimit:        getEnvInt("SEARCH_LIMIT", 5),
		MinorDeltaMax:      getEnvInt("MINOR_DELTA_MAX", 2),
		SessionHistorySize: getEnvInt("SESSION_HISTORY_SIZE", 50),

		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
	}

	return cfg, nil
}

// RemoteEnabled reports whether the remote bookkeeping integration is
// configured. When false, uploads only need a barcode column.
func (c Config) RemoteEnabled() bool {
	return strings.TrimSpace(c.AlegraAPIKey) != ""
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDelimiter(key string, fallback rune) rune {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	return []rune(value)[0]
}
