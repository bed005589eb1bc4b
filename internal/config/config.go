package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sink kinds for the fact output store.
const (
	SinkFile  = "file"
	SinkKafka = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SectionsPath string
	JamsPath     string

	Sink            string
	FactsPath       string
	KafkaBrokers    []string
	KafkaFactsTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Batch shape.
	PageSize  int
	StartPage int

	// Geometry tuning: buffer radii in projection meters and the fixed UTM
	// projection. Denser road networks want tighter radii.
	ThinBufferMeters float64
	FatBufferMeters  float64
	UTMZone          int
	UTMSouthern      bool

	// Optional GeoJSON export of section display polylines after a
	// successful run. Empty disables the export.
	SectionsGeoJSONPath string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	pageSize, err := parseInt("PAGE_SIZE", 20000)
	if err != nil {
		return nil, err
	}
	startPage, err := parseInt("START_PAGE", 0)
	if err != nil {
		return nil, err
	}

	thin, err := parseFloat("THIN_BUFFER_METERS", 10)
	if err != nil {
		return nil, err
	}
	fat, err := parseFloat("FAT_BUFFER_METERS", 20)
	if err != nil {
		return nil, err
	}

	utmZone, err := parseInt("UTM_ZONE", 22)
	if err != nil {
		return nil, err
	}
	utmSouthern, err := parseBool("UTM_SOUTHERN", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SectionsPath: envOrDefault("SECTIONS_CSV", "data/sections.csv"),
		JamsPath:     envOrDefault("JAMS_NDJSON", "data/jams.ndjson"),

		Sink:            envOrDefault("SINK", SinkFile),
		FactsPath:       envOrDefault("FACTS_NDJSON", "data/jams_per_section.ndjson"),
		KafkaBrokers:    splitAndTrim(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaFactsTopic: envOrDefault("KAFKA_FACTS_TOPIC", "jam-section-facts"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PageSize:  pageSize,
		StartPage: startPage,

		ThinBufferMeters: thin,
		FatBufferMeters:  fat,
		UTMZone:          utmZone,
		UTMSouthern:      utmSouthern,

		SectionsGeoJSONPath: os.Getenv("SECTIONS_GEOJSON"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.SectionsPath == "" {
		return errors.New("SECTIONS_CSV is required")
	}
	if c.JamsPath == "" {
		return errors.New("JAMS_NDJSON is required")
	}
	switch c.Sink {
	case SinkFile:
		if c.FactsPath == "" {
			return errors.New("FACTS_NDJSON is required for the file sink")
		}
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka sink")
		}
		if c.KafkaFactsTopic == "" {
			return errors.New("KAFKA_FACTS_TOPIC is required for the kafka sink")
		}
	default:
		return fmt.Errorf("invalid SINK %q (want %q or %q)", c.Sink, SinkFile, SinkKafka)
	}
	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	if c.StartPage < 0 {
		return errors.New("START_PAGE must not be negative")
	}
	if c.ThinBufferMeters <= 0 || c.FatBufferMeters <= 0 {
		return errors.New("buffer radii must be positive")
	}
	if c.FatBufferMeters <= c.ThinBufferMeters {
		return errors.New("FAT_BUFFER_METERS must exceed THIN_BUFFER_METERS")
	}
	if c.UTMZone < 1 || c.UTMZone > 60 {
		return errors.New("UTM_ZONE must be between 1 and 60")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(key, fallback string) (time.Duration, error) {
	v, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
