//go:build tools
// +build tools

// Package tools imports dependencies that are used by this project but not directly
// imported in the main codebase. This ensures they are tracked in go.mod.
package tools

import (
	// Configuration
	_ "github.com/spf13/viper"

	// Logging
	_ "github.com/rs/zerolog"

	// HTTP
	_ "github.com/go-chi/chi/v5"

	// HTML parsing
	_ "github.com/PuerkitoBio/goquery"
	_ "github.com/dyatlov/go-opengraph/opengraph"

	// Headless browser
	_ "github.com/go-rod/rod"

	// Utilities
	_ "github.com/google/uuid"
	_ "github.com/go-playground/validator/v10"
	_ "golang.org/x/sync/errgroup"

	// Kafka
	_ "github.com/segmentio/kafka-go"

	// Rate limiting
	_ "golang.org/x/time/rate"

	// Metrics
	_ "github.com/prometheus/client_golang/prometheus"

	// CLI
	_ "github.com/spf13/cobra"

	// Testing
	_ "github.com/stretchr/testify/assert"
	_ "github.com/stretchr/testify/require"
	_ "github.com/stretchr/testify/mock"
)
