//go:build property
// +build property

package config

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRecursionLimitProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	path := writeConfig(t, "runtime:\n  recursion_limit: 10\n")

	properties.Property("environment overrides the file and only positive limits load", prop.ForAll(
		func(limit int) bool {
			t.Setenv("REACTOR_RUNTIME_RECURSION_LIMIT", strconv.Itoa(limit))
			cfg, err := Load(path)
			if limit <= 0 {
				return err != nil
			}
			return err == nil && cfg.Runtime.RecursionLimit == limit
		},
		gen.IntRange(-5, 1000),
	))

	levels := []string{"debug", "info", "warn", "error", "DEBUG", "Info", "WARN", "Error"}
	properties.Property("level names are case-insensitive", prop.ForAll(
		func(i int) bool {
			cfg := New()
			cfg.Log.Level = levels[i]
			return cfg.Validate() == nil
		},
		gen.IntRange(0, len(levels)-1),
	))

	properties.TestingRun(t)
}
