package config

import (
	"context"
	"log/slog"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/clinboard/clinboard/pkg/domain/model"
)

// Scoring holds the workload scoring policy configuration
type Scoring struct {
	PolicyFile      string
	LookbackDays    int
	CacheTTLMinutes int
}

// Flags returns CLI flags for Scoring configuration
func (s *Scoring) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "scoring-policy",
			Usage:       "Path to the scoring policy YAML file (built-in defaults when empty)",
			Category:    "Scoring",
			Sources:     cli.EnvVars("CLINBOARD_SCORING_POLICY"),
			Destination: &s.PolicyFile,
		},
		&cli.IntFlag{
			Name:        "lookback-days",
			Usage:       "Metrics lookback window in days (overrides the policy file)",
			Category:    "Scoring",
			Sources:     cli.EnvVars("CLINBOARD_LOOKBACK_DAYS"),
			Destination: &s.LookbackDays,
		},
		&cli.IntFlag{
			Name:        "cache-ttl-minutes",
			Usage:       "Snapshot cache TTL in minutes (overrides the policy file)",
			Category:    "Scoring",
			Sources:     cli.EnvVars("CLINBOARD_CACHE_TTL_MINUTES"),
			Destination: &s.CacheTTLMinutes,
		},
	}
}

// Configure loads the scoring policy, applying flag overrides on top of
// the policy file or the built-in defaults
func (s *Scoring) Configure(ctx context.Context) (*model.ScoringPolicy, error) {
	policy := model.DefaultScoringPolicy()

	if s.PolicyFile != "" {
		loaded, err := LoadScoringPolicy(s.PolicyFile)
		if err != nil {
			return nil, err
		}
		policy = loaded
	} else {
		ctxlog.From(ctx).Debug("No scoring policy file configured, using defaults")
	}

	if s.LookbackDays > 0 {
		policy.LookbackDays = s.LookbackDays
	}
	if s.CacheTTLMinutes > 0 {
		policy.CacheTTLMinutes = s.CacheTTLMinutes
	}

	if err := policy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid scoring policy")
	}

	return policy, nil
}

// LoadScoringPolicy loads a scoring policy from a YAML file. Fields absent
// from the file keep their default values.
func LoadScoringPolicy(path string) (*model.ScoringPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "scoring policy file not found",
				goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read scoring policy file",
			goerr.V("path", path))
	}

	policy := model.DefaultScoringPolicy()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, goerr.Wrap(err, "failed to parse scoring policy YAML",
			goerr.V("path", path))
	}

	if err := policy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid scoring policy",
			goerr.V("path", path))
	}

	return policy, nil
}

// LogValue returns structured log value
func (s Scoring) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("policyFile", s.PolicyFile),
		slog.Int("lookbackDays", s.LookbackDays),
		slog.Int("cacheTTLMinutes", s.CacheTTLMinutes),
	)
}
