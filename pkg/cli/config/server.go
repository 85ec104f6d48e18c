package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Addr         string
	RefreshToken string
}

// Flags returns CLI flags for Server configuration
func (s *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Sources:     cli.EnvVars("CLINBOARD_ADDR"),
			Destination: &s.Addr,
		},
		&cli.StringFlag{
			Name:        "refresh-token",
			Usage:       "Bearer token for the scheduled workload refresh endpoint (endpoint disabled when empty)",
			Sources:     cli.EnvVars("CLINBOARD_REFRESH_TOKEN"),
			Destination: &s.RefreshToken,
		},
	}
}

// LogValue returns structured log value
func (s Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", s.Addr),
		slog.Bool("hasRefreshToken", s.RefreshToken != ""),
	)
}
