package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
)

func Validate(cfg *Config) error {
	if err := validateProject(&cfg.Project); err != nil {
		return fmt.Errorf("project config validation failed: %w", err)
	}
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	return nil
}

func validateProject(p *Project) error {
	if len(p.Entries) == 0 {
		return fmt.Errorf("at least one entry point is required")
	}
	for name, path := range p.Entries {
		if name == "" || path == "" {
			return fmt.Errorf("entry %q has an empty name or path", name)
		}
		if name == "vendor" {
			return fmt.Errorf("entry name 'vendor' is reserved for the manifest-derived chunk")
		}
	}
	if p.OutDir == "" {
		return fmt.Errorf("output directory (out_dir) cannot be empty")
	}
	// The output directory is removed wholesale before production builds;
	// refuse anything that escapes the project.
	if filepath.IsAbs(p.OutDir) {
		return fmt.Errorf("output directory %q must be relative to the project", p.OutDir)
	}
	if clean := filepath.Clean(p.OutDir); clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output directory %q escapes the project root", p.OutDir)
	}
	return nil
}

// validateServer ensures Addr contains a valid host:port or :port format.
// If only a port is provided (e.g. ":3000"), the host defaults to
// "localhost". The port part is mandatory.
func validateServer(server *Server) error {
	if server.Addr == "" {
		return fmt.Errorf("server address (Addr) cannot be empty")
	}

	host, port, err := net.SplitHostPort(server.Addr)
	if err != nil {
		if strings.HasPrefix(server.Addr, ":") {
			port = strings.TrimPrefix(server.Addr, ":")
			host = "localhost"
		} else {
			return fmt.Errorf("invalid server address format '%s': %w", server.Addr, err)
		}
	}

	if port == "" {
		return fmt.Errorf("server address '%s' must include a port", server.Addr)
	}

	server.Addr = net.JoinHostPort(host, port)

	if _, err := net.LookupPort("tcp", port); err != nil {
		return fmt.Errorf("invalid port '%s' in server address '%s': %w", port, server.Addr, err)
	}

	return nil
}
