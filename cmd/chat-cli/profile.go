package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultServer = "http://localhost:8190"

// Profile is the persisted CLI state.
type Profile struct {
	Server string `yaml:"server"`
	Token  string `yaml:"token,omitempty"`
	Secret string `yaml:"secret,omitempty"`
}

func defaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "chat-cli.yaml"
	}
	return filepath.Join(dir, "chat-cli", "profile.yaml")
}

// loadProfile reads path. A missing file yields the defaults.
func loadProfile(path string) (*Profile, error) {
	p := &Profile{Server: defaultServer}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Server == "" {
		p.Server = defaultServer
	}
	return p, nil
}

func saveProfile(path string, p *Profile) error {
	raw, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	return os.WriteFile(path, raw, 0o600)
}

// resolveProfile loads the profile and applies --server and --token.
func resolveProfile(cmd *cobra.Command) (*Profile, string, error) {
	path, _ := cmd.Flags().GetString("profile")
	p, err := loadProfile(path)
	if err != nil {
		return nil, "", err
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		p.Server = server
	}
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		p.Token = token
	}
	return p, path, nil
}

func requireToken(p *Profile) error {
	if strings.TrimSpace(p.Token) == "" {
		return errors.New("no token: pass --token or run 'chat-cli token --save'")
	}
	return nil
}

func cliLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the CLI profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, path, err := resolveProfile(cmd)
		if err != nil {
			return err
		}
		shown := *p
		if shown.Secret != "" {
			shown.Secret = "********"
		}
		raw, err := yaml.Marshal(shown)
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n%s", path, raw)
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store server, token or secret in the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, path, err := resolveProfile(cmd)
		if err != nil {
			return err
		}
		if secret, _ := cmd.Flags().GetString("secret"); secret != "" {
			p.Secret = secret
		}
		if err := saveProfile(path, p); err != nil {
			return err
		}
		fmt.Printf("Profile saved to %s\n", path)
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)

	profileSetCmd.Flags().String("secret", "", "HS256 secret used by 'chat-cli token'")
}
