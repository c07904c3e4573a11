package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/infrastructure/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development token",
	Long: `Mint an HS256 token accepted by a server running with AUTH_MODE=secret.
The secret comes from --secret or the profile.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("id", "", "User id (required)")
	tokenCmd.Flags().String("name", "", "Display name")
	tokenCmd.Flags().String("email", "", "Email")
	tokenCmd.Flags().String("role", string(identity.RoleUser), "Role: user or admin")
	tokenCmd.Flags().String("secret", "", "HS256 secret (defaults to the profile secret)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.Flags().Bool("save", false, "Store the token in the profile")
	_ = tokenCmd.MarkFlagRequired("id")
}

func runToken(cmd *cobra.Command, args []string) error {
	p, path, err := resolveProfile(cmd)
	if err != nil {
		return err
	}

	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		secret = p.Secret
	}
	if secret == "" {
		return errors.New("no secret: pass --secret or run 'chat-cli profile set --secret ...'")
	}

	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	principal := identity.Principal{ID: id, Name: name, Email: email, Role: identity.ParseRole(role)}
	token, err := auth.IssueToken(secret, principal, ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		p.Token = token
		if err := saveProfile(path, p); err != nil {
			return err
		}
		fmt.Printf("Token for %s (%s) saved to %s\n", principal.ID, principal.Role, path)
		return nil
	}
	fmt.Println(token)
	return nil
}
