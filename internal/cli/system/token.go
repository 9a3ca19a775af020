package system

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/constants"
	"github.com/julianstephens/perfassist/internal/keyring"
)

// TokenSetCmd stores the summary API token in the OS keyring
type TokenSetCmd struct {
	Token string `arg:"" optional:"" help:"API token. Prompted for when omitted."`
}

func (cmd *TokenSetCmd) Run(ctx *cli.Context) error {
	token := cmd.Token
	if token == "" {
		input := huh.NewInput().
			Title("Summary API token").
			EchoMode(huh.EchoModePassword).
			Value(&token)
		if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
			return err
		}
	}

	if err := keyring.SetToken(token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	ctx.Println("✓ Token stored successfully in OS keyring")
	return nil
}

// TokenGetCmd shows the stored token, masked
type TokenGetCmd struct{}

func (cmd *TokenGetCmd) Run(ctx *cli.Context) error {
	token, err := keyring.GetToken()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no token found in keyring. Use '%s token set' to store one", constants.AppName)
		}
		return fmt.Errorf("failed to retrieve token from keyring: %w", err)
	}
	ctx.Println("Token retrieved from keyring:")
	ctx.Println(keyring.Mask(token))
	return nil
}

// TokenDeleteCmd removes the token from the OS keyring
type TokenDeleteCmd struct{}

func (cmd *TokenDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no token found in keyring")
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	ctx.Println("✓ Token deleted from OS keyring")
	return nil
}

// TokenStatusCmd checks the availability of the OS keyring
type TokenStatusCmd struct{}

func (cmd *TokenStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")
	if _, err := keyring.GetToken(); err == nil {
		ctx.Println("✓ Token is stored in keyring")
	} else if errors.Is(err, keyring.ErrNotFound) {
		ctx.Println("ℹ No token stored in keyring")
	}
	return nil
}
