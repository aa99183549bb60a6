package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/influxmcp/internal/server/app"
	"github.com/aussiebroadwan/influxmcp/pkg/mcpsdk"
)

const selftestRedirectURI = "http://localhost:8976/callback"

func selftestCommand() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Register a client, complete the PKCE flow and list tools against a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runSelftest(ctx, cmd, mcpsdk.NewSDKClient(baseURL))
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}

func runSelftest(ctx context.Context, cmd *cobra.Command, client *mcpsdk.SDKClient) error {
	out := cmd.OutOrStdout()

	live, err := client.GetLiveness(ctx)
	if err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	fmt.Fprintf(out, "server %s is %s\n", live.Version, live.Status)

	reg, err := client.Register(ctx, mcpsdk.RegisterRequest{
		ClientName:   "influxmcp-selftest",
		RedirectURIs: []string{selftestRedirectURI},
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	fmt.Fprintf(out, "registered client %s\n", reg.ClientID)

	pkce, err := mcpsdk.GeneratePKCEChallenge()
	if err != nil {
		return err
	}

	authz, err := client.Authorize(ctx, mcpsdk.AuthorizeRequest{
		ClientID:    reg.ClientID,
		RedirectURI: selftestRedirectURI,
		State:       "selftest",
		PKCE:        pkce,
	})
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}

	tokens, err := client.ExchangeAuthorizationCode(ctx, reg.ClientID, authz.Code, selftestRedirectURI, pkce.Verifier)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	fmt.Fprintf(out, "issued %s token, expires in %ds\n", tokens.TokenType, tokens.ExpiresIn)

	session := client.NewMCPSession(tokens.AccessToken)
	info, err := session.Initialize(ctx, "influxmcp-selftest", app.BuildVersion)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("tools/list: %w", err)
	}
	fmt.Fprintf(out, "%s %s: %d tools\n", info.ServerInfo.Name, info.ServerInfo.Version, len(tools))

	if err := client.RevokeToken(ctx, tokens.AccessToken, "access_token"); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	return nil
}
