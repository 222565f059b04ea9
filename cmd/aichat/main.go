package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/malv/aichat/auth"
	"github.com/malv/aichat/backend"
	"github.com/malv/aichat/cache"
	"github.com/malv/aichat/export"
	"github.com/malv/aichat/graphql"
	"github.com/malv/aichat/internal/configuration"
	"github.com/malv/aichat/internal/debug"
	"github.com/malv/aichat/tui"
)

const configFilepath = "~/.config/aichat/config.json"

var rootCmd = &cobra.Command{
	Use:     "aichat",
	Short:   "A terminal client for the hosted AI chat platform",
	Version: "1.0",
}

func main() {
	config, err := configuration.Parse(configFilepath)
	if err != nil {
		panic(err)
	}

	authClient := auth.NewClient(config.Backend.ResolveAuthURL(), config.SessionFile)

	gqlClient := graphql.NewClient(graphql.Config{
		HTTPURL: config.Backend.ResolveGraphqlURL(),
		WSURL:   config.Backend.ResolveGraphqlWSURL(),
		Timeout: time.Duration(config.Backend.RequestTimeout) * time.Second,
		Logger:  debug.GetLogger(),
	}, authClient.AccessToken)
	defer gqlClient.Close()

	backendClient := backend.NewClient(gqlClient)

	queryCache, err := cache.New(config.CacheFile)
	if err != nil {
		panic(err)
	}
	defer queryCache.Close()

	rootCmd.AddCommand(auth.NewLoginCmd(authClient))
	rootCmd.AddCommand(auth.NewSignupCmd(authClient))
	rootCmd.AddCommand(auth.NewLogoutCmd(authClient))
	rootCmd.AddCommand(auth.NewWhoamiCmd(authClient))
	rootCmd.AddCommand(tui.NewCmd(config, authClient, backendClient, queryCache))
	rootCmd.AddCommand(tui.NewListChatsCmd(authClient, backendClient, queryCache))
	rootCmd.AddCommand(export.NewCmd(authClient, backendClient))
	rootCmd.Execute()
}
