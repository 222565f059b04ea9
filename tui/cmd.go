package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.design/x/clipboard"

	"github.com/malv/aichat/auth"
	"github.com/malv/aichat/backend"
	"github.com/malv/aichat/cache"
	"github.com/malv/aichat/internal/cli"
	"github.com/malv/aichat/internal/configuration"
)

// NewCmd instantiates and returns the chat command.
func NewCmd(
	config *configuration.Config,
	authClient *auth.Client,
	backendClient *backend.Client,
	queryCache *cache.Cache,
) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the chat screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// A stale session is dropped by LoadSession; either way we only
			// care whether we end up signed in.
			_ = authClient.LoadSession(ctx)
			session := authClient.Session()
			if session == nil {
				return errors.New("not signed in, run `aichat login`")
			}

			clipboardEnabled := clipboard.Init() == nil

			m, err := New(ctx, config, authClient, backendClient, queryCache, session.User, clipboardEnabled)
			if err != nil {
				return errors.Wrap(err, "building chat screen")
			}

			p := tea.NewProgram(
				m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithMouseCellMotion(),
			)
			m.SetProgram(p)

			if _, err := p.Run(); err != nil {
				return errors.Wrap(err, "running chat screen")
			}
			return nil
		},
	}
}

// NewListChatsCmd instantiates and returns the chats command.
func NewListChatsCmd(
	authClient *auth.Client,
	backendClient *backend.Client,
	queryCache *cache.Cache,
) *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List your chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_ = authClient.LoadSession(ctx)

			chats, err := backendClient.GetChats(ctx)
			if err != nil {
				// Fall back to the local cache when the backend is out of
				// reach.
				if queryCache == nil {
					return err
				}
				cached, cacheErr := queryCache.ListChats()
				if cacheErr != nil || len(cached) == 0 {
					return err
				}
				cli.Muted("Backend unreachable, showing cached chats.")
				chats = cached
			}

			if len(chats) == 0 {
				cli.Muted("No chats yet.")
				return nil
			}
			for _, chat := range chats {
				cli.Title("%s  (%s)", chat.Title, humanize.Time(chat.CreatedAt))
				if preview, ok := chat.Preview(); ok {
					cli.Muted("  %s", preview.Content)
				}
			}
			return nil
		},
	}
}
