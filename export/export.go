// Package export renders a chat transcript to markdown.
package export

import (
	"bytes"
	"context"
	"io"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malv/aichat/auth"
	"github.com/malv/aichat/backend"
	"github.com/malv/aichat/internal/cli"
	"github.com/malv/aichat/internal/file"
)

const transcriptTemplate = `# {{ .Chat.Title }}

Created {{ .Chat.CreatedAt.Format "2006-01-02 15:04" }} by {{ .User.Email }}.
{{ range .Messages }}
## {{ .Role | toString | title }} ({{ .CreatedAt.Format "15:04:05" }})

{{ .Content }}
{{ end }}`

// Transcript holds the data rendered into the markdown template.
type Transcript struct {
	Chat     backend.Chat
	User     auth.User
	Messages []backend.Message
}

// Render writes the chat transcript as markdown.
func Render(w io.Writer, transcript Transcript) error {
	tmpl, err := template.New("transcript").Funcs(sprig.FuncMap()).Parse(transcriptTemplate)
	if err != nil {
		return errors.Wrap(err, "parsing transcript template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, transcript); err != nil {
		return errors.Wrap(err, "executing transcript template")
	}
	_, err = w.Write(buf.Bytes())
	return errors.Wrap(err, "writing transcript")
}

// NewCmd instantiates and returns the export command.
func NewCmd(authClient *auth.Client, backendClient *backend.Client) *cobra.Command {
	var opts struct {
		Output string
	}
	cmd := &cobra.Command{
		Use:   "export <chat-id>",
		Short: "Export a chat transcript as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			chatID := args[0]

			_ = authClient.LoadSession(ctx)
			session := authClient.Session()
			if session == nil {
				return errors.New("not signed in, run `aichat login`")
			}

			transcript, err := buildTranscript(ctx, backendClient, session.User, chatID)
			if err != nil {
				return err
			}

			if opts.Output == "" {
				return Render(os.Stdout, *transcript)
			}

			path, err := file.ExpandPath(opts.Output)
			if err != nil {
				return err
			}
			out, err := os.Create(path)
			if err != nil {
				return errors.Wrap(err, "creating output file")
			}
			defer out.Close()
			if err := Render(out, *transcript); err != nil {
				return err
			}
			cli.Success("Exported chat %s to %s", chatID, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func buildTranscript(ctx context.Context, backendClient *backend.Client, user auth.User, chatID string) (*Transcript, error) {
	chats, err := backendClient.GetChats(ctx)
	if err != nil {
		return nil, err
	}
	var chat *backend.Chat
	for i := range chats {
		if chats[i].ID == chatID {
			chat = &chats[i]
			break
		}
	}
	if chat == nil {
		return nil, errors.Errorf("chat %s not found", chatID)
	}

	messages, err := backendClient.GetMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return &Transcript{Chat: *chat, User: user, Messages: messages}, nil
}
