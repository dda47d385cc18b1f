package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"promptdeck/internal/chat"
	"promptdeck/internal/styles"
	"promptdeck/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "promptdeck",
	Short: "Chat with a switchable AI backend",
	Long: `promptdeck sends chat messages to one of two backend profiles and
renders the streamed reply.

Examples:
  promptdeck                            # interactive chat
  promptdeck ask "summarize this repo"  # one-shot, streams to stdout
  promptdeck health --all               # probe every backend
  promptdeck backend set openai         # remember the backend choice`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	Args:              cobra.NoArgs,
	RunE:              runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), appOptions{interactive: true})
	if err != nil {
		return err
	}
	defer a.Close()

	styles.InitTheme()
	session := chat.NewSession(a.client, a.resolver, a.logger)
	a.logger.Info("Starting chat", "profile", a.resolver.Active(cmd.Context()).ID)

	p := ui.NewProgram(session, a.client, a.resolver, a.logger)
	_, err = p.Run()
	session.Reset()
	return err
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
