package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"promptdeck/internal/chat"
	"promptdeck/internal/models"
	"promptdeck/internal/stream"
)

var (
	askBackend   string
	askEphemeral bool
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message and stream the reply to stdout",
	Long: `Send a single chat message to the active backend and print each
response fragment as it arrives.

Examples:
  promptdeck ask "What is the capital of France?"
  promptdeck ask --backend openai "Explain TCP vs UDP"
  promptdeck ask --ephemeral "hello"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askBackend, "backend", "b", "", "Use this backend for this run only (gemini, openai)")
	askCmd.Flags().BoolVar(&askEphemeral, "ephemeral", false, "Ignore the saved backend preference")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return errors.New("message is empty")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, appOptions{ephemeral: askEphemeral, backend: askBackend})
	if err != nil {
		return err
	}
	defer a.Close()

	session := chat.NewSession(a.client, a.resolver, a.logger)
	final := printStream(cmd.OutOrStdout(), session.Send(ctx, message))

	switch final.Status {
	case models.StatusComplete:
		return nil
	case models.StatusError:
		return errors.New(final.Error)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New(stream.FallbackError)
}

// printStream writes each fragment on its own line as soon as it lands and
// returns the last snapshot seen.
func printStream(w io.Writer, updates <-chan models.ChatState) models.ChatState {
	last := stream.Initial()
	printed := 0
	for st := range updates {
		if len(st.Fragments) < printed {
			printed = 0
		}
		for _, f := range st.Fragments[printed:] {
			fmt.Fprintln(w, f)
		}
		printed = len(st.Fragments)
		last = st
	}
	return last
}
