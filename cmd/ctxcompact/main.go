// Command ctxcompact applies context-window compaction to a persisted chat
// history and inspects the pieces of the compaction subsystem.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/youssefsiam38/ctxcompact"
	"github.com/youssefsiam38/ctxcompact/compaction"
	"github.com/youssefsiam38/ctxcompact/internal/convert"
)

// cli holds the global flags and the logger built from them
type cli struct {
	configPath string
	model      string
	verbose    bool
	logger     *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "ctxcompact",
		Short: "Keep chat histories inside the model's context window",
		Long: `ctxcompact reduces a persisted chat history to the history that is
submitted to the model on the next turn.

A history ending in compaction markers is truncated and the model is asked
to summarize it; a history holding a summary is replaced by the summary and
the turns that followed the truncation point.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.OutputPaths = []string{"stderr"}
			if c.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			} else {
				config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML compaction config file")
	root.PersistentFlags().StringVar(&c.model, "model", "", "model ID used to size the usage annotation")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.reduceCmd(), c.classifyCmd(), c.toolSchemaCmd())
	return root
}

// guard builds a Guard from the global flags
func (c *cli) guard() (*ctxcompact.Guard, error) {
	cfg := ctxcompact.DefaultConfig()
	if c.configPath != "" {
		loaded, err := compaction.LoadConfig(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	opts := []ctxcompact.Option{ctxcompact.WithZapLogger(c.logger)}
	if c.model != "" {
		opts = append(opts, ctxcompact.WithModel(c.model))
	}
	return ctxcompact.New(cfg, opts...)
}

func (c *cli) reduceCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "reduce [file|-]",
		Short: "Reduce a JSON chat history",
		Long: `Reads a chat history (a JSON array of messages, or an object with a
"messages" field) and writes the reduced history to stdout.

Formats:
  - native: the reduced history in the same message format
  - anthropic: the system prompt and Anthropic message parameters`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return c.runReduce(cmd, path, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "native", "output format: native or anthropic")
	return cmd
}

func (c *cli) runReduce(cmd *cobra.Command, path, format string) error {
	if format != "native" && format != "anthropic" {
		return fmt.Errorf("unknown format %q", format)
	}

	in, closeIn, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer closeIn()

	history, err := convert.DecodeHistory(in)
	if err != nil {
		return err
	}

	guard, err := c.guard()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()
	if format == "anthropic" {
		messages, system, err := guard.PrepareAnthropic(ctx, history)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"system":   system,
			"messages": messages,
		})
	}

	result, err := guard.ReduceDetailed(ctx, history)
	if err != nil {
		return err
	}
	c.logger.Debug("history reduced",
		zap.String("outcome", string(result.Outcome)),
		zap.Int("input_messages", len(history)),
		zap.Int("output_messages", len(result.Messages)),
	)
	return convert.EncodeHistory(out, result.Messages)
}

func (c *cli) classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [error text]",
		Short: "Report whether an error text is a context-window overflow",
		Long: `Tests the error text against the configured overflow patterns. Without
arguments the text is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}

			cfg := compaction.DefaultConfig()
			if c.configPath != "" {
				loaded, err := compaction.LoadConfig(c.configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			classifier, err := cfg.Classifier()
			if err != nil {
				return err
			}

			if classifier.MatchText(text) {
				fmt.Fprintln(cmd.OutOrStdout(), "overflow")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "not overflow")
			}
			return nil
		},
	}
}

func (c *cli) toolSchemaCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tool-schema",
		Short: "Print the compaction tool definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			guard, err := ctxcompact.New(ctxcompact.DefaultConfig(), ctxcompact.WithZapLogger(c.logger))
			if err != nil {
				return err
			}

			var v any
			switch format {
			case "anthropic":
				v = guard.Tools().ToAnthropicTools()
			case "openai":
				v = guard.Tools().ToOpenAITools()
			case "json":
				v = compaction.ToolSchema().AsMap()
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "schema format: json, anthropic or openai")
	return cmd
}

// openInput opens path, where "-" means stdin
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	return f, func() { f.Close() }, nil
}
