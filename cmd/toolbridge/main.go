// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tombee/toolbridge/internal/bridge"
	"github.com/tombee/toolbridge/internal/bridge/catalog"
	"github.com/tombee/toolbridge/pkg/tools"
)

// Version information (injected via ldflags at build time)
var (
	version = "dev"
	commit  = "unknown"
)

type rootFlags struct {
	backends    []string
	categories  []string
	maxPriority int
	tags        []string
	jsonOutput  bool
	verbose     bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "toolbridge",
		Short: "Bridge tool-providing backend subprocesses into one registry",
		Long: `toolbridge connects configured backend subprocesses, discovers the
tools they provide, and exposes them behind a single uniform surface.

Backends are configured in ~/.config/toolbridge/backends.yaml (override
the path with TOOLBRIDGE_BACKENDS).

Commands:
  run       Run the bridge as a long-lived process with a metrics endpoint
  tools     List the tools the bridge would expose
  call      Invoke a bridged tool by name
  status    Show per-backend connection state
  health    Probe every backend and report reachability`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringSliceVar(&flags.backends, "backends", nil, "only attempt these backend ids")
	cmd.PersistentFlags().StringSliceVar(&flags.categories, "category", nil, "only expose tools in these categories")
	cmd.PersistentFlags().IntVar(&flags.maxPriority, "max-priority", 0, "only expose tools with priority <= n (0 = no limit)")
	cmd.PersistentFlags().StringSliceVar(&flags.tags, "tags", nil, "only expose tools matching these tag terms, ranked by relevance")
	cmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "output as JSON")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newRunCommand(flags))
	cmd.AddCommand(newToolsCommand(flags))
	cmd.AddCommand(newCallCommand(flags))
	cmd.AddCommand(newStatusCommand(flags))
	cmd.AddCommand(newHealthCommand(flags))

	return cmd
}

func (f *rootFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (f *rootFlags) options() bridge.Options {
	opts := bridge.Options{
		MaxPriority: f.maxPriority,
		TagQuery:    f.tags,
		Backends:    f.backends,
	}
	for _, c := range f.categories {
		opts.Categories = append(opts.Categories, catalog.Category(c))
	}
	return opts
}

// startBridge connects backends and registers tools per the root flags. The
// caller is responsible for Shutdown.
func startBridge(ctx context.Context, flags *rootFlags) (*bridge.Bridge, *tools.Registry, error) {
	logger := flags.logger()
	host := tools.NewRegistry()
	registry := bridge.NewRegistry(bridge.RegistryConfig{Logger: logger})
	b := bridge.New(host, registry, logger)

	if err := b.Register(ctx, flags.options()); err != nil {
		return nil, nil, err
	}
	return b, host, nil
}

func newRunCommand(flags *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge as a long-lived process",
		Long: `Run the bridge until interrupted. Connected backends stay up, the
configuration file is watched for changes (added or removed backends
trigger a re-registration), and an HTTP listener serves /metrics
(Prometheus), /status, and /tools.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := flags.logger()
			host := tools.NewRegistry()
			registry := bridge.NewRegistry(bridge.RegistryConfig{Logger: logger})
			b := bridge.New(host, registry, logger)

			opts := flags.options()
			if err := b.Register(ctx, opts); err != nil {
				return err
			}
			defer b.Shutdown(context.Background())

			watcher, err := bridge.NewConfigWatcher(bridge.ConfigWatcherConfig{
				Logger: logger,
				OnChange: func() {
					b.Shutdown(context.Background())
					if err := b.Register(context.Background(), opts); err != nil {
						logger.Error("re-registration after config change failed", "error", err)
					}
				},
			})
			if err != nil {
				logger.Warn("config watching disabled", "error", err)
			} else {
				defer watcher.Close()
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(b.Status())
			})
			mux.HandleFunc("/tools", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(host.GetToolDescriptors())
			})

			srv := &http.Server{Addr: listen, Handler: mux}
			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info("bridge running", "listen", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:9090", "address for the metrics/status HTTP listener")
	return cmd
}

func newToolsCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the bridge would expose",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, host, err := startBridge(ctx, flags)
			if err != nil {
				return err
			}
			defer b.Shutdown(context.Background())

			descriptors := host.GetToolDescriptors()
			sort.Slice(descriptors, func(i, j int) bool {
				return descriptors[i].Name < descriptors[j].Name
			})

			if flags.jsonOutput {
				return printJSON(cmd, descriptors)
			}

			if len(descriptors) == 0 {
				cmd.Println("No tools available.")
				return nil
			}
			for _, d := range descriptors {
				cmd.Printf("%-28s %s\n", d.Name, d.Description)
			}
			return nil
		},
	}
}

func newCallCommand(flags *rootFlags) *cobra.Command {
	var argsJSON string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke a bridged tool by name",
		Long: `Invoke a bridged tool by name with JSON arguments.

Examples:
  toolbridge call read_file --args '{"path": "/etc/hosts"}'
  toolbridge call web_search --args '{"query": "golang slog"}' --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := map[string]interface{}{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &inputs); err != nil {
					return fmt.Errorf("invalid --args: %w", err)
				}
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			b, host, err := startBridge(ctx, flags)
			if err != nil {
				return err
			}
			defer b.Shutdown(context.Background())

			outputs, err := host.Execute(ctx, args[0], inputs)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				return printJSON(cmd, outputs)
			}
			return printCallOutputs(cmd, outputs)
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "", "tool arguments as a JSON object")
	return cmd
}

func newStatusCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-backend connection state",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := startBridge(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer b.Shutdown(context.Background())

			status := b.Status()
			if flags.jsonOutput {
				return printJSON(cmd, status)
			}

			cmd.Printf("Backends: %d healthy, %d tools registered\n\n",
				status.HealthyBackends, status.RegisteredTools)
			for _, s := range status.Backends {
				state := "disconnected"
				if s.Connected {
					state = fmt.Sprintf("connected (pid %d, %d tools)", s.PID, s.ToolCount)
				} else if s.LastError != "" {
					state = "failed: " + s.LastError
				}
				cmd.Printf("  %-16s %s\n", s.ID, state)
			}
			return nil
		},
	}
}

func newHealthCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe every backend and report reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, _, err := startBridge(ctx, flags)
			if err != nil {
				return err
			}
			defer b.Shutdown(context.Background())

			results := b.HealthCheckAll(ctx)
			if flags.jsonOutput {
				return printJSON(cmd, results)
			}

			ids := make([]string, 0, len(results))
			for id := range results {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			unhealthy := 0
			for _, id := range ids {
				state := "ok"
				if !results[id] {
					state = "unhealthy"
					unhealthy++
				}
				cmd.Printf("  %-16s %s\n", id, state)
			}
			if unhealthy > 0 {
				return fmt.Errorf("%d of %d backends unhealthy", unhealthy, len(results))
			}
			return nil
		},
	}
}

func printCallOutputs(cmd *cobra.Command, outputs map[string]interface{}) error {
	if isErr, ok := outputs["isError"].(bool); ok && isErr {
		cmd.PrintErrln("Tool reported an error:")
	}
	content, ok := outputs["content"].([]map[string]interface{})
	if !ok {
		return printJSON(cmd, outputs)
	}
	for _, item := range content {
		if text, ok := item["text"].(string); ok && text != "" {
			cmd.Println(text)
			continue
		}
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		cmd.Println(string(data))
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}
