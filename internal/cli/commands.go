package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/datazone-handlers/internal/checkpoint"
	"github.com/AltairaLabs/datazone-handlers/internal/datazone"
	"github.com/AltairaLabs/datazone-handlers/internal/engine"
	"github.com/AltairaLabs/datazone-handlers/internal/host"
	"github.com/AltairaLabs/datazone-handlers/internal/version"
)

func (a *app) typesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the supported resource types",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, name := range datazone.TypeNames() {
				fmt.Fprintln(a.out, name)
			}
			return nil
		},
	}
}

func (a *app) invokeCommand() *cobra.Command {
	var pausedState string
	cmd := &cobra.Command{
		Use:   "invoke [request.json]",
		Short: "Perform exactly one invocation",
		Long: `Read a JSON request from the given file (or stdin when omitted or "-"),
perform one invocation and print the JSON result. An IN_PROGRESS result
carries the paused state to send back in the next request, either inside the
request or through --paused-state.`,
		Example: `  echo '{"typeName":"AWS::DataZone::Project","operation":"read",
        "desiredModel":{"domain_id":"dzd_1","id":"p1"}}' | datazone-handlers invoke
  datazone-handlers invoke create-domain.json \
        --paused-state '{"retryBudget":19,"callbackDelaySeconds":60}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.readRequest(args)
			if err != nil {
				return err
			}
			if pausedState != "" {
				if req.PausedState, err = engine.DecodePausedState(pausedState); err != nil {
					return err
				}
			}
			inv, err := a.build(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			res, err := host.New(inv, nil, host.WithLogger(a.log)).Invoke(cmd.Context(), req)
			if err != nil {
				return err
			}
			if res.Status == engine.StatusInProgress {
				encoded, err := engine.EncodePausedState(res.PausedState)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.errOut, "resume after %ds with --paused-state '%s'\n", res.DelaySeconds, encoded)
			}
			return a.printResult(res)
		},
	}
	cmd.Flags().StringVar(&pausedState, "paused-state", "", "paused state JSON from a previous IN_PROGRESS result")
	return cmd
}

func (a *app) runCommand() *cobra.Command {
	var (
		key            string
		maxInvocations int
	)
	cmd := &cobra.Command{
		Use:   "run [request.json]",
		Short: "Invoke until the operation reaches a terminal result",
		Long: `Read a JSON request and keep invoking, waiting the returned callback
delay between invocations, until the result is SUCCESS or FAILED. Each
paused request is checkpointed; running the same request again after an
interruption resumes from the checkpoint instead of repeating the mutation.`,
		Example: `  datazone-handlers run --checkpoint sqlite:///var/lib/dz/checkpoints.db create-domain.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req, err := a.readRequest(args)
			if err != nil {
				return err
			}
			inv, err := a.build(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			store, err := checkpoint.Open(ctx, a.cfg.Checkpoint)
			if err != nil {
				return err
			}
			defer store.Close()

			if key == "" {
				key = host.CheckpointKey(req)
			}
			opts := []host.Option{host.WithLogger(a.log), host.WithMaxInvocations(maxInvocations)}
			if a.sleep != nil {
				opts = append(opts, host.WithSleep(a.sleep))
			}
			res, err := host.New(inv, store, opts...).Run(ctx, key, req)
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "checkpoint key (derived from the request when empty)")
	cmd.Flags().IntVar(&maxInvocations, "max-invocations", 0, "stop after this many invocations (0 = unbounded)")
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	var (
		model string
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "list TYPE",
		Short: "List resources of a type",
		Long: `List resources of TYPE. Parent identifiers are passed as a JSON model,
e.g. {"domain_id":"dzd_1"} for projects. With --all every page is fetched.`,
		Example: `  datazone-handlers list AWS::DataZone::Project --model '{"domain_id":"dzd_1"}' --all`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req := engine.RawRequest{TypeName: args[0], Operation: engine.OpList}
			if model != "" {
				if !json.Valid([]byte(model)) {
					return fmt.Errorf("--model is not valid JSON")
				}
				req.DesiredModel = json.RawMessage(model)
			}
			inv, err := a.build(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}

			models := []json.RawMessage{}
			for {
				res, err := inv.Invoke(ctx, req)
				if err != nil {
					return err
				}
				if res.Status == engine.StatusFailed {
					return a.printResult(res)
				}
				models = append(models, res.Models...)
				if !all || res.NextToken == "" {
					if res.NextToken != "" {
						a.log.Info("more results available", "next_token", res.NextToken)
					}
					break
				}
				req.NextToken = res.NextToken
			}
			return a.printJSON(models)
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "JSON model carrying parent identifiers")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprintf(a.out, "%s %s\n", serviceName, version.String())
			return nil
		},
	}
}

func (a *app) readRequest(args []string) (engine.RawRequest, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(a.in)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return engine.RawRequest{}, fmt.Errorf("read request: %w", err)
	}
	var req engine.RawRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return engine.RawRequest{}, fmt.Errorf("decode request: %w", err)
	}
	if req.TypeName == "" {
		return engine.RawRequest{}, fmt.Errorf("decode request: typeName is required")
	}
	return req, nil
}

// printResult writes res and turns a FAILED status into ErrOperationFailed.
func (a *app) printResult(res engine.RawResult) error {
	if err := a.printJSON(res); err != nil {
		return err
	}
	if res.Status == engine.StatusFailed {
		return fmt.Errorf("%w: %s: %s", ErrOperationFailed, res.ErrorKind, res.Message)
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
