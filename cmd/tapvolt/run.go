package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/n1shantvarma/tapvolt-app/internal/connstate"
	"github.com/n1shantvarma/tapvolt-app/internal/dispatcher"
	"github.com/n1shantvarma/tapvolt-app/internal/engine"
	"github.com/n1shantvarma/tapvolt-app/internal/identity"
	"github.com/n1shantvarma/tapvolt-app/internal/logging"
	"github.com/n1shantvarma/tapvolt-app/internal/presets"
	"github.com/n1shantvarma/tapvolt-app/internal/settings"
	"github.com/n1shantvarma/tapvolt-app/pkg/protocol"
)

const runTimeout = 30 * time.Second

func runCmd() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "run <preset-id>",
		Short: "Connect, authenticate, run one preset action, and disconnect",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runPreset(args[0], address)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "host address (default: last used endpoint)")
	return cmd
}

func runPreset(presetID, address string) {
	cfg := loadConfigOrExit()
	setupLogger(cfg)
	logger := logging.For("cli")

	catalog, err := presets.Load(cfg.PresetsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading preset catalog: %v\n", err)
		os.Exit(1)
	}
	preset, ok := catalog.Get(presetID)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown preset %q\n", presetID)
		os.Exit(1)
	}

	store := settings.NewStore(cfg.SettingsPath)
	if address == "" {
		if v, err := store.Get(); err == nil {
			address = v.LastEndpoint
		}
	}
	if address == "" {
		address = cfg.DefaultEndpoint
	}
	if address == "" {
		fmt.Fprintln(os.Stderr, "Error: no address given and no last-used endpoint on file.")
		os.Exit(1)
	}

	eng := engine.New(identity.NewStore(cfg.IdentityPath), logger)
	defer eng.Close()

	done := make(chan struct{})
	var mu sync.Mutex
	exitCode := 0
	setExit := func(code int) {
		mu.Lock()
		exitCode = code
		mu.Unlock()
	}

	eng.SetObservers(engine.Observers{
		OnStateChange: func(state connstate.State, attempt int) {
			if state == connstate.Error {
				fmt.Fprintln(os.Stderr, "Error: connection entered an unrecoverable error state.")
				setExit(1)
				closeOnce(done)
			}
		},
		// Observers run on the engine's command loop; Authenticate and
		// SendAction wait on that loop, so they are called from their own
		// goroutines.
		OnConnected: func() {
			go func() {
				if ok := eng.Authenticate("tapvolt-cli"); !ok {
					fmt.Fprintln(os.Stderr, "Error: failed to send authentication.")
					setExit(1)
					closeOnce(done)
				}
			}()
		},
		OnAuthSuccess: func() {
			go func() {
				id, ok := eng.SendAction(preset.Steps)
				if !ok {
					fmt.Fprintln(os.Stderr, "Error: preset action was rejected before it could be sent.")
					setExit(1)
					closeOnce(done)
					return
				}
				logger.Info("action dispatched", "id", id, "preset", presetID)
			}()
		},
		OnAuthFailure: func() {
			fmt.Fprintln(os.Stderr, "Error: device was rejected by the host.")
			setExit(1)
			closeOnce(done)
		},
		OnActionResult: func(result dispatcher.Result) {
			printResult(result)
			if result.Status != "success" {
				setExit(1)
			}
			closeOnce(done)
		},
		OnError: func(err protocol.ErrorEnvelope) {
			logger.Error("engine error", "code", err.Code, "message", err.Message)
		},
	})

	eng.Connect(address)

	select {
	case <-done:
	case <-time.After(runTimeout):
		fmt.Fprintln(os.Stderr, "Error: timed out waiting for the preset action to complete.")
		setExit(1)
	}

	eng.Disconnect()
	if v, err := store.Get(); err == nil {
		v.LastEndpoint = address
		v.LastPresetID = presetID
		_ = store.Put(v)
	}
	mu.Lock()
	code := exitCode
	mu.Unlock()
	os.Exit(code)
}

func printResult(result dispatcher.Result) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", result)
		return
	}
	fmt.Println(string(data))
}

// closeOnce is safe against the handful of observer paths above that could
// otherwise both try to unblock run's select.
func closeOnce(done chan struct{}) {
	select {
	case <-done:
	default:
		close(done)
	}
}
