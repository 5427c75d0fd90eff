package commands

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sealchat/internal/app"
)

var (
	home       string
	password   string
	configPath string

	serverURL   string
	realtimeURL string
	token       string
	userID      int64
	deviceID    string

	verbose bool

	appCtx *app.Wire
	cfg    app.Config
	logger zerolog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:   "sealchat",
		Short: "End-to-end encrypted chat CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".sealchat")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			if configPath == "" {
				configPath = filepath.Join(home, "config.yaml")
			}
			var err error
			cfg, err = app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg.Home = home
			if serverURL != "" {
				cfg.ServerURL = serverURL
			}
			if realtimeURL != "" {
				cfg.RealtimeURL = realtimeURL
			}
			if token != "" {
				cfg.Token = token
			}
			if userID != 0 {
				cfg.UserID = userID
			}
			if deviceID != "" {
				cfg.DeviceID = deviceID
			}

			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()

			appCtx = app.NewWire(cfg, logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.sealchat)")
	root.PersistentFlags().StringVarP(&password, "password", "p", "", "password protecting the identity key")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <home>/config.yaml)")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "REST base URL (e.g. https://chat.example.com)")
	root.PersistentFlags().StringVar(&realtimeURL, "realtime", "", "websocket URL (e.g. wss://chat.example.com/ws)")
	root.PersistentFlags().StringVar(&token, "token", "", "API token")
	root.PersistentFlags().Int64Var(&userID, "user", 0, "numeric user id")
	root.PersistentFlags().StringVar(&deviceID, "device", "", "device id for this installation")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		setupCmd(), unlockCmd(), changePasswordCmd(), fingerprintCmd(),
		registerDeviceCmd(), revokeDeviceCmd(),
		sendCmd(), syncCmd(),
		backupCmd(), restoreCmd(),
	)
	return root.Execute()
}
