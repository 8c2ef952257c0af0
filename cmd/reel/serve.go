package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"novelreel/internal/db"
	"novelreel/internal/devserver"
	"novelreel/internal/engine"
	"novelreel/internal/migrate"
	"novelreel/internal/repo"
)

func serveCmd() *cobra.Command {
	var addr, uiDir string
	var noUI bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local stub backend",
		Long: `serve runs a development backend speaking the same envelope protocol as the
production one. Generation is simulated: text is templated, images are
placeholder PNGs and narration is a WAV tone. Set server.jwt_secret (or
NOVELREEL_JWT_SECRET) to require bearer tokens; 'reel login' obtains one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := loadConfig(workspace)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			ctx := cmd.Context()
			if err := migrate.Migrate(ctx, conn); err != nil {
				return err
			}
			now := time.Now().UTC().Format(time.RFC3339)
			abandoned, err := repo.Repo{DB: conn}.AbandonRunningTasks(ctx, now)
			if err != nil {
				return err
			}
			if abandoned > 0 {
				logger.Warn("marked interrupted tasks as failed", "count", abandoned)
			}

			e := engine.New(conn, cfg)
			e.Logger = logger
			// stored admin overrides apply from this start on
			eff, err := e.EffectiveConfig(ctx)
			if err != nil {
				return err
			}
			e.Config = eff
			defer e.Jobs.Shutdown()

			if addr == "" {
				addr = e.Config.Server.Addr
			}
			secret := e.Config.Server.JWTSecret
			if env := os.Getenv("NOVELREEL_JWT_SECRET"); env != "" {
				secret = env
			}
			var ui http.Handler
			if !noUI {
				if uiDir == "" {
					uiDir = e.Config.Server.UIDir
				}
				ui = devserver.Shell(uiDir)
			}
			handler, err := devserver.New(devserver.Config{
				Engine: e,
				Auth:   devserver.AuthConfig{JWTSecret: secret},
				Logger: logger,
				UI:     ui,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			auth := "off"
			if secret != "" {
				auth = "bearer"
			}
			fmt.Printf("Serving novelreel stub backend on http://%s (OpenAPI at /openapi.json, auth %s)\n", addr, auth)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	cmd.Flags().StringVar(&uiDir, "ui-dir", "", "front-end build served under /ui (default: server.ui_dir)")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "do not serve /ui")
	return cmd
}
