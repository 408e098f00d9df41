package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"svcview/internal/cluster"
	"svcview/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		listen string
		open   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API and UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}
			if cmd.Flags().Changed("open") {
				cfg.Open = open
			}

			mgr, err := cluster.NewManager(cfg.Kubeconfig)
			if err != nil {
				return fmt.Errorf("init cluster manager: %w", err)
			}

			token := cfg.Token
			if token == "" {
				token = randomToken(24)
			}
			srv := server.New(mgr, token, cfg.RequestTimeout.Duration)

			url := fmt.Sprintf("http://%s/?token=%s", cfg.Listen, token)
			logrus.Infof("svcview listening on http://%s", cfg.Listen)
			logrus.Infof("open: %s", url)

			if cfg.Open {
				if err := openBrowser(url); err != nil {
					logrus.WithError(err).Warn("open browser")
				}
			}

			return http.ListenAndServe(cfg.Listen, srv.Router())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:10443", "listen address")
	cmd.Flags().BoolVar(&open, "open", true, "open browser")
	return cmd
}

func randomToken(nbytes int) string {
	b := make([]byte, nbytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return nil
	}
	return cmd.Start()
}
