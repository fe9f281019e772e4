// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vpcfabric/gwcore/pkg/cliproto"
	"github.com/vpcfabric/gwcore/pkg/control"
	"github.com/vpcfabric/gwcore/pkg/logging"
	"github.com/vpcfabric/gwcore/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load a configuration file and run the router control loop",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config", "/etc/gwcore/gwcored.yaml", "path to the router configuration file")
	serveCmd.Flags().String("cli-socket", "/run/gwcore/cli.sock", "path to the CLI Unix datagram socket")
	serveCmd.Flags().String("metrics-addr", "", "address to serve /metrics on, e.g. :9090 (disabled if empty)")
	_ = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.DefaultLogger

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	router, _ := control.NewRouter(log, time.Second)
	defer router.Finish()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	router.StartBackground(ctx)

	if err := router.Configure(ctx, cfg); err != nil {
		return fmt.Errorf("apply initial configuration: %w", err)
	}
	log.Info("initial configuration applied", "genid", cfg.GenID)

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		go serveMetrics(log, addr, reg)
	}

	cliSocket, _ := cmd.Flags().GetString("cli-socket")
	_ = os.Remove(cliSocket)
	srv, err := cliproto.Listen(cliSocket, cliHandler(router))
	if err != nil {
		return fmt.Errorf("listen cli socket: %w", err)
	}
	defer srv.Close()
	go func() {
		if err := srv.Serve(); err != nil {
			log.Warn("cli socket serve stopped", "error", err)
		}
	}()

	// A production deployment wires a real CPI socket reader here,
	// decoding control.CpiRouteEvent/control.CpiRmacEvent and delivering
	// them on this channel; nothing currently produces events on it.
	cpi := make(chan any)
	controlCh := make(chan control.ControlMessage)
	loop := control.NewLoop(router, controlCh, cpi, control.DefaultTickPeriod, nil)

	log.Info("control loop starting")
	err = loop.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("control loop: %w", err)
	}
	log.Info("control loop stopped")
	return nil
}

func serveMetrics(log interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics endpoint stopped", "error", err)
	}
}

func cliHandler(router *control.Router) cliproto.Handler {
	return func(req cliproto.CliRequest) cliproto.CliResponse {
		switch req.Action {
		case cliproto.ActionShowRouterVrfs, cliproto.ActionShowVpc:
			state := router.ShowState()
			return cliproto.ResponseOK(req, fmt.Sprintf("vrfs=%d interfaces=%d fib_vrfs=%d nat_vnis=%d",
				state.Vrfs, state.Interfaces, state.FibVrfs, state.NatVnis))
		default:
			return cliproto.ResponseErr(req, cliproto.CliError{
				Kind:   cliproto.ErrNotSupported,
				Detail: req.Action.String(),
			})
		}
	}
}
