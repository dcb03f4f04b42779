package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jxsl13/q3api/client"
	"github.com/jxsl13/q3api/network"
	"github.com/jxsl13/q3api/protocol"
	"github.com/jxsl13/q3api/status"
)

var (
	serverAddr string
	playerName string
	version    int
	timeout    time.Duration
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "q3bot",
		Short: "headless Quake 3 game client",
		RunE:  runConnect,
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s", "", "server address (host:port or ws://...)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.Flags().StringVarP(&playerName, "name", "n", "q3bot", "player name")
	root.Flags().IntVarP(&version, "protocol", "p", protocol.DefaultVersion, "wire protocol version")
	root.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "server traffic timeout")
	_ = root.MarkPersistentFlagRequired("server")

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "query server status without connecting",
		RunE:  runStatus,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

func runConnect(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	options := []client.Option{
		client.WithLogger(log),
		client.WithName(playerName),
		client.WithProtocolVersion(version),
		client.WithTimeout(timeout),
	}

	if strings.HasPrefix(serverAddr, "ws://") || strings.HasPrefix(serverAddr, "wss://") {
		transport, err := network.DialWebSocket(ctx, serverAddr)
		if err != nil {
			return err
		}
		options = append(options, client.WithTransport(transport))
	}

	c := client.New(serverAddr, options...)
	c.OnChat = func(sender, message string) {
		log.Info("chat", zap.String("from", sender), zap.String("message", message))
	}
	c.OnStateChange = func(from, to protocol.ConnState) {
		log.Info("connection state", zap.Stringer("state", to))
	}

	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Disconnect()

	return c.Run(ctx)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := status.GetStatus(ctx, serverAddr)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", info.HostName())
	fmt.Printf("map: %s  protocol: %d  players: %d/%d\n",
		info.Map(), info.Protocol(), len(info.Players), info.MaxClients())
	for _, p := range info.Players {
		fmt.Printf("  %4d %4dms  %s\n", p.Score, p.Ping, p.Name)
	}
	return nil
}
