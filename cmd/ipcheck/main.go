// Binary ipcheck confirms proxy rotation is working. It fetches the caller's
// public IP through the configured proxy from several echo services, majority-
// votes the answers, and compares against the previously recorded IP.
//
// Exit codes: 0 = IP changed, 1 = IP unchanged, 2 = no IP obtained.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/malyshevid/volume-bot/internal/config"
	"github.com/malyshevid/volume-bot/internal/ipcheck"
	"github.com/malyshevid/volume-bot/internal/util"
)

func main() {
	_ = godotenv.Load() // best-effort

	configPath := flag.String("config", "", "optional YAML config for ipcheck defaults")
	stateFile := flag.String("state", "", "file holding the last consensus IP")
	timeout := flag.Duration("timeout", 0, "per-service request timeout")
	logLevel := flag.String("log-level", "info", "zerolog level")
	flag.Parse()

	log := util.NewLogger(*logLevel)

	var ipCfg config.IPCheck
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error().Err(err).Msg("config")
			os.Exit(int(ipcheck.StatusNoIP))
		}
		config.ApplyDefaults(cfg)
		ipCfg = cfg.IPCheck
	} else {
		var cfg config.Config
		config.ApplyDefaults(&cfg)
		ipCfg = cfg.IPCheck
	}
	if *stateFile != "" {
		ipCfg.StateFile = *stateFile
	}
	reqTimeout := time.Duration(ipCfg.TimeoutSecs) * time.Second
	if *timeout > 0 {
		reqTimeout = *timeout
	}

	proxyURL := os.Getenv("PROXY_URL")
	if proxyURL == "" {
		proxyURL = ipCfg.ProxyURL
	}
	if flag.NArg() > 0 {
		proxyURL = flag.Arg(0)
	}

	client, err := ipcheck.NewHTTPClient(proxyURL, reqTimeout)
	if err != nil {
		log.Error().Err(err).Msg("proxy setup failed")
		os.Exit(int(ipcheck.StatusNoIP))
	}

	checker := &ipcheck.Checker{
		Client:    client,
		Services:  ipCfg.EchoServices,
		StateFile: ipCfg.StateFile,
		Timeout:   reqTimeout,
		Log:       log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 6*reqTimeout)
	defer cancel()

	status, ip, err := checker.Run(ctx)
	switch status {
	case ipcheck.StatusChanged:
		fmt.Printf("ip changed: %s\n", ip)
	case ipcheck.StatusUnchanged:
		fmt.Printf("ip unchanged: %s\n", ip)
	case ipcheck.StatusNoIP:
		log.Error().Err(err).Msg("no ip obtained")
	}
	os.Exit(int(status))
}
