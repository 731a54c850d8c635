package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowtop/analyzer"
	"github.com/netsampler/flowtop/pkg/flowtop/app"
	"github.com/netsampler/flowtop/pkg/flowtop/config"
)

var (
	version    = ""
	buildinfos = ""
	AppVersion = "flowtop " + version + " " + buildinfos
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <root>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Version {
		fmt.Println(AppVersion)
		os.Exit(0)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	results, err := a.Run(ctx)
	stop()
	if cerr := a.Close(); cerr != nil {
		log.WithError(cerr).Error("error closing transport")
	}
	status := app.ExitStatus(results)
	if err != nil {
		log.WithError(err).Error("run interrupted")
		if status < analyzer.StatusAggregationError {
			status = analyzer.StatusAggregationError
		}
	}

	os.Exit(int(status))
}
