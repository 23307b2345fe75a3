package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"changeflare/changeflare"
	"changeflare/config"
	"changeflare/ddns"
	"changeflare/log"
	"changeflare/resolver"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	configPath = flag.StringP("config", "c", "", "path to config file (everything can also come from the environment)")
	debug      = flag.Bool("debug", false, "enable debug output")
	help       = flag.BoolP("help", "h", false, "Print help message")
)

var buildDate string

var conf config.Config

func init() {
	flag.Parse()
	if *help {
		fmt.Println(flag.CommandLine.FlagUsages())
		os.Exit(0)
	}
}

func getInitLogger() context.Context {
	var err error
	var logger *zap.Logger

	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}

	if err != nil {
		fmt.Printf("Failed creating logger: %v\n", err)
		os.Exit(1)
	}

	return log.WithLogger(context.Background(), logger)
}

func getLogger(ctx context.Context) context.Context {
	var logOption zap.Config
	if *debug {
		logOption = zap.NewDevelopmentConfig()
	} else {
		logOption = zap.NewProductionConfig()
	}

	if conf.Log.Level != nil {
		logOption.Level.SetLevel(*conf.Log.Level)
	}

	if conf.Log.Encoding != nil {
		logOption.Encoding = *conf.Log.Encoding
	}

	if conf.Log.InfoPath != nil {
		logOption.OutputPaths = *conf.Log.InfoPath
	}

	if conf.Log.ErrorPath != nil {
		logOption.ErrorOutputPaths = *conf.Log.ErrorPath
	}

	logOption.InitialFields = map[string]interface{}{
		"node": conf.Service.Name,
	}

	logger, err := logOption.Build()
	if err != nil {
		log.S(ctx).Fatalw("cannot build real logger", zap.Error(err))
	}

	return log.WithLogger(context.Background(), logger)
}

func loadConfig(ctx context.Context) {
	if *configPath == "" {
		return
	}

	f, err := os.Open(*configPath)
	if err != nil {
		log.S(ctx).Fatalw("failed loading config", zap.Error(err))
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(*configPath, ".toml"):
		err = toml.NewDecoder(f).Decode(&conf)
	case strings.HasSuffix(*configPath, ".yaml") || strings.HasSuffix(*configPath, ".yml"):
		err = yaml.NewDecoder(f).Decode(&conf)
	case strings.HasSuffix(*configPath, ".json"):
		err = json.NewDecoder(f).Decode(&conf)
	default:
		err = fmt.Errorf("unrecognized config file extension")
	}

	if err != nil {
		log.S(ctx).Fatalw("failed loading config", zap.Error(err))
	}
}

func main() {
	ctx := getInitLogger()

	if buildDate != "" {
		log.S(ctx).Infow("changeflare starting", "variant", "release", "build_date", buildDate)
	} else {
		log.S(ctx).Infow("changeflare starting", "variant", "debug")
	}

	loadConfig(ctx)
	ctx = getLogger(ctx)

	config.LoadEnv(ctx)
	conf.Provider = conf.Provider.Resolve(ctx)

	chain, err := resolver.New(ctx, conf.Sources)
	if err != nil {
		log.S(ctx).Fatalw("cannot init resolver", zap.Error(err))
	}

	create, ok := ddns.Providers[conf.Provider.Type]
	if !ok {
		log.S(ctx).Fatalw("unknown provider type", "provider", conf.Provider.Type)
	}

	provider, err := create(ctx, conf.Provider)
	if err != nil {
		log.S(ctx).Fatalw("cannot init provider", "provider", conf.Provider.Type, zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	updater := changeflare.NewUpdater(chain, provider)

	// One long-lived worker, joined before exit.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		updater.Run(ctx)
	}()

	wg.Wait()
	log.S(ctx).Infow("changeflare stopped")
}
