package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/pool"
	"github.com/veilpool/veilpool/service"
	"github.com/veilpool/veilpool/storage"
)

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot resolve home directory: %v\n", err)
		os.Exit(1)
	}
	dataDir := flag.String("dataDir", filepath.Join(home, ".veilpool"), "data directory")
	dbType := flag.StringP("dbType", "t", db.TypePebble, "key-value db type [pebble,goleveldb,mongo]")
	host := flag.String("host", "0.0.0.0", "API host to bind")
	port := flag.IntP("port", "p", 9090, "API port to listen on")
	logLevel := flag.StringP("logLevel", "l", "info", "log level [debug,info,warn,error]")
	curveBackend := flag.String("curveBackend", string(bn254.BackendNative),
		"curve arithmetic backend [native,generic]")
	flag.Parse()

	log.Init(*logLevel, "stdout", nil)
	log.Infow("starting veilpool node", "dataDir", *dataDir, "db", *dbType,
		"backend", *curveBackend)

	database, err := metadb.New(*dbType, filepath.Join(*dataDir, "db"))
	if err != nil {
		log.Fatalf("cannot open database: %v", err)
	}
	stg := storage.New(database)

	engine, err := pool.NewEngine(stg, bn254.BackendType(*curveBackend))
	if err != nil {
		log.Fatalf("cannot create engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiService := service.NewAPI(engine, stg, *host, *port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatalf("cannot start API service: %v", err)
	}
	log.Infow("API service started", "host", *host, "port", *port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("shutting down", "signal", sig.String())
	apiService.Stop()
}
