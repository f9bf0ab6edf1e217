package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/logtrace"
	"github.com/veristream/veristream-internal/internal/marketsrv/config"
	"github.com/veristream/veristream-internal/internal/marketsrv/db"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/migrations"
	"github.com/veristream/veristream-internal/internal/marketsrv/server"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const defaultConfigFile = "/etc/veristream/veristreamsrv.conf"

func init() {
	logtrace.InitLogger()
}

type cmdoptions struct {
	configFile *string
}

func main() {
	slog := log.With().Str("state", "init").Logger()
	opt := parseFlags()

	slog.Info().Str("config_file", *opt.configFile).Msg("loading config file")
	if err := config.LoadConfig(*opt.configFile); err != nil {
		slog.Error().Str("config_file", *opt.configFile).Err(err).Msg("unable to load config file")
		os.Exit(1)
	}
	if config.Config().Server.Port == "" {
		slog.Error().Msg("server port not defined")
		os.Exit(1)
	}
	logtrace.SetDebug(config.Config().Server.Debug)

	ctx := context.Background()
	if err := db.Init(ctx, config.Config().DB.DSN()); err != nil {
		slog.Error().Err(err).Msg("unable to initialize db pool")
		os.Exit(1)
	}
	if config.Config().DB.Migrate {
		if err := migrateUp(); err != nil {
			slog.Error().Err(err).Msg("unable to run migrations")
			os.Exit(1)
		}
	}

	s, err := server.CreateNewServer()
	if err != nil {
		slog.Error().Err(err).Msg("unable to create server")
		os.Exit(1)
	}
	s.MountHandlers()
	s.StartReconciler(ctx)
	defer s.StopReconciler()

	slog.Info().Str("port", config.Config().Server.Port).Msg("server listening")
	if err := http.ListenAndServe(":"+config.Config().Server.Port, s.Router); err != nil {
		slog.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// migrateUp uses a dedicated connection so the migration lock never pins a
// pooled one.
func migrateUp() error {
	conn, err := sql.Open("pgx", config.Config().DB.DSN())
	if err != nil {
		return err
	}
	defer conn.Close()
	return migrations.MigrateUp(conn)
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	opt.configFile = flag.String("config", defaultConfigFile, "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
