package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/masterchelly/microsites/api"
	"github.com/masterchelly/microsites/auth"
	"github.com/masterchelly/microsites/cache"
	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/database"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/services"
	"github.com/masterchelly/microsites/storage"
	"github.com/masterchelly/microsites/validation"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Info().Msg("Initializing app...")

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded")
	}

	ctx := context.Background()

	env, err := loadEnv(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading parameters")
	}

	cfg, err := config.Load(env)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if config.GetBool(env, "DEBUG", false) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// If generating models, run generation and exit
	if config.GetBool(env, "GENERATE_MODELS", false) {
		if err := models.GenerateModels(db, cfg.Database.Schema); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(env, "GENERATE_COLUMN_REPORT", false) {
		if _, err := models.GenerateColumnMismatchReport(db); err != nil {
			log.Fatal().Err(err).Msg("Error generating column report")
		}
		return
	}

	s3Client, err := storage.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating storage client")
	}
	objects := storage.NewS3Store(s3Client, cfg.Supabase.URL)

	checks := map[string]api.Pinger{"database": databasePinger(db)}

	var publicCache services.Cache = cache.Nop{}
	if cfg.Cache.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, public cache disabled")
		} else {
			publicCache = cache.NewRedisCache(rdb, cfg.Cache.TTL)
			checks["redis"] = api.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			})
			defer rdb.Close()
		}
	}

	repos := database.New(db)
	svc := services.New(services.FromDatabase(repos, services.Deps{
		Config:   cfg,
		Objects:  objects,
		Cache:    publicCache,
		Notifier: services.NewNotifier(cfg.Notify),
	}))

	server := api.NewServer(api.Deps{
		Config:    cfg,
		Projects:  svc.Projects,
		Images:    svc.Images,
		Assets:    svc.Assets,
		Public:    svc.Public,
		Auth:      auth.NewGoTrueClient(cfg.Supabase.URL, cfg.Supabase.AnonKey),
		Verifier:  auth.NewVerifier(cfg.Supabase.JWTSecret),
		Gate:      auth.NewGate(cfg, repos.UserRoleRepo()),
		Validator: validation.NewValidator(),
		Checks:    checks,
	})

	errChannel := make(chan error, 2)

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// loadEnv snapshots the environment and, when CONFIG_SSM_PATH is set, fills
// missing keys from Parameter Store.
func loadEnv(ctx context.Context) (map[string]string, error) {
	env := config.New()
	prefix := config.GetString(env, "CONFIG_SSM_PATH", "")
	if prefix == "" {
		return env, nil
	}

	client, err := config.NewSSMClient(ctx)
	if err != nil {
		return nil, err
	}
	params, err := config.LoadSSM(ctx, client, prefix)
	if err != nil {
		return nil, err
	}
	return config.Overlay(env, params), nil
}

func databasePinger(db *gorm.DB) api.PingFunc {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
