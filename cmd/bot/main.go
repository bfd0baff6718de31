package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/eduardlon/torresbarber/pkg/domain/bot/receiver"
	"github.com/eduardlon/torresbarber/pkg/domain/bot/receiver/config"
	"github.com/eduardlon/torresbarber/pkg/domain/bot/sender"
	"github.com/eduardlon/torresbarber/pkg/domain/connectivity"
	"github.com/eduardlon/torresbarber/pkg/domain/notify"
	"github.com/eduardlon/torresbarber/pkg/domain/persist"
	"github.com/eduardlon/torresbarber/pkg/domain/queue"
	"github.com/eduardlon/torresbarber/pkg/domain/refresh"
	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/httpapi"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/repository/storage"
	"github.com/eduardlon/torresbarber/pkg/utils/errs"
)

func main() {

	// 1) Логгер
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	// 2) Загружаем конфиг
	cfg, err := config.LoadConfig()
	if err != nil {
		errs.Log(logger.Error(), errs.New("failed to load config").Wrap(err)).Msg("config init")
		return
	}
	if cfg.LogLevel != "" {
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			logger = logger.Level(lvl)
		}
	}

	// Контекст, завершающийся по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		errs.Log(logger.Error(), err).Msg("stopped with error")
		return
	}
	logger.Info().Msg("bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// 3) Бэкенд
	var repo *storage.PGRepo
	if cfg.PostgreAddr != "" {
		var err error
		repo, err = storage.NewRepo(ctx, cfg.PostgreAddr)
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.Migrate(ctx); err != nil {
			return errs.New("failed to migrate").Wrap(err)
		}
	} else {
		logger.Warn().Msg("no postgres configured, queue is local only")
	}

	slot, closeSlot, err := openStorage(ctx, cfg, repo)
	if err != nil {
		return err
	}
	defer closeSlot()

	rules := queue.DefaultTransitions()
	if len(cfg.Queue.Transitions) > 0 {
		if rules, err = queue.ParseTransitions(cfg.Queue.Transitions); err != nil {
			return errs.New("invalid queue transitions").Wrap(err)
		}
	}

	// 4) Состояние
	gateway := persist.NewGateway(slot, cfg.Storage.Key, logger)
	seed, ok := gateway.Rehydrate(ctx)
	if !ok {
		seed = store.Persisted{Settings: cfg.Settings}
	}
	st := store.New(
		store.WithLogger(logger),
		store.WithTransitions(rules),
		store.WithCapacity(cfg.Notifications.Capacity),
		store.WithPersisted(seed),
	)
	gateway.Attach(st)

	centerOpts := []notify.Option{notify.WithLogger(logger)}
	if cfg.Notifications.DefaultDuration > 0 {
		centerOpts = append(centerOpts, notify.WithDefaultDuration(cfg.Notifications.DefaultDuration))
	}
	if cfg.Notifications.Tick > 0 {
		centerOpts = append(centerOpts, notify.WithTick(cfg.Notifications.Tick))
	}
	center := notify.NewCenter(st, centerOpts...)
	manager := queue.NewManager(st, rules, nil, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return gateway.Run(gctx) })
	g.Go(func() error { return center.Run(gctx) })

	var (
		backend model.TurnRepo
		syncer  receiver.Syncer
	)
	if repo != nil {
		backend = repo
		refresher := refresh.New(st, repo, center, nil, logger)
		syncer = refresher
		watcher := connectivity.NewWatcher(st, center, logger)
		prober := connectivity.NewProber(watcher, repo.Ping, nil, cfg.Probe.Interval, logger)
		g.Go(func() error { return refresher.Run(gctx) })
		g.Go(func() error { return prober.Run(gctx) })
	}

	// 5) HTTP
	srv := httpapi.NewServer(fmt.Sprintf(":%d", cfg.HTTPPort), httpapi.SetupRoutes(st, center))
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errs.New("http server failed").Wrap(err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// 6) Telegram
	if cfg.BotToken == "" {
		logger.Warn().Msg("TG_TOKEN is empty, operator chat disabled")
		return g.Wait()
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		botErr := errs.New("create bot api").Wrap(err)
		g.Go(func() error { return botErr })
		return g.Wait()
	}
	bot.Debug = false
	logger.Info().Str("bot", bot.Self.UserName).Msg("authorized")

	if cfg.ChatID != 0 {
		proc := sender.New(sender.ProcessorConfig{Token: cfg.BotToken, ChatID: cfg.ChatID}, logger, bot)
		surface := sender.NewSurface(proc, cfg.Notifications.EditsPerSecond, logger)
		center.Subscribe(surface)
		g.Go(func() error { return surface.Run(gctx) })
	}

	handler := receiver.NewHandler(bot, receiver.Deps{
		Store:       st,
		Queue:       manager,
		Center:      center,
		Backend:     backend,
		Syncer:      syncer,
		Operator:    cfg.Operator.User(),
		Catalog:     receiver.Catalog(cfg.Services),
		AllowedChat: cfg.ChatID,
		Logger:      logger,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 10
	updates := bot.GetUpdatesChan(u)

	// Останавливаем лонг-поллинг -> канал updates закроется
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down bot")
		bot.StopReceivingUpdates()
		return nil
	})
	g.Go(func() error { return handler.Run(gctx, updates) })

	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.Config, repo *storage.PGRepo) (persist.Storage, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		rs, err := storage.NewRedisStorage(cfg.Storage.RedisURL, cfg.RedisPassword, cfg.Storage.TTL)
		if err != nil {
			return nil, nil, err
		}
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, errs.New("failed to ping redis").Wrap(err)
		}
		return rs, func() { _ = rs.Close() }, nil
	case config.DriverPostgres:
		if repo == nil {
			return nil, nil, errs.New("postgres storage without a postgres connection")
		}
		return repo, func() {}, nil
	default:
		dir := cfg.Storage.Dir
		if dir == "" {
			dir = "data"
		}
		fs, err := storage.NewFileStorage(dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}
