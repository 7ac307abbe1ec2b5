package appcontext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/RoyceAzure/lab/storefront/internal/infra/consumer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/media"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const imageFolder = "storefront/products"

type ApplicationContext struct {
	Cf          *config.Config
	InstanceID  string
	DbConn      *gorm.DB
	DbDao       *db.DbDao
	RedisClient *redis.Client
	Hub         *feed.Hub
	Publisher   *feed.MultiPublisher
	Producer    *producer.ChangeProducer
	Consumer    *consumer.ChangeConsumer
	Images      media.ImageStore
	RateLimiter *ratelimit.RedisTokenBucket

	CatalogService *service.CatalogService
	CartService    *service.CartService
	SettingsStore  *service.SettingsStore
	OrderService   *service.OrderService
	OrderBoard     *service.OrderBoard
	AuthService    *service.AuthService
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	if cf == nil {
		return nil, errors.New("config is nil")
	}
	host, _ := os.Hostname()
	app := ApplicationContext{
		Cf:         cf,
		InstanceID: fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
	}
	if err := app.Init(); err != nil {
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	steps := []func() error{
		app.setUpDbConn,
		app.setUpDbDao,
		app.setUpRedis,
		app.setUpFeed,
		app.setUpImageStore,
		app.setUpRateLimiter,
		app.setUpAuthService,
		app.setUpCatalogService,
		app.setUpCartService,
		app.setUpSettingsStore,
		app.setUpOrderService,
		app.setUpOrderBoard,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (app *ApplicationContext) setUpDbConn() error {
	log.Info().Msg("Start setup database connection")
	conn, err := db.GetDbConn(db.ConnOptions{
		Name:            app.Cf.DbName,
		Host:            app.Cf.DbHost,
		Port:            app.Cf.DbPort,
		User:            app.Cf.DbUser,
		Password:        app.Cf.DbPas,
		SSLMode:         app.Cf.DbSSLMode,
		MaxOpenConns:    app.Cf.DbMaxOpenConns,
		MaxIdleConns:    app.Cf.DbMaxIdleConns,
		ConnMaxLifetime: app.Cf.DbConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	app.DbConn = conn
	log.Info().Msg("Finish setup database connection")
	return nil
}

func (app *ApplicationContext) setUpDbDao() error {
	log.Info().Msg("Start setup database DAO")
	app.DbDao = db.NewDbDao(app.DbConn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.DbDao.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := app.DbDao.InitMigrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info().Msg("Finish setup database DAO")
	return nil
}

func (app *ApplicationContext) setUpRedis() error {
	log.Info().Msg("Start setup redis client")
	client := redis.NewClient(&redis.Options{
		Addr:     app.Cf.RedisAddr,
		Password: app.Cf.RedisPassword,
		DB:       app.Cf.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	app.RedisClient = client
	log.Info().Msg("Finish setup redis client")
	return nil
}

// setUpFeed 有設定 kafka 時，訊號同時送到 kafka 讓其他 instance 收到
func (app *ApplicationContext) setUpFeed() error {
	log.Info().Msg("Start setup change feed")
	app.Hub = feed.NewHub()
	publishers := []feed.Publisher{app.Hub}

	brokers := app.Cf.Brokers()
	if len(brokers) > 0 {
		app.Producer = producer.NewChangeProducer(producer.NewKafkaWriter(brokers, app.Cf.KafkaChangeTopic))
		publishers = append(publishers, app.Producer)

		// 每個 instance 各自一個 group，所有 instance 都要收到
		groupID := app.Cf.KafkaGroupID + "-" + app.InstanceID
		reader := consumer.NewKafkaReader(brokers, app.Cf.KafkaChangeTopic, groupID)
		app.Consumer = consumer.NewChangeConsumer(reader, app.Hub, app.InstanceID)
		log.Info().Strs("brokers", brokers).Str("topic", app.Cf.KafkaChangeTopic).Msg("kafka change relay enabled")
	} else {
		log.Warn().Msg("KAFKA_BROKERS is empty, change feed is local only")
	}

	app.Publisher = feed.NewMultiPublisher(app.InstanceID, publishers...)
	log.Info().Msg("Finish setup change feed")
	return nil
}

func (app *ApplicationContext) setUpImageStore() error {
	log.Info().Msg("Start setup image store")
	if app.Cf.CloudinaryURL == "" {
		log.Warn().Msg("CLOUDINARY_URL is empty, image upload disabled")
		app.Images = media.NoopStore{}
		return nil
	}
	store, err := media.NewCloudinaryStore(app.Cf.CloudinaryURL, imageFolder)
	if err != nil {
		return fmt.Errorf("setup cloudinary: %w", err)
	}
	app.Images = store
	log.Info().Msg("Finish setup image store")
	return nil
}

func (app *ApplicationContext) setUpRateLimiter() error {
	cfg := ratelimit.GetDefaultLimiterConfig()
	if app.Cf.RateLimitCapacity > 0 {
		cfg.Capacity = app.Cf.RateLimitCapacity
	}
	if app.Cf.RateLimitRate > 0 {
		cfg.Rate = app.Cf.RateLimitRate
	}
	app.RateLimiter = ratelimit.NewRedisTokenBucket(app.RedisClient, &cfg)
	return nil
}

func (app *ApplicationContext) setUpAuthService() error {
	log.Info().Msg("Start setup auth service")
	auth, err := service.NewAuthService(app.Cf.AuthTokenKey, app.Cf.AuthTokenDuration, app.Cf.AdminEmail, app.Cf.AdminPasswordHash)
	if err != nil {
		return fmt.Errorf("setup auth service: %w", err)
	}
	if app.Cf.AdminEmail == "" || app.Cf.AdminPasswordHash == "" {
		log.Warn().Msg("admin credential is not configured, admin api is unreachable")
	}
	app.AuthService = auth
	log.Info().Msg("Finish setup auth service")
	return nil
}

func (app *ApplicationContext) setUpCatalogService() error {
	log.Info().Msg("Start setup catalog service")
	app.CatalogService = service.NewCatalogService(db.NewProductRepo(app.DbDao), app.Images, app.Publisher, app.Hub, app.Cf.FeaturedLimit)
	if err := app.CatalogService.Refresh(context.Background()); err != nil {
		return err
	}
	log.Info().Int("products", len(app.CatalogService.All())).Msg("Finish setup catalog service")
	return nil
}

func (app *ApplicationContext) setUpCartService() error {
	cartRepo := redis_repo.NewCartRepo(app.RedisClient, app.Cf.CartTTL)
	app.CartService = service.NewCartService(cartRepo, app.CatalogService)
	return nil
}

func (app *ApplicationContext) setUpSettingsStore() error {
	log.Info().Msg("Start setup settings store")
	var seed map[string]string
	if app.Cf.SettingsSeedPath != "" {
		s, err := config.LoadSettingsSeed(app.Cf.SettingsSeedPath)
		if err != nil {
			log.Warn().Err(err).Str("path", app.Cf.SettingsSeedPath).Msg("load settings seed failed, continue without seed")
		} else {
			seed = s
		}
	}
	app.SettingsStore = service.NewSettingsStore(db.NewSettingsRepo(app.DbDao), app.Publisher, app.Hub)
	if err := app.SettingsStore.Load(context.Background(), seed); err != nil {
		return err
	}
	log.Info().Msg("Finish setup settings store")
	return nil
}

func (app *ApplicationContext) setUpOrderService() error {
	app.OrderService = service.NewOrderService(db.NewOrderRepo(app.DbDao), app.CartService, app.SettingsStore, app.Publisher)
	return nil
}

func (app *ApplicationContext) setUpOrderBoard() error {
	app.OrderBoard = service.NewOrderBoard(db.NewOrderRepo(app.DbDao), app.Hub)
	return nil
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	log.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		var errs []error

		if app.OrderBoard != nil {
			if err := app.OrderBoard.Stop(5 * time.Second); err != nil {
				errs = append(errs, err)
			}
		}
		if app.Consumer != nil {
			if err := app.Consumer.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop consumer: %w", err))
			}
		}
		if app.Producer != nil {
			if err := app.Producer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close producer: %w", err))
			}
		}
		if app.Hub != nil {
			app.Hub.Close()
		}
		if app.RedisClient != nil {
			if err := app.RedisClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close redis: %w", err))
			}
		}
		if app.DbDao != nil {
			log.Info().Msg("Closing database connection...")
			if err := app.DbDao.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}

		log.Info().Msg("Application shutdown complete")
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
