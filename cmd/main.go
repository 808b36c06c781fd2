package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iothub/internal/command"
	"iothub/internal/handlers"
	"iothub/internal/heartbeat"
	"iothub/internal/ingest"
	"iothub/internal/logger"
	"iothub/internal/mqtt"
	"iothub/internal/registry"
	"iothub/internal/repository"
	"iothub/internal/repository/db"
	"iothub/internal/server"
	"iothub/internal/service"
	"iothub/internal/telemetry"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

func main() {
	// load config.yml first so the log level is configurable
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(logLevel())

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// in-memory core state
	reg := registry.New()
	buf := telemetry.NewBuffer(viper.GetInt("telemetry.buffer_size"))

	// durable mirrors
	repos := repository.NewRepository(sqlDB)

	// MQTT transport
	broker, err := connectBroker(log)
	if err != nil {
		log.Fatalw("failed to connect to mqtt broker", "err", err)
	}
	defer broker.Close()

	// outbound commands and inbound ingestion
	publisher := command.NewPublisher(broker, repos.Commands, log)
	dispatcher := ingest.NewDispatcher(reg, buf, repos.Devices, repos.Sensors, log)
	defer func() {
		dispatcher.Wait()
		publisher.Wait()
	}()

	if err := subscribeAll(broker, dispatcher); err != nil {
		log.Fatalw("failed to subscribe", "err", err)
	}

	// wire services and HTTP layer
	services := service.NewService(reg, buf, publisher, repos)
	apiHandler := handlers.NewHandler(services, log, broker.IsConnected)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start liveness sweeps
	monitor := heartbeat.NewMonitor(reg, heartbeatInterval(), heartbeatTimeout(), log)
	go monitor.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func logLevel() string {
	if lvl := viper.GetString("log.level"); lvl != "" {
		return lvl
	}
	return logger.InfoLevel
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "iothub.db")
		dbPath = "iothub.db"
	}
	return db.InitDB(dbPath)
}

// connectBroker dials the MQTT broker from configuration.
func connectBroker(log *logger.Logger) (*mqtt.Client, error) {
	brokerURL := viper.GetString("mqtt.broker")
	if brokerURL == "" {
		brokerURL = "tcp://localhost:1883"
		log.Infow("mqtt.broker not set in config; using default", "default", brokerURL)
	}
	clientID := viper.GetString("mqtt.client_id")
	if clientID == "" {
		clientID = "iothub-" + uuid.NewString()[:8]
	}
	return mqtt.Connect(mqtt.Config{
		BrokerURL: brokerURL,
		ClientID:  clientID,
		Username:  viper.GetString("mqtt.username"),
		Password:  viper.GetString("mqtt.password"),
	}, log)
}

// subscribeAll registers the dispatcher on every inbound topic.
func subscribeAll(broker *mqtt.Client, dispatcher *ingest.Dispatcher) error {
	for _, topic := range []string{mqtt.TopicRegister, mqtt.TopicSensors, mqtt.TopicStatus} {
		if err := broker.Subscribe(topic, dispatcher.OnMessage); err != nil {
			return err
		}
	}
	return nil
}

func heartbeatInterval() time.Duration {
	if d := viper.GetDuration("heartbeat.interval"); d > 0 {
		return d
	}
	return heartbeat.DefaultInterval
}

func heartbeatTimeout() time.Duration {
	if d := viper.GetDuration("heartbeat.timeout"); d > 0 {
		return d
	}
	return heartbeat.DefaultTimeout
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
