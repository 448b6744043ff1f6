package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicdesk/config"
	"clinicdesk/database"
	"clinicdesk/database/repository"
	"clinicdesk/handlers"
	"clinicdesk/middleware"
	"clinicdesk/routes"
	"clinicdesk/services/admin"
	"clinicdesk/services/application"
	"clinicdesk/services/doctor"
	"clinicdesk/services/notification"
	"clinicdesk/services/patient"
	"clinicdesk/services/payment"
	"clinicdesk/services/projection"
	"clinicdesk/services/schedule"
	"clinicdesk/services/sequence"
	"clinicdesk/services/storage"
	"clinicdesk/services/task"
	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// mediaStore picks the configured backend. A missing backend only disables
// uploads, it does not stop the server.
func mediaStore(ctx context.Context, logger *zap.Logger) storage.MediaStore {
	cfg := config.AppConfig
	switch cfg.MediaBackend {
	case storage.BackendCloudinary:
		if cfg.CloudinaryCloudName == "" {
			break
		}
		store, err := storage.NewCloudinaryStore(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		})
		if err != nil {
			logger.Error("main: cloudinary unavailable, uploads disabled", zap.Error(err))
			return nil
		}
		return store
	case storage.BackendMinio:
		if cfg.MinioEndpoint == "" {
			break
		}
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			logger.Error("main: minio unavailable, uploads disabled", zap.Error(err))
			return nil
		}
		return store
	case storage.BackendGCS:
		if cfg.GCSBucket == "" {
			break
		}
		store, err := storage.NewGCSStore(ctx, storage.GCSConfig{
			Bucket:          cfg.GCSBucket,
			CredentialsFile: cfg.GCSCredentialsFile,
		})
		if err != nil {
			logger.Error("main: gcs unavailable, uploads disabled", zap.Error(err))
			return nil
		}
		return store
	}
	logger.Warn("main: no media backend configured, uploads disabled", zap.String("backend", cfg.MediaBackend))
	return nil
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync() //nolint:errcheck

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.AppConfig.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET must be set")
	}

	database.InitDB()
	utils.InitRedis()
	repos := repository.NewMongoRepositories()

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Optional integrations. Constructors return typed nils when unconfigured,
	// so each is checked before it lands in an interface field.
	var gateway payment.Gateway
	if g := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     config.AppConfig.StripeKey,
		WebhookSecret: config.AppConfig.StripeWebhookSecret,
		SuccessURL:    config.AppConfig.PaymentSuccessURL,
		CancelURL:     config.AppConfig.PaymentCancelURL,
	}); g != nil {
		gateway = g
	} else {
		logger.Warn("main: STRIPE_KEY not set, payment links disabled")
	}

	var mailer notification.Mailer
	if m := notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     config.AppConfig.SMTPHost,
		Port:     config.AppConfig.SMTPPort,
		Username: config.AppConfig.SMTPUsername,
		Password: config.AppConfig.SMTPPassword,
		From:     config.AppConfig.MailFrom,
	}); m != nil {
		mailer = m
	} else {
		logger.Warn("main: SMTP_HOST not set, email disabled")
	}

	var whatsapp notification.WhatsApp
	if w := notification.NewWappiClient(notification.WappiConfig{
		BaseURL:    config.AppConfig.WappiBaseURL,
		Token:      config.AppConfig.WappiToken,
		ProfileID:  config.AppConfig.WappiProfileID,
		Timeout:    config.AppConfig.WappiTimeout,
		MaxRetries: config.AppConfig.WappiMaxRetries,
	}); w != nil {
		whatsapp = w
	} else {
		logger.Warn("main: WAPPI_TOKEN not set, WhatsApp disabled")
	}

	store := mediaStore(rootCtx, logger)

	// Event fan-out: the in-process bus feeds SSE clients, RabbitMQ mirrors it.
	bus := notification.NewBus(notification.NewZapLogger(logger))
	sinks := []notification.Sink{bus}
	var amqpSink *notification.AMQPSink
	if config.AppConfig.RabbitMQURL != "" {
		sink, err := notification.NewAMQPSink(config.AppConfig.RabbitMQURL, config.AppConfig.EventsExchange)
		if err != nil {
			logger.Error("main: rabbitmq unavailable, events stay in-process", zap.Error(err))
		} else {
			amqpSink = sink
			sinks = append(sinks, sink)
		}
	}
	emitter := notification.NewMultiEmitter(sinks...)

	// Scheduling and numbering.
	loc := config.ClinicLocation()
	defaults := projection.Defaults{
		StartTime: config.AppConfig.DefaultSlotStart,
		EndTime:   config.AppConfig.DefaultSlotEnd,
		Location:  loc,
	}
	allocator := sequence.NewAllocator(repos.Counters,
		sequence.ApplicationDomain(repos.Applications.ExistsByNumber),
		sequence.InvoiceDomain(repos.Payments.ExistsByInvoiceNumber),
	)
	calendar := schedule.NewCalendar(repos.Tasks, repos.Appointments)
	synchronizer := projection.NewSynchronizer(repos.Appointments, repos.Applications, repos.Patients, repos.Doctors, emitter, defaults)
	appointmentService := projection.NewAppointmentService(repos.Appointments, emitter, loc)

	// services.
	applicationService := &application.DefaultApplicationService{
		Repo:      repos.Applications,
		Patients:  repos.Patients,
		Doctors:   repos.Doctors,
		Comments:  repos.Comments,
		Media:     repos.Media,
		Store:     store,
		Allocator: allocator,
		Calendar:  calendar,
		Sync:      synchronizer,
		Emitter:   emitter,
		Defaults:  defaults,
	}
	taskService := &task.DefaultTaskService{
		Repo:     repos.Tasks,
		Doctors:  repos.Doctors,
		Calendar: calendar,
		Emitter:  emitter,
	}
	patientService := &patient.DefaultPatientService{
		Repo:  repos.Patients,
		Media: repos.Media,
		Store: store,
	}
	doctorService := &doctor.DefaultDoctorService{Repo: repos.Doctors}
	paymentService := &payment.DefaultPaymentService{
		Repo:         repos.Payments,
		Applications: repos.Applications,
		Patients:     repos.Patients,
		Allocator:    allocator,
		Gateway:      gateway,
		Mailer:       mailer,
		Once: &utils.RedisOnceStore{
			Client: utils.GetCacheClient(),
			Prefix: utils.WebhookEventPrefix,
			TTL:    utils.WebhookEventTTL,
		},
		Emitter: emitter,
		LinkTTL: config.AppConfig.PaymentLinkExpiry,
	}
	adminService := &admin.DefaultAdminService{
		Repo:       repos.Admins,
		Sessions:   &utils.RedisSessionStore{Client: utils.GetAuthCacheClient()},
		Counters:   repos.Counters,
		Comments:   repos.Comments,
		TokenTTL:   config.AppConfig.JWTExpiry,
		Production: config.IsProduction(),
	}

	// Assemble the handler bundle.
	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatal("main: registering validators", zap.Error(err))
	}
	handlerBundle := &handlers.HandlerBundle{
		AdminService:  adminService,
		Applications:  handlers.NewApplicationHandler(applicationService),
		Appointments:  handlers.NewAppointmentHandler(appointmentService, synchronizer, applicationService),
		Tasks:         handlers.NewTaskHandler(taskService),
		Patients:      handlers.NewPatientHandler(patientService),
		Doctors:       handlers.NewDoctorHandler(doctorService),
		Payments:      handlers.NewPaymentHandler(paymentService),
		Notifications: handlers.NewNotificationHandler(mailer, whatsapp),
		Events:        handlers.NewEventsHandler(bus),
		Admin:         handlers.NewAdminHandler(adminService),
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(handlers.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin, config.AppConfig.RateBurst))
	routes.RegisterRoutes(router, handlerBundle, config.AppConfig.CORSOrigins)

	utils.StartHealthMonitor(rootCtx, 30*time.Second,
		[]*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()}, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	// Closing the bus ends open SSE streams so Shutdown does not wait on them.
	stopBackground()
	if err := bus.Close(); err != nil {
		logger.Warn("main: closing event bus", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}

	emitter.Wait()
	if amqpSink != nil {
		if err := amqpSink.Close(); err != nil {
			logger.Warn("main: closing rabbitmq", zap.Error(err))
		}
	}
	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("main: closing media store", zap.Error(err))
		}
	}
	if err := database.Disconnect(ctx); err != nil {
		logger.Warn("main: disconnecting mongo", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
