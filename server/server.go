package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/panic-app/panic-server/server/gstorage"
	"github.com/panic-app/panic-server/server/logger"
	"github.com/panic-app/panic-server/server/models"
	"github.com/panic-app/panic-server/server/session"
	"github.com/panic-app/panic-server/server/sns"
	"github.com/panic-app/panic-server/server/twilio"
	"github.com/panic-app/panic-server/server/work"
	"github.com/panic-app/panic-server/shared"
	"github.com/spf13/viper"
)

var (
	logg     = logger.NewLogger()
	validate = validator.New()

	sessionStore  *session.Store
	snsClient     SnsRegistrar
	messenger     Messenger
	storage       ObjectUploader
	workerPool    *work.WorkerPoolAdapter
	countryCode   string
	storageConfig shared.StorageConfig
	dbRootDir     string
)

// Start boots the panic server: db migration, session store, external
// clients, background workers & the HTTP listener. Blocks until
// SIGINT/SIGTERM.
func Start(config *viper.Viper, devMode bool) {
	serverConfig := parseServerConfig(config)

	dbRootDir = configDirectory(devMode)
	fatalOnError(models.AutoMigrate(serverConfig.Sqlite.PassPhrase, dbRootDir))

	sessionStore = session.NewStore(serverConfig.Panic.Session.Secret, serverConfig.Panic.Session.MaxAgeSeconds)
	snsClient = sns.NewClient(serverConfig.Sns)
	storageConfig = serverConfig.Google.Storage

	// The db-seeded value wins over the config file, so ops can change
	// the country code without a redeploy.
	countryCode = models.GlobalConfigValue(models.DEFAULT_COUNTRY_CODE_PARAM, serverConfig.Panic.DefaultCountryCode)

	if serverConfig.Twilio.AccountSid != "" {
		messenger = twilio.NewClient(serverConfig.Twilio)
	} else {
		logg.Warn("twilio is not configured, incident alerts will be skipped")
	}

	if storageConfig.Bucket != "" {
		gs, err := gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
		fatalOnError(err)
		storage = gs
	}

	workerPool = work.NewWorkerAdapter(serverConfig.Panic.Cron.TimeZone)
	registerJobHandlers(workerPool)
	enqueuePeriodicJobs(workerPool, serverConfig)
	workerPool.Start()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", serverConfig.Panic.Listener.Port),
		Handler: newRouter(),
	}
	go serve(server)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	cleanup(server)
}

func parseServerConfig(config *viper.Viper) *shared.ServerConfig {
	serverConfig := &shared.ServerConfig{}
	fatalOnError(config.Unmarshal(serverConfig))
	fatalOnError(validate.Struct(serverConfig))

	return serverConfig
}

func newRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, initialContextMiddleware)

	router.Handle("/", sessionMiddleware(http.HandlerFunc(indexHandler))).Methods("GET")

	users := router.PathPrefix("/users").Subrouter()
	users.HandleFunc("/register", registerUserHandler).Methods("POST")
	users.HandleFunc("/login", loginHandler).Methods("POST")
	users.HandleFunc("/logout", logoutHandler).Methods("POST")
	users.Handle("/password", sessionMiddleware(http.HandlerFunc(changePasswordHandler))).Methods("POST")
	users.Handle("/deactivate", sessionMiddleware(http.HandlerFunc(deactivateUserHandler))).Methods("DELETE")

	contacts := router.PathPrefix("/contacts").Subrouter()
	contacts.Use(sessionMiddleware)
	contacts.HandleFunc("/register", registerContactHandler).Methods("POST")
	contacts.HandleFunc("/edit", editContactHandler).Methods("POST")
	contacts.HandleFunc("", listContactsHandler).Methods("GET")
	contacts.HandleFunc("/{contactPhone}", deleteContactHandler).Methods("DELETE")

	incidents := router.PathPrefix("/incidents").Subrouter()
	incidents.Use(sessionMiddleware)
	incidents.HandleFunc("", reportIncidentHandler).Methods("POST")
	incidents.HandleFunc("/{incidentID}/photos", uploadIncidentPhotoHandler).Methods("POST")

	return router
}
