package main

import (
	"math/rand"
	"time"

	"vtt-go/internal/config"
	"vtt-go/internal/images"
	logger "vtt-go/internal/logging"
	"vtt-go/internal/models"
	"vtt-go/internal/router"
	"vtt-go/internal/storage"
	"vtt-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger with defaults so config loading can log.
	log, err := logger.Init(".", nil)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Rebuild with the configured directory and rotation settings.
	log.Sync()
	log, err = logger.Init(".", &config.Conf.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Load the study definition at startup
	study, err := models.LoadStudy(config.Conf.Study.File)
	if err != nil {
		log.Fatal("Failed to load study definition", zap.Error(err))
	}

	// Open the client-local state store
	kv, err := storage.Open(config.Conf.Storage.DatabaseFile)
	if err != nil {
		log.Fatal("Failed to open local storage", zap.Error(err))
	}
	defer kv.Close()

	debounce := time.Duration(config.Conf.Storage.DebounceMS) * time.Millisecond
	sessionStore := store.Load(kv, study, debounce, log)
	defer sessionStore.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	source := images.NewSource(config.Conf.Storage.ImagesDir, study.QuestionsPerCategory, rng, log)

	r := router.Setup(log, sessionStore, source, study)

	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run server", zap.Error(err))
	}
}
