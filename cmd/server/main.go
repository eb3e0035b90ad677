package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/ButyrinIA/mindspace/internal/auth"
	"github.com/ButyrinIA/mindspace/internal/config"
	"github.com/ButyrinIA/mindspace/internal/mailer"
	"github.com/ButyrinIA/mindspace/internal/media"
	"github.com/ButyrinIA/mindspace/internal/otp"
	"github.com/ButyrinIA/mindspace/internal/posts"
	"github.com/ButyrinIA/mindspace/internal/sentiment"
	"github.com/ButyrinIA/mindspace/internal/server"
	"github.com/ButyrinIA/mindspace/internal/storage"
	"github.com/ButyrinIA/mindspace/internal/storage/memory"
	"github.com/ButyrinIA/mindspace/internal/storage/mongodb"
	"github.com/ButyrinIA/mindspace/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	storageType := flag.String("storage", "memory", "тип хранилища: memory, postgres или mongo")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Некорректная конфигурация: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store storage.Storage
		codes otp.Store
	)
	switch *storageType {
	case "postgres":
		log.Println("Инициализация хранилища PostgreSQL")
		pg, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("Не удалось инициализировать PostgreSQL: %v", err)
		}
		store, codes = pg, pg.OTPStore()
	case "mongo":
		log.Println("Инициализация хранилища MongoDB")
		mg, err := mongodb.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Fatalf("Не удалось инициализировать MongoDB: %v", err)
		}
		store, codes = mg, mg.OTPStore()
	case "memory":
		log.Println("Инициализация хранилища Memory")
		store = memory.New()
		mem := otp.NewMemoryStore()
		if err := mem.StartPurge("@every 1m"); err != nil {
			log.Fatalf("Не удалось запустить очистку OTP: %v", err)
		}
		defer mem.Stop()
		codes = mem
	default:
		log.Fatalf("Неизвестный тип хранилища: %s", *storageType)
	}
	defer store.Close()

	if n, err := posts.SeedResources(ctx, store, cfg.Resources); err != nil {
		log.Printf("Не удалось загрузить ресурсы: %v", err)
	} else if n > 0 {
		log.Printf("Загружено ресурсов: %d", n)
	}

	disk, err := media.NewDiskStore(cfg.Server.UploadsDir)
	if err != nil {
		log.Fatalf("Не удалось подготовить каталог загрузок: %v", err)
	}

	var sender mailer.Sender = mailer.LogSender{}
	if cfg.SMTP.Host != "" {
		smtpSender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			CodeTTL:  cfg.Auth.OTPTTL,
		})
		if err != nil {
			log.Fatalf("Ошибка настройки SMTP: %v", err)
		}
		sender = smtpSender
	} else {
		log.Println("SMTP не настроен, коды OTP пишутся в лог")
	}

	hub := server.NewHub(cfg.Server.CORSOrigins)
	postService := posts.NewService(store, disk, sentiment.NewAnalyzer(), hub)
	authService := auth.NewService(store, codes, sender, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), cfg.Auth.OTPTTL)

	srv := server.New(cfg, store, postService, authService, hub)
	log.Println("Запуск сервера")
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Не удалось запустить сервер: %v", err)
	}
	log.Println("Сервер остановлен")
}
