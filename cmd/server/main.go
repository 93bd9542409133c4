package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/vlecture/vlecture-api/internal/config"
	"github.com/vlecture/vlecture-api/internal/database"
	"github.com/vlecture/vlecture-api/internal/flashcards"
	"github.com/vlecture/vlecture-api/internal/handler"
	"github.com/vlecture/vlecture-api/internal/mail"
	"github.com/vlecture/vlecture-api/internal/queue"
	"github.com/vlecture/vlecture-api/internal/repository"
	"github.com/vlecture/vlecture-api/internal/router"
	"github.com/vlecture/vlecture-api/internal/service"
	"github.com/vlecture/vlecture-api/internal/storage"
	"github.com/vlecture/vlecture-api/internal/transcription"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis connect failed: the verification code ledger requires redis")
	}

	users := repository.NewUserRepo(db)
	resets := repository.NewResetRepo(db)
	otps := repository.NewOTPRepo(rdb)

	mailer := mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromEmail)
	events := queue.NewPublisher()

	authSvc := service.NewAuthService(cfg, users, resets, mailer, events)
	verSvc := service.NewVerificationService(cfg, users, otps, mailer)

	// The study integrations are optional: without credentials the routes
	// answer 503 instead of blocking startup.
	var cardSvc *flashcards.Service
	if cfg.OpenAIAPIKey != "" {
		cardSvc = flashcards.NewService(flashcards.NewOpenAICompleter(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	}
	var transcribeSvc *transcription.Service
	var media *storage.MediaStore
	if cfg.MediaBucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("aws config failed: %v", err)
		}
		transcribeSvc = transcription.NewService(transcribe.NewFromConfig(awsCfg))
		media, err = storage.NewMediaStore(context.Background(), cfg.AWSRegion, cfg.MediaBucket)
		if err != nil {
			log.Fatalf("media store init failed: %v", err)
		}
	}

	// Background consumer writing the auth audit log. Runs its own
	// reconnect loop for the lifetime of the process.
	go func() {
		if err := queue.StartAuthConsumer(); err != nil {
			log.Printf("auth consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), handler.NewVerificationHandler(verSvc), cfg.JWTSecret, users)
	router.RegisterStudy(e, handler.NewStudyHandler(cardSvc, transcribeSvc, media), cfg.JWTSecret, users)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
