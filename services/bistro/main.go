// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/relabs-tech/bistroboss/core/access"
	"github.com/relabs-tech/bistroboss/core/backend"
	"github.com/relabs-tech/bistroboss/core/captcha"
	"github.com/relabs-tech/bistroboss/core/logger"
	"github.com/relabs-tech/bistroboss/core/notify"
	"github.com/relabs-tech/bistroboss/core/payment"
	"github.com/relabs-tech/bistroboss/core/store"
)

// Service holds the configuration for this service. Values are read from the
// environment, a .env file in the working directory is loaded first if present.
//
// use MONGODB_URI="mongodb://localhost:27017" ACCESS_TOKEN="some-secret"
type Service struct {
	MongoURI          string        `env:"MONGODB_URI,required" description:"the connection string for the mongo deployment"`
	MongoDatabase     string        `env:"MONGODB_DATABASE,default=BistroBoss" description:"the database name"`
	MongoTransactions bool          `env:"MONGODB_TRANSACTIONS,default=false" description:"record payments in a transaction, needs a replica set"`
	Port              string        `env:"PORT,default=5000" description:"the listening port"`
	AccessToken       string        `env:"ACCESS_TOKEN,required" description:"the secret used to sign bearer tokens"`
	StripeSecretKey   string        `env:"STRIPE_SECRET_KEY" description:"the stripe secret key, payment intents are disabled without it"`
	RecaptchaSecret   string        `env:"RECAPTCHA_SECRET_KEY" description:"the reCAPTCHA secret, the contact form is disabled without it"`
	CorsOrigins       []string      `env:"CORS_ORIGIN,default=http://localhost:5173" description:"allowed CORS origins, separated by ;"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=10s" description:"the deadline of a single request"`
	LogLevel          string        `env:"LOG_LEVEL,default=info" description:"the log level"`
	KafkaBrokers      []string      `env:"KAFKA_BROKERS" description:"kafka brokers separated by ;, events are disabled without them"`
	KafkaTopic        string        `env:"KAFKA_TOPIC,default=bistroboss-events" description:"the topic events are published to"`
	ProtectDeletes    bool          `env:"PROTECT_DELETES,default=false" description:"require a token for deleting orders and bookings"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}
	logger.InitLogger(logger.ParseLevel(service.LogLevel))
	rlog := logger.Default()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	mongoClient, err := store.Connect(ctx, service.MongoURI)
	cancel()
	if err != nil {
		rlog.WithError(err).Fatalln("cannot connect to mongo")
	}
	defer mongoClient.Disconnect(context.Background())

	db := store.New(&store.Builder{
		DB:           mongoClient.Database(service.MongoDatabase),
		Transactions: service.MongoTransactions,
	})
	if err := db.EnsureIndexes(context.Background()); err != nil {
		rlog.WithError(err).Fatalln("cannot create indexes")
	}

	router := mux.NewRouter()
	bb := &backend.Builder{
		Store:          db,
		Router:         router,
		Tokens:         access.NewTokenService(service.AccessToken),
		RequestTimeout: service.RequestTimeout,
		ProtectDeletes: service.ProtectDeletes,
		AllowedOrigins: service.CorsOrigins,
	}
	if service.StripeSecretKey != "" {
		bb.Payments = payment.New(&payment.Builder{SecretKey: service.StripeSecretKey})
	} else {
		rlog.Warnln("STRIPE_SECRET_KEY is not set, payment intents are disabled")
	}
	if service.RecaptchaSecret != "" {
		bb.Captcha = captcha.New(&captcha.Builder{Secret: service.RecaptchaSecret})
	} else {
		rlog.Warnln("RECAPTCHA_SECRET_KEY is not set, the contact form is disabled")
	}
	if len(service.KafkaBrokers) > 0 {
		notifier := notify.New(&notify.Builder{Brokers: service.KafkaBrokers, Topic: service.KafkaTopic})
		defer notifier.Close()
		bb.Notifier = notifier
	}
	backend.New(bb)

	srv := &http.Server{
		Addr:              ":" + service.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		rlog.Infoln("listen on port :" + service.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rlog.WithError(err).Fatalln("cannot listen")
		}
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	<-signalCh

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		rlog.WithError(err).Errorln("cannot shut down cleanly")
	}
	rlog.Infoln("stopped")
}
