// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package test runs the bistro backend end to end against mongo and kafka in docker.
// The suites only run with BISTRO_INTEGRATION=1.
package test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/relabs-tech/bistroboss/core/access"
	"github.com/relabs-tech/bistroboss/core/backend"
	"github.com/relabs-tech/bistroboss/core/captcha"
	"github.com/relabs-tech/bistroboss/core/client"
	"github.com/relabs-tech/bistroboss/core/notify"
	"github.com/relabs-tech/bistroboss/core/payment"
	"github.com/relabs-tech/bistroboss/core/store"
)

const (
	eventsTopic = "bistroboss-events"
	tokenSecret = "integration-secret"
)

type IntegrationTestSuite struct {
	suite.Suite

	network        testcontainers.Network
	mongoContainer testcontainers.Container
	kafkaContainer testcontainers.Container
	zookeeper      testcontainers.Container
	kafkaConn      *kafka.Conn
	kafkaAddr      string
	mongoClient    *mongo.Client
	database       *mongo.Database
	providers      *httptest.Server
	srv            *httptest.Server
	notifier       *notify.KafkaNotifier
	tokens         *access.TokenService
	client         client.Client
}

func (s *IntegrationTestSuite) createTopic(topic string, numPartitions int) error {
	if s.kafkaConn == nil {
		return fmt.Errorf("kafka connection is not established")
	}
	err := s.kafkaConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}
	return nil
}

// providerStub answers the stripe payment intent and the reCAPTCHA siteverify endpoints.
// Every captcha token except "valid" is rejected.
func providerStub() *httptest.Server {
	router := mux.NewRouter()
	router.HandleFunc("/v1/payment_intents", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_it","object":"payment_intent","client_secret":"pi_it_secret"}`)
	}).Methods(http.MethodPost)
	router.HandleFunc("/siteverify", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.PostFormValue("response") == "valid" {
			fmt.Fprint(w, `{"success":true,"hostname":"localhost"}`)
			return
		}
		fmt.Fprint(w, `{"success":false,"error-codes":["invalid-input-response"]}`)
	}).Methods(http.MethodPost)
	return httptest.NewServer(router)
}

func (s *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	networkName := "bistro-test-network_" + fmt.Sprintf("%d", time.Now().Unix())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{
			Name:           networkName,
			CheckDuplicate: true,
		},
	})
	s.Require().NoError(err)
	s.network = network

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			Networks:     []string{networkName},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.mongoContainer = mongoC

	mongoHost, err := mongoC.Host(ctx)
	s.Require().NoError(err)
	mongoPort, err := mongoC.MappedPort(ctx, "27017")
	s.Require().NoError(err)
	s.mongoClient, err = store.Connect(ctx, fmt.Sprintf("mongodb://%s:%s/?directConnection=true", mongoHost, mongoPort.Port()))
	s.Require().NoError(err)

	zooC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "confluentinc/cp-zookeeper:7.5.0",
			ExposedPorts: []string{"2181/tcp"},
			Env: map[string]string{
				"ZOOKEEPER_CLIENT_PORT": "2181",
				"ZOOKEEPER_TICK_TIME":   "2000",
			},
			WaitingFor:     wait.ForListeningPort("2181/tcp"),
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"zookeeper"}},
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.zookeeper = zooC

	kafkaC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "confluentinc/cp-kafka:7.5.0",
			ExposedPorts: []string{"9092:9092/tcp"},
			Env: map[string]string{
				"KAFKA_BROKER_ID":                        "1",
				"KAFKA_ZOOKEEPER_CONNECT":                "zookeeper:2181",
				"KAFKA_LISTENERS":                        "PLAINTEXT://0.0.0.0:9092,EXTERNAL://0.0.0.0:9093",
				"KAFKA_ADVERTISED_LISTENERS":             "PLAINTEXT://localhost:9092,EXTERNAL://kafka:9093",
				"KAFKA_LISTENER_SECURITY_PROTOCOL_MAP":   "PLAINTEXT:PLAINTEXT,EXTERNAL:PLAINTEXT",
				"KAFKA_INTER_BROKER_LISTENER_NAME":       "EXTERNAL",
				"KAFKA_OFFSETS_TOPIC_REPLICATION_FACTOR": "1",
			},
			WaitingFor:     wait.ForLog("started (kafka.server.KafkaServer)"),
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"kafka"}},
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.kafkaContainer = kafkaC

	kafkaHost, err := kafkaC.Host(ctx)
	s.Require().NoError(err)
	kafkaPort, err := kafkaC.MappedPort(ctx, "9092")
	s.Require().NoError(err)
	s.kafkaAddr = fmt.Sprintf("%s:%s", kafkaHost, kafkaPort.Port())

	s.kafkaConn, err = kafka.Dial("tcp", s.kafkaAddr)
	s.Require().NoError(err)
	s.Require().NoError(s.createTopic(eventsTopic, 1))

	s.providers = providerStub()
	s.tokens = access.NewTokenService(tokenSecret)
	s.notifier = notify.New(&notify.Builder{Brokers: []string{s.kafkaAddr}, Topic: eventsTopic})
}

// SetupTest starts a fresh backend on its own database
func (s *IntegrationTestSuite) SetupTest() {
	s.database = s.mongoClient.Database(fmt.Sprintf("bistro_%d", time.Now().UnixNano()))
	db := store.New(&store.Builder{DB: s.database})
	s.Require().NoError(db.EnsureIndexes(context.Background()))

	router := mux.NewRouter()
	backend.New(&backend.Builder{
		Store:    db,
		Router:   router,
		Tokens:   s.tokens,
		Payments: payment.New(&payment.Builder{SecretKey: "sk_test_it", URL: s.providers.URL}),
		Captcha:  captcha.New(&captcha.Builder{Secret: "captcha-secret", URL: s.providers.URL + "/siteverify"}),
		Notifier: s.notifier,
	})
	s.srv = httptest.NewServer(router)
	s.client = client.NewWithURL(s.srv.URL)
}

func (s *IntegrationTestSuite) TearDownTest() {
	s.srv.Close()
	s.Require().NoError(s.database.Drop(context.Background()))
}

func (s *IntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.providers != nil {
		s.providers.Close()
	}
	if s.kafkaConn != nil {
		s.kafkaConn.Close()
	}
	if s.mongoClient != nil {
		s.Require().NoError(s.mongoClient.Disconnect(ctx))
	}
	for _, c := range []testcontainers.Container{s.kafkaContainer, s.zookeeper, s.mongoContainer} {
		if c != nil {
			s.Require().NoError(c.Terminate(ctx))
		}
	}
	if s.network != nil {
		s.Require().NoError(s.network.Remove(ctx))
	}
}

// as returns a client authenticated as email
func (s *IntegrationTestSuite) as(email string) client.Client {
	token, err := s.tokens.Issue(email)
	s.Require().NoError(err)
	return s.client.WithToken(token)
}

// readEvents reads events from the start of the topic until match returns true or the
// timeout expires
func (s *IntegrationTestSuite) readEvents(timeout time.Duration, match func(notify.Event) bool) bool {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{s.kafkaAddr},
		Topic:     eventsTopic,
		Partition: 0,
		MaxWait:   100 * time.Millisecond,
	})
	defer reader.Close()
	s.Require().NoError(reader.SetOffset(kafka.FirstOffset))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			return false
		}
		var event notify.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			continue
		}
		if match(event) {
			return true
		}
	}
}
