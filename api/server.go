package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/manaf-dev/gmsa-voting-app/api/controllers"
	"github.com/manaf-dev/gmsa-voting-app/api/transport"
	"github.com/manaf-dev/gmsa-voting-app/crypto"
	"github.com/manaf-dev/gmsa-voting-app/logging"
	"github.com/manaf-dev/gmsa-voting-app/storage"
	"github.com/manaf-dev/gmsa-voting-app/storage/memorystore"
	"github.com/manaf-dev/gmsa-voting-app/voting"
)

type Server struct {
	config *Config
}

type storageSet struct {
	elections  storage.ElectionStorage
	positions  storage.PositionStorage
	candidates storage.CandidateStorage
	votes      storage.VoteStorage
	audit      storage.AuditLogStorage
	sessions   storage.VotingSessionStorage
	rateLimits storage.RateLimitStorage
	results    storage.ElectionResultStorage
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	stores := s.buildStorage()

	engine, err := crypto.NewEngine(s.config.EncryptionKey, s.config.VoteHashSecret, s.config.AnonymizationSalt)
	if err != nil {
		logging.Log.Errorf("failed to initialize vote encryption: %v", err)
		panic("failed to initialize vote encryption")
	}
	signer, err := crypto.NewSignatureService(s.config.SigningKeyFile)
	if err != nil {
		logging.Log.Errorf("failed to initialize vote signing: %v", err)
		panic("failed to initialize vote signing")
	}

	auditTrail := voting.NewAuditTrail(stores.audit, engine)
	sessionTracker := voting.NewSessionTracker(stores.sessions)
	gate := voting.NewSecurityGate(stores.rateLimits, voting.DefaultRateLimits())

	var notifier voting.Notifier = voting.NopNotifier{}
	if s.config.SMSEnabled {
		notifier = voting.NewAsyncNotifier(&voting.SMSNotifier{
			APIKey:   s.config.SMSAPIKey,
			SenderID: s.config.SMSSender,
			BaseURL:  s.config.SMSBaseURL,
			Client:   &http.Client{Timeout: 15 * time.Second},
		}, 128)
	}

	registry := voting.NewRegistry(stores.elections, stores.positions, stores.candidates, stores.votes, stores.results, auditTrail, notifier)
	ledger := voting.NewLedger(stores.votes, stores.elections, stores.positions, stores.candidates, engine, signer, auditTrail, sessionTracker)

	//Register controllers
	votingController := controllers.NewVotingController(ledger, registry, gate)
	votingController.RegisterRoutes(r, s.config.AuthSecret)
	electionsController := controllers.NewElectionsController(registry, gate)
	electionsController.RegisterRoutes(r, s.config.AuthSecret)
	positionsController := controllers.NewPositionsController(registry)
	positionsController.RegisterRoutes(r, s.config.AuthSecret)
	candidatesController := controllers.NewCandidatesController(registry)
	candidatesController.RegisterRoutes(r, s.config.AuthSecret)
	adminController := controllers.NewAdminController(ledger, registry, auditTrail, sessionTracker, stores.elections)
	adminController.RegisterRoutes(r, s.config.AuthSecret)

	//Do not run lambda helper locally
	if os.Getenv("APP_ENV") == "local" {
		// The reconciler only runs on a long-lived process. On Lambda the
		// status sweep is expected to come from a scheduled invocation.
		go s.runReconciler(registry)
		startLocal(r, s.config.Port)
	} else {
		startLambda(r)
	}
}

func (s *Server) buildStorage() *storageSet {
	if s.config.Driver == "memory" {
		logging.Log.Warn("STORAGE: using in-memory storage, all data is lost on restart")
		return &storageSet{
			elections:  memorystore.NewElectionStore(),
			positions:  memorystore.NewPositionStore(),
			candidates: memorystore.NewCandidateStore(),
			votes:      memorystore.NewVoteStore(),
			audit:      memorystore.NewAuditLogStore(),
			sessions:   memorystore.NewVotingSessionStore(),
			rateLimits: memorystore.NewRateLimitStore(),
			results:    memorystore.NewElectionResultStore(),
		}
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logging.Log.Errorf("failed to load AWS config: %v", err)
		panic("failed to load AWS config")
	}

	dynamoClient := dynamodb.NewFromConfig(cfg)

	return &storageSet{
		elections: &storage.DynamoElectionStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameElections,
		},
		positions: &storage.DynamoPositionStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNamePositions,
		},
		candidates: &storage.DynamoCandidateStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameCandidates,
		},
		votes: &storage.DynamoVoteStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameVotes,
		},
		audit: &storage.DynamoAuditLogStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameAuditLog,
		},
		sessions: &storage.DynamoVotingSessionStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameSessions,
		},
		rateLimits: &storage.DynamoRateLimitStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameRateLimits,
		},
		results: &storage.DynamoElectionResultStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameResults,
		},
	}
}

// runReconciler periodically rolls election statuses forward against the
// clock so windows open and close without an admin action.
func (s *Server) runReconciler(registry *voting.Registry) {
	ticker := time.NewTicker(s.config.ReconcileInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := registry.Reconcile(ctx); err != nil {
			logging.Log.Errorf("RECONCILE: sweep failed: %v", err)
		}
		cancel()
	}
}

// StartLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// StartLocal starts a normal HTTP server on the configured port
func startLocal(engine *gin.Engine, port int) {
	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))

	if err := engine.Run(fmt.Sprintf(":%d", port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
