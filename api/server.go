package api

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/sayan40020805/jusense-polls/api/controllers"
	"github.com/sayan40020805/jusense-polls/api/transport"
	"github.com/sayan40020805/jusense-polls/logging"
	"github.com/sayan40020805/jusense-polls/realtime"
	"github.com/sayan40020805/jusense-polls/storage"
	"github.com/sayan40020805/jusense-polls/voting"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	// Create storage
	var pollStorage storage.PollStorage
	var voteStorage storage.VoteStorage

	switch s.config.Driver {
	case "memory":
		logging.Log.Warn("Using in-memory storage, polls will not survive a restart")
		pollStorage = storage.NewMemoryPollStorage()
		voteStorage = storage.NewMemoryVoteStorage()
	default:
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			logging.Log.Errorf("failed to load AWS config: %v", err)
			panic("failed to load AWS config")
		}

		dynamoClient := dynamodb.NewFromConfig(cfg)
		pollStorage = &storage.DynamoPollStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNamePolls,
		}
		voteStorage = &storage.DynamoVoteStorage{
			Client:    dynamoClient,
			TableName: s.config.TableNameVotes,
		}
	}

	// Broadcast hub and vote admission
	hub := realtime.NewHub()
	admission := voting.NewAdmission(pollStorage, voteStorage, hub)

	//Register controllers
	pollsController := controllers.NewPollsController(pollStorage, s.config.TokenSecret)
	pollsController.RegisterRoutes(r)
	votesController := controllers.NewVotesController(admission, pollStorage, voteStorage, s.config.TokenSecret)
	votesController.RegisterRoutes(r)
	realtimeController := controllers.NewRealtimeController(hub)
	realtimeController.RegisterRoutes(r)

	// The websocket channel needs a long-lived process; lambda mode only
	// serves the REST surface.
	if os.Getenv("APP_ENV") == "local" {
		startLocal(r, s.config.Port)
	} else {
		startLambda(r)
	}
}

// startLambda sets up for AWS Lambda
func startLambda(engine *gin.Engine) {
	ginLambda := ginadapter.NewV2(engine)

	handler := func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		logging.Log.Infof("Lambda handler triggered on path: %s", req.RawPath)
		return ginLambda.ProxyWithContext(ctx, req)
	}

	logging.Log.Info("Starting lambda")
	lambda.Start(handler)
}

// startLocal starts a normal HTTP server on the configured port
func startLocal(engine *gin.Engine, port int) {
	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", port))

	if err := engine.Run(fmt.Sprintf(":%d", port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}
