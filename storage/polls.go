package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sayan40020805/jusense-polls/logging"
)

type PollStorage interface {
	Get(ctx context.Context, id string) (*Poll, error)
	GetAll(ctx context.Context) ([]*Poll, error)
	Create(ctx context.Context, poll *Poll) error
	// IncrementVote adds one vote to the given option, the poll total and the
	// poll version in a single conditional write. It fails with
	// ErrVersionConflict when expectedVersion no longer matches the stored
	// poll, which serializes concurrent vote commits per poll.
	IncrementVote(ctx context.Context, id string, optionIndex int, expectedVersion int64) error
}

type DynamoPollStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoPollStorage) Get(ctx context.Context, id string) (*Poll, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("POLL: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("POLL: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrPollNotFound
	}

	var poll *Poll
	if err := attributevalue.UnmarshalMap(out.Item, &poll); err != nil {
		logging.Log.Errorf("POLL: failed to unmarshal result: %v", err)
		return nil, err
	}
	return poll, nil
}

func (s *DynamoPollStorage) GetAll(ctx context.Context) ([]*Poll, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("POLL: SCAN storage failed: %v", err)
		return nil, err
	}

	var polls []*Poll
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &polls); err != nil {
		logging.Log.Errorf("POLL: failed to unmarshal list: %v", err)
		return nil, err
	}
	return polls, nil
}

func (s *DynamoPollStorage) Create(ctx context.Context, poll *Poll) error {
	if poll.CreatedAt.IsZero() {
		poll.CreatedAt = time.Now().UTC()
	}
	item, err := attributevalue.MarshalMap(poll)
	if err != nil {
		logging.Log.Errorf("POLL: failed to marshal poll: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		logging.Log.Errorf("POLL: PUT storage failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoPollStorage) IncrementVote(ctx context.Context, id string, optionIndex int, expectedVersion int64) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression: aws.String(fmt.Sprintf(
			"SET #opts[%d].#votes = #opts[%d].#votes + :one, #total = #total + :one, #ver = #ver + :one", optionIndex, optionIndex)),
		ConditionExpression: aws.String("attribute_exists(PK) AND #ver = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#opts":  "Options",
			"#votes": "Votes",
			"#total": "TotalVotes",
			"#ver":   "Version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":      &types.AttributeValueMemberN{Value: "1"},
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
		},
	}

	_, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrVersionConflict
		}
		logging.Log.Errorf("POLL: vote increment failed: %v", err)
		return err
	}
	return nil
}
