package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kbdebugger/graphsim/artifact"
)

// RunRegistry tracks the latest report per pipeline in DynamoDB. S3 alone
// cannot answer "what is the newest report" atomically; DynamoDB
// conditional writes provide the compare-and-swap that makes concurrent
// pipeline runs safe.
//
// Table schema:
//   - Partition key: pipeline (string)
//   - Sort key: version (number) - monotonically increasing
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name graphsim-runs \
//	  --attribute-definitions AttributeName=pipeline,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=pipeline,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type RunRegistry struct {
	client    DDBClient
	tableName string
	pipeline  string
}

// DDBClient is the interface for the DynamoDB operations the registry uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentCommit is returned when another writer committed the same
// version first. The caller may re-read and retry the commit.
var ErrConcurrentCommit = errors.New("concurrent commit detected")

// RunRecord is one committed run.
type RunRecord struct {
	Version   uint64
	RunID     string
	ReportKey string
}

// NewRunRegistry creates a registry for one pipeline (partition key value,
// e.g. "keyword-bias").
func NewRunRegistry(client DDBClient, tableName, pipeline string) *RunRegistry {
	return &RunRegistry{
		client:    client,
		tableName: tableName,
		pipeline:  pipeline,
	}
}

// Latest returns the most recently committed run. Returns
// artifact.ErrNotFound when no run was ever committed.
func (r *RunRegistry) Latest(ctx context.Context) (RunRecord, error) {
	resp, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("pipeline = :p"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":p": &ddbtypes.AttributeValueMemberS{Value: r.pipeline},
		},
		ScanIndexForward: aws.Bool(false), // descending, newest first
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return RunRecord{}, fmt.Errorf("query run registry: %w", err)
	}

	if len(resp.Items) == 0 {
		return RunRecord{}, artifact.ErrNotFound
	}

	return recordFromItem(resp.Items[0])
}

// Commit registers a new report as the latest run, returning the committed
// version. The conditional write fails with ErrConcurrentCommit if another
// writer claimed the version first.
func (r *RunRegistry) Commit(ctx context.Context, runID, reportKey string) (uint64, error) {
	var version uint64

	latest, err := r.Latest(ctx)
	switch {
	case err == nil:
		version = latest.Version + 1
	case errors.Is(err, artifact.ErrNotFound):
		version = 1
	default:
		return 0, err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]ddbtypes.AttributeValue{
			"pipeline":   &ddbtypes.AttributeValueMemberS{Value: r.pipeline},
			"version":    &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", version)},
			"run_id":     &ddbtypes.AttributeValueMemberS{Value: runID},
			"report_key": &ddbtypes.AttributeValueMemberS{Value: reportKey},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentCommit
		}
		return 0, fmt.Errorf("commit run: %w", err)
	}

	return version, nil
}

func recordFromItem(item map[string]ddbtypes.AttributeValue) (RunRecord, error) {
	versionAttr, ok := item["version"].(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return RunRecord{}, errors.New("invalid version attribute")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return RunRecord{}, fmt.Errorf("parse version: %w", err)
	}

	record := RunRecord{Version: version}

	if attr, ok := item["run_id"].(*ddbtypes.AttributeValueMemberS); ok {
		record.RunID = attr.Value
	}
	if attr, ok := item["report_key"].(*ddbtypes.AttributeValueMemberS); ok {
		record.ReportKey = attr.Value
	}

	return record, nil
}
