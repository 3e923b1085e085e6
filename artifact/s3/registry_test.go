package s3

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdebugger/graphsim/artifact"
)

// fakeDDB simulates the pipeline/version key schema with conditional puts.
type fakeDDB struct {
	items map[string]map[string]ddbtypes.AttributeValue // version -> item
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[string]ddbtypes.AttributeValue)}
}

func (f *fakeDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	version := params.Item["version"].(*ddbtypes.AttributeValueMemberN).Value
	if _, exists := f.items[version]; exists {
		return nil, &ddbtypes.ConditionalCheckFailedException{}
	}
	f.items[version] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if len(f.items) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}

	versions := make([]string, 0, len(f.items))
	for v := range f.items {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		var a, b uint64
		fmt.Sscanf(versions[i], "%d", &a)
		fmt.Sscanf(versions[j], "%d", &b)
		return a > b
	})

	return &dynamodb.QueryOutput{
		Items: []map[string]ddbtypes.AttributeValue{f.items[versions[0]]},
	}, nil
}

func TestRunRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("LatestEmpty", func(t *testing.T) {
		reg := NewRunRegistry(newFakeDDB(), "graphsim-runs", "keyword-bias")
		_, err := reg.Latest(ctx)
		require.ErrorIs(t, err, artifact.ErrNotFound)
	})

	t.Run("CommitThenLatest", func(t *testing.T) {
		reg := NewRunRegistry(newFakeDDB(), "graphsim-runs", "keyword-bias")

		v1, err := reg.Commit(ctx, "run-1", "runs/similarity_1.gsr")
		require.NoError(t, err)
		assert.EqualValues(t, 1, v1)

		v2, err := reg.Commit(ctx, "run-2", "runs/similarity_2.gsr")
		require.NoError(t, err)
		assert.EqualValues(t, 2, v2)

		latest, err := reg.Latest(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, latest.Version)
		assert.Equal(t, "run-2", latest.RunID)
		assert.Equal(t, "runs/similarity_2.gsr", latest.ReportKey)
	})

	t.Run("ConcurrentCommit", func(t *testing.T) {
		ddb := newFakeDDB()
		a := NewRunRegistry(ddb, "graphsim-runs", "keyword-bias")
		b := NewRunRegistry(ddb, "graphsim-runs", "keyword-bias")

		_, err := a.Commit(ctx, "run-a", "runs/a.gsr")
		require.NoError(t, err)

		// Both read version 1, both try to write version 2.
		latest, err := a.Latest(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, latest.Version)

		_, err = b.Commit(ctx, "run-b", "runs/b.gsr")
		require.NoError(t, err)

		// a's stale write of version 2 must now fail.
		_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
			Item: map[string]ddbtypes.AttributeValue{
				"pipeline":   &ddbtypes.AttributeValueMemberS{Value: "keyword-bias"},
				"version":    &ddbtypes.AttributeValueMemberN{Value: "2"},
				"run_id":     &ddbtypes.AttributeValueMemberS{Value: "run-a-stale"},
				"report_key": &ddbtypes.AttributeValueMemberS{Value: "runs/a2.gsr"},
			},
		})
		var cond *ddbtypes.ConditionalCheckFailedException
		require.ErrorAs(t, err, &cond)
	})
}
