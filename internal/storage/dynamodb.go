package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

const dateKeyLayout = "2006-01-02"

// dynamoAPI is the part of dynamodb.Client the store reads with
type dynamoAPI interface {
	dynamodb.QueryAPIClient
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoDBStore implements Store for deployments that mirror the feeds into
// DynamoDB. Day-partitioned tables use DateKey (YYYY-MM-DD, UTC) as hash key.
type DynamoDBStore struct {
	client dynamoAPI
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// LoadDefaultConfig probes the EC2 IMDS endpoint, which hangs when
		// static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

// dateKeys lists the UTC day partitions touched by [from, to)
func dateKeys(from, to time.Time) []string {
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return nil
	}
	var keys []string
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for day.Before(to) {
		keys = append(keys, day.Format(dateKeyLayout))
		day = day.AddDate(0, 0, 1)
	}
	return keys
}

func (s *DynamoDBStore) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]dbtypes.AttributeValue, error) {
	var items []map[string]dbtypes.AttributeValue
	p := dynamodb.NewQueryPaginator(s.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (s *DynamoDBStore) scanAll(ctx context.Context, input *dynamodb.ScanInput) ([]map[string]dbtypes.AttributeValue, error) {
	var items []map[string]dbtypes.AttributeValue
	p := dynamodb.NewScanPaginator(s.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (s *DynamoDBStore) GetAttendance(ctx context.Context, from, to time.Time) ([]types.AttendanceRecord, error) {
	var records []types.AttendanceRecord
	for _, key := range dateKeys(from, to) {
		keyCond := expression.Key("DateKey").Equal(expression.Value(key))
		expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}

		items, err := s.queryAll(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.config.AttendanceTable),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query attendance: %w", err)
		}

		var page []types.AttendanceRecord
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attendance: %w", err)
		}
		for _, r := range page {
			if r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
				continue
			}
			records = append(records, r)
		}
	}
	// partitions come back in ID order
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

func (s *DynamoDBStore) GetPresence(ctx context.Context) ([]types.AgentPresence, error) {
	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.config.PresenceTable),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan presence: %w", err)
	}

	var presence []types.AgentPresence
	if err := attributevalue.UnmarshalListOfMaps(items, &presence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence: %w", err)
	}
	return presence, nil
}

func (s *DynamoDBStore) GetActiveAlerts(ctx context.Context, since time.Time) ([]types.SystemAlert, error) {
	filter := expression.Name("Resolved").Equal(expression.Value(false))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	items, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.AlertsTable),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan alerts: %w", err)
	}

	var all []types.SystemAlert
	if err := attributevalue.UnmarshalListOfMaps(items, &all); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alerts: %w", err)
	}

	// timestamps are RFC3339Nano strings, which do not sort lexically
	alerts := make([]types.SystemAlert, 0, len(all))
	for _, a := range all {
		if !a.Timestamp.Before(since) {
			alerts = append(alerts, a)
		}
	}
	return alerts, nil
}

func (s *DynamoDBStore) GetPrediction(ctx context.Context, kind types.PredictionType, date string) (*types.PredictionPayload, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"Type":          string(kind),
		"ReferenceDate": date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction key: %w", err)
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.PredictionsTable),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var p types.PredictionPayload
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction: %w", err)
	}
	return &p, nil
}

// rankingKey is the hash key of the rankings table
func rankingKey(period types.RankingPeriod, date string) string {
	return string(period) + "#" + date
}

func (s *DynamoDBStore) GetRanking(ctx context.Context, period types.RankingPeriod, date string) ([]types.RankingEntry, error) {
	keyCond := expression.Key("PeriodKey").Equal(expression.Value(rankingKey(period, date)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.RankingsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}

	var entries []types.RankingEntry
	if err := attributevalue.UnmarshalListOfMaps(items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ranking: %w", err)
	}
	return entries, nil
}

func (s *DynamoDBStore) GetTransfers(ctx context.Context, agentID string, from, to time.Time) ([]types.TransferLog, error) {
	var logs []types.TransferLog
	for _, key := range dateKeys(from, to) {
		keyCond := expression.Key("DateKey").Equal(expression.Value(key))
		filter := expression.Name("FromAgent").Equal(expression.Value(agentID)).
			Or(expression.Name("ToAgent").Equal(expression.Value(agentID)))
		expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}

		items, err := s.queryAll(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.config.TransfersTable),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query transfers: %w", err)
		}

		var page []types.TransferLog
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transfers: %w", err)
		}
		for _, t := range page {
			if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
				continue
			}
			logs = append(logs, t)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
	return logs, nil
}

// Close is a no-op; the SDK client holds no long-lived connections
func (s *DynamoDBStore) Close() {}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Mode {
	case ModePostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, cfg.Schema, logger)
	case ModeDynamo:
		return NewDynamoDBStore(ctx, cfg.Dynamo, logger)
	case ModeNone:
		logger.Info().Msg("store disabled (STORE_MODE=none)")
		return NewNoopStore(), nil
	default:
		return nil, errors.New("unknown store mode: " + string(cfg.Mode))
	}
}
