package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// fakeDynamo serves day partitions in the order they were added, the way
// DynamoDB returns them sorted by the ID range key
type fakeDynamo struct {
	partitions map[string][]map[string]dbtypes.AttributeValue
	err        error
	queries    int
}

func (f *fakeDynamo) add(t *testing.T, dateKey string, item interface{}) {
	t.Helper()
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		t.Fatalf("failed to marshal item: %v", err)
	}
	av["DateKey"] = &dbtypes.AttributeValueMemberS{Value: dateKey}
	if f.partitions == nil {
		f.partitions = make(map[string][]map[string]dbtypes.AttributeValue)
	}
	f.partitions[dateKey] = append(f.partitions[dateKey], av)
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range in.ExpressionAttributeValues {
		if s, ok := v.(*dbtypes.AttributeValueMemberS); ok {
			if items, ok := f.partitions[s.Value]; ok {
				return &dynamodb.QueryOutput{Items: items}, nil
			}
		}
	}
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamo) Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{}, f.err
}

func (f *fakeDynamo) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{}, f.err
}

func newFakeDynamoStore(client *fakeDynamo) *DynamoDBStore {
	return &DynamoDBStore{
		client: client,
		config: DynamoConfig{AttendanceTable: "attendance", TransfersTable: "transfers"},
		logger: zerolog.Nop(),
	}
}

func TestDynamoGetAttendanceOrderAndRange(t *testing.T) {
	at := func(day, hour, minute int) time.Time {
		return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
	}

	client := &fakeDynamo{}
	client.add(t, "2026-03-10", types.AttendanceRecord{ID: "a", AgentID: "Ana", CreatedAt: at(10, 10, 0)})
	client.add(t, "2026-03-10", types.AttendanceRecord{ID: "b", AgentID: "Bia", CreatedAt: at(10, 9, 0)})
	client.add(t, "2026-03-10", types.AttendanceRecord{ID: "early", CreatedAt: at(10, 7, 0)})
	client.add(t, "2026-03-11", types.AttendanceRecord{ID: "c", AgentID: "Caio", CreatedAt: at(11, 8, 59)})
	client.add(t, "2026-03-11", types.AttendanceRecord{ID: "edge", CreatedAt: at(11, 9, 0)})

	s := newFakeDynamoStore(client)
	records, err := s.GetAttendance(context.Background(), at(10, 8, 0), at(11, 9, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	want := []string{"b", "a", "c"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
	if client.queries != 2 {
		t.Errorf("expected one query per day partition, got %d", client.queries)
	}
}

func TestDynamoGetTransfersOrder(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	client := &fakeDynamo{}
	client.add(t, "2026-03-10", types.TransferLog{ID: "t-a", FromAgent: "Ana", ToAgent: "Bia", CreatedAt: day.Add(11 * time.Hour)})
	client.add(t, "2026-03-10", types.TransferLog{ID: "t-b", FromAgent: "Bia", ToAgent: "Ana", CreatedAt: day.Add(10*time.Hour + 30*time.Minute)})

	logs, err := newFakeDynamoStore(client).GetTransfers(context.Background(), "Ana", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 2 || logs[0].ID != "t-b" || logs[1].ID != "t-a" {
		t.Errorf("expected transfers oldest first, got %+v", logs)
	}
}

func TestDynamoQueryError(t *testing.T) {
	boom := errors.New("throttled")
	s := newFakeDynamoStore(&fakeDynamo{err: boom})

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if _, err := s.GetAttendance(context.Background(), day, day.Add(time.Hour)); !errors.Is(err, boom) {
		t.Errorf("expected wrapped query error, got %v", err)
	}
}
