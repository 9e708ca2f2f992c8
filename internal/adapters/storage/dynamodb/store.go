package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"go.uber.org/zap"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
	"github.com/PabloGalante/symbiotic-sonnet/internal/observability"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store keeps poems in a single table keyed by poemId.
type Store struct {
	client API
	table  string
}

// NewStore loads the default AWS config (env, shared files, instance role).
func NewStore(ctx context.Context, table string) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("table name is required for DynamoDB store")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewStoreWithClient(dynamodb.NewFromConfig(cfg), table), nil
}

func NewStoreWithClient(client API, table string) *Store {
	return &Store{client: client, table: table}
}

type poemItem struct {
	PoemID    string    `dynamodbav:"poemId"`
	Theme     string    `dynamodbav:"theme"`
	Kind      string    `dynamodbav:"kind"`
	Text      []string  `dynamodbav:"text"`
	Lines     []string  `dynamodbav:"lines"`
	CreatedAt time.Time `dynamodbav:"createdAt"`
}

func (s *Store) SavePoem(ctx context.Context, poem *domain.Poem) error {
	lines, err := domain.EncodeLines(poem.Lines)
	if err != nil {
		return fmt.Errorf("dynamodb SavePoem: %w", err)
	}
	text := make([]string, 0, len(poem.Lines))
	for _, l := range poem.Lines {
		text = append(text, l.Line)
	}

	av, err := attributevalue.MarshalMap(poemItem{
		PoemID:    string(poem.ID),
		Theme:     string(poem.Theme),
		Kind:      string(poem.Kind),
		Text:      text,
		Lines:     lines,
		CreatedAt: poem.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("dynamodb SavePoem marshal: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(poemId)"),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error("dynamodb put failed",
			zap.String("table", s.table),
			zap.String("poem_id", string(poem.ID)),
			zap.Error(err),
		)
		return fmt.Errorf("dynamodb SavePoem: %w", err)
	}
	return nil
}

func (s *Store) GetPoem(ctx context.Context, id domain.PoemID) (*domain.Poem, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"poemId": string(id)})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetPoem key: %w", err)
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetPoem: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("poem %s: %w", id, domain.ErrNotFound)
	}

	var item poemItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("dynamodb GetPoem decode: %w", err)
	}
	return fromItem(item)
}

// ListPoems scans the table and returns the newest poems first. The
// archive is small; a createdAt index would replace the scan otherwise.
func (s *Store) ListPoems(ctx context.Context, limit int) ([]*domain.Poem, error) {
	var (
		items    []poemItem
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb ListPoems: %w", err)
		}

		var page []poemItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("dynamodb ListPoems decode: %w", err)
		}
		items = append(items, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	poems := make([]*domain.Poem, 0, len(items))
	for _, it := range items {
		p, err := fromItem(it)
		if err != nil {
			return nil, err
		}
		poems = append(poems, p)
	}
	return poems, nil
}

func fromItem(item poemItem) (*domain.Poem, error) {
	lines, err := domain.DecodeLines(item.Lines)
	if err != nil {
		return nil, fmt.Errorf("poem %s: %w", item.PoemID, err)
	}
	return &domain.Poem{
		ID:        domain.PoemID(item.PoemID),
		Theme:     domain.Theme(item.Theme),
		Kind:      domain.VisualsKind(item.Kind),
		Lines:     lines,
		CreatedAt: item.CreatedAt,
	}, nil
}
