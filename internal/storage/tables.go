package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"htmx-todo/internal/domain"
)

const (
	todoPartition     = "todos"
	maxUpdateAttempts = 3
	maxInsertAttempts = 3
)

type entityClient interface {
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey string, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	NewListEntitiesPager(listOptions *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

// Tables keeps todos in an Azure Storage table. Every todo lives in a single
// partition; Seq preserves insertion order and ETags guard updates.
type Tables struct {
	client entityClient
	newID  func() string
}

// NewTables creates a table-backed store from the given connection string.
func NewTables(connStr, table string) (*Tables, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Second * 30,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return newTables(svc.NewClient(table)), nil
}

func newTables(client entityClient) *Tables {
	return &Tables{client: client, newID: uuid.NewString}
}

type todoEntity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
	Content      string `json:"Content"`
	Completed    bool   `json:"Completed"`
	Seq          string `json:"Seq"`
}

func (e todoEntity) todo() domain.Todo {
	return domain.Todo{ID: e.RowKey, Content: e.Content, Completed: e.Completed}
}

func decodeTodoEntity(data []byte) (todoEntity, error) {
	var ent todoEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return todoEntity{}, fmt.Errorf("decode todo entity: %w", err)
	}
	return ent, nil
}

func (s *Tables) Insert(ctx context.Context, content string) (domain.Todo, error) {
	if err := domain.ValidateContent(content); err != nil {
		return domain.Todo{}, err
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		ent := todoEntity{
			PartitionKey: todoPartition,
			RowKey:       s.newID(),
			Content:      content,
			Seq:          rowSequence(),
		}
		payload, err := sonic.Marshal(ent)
		if err != nil {
			return domain.Todo{}, err
		}
		if _, err := s.client.AddEntity(ctx, payload, nil); err != nil {
			if hasStatus(err, http.StatusConflict) {
				continue
			}
			return domain.Todo{}, fmt.Errorf("add todo entity: %w", err)
		}
		return ent.todo(), nil
	}
	return domain.Todo{}, domain.ErrConcurrencyConflict
}

func (s *Tables) Get(ctx context.Context, id string) (domain.Todo, error) {
	ent, _, err := s.load(ctx, id)
	if err != nil {
		return domain.Todo{}, err
	}
	return ent.todo(), nil
}

func (s *Tables) UpdateContent(ctx context.Context, id, content string) (domain.Todo, error) {
	return s.update(ctx, id, func(e *todoEntity) { e.Content = content })
}

func (s *Tables) ToggleCompleted(ctx context.Context, id string) (domain.Todo, error) {
	return s.update(ctx, id, func(e *todoEntity) { e.Completed = !e.Completed })
}

// List reads the whole partition and orders it by insertion sequence.
func (s *Tables) List(ctx context.Context) ([]domain.Todo, error) {
	filter := "PartitionKey eq '" + todoPartition + "'"
	pager := s.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var entities []todoEntity
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list todo entities: %w", err)
		}
		for _, raw := range resp.Entities {
			ent, err := decodeTodoEntity(raw)
			if err != nil {
				return nil, err
			}
			entities = append(entities, ent)
		}
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Seq < entities[j].Seq })

	todos := make([]domain.Todo, 0, len(entities))
	for _, ent := range entities {
		todos = append(todos, ent.todo())
	}
	return todos, nil
}

func (s *Tables) load(ctx context.Context, id string) (todoEntity, azcore.ETag, error) {
	resp, err := s.client.GetEntity(ctx, todoPartition, id, nil)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return todoEntity{}, "", domain.ErrNotFound
		}
		return todoEntity{}, "", fmt.Errorf("get todo entity: %w", err)
	}
	ent, err := decodeTodoEntity(resp.Value)
	if err != nil {
		return todoEntity{}, "", err
	}
	return ent, resp.ETag, nil
}

// update applies fn to the stored entity and writes it back only if nobody
// changed it in between, retrying a bounded number of times.
func (s *Tables) update(ctx context.Context, id string, fn func(*todoEntity)) (domain.Todo, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		ent, etag, err := s.load(ctx, id)
		if err != nil {
			return domain.Todo{}, err
		}
		fn(&ent)
		payload, err := sonic.Marshal(ent)
		if err != nil {
			return domain.Todo{}, err
		}
		_, err = s.client.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
			IfMatch:    &etag,
			UpdateMode: aztables.UpdateModeReplace,
		})
		if err == nil {
			return ent.todo(), nil
		}
		switch {
		case hasStatus(err, http.StatusPreconditionFailed):
			continue
		case hasStatus(err, http.StatusNotFound):
			return domain.Todo{}, domain.ErrNotFound
		default:
			return domain.Todo{}, fmt.Errorf("update todo entity: %w", err)
		}
	}
	return domain.Todo{}, domain.ErrConcurrencyConflict
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

// rowSequence pads the sequence so that lexical order of the Seq column
// matches insertion order.
func rowSequence() string {
	return fmt.Sprintf("%020d", domain.NextSequence())
}
