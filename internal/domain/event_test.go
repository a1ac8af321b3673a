package domain

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestEventMarshalOmitsEmptyData(t *testing.T) {
	ev := Event{ID: "e1", EntityID: "t1", EntityType: EntityTypeTodo, Type: EventTodoToggled, Time: 1}

	payload, err := sonic.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	if strings.Contains(string(payload), "\"data\"") {
		t.Fatalf("expected data field to be omitted, got %s", payload)
	}
	if !strings.Contains(string(payload), "\"entityType\":\"todo\"") {
		t.Fatalf("expected entity type, got %s", payload)
	}
}
