package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/docchat-ai/docchat/internal/config"
	"github.com/docchat-ai/docchat/internal/data/redisStore"
	"github.com/docchat-ai/docchat/internal/data/store"
)

func newMessageStore(t *testing.T) *store.RedisMessageStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.TestMessageStore(redisStore.NewTestStore(client))
}

func TestRedisMessageStore_TurnsAndHistory(t *testing.T) {
	ms := newMessageStore(t)
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	if err := ms.SaveTurn(ctx, "chat-1", "human", "hello"); err != nil {
		t.Fatalf("SaveTurn failed: %v", err)
	}
	if err := ms.SaveTurn(ctx, "chat-1", "ai", "hi"); err != nil {
		t.Fatalf("SaveTurn failed: %v", err)
	}
	if err := ms.SaveTurn(ctx, "chat-1", "human", "bye"); err != nil {
		t.Fatalf("SaveTurn failed: %v", err)
	}

	history, err := ms.GetMessageHistory(ctx, "chat-1", 2)
	if err != nil {
		t.Fatalf("GetMessageHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length got %d, want 2", len(history))
	}
	if history[0] != "ai: hi" || history[1] != "human: bye" {
		t.Errorf("history got %v", history)
	}
}

func TestRedisMessageStore_ValidateChatId(t *testing.T) {
	ms := newMessageStore(t)
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	if ms.ValidateChatId(ctx, "chat-1") {
		t.Error("unknown chat id should not validate")
	}
	if err := ms.SaveTurn(ctx, "chat-1", "human", "hello"); err != nil {
		t.Fatal(err)
	}
	if !ms.ValidateChatId(ctx, "chat-1") {
		t.Error("chat id with messages should validate")
	}

	// A freshly initialized chat has no turns yet but must already
	// validate, otherwise the second message of a new chat is rejected.
	if err := ms.InitNewChat(ctx, "chat-2"); err != nil {
		t.Fatal(err)
	}
	if !ms.ValidateChatId(ctx, "chat-2") {
		t.Error("chat id should validate right after InitNewChat")
	}
}

func TestRedisMessageStore_ListAndDelete(t *testing.T) {
	ms := newMessageStore(t)
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	if err := ms.SaveTurn(ctx, "chat-1", "human", "one"); err != nil {
		t.Fatal(err)
	}
	if err := ms.SaveTurn(ctx, "chat-2", "human", "two"); err != nil {
		t.Fatal(err)
	}

	chats, err := ms.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats failed: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("chats got %v", chats)
	}

	if err := ms.DeleteChat(ctx, "chat-1"); err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}

	chats, err = ms.ListChats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 1 || chats[0] != "chat-2" {
		t.Errorf("chats after delete got %v", chats)
	}
	if ms.ValidateChatId(ctx, "chat-1") {
		t.Error("deleted chat id should not validate")
	}
}
